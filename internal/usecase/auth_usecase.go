package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bazarhub-backend/internal/domain"
	"bazarhub-backend/pkg/logger"
	"bazarhub-backend/pkg/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrTokenInvalid       = errors.New("refresh token is invalid or expired")
)

type AuthUsecase struct {
	userRepo           domain.UserRepository
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
}

func NewAuthUsecase(userRepo domain.UserRepository, accessExpiry, refreshExpiry time.Duration) *AuthUsecase {
	return &AuthUsecase{
		userRepo:           userRepo,
		accessTokenExpiry:  accessExpiry,
		refreshTokenExpiry: refreshExpiry,
	}
}

type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

func (u *AuthUsecase) Register(ctx context.Context, email, password, firstName, lastName, phone string) (*domain.User, error) {
	if _, err := u.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email already registered")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           utils.GenerateUUID(),
		Email:        email,
		PasswordHash: hash,
		Role:         "customer",
		FirstName:    firstName,
		LastName:     lastName,
		Phone:        phone,
		IsActive:     true,
	}
	if err := u.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.Get().Info().Str("user_id", user.ID).Msg("User registered")
	return user, nil
}

func (u *AuthUsecase) Login(ctx context.Context, email, password, device string) (*domain.User, *TokenPair, error) {
	user, err := u.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, ErrAccountDisabled
	}

	pair, err := u.issueTokens(ctx, user, device)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh rotates the refresh token: the presented token is revoked and a
// fresh pair is issued, so a replayed token fails.
func (u *AuthUsecase) Refresh(ctx context.Context, refreshToken, device string) (*domain.User, *TokenPair, error) {
	stored, err := u.userRepo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, ErrTokenInvalid
		}
		return nil, nil, err
	}
	if stored.Revoked || time.Now().After(stored.ExpiresAt) {
		return nil, nil, ErrTokenInvalid
	}

	user, err := u.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, ErrAccountDisabled
	}

	if err := u.userRepo.RevokeRefreshToken(ctx, refreshToken); err != nil {
		return nil, nil, err
	}

	pair, err := u.issueTokens(ctx, user, device)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (u *AuthUsecase) Logout(ctx context.Context, refreshToken string) error {
	return u.userRepo.RevokeRefreshToken(ctx, refreshToken)
}

func (u *AuthUsecase) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return u.userRepo.GetByID(ctx, userID)
}

func (u *AuthUsecase) UpdateProfile(ctx context.Context, userID, firstName, lastName, phone string) (*domain.User, error) {
	return u.userRepo.UpdateProfile(ctx, userID, firstName, lastName, phone)
}

func (u *AuthUsecase) issueTokens(ctx context.Context, user *domain.User, device string) (*TokenPair, error) {
	expiresAt := time.Now().Add(u.accessTokenExpiry)
	access, err := utils.GenerateJWT(user.ID, user.Email, user.Role, u.accessTokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refresh := &domain.RefreshToken{
		Token:     utils.GenerateUUID(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(u.refreshTokenExpiry),
		Device:    device,
	}
	if err := u.userRepo.SaveRefreshToken(ctx, refresh); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh.Token,
		ExpiresAt:    expiresAt,
	}, nil
}

// --- Admin user management ---

func (u *AuthUsecase) GetUsers(ctx context.Context, filter domain.UserFilter) ([]domain.User, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return u.userRepo.GetAll(ctx, filter)
}

func (u *AuthUsecase) SetUserActive(ctx context.Context, id string, active bool) error {
	return u.userRepo.SetActive(ctx, id, active)
}

func (u *AuthUsecase) SetUserRole(ctx context.Context, id, role string) error {
	switch role {
	case "admin", "staff", "customer":
	default:
		return fmt.Errorf("unknown role: %s", role)
	}
	return u.userRepo.SetRole(ctx, id, role)
}
