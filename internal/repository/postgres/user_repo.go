package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bazarhub-backend/internal/domain"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `id, email, password_hash, role, first_name, last_name, phone, avatar, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.FirstName,
		&u.LastName, &u.Phone, &u.Avatar, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	q := queryFrom(ctx, r.pool)
	row := q.QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash, role, first_name, last_name, phone, avatar, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		user.ID, user.Email, user.PasswordHash, user.Role, user.FirstName,
		user.LastName, user.Phone, user.Avatar, user.IsActive)
	if err := row.Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	q := queryFrom(ctx, r.pool)
	return scanUser(q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	q := queryFrom(ctx, r.pool)
	return scanUser(q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepo) GetAll(ctx context.Context, filter domain.UserFilter) ([]domain.User, int64, error) {
	q := queryFrom(ctx, r.pool)

	where := []string{"1=1"}
	args := []any{}
	argN := 1

	if filter.Role != "" {
		where = append(where, fmt.Sprintf("role = $%d", argN))
		args = append(args, filter.Role)
		argN++
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(email ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d)", argN, argN, argN))
		args = append(args, "%"+filter.Search+"%")
		argN++
	}
	whereSQL := strings.Join(where, " AND ")

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE `+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)
	rows, err := q.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM users WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		userColumns, whereSQL, argN, argN+1), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.FirstName,
			&u.LastName, &u.Phone, &u.Avatar, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id, firstName, lastName, phone string) (*domain.User, error) {
	q := queryFrom(ctx, r.pool)
	return scanUser(q.QueryRow(ctx, `
		UPDATE users
		SET first_name = $2, last_name = $3, phone = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		id, firstName, lastName, phone))
}

func (r *UserRepo) SetActive(ctx context.Context, id string, active bool) error {
	q := queryFrom(ctx, r.pool)
	tag, err := q.Exec(ctx,
		`UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("set user active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepo) SetRole(ctx context.Context, id, role string) error {
	q := queryFrom(ctx, r.pool)
	tag, err := q.Exec(ctx,
		`UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`, id, role)
	if err != nil {
		return fmt.Errorf("set user role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepo) SaveRefreshToken(ctx context.Context, token *domain.RefreshToken) error {
	q := queryFrom(ctx, r.pool)
	_, err := q.Exec(ctx, `
		INSERT INTO refresh_tokens (token, user_id, expires_at, revoked, device)
		VALUES ($1, $2, $3, $4, $5)`,
		token.Token, token.UserID, token.ExpiresAt, token.Revoked, token.Device)
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

func (r *UserRepo) GetRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	q := queryFrom(ctx, r.pool)
	var t domain.RefreshToken
	err := q.QueryRow(ctx, `
		SELECT token, user_id, expires_at, created_at, revoked, device
		FROM refresh_tokens WHERE token = $1`, token).
		Scan(&t.Token, &t.UserID, &t.ExpiresAt, &t.CreatedAt, &t.Revoked, &t.Device)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get refresh token: %w", err)
	}
	return &t, nil
}

func (r *UserRepo) RevokeRefreshToken(ctx context.Context, token string) error {
	q := queryFrom(ctx, r.pool)
	_, err := q.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}
