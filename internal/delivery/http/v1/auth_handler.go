package v1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"bazarhub-backend/internal/domain"
	"bazarhub-backend/internal/usecase"
	"bazarhub-backend/pkg/utils"
)

type AuthHandler struct {
	authUC       *usecase.AuthUsecase
	secureCookie bool
}

func NewAuthHandler(uc *usecase.AuthUsecase, secureCookie bool) *AuthHandler {
	return &AuthHandler{authUC: uc, secureCookie: secureCookie}
}

type registerReq struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.Email == "" || len(req.Password) < 8 {
		utils.WriteError(w, http.StatusBadRequest, "Email and a password of at least 8 characters are required")
		return
	}

	user, err := h.authUC.Register(r.Context(), req.Email, req.Password, req.FirstName, req.LastName, req.Phone)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusCreated, user)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	user, pair, err := h.authUC.Login(r.Context(), req.Email, req.Password, r.UserAgent())
	if err != nil {
		status := http.StatusUnauthorized
		if !errors.Is(err, usecase.ErrInvalidCredentials) && !errors.Is(err, usecase.ErrAccountDisabled) {
			status = http.StatusInternalServerError
		}
		utils.WriteError(w, status, err.Error())
		return
	}

	h.setTokenCookies(w, pair)
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user":   user,
		"tokens": pair,
	})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := refreshTokenFrom(r)
	if token == "" {
		utils.WriteError(w, http.StatusBadRequest, "Refresh token required")
		return
	}

	user, pair, err := h.authUC.Refresh(r.Context(), token, r.UserAgent())
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, err.Error())
		return
	}

	h.setTokenCookies(w, pair)
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user":   user,
		"tokens": pair,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := refreshTokenFrom(r); token != "" {
		_ = h.authUC.Logout(r.Context(), token)
	}
	h.clearTokenCookies(w)
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(domain.UserContextKey).(*domain.User)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	// Claims hold a partial user; return the full profile.
	profile, err := h.authUC.GetProfile(r.Context(), user.ID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, profile)
}

type updateProfileReq struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(domain.UserContextKey).(*domain.User)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req updateProfileReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	updated, err := h.authUC.UpdateProfile(r.Context(), user.ID, req.FirstName, req.LastName, req.Phone)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, updated)
}

// --- Admin: user management ---

func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	users, total, err := h.authUC.GetUsers(r.Context(), domain.UserFilter{
		Page:   page,
		Limit:  limit,
		Role:   r.URL.Query().Get("role"),
		Search: r.URL.Query().Get("search"),
	})
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"total": total,
	})
}

func (h *AuthHandler) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req struct {
		IsActive bool `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if err := h.authUC.SetUserActive(r.Context(), id, req.IsActive); err != nil {
		writeRepoError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "User status updated"})
}

func (h *AuthHandler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if err := h.authUC.SetUserRole(r.Context(), id, req.Role); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			utils.WriteError(w, http.StatusNotFound, "User not found")
			return
		}
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "User role updated"})
}

// --- Cookie helpers ---

func refreshTokenFrom(r *http.Request) string {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.RefreshToken != "" {
		return body.RefreshToken
	}
	if cookie, err := r.Cookie("refreshToken"); err == nil {
		return cookie.Value
	}
	return ""
}

func (h *AuthHandler) setTokenCookies(w http.ResponseWriter, pair *usecase.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Value:    pair.AccessToken,
		Path:     "/",
		Expires:  pair.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refreshToken",
		Value:    pair.RefreshToken,
		Path:     "/api/v1/auth",
		Expires:  time.Now().Add(7 * 24 * time.Hour),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearTokenCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: "accessToken", Value: "", Path: "/", MaxAge: -1})
	http.SetCookie(w, &http.Cookie{Name: "refreshToken", Value: "", Path: "/api/v1/auth", MaxAge: -1})
}

// writeRepoError maps repository errors onto HTTP statuses.
func writeRepoError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		utils.WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	utils.WriteError(w, http.StatusInternalServerError, err.Error())
}
