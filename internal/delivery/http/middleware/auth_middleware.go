package middleware

import (
	"context"
	"net/http"
	"strings"

	"bazarhub-backend/internal/domain"
	"bazarhub-backend/pkg/utils"
)

// Auth authenticates the request and stores a claims-built user in the
// context. The user is reconstructed from the token rather than loaded from
// the database, so role changes take effect on the next token refresh.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)
		if tokenString == "" {
			http.Error(w, "Unauthorized: No token provided", http.StatusUnauthorized)
			return
		}

		claims, err := utils.ValidateJWT(tokenString)
		if err != nil {
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}

		sub, _ := claims["sub"].(string)
		email, _ := claims["email"].(string)
		role, _ := claims["role"].(string)

		user := &domain.User{
			ID:    sub,
			Email: email,
			Role:  role,
		}

		ctx := context.WithValue(r.Context(), domain.UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken pulls the access token from the Authorization header, the
// accessToken cookie, or a token query parameter. The query fallback exists
// for websocket clients, which cannot set headers during the upgrade.
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if cookie, err := r.Cookie("accessToken"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.URL.Query().Get("token")
}

// RequireRoles gates a route to the listed roles. Must run after Auth.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	allowed := map[string]bool{}
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := r.Context().Value(domain.UserContextKey).(*domain.User)
			if !ok || user == nil {
				http.Error(w, "Unauthorized: No user found in context", http.StatusUnauthorized)
				return
			}
			if !allowed[user.Role] {
				http.Error(w, "Forbidden: Insufficient role", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
