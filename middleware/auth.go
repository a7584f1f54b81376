package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"bankly/services"
)

type contextKey string

const userIDKey contextKey = "user_id"

// TokenParser проверяет JWT и возвращает его claims
type TokenParser interface {
	Parse(tokenString string) (*services.Claims, error)
}

// AuthMiddleware проверяет JWT токен и кладет user_id в контекст запроса
func AuthMiddleware(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Получаем токен из заголовка
			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, http.StatusUnauthorized, "authorization header is required")
				return
			}

			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(tokenString) == "" {
				writeError(w, http.StatusUnauthorized, "authorization header must be a bearer token")
				return
			}

			claims, err := tokens.Parse(strings.TrimSpace(tokenString))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
		})
	}
}

// WithUserID возвращает контекст с идентификатором пользователя
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext получает идентификатор пользователя из контекста
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
