package middleware

import (
	"context"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/kinddrop/server/internal/config"
	"github.com/kinddrop/server/internal/utils"
)

type contextKey string

const UserIDKey contextKey = "userID"

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "token"

func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			utils.JSONError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		token, err := jwt.Parse(cookie.Value, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(config.Envs.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			utils.JSONError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			utils.JSONError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		raw, ok := claims["userId"].(string)
		if !ok || raw == "" {
			utils.JSONError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			utils.JSONError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserIDFromContext returns the authenticated user's id, if any.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return id, ok
}
