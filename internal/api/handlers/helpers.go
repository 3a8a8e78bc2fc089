package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kinddrop/server/internal/api/middleware"
	"github.com/kinddrop/server/internal/config"
	"github.com/kinddrop/server/internal/models"
	"github.com/kinddrop/server/internal/repositories"
	"github.com/kinddrop/server/internal/utils"
	"gorm.io/gorm"
)

// Claims carried by the session token.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

const sessionTTL = 7 * 24 * time.Hour

// currentUser resolves the authenticated account. On failure it writes the
// error response and returns false. Banned accounts are rejected and logged
// out immediately.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.JSONError(w, http.StatusUnauthorized, "Not authenticated")
		return nil, false
	}

	user, err := repositories.GetUserByID(repositories.DB, userID)
	switch err {
	case nil:
	case gorm.ErrRecordNotFound:
		// Valid-looking session for a deleted account: a stale cookie.
		utils.JSONError(w, http.StatusNotFound, "User not found")
		return nil, false
	default:
		utils.JSONError(w, http.StatusInternalServerError, "Database error")
		return nil, false
	}

	if user.Banned {
		clearSessionCookie(w)
		utils.JSONError(w, http.StatusForbidden, "Account is banned")
		return nil, false
	}

	return user, true
}

// requireAdmin is currentUser plus an admin-role gate.
func requireAdmin(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := currentUser(w, r)
	if !ok {
		return nil, false
	}
	if !user.IsAdmin() {
		utils.JSONError(w, http.StatusForbidden, "Admin access required")
		return nil, false
	}
	return user, true
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func setSessionCookie(w http.ResponseWriter, user *models.User) error {
	expiration := time.Now().Add(sessionTTL)
	claims := &Claims{
		UserID:   user.ID.String(),
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(config.Envs.JWTSecret))
	if err != nil {
		return err
	}

	isProd := config.Envs.Environment == "production"
	sameSite := http.SameSiteLaxMode
	if isProd {
		sameSite = http.SameSiteNoneMode
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    tokenString,
		Path:     "/",
		MaxAge:   int(time.Until(expiration).Seconds()),
		Secure:   isProd,
		HttpOnly: true,
		SameSite: sameSite,
	})
	return nil
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   config.Envs.Environment == "production",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
