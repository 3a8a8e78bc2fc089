package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/kinddrop/server/internal/api/services"
	"github.com/kinddrop/server/internal/repositories"
	"github.com/kinddrop/server/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// GET /api/v1/users/me
// GetMe godoc
// @Summary Current account profile
// @Tags Users
// @Produce json
// @Success 200 {object} utils.Payload
// @Failure 401 {object} utils.Payload
// @Router /api/v1/users/me [get]
func GetMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	sentCount, err := repositories.CountMessagesBySender(repositories.DB, user.ID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Database error")
		return
	}
	receivedCount, err := repositories.CountMessagesByRecipient(repositories.DB, user.ID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Database error")
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Data: map[string]any{
			"id":                     user.ID,
			"email":                  user.Email,
			"username":               user.Username,
			"firstName":              user.FirstName,
			"lastName":               user.LastName,
			"points":                 user.Points,
			"avatarUrl":              user.AvatarURL,
			"hasRegeneratedUsername": user.HasRegeneratedUsername,
			"unlockedItems":          user.UnlockedItems,
			"accountType":            user.AccountType,
			"roles":                  user.Roles,
			"sentMessagesCount":      sentCount,
			"receivedMessagesCount":  receivedCount,
			"createdAt":              user.CreatedAt,
		},
	})
}

// POST /api/v1/users/me/profile
func UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := decodeJSON(r, &input); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	firstName := strings.TrimSpace(input.FirstName)
	if firstName == "" {
		utils.JSONError(w, http.StatusBadRequest, "First name is required")
		return
	}
	lastName := strings.TrimSpace(input.LastName)

	err := repositories.UpdateUserFields(repositories.DB, user.ID, map[string]any{
		"first_name": firstName,
		"last_name":  lastName,
	})
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Database error")
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Profile updated",
		Data: map[string]any{
			"firstName": firstName,
			"lastName":  lastName,
		},
	})
}

// POST /api/v1/users/me/password
func ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decodeJSON(r, &input); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if input.CurrentPassword == "" || input.NewPassword == "" {
		utils.JSONError(w, http.StatusBadRequest, "Current password and new password are required")
		return
	}
	if len(input.NewPassword) < 6 {
		utils.JSONError(w, http.StatusBadRequest, "New password must be at least 6 characters")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.CurrentPassword)); err != nil {
		utils.JSONError(w, http.StatusUnauthorized, "Current password is incorrect")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	err = repositories.UpdateUserFields(repositories.DB, user.ID, map[string]any{
		"password": string(hashed),
	})
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Database error")
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{Success: true, Message: "Password changed"})
}

// POST /api/v1/users/me/email
func ChangeEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input struct {
		NewEmail string `json:"newEmail"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &input); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if input.NewEmail == "" || input.Password == "" {
		utils.JSONError(w, http.StatusBadRequest, "New email and password are required")
		return
	}
	if _, err := mail.ParseAddress(input.NewEmail); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "Invalid email format")
		return
	}
	if input.NewEmail == user.Email {
		utils.JSONError(w, http.StatusBadRequest, "New email must be different from current email")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		utils.JSONError(w, http.StatusUnauthorized, "Password is incorrect")
		return
	}

	_, err := repositories.GetUserByEmail(repositories.DB, input.NewEmail)
	switch err {
	case nil:
		utils.JSONError(w, http.StatusConflict, "Email already in use")
		return
	case gorm.ErrRecordNotFound:
	default:
		utils.JSONError(w, http.StatusInternalServerError, "Database error")
		return
	}

	err = repositories.UpdateUserFields(repositories.DB, user.ID, map[string]any{
		"email": input.NewEmail,
	})
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Database error")
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Email changed",
		Data:    map[string]any{"email": input.NewEmail},
	})
}

// GET/POST /api/v1/users/me/username/regenerate
// GET suggests a fresh handle; POST accepts one. Accepting is allowed once
// per account.
func RegenerateUsername(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		utils.JSONResponse(w, http.StatusOK, utils.Payload{
			Success: true,
			Data:    map[string]any{"newUsername": services.GenerateUsername()},
		})
	case http.MethodPost:
		user, ok := currentUser(w, r)
		if !ok {
			return
		}

		var input struct {
			NewUsername string `json:"newUsername"`
		}
		if err := decodeJSON(r, &input); err != nil || strings.TrimSpace(input.NewUsername) == "" {
			utils.JSONError(w, http.StatusBadRequest, "New username required")
			return
		}

		if user.HasRegeneratedUsername {
			utils.JSONError(w, http.StatusForbidden, "You have already regenerated your username once.")
			return
		}

		err := repositories.UpdateUserFields(repositories.DB, user.ID, map[string]any{
			"username":                 input.NewUsername,
			"has_regenerated_username": true,
		})
		if err != nil {
			utils.JSONError(w, http.StatusInternalServerError, "Database error")
			return
		}

		utils.JSONResponse(w, http.StatusOK, utils.Payload{
			Success: true,
			Message: "Username updated",
			Data:    map[string]any{"username": input.NewUsername},
		})
	default:
		utils.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// POST /api/v1/shop/unlock
// UnlockItem godoc
// @Summary Spend points on a cosmetic unlock
// @Tags Shop
// @Accept json
// @Produce json
// @Success 200 {object} utils.Payload
// @Failure 400 {object} utils.Payload "Already unlocked or not enough karma"
// @Router /api/v1/shop/unlock [post]
func UnlockItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input struct {
		ItemID string `json:"itemId"`
		Cost   *int   `json:"cost"`
	}
	if err := decodeJSON(r, &input); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if input.ItemID == "" || input.Cost == nil || *input.Cost < 0 {
		utils.JSONError(w, http.StatusBadRequest, "Item ID and cost required")
		return
	}

	updated, err := repositories.UnlockItem(repositories.DB, user.ID, input.ItemID, *input.Cost)
	switch {
	case err == nil:
	case errors.Is(err, repositories.ErrItemAlreadyUnlocked):
		utils.JSONError(w, http.StatusBadRequest, "Item already unlocked")
		return
	case errors.Is(err, repositories.ErrInsufficientPoints):
		utils.JSONError(w, http.StatusBadRequest, "Not enough karma")
		return
	default:
		utils.JSONError(w, http.StatusInternalServerError, "Database error")
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Item unlocked",
		Data: map[string]any{
			"newPoints":     updated.Points,
			"unlockedItems": updated.UnlockedItems,
		},
	})
}
