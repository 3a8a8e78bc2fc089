package handlers

import (
	"net/http"
	"net/mail"

	"github.com/kinddrop/server/internal/api/services"
	"github.com/kinddrop/server/internal/config"
	"github.com/kinddrop/server/internal/models"
	"github.com/kinddrop/server/internal/repositories"
	"github.com/kinddrop/server/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// POST /auth/sign-up
// RegisterUser godoc
// @Summary Create an account
// @Description Registers with email and password, assigns a generated username and the starting point balance, and signs the caller in.
// @Tags Auth
// @Accept json
// @Produce json
// @Success 201 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Failure 409 {object} utils.Payload
// @Router /api/v1/auth/sign-up [post]
func RegisterUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &input); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if input.Email == "" || input.Password == "" {
		utils.JSONError(w, http.StatusBadRequest, "Email and password required")
		return
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "Invalid email format")
		return
	}

	// Check if email already exists
	_, err := repositories.GetUserByEmail(repositories.DB, input.Email)
	switch err {
	case nil:
		utils.JSONError(w, http.StatusConflict, "User already exists")
		return
	case gorm.ErrRecordNotFound:
	default:
		utils.JSONError(w, http.StatusInternalServerError, "Database error")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	newUser := models.User{
		Email:         input.Email,
		Password:      string(hashedPassword),
		Points:        config.Envs.StartingPoints,
		UnlockedItems: models.DefaultUnlockedItems,
		Roles:         []string{"user"},
		AccountType:   "regular",
	}

	// Generated usernames can collide on the unique index; re-roll a few
	// times before giving up.
	for attempt := 0; attempt < 5; attempt++ {
		newUser.Username = services.GenerateUsername()
		if err = repositories.CreateUser(repositories.DB, &newUser); err == nil {
			break
		}
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Database insert failed")
		return
	}

	if err := setSessionCookie(w, &newUser); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	utils.JSONResponse(w, http.StatusCreated, utils.Payload{
		Success: true,
		Message: "User registered successfully",
		Data: map[string]any{
			"email":    newUser.Email,
			"username": newUser.Username,
			"points":   newUser.Points,
		},
	})
}

// POST /auth/login
// LoginUser godoc
// @Summary Log in with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} utils.Payload
// @Failure 401 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/v1/auth/login [post]
func LoginUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &input); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if input.Email == "" || input.Password == "" {
		utils.JSONError(w, http.StatusBadRequest, "Email and password required")
		return
	}

	user, err := repositories.GetUserByEmail(repositories.DB, input.Email)
	switch err {
	case nil:
	case gorm.ErrRecordNotFound:
		utils.JSONError(w, http.StatusNotFound, "User not found")
		return
	default:
		utils.JSONError(w, http.StatusInternalServerError, "Database error")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		utils.JSONError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if user.Banned {
		utils.JSONError(w, http.StatusForbidden, "Account is banned")
		return
	}

	if err := setSessionCookie(w, user); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Login successful",
		Data: map[string]any{
			"email":    user.Email,
			"username": user.Username,
			"points":   user.Points,
		},
	})
}

// POST /api/v1/auth/logout
func Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	clearSessionCookie(w)
	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Logged out successfully",
	})
}
