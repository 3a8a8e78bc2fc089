package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/kinddrop/server/internal/models"
	"github.com/kinddrop/server/internal/repositories"
	"github.com/kinddrop/server/internal/utils"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// GET /api/v1/admin/stats
// AdminStats godoc
// @Summary Aggregate user and message counts
// @Tags Admin
// @Produce json
// @Success 200 {object} utils.Payload
// @Failure 403 {object} utils.Payload
// @Router /api/v1/admin/stats [get]
func AdminStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	var totalUsers, totalMessages, pending, delivered int64

	g, ctx := errgroup.WithContext(r.Context())
	db := repositories.DB.WithContext(ctx)
	g.Go(func() (err error) {
		totalUsers, err = repositories.CountUsers(db)
		return
	})
	g.Go(func() (err error) {
		totalMessages, err = repositories.CountMessages(db)
		return
	})
	g.Go(func() (err error) {
		pending, err = repositories.CountMessagesByStatus(db, models.StatusPending)
		return
	})
	g.Go(func() (err error) {
		delivered, err = repositories.CountMessagesByStatus(db, models.StatusDelivered)
		return
	})
	if err := g.Wait(); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Database error")
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Data: map[string]any{
			"totalUsers":        totalUsers,
			"totalMessages":     totalMessages,
			"pendingMessages":   pending,
			"deliveredMessages": delivered,
		},
	})
}

// GET /api/v1/admin/users
func AdminListUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	users, err := repositories.ListUsers(repositories.DB)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Database error")
		return
	}

	views := make([]map[string]any, 0, len(users))
	for _, u := range users {
		views = append(views, map[string]any{
			"id":          u.ID,
			"email":       u.Email,
			"username":    u.Username,
			"points":      u.Points,
			"roles":       u.Roles,
			"accountType": u.AccountType,
			"banned":      u.Banned,
			"createdAt":   u.CreatedAt,
		})
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Data:    map[string]any{"users": views},
	})
}

// GET /api/v1/admin/messages
func AdminListMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	messages, err := repositories.ListAllMessages(repositories.DB)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Database error")
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Data:    map[string]any{"messages": messages},
	})
}

// POST /api/v1/admin/users/update
// Partial edit; only fields present in the body are touched.
func AdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	var input struct {
		Email       string    `json:"email"`
		FirstName   *string   `json:"firstName"`
		Username    *string   `json:"username"`
		Points      *int      `json:"points"`
		Roles       *[]string `json:"roles"`
		AccountType *string   `json:"accountType"`
		Banned      *bool     `json:"banned"`
	}
	if err := decodeJSON(r, &input); err != nil || input.Email == "" {
		utils.JSONError(w, http.StatusBadRequest, "email is required")
		return
	}

	target, err := repositories.GetUserByEmail(repositories.DB, input.Email)
	switch err {
	case nil:
	case gorm.ErrRecordNotFound:
		utils.JSONError(w, http.StatusNotFound, "User not found")
		return
	default:
		utils.JSONError(w, http.StatusInternalServerError, "Database error")
		return
	}

	fields := map[string]any{}
	if input.FirstName != nil {
		fields["first_name"] = *input.FirstName
	}
	if input.Username != nil {
		fields["username"] = *input.Username
	}
	if input.Points != nil {
		if *input.Points < 0 {
			utils.JSONError(w, http.StatusBadRequest, "points must not be negative")
			return
		}
		fields["points"] = *input.Points
	}
	if input.Roles != nil {
		fields["roles"] = *input.Roles
	}
	if input.AccountType != nil {
		fields["account_type"] = *input.AccountType
	}
	if input.Banned != nil {
		fields["banned"] = *input.Banned
	}
	if len(fields) == 0 {
		utils.JSONResponse(w, http.StatusOK, utils.Payload{Success: true, Message: "Nothing to update"})
		return
	}

	if err := repositories.UpdateUserFields(repositories.DB, target.ID, fields); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Database error")
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{Success: true, Message: "User updated"})
}

// POST /api/v1/admin/users/delete
// Deletes the account and every message it sent or received.
func AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	var input struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &input); err != nil || input.Email == "" {
		utils.JSONError(w, http.StatusBadRequest, "email is required")
		return
	}

	target, err := repositories.GetUserByEmail(repositories.DB, input.Email)
	switch err {
	case nil:
	case gorm.ErrRecordNotFound:
		utils.JSONError(w, http.StatusNotFound, "User not found")
		return
	default:
		utils.JSONError(w, http.StatusInternalServerError, "Database error")
		return
	}

	if err := repositories.DeleteUserCascade(r.Context(), repositories.DB, target.ID); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Database error")
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{Success: true, Message: "User deleted"})
}

// POST /api/v1/admin/messages/delete
func AdminDeleteMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	var input struct {
		MessageID string `json:"messageId"`
	}
	if err := decodeJSON(r, &input); err != nil || input.MessageID == "" {
		utils.JSONError(w, http.StatusBadRequest, "messageId is required")
		return
	}

	messageID, err := uuid.Parse(input.MessageID)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "messageId is invalid")
		return
	}

	if err := repositories.DeleteMessage(repositories.DB, messageID); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Database error")
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{Success: true, Message: "Message deleted"})
}
