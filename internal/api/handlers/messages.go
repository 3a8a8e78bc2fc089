package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/kinddrop/server/internal/api/services"
	"github.com/kinddrop/server/internal/models"
	"github.com/kinddrop/server/internal/repositories"
	"github.com/kinddrop/server/internal/utils"
	"gorm.io/gorm"
)

// GET /api/v1/messages/status
// CheckSendStatus godoc
// @Summary Daily eligibility
// @Description Reports whether the caller may still send and receive today.
// @Tags Messages
// @Produce json
// @Success 200 {object} utils.Payload
// @Failure 401 {object} utils.Payload
// @Router /api/v1/messages/status [get]
func CheckSendStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	canSend, canReceive, err := services.Messages.Status(user.ID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to check send status")
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Data: map[string]any{
			"canSend":    canSend,
			"canReceive": canReceive,
		},
	})
}

// POST /api/v1/messages/send
// SendMessage godoc
// @Summary Send today's kindness note
// @Description Creates a pending message, stamps the daily limit and credits the send reward, all in one transaction.
// @Tags Messages
// @Accept json
// @Produce json
// @Success 200 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Failure 403 {object} utils.Payload "Already sent today, or banned"
// @Failure 404 {object} utils.Payload
// @Router /api/v1/messages/send [post]
func SendMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input struct {
		Text          string               `json:"text"`
		Customization models.Customization `json:"customization"`
	}
	if err := decodeJSON(r, &input); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	text := strings.TrimSpace(input.Text)
	if text == "" {
		utils.JSONError(w, http.StatusBadRequest, "Message text required")
		return
	}

	result, err := services.Messages.Send(user.ID, text, input.Customization)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrAlreadySentToday):
		utils.JSONError(w, http.StatusForbidden, "You have already sent a message today. Come back tomorrow!")
		return
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.JSONError(w, http.StatusNotFound, "User not found")
		return
	default:
		utils.JSONError(w, http.StatusInternalServerError, "Failed to create message")
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Message sent",
		Data: map[string]any{
			"messageId": result.Message.ID,
			"points":    result.NewBalance,
		},
	})
}

// GET /api/v1/messages/receive
// ReceiveMessage godoc
// @Summary Receive today's kindness note
// @Description Claims one pending message chosen at random, never one of the caller's own. An empty pool is a waiting state, not an error.
// @Tags Messages
// @Produce json
// @Success 200 {object} utils.Payload
// @Failure 403 {object} utils.Payload "Already received today"
// @Failure 404 {object} utils.Payload
// @Router /api/v1/messages/receive [get]
func ReceiveMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	msg, err := services.Messages.Receive(user.ID)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrAlreadyReceivedToday):
		utils.JSONError(w, http.StatusForbidden, "You have already received a message today. Come back tomorrow!")
		return
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.JSONError(w, http.StatusNotFound, "User not found")
		return
	default:
		utils.JSONError(w, http.StatusInternalServerError, "Failed to get messages")
		return
	}

	if msg == nil {
		utils.JSONResponse(w, http.StatusOK, utils.Payload{
			Success: true,
			Data: map[string]any{
				"waiting": true,
				"message": nil,
			},
		})
		return
	}

	// The sender's display handle; never the login email.
	senderName := "Unknown"
	if sender, err := repositories.GetUserByID(repositories.DB, msg.SenderID); err == nil {
		senderName = sender.Username
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Data: map[string]any{
			"waiting": false,
			"message": map[string]any{
				"id":            msg.ID,
				"text":          msg.Text,
				"sender":        senderName,
				"timestamp":     msg.CreatedAt.UnixMilli(),
				"customization": msg.Customization,
			},
		},
	})
}

type messageView struct {
	ID            uuid.UUID            `json:"id"`
	Text          string               `json:"text"`
	Sender        *string              `json:"sender,omitempty"`
	Recipient     *string              `json:"recipient,omitempty"`
	TimestampMs   int64                `json:"timestampMs"`
	Customization models.Customization `json:"customization"`
	Type          string               `json:"type"`
}

// GET /api/v1/messages/mine
// GetUserMessages godoc
// @Summary Sent and received history
// @Tags Messages
// @Produce json
// @Success 200 {object} utils.Payload
// @Failure 401 {object} utils.Payload
// @Router /api/v1/messages/mine [get]
func GetUserMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	sent, received, err := services.Messages.History(user.ID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to load messages")
		return
	}

	// One bulk lookup for every counterpart's display handle.
	var counterpartIDs []uuid.UUID
	for _, msg := range sent {
		if msg.RecipientID != nil {
			counterpartIDs = append(counterpartIDs, *msg.RecipientID)
		}
	}
	for _, msg := range received {
		counterpartIDs = append(counterpartIDs, msg.SenderID)
	}
	counterparts, err := repositories.GetUsersByIDs(repositories.DB, counterpartIDs)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to load messages")
		return
	}

	username := func(id uuid.UUID) *string {
		if u, ok := counterparts[id]; ok {
			name := u.Username
			return &name
		}
		return nil
	}

	sentViews := make([]messageView, 0, len(sent))
	for _, msg := range sent {
		view := messageView{
			ID:            msg.ID,
			Text:          msg.Text,
			TimestampMs:   msg.CreatedAt.UnixMilli(),
			Customization: msg.Customization,
			Type:          "sent",
		}
		if msg.RecipientID != nil {
			view.Recipient = username(*msg.RecipientID)
		}
		sentViews = append(sentViews, view)
	}

	receivedViews := make([]messageView, 0, len(received))
	for _, msg := range received {
		receivedViews = append(receivedViews, messageView{
			ID:            msg.ID,
			Text:          msg.Text,
			Sender:        username(msg.SenderID),
			TimestampMs:   msg.CreatedAt.UnixMilli(),
			Customization: msg.Customization,
			Type:          "received",
		})
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Data: map[string]any{
			"sentMessages":     sentViews,
			"receivedMessages": receivedViews,
		},
	})
}
