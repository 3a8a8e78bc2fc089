package handlers

import (
	"errors"
	"net/http"
	"strings"

	goaway "github.com/TwiN/go-away"
	"github.com/kinddrop/server/internal/api/services"
	"github.com/kinddrop/server/internal/utils"
)

// POST /api/v1/moderation/check
// ModerateText godoc
// @Summary Classify text with the moderation API
// @Description Proxies the OpenAI moderation endpoint, backing off on rate limits.
// @Tags Moderation
// @Accept json
// @Produce json
// @Success 200 {object} utils.Payload
// @Failure 429 {object} utils.Payload "Rate limited or in cooldown"
// @Router /api/v1/moderation/check [post]
func ModerateText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var input struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &input); err != nil || strings.TrimSpace(input.Text) == "" {
		utils.JSONError(w, http.StatusBadRequest, "Text is required")
		return
	}

	result, err := services.Moderation.Check(r.Context(), input.Text)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrModerationCooldown):
		utils.JSONError(w, http.StatusTooManyRequests, err.Error())
		return
	case errors.Is(err, services.ErrModerationRateLimited):
		utils.JSONError(w, http.StatusTooManyRequests, err.Error())
		return
	default:
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Data:    result,
	})
}

// POST /api/v1/moderation/profanity
// Local wordlist check; no external call.
func CheckProfanity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var input struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &input); err != nil || input.Text == "" {
		utils.JSONError(w, http.StatusBadRequest, "Text is required")
		return
	}

	flagged := goaway.IsProfane(input.Text)
	score := 0.0
	if flagged {
		score = 1.0
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Data: map[string]any{
			"flagged": flagged,
			"categories": map[string]bool{
				"profanity": flagged,
			},
			"category_scores": map[string]float64{
				"profanity": score,
			},
			"details": map[string]any{
				"badWordsMatched": goaway.ExtractProfanity(input.Text),
				"cleanedText":     goaway.Censor(input.Text),
			},
		},
	})
}
