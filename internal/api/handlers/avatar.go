package handlers

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/kinddrop/server/internal/repositories"
	"github.com/kinddrop/server/internal/utils"
)

// POST /api/v1/users/me/avatar
// UploadAvatar godoc
// @Summary Upload a profile picture
// @Description Stores the image (≤4 MB) in object storage and saves its public URL on the account.
// @Tags Users
// @Accept multipart/form-data
// @Produce json
// @Param avatar formData file true "Image file"
// @Success 200 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Router /api/v1/users/me/avatar [post]
func UploadAvatar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	const maxAvatarSize = 4 << 20 // 4 MB
	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "Invalid image upload form")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "Profile image is required")
		return
	}
	defer file.Close()

	if header.Size > maxAvatarSize {
		utils.JSONError(w, http.StatusBadRequest, "Image exceeds 4 MB limit")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarSize))
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to read image")
		return
	}

	contentType := http.DetectContentType(data)
	switch contentType {
	case "image/png", "image/jpeg", "image/gif", "image/webp":
	default:
		utils.JSONError(w, http.StatusBadRequest, "Invalid image format")
		return
	}

	token, err := utils.GenerateSecureToken(16)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to generate object key")
		return
	}
	key := fmt.Sprintf("avatars/%s/%s", user.ID, token)

	avatarURL, err := repositories.UploadAvatar(r.Context(), key, contentType, data)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to store image")
		return
	}

	err = repositories.UpdateUserFields(repositories.DB, user.ID, map[string]any{
		"avatar_url": avatarURL,
	})
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Database error")
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Profile picture updated",
		Data:    map[string]any{"avatarUrl": avatarURL},
	})
}

// POST /api/v1/users/me/avatar/regenerate
// Rolls a fresh generated avatar from a random seed.
func RegenerateAvatar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	seed := utils.RandomSeed(8)
	avatarURL := fmt.Sprintf(
		"https://api.dicebear.com/9.x/rings/svg?seed=%s&backgroundColor=04011E&ringColor=8000FF",
		url.QueryEscape(seed),
	)

	err := repositories.UpdateUserFields(repositories.DB, user.ID, map[string]any{
		"avatar_url": avatarURL,
	})
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Database error")
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Avatar regenerated",
		Data:    map[string]any{"avatarUrl": avatarURL},
	})
}
