package handlers

import (
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hypnosapp/hypnos-backend/internal/apierr"
	"github.com/hypnosapp/hypnos-backend/internal/http/response"
	"github.com/hypnosapp/hypnos-backend/internal/services"
	"github.com/hypnosapp/hypnos-backend/internal/storage"
)

var audioMimeTypes = map[string]string{
	".webm": "audio/webm",
	".mp3":  "audio/mpeg",
	".mp4":  "audio/mp4",
	".m4a":  "audio/mp4",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
}

type AudioHandler struct {
	audioService services.AudioService
	userService  services.UserService
}

func NewAudioHandler(audioService services.AudioService, userService services.UserService) *AudioHandler {
	return &AudioHandler{audioService: audioService, userService: userService}
}

// Upload accepts a multipart recording and attaches it to the
// caller's override for the given affirmation.
func (h *AudioHandler) Upload(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if err := h.requirePremium(c, userID); err != nil {
		response.RespondAPIError(c, err)
		return
	}

	affirmationID, err := uuid.Parse(c.Param("affirmationID"))
	if err != nil {
		response.RespondAPIError(c, apierr.Validation(fmt.Errorf("invalid affirmation id: %w", err)))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.RespondAPIError(c, apierr.Validation(fmt.Errorf("no file provided")))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.RespondAPIError(c, apierr.Validation(fmt.Errorf("open upload: %w", err)))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.RespondAPIError(c, fmt.Errorf("read upload: %w", err))
		return
	}

	var durationMs *int
	if raw := c.PostForm("duration_ms"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.RespondAPIError(c, apierr.Validation(fmt.Errorf("invalid duration_ms")))
			return
		}
		durationMs = &parsed
	}

	contentType := fileHeader.Header.Get("Content-Type")
	result, err := h.audioService.Upload(c.Request.Context(), userID, affirmationID, data, fileHeader.Filename, contentType, durationMs)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, result)
}

// Remove drops the caller's override audio; the affirmation falls
// back to its system audio.
func (h *AudioHandler) Remove(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	affirmationID, err := uuid.Parse(c.Param("affirmationID"))
	if err != nil {
		response.RespondAPIError(c, apierr.Validation(fmt.Errorf("invalid affirmation id: %w", err)))
		return
	}

	if err := h.audioService.Remove(c.Request.Context(), userID, affirmationID); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"removed": true})
}

// ServeFile streams a stored object from local disk. Cloud backends
// resolve to direct URLs and never hit this route.
func (h *AudioHandler) ServeFile(c *gin.Context) {
	filer, ok := h.audioService.Backend().(storage.LocalFiler)
	if !ok {
		response.RespondAPIError(c, apierr.NotFound(fmt.Errorf("local file serving not enabled")))
		return
	}

	rel := strings.TrimPrefix(c.Param("path"), "/")
	cleaned := path.Clean(rel)
	if cleaned == "" || cleaned == "." || strings.HasPrefix(cleaned, "..") {
		response.RespondAPIError(c, apierr.Validation(fmt.Errorf("invalid path")))
		return
	}

	contentType := audioMimeTypes[strings.ToLower(path.Ext(cleaned))]
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.File(filer.FullPath(cleaned))
}

func (h *AudioHandler) requirePremium(c *gin.Context, userID uuid.UUID) error {
	premium, err := h.userService.IsPremium(c.Request.Context(), userID)
	if err != nil {
		return err
	}
	if !premium {
		return apierr.PermissionDenied(fmt.Errorf("premium plan required"))
	}
	return nil
}
