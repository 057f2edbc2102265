package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hypnosapp/hypnos-backend/internal/apierr"
	"github.com/hypnosapp/hypnos-backend/internal/http/response"
	"github.com/hypnosapp/hypnos-backend/internal/services"
)

type GenerationHandler struct {
	generationService services.GenerationService
	userService       services.UserService
}

func NewGenerationHandler(generationService services.GenerationService, userService services.UserService) *GenerationHandler {
	return &GenerationHandler{generationService: generationService, userService: userService}
}

func (h *GenerationHandler) Generate(c *gin.Context) {
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

	var input struct {
		VoiceID uuid.UUID `json:"voice_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondAPIError(c, apierr.Validation(err))
		return
	}

	result, err := h.generationService.GenerateForUser(c.Request.Context(), userID, affirmationID, input.VoiceID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, result)
}

func (h *GenerationHandler) BatchGenerate(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if err := h.requirePremium(c, userID); err != nil {
		response.RespondAPIError(c, err)
		return
	}

	var input struct {
		AffirmationIDs []uuid.UUID `json:"affirmation_ids" binding:"required"`
		VoiceID        uuid.UUID   `json:"voice_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondAPIError(c, apierr.Validation(err))
		return
	}

	result, err := h.generationService.BatchGenerateForUser(c.Request.Context(), userID, input.AffirmationIDs, input.VoiceID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, result)
}

// Preview synthesizes arbitrary text and streams the clip back
// without persisting anything.
func (h *GenerationHandler) Preview(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if err := h.requirePremium(c, userID); err != nil {
		response.RespondAPIError(c, err)
		return
	}

	var input struct {
		Text    string    `json:"text" binding:"required"`
		VoiceID uuid.UUID `json:"voice_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondAPIError(c, apierr.Validation(err))
		return
	}

	audio, err := h.generationService.Preview(c.Request.Context(), input.Text, input.VoiceID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}

// Estimate reports the projected clip length and character cost for a
// text without synthesizing anything.
func (h *GenerationHandler) Estimate(c *gin.Context) {
	if _, err := currentUserID(c); err != nil {
		response.RespondAPIError(c, err)
		return
	}

	var input struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondAPIError(c, apierr.Validation(err))
		return
	}

	response.RespondOK(c, gin.H{
		"estimated_duration_ms": h.generationService.EstimateDurationMs(input.Text),
		"character_count":       len(input.Text),
	})
}

// UserInfo exposes the provider's remaining character budget.
func (h *GenerationHandler) UserInfo(c *gin.Context) {
	if _, err := currentUserID(c); err != nil {
		response.RespondAPIError(c, err)
		return
	}

	remaining, err := h.generationService.RemainingCharacters(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"remaining_characters": remaining})
}

func (h *GenerationHandler) requirePremium(c *gin.Context, userID uuid.UUID) error {
	premium, err := h.userService.IsPremium(c.Request.Context(), userID)
	if err != nil {
		return err
	}
	if !premium {
		return apierr.PermissionDenied(fmt.Errorf("premium plan required"))
	}
	return nil
}
