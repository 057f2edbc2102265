package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hypnosapp/hypnos-backend/internal/apierr"
	"github.com/hypnosapp/hypnos-backend/internal/http/response"
	"github.com/hypnosapp/hypnos-backend/internal/services"
)

type VoiceHandler struct {
	voiceService services.VoiceService
}

func NewVoiceHandler(voiceService services.VoiceService) *VoiceHandler {
	return &VoiceHandler{voiceService: voiceService}
}

func (h *VoiceHandler) List(c *gin.Context) {
	voices, err := h.voiceService.List(c.Request.Context(), true)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"voices": voices})
}

func (h *VoiceHandler) GetDefault(c *gin.Context) {
	voice, err := h.voiceService.GetDefault(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if voice == nil {
		response.RespondAPIError(c, apierr.NotFound(fmt.Errorf("no default voice configured")))
		return
	}
	response.RespondOK(c, voice)
}

func (h *VoiceHandler) Create(c *gin.Context) {
	var input services.CreateVoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondAPIError(c, apierr.Validation(err))
		return
	}
	voice, err := h.voiceService.Create(c.Request.Context(), input)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, voice)
}

func (h *VoiceHandler) SetDefault(c *gin.Context) {
	voiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, apierr.Validation(fmt.Errorf("invalid voice id: %w", err)))
		return
	}
	voice, err := h.voiceService.SetDefault(c.Request.Context(), voiceID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, voice)
}
