package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/hypnosapp/hypnos-backend/internal/apierr"
	"github.com/hypnosapp/hypnos-backend/internal/http/response"
	"github.com/hypnosapp/hypnos-backend/internal/services"
)

type ConfigHandler struct {
	configService services.ConfigService
}

func NewConfigHandler(configService services.ConfigService) *ConfigHandler {
	return &ConfigHandler{configService: configService}
}

func (h *ConfigHandler) Get(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	cfg, err := h.configService.Get(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, cfg)
}

func (h *ConfigHandler) Update(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	var update services.ConfigUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		response.RespondAPIError(c, apierr.Validation(err))
		return
	}
	cfg, err := h.configService.Update(c.Request.Context(), userID, update)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, cfg)
}
