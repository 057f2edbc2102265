package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/hypnosapp/hypnos-backend/internal/apierr"
	"github.com/hypnosapp/hypnos-backend/internal/http/response"
	"github.com/hypnosapp/hypnos-backend/internal/requestdata"
	"github.com/hypnosapp/hypnos-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input services.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondAPIError(c, apierr.Validation(err))
		return
	}
	result, err := h.authService.Register(c.Request.Context(), input)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, result)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondAPIError(c, apierr.Validation(err))
		return
	}
	result, err := h.authService.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, result)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var input struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondAPIError(c, apierr.Validation(err))
		return
	}
	result, err := h.authService.Refresh(c.Request.Context(), input.RefreshToken)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, result)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		response.RespondAPIError(c, apierr.Unauthorized(fmt.Errorf("missing session")))
		return
	}
	if err := h.authService.Logout(c.Request.Context(), rd.UserID); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"logged_out": true})
}
