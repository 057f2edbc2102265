package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hypnosapp/hypnos-backend/internal/apierr"
	"github.com/hypnosapp/hypnos-backend/internal/http/response"
	"github.com/hypnosapp/hypnos-backend/internal/services"
)

type AffirmationHandler struct {
	affirmationService services.AffirmationService
	voiceService       services.VoiceService
	userService        services.UserService
}

func NewAffirmationHandler(
	affirmationService services.AffirmationService,
	voiceService services.VoiceService,
	userService services.UserService,
) *AffirmationHandler {
	return &AffirmationHandler{
		affirmationService: affirmationService,
		voiceService:       voiceService,
		userService:        userService,
	}
}

func (h *AffirmationHandler) ListCategories(c *gin.Context) {
	categories, err := h.affirmationService.ListCategories(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"categories": categories})
}

// ListDefaults serves the raw catalog, optionally narrowed by
// ?category_id= and resolved against ?voice_id=.
func (h *AffirmationHandler) ListDefaults(c *gin.Context) {
	categoryID, err := optionalUUIDQuery(c, "category_id")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	voiceID, err := optionalUUIDQuery(c, "voice_id")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	affirmations, err := h.affirmationService.ListDefaults(c.Request.Context(), categoryID, voiceID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"affirmations": affirmations})
}

func optionalUUIDQuery(c *gin.Context, key string) (*uuid.UUID, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return nil, apierr.Validation(fmt.Errorf("invalid %s: %w", key, err))
	}
	return &parsed, nil
}

// List returns the caller's merged affirmation list. Premium users
// may pick any voice via ?voice_id; free users are pinned to the
// default voice.
func (h *AffirmationHandler) List(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	voiceID, err := h.resolveVoiceID(c, userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	affirmations, err := h.affirmationService.GetUserAffirmations(c.Request.Context(), userID, voiceID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"affirmations": affirmations})
}

func (h *AffirmationHandler) resolveVoiceID(c *gin.Context, userID uuid.UUID) (*uuid.UUID, error) {
	premium, err := h.userService.IsPremium(c.Request.Context(), userID)
	if err != nil {
		return nil, err
	}

	if premium {
		if raw := c.Query("voice_id"); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				return nil, apierr.Validation(fmt.Errorf("invalid voice_id: %w", err))
			}
			return &parsed, nil
		}
	}

	defaultVoice, err := h.voiceService.GetDefault(c.Request.Context())
	if err != nil {
		return nil, err
	}
	if defaultVoice == nil {
		return nil, nil
	}
	return &defaultVoice.ID, nil
}

// Update upserts the caller's override for one catalog affirmation.
func (h *AffirmationHandler) Update(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	affirmationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, apierr.Validation(fmt.Errorf("invalid affirmation id: %w", err)))
		return
	}

	var input struct {
		Enabled *bool `json:"enabled"`
		Order   *int  `json:"order"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondAPIError(c, apierr.Validation(err))
		return
	}

	fields := map[string]any{}
	if input.Enabled != nil {
		fields["enabled"] = *input.Enabled
	}
	if input.Order != nil {
		fields["order"] = *input.Order
	}

	override, err := h.affirmationService.UpsertOverride(c.Request.Context(), userID, affirmationID, fields)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, override)
}

func (h *AffirmationHandler) BatchUpdate(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	var input struct {
		Affirmations []services.OverrideUpdate `json:"affirmations" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondAPIError(c, apierr.Validation(err))
		return
	}

	updated, err := h.affirmationService.BatchUpdate(c.Request.Context(), userID, input.Affirmations)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"updated": updated})
}

func (h *AffirmationHandler) CreateCustom(c *gin.Context) {
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
		CategoryID uuid.UUID `json:"category_id" binding:"required"`
		Text       string    `json:"text" binding:"required"`
		Order      *int      `json:"order"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondAPIError(c, apierr.Validation(err))
		return
	}

	order := 999
	if input.Order != nil {
		order = *input.Order
	}

	custom, err := h.affirmationService.CreateCustom(c.Request.Context(), userID, input.CategoryID, input.Text, order)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, custom)
}

func (h *AffirmationHandler) DeleteCustom(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if err := h.requirePremium(c, userID); err != nil {
		response.RespondAPIError(c, err)
		return
	}

	overrideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, apierr.Validation(fmt.Errorf("invalid id: %w", err)))
		return
	}

	if err := h.affirmationService.DeleteCustom(c.Request.Context(), userID, overrideID); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}

func (h *AffirmationHandler) requirePremium(c *gin.Context, userID uuid.UUID) error {
	premium, err := h.userService.IsPremium(c.Request.Context(), userID)
	if err != nil {
		return err
	}
	if !premium {
		return apierr.PermissionDenied(fmt.Errorf("premium plan required"))
	}
	return nil
}
