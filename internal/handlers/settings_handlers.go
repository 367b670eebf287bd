package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"dashboard_backend/internal/middleware"
	"dashboard_backend/internal/models"
	"dashboard_backend/internal/services"
	"dashboard_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SettingsHandler holds the settings service.
type SettingsHandler struct {
	settingsService services.SettingsService
	maxBodyBytes    int64
}

// NewSettingsHandler creates a new SettingsHandler. maxBodyBytes caps the PUT body size.
func NewSettingsHandler(ss services.SettingsService, maxBodyBytes int64) *SettingsHandler {
	return &SettingsHandler{settingsService: ss, maxBodyBytes: maxBodyBytes}
}

// GetSettings returns the caller's settings record.
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, utils.MsgUserIDRequired))
		return
	}

	settings, err := h.settingsService.GetSettings(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrSettingsNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, utils.MsgSettingsNotFound))
			return
		}
		h.respondServiceError(c, "GetSettings", userID, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, gin.H{"settings": settings})
}

// UpdateSettings merges the JSON body into the caller's settings record.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, utils.MsgUserIDRequired))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusRequestEntityTooLarge, utils.ErrCodePayloadTooLarge, utils.MsgPayloadTooLarge))
			return
		}
		utils.LogError(err, "UpdateSettings: failed to read request body")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, utils.MsgInvalidPayload))
		return
	}

	settings, err := h.settingsService.UpdateSettings(c.Request.Context(), userID, body)
	if err != nil {
		h.respondServiceError(c, "UpdateSettings", userID, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, gin.H{
		"message":  utils.MsgSettingsUpdated,
		"settings": settings,
	})
}

func (h *SettingsHandler) respondServiceError(c *gin.Context, op, userID string, err error) {
	switch {
	case errors.Is(err, services.ErrMissingIdentity):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, utils.MsgUserIDRequired))
	case errors.Is(err, services.ErrMalformedPayload):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, utils.MsgInvalidPayload))
	case errors.Is(err, services.ErrSettingsValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+validationDetail(err)))
	default:
		utils.LogError(err, op+": Error from settingsService", map[string]interface{}{"user_id": userID})
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, utils.MsgInternalError))
	}
}

// validationDetail strips the sentinel prefixes so the client sees only the field message.
func validationDetail(err error) string {
	msg := strings.TrimPrefix(err.Error(), services.ErrSettingsValidation.Error()+": ")
	return strings.TrimPrefix(msg, models.ErrInvalidSettingsField.Error()+": ")
}
