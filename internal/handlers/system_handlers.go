package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"dashboard_backend/internal/events"
	"dashboard_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SystemHandler serves the health check and the webhook echo endpoint.
type SystemHandler struct {
	db           Pinger
	publisher    events.Publisher
	maxBodyBytes int64
	pingTimeout  time.Duration
}

// NewSystemHandler creates a new SystemHandler. A nil publisher disables webhook events.
func NewSystemHandler(db Pinger, publisher events.Publisher, maxBodyBytes int64) *SystemHandler {
	if publisher == nil {
		publisher = &events.NoopPublisher{}
	}
	return &SystemHandler{db: db, publisher: publisher, maxBodyBytes: maxBodyBytes, pingTimeout: 2 * time.Second}
}

// Health pings the database.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.pingTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		utils.LogError(err, "Health: database ping failed")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusServiceUnavailable, utils.ErrCodeServiceUnavailable, utils.MsgDatabaseUnavailable))
		return
	}
	utils.RespondSuccess(c, http.StatusOK, gin.H{"database": "ok"})
}

// Webhook echoes a JSON body back to the sender and publishes it.
func (h *SystemHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusRequestEntityTooLarge, utils.ErrCodePayloadTooLarge, utils.MsgPayloadTooLarge))
			return
		}
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, utils.MsgInvalidPayload))
		return
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, utils.MsgInvalidPayload))
		return
	}

	requestID := c.GetString(utils.ContextRequestIDKey)
	utils.LogInfo("Webhook received", map[string]interface{}{"request_id": requestID, "bytes": len(body)})

	event := events.WebhookReceived{RequestID: requestID, Payload: payload}
	if err := h.publisher.Publish(c.Request.Context(), events.TopicWebhookReceived, event); err != nil {
		utils.LogWarn(err, "Webhook: failed to publish event", map[string]interface{}{"request_id": requestID})
	}

	utils.RespondSuccess(c, http.StatusOK, gin.H{
		"message":  utils.MsgWebhookReceived,
		"received": json.RawMessage(body),
	})
}
