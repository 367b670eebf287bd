package utils

import (
	"github.com/gin-gonic/gin"
)

// APIError is the failure envelope every endpoint responds with.
// Only success and message reach the client; the code is for logs.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"-"`
	Message    string `json:"message"`
}

// NewAPIError creates a new APIError instance
func NewAPIError(statusCode int, code string, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

// RespondWithError sends a {success:false, message} envelope and aborts the chain.
func RespondWithError(c *gin.Context, err *APIError) {
	c.Set(ContextErrorCodeKey, err.Code)
	c.AbortWithStatusJSON(err.StatusCode, gin.H{"success": false, "message": err.Message})
}

// RespondSuccess sends a {success:true, ...fields} envelope.
func RespondSuccess(c *gin.Context, statusCode int, fields gin.H) {
	body := gin.H{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(statusCode, body)
}

// Common Error Constants
const (
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodePayloadTooLarge     = "PAYLOAD_TOO_LARGE"
	ErrCodeInternalServerError = "INTERNAL_SERVER_ERROR"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
)

// Client-facing messages.
const (
	MsgUserIDRequired   = "User ID required"
	MsgInvalidToken     = "Invalid or expired token"
	MsgSettingsNotFound = "Settings not found"
	MsgSettingsUpdated  = "Settings updated successfully"
	MsgInvalidPayload   = "Invalid request payload"
	MsgPayloadTooLarge  = "Payload too large"
	MsgInternalError    = "Internal server error"

	MsgDatabaseUnavailable = "Database unavailable"
	MsgWebhookReceived     = "Webhook received"
)
