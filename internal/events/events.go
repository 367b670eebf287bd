// Package events publishes change notifications for settings records.
package events

import (
	"context"

	"dashboard_backend/internal/models"
)

// Event topic constants
const (
	TopicSettingsCreated = "dashboard.settings.created"
	TopicSettingsUpdated = "dashboard.settings.updated"
	TopicWebhookReceived = "dashboard.webhook.received"
)

// SettingsChanged is emitted after a successful settings upsert.
type SettingsChanged struct {
	UserID   string               `json:"userId"`
	Changed  []string             `json:"changed"` // keys present in the applied patch
	Settings *models.UserSettings `json:"settings"`
}

// WebhookReceived carries the payload of an inbound webhook.
type WebhookReceived struct {
	RequestID string `json:"requestId,omitempty"`
	Payload   any    `json:"payload"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
