package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"dashboard_backend/internal/events"
	"dashboard_backend/internal/models"
	"dashboard_backend/internal/repositories"
	"dashboard_backend/pkg/utils"
)

// --- Custom Service Errors for Settings ---
var (
	ErrMissingIdentity    = errors.New("user identity is required")
	ErrSettingsNotFound   = errors.New("settings not found")
	ErrMalformedPayload   = errors.New("settings payload must be a JSON object")
	ErrSettingsValidation = errors.New("settings validation error")
)

// --- SettingsService Interface ---
type SettingsService interface {
	GetSettings(ctx context.Context, userID string) (*models.UserSettings, error)
	// UpdateSettings parses payload as a partial settings document and merges
	// it into the caller's record, creating the record on first use.
	UpdateSettings(ctx context.Context, userID string, payload []byte) (*models.UserSettings, error)
}

// --- settingsService Implementation ---
type settingsService struct {
	settingsRepo repositories.SettingsRepository
	db           repositories.SQLExecutor
	publisher    events.Publisher
}

// NewSettingsService creates a new instance of SettingsService.
// A nil publisher disables change events.
func NewSettingsService(repo repositories.SettingsRepository, db *sql.DB, publisher events.Publisher) SettingsService {
	if publisher == nil {
		publisher = &events.NoopPublisher{}
	}
	return &settingsService{
		settingsRepo: repo,
		db:           db,
		publisher:    publisher,
	}
}

func normalizeUserID(userID string) (string, error) {
	id := strings.TrimSpace(userID)
	if id == "" {
		return "", ErrMissingIdentity
	}
	return id, nil
}

func (s *settingsService) GetSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	id, err := normalizeUserID(userID)
	if err != nil {
		return nil, err
	}

	settings, err := s.settingsRepo.GetSettingsByUserID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to retrieve settings: %w", err)
	}
	return settings, nil
}

// ParseSettingsPatch decodes and validates a PUT body.
// The body must be valid UTF-8 since Postgres jsonb rejects anything else.
func ParseSettingsPatch(payload []byte) (models.Preferences, error) {
	if !utf8.Valid(payload) {
		return models.Preferences{}, fmt.Errorf("%w: body is not valid UTF-8", ErrMalformedPayload)
	}

	var patch models.Preferences
	if err := json.Unmarshal(payload, &patch); err != nil {
		if errors.Is(err, models.ErrInvalidSettingsField) {
			return models.Preferences{}, fmt.Errorf("%w: %v", ErrSettingsValidation, err)
		}
		return models.Preferences{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if err := patch.Validate(); err != nil {
		return models.Preferences{}, fmt.Errorf("%w: %v", ErrSettingsValidation, err)
	}
	patch.Normalize()
	return patch, nil
}

func (s *settingsService) UpdateSettings(ctx context.Context, userID string, payload []byte) (*models.UserSettings, error) {
	id, err := normalizeUserID(userID)
	if err != nil {
		return nil, err
	}

	patch, err := ParseSettingsPatch(payload)
	if err != nil {
		return nil, err
	}

	settings, created, err := s.settingsRepo.UpsertSettings(ctx, s.db, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}

	topic := events.TopicSettingsUpdated
	if created {
		topic = events.TopicSettingsCreated
	}
	event := events.SettingsChanged{UserID: id, Changed: patch.Keys(), Settings: settings}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		utils.LogWarn(err, "UpdateSettings: failed to publish settings event", map[string]interface{}{
			"user_id": id, "topic": topic,
		})
	}

	utils.LogDebug("Settings upserted", map[string]interface{}{
		"user_id": id, "created": created, "changed": patch.Keys(),
	})
	return settings, nil
}
