package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"dashboard_backend/internal/models"

	"github.com/lib/pq" // For pq.Error
)

// SettingsRepository defines the interface for user settings database operations.
type SettingsRepository interface {
	GetSettingsByUserID(ctx context.Context, userID string) (*models.UserSettings, error)
	// UpsertSettings creates the record seeded with patch or merges patch into
	// the stored document. created reports whether a new row was inserted.
	UpsertSettings(ctx context.Context, executor SQLExecutor, userID string, patch models.Preferences) (settings *models.UserSettings, created bool, err error)
	// ListSettings returns up to limit records with user_id > afterUserID, ordered by user_id.
	ListSettings(ctx context.Context, afterUserID string, limit int) ([]models.UserSettings, error)
}

type settingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new instance of SettingsRepository.
func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

const settingsColumns = `user_id, settings, created_at, updated_at`

// GetSettingsByUserID retrieves the settings record owned by userID.
func (r *settingsRepository) GetSettingsByUserID(ctx context.Context, userID string) (*models.UserSettings, error) {
	query := `SELECT ` + settingsColumns + ` FROM user_settings WHERE user_id = $1`

	settings, err := scanSettings(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting settings for user %s: %v", ErrDatabaseError, userID, err)
	}
	return settings, nil
}

// UpsertSettings merges patch into the stored document with jsonb concatenation,
// which overwrites top-level keys present in patch and keeps the rest.
// The statement is atomic per row; concurrent writers race per field.
func (r *settingsRepository) UpsertSettings(ctx context.Context, executor SQLExecutor, userID string, patch models.Preferences) (*models.UserSettings, bool, error) {
	doc, err := json.Marshal(patch)
	if err != nil {
		return nil, false, fmt.Errorf("%w: encoding settings for user %s: %v", ErrDatabaseError, userID, err)
	}

	query := `INSERT INTO user_settings (user_id, settings, created_at, updated_at)
	          VALUES ($1, $2::jsonb, NOW(), NOW())
	          ON CONFLICT (user_id)
	          DO UPDATE SET settings = user_settings.settings || EXCLUDED.settings, updated_at = NOW()
	          RETURNING ` + settingsColumns + `, (xmax = 0) AS inserted`

	var (
		raw      []byte
		inserted bool
		settings = &models.UserSettings{}
	)
	err = executor.QueryRowContext(ctx, query, userID, string(doc)).Scan(
		&settings.UserID, &raw, &settings.CreatedAt, &settings.UpdatedAt, &inserted,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code.Name() == "unique_violation" {
				return nil, false, fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
			}
		}
		return nil, false, fmt.Errorf("%w: upserting settings for user %s: %v", ErrDatabaseError, userID, err)
	}
	if err := decodeDocument(raw, &settings.Preferences); err != nil {
		return nil, false, fmt.Errorf("%w: decoding settings for user %s: %v", ErrDatabaseError, userID, err)
	}
	return settings, inserted, nil
}

// ListSettings pages through all records by user_id (keyset pagination).
func (r *settingsRepository) ListSettings(ctx context.Context, afterUserID string, limit int) ([]models.UserSettings, error) {
	query := `SELECT ` + settingsColumns + ` FROM user_settings WHERE user_id > $1 ORDER BY user_id ASC LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, afterUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: querying settings: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	list := []models.UserSettings{}
	for rows.Next() {
		s, err := scanSettings(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning settings: %v", ErrDatabaseError, err)
		}
		list = append(list, *s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating settings rows: %v", ErrDatabaseError, err)
	}
	return list, nil
}

func scanSettings(row scanner) (*models.UserSettings, error) {
	s := &models.UserSettings{}
	var raw []byte
	if err := row.Scan(&s.UserID, &raw, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if err := decodeDocument(raw, &s.Preferences); err != nil {
		return nil, err
	}
	return s, nil
}

// decodeDocument reads a stored jsonb document. An empty column is an empty document.
func decodeDocument(raw []byte, prefs *models.Preferences) error {
	if len(raw) == 0 {
		*prefs = models.Preferences{}
		return nil
	}
	return json.Unmarshal(raw, prefs)
}
