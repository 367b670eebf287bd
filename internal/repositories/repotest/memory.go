// Package repotest provides an in-memory SettingsRepository for tests above
// the storage layer.
package repotest

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"dashboard_backend/internal/models"
	"dashboard_backend/internal/repositories"
)

// MemoryRepo keeps records in a map and merges patches the way the
// user_settings upsert does with jsonb ||: top-level keys in the patch
// overwrite, every other key is kept.
type MemoryRepo struct {
	mu      sync.Mutex
	records map[string]models.UserSettings

	// Err, when set, is returned by every call.
	Err error
	// Calls counts repository calls, including failed ones.
	Calls int
}

var _ repositories.SettingsRepository = (*MemoryRepo)(nil)

// NewMemoryRepo returns an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{records: map[string]models.UserSettings{}}
}

func (r *MemoryRepo) GetSettingsByUserID(_ context.Context, userID string) (*models.UserSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	if r.Err != nil {
		return nil, r.Err
	}
	s, ok := r.records[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &s, nil
}

func (r *MemoryRepo) UpsertSettings(_ context.Context, _ repositories.SQLExecutor, userID string, patch models.Preferences) (*models.UserSettings, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	if r.Err != nil {
		return nil, false, r.Err
	}
	now := time.Now()
	existing, ok := r.records[userID]
	if !ok {
		existing = models.UserSettings{UserID: userID, CreatedAt: now}
	}
	existing.Preferences = Merge(existing.Preferences, patch)
	existing.UpdatedAt = now
	r.records[userID] = existing
	return &existing, !ok, nil
}

func (r *MemoryRepo) ListSettings(_ context.Context, afterUserID string, limit int) ([]models.UserSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	if r.Err != nil {
		return nil, r.Err
	}
	ids := make([]string, 0, len(r.records))
	for id := range r.records {
		if id > afterUserID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	list := make([]models.UserSettings, 0, len(ids))
	for _, id := range ids {
		list = append(list, r.records[id])
	}
	return list, nil
}

// Merge returns base with every field present in patch overwriting base's value.
// base is not modified.
func Merge(base, patch models.Preferences) models.Preferences {
	out := base
	if patch.Theme != nil {
		out.Theme = patch.Theme
	}
	if patch.Language != nil {
		out.Language = patch.Language
	}
	if patch.Timezone != nil {
		out.Timezone = patch.Timezone
	}
	if patch.Notifications != nil {
		out.Notifications = patch.Notifications
	}
	if patch.DigestFrequency != nil {
		out.DigestFrequency = patch.DigestFrequency
	}
	if len(base.Extensions) > 0 || len(patch.Extensions) > 0 {
		out.Extensions = make(map[string]json.RawMessage, len(base.Extensions)+len(patch.Extensions))
		for k, v := range base.Extensions {
			out.Extensions[k] = v
		}
		for k, v := range patch.Extensions {
			out.Extensions[k] = v
		}
	}
	return out
}
