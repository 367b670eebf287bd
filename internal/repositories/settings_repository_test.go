package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"dashboard_backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

var settingsRowColumns = []string{"user_id", "settings", "created_at", "updated_at"}

func TestGetSettingsByUserID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSettingsRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT user_id, settings, created_at, updated_at FROM user_settings WHERE user_id = \$1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(settingsRowColumns).
			AddRow("u1", []byte(`{"theme":"dark","lang":"en"}`), now, now))

	got, err := repo.GetSettingsByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	require.NotNil(t, got.Preferences.Theme)
	assert.Equal(t, "dark", *got.Preferences.Theme)
	assert.JSONEq(t, `"en"`, string(got.Preferences.Extensions["lang"]))
	assert.Equal(t, now, got.CreatedAt)
}

func TestGetSettingsByUserID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSettingsRepository(db)

	mock.ExpectQuery(`FROM user_settings WHERE user_id = \$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetSettingsByUserID(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetSettingsByUserID_DatabaseError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSettingsRepository(db)

	mock.ExpectQuery(`FROM user_settings`).
		WithArgs("u1").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.GetSettingsByUserID(context.Background(), "u1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDatabaseError)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestUpsertSettings_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSettingsRepository(db)
	now := time.Now().UTC()
	on := true

	mock.ExpectQuery(`INSERT INTO user_settings .+ ON CONFLICT \(user_id\) DO UPDATE SET settings = user_settings.settings \|\| EXCLUDED.settings`).
		WithArgs("u1", `{"notifications":true}`).
		WillReturnRows(sqlmock.NewRows(append(settingsRowColumns, "inserted")).
			AddRow("u1", []byte(`{"notifications":true}`), now, now, true))

	got, created, err := repo.UpsertSettings(context.Background(), db, "u1", models.Preferences{Notifications: &on})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "u1", got.UserID)
	require.NotNil(t, got.Preferences.Notifications)
	assert.True(t, *got.Preferences.Notifications)
}

func TestUpsertSettings_MergeReturnsFullRecord(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSettingsRepository(db)
	now := time.Now().UTC()

	patch := models.Preferences{}
	require.NoError(t, patch.UnmarshalJSON([]byte(`{"lang":"fr"}`)))

	mock.ExpectQuery(`INSERT INTO user_settings`).
		WithArgs("u1", `{"lang":"fr"}`).
		WillReturnRows(sqlmock.NewRows(append(settingsRowColumns, "inserted")).
			AddRow("u1", []byte(`{"theme":"dark","lang":"fr"}`), now.Add(-time.Hour), now, false))

	got, created, err := repo.UpsertSettings(context.Background(), db, "u1", patch)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "dark", *got.Preferences.Theme)
	assert.JSONEq(t, `"fr"`, string(got.Preferences.Extensions["lang"]))
}

func TestUpsertSettings_EmptyPatch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSettingsRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO user_settings`).
		WithArgs("u1", `{}`).
		WillReturnRows(sqlmock.NewRows(append(settingsRowColumns, "inserted")).
			AddRow("u1", []byte(`{}`), now, now, true))

	got, _, err := repo.UpsertSettings(context.Background(), db, "u1", models.Preferences{})
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Empty(t, got.Preferences.Keys())
}

func TestUpsertSettings_Errors(t *testing.T) {
	t.Run("unique violation", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewSettingsRepository(db)
		mock.ExpectQuery(`INSERT INTO user_settings`).
			WillReturnError(&pq.Error{Code: "23505", Message: "duplicate", Constraint: "user_settings_pkey"})

		_, _, err := repo.UpsertSettings(context.Background(), db, "u1", models.Preferences{})
		assert.ErrorIs(t, err, ErrDuplicateKey)
	})

	t.Run("driver failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewSettingsRepository(db)
		mock.ExpectQuery(`INSERT INTO user_settings`).
			WillReturnError(errors.New("broken pipe"))

		_, _, err := repo.UpsertSettings(context.Background(), db, "u1", models.Preferences{})
		assert.ErrorIs(t, err, ErrDatabaseError)
	})
}

func TestUpsertSettings_InTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSettingsRepository(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO user_settings`).
		WillReturnRows(sqlmock.NewRows(append(settingsRowColumns, "inserted")).
			AddRow("u1", []byte(`{}`), now, now, true))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	_, _, err = repo.UpsertSettings(context.Background(), tx, "u1", models.Preferences{})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
}

func TestListSettings(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSettingsRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM user_settings WHERE user_id > \$1 ORDER BY user_id ASC LIMIT \$2`).
		WithArgs("", 2).
		WillReturnRows(sqlmock.NewRows(settingsRowColumns).
			AddRow("a", []byte(`{"theme":"light"}`), now, now).
			AddRow("b", nil, now, now))

	list, err := repo.ListSettings(context.Background(), "", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].UserID)
	assert.Equal(t, "light", *list[0].Preferences.Theme)
	assert.Equal(t, "b", list[1].UserID)
	assert.Empty(t, list[1].Preferences.Keys())
}

func TestListSettings_ScanError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSettingsRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM user_settings`).
		WithArgs("a", 10).
		WillReturnRows(sqlmock.NewRows(settingsRowColumns).
			AddRow("b", []byte(`[1]`), now, now))

	_, err := repo.ListSettings(context.Background(), "a", 10)
	assert.ErrorIs(t, err, ErrDatabaseError)
}
