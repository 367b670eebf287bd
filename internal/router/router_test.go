package router

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dashboard_backend/internal/config"
	"dashboard_backend/internal/events"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestEngine(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	return newTestEngineWithConfig(t, config.Default())
}

func newTestEngineWithConfig(t *testing.T, cfg *config.Config) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	engine := NewEngine(cfg)
	Setup(engine, db, &events.NoopPublisher{}, cfg)
	return engine, mock
}

func serve(engine http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestPing(t *testing.T) {
	engine, _ := newTestEngine(t)

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestHealthRoute(t *testing.T) {
	engine, mock := newTestEngine(t)
	mock.ExpectPing()

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"database":"ok"}`, w.Body.String())
}

func TestSettingsRoutes_RequireIdentity(t *testing.T) {
	engine, _ := newTestEngine(t)

	for _, path := range []string{"/api/v1/settings", "/api/settings"} {
		for _, method := range []string{http.MethodGet, http.MethodPut} {
			req := httptest.NewRequest(method, path, bytes.NewBufferString(`{}`))
			w := serve(engine, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", method, path)
			assert.JSONEq(t, `{"success":false,"message":"User ID required"}`, w.Body.String())
		}
	}
}

func TestSettingsRoutes_BothPrefixesReachStore(t *testing.T) {
	engine, mock := newTestEngine(t)
	now := time.Now().UTC()

	for range 2 {
		mock.ExpectQuery(`FROM user_settings WHERE user_id = \$1`).
			WithArgs("u1").
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "settings", "created_at", "updated_at"}).
				AddRow("u1", []byte(`{"theme":"dark"}`), now, now))
	}

	for _, path := range []string{"/api/v1/settings", "/api/settings"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("x-user-id", "u1")
		w := serve(engine, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.JSONEq(t, `{"success":true,"settings":{"userId":"u1","theme":"dark"}}`, w.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	engine, _ := newTestEngine(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/settings", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	req.Header.Set("Access-Control-Request-Headers", "x-user-id")
	w := serve(engine, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight_ConfiguredIdentityHeader(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.Header = "X-Dashboard-User"
	engine, _ := newTestEngineWithConfig(t, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/settings", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	req.Header.Set("Access-Control-Request-Headers", "X-Dashboard-User")
	w := serve(engine, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")), "x-dashboard-user")
}
