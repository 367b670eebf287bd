package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"

	"dashboard_backend/internal/config"
	"dashboard_backend/internal/middleware"
	"dashboard_backend/internal/repositories"
	"dashboard_backend/internal/services"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []any
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func newSettingsEngine(repo repositories.SettingsRepository, maxBody int64) *gin.Engine {
	h := NewSettingsHandler(services.NewSettingsService(repo, nil, nil), maxBody)
	r := gin.New()
	g := r.Group("/api/v1/settings")
	g.Use(middleware.IdentityMiddleware(config.AuthConfig{Mode: config.AuthModeHeader, Header: "x-user-id"}))
	g.GET("", h.GetSettings)
	g.PUT("", h.UpdateSettings)
	return r
}

func request(r http.Handler, method, path, userID, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("x-user-id", userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
