package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"scrobblerbot/internal/core"
)

func testServer() *Server {
	return NewServer(&core.ServerConfig{
		Host:         "127.0.0.1",
		Port:         0,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}, zap.NewNop())
}

func TestServer_HealthEndpoints(t *testing.T) {
	s := testServer()

	tests := []struct {
		path string
	}{
		{"/healthz"},
		{"/readyz"},
		{"/metrics"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			s.server.Handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("GET %s = %d, want 200", tt.path, rec.Code)
			}
		})
	}
}

func TestServer_Mount(t *testing.T) {
	s := testServer()

	s.Mount(WebhookPath, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, WebhookPath, nil)
	rec := httptest.NewRecorder()

	s.server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("Mounted handler not reachable, got %d", rec.Code)
	}
}
