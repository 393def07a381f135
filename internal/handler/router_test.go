package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eshu30/AI-Stockbot/internal/config"
	"github.com/eshu30/AI-Stockbot/internal/model/history"
	aiService "github.com/eshu30/AI-Stockbot/internal/service/ai"
	chatService "github.com/eshu30/AI-Stockbot/internal/service/chat"
	marketService "github.com/eshu30/AI-Stockbot/internal/service/market"
)

func newTestRouter() http.Handler {
	gen := aiService.NewClient(config.AIConfig{MaxRetries: 3, RequestTimeout: 5 * time.Second})
	lookup := marketService.NewClient(config.MarketConfig{BaseURL: "http://127.0.0.1:0"})
	svc := chatService.NewService(gen, lookup, history.NewMemoryStore(), "test-app")
	return NewRouter(svc)
}

func TestHealthz(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestPreflightShortCircuits(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodOptions, "/api/session", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if origin := resp.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Fatalf("expected wildcard origin, got %q", origin)
	}
}

func TestCreateSessionRoute(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/session", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
}

func TestStreamRequiresMessage(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/stream/some-session", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
