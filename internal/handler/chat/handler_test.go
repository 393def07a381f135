package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/eshu30/AI-Stockbot/internal/model/chat"
	"github.com/eshu30/AI-Stockbot/internal/model/history"
	"github.com/eshu30/AI-Stockbot/internal/model/market"
	chatservice "github.com/eshu30/AI-Stockbot/internal/service/chat"
)

type stubGenerator struct {
	reply string
}

func (g *stubGenerator) GenerateDisplay(_ context.Context, _ []chat.Message) string {
	return g.reply
}

type stubLookup struct {
	snap market.Snapshot
	err  error
}

func (l *stubLookup) Lookup(_ context.Context, _ string) (market.Snapshot, error) {
	return l.snap, l.err
}

func setupRouter(reply string) *chi.Mux {
	svc := chatservice.NewService(&stubGenerator{reply: reply}, &stubLookup{}, history.NewMemoryStore(), "test-app")
	handler := New(svc)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func createSession(t *testing.T, r *chi.Mux, body string) chat.View {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/session", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	var view chat.View
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return view
}

func TestCreateSessionReturnsView(t *testing.T) {
	r := setupRouter("hello")
	view := createSession(t, r, `{}`)

	if view.SessionID == "" {
		t.Fatal("expected a session id")
	}
	if view.UserID == "" {
		t.Fatal("expected a user id")
	}
	if len(view.Messages) != 0 {
		t.Fatalf("expected 0 visible messages, got %d", len(view.Messages))
	}
	if view.PicksAnalysis != chatservice.PicksPlaceholder {
		t.Fatalf("expected picks placeholder, got %q", view.PicksAnalysis)
	}
}

func TestCreateSessionEmptyBody(t *testing.T) {
	r := setupRouter("hello")

	req := httptest.NewRequest(http.MethodPost, "/session", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
}

func TestCreateSessionDerivesUserFromToken(t *testing.T) {
	r := setupRouter("hello")
	view := createSession(t, r, `{"authToken":"abcdefghijklmnopqrstuv"}`)

	if view.UserID != "abcdefghijklmnop" {
		t.Fatalf("expected token-derived user id, got %q", view.UserID)
	}
}

func TestCreateSessionInvalidBody(t *testing.T) {
	r := setupRouter("hello")

	req := httptest.NewRequest(http.MethodPost, "/session", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestChatTurnReturnsUpdatedView(t *testing.T) {
	r := setupRouter("AAPL looks steady today.")
	view := createSession(t, r, `{}`)

	payload := []byte(`{"text":"How is AAPL doing?"}`)
	req := httptest.NewRequest(http.MethodPost, "/session/"+view.SessionID+"/chat", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var updated chat.View
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		t.Fatalf("decode view: %v", err)
	}

	if len(updated.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(updated.Messages))
	}
	if updated.Messages[0].Role != chat.RoleUser || updated.Messages[0].Content != "How is AAPL doing?" {
		t.Fatalf("unexpected user message: %+v", updated.Messages[0])
	}
	if updated.Messages[1].Role != chat.RoleAssistant || updated.Messages[1].Content != "AAPL looks steady today." {
		t.Fatalf("unexpected assistant message: %+v", updated.Messages[1])
	}
}

func TestChatEmptyTextRejected(t *testing.T) {
	r := setupRouter("hello")
	view := createSession(t, r, `{}`)

	req := httptest.NewRequest(http.MethodPost, "/session/"+view.SessionID+"/chat", bytes.NewReader([]byte(`{"text":"   "}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestChatUnknownSession(t *testing.T) {
	r := setupRouter("hello")

	req := httptest.NewRequest(http.MethodPost, "/session/missing/chat", bytes.NewReader([]byte(`{"text":"hi"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestHistoryIncludesSystemInstruction(t *testing.T) {
	r := setupRouter("Tech is rallying.")
	view := createSession(t, r, `{}`)

	payload := []byte(`{"text":"What moved tech today?"}`)
	req := httptest.NewRequest(http.MethodPost, "/session/"+view.SessionID+"/chat", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/session/"+view.SessionID+"/history", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var messages []chat.Message
	if err := json.NewDecoder(resp.Body).Decode(&messages); err != nil {
		t.Fatalf("decode history: %v", err)
	}

	if len(messages) != 3 {
		t.Fatalf("expected 3 stored messages, got %d", len(messages))
	}
	if messages[0].Role != chat.RoleSystem {
		t.Fatalf("expected leading system message, got %s", messages[0].Role)
	}
}

func TestReplayRunsFullTurn(t *testing.T) {
	r := setupRouter("Replayed answer.")
	view := createSession(t, r, `{}`)

	payload := []byte(`{"query":"How did NVDA close?"}`)
	req := httptest.NewRequest(http.MethodPost, "/session/"+view.SessionID+"/replay", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var updated chat.View
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if len(updated.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(updated.Messages))
	}
	if updated.Messages[1].Content != "Replayed answer." {
		t.Fatalf("unexpected reply: %q", updated.Messages[1].Content)
	}
}

func TestRefreshPicksUpdatesAnalysis(t *testing.T) {
	r := setupRouter("1. NVDA: strong earnings.")
	view := createSession(t, r, `{}`)

	req := httptest.NewRequest(http.MethodPost, "/session/"+view.SessionID+"/picks", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var updated chat.View
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if updated.PicksAnalysis != "1. NVDA: strong earnings." {
		t.Fatalf("unexpected picks analysis: %q", updated.PicksAnalysis)
	}
	if len(updated.Messages) != 0 {
		t.Fatalf("picks refresh must not touch the conversation, got %d messages", len(updated.Messages))
	}
}

func TestGetSessionUnknown(t *testing.T) {
	r := setupRouter("hello")

	req := httptest.NewRequest(http.MethodGet, "/session/missing", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
