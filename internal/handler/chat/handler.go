package chat

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	chatService "github.com/eshu30/AI-Stockbot/internal/service/chat"
)

// Handler exposes the session command surface over HTTP.
type Handler struct {
	chatSvc *chatService.Service
}

// New creates the session handler.
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes registers the session and chat-turn routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Get("/session/{sessionID}", h.handleGetSession)
	r.Get("/session/{sessionID}/history", h.handleHistory)
	r.Post("/session/{sessionID}/chat", h.handleChat)
	r.Post("/session/{sessionID}/replay", h.handleReplay)
	r.Post("/session/{sessionID}/picks", h.handleRefreshPicks)
}

// handleCreateSession opens a session, restoring any stored history for the user.
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		AuthToken string `json:"authToken"`
		UserID    string `json:"userId"`
	}

	// Both fields are optional; an empty body means an anonymous session.
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.chatSvc.CreateSession(r.Context(), payload.AuthToken, payload.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, view)
}

// handleGetSession returns the current view state.
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.chatSvc.View(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// handleHistory returns the stored transcript, system instruction included.
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chatSvc.History(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, messages)
}

// handleChat runs one blocking chat turn.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.chatSvc.SubmitText(r.Context(), chi.URLParam(r, "sessionID"), payload.Text)
	if err != nil {
		respondError(w, turnErrorStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// handleReplay re-runs a historical query as a fresh turn.
func (h *Handler) handleReplay(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Query string `json:"query"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.chatSvc.ReplayQuery(r.Context(), chi.URLParam(r, "sessionID"), payload.Query)
	if err != nil {
		respondError(w, turnErrorStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// handleRefreshPicks regenerates the top-picks analysis for the session.
func (h *Handler) handleRefreshPicks(w http.ResponseWriter, r *http.Request) {
	view, err := h.chatSvc.RefreshPicks(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, turnErrorStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func turnErrorStatus(err error) int {
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, chatService.ErrEmptyMessage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError writes a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
