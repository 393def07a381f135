package market

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	chatService "github.com/eshu30/AI-Stockbot/internal/service/chat"
	marketService "github.com/eshu30/AI-Stockbot/internal/service/market"
	"github.com/eshu30/AI-Stockbot/pkg/utils"
)

// Handler pins live stock context onto chat sessions.
type Handler struct {
	chatSvc *chatService.Service
}

// New creates the stock context handler.
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes registers the stock context routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session/{sessionID}/context", h.handleSetContext)
	r.Get("/session/{sessionID}/context", h.handleGetContext)
}

// handleSetContext looks the symbol up and pins its snapshot, resetting
// the conversation. A failed lookup leaves the session untouched.
func (h *Handler) handleSetContext(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Symbol string `json:"symbol"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.Symbol == "" {
		utils.RespondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	view, err := h.chatSvc.SetSnapshot(r.Context(), chi.URLParam(r, "sessionID"), payload.Symbol)
	if err != nil {
		utils.RespondError(w, contextErrorStatus(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, view)
}

// handleGetContext returns the active snapshot, if any.
func (h *Handler) handleGetContext(w http.ResponseWriter, r *http.Request) {
	view, err := h.chatSvc.View(chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	if view.Snapshot == nil {
		utils.RespondError(w, http.StatusNotFound, "no active stock context")
		return
	}

	utils.RespondJSON(w, http.StatusOK, view.Snapshot)
}

func contextErrorStatus(err error) int {
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, marketService.ErrSymbolNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
