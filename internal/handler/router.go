package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/eshu30/AI-Stockbot/internal/handler/chat"
	"github.com/eshu30/AI-Stockbot/internal/handler/market"
	"github.com/eshu30/AI-Stockbot/internal/handler/stream"
	"github.com/eshu30/AI-Stockbot/internal/handler/ws"
	middlewarePkg "github.com/eshu30/AI-Stockbot/internal/middleware"
	chatService "github.com/eshu30/AI-Stockbot/internal/service/chat"
	"github.com/eshu30/AI-Stockbot/pkg/utils"
)

// NewRouter wires HTTP routes to the session controller.
func NewRouter(chatSvc *chatService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Create handlers
	chatHandler := chat.New(chatSvc)
	marketHandler := market.New(chatSvc)
	streamHandler := stream.New(chatSvc)
	wsHandler := ws.New(chatSvc)

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		marketHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)

		// SSE variant of the chat turn for frontends that prefer
		// EventSource over fetch.
		api.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			userMessage := r.URL.Query().Get("message")

			if userMessage == "" {
				utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
				return
			}

			if err := streamHandler.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
				log.Printf("[stream] error handling request: %v", err)
			}
		})
	})

	return r
}
