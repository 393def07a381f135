package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/eshu30/AI-Stockbot/internal/model/chat"
	chatservice "github.com/eshu30/AI-Stockbot/internal/service/chat"
)

// Handler drives chat sessions over a WebSocket connection.
type Handler struct {
	chatSvc  *chatservice.Service
	upgrader websocket.Upgrader
}

// New creates the WebSocket handler.
func New(chatSvc *chatservice.Service) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the WebSocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

type chatPayload struct {
	Text string `json:"text"`
}

type replayPayload struct {
	Query string `json:"query"`
}

type contextPayload struct {
	Symbol string `json:"symbol"`
}

// handleWebSocket upgrades the connection and serves session commands
// until the peer disconnects. Commands run one at a time on the read
// loop, so a connection has at most one turn in flight.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	if _, err := h.chatSvc.Session(sessionID); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[ws] new connection for session=%s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	go h.pingLoop(ctx, conn)

	h.send(conn, sessionID, "connected", map[string]any{"sessionId": sessionID})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("[ws] read error: %v", err)
				}
				return
			}

			conn.SetReadDeadline(time.Now().Add(60 * time.Second))

			if msg.SessionID != "" && msg.SessionID != sessionID {
				h.sendError(conn, "session mismatch")
				continue
			}

			h.handleMessage(ctx, conn, sessionID, &msg)
		}
	}
}

func (h *Handler) handleMessage(ctx context.Context, conn *websocket.Conn, sessionID string, msg *inboundMessage) {
	switch msg.Type {
	case "ping":
		h.send(conn, sessionID, "status", map[string]any{"state": "alive"})
		return
	case "chat", "replay":
		h.send(conn, sessionID, "status", map[string]any{"state": "thinking"})
	}

	view, err := h.runCommand(ctx, sessionID, msg)
	if err != nil {
		h.sendError(conn, err.Error())
		return
	}

	h.send(conn, sessionID, "view", view)
}

// runCommand decodes one inbound envelope and executes the matching
// session command, returning the refreshed view state.
func (h *Handler) runCommand(ctx context.Context, sessionID string, msg *inboundMessage) (chat.View, error) {
	switch msg.Type {
	case "chat":
		var payload chatPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return chat.View{}, fmt.Errorf("invalid chat payload")
		}
		return h.chatSvc.SubmitText(ctx, sessionID, payload.Text)
	case "replay":
		var payload replayPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return chat.View{}, fmt.Errorf("invalid replay payload")
		}
		return h.chatSvc.ReplayQuery(ctx, sessionID, payload.Query)
	case "context":
		var payload contextPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return chat.View{}, fmt.Errorf("invalid context payload")
		}
		return h.chatSvc.SetSnapshot(ctx, sessionID, payload.Symbol)
	case "picks":
		return h.chatSvc.RefreshPicks(ctx, sessionID)
	default:
		return chat.View{}, fmt.Errorf("unsupported message type: %s", msg.Type)
	}
}

func (h *Handler) send(conn *websocket.Conn, sessionID, msgType string, data interface{}) {
	msg := outgoingMessage{
		Type:      msgType,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[ws] write failed: %v", err)
	}
}

func (h *Handler) sendError(conn *websocket.Conn, message string) {
	msg := outgoingMessage{
		Type:      "error",
		Data:      map[string]string{"message": message},
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[ws] write error failed: %v", err)
	}
}

// pingLoop keeps idle connections alive under the 60s read deadline.
func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
