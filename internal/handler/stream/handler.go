package stream

import (
	"context"
	"fmt"
	"log"
	"net/http"

	chatService "github.com/eshu30/AI-Stockbot/internal/service/chat"
	"github.com/eshu30/AI-Stockbot/pkg/utils"
)

// Handler runs chat turns over Server-Sent Events.
type Handler struct {
	chatSvc *chatService.Service
}

// New creates a new stream handler.
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// StreamResponse represents one event frame on the wire.
type StreamResponse struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleStreamRequest executes one blocking chat turn for the session and
// emits start/reply/end frames. The upstream generation call is not
// streamed, so the whole reply arrives in the reply frame.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "start",
		SessionID: sessionID,
	})

	view, err := h.chatSvc.SubmitText(ctx, sessionID, userMessage)
	if err != nil {
		h.sendSSEError(w, flusher, err.Error())
		return err
	}

	var reply string
	if len(view.Messages) > 0 {
		reply = view.Messages[len(view.Messages)-1].Content
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "reply",
		SessionID: sessionID,
		Content:   reply,
	})

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "end",
		SessionID: sessionID,
		Finished:  true,
	})

	log.Printf("[stream] completed turn for session=%s", sessionID)
	return nil
}

// sendSSE sends a Server-Sent Event
func (h *Handler) sendSSE(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) {
	utils.SendSSEChunk(w, flusher, response)
}

// sendSSEError sends an error via Server-Sent Events
func (h *Handler) sendSSEError(w http.ResponseWriter, flusher http.Flusher, errorMsg string) {
	h.sendSSE(w, flusher, StreamResponse{
		Event: "error",
		Error: errorMsg,
	})
}
