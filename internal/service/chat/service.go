package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eshu30/AI-Stockbot/internal/model/chat"
	"github.com/eshu30/AI-Stockbot/internal/model/history"
	"github.com/eshu30/AI-Stockbot/internal/model/market"
	"github.com/eshu30/AI-Stockbot/internal/service/ai"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyMessage    = errors.New("message text is required")
)

// PicksPlaceholder seeds the top-picks panel before the first refresh.
const PicksPlaceholder = "Click 'Refresh Top Picks' to get today's analysis."

// Generator produces the assistant reply for an outbound message
// sequence. Implementations return displayable text on every path,
// including failures.
type Generator interface {
	GenerateDisplay(ctx context.Context, messages []chat.Message) string
}

// SnapshotLookup resolves a ticker symbol to a stock snapshot.
type SnapshotLookup interface {
	Lookup(ctx context.Context, symbol string) (market.Snapshot, error)
}

// Service is the session controller: it owns every live session and
// runs user commands against them.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState

	gen    Generator
	lookup SnapshotLookup
	store  history.Store
	appID  string
}

// sessionState bundles one session's conversation with its pinned
// context. The embedded mutex serializes commands: a session handles
// one at a time while distinct sessions proceed in parallel.
type sessionState struct {
	mu sync.Mutex

	meta     chat.Session
	docPath  string
	messages []chat.Message
	snapshot *market.Snapshot
	picks    string
}

// NewService wires the controller to its collaborators.
func NewService(gen Generator, lookup SnapshotLookup, store history.Store, appID string) *Service {
	return &Service{
		sessions: make(map[string]*sessionState),
		gen:      gen,
		lookup:   lookup,
		store:    store,
		appID:    appID,
	}
}

// CreateSession provisions a session and restores any persisted history
// for the resolved user. authToken, when present, pins the user
// identity; userID lets an anonymous client reuse its previous
// identity; otherwise a fresh anonymous ID is minted.
func (s *Service) CreateSession(ctx context.Context, authToken, userID string) (chat.View, error) {
	uid := resolveUserID(authToken, userID)
	docPath := history.DocPath(s.appID, uid)

	messages := chat.NewConversation(ai.SystemPrompt)
	doc, ok, err := s.store.Load(ctx, docPath)
	switch {
	case err != nil:
		// A broken history backend must not block chatting.
		log.Printf("[session] failed to load history for user=%s: %v", uid, err)
	case ok && len(doc.Messages) > 0:
		messages = append([]chat.Message(nil), doc.Messages...)
		if messages[0].Role != chat.RoleSystem {
			messages = append(chat.NewConversation(ai.SystemPrompt), messages...)
		}
	}

	state := &sessionState{
		meta: chat.Session{
			ID:        uuid.NewString(),
			UserID:    uid,
			CreatedAt: time.Now().UTC(),
		},
		docPath:  docPath,
		messages: messages,
		picks:    PicksPlaceholder,
	}
	view := s.viewLocked(state)

	s.mu.Lock()
	s.sessions[state.meta.ID] = state
	s.mu.Unlock()

	log.Printf("[session] created session=%s user=%s restored=%d", state.meta.ID, uid, len(messages)-1)
	return view, nil
}

func resolveUserID(authToken, userID string) string {
	if authToken != "" {
		runes := []rune(authToken)
		if len(runes) > 16 {
			runes = runes[:16]
		}
		return string(runes)
	}
	if userID != "" {
		return userID
	}
	return uuid.NewString()
}

// SubmitText runs one chat turn: append the user's message, inject the
// pinned stock context, generate a reply, append it and checkpoint.
func (s *Service) SubmitText(ctx context.Context, sessionID, text string) (chat.View, error) {
	if strings.TrimSpace(text) == "" {
		return chat.View{}, ErrEmptyMessage
	}
	st, err := s.session(sessionID)
	if err != nil {
		return chat.View{}, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	return s.runTurnLocked(ctx, st, text), nil
}

// ReplayQuery re-runs a historical query as a fresh turn. The duplicate
// guard inside the turn keeps the transcript clean when a replay races
// a plain submission of the same text.
func (s *Service) ReplayQuery(ctx context.Context, sessionID, query string) (chat.View, error) {
	if strings.TrimSpace(query) == "" {
		return chat.View{}, ErrEmptyMessage
	}
	st, err := s.session(sessionID)
	if err != nil {
		return chat.View{}, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	return s.runTurnLocked(ctx, st, query), nil
}

// SetSnapshot pins the session to a stock and starts the conversation
// over. A failed lookup leaves the session untouched.
func (s *Service) SetSnapshot(ctx context.Context, sessionID, symbol string) (chat.View, error) {
	st, err := s.session(sessionID)
	if err != nil {
		return chat.View{}, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	snap, err := s.lookup.Lookup(ctx, symbol)
	if err != nil {
		return chat.View{}, err
	}

	st.snapshot = &snap
	st.messages = chat.NewConversation(ai.SystemPrompt)
	log.Printf("[session] session=%s pinned %s, conversation reset", st.meta.ID, snap.Symbol)
	return s.viewLocked(st), nil
}

// RefreshPicks asks for a fresh top-movers briefing. The result lives
// beside the conversation, never inside it.
func (s *Service) RefreshPicks(ctx context.Context, sessionID string) (chat.View, error) {
	st, err := s.session(sessionID)
	if err != nil {
		return chat.View{}, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	prompt := []chat.Message{
		{Role: chat.RoleSystem, Content: ai.SystemPrompt},
		{Role: chat.RoleUser, Content: ai.TopPicksPrompt},
	}
	st.picks = s.gen.GenerateDisplay(ctx, prompt)
	return s.viewLocked(st), nil
}

// View returns the current render state without running a command.
func (s *Service) View(sessionID string) (chat.View, error) {
	st, err := s.session(sessionID)
	if err != nil {
		return chat.View{}, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	return s.viewLocked(st), nil
}

// Session returns the session metadata.
func (s *Service) Session(sessionID string) (chat.Session, error) {
	st, err := s.session(sessionID)
	if err != nil {
		return chat.Session{}, err
	}
	return st.meta, nil
}

// History returns the full stored conversation including the system
// instruction.
func (s *Service) History(sessionID string) ([]chat.Message, error) {
	st, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]chat.Message(nil), st.messages...), nil
}

func (s *Service) session(sessionID string) (*sessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return st, nil
}

func (s *Service) runTurnLocked(ctx context.Context, st *sessionState, text string) chat.View {
	s.appendUserIfNewLocked(st, text)

	outbound := ai.InjectContext(st.messages, st.snapshot)
	reply := s.gen.GenerateDisplay(ctx, outbound)
	st.messages = append(st.messages, chat.Message{Role: chat.RoleAssistant, Content: reply})

	s.persistLocked(ctx, st)
	return s.viewLocked(st)
}

// appendUserIfNewLocked appends the user's text unless the immediately
// preceding stored message already carries exactly that content. This
// absorbs double submissions racing in from parallel frontend paths.
func (s *Service) appendUserIfNewLocked(st *sessionState, text string) {
	if last := st.messages[len(st.messages)-1]; last.Content == text {
		return
	}
	st.messages = append(st.messages, chat.Message{Role: chat.RoleUser, Content: text})
}

// persistLocked checkpoints the conversation after a completed turn.
// Persistence failures are logged and swallowed; chatting continues on
// the in-memory state.
func (s *Service) persistLocked(ctx context.Context, st *sessionState) {
	doc := history.Document{
		Messages:    append([]chat.Message(nil), st.messages...),
		LastUpdated: time.Now().UTC(),
	}
	if err := s.store.Save(ctx, st.docPath, doc); err != nil {
		log.Printf("[session] failed to save history for user=%s: %v", st.meta.UserID, err)
	}
}

func (s *Service) viewLocked(st *sessionState) chat.View {
	messages := make([]chat.Message, 0, len(st.messages)-1)
	messages = append(messages, st.messages[1:]...)

	view := chat.View{
		SessionID:     st.meta.ID,
		UserID:        st.meta.UserID,
		Messages:      messages,
		PicksAnalysis: st.picks,
	}
	if st.snapshot != nil {
		snap := *st.snapshot
		view.Snapshot = &snap
	}
	return view
}
