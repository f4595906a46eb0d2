package webchat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/no2forms/intake-assistant/internal/dialogue"
	"github.com/no2forms/intake-assistant/pkg/logging"
)

// Sessions runs dialogue turns against server-held state. Turns for the same
// session are serialized; different sessions proceed in parallel.
type Sessions struct {
	machine *dialogue.Machine
	store   dialogue.SessionStore
	logger  *logging.Logger

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewSessions wires a machine to a session store.
func NewSessions(machine *dialogue.Machine, store dialogue.SessionStore, logger *logging.Logger) *Sessions {
	if machine == nil {
		panic("webchat: machine cannot be nil")
	}
	if store == nil {
		panic("webchat: session store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Sessions{machine: machine, store: store, logger: logger, locks: make(map[string]*sessionLock)}
}

// Message handles one user message. An empty sessionID starts a new session;
// the (possibly new) ID is returned.
func (s *Sessions) Message(ctx context.Context, sessionID, text string) (string, dialogue.TurnResult, error) {
	return s.run(ctx, sessionID, func(st *dialogue.State) (dialogue.TurnResult, error) {
		return s.machine.HandleTurn(ctx, st, text)
	})
}

// PickSlot applies a slot chosen in the time picker.
func (s *Sessions) PickSlot(ctx context.Context, sessionID, label, isoKey string) (string, dialogue.TurnResult, error) {
	return s.run(ctx, sessionID, func(st *dialogue.State) (dialogue.TurnResult, error) {
		return s.machine.PickSlot(ctx, st, label, isoKey)
	})
}

// History returns the session's turns, or none for an unknown session.
func (s *Sessions) History(ctx context.Context, sessionID string) ([]dialogue.Turn, error) {
	st, err := s.store.Load(ctx, sessionID)
	if errors.Is(err, dialogue.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return st.History, nil
}

// End forgets a session.
func (s *Sessions) End(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}

func (s *Sessions) run(ctx context.Context, sessionID string, turn func(*dialogue.State) (dialogue.TurnResult, error)) (string, dialogue.TurnResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = generateSessionID()
	}

	unlock := s.lock(sessionID)
	defer unlock()

	st, err := s.store.Load(ctx, sessionID)
	if errors.Is(err, dialogue.ErrSessionNotFound) {
		st = dialogue.NewState()
	} else if err != nil {
		return sessionID, dialogue.TurnResult{}, fmt.Errorf("webchat: load session: %w", err)
	}

	res, err := turn(st)
	if err != nil {
		return sessionID, res, err
	}
	if err := s.store.Save(ctx, sessionID, st); err != nil {
		// The reply is still returned; the turn may already have committed.
		s.logger.Error("webchat: failed to save session", "session_id", sessionID, "error", err)
	}
	return sessionID, res, nil
}

func (s *Sessions) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// generateSessionID creates a random session identifier.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}
