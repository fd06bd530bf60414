// Package runtime keeps the in-memory state of the live layer: which
// sessions exist, which rooms they joined and how events reach them.
package runtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"roomchat/contract"
	"roomchat/domain/event"
	"roomchat/errors"
)

// Session is one live connection of an authenticated user. A user may
// hold several sessions at once; each joins rooms independently.
type Session struct {
	ID     string
	UserID string

	mu     sync.RWMutex
	rooms  map[string]struct{}
	sink   contract.EventSink
	closed bool
}

func NewSession(userID string, sink contract.EventSink) *Session {
	return &Session{
		ID:     uuid.NewString(),
		UserID: userID,
		rooms:  make(map[string]struct{}),
		sink:   sink,
	}
}

// Deliver hands an event to the session's sink. A closed session never
// accepts events again.
func (s *Session) Deliver(ctx context.Context, evt event.Event) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return errors.ErrSessionClosed
	}
	sink := s.sink
	s.mu.RUnlock()
	return sink.Consume(ctx, evt)
}

// Close marks the session terminal. Reports whether this call was the
// one that closed it.
func (s *Session) Close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	return true
}

func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// InRoom reports whether the session has joined the room live.
func (s *Session) InRoom(roomID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[roomID]
	return ok
}

// Joined returns the rooms the session is currently in.
func (s *Session) Joined() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Keys(s.rooms)
}

func (s *Session) track(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[roomID] = struct{}{}
}

func (s *Session) untrack(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
}
