package runtime

import (
	"log/slog"
	"sync"

	"github.com/samber/lo"

	"roomchat/errors"
)

// roomEntry holds the live members of one room. Its mutex is the room's
// exclusive section: membership changes and broadcasts both take it, so
// no session can slip in or out in the middle of a fan-out.
type roomEntry struct {
	mu      sync.Mutex
	members map[string]*Session
	dead    bool
}

// Registry tracks every live session and the rooms they joined.
// Lock order is Registry.mu before roomEntry.mu; an entry is only ever
// locked while Registry.mu is free or already held.
type Registry struct {
	log *slog.Logger

	mu       sync.RWMutex
	rooms    map[string]*roomEntry
	sessions map[string]*Session
	byUser   map[string]map[string]*Session
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		log:      log,
		rooms:    make(map[string]*roomEntry),
		sessions: make(map[string]*Session),
		byUser:   make(map[string]map[string]*Session),
	}
}

// Register makes the session reachable for direct delivery.
func (r *Registry) Register(sess *Session) error {
	if sess.Closed() {
		return errors.ErrSessionClosed
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.ID] = sess
	set, ok := r.byUser[sess.UserID]
	if !ok {
		set = make(map[string]*Session)
		r.byUser[sess.UserID] = set
	}
	set[sess.ID] = sess
	r.log.Debug("session registered", "session_id", sess.ID, "user_id", sess.UserID)
	return nil
}

// JoinRoom adds the session to the room's live members. Joining a room
// the session is already in is a no-op.
func (r *Registry) JoinRoom(sess *Session, roomID string) error {
	e := r.lockEntry(roomID, true)
	if sess.Closed() {
		e.mu.Unlock()
		r.prune(roomID)
		return errors.ErrSessionClosed
	}
	sess.track(roomID)
	e.members[sess.ID] = sess
	// Drop may have closed the session between the check above and the
	// insert. Whoever observes the flag last undoes the membership.
	if sess.Closed() {
		delete(e.members, sess.ID)
		sess.untrack(roomID)
		e.mu.Unlock()
		r.prune(roomID)
		return errors.ErrSessionClosed
	}
	e.mu.Unlock()
	return nil
}

// LeaveRoom removes the session from the room's live members. Reports
// whether the session was in the room.
func (r *Registry) LeaveRoom(sess *Session, roomID string) bool {
	e := r.lockEntry(roomID, false)
	if e == nil {
		sess.untrack(roomID)
		return false
	}
	_, was := e.members[sess.ID]
	delete(e.members, sess.ID)
	e.mu.Unlock()
	sess.untrack(roomID)
	r.prune(roomID)
	return was
}

// Drop closes the session and removes it everywhere. It returns the
// rooms the session was in, in no particular order, so the caller can
// announce the departure. Dropping twice returns nil.
func (r *Registry) Drop(sess *Session) []string {
	if !sess.Close() {
		return nil
	}
	rooms := sess.Joined()
	for _, roomID := range rooms {
		r.LeaveRoom(sess, roomID)
	}
	r.mu.Lock()
	delete(r.sessions, sess.ID)
	if set, ok := r.byUser[sess.UserID]; ok {
		delete(set, sess.ID)
		if len(set) == 0 {
			delete(r.byUser, sess.UserID)
		}
	}
	r.mu.Unlock()
	r.log.Debug("session dropped", "session_id", sess.ID, "user_id", sess.UserID, "rooms", len(rooms))
	return rooms
}

// KickUser removes every session of the user from the room's live
// members, for when the user leaves the room durably. The affected
// sessions stay connected and keep their other rooms.
func (r *Registry) KickUser(roomID, userID string) []*Session {
	e := r.lockEntry(roomID, false)
	if e == nil {
		return nil
	}
	var kicked []*Session
	for id, s := range e.members {
		if s.UserID == userID {
			delete(e.members, id)
			s.untrack(roomID)
			kicked = append(kicked, s)
		}
	}
	e.mu.Unlock()
	r.prune(roomID)
	return kicked
}

// SessionsOfUser returns the user's live sessions.
func (r *Registry) SessionsOfUser(userID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.byUser[userID])
}

// MemberCount reports how many sessions are live in the room.
func (r *Registry) MemberCount(roomID string) int {
	r.mu.RLock()
	e := r.rooms[roomID]
	r.mu.RUnlock()
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.members)
}

// lockEntry returns the room's entry with its mutex held, creating it
// when asked. A pruned entry is never returned: the loop retries until
// it holds a live one.
func (r *Registry) lockEntry(roomID string, create bool) *roomEntry {
	for {
		r.mu.Lock()
		e, ok := r.rooms[roomID]
		if !ok {
			if !create {
				r.mu.Unlock()
				return nil
			}
			e = &roomEntry{members: make(map[string]*Session)}
			r.rooms[roomID] = e
		}
		r.mu.Unlock()
		e.mu.Lock()
		if e.dead {
			e.mu.Unlock()
			continue
		}
		return e
	}
}

// prune drops the room's entry once its last member is gone.
func (r *Registry) prune(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rooms[roomID]
	if !ok {
		return
	}
	e.mu.Lock()
	if len(e.members) == 0 {
		e.dead = true
		delete(r.rooms, roomID)
	}
	e.mu.Unlock()
}
