package pvpttt

import "sync"

// Registry holds live sessions in creation order. It never takes a session
// lock, so callers may hold one while calling into it.
type Registry struct {
	mu       sync.RWMutex
	sessions []*Session
}

func NewRegistry() *Registry { return &Registry{} }

// Insert adds s unless either participant already has a live session.
func (r *Registry) Insert(s *Session) error {
	if s == nil {
		return ErrInvalidArgs
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cur := range r.sessions {
		if cur.id == s.id {
			return ErrDuplicateSession
		}
		if cur.IsParticipant(s.first.ID) || cur.IsParticipant(s.second.ID) {
			return ErrAlreadyInGame
		}
	}
	r.sessions = append(r.sessions, s)
	return nil
}

// Remove drops the session with id and reports whether it was present.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cur := range r.sessions {
		if cur.id == id {
			copy(r.sessions[i:], r.sessions[i+1:])
			r.sessions[len(r.sessions)-1] = nil
			r.sessions = r.sessions[:len(r.sessions)-1]
			return true
		}
	}
	return false
}

func (r *Registry) FindByPlayer(playerID string) *Session {
	if playerID == "" {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, cur := range r.sessions {
		if cur.IsParticipant(playerID) {
			return cur
		}
	}
	return nil
}

func (r *Registry) IsPlayerActive(playerID string) bool {
	return r.FindByPlayer(playerID) != nil
}

func (r *Registry) Get(id string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, cur := range r.sessions {
		if cur.id == id {
			return cur
		}
	}
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Snapshot returns a copy of the session list.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, len(r.sessions))
	copy(out, r.sessions)
	return out
}
