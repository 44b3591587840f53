package pvp

import (
	"fmt"
	"sync"
	"time"

	"github.com/park285/tictactoe-kakao-bot/internal/obslog"
	"github.com/park285/tictactoe-kakao-bot/internal/pvpttt"
	"go.uber.org/zap"
)

// Matchmaker owns the single waiting slot. Lock order is always
// Matchmaker, then Registry.
type Matchmaker struct {
	mu      sync.Mutex
	waiting *Waiting
	reg     *pvpttt.Registry
	now     func() time.Time
}

func NewMatchmaker(reg *pvpttt.Registry) *Matchmaker {
	return &Matchmaker{reg: reg, now: time.Now}
}

// WithClock replaces the time source; used by tests and the reaper.
func (m *Matchmaker) WithClock(now func() time.Time) *Matchmaker {
	if now != nil {
		m.now = now
	}
	return m
}

// RequestJoin either claims the waiting slot or opens it. A matched session
// is in the registry before the slot lock is released.
func (m *Matchmaker) RequestJoin(p pvpttt.Player) JoinOutcome {
	if p.ID == "" {
		return JoinOutcome{Kind: JoinRejected, Reason: pvpttt.ErrInvalidArgs}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.reg.IsPlayerActive(p.ID) {
		return JoinOutcome{Kind: JoinRejected, Reason: pvpttt.ErrAlreadyInGame}
	}
	if m.waiting == nil {
		m.waiting = &Waiting{Player: p, JoinedAt: m.now()}
		obslog.L().Info("ttt_waiting", zap.String("player_id", p.ID), zap.String("room", p.Surface.Room))
		return JoinOutcome{Kind: JoinBecameWaiting}
	}
	if m.waiting.Player.ID == p.ID {
		return JoinOutcome{Kind: JoinRejected, Reason: pvpttt.ErrAlreadyWaiting}
	}

	first := m.waiting.Player
	s, err := pvpttt.NewSession(first, p, m.now())
	if err != nil {
		return JoinOutcome{Kind: JoinRejected, Reason: err}
	}
	if err := m.reg.Insert(s); err != nil {
		// the waiting player got into a game some other way; drop the stale slot
		obslog.L().Warn("ttt_match_insert_error", zap.String("first_id", first.ID), zap.String("second_id", p.ID), zap.Error(err))
		m.waiting = nil
		return JoinOutcome{Kind: JoinRejected, Reason: fmt.Errorf("match %s: %w", first.ID, err)}
	}
	m.waiting = nil
	obslog.L().Info("ttt_matched",
		zap.String("session_id", s.ID()),
		zap.String("first_id", first.ID),
		zap.String("second_id", p.ID),
		zap.String("mode", s.Mode().String()),
	)
	return JoinOutcome{Kind: JoinMatched, Session: s}
}

// CancelWaiting clears the slot only when playerID owns it and returns the
// removed entry.
func (m *Matchmaker) CancelWaiting(playerID string) (Waiting, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.waiting == nil || m.waiting.Player.ID != playerID {
		return Waiting{}, false
	}
	w := *m.waiting
	m.waiting = nil
	obslog.L().Info("ttt_waiting_cancel", zap.String("player_id", playerID))
	return w, true
}

// Waiting returns a copy of the slot.
func (m *Matchmaker) Waiting() (Waiting, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.waiting == nil {
		return Waiting{}, false
	}
	return *m.waiting, true
}

// ExpireWaiting clears a slot older than maxIdle and returns who was waiting.
func (m *Matchmaker) ExpireWaiting(maxIdle time.Duration) (Waiting, bool) {
	if maxIdle <= 0 {
		return Waiting{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.waiting == nil || m.now().Sub(m.waiting.JoinedAt) < maxIdle {
		return Waiting{}, false
	}
	w := *m.waiting
	m.waiting = nil
	obslog.L().Info("ttt_waiting_expired", zap.String("player_id", w.Player.ID))
	return w, true
}
