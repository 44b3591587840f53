package pvpttt

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/park285/tictactoe-kakao-bot/internal/domain"
	"github.com/park285/tictactoe-kakao-bot/internal/tictactoe"
)

// Session is one live match. Everything below mu is guarded by it; the
// fields above are set once by NewSession.
type Session struct {
	id        string
	first     Player
	second    Player
	mode      SurfaceMode
	createdAt time.Time

	mu         sync.Mutex
	board      tictactoe.Board
	turn       Turn
	cursor     int
	moves      []int
	end        EndReason
	outcome    tictactoe.Outcome
	stoppedBy  string
	version    uint64
	lastActive time.Time
}

// NewSession builds a match with first to move.
func NewSession(first, second Player, now time.Time) (*Session, error) {
	if first.ID == "" || second.ID == "" {
		return nil, ErrInvalidArgs
	}
	if first.ID == second.ID {
		return nil, fmt.Errorf("%w: same player on both sides", ErrInvalidArgs)
	}
	return &Session{
		id:         uuid.NewString(),
		first:      first,
		second:     second,
		mode:       ModeFor(first.Surface, second.Surface),
		createdAt:  now,
		turn:       TurnFirst,
		outcome:    tictactoe.Outcome{Kind: tictactoe.InProgress, Line: -1},
		version:    1,
		lastActive: now,
	}, nil
}

func (s *Session) ID() string { return s.id }
func (s *Session) First() Player { return s.first }
func (s *Session) Second() Player { return s.second }
func (s *Session) Mode() SurfaceMode { return s.mode }
func (s *Session) CreatedAt() time.Time { return s.createdAt }

func (s *Session) IsParticipant(playerID string) bool {
	return playerID != "" && (playerID == s.first.ID || playerID == s.second.ID)
}

// Opponent returns the other participant of playerID.
func (s *Session) Opponent(playerID string) (Player, bool) {
	switch playerID {
	case s.first.ID:
		return s.second, true
	case s.second.ID:
		return s.first, true
	default:
		return Player{}, false
	}
}

func (s *Session) playerFor(t Turn) Player {
	if t == TurnFirst {
		return s.first
	}
	return s.second
}

// TryMove places the active player's mark on cell.
func (s *Session) TryMove(playerID string, cell int, now time.Time) (tictactoe.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tryMoveLocked(playerID, cell, now)
}

// MoveCursor moves the selection with wraparound and returns the new cursor.
func (s *Session) MoveCursor(playerID string, dir Direction, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moveCursorLocked(playerID, dir, now)
}

// Confirm places the active player's mark at the cursor.
func (s *Session) Confirm(playerID string, now time.Time) (tictactoe.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tryMoveLocked(playerID, s.cursor, now)
}

// Stop ends the match on behalf of either participant.
func (s *Session) Stop(playerID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked(playerID, now)
}

// Expire ends an idle match. It is a no-op on a terminal session.
func (s *Session) Expire(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expireLocked(now)
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// IdleSince reports the last mutation time.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) authorizeLocked(playerID string) error {
	if s.end != EndNone {
		return ErrSessionEnded
	}
	if !s.IsParticipant(playerID) {
		return ErrNotParticipant
	}
	if s.playerFor(s.turn).ID != playerID {
		return ErrNotYourTurn
	}
	return nil
}

func (s *Session) tryMoveLocked(playerID string, cell int, now time.Time) (tictactoe.Outcome, error) {
	if err := s.authorizeLocked(playerID); err != nil {
		return s.outcome, err
	}
	if err := s.board.Place(cell, s.turn.Mark()); err != nil {
		return s.outcome, err
	}
	s.moves = append(s.moves, cell)
	s.outcome = s.board.Outcome()
	switch s.outcome.Kind {
	case tictactoe.Win:
		s.end = EndWin
	case tictactoe.Draw:
		s.end = EndDraw
	default:
		s.turn = s.turn.Other()
	}
	s.cursor = s.board.FirstEmpty()
	if s.cursor < 0 {
		s.cursor = 0
	}
	s.touchLocked(now)
	return s.outcome, nil
}

func (s *Session) moveCursorLocked(playerID string, dir Direction, now time.Time) (int, error) {
	if err := s.authorizeLocked(playerID); err != nil {
		return s.cursor, err
	}
	if dir < Up || dir > Right {
		return s.cursor, fmt.Errorf("%w: direction %d", ErrUnknownInput, dir)
	}
	s.cursor = Step(s.cursor, dir)
	s.touchLocked(now)
	return s.cursor, nil
}

func (s *Session) stopLocked(playerID string, now time.Time) error {
	if s.end != EndNone {
		return ErrSessionEnded
	}
	if !s.IsParticipant(playerID) {
		return ErrNotParticipant
	}
	s.end = EndStopped
	s.stoppedBy = playerID
	s.touchLocked(now)
	return nil
}

func (s *Session) expireLocked(now time.Time) bool {
	if s.end != EndNone {
		return false
	}
	s.end = EndExpired
	s.touchLocked(now)
	return true
}

func (s *Session) touchLocked(now time.Time) {
	s.version++
	s.lastActive = now
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:         s.id,
		First:      s.first,
		Second:     s.second,
		Mode:       s.mode,
		Board:      s.board,
		Turn:       s.turn,
		Cursor:     s.cursor,
		Moves:      append([]int(nil), s.moves...),
		End:        s.end,
		Outcome:    s.outcome,
		StoppedBy:  s.stoppedBy,
		Version:    s.version,
		CreatedAt:  s.createdAt,
		LastActive: s.lastActive,
	}
}

// Snapshot is a detached copy of a session taken under its lock.
type Snapshot struct {
	ID         string
	First      Player
	Second     Player
	Mode       SurfaceMode
	Board      tictactoe.Board
	Turn       Turn
	Cursor     int
	Moves      []int
	End        EndReason
	Outcome    tictactoe.Outcome
	StoppedBy  string
	Version    uint64
	CreatedAt  time.Time
	LastActive time.Time
}

func (s Snapshot) Terminal() bool { return s.End != EndNone }

// Active is the player to move.
func (s Snapshot) Active() Player {
	if s.Turn == TurnFirst {
		return s.First
	}
	return s.Second
}

// Waiting is the player not to move.
func (s Snapshot) Waiting() Player {
	if s.Turn == TurnFirst {
		return s.Second
	}
	return s.First
}

// Winner returns the winning player for EndWin.
func (s Snapshot) Winner() (Player, bool) {
	if s.End != EndWin {
		return Player{}, false
	}
	if s.Outcome.Winner == tictactoe.MarkA {
		return s.First, true
	}
	return s.Second, true
}

// Result converts a terminal snapshot into the record handed to recorders.
func (s Snapshot) Result() domain.MatchResult {
	r := domain.MatchResult{
		SessionID:  s.ID,
		FirstID:    s.First.ID,
		FirstName:  s.First.Name,
		FirstRoom:  s.First.Surface.Room,
		SecondID:   s.Second.ID,
		SecondName: s.Second.Name,
		SecondRoom: s.Second.Surface.Room,
		StoppedBy:  s.StoppedBy,
		Moves:      append([]int(nil), s.Moves...),
		StartedAt:  s.CreatedAt,
		EndedAt:    s.LastActive,
	}
	switch s.End {
	case EndWin:
		if w, ok := s.Winner(); ok {
			r.WinnerID = w.ID
		}
		if s.Outcome.Winner == tictactoe.MarkA {
			r.Result = domain.ResultFirst
		} else {
			r.Result = domain.ResultSecond
		}
	case EndDraw:
		r.Result = domain.ResultDraw
	case EndStopped:
		r.Result = domain.ResultStopped
	case EndExpired:
		r.Result = domain.ResultExpired
	}
	return r
}
