package domain

import "time"

// Result tokens stored with a finished match.
const (
	ResultFirst   = "first"
	ResultSecond  = "second"
	ResultDraw    = "draw"
	ResultStopped = "stopped"
	ResultExpired = "expired"
)

// MatchResult is the record of one finished tic-tac-toe session.
type MatchResult struct {
	SessionID  string
	FirstID    string
	FirstName  string
	FirstRoom  string
	SecondID   string
	SecondName string
	SecondRoom string
	Result     string
	WinnerID   string
	StoppedBy  string
	Moves      []int
	StartedAt  time.Time
	EndedAt    time.Time
}

func (r MatchResult) Duration() time.Duration {
	d := r.EndedAt.Sub(r.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// LoserID is empty for draws and for sessions that ended without a winner.
func (r MatchResult) LoserID() string {
	switch r.WinnerID {
	case "":
		return ""
	case r.FirstID:
		return r.SecondID
	default:
		return r.FirstID
	}
}

type PlayerStats struct {
	PlayerID     string
	Name         string
	Games        int
	Wins         int
	Losses       int
	Draws        int
	Abandoned    int
	LastPlayedAt time.Time
}
