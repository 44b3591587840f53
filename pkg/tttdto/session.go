package tttdto

import "time"

type PlayerView struct {
	ID   string
	Name string
	Room string
	Mark string
}

// SessionState is the host-facing view of a player's current game or wait.
type SessionState struct {
	SessionID string
	Waiting   bool
	Since     time.Time
	Mode      string
	First     PlayerView
	Second    PlayerView
	// Board is row-major with "/" between rows and "." for empty cells.
	Board   string
	Turn    string
	ToMove  string
	Cursor  int
	Moves   []int
	Version uint64
	Outcome string
}

// StatsView is a scoreboard line for one player.
type StatsView struct {
	PlayerID  string
	Name      string
	Games     int
	Wins      int
	Losses    int
	Draws     int
	Abandoned int
	LastPlay  time.Time
}
