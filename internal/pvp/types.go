package pvp

import (
	"time"

	"github.com/park285/tictactoe-kakao-bot/internal/pvpttt"
)

// JoinKind is the result of a join request.
type JoinKind string

const (
	JoinBecameWaiting JoinKind = "WAITING"
	JoinMatched       JoinKind = "MATCHED"
	JoinRejected      JoinKind = "REJECTED"
)

// JoinOutcome reports what RequestJoin did. Session is set for JoinMatched,
// Reason for JoinRejected.
type JoinOutcome struct {
	Kind    JoinKind
	Session *pvpttt.Session
	Reason  error
}

// Waiting is the single pending join.
type Waiting struct {
	Player   pvpttt.Player
	JoinedAt time.Time
}
