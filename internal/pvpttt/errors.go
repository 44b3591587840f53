package pvpttt

import "github.com/park285/tictactoe-kakao-bot/internal/tictactoe"

var (
	ErrInvalidArgs        = errf("invalid arguments")
	ErrAlreadyInGame      = errf("player already has an active game")
	ErrAlreadyWaiting     = errf("player is already waiting for an opponent")
	ErrWaitingForOpponent = errf("still waiting for an opponent")
	ErrNotInGame          = errf("player has no active game")
	ErrNotParticipant     = errf("player is not part of this game")
	ErrNotYourTurn        = errf("not your turn")
	ErrSessionEnded       = errf("game has already ended")
	ErrDuplicateSession   = errf("session already registered")
	ErrUnknownInput       = errf("unknown input")
	// 상태 변경은 이미 반영된 뒤 전송만 실패한 경우
	ErrRenderSurface = errf("failed to deliver board update")

	ErrInvalidCell  = tictactoe.ErrInvalidCell
	ErrCellOccupied = tictactoe.ErrCellOccupied
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error { return staticErr(s) }
