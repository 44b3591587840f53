package tttdto

import (
	"errors"

	"github.com/park285/tictactoe-kakao-bot/internal/pvpttt"
)

// Codes double as message catalog keys under "errors.".
const (
	CodeAlreadyInGame      = "already_in_game"
	CodeAlreadyWaiting     = "already_waiting"
	CodeWaitingForOpponent = "waiting_for_opponent"
	CodeNotInGame          = "not_in_game"
	CodeNotParticipant     = "not_participant"
	CodeNotYourTurn        = "not_your_turn"
	CodeCellOccupied       = "cell_occupied"
	CodeInvalidCell        = "invalid_cell"
	CodeSessionEnded       = "session_ended"
	CodeRenderFailed       = "render_failed"
	CodeUnknownCommand     = "unknown_command"
	CodeInternal           = "internal"
)

type DomainError struct {
	Code      string
	Message   string
	Retryable bool
	Err       error
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "tictactoe service error"
}

func (e DomainError) Unwrap() error { return e.Err }

var codeTable = []struct {
	err  error
	code string
}{
	{pvpttt.ErrAlreadyInGame, CodeAlreadyInGame},
	{pvpttt.ErrAlreadyWaiting, CodeAlreadyWaiting},
	{pvpttt.ErrWaitingForOpponent, CodeWaitingForOpponent},
	{pvpttt.ErrNotInGame, CodeNotInGame},
	{pvpttt.ErrNotParticipant, CodeNotParticipant},
	{pvpttt.ErrNotYourTurn, CodeNotYourTurn},
	{pvpttt.ErrCellOccupied, CodeCellOccupied},
	{pvpttt.ErrInvalidCell, CodeInvalidCell},
	{pvpttt.ErrSessionEnded, CodeSessionEnded},
	{pvpttt.ErrRenderSurface, CodeRenderFailed},
	{pvpttt.ErrUnknownInput, CodeUnknownCommand},
	{pvpttt.ErrInvalidArgs, CodeUnknownCommand},
}

// FromError maps core sentinel errors to a boundary error. nil stays nil and an
// existing DomainError passes through.
func FromError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var de DomainError
	if errors.As(err, &de) {
		return &de
	}
	for _, row := range codeTable {
		if errors.Is(err, row.err) {
			return &DomainError{
				Code:      row.code,
				Message:   row.err.Error(),
				Retryable: row.code == CodeRenderFailed,
				Err:       err,
			}
		}
	}
	return &DomainError{Code: CodeInternal, Message: err.Error(), Err: err}
}
