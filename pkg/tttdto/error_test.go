package tttdto

import (
	"errors"
	"fmt"
	"testing"

	"github.com/park285/tictactoe-kakao-bot/internal/pvpttt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorMapsSentinels(t *testing.T) {
	assert.Nil(t, FromError(nil))

	de := FromError(fmt.Errorf("move: %w", pvpttt.ErrNotYourTurn))
	require.NotNil(t, de)
	assert.Equal(t, CodeNotYourTurn, de.Code)
	assert.False(t, de.Retryable)
	assert.ErrorIs(t, de, pvpttt.ErrNotYourTurn)

	render := FromError(fmt.Errorf("%w: boom", pvpttt.ErrRenderSurface))
	assert.Equal(t, CodeRenderFailed, render.Code)
	assert.True(t, render.Retryable)

	assert.Equal(t, CodeCellOccupied, FromError(pvpttt.ErrCellOccupied).Code)
	assert.Equal(t, CodeInternal, FromError(errors.New("disk on fire")).Code)
}

func TestFromErrorPassesDomainErrorThrough(t *testing.T) {
	in := DomainError{Code: CodeAlreadyWaiting, Message: "wait"}
	out := FromError(fmt.Errorf("join: %w", in))
	require.NotNil(t, out)
	assert.Equal(t, in.Code, out.Code)
	assert.Equal(t, "wait", out.Error())
}
