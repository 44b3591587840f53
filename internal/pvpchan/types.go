package pvpchan

import (
	"context"

	"github.com/park285/tictactoe-kakao-bot/internal/pvpttt"
	"github.com/park285/tictactoe-kakao-bot/internal/tictactoe"
)

// Scene is what one board image shows. Highlight and Strike are -1 when unset;
// Strike indexes tictactoe.Lines.
type Scene struct {
	Board     tictactoe.Board
	Highlight int
	Strike    int
	Legend    string
}

// Renderer turns a scene into PNG bytes.
type Renderer interface {
	Render(ctx context.Context, scene Scene) ([]byte, error)
}

// Content is one outbound chat message. Either part may be empty.
type Content struct {
	Text  string
	Image []byte
}

// MessageHandle identifies a message previously sent to a surface.
type MessageHandle struct {
	Surface pvpttt.SurfaceRef
	ID      string
}

// Channel is the chat platform. Platforms without message editing may
// implement Edit by sending a new message.
type Channel interface {
	Send(ctx context.Context, to pvpttt.SurfaceRef, c Content) (MessageHandle, error)
	Edit(ctx context.Context, h MessageHandle, c Content) error
}

// Texts supplies the wording around a frame.
type Texts interface {
	Caption(f pvpttt.Frame, s pvpttt.Snapshot) string
	Legend(f pvpttt.Frame, s pvpttt.Snapshot) string
}

var (
	ErrNoChannel  = errf("no channel configured")
	ErrNoRenderer = errf("no renderer configured")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error { return staticErr(s) }
