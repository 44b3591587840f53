package tttpresenter

import (
	"context"
	"encoding/base64"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/park285/tictactoe-kakao-bot/internal/pvpchan"
	"github.com/park285/tictactoe-kakao-bot/internal/pvpttt"
)

// SendFunc posts one payload to a room; irisfast.Egress methods fit directly.
type SendFunc func(ctx context.Context, room, payload string) error

// Presenter is the KakaoTalk pvpchan.Channel. Text goes first, then the board
// image as base64. KakaoTalk cannot edit a sent message, so Edit posts a new one.
type Presenter struct {
	sendMessage SendFunc
	sendImage   SendFunc
	seq         atomic.Uint64
}

var _ pvpchan.Channel = (*Presenter)(nil)

func NewPresenter(sendMessage, sendImage SendFunc) *Presenter {
	return &Presenter{sendMessage: sendMessage, sendImage: sendImage}
}

func (p *Presenter) Send(ctx context.Context, to pvpttt.SurfaceRef, c pvpchan.Content) (pvpchan.MessageHandle, error) {
	if err := p.post(ctx, to.Room, c); err != nil {
		return pvpchan.MessageHandle{}, err
	}
	return pvpchan.MessageHandle{Surface: to, ID: strconv.FormatUint(p.seq.Add(1), 10)}, nil
}

func (p *Presenter) Edit(ctx context.Context, h pvpchan.MessageHandle, c pvpchan.Content) error {
	return p.post(ctx, h.Surface.Room, c)
}

func (p *Presenter) post(ctx context.Context, room string, c pvpchan.Content) error {
	if p == nil {
		return nil
	}
	if text := strings.TrimSpace(c.Text); text != "" && p.sendMessage != nil {
		if err := p.sendMessage(ctx, room, c.Text); err != nil {
			return err
		}
	}
	if len(c.Image) > 0 && p.sendImage != nil {
		if err := p.sendImage(ctx, room, base64.StdEncoding.EncodeToString(c.Image)); err != nil {
			return err
		}
	}
	return nil
}

// Text sends a plain reply outside the board flow (help, errors, stats).
func (p *Presenter) Text(ctx context.Context, room, message string) error {
	return p.post(ctx, room, pvpchan.Content{Text: message})
}
