package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/park285/tictactoe-kakao-bot/internal/adapter/tttpresenter"
	"github.com/park285/tictactoe-kakao-bot/internal/irisfast"
	svcttt "github.com/park285/tictactoe-kakao-bot/internal/service/tictactoe"
	"github.com/park285/tictactoe-kakao-bot/pkg/tttdto"
	"go.uber.org/zap"
)

// Replier sends a plain text reply to a room.
type Replier interface {
	Text(ctx context.Context, room, message string) error
}

// Router turns inbound Iris chat messages into service calls and text replies.
type Router struct {
	prefix    string
	svc       *svcttt.Service
	formatter *tttpresenter.Formatter
	replier   Replier
	logger    *zap.Logger
	timeout   time.Duration
	now       func() time.Time
}

func NewRouter(prefix string, svc *svcttt.Service, formatter *tttpresenter.Formatter, replier Replier, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		prefix:    strings.TrimSpace(prefix),
		svc:       svc,
		formatter: formatter,
		replier:   replier,
		logger:    logger,
		timeout:   15 * time.Second,
		now:       time.Now,
	}
}

// OnMessage adapts HandleMessage to irisfast.MessageCallback. Each message gets its own deadline.
func (r *Router) OnMessage(parent context.Context) irisfast.MessageCallback {
	return func(msg *irisfast.Message) {
		ctx, cancel := context.WithTimeout(parent, r.timeout)
		defer cancel()
		if err := r.HandleMessage(ctx, msg); err != nil {
			r.logger.Warn("ttt_message_error", zap.Error(err))
		}
	}
}

// HandleMessage routes one chat line. Messages not addressed to the bot return nil.
func (r *Router) HandleMessage(ctx context.Context, msg *irisfast.Message) error {
	if msg == nil || strings.TrimSpace(msg.Msg) == "" {
		return nil
	}
	text := strings.TrimSpace(msg.Msg)
	if r.prefix == "" || !strings.HasPrefix(text, r.prefix) {
		return nil
	}
	if !r.svc.RoomAllowed(msg.Room) {
		r.logger.Debug("ttt_room_ignored", zap.String("room", msg.Room))
		return nil
	}
	cmd, ok, err := svcttt.ParseCommand(strings.TrimPrefix(text, r.prefix))
	if !ok {
		return nil
	}
	if err != nil {
		return r.replyError(ctx, msg.Room, err)
	}
	meta := svcttt.Meta{UserID: strings.TrimSpace(msg.SenderID()), Name: msg.SenderName(), Room: msg.Room}
	if meta.UserID == "" {
		r.logger.Warn("ttt_sender_unknown", zap.String("room", msg.Room))
		return nil
	}
	r.logger.Debug("ttt_command", zap.String("cmd", cmd.Kind.String()), zap.String("player_id", meta.UserID), zap.String("room", meta.Room))

	switch cmd.Kind {
	case svcttt.CmdPlay:
		_, err = r.svc.HandleStart(ctx, meta)
	case svcttt.CmdStop:
		err = r.svc.HandleStop(ctx, meta.UserID)
	case svcttt.CmdInput:
		err = r.svc.HandleInput(ctx, meta.UserID, cmd.Input)
	case svcttt.CmdBoard:
		err = r.svc.Resend(ctx, meta.UserID)
	case svcttt.CmdStatus:
		err = r.status(ctx, meta)
	case svcttt.CmdStats:
		err = r.stats(ctx, meta)
	case svcttt.CmdHelp:
		return r.reply(ctx, meta.Room, r.formatter.Help())
	}
	if err != nil {
		return r.replyError(ctx, meta.Room, err)
	}
	return nil
}

func (r *Router) status(ctx context.Context, meta svcttt.Meta) error {
	st, err := r.svc.Status(ctx, meta.UserID)
	if err != nil {
		return err
	}
	if st.Waiting {
		return r.reply(ctx, meta.Room, r.formatter.StillWaiting(st, r.now()))
	}
	return r.svc.Resend(ctx, meta.UserID)
}

func (r *Router) stats(ctx context.Context, meta svcttt.Meta) error {
	view, recent, err := r.svc.Stats(ctx, meta)
	if err != nil {
		return err
	}
	return r.reply(ctx, meta.Room, r.formatter.Stats(view, recent))
}

func (r *Router) replyError(ctx context.Context, room string, err error) error {
	switch {
	case errors.Is(err, svcttt.ErrRoomNotAllowed):
		return nil
	case errors.Is(err, svcttt.ErrStatsUnavailable):
		return r.reply(ctx, room, r.formatter.StatsUnavailable())
	}
	de := tttdto.FromError(err)
	if de.Code == tttdto.CodeInternal || de.Retryable {
		r.logger.Warn("ttt_command_failed", zap.String("room", room), zap.String("code", de.Code), zap.Error(err))
	}
	return r.reply(ctx, room, r.formatter.Error(de))
}

func (r *Router) reply(ctx context.Context, room, text string) error {
	if r.replier == nil || strings.TrimSpace(text) == "" {
		return nil
	}
	return r.replier.Text(ctx, room, text)
}
