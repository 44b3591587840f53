package pvpttt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/park285/tictactoe-kakao-bot/internal/domain"
	"github.com/park285/tictactoe-kakao-bot/internal/obslog"
	"go.uber.org/zap"
)

// Notifier delivers render plans to chat surfaces.
type Notifier interface {
	Deliver(ctx context.Context, plan RenderPlan) error
}

// Recorder keeps finished match results.
type Recorder interface {
	RecordResult(ctx context.Context, r domain.MatchResult) error
}

// Recorders fans a result out to every recorder and joins the failures.
type Recorders []Recorder

func (rs Recorders) RecordResult(ctx context.Context, r domain.MatchResult) error {
	var errs []error
	for _, rec := range rs {
		if rec == nil {
			continue
		}
		if err := rec.RecordResult(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Option func(*Controller)

func WithRecorder(r Recorder) Option { return func(c *Controller) { c.recorder = r } }

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// Controller turns player inputs into session mutations and render plans.
type Controller struct {
	reg      *Registry
	notifier Notifier
	recorder Recorder
	log      *zap.Logger
	now      func() time.Time
}

func NewController(reg *Registry, notifier Notifier, opts ...Option) *Controller {
	c := &Controller{reg: reg, notifier: notifier, log: obslog.L(), now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Controller) Registry() *Registry { return c.reg }

// Now is the controller clock.
func (c *Controller) Now() time.Time { return c.now() }

// Handle applies one input from playerID. A returned ErrRenderSurface means
// the move was committed but the board could not be shown.
func (c *Controller) Handle(ctx context.Context, playerID string, in Input) error {
	s := c.reg.FindByPlayer(playerID)
	if s == nil {
		return ErrNotInGame
	}
	now := c.now()

	s.mu.Lock()
	var err error
	switch in.Kind {
	case InputMoveCursor:
		_, err = s.moveCursorLocked(playerID, in.Dir, now)
	case InputConfirm:
		_, err = s.tryMoveLocked(playerID, s.cursor, now)
	case InputPlace:
		_, err = s.tryMoveLocked(playerID, in.Cell, now)
	case InputCancel:
		err = s.stopLocked(playerID, now)
	case InputStart:
		err = ErrAlreadyInGame
	default:
		err = fmt.Errorf("%w: %d", ErrUnknownInput, in.Kind)
	}
	if err != nil {
		s.mu.Unlock()
		return err
	}
	snap := s.snapshotLocked()
	if snap.Terminal() {
		c.reg.Remove(snap.ID)
	}
	s.mu.Unlock()

	c.log.Info("ttt_input",
		zap.String("session_id", snap.ID),
		zap.String("player_id", playerID),
		zap.String("input", in.Kind.String()),
		zap.String("board", snap.Board.String()),
		zap.Uint64("version", snap.Version),
	)
	return c.publish(ctx, snap)
}

// Begin renders the opening board of a freshly matched session.
func (c *Controller) Begin(ctx context.Context, s *Session) error {
	if s == nil {
		return ErrInvalidArgs
	}
	snap := s.Snapshot()
	c.log.Info("ttt_match_start",
		zap.String("session_id", snap.ID),
		zap.String("first_id", snap.First.ID),
		zap.String("second_id", snap.Second.ID),
		zap.String("mode", snap.Mode.String()),
	)
	return c.publish(ctx, snap)
}

// Current returns a snapshot of playerID's live session.
func (c *Controller) Current(playerID string) (Snapshot, bool) {
	s := c.reg.FindByPlayer(playerID)
	if s == nil {
		return Snapshot{}, false
	}
	return s.Snapshot(), true
}

// Resend re-publishes the current board of playerID's session.
func (c *Controller) Resend(ctx context.Context, playerID string) error {
	snap, ok := c.Current(playerID)
	if !ok {
		return ErrNotInGame
	}
	return c.deliver(ctx, PlanFor(snap))
}

// ReapIdle expires sessions untouched for maxIdle and returns how many ended.
func (c *Controller) ReapIdle(ctx context.Context, maxIdle time.Duration) int {
	if maxIdle <= 0 {
		return 0
	}
	now := c.now()
	n := 0
	for _, s := range c.reg.Snapshot() {
		s.mu.Lock()
		if now.Sub(s.lastActive) < maxIdle || !s.expireLocked(now) {
			s.mu.Unlock()
			continue
		}
		snap := s.snapshotLocked()
		c.reg.Remove(snap.ID)
		s.mu.Unlock()
		n++
		c.log.Info("ttt_session_expired", zap.String("session_id", snap.ID), zap.Duration("idle", maxIdle))
		if err := c.publish(ctx, snap); err != nil {
			c.log.Warn("ttt_expire_render_error", zap.String("session_id", snap.ID), zap.Error(err))
		}
	}
	return n
}

func (c *Controller) publish(ctx context.Context, snap Snapshot) error {
	if snap.Terminal() {
		c.record(ctx, snap)
	}
	return c.deliver(ctx, PlanFor(snap))
}

func (c *Controller) deliver(ctx context.Context, plan RenderPlan) error {
	if c.notifier == nil {
		return nil
	}
	if err := c.notifier.Deliver(ctx, plan); err != nil {
		c.log.Warn("ttt_render_error", zap.String("session_id", plan.Snapshot.ID), zap.Uint64("version", plan.Snapshot.Version), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrRenderSurface, err)
	}
	return nil
}

// record stores the result best effort; players never see these failures.
func (c *Controller) record(ctx context.Context, snap Snapshot) {
	res := snap.Result()
	c.log.Info("ttt_match_end",
		zap.String("session_id", res.SessionID),
		zap.String("result", res.Result),
		zap.String("winner_id", res.WinnerID),
		zap.Int("moves", len(res.Moves)),
	)
	if c.recorder == nil {
		return
	}
	if err := c.recorder.RecordResult(ctx, res); err != nil {
		c.log.Warn("ttt_record_error", zap.String("session_id", res.SessionID), zap.Error(err))
	}
}
