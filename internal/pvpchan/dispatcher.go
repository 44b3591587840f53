package pvpchan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/park285/tictactoe-kakao-bot/internal/obslog"
	"github.com/park285/tictactoe-kakao-bot/internal/pvpttt"
	"github.com/park285/tictactoe-kakao-bot/internal/tictactoe"
	"go.uber.org/zap"
)

// Dispatcher implements pvpttt.Notifier over a Channel. Deliveries for one
// session are serialized and a plan older than the last delivered one is
// dropped.
type Dispatcher struct {
	ch       Channel
	renderer Renderer
	texts    Texts

	mu       sync.Mutex
	tracks   map[string]*track
	finished []string
}

// finishedKeep bounds how many ended session ids are remembered for
// dropping late plans.
const finishedKeep = 256

type track struct {
	mu        sync.Mutex
	delivered uint64
	handles   map[string]MessageHandle
}

func NewDispatcher(ch Channel, renderer Renderer, texts Texts) *Dispatcher {
	return &Dispatcher{ch: ch, renderer: renderer, texts: texts, tracks: make(map[string]*track)}
}

// trackFor returns the session's track, or false once the session has
// finished. The finished check and the lookup share one critical section.
func (d *Dispatcher) trackFor(sessionID string) (*track, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range d.finished {
		if id == sessionID {
			return nil, false
		}
	}
	t, ok := d.tracks[sessionID]
	if !ok {
		t = &track{handles: make(map[string]MessageHandle)}
		d.tracks[sessionID] = t
	}
	return t, true
}

func (d *Dispatcher) forget(sessionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.tracks, sessionID)
	d.finished = append(d.finished, sessionID)
	if len(d.finished) > finishedKeep {
		d.finished = append(d.finished[:0], d.finished[len(d.finished)-finishedKeep:]...)
	}
}

// Tracked reports how many sessions still hold message handles.
func (d *Dispatcher) Tracked() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tracks)
}

func (d *Dispatcher) Deliver(ctx context.Context, plan pvpttt.RenderPlan) error {
	if d.ch == nil {
		return ErrNoChannel
	}
	if d.renderer == nil {
		return ErrNoRenderer
	}
	snap := plan.Snapshot
	t, live := d.trackFor(snap.ID)
	if !live {
		obslog.L().Debug("ttt_late_plan_dropped", zap.String("session_id", snap.ID), zap.Uint64("version", snap.Version))
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if snap.Version < t.delivered {
		obslog.L().Debug("ttt_stale_plan_dropped", zap.String("session_id", snap.ID), zap.Uint64("version", snap.Version), zap.Uint64("delivered", t.delivered))
		return nil
	}

	var errs []error
	for _, f := range plan.Frames {
		if f.Surface.IsZero() {
			obslog.L().Warn("ttt_frame_without_surface", zap.String("session_id", snap.ID), zap.String("viewer_id", f.Viewer.ID))
			continue
		}
		if err := d.deliverFrame(ctx, t, f, snap); err != nil {
			errs = append(errs, fmt.Errorf("room %s: %w", f.Surface.Room, err))
		}
	}
	t.delivered = snap.Version
	if snap.Terminal() {
		d.forget(snap.ID)
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) deliverFrame(ctx context.Context, t *track, f pvpttt.Frame, snap pvpttt.Snapshot) error {
	scene := Scene{Board: snap.Board, Highlight: f.Highlight, Strike: -1}
	if snap.End == pvpttt.EndWin && snap.Outcome.Kind == tictactoe.Win {
		scene.Strike = snap.Outcome.Line
	}
	var content Content
	if d.texts != nil {
		scene.Legend = d.texts.Legend(f, snap)
		content.Text = d.texts.Caption(f, snap)
	}
	img, err := d.renderer.Render(ctx, scene)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	content.Image = img

	if h, ok := t.handles[f.Surface.Room]; ok {
		if err := d.ch.Edit(ctx, h, content); err != nil {
			return fmt.Errorf("edit: %w", err)
		}
		return nil
	}
	h, err := d.ch.Send(ctx, f.Surface, content)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	t.handles[f.Surface.Room] = h
	return nil
}

// Notice sends plain text to a surface, outside any session.
func (d *Dispatcher) Notice(ctx context.Context, to pvpttt.SurfaceRef, text string) error {
	if d.ch == nil {
		return ErrNoChannel
	}
	if strings.TrimSpace(text) == "" || to.IsZero() {
		return nil
	}
	_, err := d.ch.Send(ctx, to, Content{Text: text})
	return err
}
