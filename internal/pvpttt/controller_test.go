package pvpttt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/park285/tictactoe-kakao-bot/internal/domain"
	"github.com/park285/tictactoe-kakao-bot/internal/tictactoe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeNotifier struct {
	mu    sync.Mutex
	plans []RenderPlan
	err   error
}

func (f *fakeNotifier) Deliver(_ context.Context, plan RenderPlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plans = append(f.plans, plan)
	return f.err
}

func (f *fakeNotifier) last() RenderPlan {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plans[len(f.plans)-1]
}

type fakeRecorder struct {
	results []domain.MatchResult
	err     error
}

func (f *fakeRecorder) RecordResult(_ context.Context, r domain.MatchResult) error {
	f.results = append(f.results, r)
	return f.err
}

func newController(t *testing.T, roomA, roomB string, opts ...Option) (*Controller, *fakeNotifier, *Session) {
	t.Helper()
	reg := NewRegistry()
	s := newPair(t, roomA, roomB)
	require.NoError(t, reg.Insert(s))
	n := &fakeNotifier{}
	opts = append([]Option{WithLogger(zap.NewNop()), WithClock(func() time.Time { return t0 })}, opts...)
	return NewController(reg, n, opts...), n, s
}

func TestController_EndToEndWin(t *testing.T) {
	rec := &fakeRecorder{}
	c, n, s := newController(t, "room", "room", WithRecorder(rec))
	ctx := context.Background()

	require.NoError(t, c.Handle(ctx, "alice", Place(4)))
	require.ErrorIs(t, c.Handle(ctx, "bob", Place(4)), ErrCellOccupied)
	require.NoError(t, c.Handle(ctx, "bob", Place(0)))
	require.NoError(t, c.Handle(ctx, "alice", Place(1)))
	require.NoError(t, c.Handle(ctx, "bob", Place(3)))
	require.NoError(t, c.Handle(ctx, "alice", Place(7)))

	snap := n.last().Snapshot
	assert.Equal(t, EndWin, snap.End)
	assert.Equal(t, tictactoe.MarkA, snap.Outcome.Winner)
	assert.Equal(t, [3]int{1, 4, 7}, tictactoe.Lines[snap.Outcome.Line])
	assert.Nil(t, c.Registry().Get(s.ID()))
	assert.False(t, c.Registry().IsPlayerActive("alice"))

	require.Len(t, rec.results, 1)
	assert.Equal(t, domain.ResultFirst, rec.results[0].Result)
	assert.Equal(t, "alice", rec.results[0].WinnerID)
	assert.Equal(t, []int{4, 0, 1, 3, 7}, rec.results[0].Moves)

	require.ErrorIs(t, c.Handle(ctx, "bob", Place(8)), ErrNotInGame)
}

func TestController_FramesShared(t *testing.T) {
	c, n, _ := newController(t, "room", "room")
	require.NoError(t, c.Handle(context.Background(), "alice", MoveCursor(Right)))

	plan := n.last()
	require.Len(t, plan.Frames, 1)
	assert.Equal(t, FrameShared, plan.Frames[0].Kind)
	assert.Equal(t, 1, plan.Frames[0].Highlight)
	assert.Equal(t, "room", plan.Frames[0].Surface.Room)
}

func TestController_FramesSplit(t *testing.T) {
	c, n, _ := newController(t, "room-a", "room-b")
	ctx := context.Background()
	require.NoError(t, c.Handle(ctx, "alice", Confirm()))

	plan := n.last()
	require.Len(t, plan.Frames, 2)
	assert.Equal(t, FrameYourTurn, plan.Frames[0].Kind)
	assert.Equal(t, "bob", plan.Frames[0].Viewer.ID)
	assert.Equal(t, "room-b", plan.Frames[0].Surface.Room)
	assert.Equal(t, 1, plan.Frames[0].Highlight)
	assert.Equal(t, FrameWaiting, plan.Frames[1].Kind)
	assert.Equal(t, -1, plan.Frames[1].Highlight)

	require.NoError(t, c.Handle(ctx, "bob", Cancel()))
	plan = n.last()
	require.Len(t, plan.Frames, 2)
	for _, f := range plan.Frames {
		assert.Equal(t, FrameFinished, f.Kind)
	}
	assert.Len(t, plan.Surfaces(), 2)
}

func TestController_RenderFailureKeepsState(t *testing.T) {
	c, n, s := newController(t, "room", "room")
	n.err = errors.New("iris down")

	err := c.Handle(context.Background(), "alice", Place(0))
	require.ErrorIs(t, err, ErrRenderSurface)
	snap := s.Snapshot()
	assert.Equal(t, tictactoe.MarkA, snap.Board[0])
	assert.Equal(t, TurnSecond, snap.Turn)
}

func TestController_RecorderFailureIsSwallowed(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("db down")}
	c, _, _ := newController(t, "room", "room", WithRecorder(Recorders{rec, nil}))
	require.NoError(t, c.Handle(context.Background(), "alice", Cancel()))
	assert.Len(t, rec.results, 1)
}

func TestController_ReapIdle(t *testing.T) {
	now := t0
	c, n, s := newController(t, "room", "room", WithClock(func() time.Time { return now }))
	ctx := context.Background()

	assert.Equal(t, 0, c.ReapIdle(ctx, 0))
	now = t0.Add(time.Minute)
	assert.Equal(t, 0, c.ReapIdle(ctx, 5*time.Minute))
	now = t0.Add(10 * time.Minute)
	assert.Equal(t, 1, c.ReapIdle(ctx, 5*time.Minute))

	assert.Nil(t, c.Registry().Get(s.ID()))
	assert.Equal(t, EndExpired, n.last().Snapshot.End)
}

func TestController_ConcurrentInputsSerialize(t *testing.T) {
	c, _, s := newController(t, "room", "room")
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 9; i++ {
		wg.Add(1)
		go func(cell int) {
			defer wg.Done()
			_ = c.Handle(ctx, "alice", Place(cell))
		}(i)
	}
	wg.Wait()
	snap := s.Snapshot()
	assert.Len(t, snap.Moves, 1, "only one move may land while it is alice's turn")
	require.NoError(t, snap.Board.Validate())
}
