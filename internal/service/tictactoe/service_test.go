package tictactoe

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/park285/tictactoe-kakao-bot/internal/adapter/tttpresenter"
	"github.com/park285/tictactoe-kakao-bot/internal/msgcat"
	"github.com/park285/tictactoe-kakao-bot/internal/pvp"
	"github.com/park285/tictactoe-kakao-bot/internal/pvpstats"
	"github.com/park285/tictactoe-kakao-bot/internal/pvpttt"
	"github.com/park285/tictactoe-kakao-bot/pkg/tttdto"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notice struct {
	room, text string
}

type fakeAnnouncer struct {
	mu  sync.Mutex
	got []notice
}

func (f *fakeAnnouncer) Notice(_ context.Context, to pvpttt.SurfaceRef, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, notice{to.Room, text})
	return nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	plans []pvpttt.RenderPlan
}

func (f *fakeNotifier) Deliver(_ context.Context, plan pvpttt.RenderPlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plans = append(f.plans, plan)
	return nil
}

func (f *fakeNotifier) last() pvpttt.RenderPlan {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plans[len(f.plans)-1]
}

type fixture struct {
	svc      *Service
	ann      *fakeAnnouncer
	notifier *fakeNotifier
	clock    *time.Time
}

func newFixture(t *testing.T, cfg Config, stats StatsSource, recorder pvpttt.Recorder) *fixture {
	t.Helper()
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	reg := pvpttt.NewRegistry()
	n := &fakeNotifier{}
	opts := []pvpttt.Option{pvpttt.WithClock(clock)}
	if recorder != nil {
		opts = append(opts, pvpttt.WithRecorder(recorder))
	}
	ctl := pvpttt.NewController(reg, n, opts...)
	mm := pvp.NewMatchmaker(reg).WithClock(clock)
	ann := &fakeAnnouncer{}
	texts := tttpresenter.NewFormatter(msgcat.MustDefault(), tttpresenter.StaticPrefix("!"))
	svc, err := NewService(mm, ctl, ann, texts, stats, cfg, nil)
	require.NoError(t, err)
	return &fixture{svc: svc, ann: ann, notifier: n, clock: &now}
}

var (
	alice = Meta{UserID: "alice", Name: "Alice", Room: "roomA"}
	bob   = Meta{UserID: "bob", Name: "Bob", Room: "roomB"}
)

func TestStartWaitThenMatch(t *testing.T) {
	f := newFixture(t, Config{}, nil, nil)
	ctx := context.Background()

	out, err := f.svc.HandleStart(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, pvp.JoinBecameWaiting, out.Kind)
	require.Len(t, f.ann.got, 1)
	assert.Equal(t, "roomA", f.ann.got[0].room)
	assert.Contains(t, f.ann.got[0].text, "Alice님이 틱택토 상대를 기다립니다")

	_, err = f.svc.HandleStart(ctx, alice)
	require.ErrorIs(t, err, pvpttt.ErrAlreadyWaiting)
	require.ErrorIs(t, f.svc.HandleInput(ctx, "alice", pvpttt.Confirm()), pvpttt.ErrWaitingForOpponent)

	out, err = f.svc.HandleStart(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, pvp.JoinMatched, out.Kind)
	require.Len(t, f.ann.got, 3, "banner goes to both rooms")
	assert.Contains(t, f.ann.got[1].text, "Alice(X) vs Bob(O)")
	require.Len(t, f.notifier.plans, 1)
	assert.Len(t, f.notifier.last().Frames, 2)

	_, err = f.svc.HandleStart(ctx, bob)
	require.ErrorIs(t, err, pvpttt.ErrAlreadyInGame)
}

func TestInputFlowAndStatus(t *testing.T) {
	f := newFixture(t, Config{}, nil, nil)
	ctx := context.Background()
	_, err := f.svc.HandleStart(ctx, alice)
	require.NoError(t, err)
	_, err = f.svc.HandleStart(ctx, bob)
	require.NoError(t, err)

	require.ErrorIs(t, f.svc.HandleInput(ctx, "bob", pvpttt.Confirm()), pvpttt.ErrNotYourTurn)
	require.NoError(t, f.svc.HandleInput(ctx, "alice", pvpttt.MoveCursor(pvpttt.Down)))
	require.NoError(t, f.svc.HandleInput(ctx, "alice", pvpttt.Confirm()))

	st, err := f.svc.Status(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, ".../X../...", st.Board)
	assert.Equal(t, "bob", st.ToMove)

	require.NoError(t, f.svc.Resend(ctx, "alice"))
	_, err = f.svc.Status(ctx, "carol")
	require.ErrorIs(t, err, pvpttt.ErrNotInGame)
	require.ErrorIs(t, f.svc.HandleInput(ctx, "carol", pvpttt.Confirm()), pvpttt.ErrNotInGame)
}

func TestStartInputRejectsActivePlayers(t *testing.T) {
	f := newFixture(t, Config{}, nil, nil)
	ctx := context.Background()

	require.ErrorIs(t, f.svc.HandleInput(ctx, "carol", pvpttt.Start()), pvpttt.ErrInvalidArgs)

	_, err := f.svc.HandleStart(ctx, alice)
	require.NoError(t, err)
	require.ErrorIs(t, f.svc.HandleInput(ctx, "alice", pvpttt.Start()), pvpttt.ErrAlreadyWaiting)

	_, err = f.svc.HandleStart(ctx, bob)
	require.NoError(t, err)
	plans := len(f.notifier.plans)
	for _, id := range []string{"alice", "bob"} {
		err := f.svc.HandleInput(ctx, id, pvpttt.Start())
		require.ErrorIs(t, err, pvpttt.ErrAlreadyInGame, id)
		assert.Equal(t, tttdto.CodeAlreadyInGame, tttdto.FromError(err).Code)
	}
	assert.Len(t, f.notifier.plans, plans, "a rejected start must not re-render")

	st, err := f.svc.Status(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, ".../.../...", st.Board)
}

func TestStopCancelsWaitOrStopsGame(t *testing.T) {
	f := newFixture(t, Config{}, nil, nil)
	ctx := context.Background()
	_, err := f.svc.HandleStart(ctx, alice)
	require.NoError(t, err)

	st, err := f.svc.Status(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, st.Waiting)

	require.NoError(t, f.svc.HandleStop(ctx, "alice"))
	cancelled := f.ann.got[len(f.ann.got)-1]
	assert.Equal(t, "roomA", cancelled.room)
	assert.Contains(t, cancelled.text, "Alice님의 대기가 취소")
	_, waiting := f.svc.mm.Waiting()
	assert.False(t, waiting)
	require.ErrorIs(t, f.svc.HandleStop(ctx, "alice"), pvpttt.ErrNotInGame)

	_, err = f.svc.HandleStart(ctx, alice)
	require.NoError(t, err)
	_, err = f.svc.HandleStart(ctx, bob)
	require.NoError(t, err)
	require.NoError(t, f.svc.HandleStop(ctx, "bob"))
	last := f.notifier.last()
	assert.Equal(t, pvpttt.EndStopped, last.Snapshot.End)
	assert.Equal(t, "bob", last.Snapshot.StoppedBy)

	_, err = f.svc.Status(ctx, "alice")
	require.ErrorIs(t, err, pvpttt.ErrNotInGame)
}

func TestRoomAllowList(t *testing.T) {
	f := newFixture(t, Config{AllowedRooms: []string{"roomA"}}, nil, nil)
	_, err := f.svc.HandleStart(context.Background(), bob)
	require.ErrorIs(t, err, ErrRoomNotAllowed)
	assert.True(t, f.svc.RoomAllowed("roomA"))
	assert.Empty(t, f.ann.got)
}

func TestReapOnceExpiresIdleWaitAndSessions(t *testing.T) {
	f := newFixture(t, Config{IdleTimeout: time.Minute}, nil, nil)
	ctx := context.Background()
	_, err := f.svc.HandleStart(ctx, alice)
	require.NoError(t, err)
	_, err = f.svc.HandleStart(ctx, bob)
	require.NoError(t, err)
	carol := Meta{UserID: "carol", Name: "Carol", Room: "roomC"}
	_, err = f.svc.HandleStart(ctx, carol)
	require.NoError(t, err)

	assert.Zero(t, f.svc.ReapOnce(ctx))
	*f.clock = f.clock.Add(2 * time.Minute)
	assert.Equal(t, 1, f.svc.ReapOnce(ctx))
	assert.Equal(t, pvpttt.EndExpired, f.notifier.last().Snapshot.End)
	assert.Contains(t, f.ann.got[len(f.ann.got)-1].text, "Carol님의 대기가 시간 초과")
}

func TestReaperDisabledByDefault(t *testing.T) {
	f := newFixture(t, Config{}, nil, nil)
	assert.Zero(t, f.svc.ReapOnce(context.Background()))
	done := make(chan struct{})
	go func() {
		f.svc.RunReaper(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunReaper should return immediately when disabled")
	}
}

func TestStatsFromRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	store := pvpstats.NewStore(rdb)

	f := newFixture(t, Config{}, store, store)
	ctx := context.Background()
	_, err = f.svc.HandleStart(ctx, alice)
	require.NoError(t, err)
	_, err = f.svc.HandleStart(ctx, bob)
	require.NoError(t, err)
	for _, mv := range []struct {
		who  string
		cell int
	}{{"alice", 0}, {"bob", 3}, {"alice", 1}, {"bob", 4}, {"alice", 2}} {
		require.NoError(t, f.svc.HandleInput(ctx, mv.who, pvpttt.Place(mv.cell)))
	}

	view, recent, err := f.svc.Stats(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Games)
	assert.Equal(t, 1, view.Wins)
	require.Len(t, recent, 1)
	assert.Equal(t, "alice", recent[0].WinnerID)

	lost, _, err := f.svc.Stats(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, 1, lost.Losses)
}

func TestStatsUnavailable(t *testing.T) {
	f := newFixture(t, Config{}, nil, nil)
	_, _, err := f.svc.Stats(context.Background(), alice)
	require.ErrorIs(t, err, ErrStatsUnavailable)
}

func TestCommandsListed(t *testing.T) {
	f := newFixture(t, Config{}, nil, nil)
	names := map[string]bool{}
	for _, c := range f.svc.Commands() {
		names[c.Name] = true
	}
	for _, want := range []string{"play", "stop", "move", "confirm", "place", "board", "stats", "help"} {
		assert.True(t, names[want], want)
	}
}
