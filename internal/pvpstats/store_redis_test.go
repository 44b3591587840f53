package pvpstats

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/park285/tictactoe-kakao-bot/internal/domain"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStore(rdb), func() { _ = rdb.Close(); mr.Close() }
}

func result(id, res, winner string) domain.MatchResult {
	start := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	return domain.MatchResult{
		SessionID:  id,
		FirstID:    "u1",
		FirstName:  "Alice",
		FirstRoom:  "roomA",
		SecondID:   "u2",
		SecondName: "Bob",
		SecondRoom: "roomB",
		Result:     res,
		WinnerID:   winner,
		Moves:      []int{4, 0, 1},
		StartedAt:  start,
		EndedAt:    start.Add(time.Minute),
	}
}

func TestRecordResultCounts(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if err := s.RecordResult(ctx, result("g1", domain.ResultFirst, "u1")); err != nil {
		t.Fatalf("RecordResult win: %v", err)
	}
	if err := s.RecordResult(ctx, result("g2", domain.ResultDraw, "")); err != nil {
		t.Fatalf("RecordResult draw: %v", err)
	}
	stopped := result("g3", domain.ResultStopped, "")
	stopped.StoppedBy = "u2"
	if err := s.RecordResult(ctx, stopped); err != nil {
		t.Fatalf("RecordResult stopped: %v", err)
	}

	a, err := s.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("Stats u1: %v", err)
	}
	if a.Games != 3 || a.Wins != 1 || a.Losses != 0 || a.Draws != 1 || a.Abandoned != 0 {
		t.Fatalf("unexpected u1 stats: %+v", a)
	}
	if a.Name != "Alice" || a.LastPlayedAt.IsZero() {
		t.Fatalf("expected name and last played time, got %+v", a)
	}
	b, err := s.Stats(ctx, "u2")
	if err != nil {
		t.Fatalf("Stats u2: %v", err)
	}
	if b.Games != 3 || b.Wins != 0 || b.Losses != 1 || b.Draws != 1 || b.Abandoned != 1 {
		t.Fatalf("unexpected u2 stats: %+v", b)
	}
}

func TestStatsUnknownPlayer(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()
	st, err := s.Stats(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Games != 0 || st.PlayerID != "nobody" {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestRecentIsCappedNewestFirst(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()
	for i := 0; i < recentLimit+5; i++ {
		if err := s.RecordResult(ctx, result(fmt.Sprintf("g%d", i), domain.ResultSecond, "u2")); err != nil {
			t.Fatalf("RecordResult #%d: %v", i, err)
		}
	}
	all, err := s.Recent(ctx, "", 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(all) != recentLimit {
		t.Fatalf("expected %d recent results, got %d", recentLimit, len(all))
	}
	if all[0].SessionID != fmt.Sprintf("g%d", recentLimit+4) {
		t.Fatalf("expected newest first, got %s", all[0].SessionID)
	}
	mine, err := s.Recent(ctx, "u1", 3)
	if err != nil {
		t.Fatalf("Recent u1: %v", err)
	}
	if len(mine) != 3 || mine[0].WinnerID != "u2" || len(mine[0].Moves) != 3 {
		t.Fatalf("unexpected per-player recent: %+v", mine)
	}
}

func TestRecordResultRequiresParticipants(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()
	if err := s.RecordResult(context.Background(), domain.MatchResult{SessionID: "x"}); err == nil {
		t.Fatalf("expected error for result without participants")
	}
}
