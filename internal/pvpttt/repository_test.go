package pvpttt

import (
	"context"
	"testing"

	"github.com/park285/tictactoe-kakao-bot/internal/domain"
)

func TestBuildNotation(t *testing.T) {
	cases := []struct {
		res  domain.MatchResult
		want string
	}{
		{domain.MatchResult{Moves: []int{4, 0, 1, 3, 7}, Result: domain.ResultFirst}, "X5 O1 X2 O4 X8 1-0"},
		{domain.MatchResult{Moves: []int{0, 4}, Result: domain.ResultStopped}, "X1 O5 *"},
		{domain.MatchResult{Result: domain.ResultExpired}, "*"},
	}
	for _, tc := range cases {
		if got := BuildNotation(tc.res); got != tc.want {
			t.Fatalf("BuildNotation(%v) = %q, want %q", tc.res.Moves, got, tc.want)
		}
	}
}

func TestNewRepositoryRequiresURL(t *testing.T) {
	if _, err := NewRepository("  "); err == nil {
		t.Fatalf("expected error for empty DATABASE_URL")
	}
}

func TestNilRepositoryIsNoop(t *testing.T) {
	var r *Repository
	if err := r.SaveResult(context.Background(), domain.MatchResult{}); err != nil {
		t.Fatalf("SaveResult on nil repo: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close on nil repo: %v", err)
	}
}
