package pvpstats

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/park285/tictactoe-kakao-bot/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	recentLimit    = 50
	fieldGames     = "games"
	fieldWins      = "wins"
	fieldLosses    = "losses"
	fieldDraws     = "draws"
	fieldAbandoned = "abandoned"
	fieldName      = "name"
	fieldLastPlay  = "last_played_at"
)

// Store keeps a per-player scoreboard hash and a capped list of recent
// results. It implements pvpttt.Recorder.
type Store struct{ rdb *redis.Client }

func NewStore(rdb *redis.Client) *Store { return &Store{rdb: rdb} }

// Open connects to redisURL and pings it.
func Open(ctx context.Context, redisURL string) (*Store, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for stats store")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{rdb: rdb}, nil
}

func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func (s *Store) keyStats(player string) string { return "ttt:stats:" + strings.TrimSpace(player) }
func (s *Store) keyRecent() string { return "ttt:recent" }
func (s *Store) keyRecentBy(player string) string {
	return "ttt:recent:" + strings.TrimSpace(player)
}

type record struct {
	SessionID  string    `json:"session_id"`
	FirstID    string    `json:"first_id"`
	FirstName  string    `json:"first_name"`
	FirstRoom  string    `json:"first_room,omitempty"`
	SecondID   string    `json:"second_id"`
	SecondName string    `json:"second_name"`
	SecondRoom string    `json:"second_room,omitempty"`
	Result     string    `json:"result"`
	WinnerID   string    `json:"winner_id,omitempty"`
	StoppedBy  string    `json:"stopped_by,omitempty"`
	Moves      []int     `json:"moves"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

func toRecord(r domain.MatchResult) record {
	return record{
		SessionID: r.SessionID, FirstID: r.FirstID, FirstName: r.FirstName, FirstRoom: r.FirstRoom,
		SecondID: r.SecondID, SecondName: r.SecondName, SecondRoom: r.SecondRoom,
		Result: r.Result, WinnerID: r.WinnerID, StoppedBy: r.StoppedBy,
		Moves: r.Moves, StartedAt: r.StartedAt, EndedAt: r.EndedAt,
	}
}

func (r record) result() domain.MatchResult {
	return domain.MatchResult{
		SessionID: r.SessionID, FirstID: r.FirstID, FirstName: r.FirstName, FirstRoom: r.FirstRoom,
		SecondID: r.SecondID, SecondName: r.SecondName, SecondRoom: r.SecondRoom,
		Result: r.Result, WinnerID: r.WinnerID, StoppedBy: r.StoppedBy,
		Moves: r.Moves, StartedAt: r.StartedAt, EndedAt: r.EndedAt,
	}
}

// RecordResult updates both players' counters and the recent lists in one
// transaction.
func (s *Store) RecordResult(ctx context.Context, r domain.MatchResult) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	if r.FirstID == "" || r.SecondID == "" {
		return fmt.Errorf("record result: missing participants")
	}
	raw, err := json.Marshal(toRecord(r))
	if err != nil {
		return err
	}
	ended := r.EndedAt
	if ended.IsZero() {
		ended = time.Now()
	}

	pipe := s.rdb.TxPipeline()
	for _, p := range [][2]string{{r.FirstID, r.FirstName}, {r.SecondID, r.SecondName}} {
		key := s.keyStats(p[0])
		pipe.HIncrBy(ctx, key, fieldGames, 1)
		pipe.HSet(ctx, key, fieldName, p[1], fieldLastPlay, ended.UTC().Format(time.RFC3339))
		pipe.LPush(ctx, s.keyRecentBy(p[0]), raw)
		pipe.LTrim(ctx, s.keyRecentBy(p[0]), 0, recentLimit-1)
	}
	switch r.Result {
	case domain.ResultFirst, domain.ResultSecond:
		pipe.HIncrBy(ctx, s.keyStats(r.WinnerID), fieldWins, 1)
		pipe.HIncrBy(ctx, s.keyStats(r.LoserID()), fieldLosses, 1)
	case domain.ResultDraw:
		pipe.HIncrBy(ctx, s.keyStats(r.FirstID), fieldDraws, 1)
		pipe.HIncrBy(ctx, s.keyStats(r.SecondID), fieldDraws, 1)
	case domain.ResultStopped:
		if r.StoppedBy != "" {
			pipe.HIncrBy(ctx, s.keyStats(r.StoppedBy), fieldAbandoned, 1)
		}
	case domain.ResultExpired:
		pipe.HIncrBy(ctx, s.keyStats(r.FirstID), fieldAbandoned, 1)
		pipe.HIncrBy(ctx, s.keyStats(r.SecondID), fieldAbandoned, 1)
	}
	pipe.LPush(ctx, s.keyRecent(), raw)
	pipe.LTrim(ctx, s.keyRecent(), 0, recentLimit-1)
	_, err = pipe.Exec(ctx)
	return err
}

// Stats returns the scoreboard of player; an unknown player has zero counts.
func (s *Store) Stats(ctx context.Context, player string) (domain.PlayerStats, error) {
	out := domain.PlayerStats{PlayerID: player}
	vals, err := s.rdb.HGetAll(ctx, s.keyStats(player)).Result()
	if err == redis.Nil {
		return out, nil
	}
	if err != nil {
		return out, err
	}
	out.Name = vals[fieldName]
	out.Games = atoi(vals[fieldGames])
	out.Wins = atoi(vals[fieldWins])
	out.Losses = atoi(vals[fieldLosses])
	out.Draws = atoi(vals[fieldDraws])
	out.Abandoned = atoi(vals[fieldAbandoned])
	if ts := vals[fieldLastPlay]; ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			out.LastPlayedAt = t
		}
	}
	return out, nil
}

// Recent returns up to n results, newest first. An empty player lists all games.
func (s *Store) Recent(ctx context.Context, player string, n int) ([]domain.MatchResult, error) {
	if n <= 0 || n > recentLimit {
		n = recentLimit
	}
	key := s.keyRecent()
	if strings.TrimSpace(player) != "" {
		key = s.keyRecentBy(player)
	}
	raws, err := s.rdb.LRange(ctx, key, 0, int64(n-1)).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	out := make([]domain.MatchResult, 0, len(raws))
	for _, raw := range raws {
		var rec record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			continue
		}
		out = append(out, rec.result())
	}
	return out, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
