package pvpttt

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/park285/tictactoe-kakao-bot/internal/domain"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS ttt_games (
    session_id   TEXT PRIMARY KEY,
    first_id     TEXT NOT NULL,
    first_name   TEXT NOT NULL,
    first_room   TEXT NOT NULL,
    second_id    TEXT NOT NULL,
    second_name  TEXT NOT NULL,
    second_room  TEXT NOT NULL,
    result       TEXT NOT NULL,
    winner_id    TEXT,
    stopped_by   TEXT,
    moves        JSONB NOT NULL,
    notation     TEXT NOT NULL,
    started_at   TIMESTAMPTZ NOT NULL,
    ended_at     TIMESTAMPTZ NOT NULL,
    duration_ms  BIGINT NOT NULL
)`

// Repository archives finished matches in Postgres.
type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure ttt_games: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) RecordResult(ctx context.Context, res domain.MatchResult) error {
	return r.SaveResult(ctx, res)
}

// SaveResult upserts a finished match keyed by session id.
func (r *Repository) SaveResult(ctx context.Context, res domain.MatchResult) error {
	if r == nil || r.db == nil {
		return nil
	}
	movesRaw, err := json.Marshal(res.Moves)
	if err != nil {
		return err
	}
	if res.Moves == nil {
		movesRaw = []byte("[]")
	}

	q := `INSERT INTO ttt_games (
        session_id, first_id, first_name, first_room,
        second_id, second_name, second_room,
        result, winner_id, stopped_by, moves, notation,
        started_at, ended_at, duration_ms
      ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15
      ) ON CONFLICT (session_id) DO UPDATE SET
        result=EXCLUDED.result,
        winner_id=EXCLUDED.winner_id,
        stopped_by=EXCLUDED.stopped_by,
        moves=EXCLUDED.moves,
        notation=EXCLUDED.notation,
        ended_at=EXCLUDED.ended_at,
        duration_ms=EXCLUDED.duration_ms`

	_, err = r.db.ExecContext(ctx, q,
		res.SessionID,
		res.FirstID, res.FirstName, res.FirstRoom,
		res.SecondID, res.SecondName, res.SecondRoom,
		res.Result, nullString(res.WinnerID), nullString(res.StoppedBy),
		string(movesRaw), BuildNotation(res),
		res.StartedAt, res.EndedAt, res.Duration().Milliseconds(),
	)
	return err
}

// BuildNotation writes a match as "X5 O1 X2 O4 X8 1-0", cells numbered 1..9
// and the trailer in first-second order.
func BuildNotation(res domain.MatchResult) string {
	var b strings.Builder
	for i, cell := range res.Moves {
		if i > 0 {
			b.WriteByte(' ')
		}
		if i%2 == 0 {
			b.WriteByte('X')
		} else {
			b.WriteByte('O')
		}
		b.WriteString(strconv.Itoa(cell + 1))
	}
	trailer := resultTrailer(res.Result)
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.WriteString(trailer)
	return b.String()
}

func resultTrailer(result string) string {
	switch result {
	case domain.ResultFirst:
		return "1-0"
	case domain.ResultSecond:
		return "0-1"
	case domain.ResultDraw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
