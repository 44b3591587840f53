package tictactoe

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/park285/tictactoe-kakao-bot/internal/adapter/tttpresenter"
	"github.com/park285/tictactoe-kakao-bot/internal/domain"
	"github.com/park285/tictactoe-kakao-bot/internal/pvp"
	"github.com/park285/tictactoe-kakao-bot/internal/pvpttt"
	"github.com/park285/tictactoe-kakao-bot/pkg/tttdto"
	"go.uber.org/zap"
)

var (
	ErrRoomNotAllowed   = errors.New("tictactoe room not allowed")
	ErrStatsUnavailable = errors.New("tictactoe stats store not configured")
)

const recentLimit = 3

// Announcer posts free text to a surface; pvpchan.Dispatcher implements it.
type Announcer interface {
	Notice(ctx context.Context, to pvpttt.SurfaceRef, text string) error
}

// Announcements supplies the lobby wording; tttpresenter.Formatter implements it.
type Announcements interface {
	Waiting(p pvpttt.Player) string
	Matched(s pvpttt.Snapshot) string
	Cancelled(p pvpttt.Player) string
	WaitExpired(p pvpttt.Player) string
}

// StatsSource reads the scoreboard; pvpstats.Store implements it.
type StatsSource interface {
	Stats(ctx context.Context, playerID string) (domain.PlayerStats, error)
	Recent(ctx context.Context, playerID string, n int) ([]domain.MatchResult, error)
}

type Config struct {
	AllowedRooms []string
	// IdleTimeout of 0 keeps sessions and the waiting slot forever.
	IdleTimeout  time.Duration
	ReapInterval time.Duration
}

// Meta identifies who sent a command and from where.
type Meta struct {
	UserID string
	Name   string
	Room   string
}

func (m Meta) Player() pvpttt.Player { return pvpttt.NewPlayer(m.UserID, m.Name, m.Room) }

// Service is the host-facing facade over matchmaking, turn control and stats.
type Service struct {
	mm           *pvp.Matchmaker
	ctl          *pvpttt.Controller
	announcer    Announcer
	texts        Announcements
	stats        StatsSource
	cfg          Config
	allowedRooms map[string]struct{}
	logger       *zap.Logger
}

func NewService(mm *pvp.Matchmaker, ctl *pvpttt.Controller, announcer Announcer, texts Announcements, stats StatsSource, cfg Config, logger *zap.Logger) (*Service, error) {
	if mm == nil || ctl == nil {
		return nil, pvpttt.ErrInvalidArgs
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = 30 * time.Second
	}
	s := &Service{
		mm:        mm,
		ctl:       ctl,
		announcer: announcer,
		texts:     texts,
		stats:     stats,
		cfg:       cfg,
		logger:    logger,
	}
	if len(cfg.AllowedRooms) > 0 {
		s.allowedRooms = make(map[string]struct{}, len(cfg.AllowedRooms))
		for _, r := range cfg.AllowedRooms {
			if r = strings.TrimSpace(r); r != "" {
				s.allowedRooms[r] = struct{}{}
			}
		}
	}
	return s, nil
}

func (s *Service) Commands() []CommandDescriptor {
	return []CommandDescriptor{
		{Name: "play", Aliases: []string{"ttt play", "ttt join"}, Usage: "play", Description: "join the waiting slot or start a match"},
		{Name: "stop", Aliases: []string{"ttt stop"}, Usage: "stop", Description: "cancel waiting or stop the current match"},
		{Name: "move", Aliases: []string{"w", "a", "s", "d"}, Usage: "ttt up|down|left|right", Description: "move the cursor"},
		{Name: "confirm", Aliases: []string{"ttt enter", "ttt 확인"}, Usage: "ttt ok", Description: "place a mark at the cursor"},
		{Name: "place", Usage: "ttt 1-9", Description: "place a mark on a cell directly"},
		{Name: "board", Usage: "ttt board", Description: "send the current board again"},
		{Name: "stats", Usage: "ttt stats", Description: "show your record"},
		{Name: "help", Usage: "ttt help", Description: "list commands"},
	}
}

func (s *Service) RoomAllowed(room string) bool {
	if len(s.allowedRooms) == 0 {
		return true
	}
	_, ok := s.allowedRooms[strings.TrimSpace(room)]
	return ok
}

// HandleStart runs a join request. A rejected join returns the outcome together with its reason.
func (s *Service) HandleStart(ctx context.Context, meta Meta) (pvp.JoinOutcome, error) {
	if !s.RoomAllowed(meta.Room) {
		return pvp.JoinOutcome{Kind: pvp.JoinRejected, Reason: ErrRoomNotAllowed}, ErrRoomNotAllowed
	}
	p := meta.Player()
	out := s.mm.RequestJoin(p)
	switch out.Kind {
	case pvp.JoinBecameWaiting:
		s.announce(ctx, p.Surface, s.textWaiting(p))
		return out, nil
	case pvp.JoinMatched:
		snap := out.Session.Snapshot()
		for _, surface := range pvpttt.PlanFor(snap).Surfaces() {
			s.announce(ctx, surface, s.textMatched(snap))
		}
		return out, s.ctl.Begin(ctx, out.Session)
	default:
		return out, out.Reason
	}
}

// HandleInput applies an in-game input for playerID. A Start input from a
// player already in a session or the waiting slot is rejected; joining
// itself goes through HandleStart, which carries the player's room.
func (s *Service) HandleInput(ctx context.Context, playerID string, in pvpttt.Input) error {
	err := s.ctl.Handle(ctx, playerID, in)
	if !errors.Is(err, pvpttt.ErrNotInGame) {
		return err
	}
	if w, ok := s.mm.Waiting(); ok && w.Player.ID == playerID {
		if in.Kind == pvpttt.InputStart {
			return pvpttt.ErrAlreadyWaiting
		}
		return pvpttt.ErrWaitingForOpponent
	}
	if in.Kind == pvpttt.InputStart {
		return pvpttt.ErrInvalidArgs
	}
	return err
}

// HandleStop cancels the caller's waiting slot or stops their session.
func (s *Service) HandleStop(ctx context.Context, playerID string) error {
	if w, ok := s.mm.CancelWaiting(playerID); ok {
		s.logger.Info("ttt_wait_cancelled", zap.String("player_id", playerID))
		s.announce(ctx, w.Player.Surface, s.textCancelled(w.Player))
		return nil
	}
	return s.ctl.Handle(ctx, playerID, pvpttt.Cancel())
}

// Resend delivers the caller's current board again.
func (s *Service) Resend(ctx context.Context, playerID string) error {
	err := s.ctl.Resend(ctx, playerID)
	if errors.Is(err, pvpttt.ErrNotInGame) {
		if w, ok := s.mm.Waiting(); ok && w.Player.ID == playerID {
			return pvpttt.ErrWaitingForOpponent
		}
	}
	return err
}

// Status describes the caller's live game or wait.
func (s *Service) Status(_ context.Context, playerID string) (*tttdto.SessionState, error) {
	if snap, ok := s.ctl.Current(playerID); ok {
		return tttpresenter.ToDTOState(snap), nil
	}
	if w, ok := s.mm.Waiting(); ok && w.Player.ID == playerID {
		return tttpresenter.ToDTOWaiting(w), nil
	}
	return nil, pvpttt.ErrNotInGame
}

// Stats returns the caller's scoreboard line and latest results.
func (s *Service) Stats(ctx context.Context, meta Meta) (tttdto.StatsView, []domain.MatchResult, error) {
	if s.stats == nil {
		return tttdto.StatsView{}, nil, ErrStatsUnavailable
	}
	st, err := s.stats.Stats(ctx, meta.UserID)
	if err != nil {
		return tttdto.StatsView{}, nil, err
	}
	if st.Name == "" {
		st.Name = meta.Player().Name
	}
	recent, err := s.stats.Recent(ctx, meta.UserID, recentLimit)
	if err != nil {
		s.logger.Warn("ttt_recent_error", zap.String("player_id", meta.UserID), zap.Error(err))
		recent = nil
	}
	return tttpresenter.ToDTOStats(st), recent, nil
}

// ReapOnce expires idle sessions and an idle waiting slot. It returns how many sessions ended.
func (s *Service) ReapOnce(ctx context.Context) int {
	if s.cfg.IdleTimeout <= 0 {
		return 0
	}
	n := s.ctl.ReapIdle(ctx, s.cfg.IdleTimeout)
	if w, ok := s.mm.ExpireWaiting(s.cfg.IdleTimeout); ok {
		s.logger.Info("ttt_wait_expired", zap.String("player_id", w.Player.ID))
		s.announce(ctx, w.Player.Surface, s.textWaitExpired(w.Player))
	}
	return n
}

// RunReaper calls ReapOnce every ReapInterval until ctx ends. It returns at once when the reaper is off.
func (s *Service) RunReaper(ctx context.Context) {
	if s.cfg.IdleTimeout <= 0 {
		return
	}
	t := time.NewTicker(s.cfg.ReapInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.ReapOnce(ctx); n > 0 {
				s.logger.Info("ttt_reaped", zap.Int("sessions", n))
			}
		}
	}
}

func (s *Service) announce(ctx context.Context, to pvpttt.SurfaceRef, text string) {
	if s.announcer == nil || strings.TrimSpace(text) == "" {
		return
	}
	if err := s.announcer.Notice(ctx, to, text); err != nil {
		s.logger.Warn("ttt_notice_error", zap.String("room", to.Room), zap.Error(err))
	}
}

func (s *Service) textWaiting(p pvpttt.Player) string {
	if s.texts == nil {
		return ""
	}
	return s.texts.Waiting(p)
}

func (s *Service) textMatched(snap pvpttt.Snapshot) string {
	if s.texts == nil {
		return ""
	}
	return s.texts.Matched(snap)
}

func (s *Service) textCancelled(p pvpttt.Player) string {
	if s.texts == nil {
		return ""
	}
	return s.texts.Cancelled(p)
}

func (s *Service) textWaitExpired(p pvpttt.Player) string {
	if s.texts == nil {
		return ""
	}
	return s.texts.WaitExpired(p)
}
