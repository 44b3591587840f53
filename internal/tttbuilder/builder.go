package tttbuilder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/park285/tictactoe-kakao-bot/internal/adapter/tttpresenter"
	"github.com/park285/tictactoe-kakao-bot/internal/bot"
	"github.com/park285/tictactoe-kakao-bot/internal/config"
	"github.com/park285/tictactoe-kakao-bot/internal/irisfast"
	"github.com/park285/tictactoe-kakao-bot/internal/msgcat"
	"github.com/park285/tictactoe-kakao-bot/internal/pvp"
	"github.com/park285/tictactoe-kakao-bot/internal/pvpchan"
	"github.com/park285/tictactoe-kakao-bot/internal/pvpstats"
	"github.com/park285/tictactoe-kakao-bot/internal/pvpttt"
	"github.com/park285/tictactoe-kakao-bot/internal/render"
	svcttt "github.com/park285/tictactoe-kakao-bot/internal/service/tictactoe"
	"go.uber.org/zap"
)

// Deps is the wired bot. Stats and Repo are nil when their URLs are unset.
type Deps struct {
	Client     *irisfast.Client
	WS         *irisfast.WebSocket
	Egress     irisfast.Egress
	Dispatcher *pvpchan.Dispatcher
	Controller *pvpttt.Controller
	Matchmaker *pvp.Matchmaker
	Service    *svcttt.Service
	Router     *bot.Router
	Stats      *pvpstats.Store
	Repo       *pvpttt.Repository
}

func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	headers := cfg.IrisHeaders
	client := irisfast.NewClient(cfg.IrisBaseURL, irisfast.WithHeaderProvider(headers))
	ws := irisfast.NewWebSocket(cfg.IrisWSURL, cfg.WSReconnectRetries, time.Second)
	ws.SetHeaderProvider(headers)
	ws.SetLogger(logger)

	egress := irisfast.NewEgress(irisfast.ParseTransport(cfg.Transport), cfg.DryRun, client, ws, logger)
	presenter := tttpresenter.NewPresenter(egress.SendText, egress.SendImage)
	formatter := tttpresenter.NewFormatter(catalog, tttpresenter.StaticPrefix(cfg.BotPrefix))
	dispatcher := pvpchan.NewDispatcher(presenter, render.NewBoard(), formatter)

	d := &Deps{Client: client, WS: ws, Egress: egress, Dispatcher: dispatcher}

	var recorders pvpttt.Recorders
	if strings.TrimSpace(cfg.RedisURL) != "" {
		d.Stats, err = pvpstats.Open(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("init stats store: %w", err)
		}
		recorders = append(recorders, d.Stats)
	}
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		d.Repo, err = pvpttt.NewRepository(cfg.DatabaseURL)
		if err != nil {
			_ = d.Stats.Close()
			return nil, fmt.Errorf("init game archive: %w", err)
		}
		recorders = append(recorders, d.Repo)
	}

	opts := []pvpttt.Option{pvpttt.WithLogger(logger)}
	if len(recorders) > 0 {
		opts = append(opts, pvpttt.WithRecorder(recorders))
	}
	reg := pvpttt.NewRegistry()
	d.Controller = pvpttt.NewController(reg, dispatcher, opts...)
	d.Matchmaker = pvp.NewMatchmaker(reg)

	// a nil *Store must not reach the service as a non-nil interface
	var stats svcttt.StatsSource
	if d.Stats != nil {
		stats = d.Stats
	}
	d.Service, err = svcttt.NewService(d.Matchmaker, d.Controller, dispatcher, formatter, stats, svcttt.Config{
		AllowedRooms: append([]string(nil), cfg.AllowedRooms...),
		IdleTimeout:  cfg.IdleTimeout,
		ReapInterval: cfg.ReapInterval,
	}, logger)
	if err != nil {
		_ = d.closeStores()
		return nil, err
	}
	d.Router = bot.NewRouter(cfg.BotPrefix, d.Service, formatter, presenter, logger)
	return d, nil
}

// Close stops the websocket and closes the stores.
func (d *Deps) Close(ctx context.Context) error {
	if d == nil {
		return nil
	}
	var errs []error
	if d.WS != nil {
		if err := d.WS.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close websocket: %w", err))
		}
	}
	if err := d.closeStores(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (d *Deps) closeStores() error {
	var errs []error
	if err := d.Stats.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close stats store: %w", err))
	}
	if err := d.Repo.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close game archive: %w", err))
	}
	return errors.Join(errs...)
}
