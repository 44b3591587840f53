package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/park285/tictactoe-kakao-bot/internal/config"
	"github.com/park285/tictactoe-kakao-bot/internal/irisfast"
	"github.com/park285/tictactoe-kakao-bot/internal/obslog"
	"github.com/park285/tictactoe-kakao-bot/internal/tttbuilder"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	cmd := &cli.Command{
		Name:  "tictactoe-bot",
		Usage: "KakaoTalk tic-tac-toe PvP bot over Iris",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML config file (environment variables override it)",
				Sources: cli.EnvVars("TTT_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file to load before reading the config (default .env, optional)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "log outgoing replies instead of sending them",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "tictactoe-bot:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if err := config.LoadEnvFile(cmd.String("env-file")); err != nil {
		return err
	}
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}
	if cmd.Bool("dry-run") {
		cfg.DryRun = true
	}
	if err := obslog.Init(obslog.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Console: cfg.Log.Console,
		File:    cfg.Log.LogFile(),
		Caller:  cfg.Log.Caller,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := tttbuilder.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build bot: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := deps.Close(closeCtx); err != nil {
			logger.Warn("shutdown_error", zap.Error(err))
		}
	}()

	deps.WS.OnStateChange(func(state irisfast.WebSocketState) {
		logger.Info("iris_ws_state", zap.String("state", string(state)))
	})
	deps.WS.OnMessage(deps.Router.OnMessage(ctx))

	logger.Info("bot_starting",
		zap.String("transport", cfg.Transport),
		zap.Bool("dry_run", cfg.DryRun),
		zap.Strings("allowed_rooms", cfg.AllowedRooms),
		zap.Duration("idle_timeout", cfg.IdleTimeout),
		zap.Bool("stats", deps.Stats != nil),
		zap.Bool("archive", deps.Repo != nil),
	)
	if err := deps.WS.Connect(ctx); err != nil {
		// reconnect loop keeps trying in the background
		logger.Warn("iris_ws_initial_connect_failed", zap.Error(err))
	}

	go deps.Service.RunReaper(ctx)

	<-ctx.Done()
	logger.Info("bot_stopping")
	return nil
}
