package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/park285/tictactoe-kakao-bot/internal/config"
	"github.com/park285/tictactoe-kakao-bot/internal/irisfast"
)

// irischeck probes the Iris HTTP config endpoint and listens on the websocket
// for a short window, printing what the bot would see.
func main() {
	envFile := flag.String("env-file", "", "dotenv file to load first")
	configPath := flag.String("config", "", "YAML config file")
	window := flag.Duration("window", 10*time.Second, "how long to watch websocket traffic")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		log.Fatal(err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	client := irisfast.NewClient(cfg.IrisBaseURL,
		irisfast.WithHeaderProvider(cfg.IrisHeaders),
		irisfast.WithTimeout(8*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	icfg, err := client.GetConfig(ctx)
	if err != nil {
		log.Printf("/config error: %v", err)
	} else {
		log.Printf("/config ok: bot=%s port=%d polling=%d rate=%d endpoint=%s", icfg.BotName, icfg.Port, icfg.PollingSpeed, icfg.MessageRate, icfg.WebserverEndpoint)
	}

	ws := irisfast.NewWebSocket(cfg.IrisWSURL, cfg.WSReconnectRetries, time.Second)
	ws.SetHeaderProvider(cfg.IrisHeaders)
	ws.OnStateChange(func(state irisfast.WebSocketState) {
		log.Printf("WS state: %s", state)
	})
	ws.OnMessage(func(msg *irisfast.Message) {
		fmt.Printf("WS msg room=%s from=%s(%s) allowed=%t text=%q\n", msg.Room, msg.SenderName(), msg.SenderID(), cfg.RoomAllowed(msg.Room), msg.Msg)
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx); err != nil {
		log.Printf("WS connect error: %v", err)
		_ = ws.Close(context.Background())
		return
	}

	time.Sleep(*window)
	_ = ws.Close(context.Background())
}
