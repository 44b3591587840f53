package tttbuilder

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/park285/tictactoe-kakao-bot/internal/config"
	"github.com/park285/tictactoe-kakao-bot/internal/irisfast"
	svcttt "github.com/park285/tictactoe-kakao-bot/internal/service/tictactoe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testConfig(redisURL string) *config.AppConfig {
	return &config.AppConfig{
		IrisBaseURL:        "http://127.0.0.1:1",
		IrisWSURL:          "ws://127.0.0.1:1/ws",
		Transport:          "http",
		DryRun:             true,
		BotPrefix:          "!",
		RedisURL:           redisURL,
		ReapInterval:       time.Second,
		WSReconnectRetries: 1,
	}
}

func say(room, user, text string) *irisfast.Message {
	name := user
	return &irisfast.Message{Msg: text, Room: room, Sender: &name, JSON: &irisfast.MessageJSON{UserID: user}}
}

func TestNewWiresDryRunGameWithStats(t *testing.T) {
	mr := miniredis.RunT(t)
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := context.Background()

	d, err := New(ctx, testConfig("redis://"+mr.Addr()+"/0"), zap.New(core))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close(context.Background()) })
	require.NotNil(t, d.Stats)
	assert.Nil(t, d.Repo)

	for _, m := range []*irisfast.Message{
		say("roomA", "alice", "!play"),
		say("roomB", "bob", "!play"),
		say("roomA", "alice", "!ttt 1"),
		say("roomB", "bob", "!ttt 4"),
		say("roomA", "alice", "!ttt 2"),
		say("roomB", "bob", "!ttt 5"),
		say("roomA", "alice", "!ttt 3"),
	} {
		require.NoError(t, d.Router.HandleMessage(ctx, m))
	}

	assert.NotZero(t, logs.FilterMessage("egress_dryrun").Len())
	assert.Equal(t, 1, logs.FilterMessage("ttt_match_end").Len())
	assert.Zero(t, logs.FilterMessage("ttt_record_error").Len())

	st, err := d.Stats.Stats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, st.Games)
	assert.Equal(t, 1, st.Wins)

	_, ok := d.Controller.Current("alice")
	assert.False(t, ok)
}

func TestNewWithoutStoresReportsStatsUnavailable(t *testing.T) {
	d, err := New(context.Background(), testConfig(""), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close(context.Background()) })
	assert.Nil(t, d.Stats)

	_, _, err = d.Service.Stats(context.Background(), svcttt.Meta{UserID: "alice", Name: "alice", Room: "roomA"})
	require.ErrorIs(t, err, svcttt.ErrStatsUnavailable)
}

func TestNewRejectsBadInputs(t *testing.T) {
	_, err := New(context.Background(), nil, nil)
	require.Error(t, err)

	_, err = New(context.Background(), testConfig("mysql://nope"), nil)
	require.Error(t, err)

	cfg := testConfig("")
	cfg.MessagesDir = t.TempDir() + "/missing"
	_, err = New(context.Background(), cfg, nil)
	require.Error(t, err)
}
