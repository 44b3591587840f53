package obslog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestBuildJSONFileCore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bot.log")
	logger, err := Build(Options{Level: "debug", Format: "json", File: path})
	require.NoError(t, err)
	logger.Debug("ttt_match_start", zap.String("session", "s1"))
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(raw))), &entry))
	assert.Equal(t, "ttt_match_start", entry["msg"])
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "s1", entry["session"])
}

func TestLevelFiltersFileCore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	logger, err := Build(Options{Level: "warn", Format: "legacy", File: path})
	require.NoError(t, err)
	logger.Info("dropped")
	logger.Warn("kept")
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "dropped")
	assert.Contains(t, string(raw), "WARN | ")
}

func TestParseLevelAndFormat(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, parseLevel("Warning"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("loud"))
	assert.Equal(t, "legacy", normalizeFormat("xml"))
	assert.Equal(t, "json", normalizeFormat(" JSON "))
}

func TestSetNilFallsBackToNop(t *testing.T) {
	prev := L()
	t.Cleanup(func() { Set(prev) })
	Set(nil)
	require.NotNil(t, L())
	L().Info("nop")
}
