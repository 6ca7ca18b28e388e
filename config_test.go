package tickfsm_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librescoot/tickfsm"
)

// clearEnv makes sure the named variables are unset for the test and
// restored afterwards
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

var configEnv = []string{
	"TICKFSM_EXPEDITE_LIMIT",
	"TICKFSM_DEBUG",
	"TICKFSM_AUTO_ACTIVATE",
	"TICKFSM_LOG_LEVEL",
	"TICKFSM_LOG_FORMAT",
	"TICKFSM_TICK_RATE",
}

func TestDefaultConfig(t *testing.T) {
	cfg := tickfsm.DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, tickfsm.DefaultExpediteLimit, cfg.ExpediteLimit)
	assert.Equal(t, tickfsm.DefaultTickRate, cfg.TickRate)
	assert.False(t, cfg.Debug)
	assert.False(t, cfg.AutoActivate)
}

func TestParseConfigYAML(t *testing.T) {
	cfg, err := tickfsm.ParseConfig([]byte(`
expedite_limit: 4
debug: true
log_level: debug
log_format: json
tick_rate: 20ms
`), "yaml")
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.ExpediteLimit)
	assert.True(t, cfg.Debug)
	assert.False(t, cfg.AutoActivate)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 20*time.Millisecond, cfg.TickRate)
}

func TestParseConfigTOML(t *testing.T) {
	cfg, err := tickfsm.ParseConfig([]byte(`
expedite_limit = 7
auto_activate = true
log_level = "warn"
tick_rate = "33ms"
`), "toml")
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.ExpediteLimit)
	assert.True(t, cfg.AutoActivate)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 33*time.Millisecond, cfg.TickRate)
}

func TestParseConfigEmptyKeepsDefaults(t *testing.T) {
	cfg, err := tickfsm.ParseConfig(nil, "yaml")
	require.NoError(t, err)
	assert.Equal(t, tickfsm.DefaultConfig(), cfg)
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		format  string
		wantErr error
	}{
		{"unknown yaml key", "expedite: 3\n", "yaml", tickfsm.ErrParsingConfig},
		{"unknown toml key", "expedite = 3\n", "toml", tickfsm.ErrParsingConfig},
		{"bad format", "", "ini", tickfsm.ErrParsingConfig},
		{"negative limit", "expedite_limit: -1\n", "yaml", tickfsm.ErrInvalidConfig},
		{"zero tick rate", "tick_rate: 0s\n", "yaml", tickfsm.ErrInvalidConfig},
		{"bad level", "log_level: loud\n", "yaml", tickfsm.ErrInvalidConfig},
		{"bad log format", "log_format: xml\n", "yaml", tickfsm.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tickfsm.ParseConfig([]byte(tt.data), tt.format)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadConfigWithEnvOverride(t *testing.T) {
	clearEnv(t, configEnv...)

	path := filepath.Join(t.TempDir(), "fsm.yml")
	require.NoError(t, os.WriteFile(path, []byte("expedite_limit: 3\ndebug: true\n"), 0o644))

	t.Setenv("TICKFSM_EXPEDITE_LIMIT", "5")

	cfg, err := tickfsm.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.ExpediteLimit)
	assert.True(t, cfg.Debug, "file value kept when env is unset")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := tickfsm.LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadConfigFromEnv(t *testing.T) {
	clearEnv(t, configEnv...)

	path := filepath.Join(t.TempDir(), ".env.test")
	require.NoError(t, os.WriteFile(path, []byte("TICKFSM_DEBUG=true\nTICKFSM_TICK_RATE=10ms\n"), 0o644))
	t.Setenv("TICKFSM_LOG_LEVEL", "error")

	cfg, err := tickfsm.LoadConfigFromEnv(path)
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 10*time.Millisecond, cfg.TickRate)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, tickfsm.DefaultExpediteLimit, cfg.ExpediteLimit)
}

func TestLoadConfigFromEnvInvalid(t *testing.T) {
	clearEnv(t, configEnv...)
	t.Setenv("TICKFSM_EXPEDITE_LIMIT", "many")

	_, err := tickfsm.LoadConfigFromEnv(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, tickfsm.ErrParsingConfig)

	_, err = tickfsm.LoadConfigFromEnv()
	assert.ErrorIs(t, err, tickfsm.ErrParsingConfig)
}

func TestLoadConfigFromDefaultDotenv(t *testing.T) {
	clearEnv(t, configEnv...)
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	// No ./.env is fine
	cfg, err := tickfsm.LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, tickfsm.DefaultConfig(), cfg)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TICKFSM-DEBUG=true\n"), 0o644))
	_, err = tickfsm.LoadConfigFromEnv()
	assert.ErrorIs(t, err, tickfsm.ErrParsingConfig)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := tickfsm.ParseLevel(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}

	_, err := tickfsm.ParseLevel("verbose")
	assert.ErrorIs(t, err, tickfsm.ErrInvalidConfig)
}

func TestConfigNewLogger(t *testing.T) {
	cfg := tickfsm.DefaultConfig()
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"

	var buf bytes.Buffer
	logger, err := cfg.NewLogger(&buf)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", "state", 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "kept", record["msg"])
	assert.Equal(t, "WARN", record["level"])
}

func TestWithConfig(t *testing.T) {
	cfg := tickfsm.DefaultConfig()
	cfg.ExpediteLimit = 2
	cfg.AutoActivate = true

	m := tickfsm.New(tickfsm.WithLogger(quietLogger), tickfsm.WithConfig(cfg))
	assert.Equal(t, 2, m.ExpediteLimit())

	require.NoError(t, m.Register(tickfsm.NewState(), stateIdle))
	assert.Equal(t, stateIdle, current(t, m))
}
