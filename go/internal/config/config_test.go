package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mcdev12/coinsweeper/go/internal/round"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	rs := cfg.Round()
	require.Equal(t, round.Window{Min: 5, Max: 10}, rs.WinWindow)
	require.Equal(t, round.Window{Min: 5, Max: 10}, rs.LossWindow)
	require.Equal(t, 0.8, rs.WinProbability)
	require.False(t, rs.AlwaysWin)
	require.Equal(t, 5*time.Second, rs.PostSubmitCooldown)

	ss := cfg.Session()
	require.Equal(t, 3, ss.BatchSize)
	require.Equal(t, round.Window{Min: 4, Max: 8}, ss.BatchDelay)
	require.Equal(t, time.Minute, ss.RateLimitBackoff)
	require.Zero(t, ss.MaxBatches)
}

func TestLoad_DoesNotLog(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	require.Empty(t, cfg.File)

	_, err = Load(writeFile(t, "config.json", `{"batch_size": 0}`))
	require.ErrorIs(t, err, ErrInvalidConfig)
	require.Empty(t, buf.String())
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
	"max_game_time": 20,
	"min_game_time": 12,
	"always_win": true,
	"win_window": {"min": 40, "max": 60},
	"api": {"timeout": 10},
	"scoring": {"base": 45, "time_ceiling": 1200, "flat_bonus": 2000, "bonus_num": 9, "bonus_den": 54, "upper_bound": 900, "seed_entropy": false}
}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, cfg.File)
	require.Equal(t, 20, cfg.MaxGameTime)
	require.Equal(t, 12, cfg.MinGameTime)
	require.True(t, cfg.AlwaysWin)
	require.False(t, cfg.Scoring.SeedEntropy)
	require.Equal(t, 10*time.Second, cfg.Client().Timeout)

	rs := cfg.Round()
	require.Equal(t, round.Window{Min: 40, Max: 60}, rs.WinWindow)
	require.Equal(t, round.Window{Min: 12, Max: 20}, rs.LossWindow)
	require.True(t, rs.AlwaysWin)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
max_game_time: 9
min_game_time: 3
batch_size: 5
loss_window:
  min: 1
  max: 2
nats:
  url: nats://localhost:4222
log:
  level: debug
  pretty: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, round.Window{Min: 3, Max: 9}, cfg.GameWindow())
	require.Equal(t, 5, cfg.BatchSize)
	require.Equal(t, round.Window{Min: 1, Max: 2}, cfg.Round().LossWindow)
	require.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	require.Equal(t, "coinsweeper.events", cfg.NATS.Subject)
	require.Equal(t, "debug", cfg.Log.Level)
	require.False(t, cfg.Log.Pretty)
}

func TestLoad_MalformedFileFallsBack(t *testing.T) {
	path := writeFile(t, "config.json", `{"max_game_time": 20, "min_game_time": `)

	cfg, err := Load(path)
	require.ErrorIs(t, err, ErrInvalidConfig)
	require.Equal(t, Default(), cfg)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"max_game_time": 3,
		"min_game_time": 8,
		"win_probability": 1.5,
		"batch_size": 0,
		"batch_delay_min": 9,
		"batch_delay_max": 2,
		"win_window": {"min": 10, "max": 1},
		"scoring": {"bonus_den": 0, "upper_bound": 900}
	}`)

	cfg, err := Load(path)
	require.ErrorIs(t, err, ErrInvalidConfig)
	require.ErrorContains(t, err, "min_game_time")
	require.ErrorContains(t, err, "scoring")

	def := Default()
	require.Equal(t, def.MinGameTime, cfg.MinGameTime)
	require.Equal(t, def.MaxGameTime, cfg.MaxGameTime)
	require.Equal(t, def.WinProbability, cfg.WinProbability)
	require.Equal(t, def.BatchSize, cfg.BatchSize)
	require.Equal(t, def.BatchDelayMin, cfg.BatchDelayMin)
	require.Equal(t, def.BatchDelayMax, cfg.BatchDelayMax)
	require.Nil(t, cfg.WinWindow)
	require.Equal(t, def.Scoring, cfg.Scoring)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "config.json", `{"max_game_time": 20, "min_game_time": 12}`)
	t.Setenv("SWEEPER_MIN_GAME_TIME", "15")
	t.Setenv("SWEEPER_ALWAYS_WIN", "true")
	t.Setenv("SWEEPER_API_BASE_URL", "http://localhost:9999/api")
	t.Setenv("SWEEPER_STATUS_ADDR", ":8088")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 15, cfg.MinGameTime)
	require.Equal(t, 20, cfg.MaxGameTime)
	require.True(t, cfg.AlwaysWin)
	require.Equal(t, "http://localhost:9999/api", cfg.Client().BaseURL)
	require.Equal(t, ":8088", cfg.StatusAddr)
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("SWEEPER_BATCH_SIZE", "lots")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	require.ErrorIs(t, err, ErrInvalidConfig)
	require.Equal(t, 3, cfg.BatchSize)
}
