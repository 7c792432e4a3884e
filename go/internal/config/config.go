// Package config loads runner settings from defaults, a JSON or YAML file
// and SWEEPER_* environment variables, in that order.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mcdev12/coinsweeper/go/clients/sweeper_client"
	"github.com/mcdev12/coinsweeper/go/internal/identity"
	"github.com/mcdev12/coinsweeper/go/internal/integrity"
	"github.com/mcdev12/coinsweeper/go/internal/round"
	"github.com/mcdev12/coinsweeper/go/internal/scoring"
	"github.com/mcdev12/coinsweeper/go/internal/session"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file read when none is named
const DefaultFile = "config.json"

// EnvPrefix prefixes every environment override
const EnvPrefix = "SWEEPER_"

// ErrInvalidConfig marks values that were rejected and replaced by defaults.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Window is an optional per-outcome override of the game time range
type Window struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

type API struct {
	BaseURL   string `yaml:"base_url" json:"base_url" env:"BASE_URL"`
	UserAgent string `yaml:"user_agent" json:"user_agent" env:"USER_AGENT"`
	// TimeoutSec bounds each request.
	TimeoutSec int `yaml:"timeout" json:"timeout" env:"TIMEOUT"`
}

type NATS struct {
	URL     string `yaml:"url" json:"url" env:"URL"`
	Subject string `yaml:"subject" json:"subject" env:"SUBJECT"`
}

type Log struct {
	Level  string `yaml:"level" json:"level" env:"LEVEL"`
	Pretty bool   `yaml:"pretty" json:"pretty" env:"PRETTY"`
}

// Config is immutable once Load returns. Durations are whole seconds.
type Config struct {
	MaxGameTime    int     `yaml:"max_game_time" json:"max_game_time" env:"MAX_GAME_TIME"`
	MinGameTime    int     `yaml:"min_game_time" json:"min_game_time" env:"MIN_GAME_TIME"`
	AlwaysWin      bool    `yaml:"always_win" json:"always_win" env:"ALWAYS_WIN"`
	WinProbability float64 `yaml:"win_probability" json:"win_probability" env:"WIN_PROBABILITY"`

	WinWindow  *Window `yaml:"win_window" json:"win_window"`
	LossWindow *Window `yaml:"loss_window" json:"loss_window"`

	BatchSize          int `yaml:"batch_size" json:"batch_size" env:"BATCH_SIZE"`
	BatchDelayMin      int `yaml:"batch_delay_min" json:"batch_delay_min" env:"BATCH_DELAY_MIN"`
	BatchDelayMax      int `yaml:"batch_delay_max" json:"batch_delay_max" env:"BATCH_DELAY_MAX"`
	PostSubmitCooldown int `yaml:"post_submit_cooldown" json:"post_submit_cooldown" env:"POST_SUBMIT_COOLDOWN"`
	RateLimitBackoff   int `yaml:"rate_limit_backoff" json:"rate_limit_backoff" env:"RATE_LIMIT_BACKOFF"`
	MaxBatches         int `yaml:"max_batches" json:"max_batches" env:"MAX_BATCHES"`

	IdentitiesFile string `yaml:"identities_file" json:"identities_file" env:"IDENTITIES_FILE"`
	Salt           string `yaml:"salt" json:"salt" env:"SALT"`
	StatusAddr     string `yaml:"status_addr" json:"status_addr" env:"STATUS_ADDR"`

	API     API            `yaml:"api" json:"api" envPrefix:"API_"`
	Scoring scoring.Tuning `yaml:"scoring" json:"scoring"`
	NATS    NATS           `yaml:"nats" json:"nats" envPrefix:"NATS_"`
	Log     Log            `yaml:"log" json:"log" envPrefix:"LOG_"`

	// File is the config file that was applied, empty when none was read.
	File string `yaml:"-" json:"-"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		MaxGameTime:        10,
		MinGameTime:        5,
		WinProbability:     0.8,
		BatchSize:          3,
		BatchDelayMin:      4,
		BatchDelayMax:      8,
		PostSubmitCooldown: 5,
		RateLimitBackoff:   60,
		IdentitiesFile:     identity.DefaultFile,
		Salt:               integrity.DefaultSalt,
		API: API{
			BaseURL:    sweeper_client.BaseURL,
			UserAgent:  sweeper_client.DefaultUserAgent,
			TimeoutSec: 30,
		},
		Scoring: scoring.DefaultTuning(),
		NATS:    NATS{Subject: "coinsweeper.events"},
		Log:     Log{Level: "info", Pretty: true},
	}
}

// Load builds the configuration. It always returns a usable Config: a
// missing file is not an error, while unreadable or invalid input falls back
// to defaults and is reported through an error wrapping ErrInvalidConfig.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultFile
	}
	cfg := Default()
	var errs []error

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		errs = append(errs, fmt.Errorf("read %s: %w", path, err))
	default:
		fileCfg := Default()
		if err := decode(data, &fileCfg); err != nil {
			errs = append(errs, fmt.Errorf("parse %s: %w", path, err))
		} else {
			cfg = fileCfg
			cfg.File = path
		}
	}

	envCfg := cfg
	if err := env.ParseWithOptions(&envCfg, env.Options{Prefix: EnvPrefix}); err != nil {
		errs = append(errs, fmt.Errorf("parse environment: %w", err))
	} else {
		cfg = envCfg
	}

	errs = append(errs, cfg.normalize()...)
	if len(errs) > 0 {
		return cfg, fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		return json.Unmarshal(trimmed, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

// normalize replaces every invalid value with its default and reports it.
func (c *Config) normalize() []error {
	def := Default()
	var errs []error
	reject := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.MinGameTime < 0 || c.MinGameTime > c.MaxGameTime {
		reject("min_game_time %d must be between 0 and max_game_time %d", c.MinGameTime, c.MaxGameTime)
		c.MinGameTime, c.MaxGameTime = def.MinGameTime, def.MaxGameTime
	}
	if c.WinWindow != nil && !c.WinWindow.round().Valid() {
		reject("win_window %d..%d is not a valid range", c.WinWindow.Min, c.WinWindow.Max)
		c.WinWindow = nil
	}
	if c.LossWindow != nil && !c.LossWindow.round().Valid() {
		reject("loss_window %d..%d is not a valid range", c.LossWindow.Min, c.LossWindow.Max)
		c.LossWindow = nil
	}
	if c.WinProbability < 0 || c.WinProbability > 1 {
		reject("win_probability %v must be within [0, 1]", c.WinProbability)
		c.WinProbability = def.WinProbability
	}
	if c.BatchSize <= 0 {
		reject("batch_size %d must be positive", c.BatchSize)
		c.BatchSize = def.BatchSize
	}
	if c.BatchDelayMin < 0 || c.BatchDelayMin > c.BatchDelayMax {
		reject("batch_delay_min %d must be between 0 and batch_delay_max %d", c.BatchDelayMin, c.BatchDelayMax)
		c.BatchDelayMin, c.BatchDelayMax = def.BatchDelayMin, def.BatchDelayMax
	}
	if c.PostSubmitCooldown < 0 {
		reject("post_submit_cooldown %d must not be negative", c.PostSubmitCooldown)
		c.PostSubmitCooldown = def.PostSubmitCooldown
	}
	if c.RateLimitBackoff <= 0 {
		reject("rate_limit_backoff %d must be positive", c.RateLimitBackoff)
		c.RateLimitBackoff = def.RateLimitBackoff
	}
	if c.MaxBatches < 0 {
		reject("max_batches %d must not be negative", c.MaxBatches)
		c.MaxBatches = def.MaxBatches
	}
	if c.API.TimeoutSec <= 0 {
		reject("api.timeout %d must be positive", c.API.TimeoutSec)
		c.API.TimeoutSec = def.API.TimeoutSec
	}
	if err := c.Scoring.Validate(); err != nil {
		reject("scoring: %w", err)
		c.Scoring = def.Scoring
	}
	if c.IdentitiesFile == "" {
		c.IdentitiesFile = def.IdentitiesFile
	}
	if c.Salt == "" {
		c.Salt = def.Salt
	}
	return errs
}

func (w Window) round() round.Window {
	return round.Window{Min: w.Min, Max: w.Max}
}

// GameWindow is the global game time range
func (c Config) GameWindow() round.Window {
	return round.Window{Min: c.MinGameTime, Max: c.MaxGameTime}
}

// Round returns the round controller settings
func (c Config) Round() round.Settings {
	s := round.Settings{
		AlwaysWin:          c.AlwaysWin,
		WinProbability:     c.WinProbability,
		WinWindow:          c.GameWindow(),
		LossWindow:         c.GameWindow(),
		PostSubmitCooldown: seconds(c.PostSubmitCooldown),
		Scoring:            c.Scoring,
	}
	if c.WinWindow != nil {
		s.WinWindow = c.WinWindow.round()
	}
	if c.LossWindow != nil {
		s.LossWindow = c.LossWindow.round()
	}
	return s
}

// Session returns the orchestrator settings
func (c Config) Session() session.Settings {
	return session.Settings{
		BatchSize:        c.BatchSize,
		BatchDelay:       round.Window{Min: c.BatchDelayMin, Max: c.BatchDelayMax},
		RateLimitBackoff: seconds(c.RateLimitBackoff),
		MaxBatches:       c.MaxBatches,
	}
}

// Client returns the game client settings
func (c Config) Client() sweeper_client.Config {
	return sweeper_client.Config{
		BaseURL:   c.API.BaseURL,
		UserAgent: c.API.UserAgent,
		Timeout:   seconds(c.API.TimeoutSec),
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
