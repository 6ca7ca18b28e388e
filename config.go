package tickfsm

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidConfig is returned when a Config fails validation
	ErrInvalidConfig = errors.New("tickfsm: invalid config")

	// ErrParsingConfig is returned when a config file or the environment cannot be decoded
	ErrParsingConfig = errors.New("tickfsm: failed to parse config")
)

// Config holds machine and loop settings loadable from YAML, TOML or the environment
type Config struct {
	ExpediteLimit int           `yaml:"expedite_limit" toml:"expedite_limit" env:"TICKFSM_EXPEDITE_LIMIT"`
	Debug         bool          `yaml:"debug" toml:"debug" env:"TICKFSM_DEBUG"`
	AutoActivate  bool          `yaml:"auto_activate" toml:"auto_activate" env:"TICKFSM_AUTO_ACTIVATE"`
	LogLevel      string        `yaml:"log_level" toml:"log_level" env:"TICKFSM_LOG_LEVEL"`
	LogFormat     string        `yaml:"log_format" toml:"log_format" env:"TICKFSM_LOG_FORMAT"`
	TickRate      time.Duration `yaml:"tick_rate" toml:"tick_rate" env:"TICKFSM_TICK_RATE"`
}

// DefaultTickRate is one frame at 60 FPS
const DefaultTickRate = 16667 * time.Microsecond

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	return Config{
		ExpediteLimit: DefaultExpediteLimit,
		LogLevel:      "info",
		LogFormat:     "text",
		TickRate:      DefaultTickRate,
	}
}

// Validate checks the config for errors
func (c Config) Validate() error {
	if c.ExpediteLimit < 0 {
		return fmt.Errorf("%w: expedite_limit must not be negative, got %d", ErrInvalidConfig, c.ExpediteLimit)
	}
	if c.TickRate <= 0 {
		return fmt.Errorf("%w: tick_rate must be positive, got %s", ErrInvalidConfig, c.TickRate)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json", "":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// ParseConfig decodes a "yaml" or "toml" document on top of DefaultConfig
func ParseConfig(data []byte, format string) (Config, error) {
	cfg := DefaultConfig()

	switch strings.ToLower(format) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, errors.Join(ErrParsingConfig, err)
		}
	case "toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return Config{}, errors.Join(ErrParsingConfig, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("%w: unknown keys %v", ErrParsingConfig, undecoded)
		}
	default:
		return Config{}, fmt.Errorf("%w: unsupported format %q", ErrParsingConfig, format)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a config file, choosing the format by extension, and then
// applies TICKFSM_* environment overrides
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	cfg, err := ParseConfig(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg.applyEnv()
}

// LoadConfigFromEnv builds a config from TICKFSM_* environment variables.
// Named dotenv files are loaded first and must exist; with none given a
// ./.env file is loaded if present.
func LoadConfigFromEnv(files ...string) (Config, error) {
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return Config{}, errors.Join(ErrParsingConfig, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		// The default .env file is optional, but must be valid when present
		return Config{}, errors.Join(ErrParsingConfig, err)
	}

	return DefaultConfig().applyEnv()
}

func (c Config) applyEnv() (Config, error) {
	if err := env.Parse(&c); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// ParseLevel maps a level name onto a slog level
func ParseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, raw)
	}
}

// NewLogger builds a slog logger writing to w with the configured level and format
func (c Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(c.LogFormat) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.LogFormat)
	}
}

// WithConfig applies the expedite limit, debug and auto-activate settings
func WithConfig(cfg Config) Option {
	return func(m *Machine) {
		WithExpediteLimit(cfg.ExpediteLimit)(m)
		m.debug = cfg.Debug
		m.autoActivate = cfg.AutoActivate
	}
}
