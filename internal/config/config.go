package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
)

type Config struct {
	Environment string     `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    slog.Level // Parsed from LogLevelRaw
	LogLevelRaw string     `env:"LOG_LEVEL" envDefault:"info"`

	// Redis is optional; without it profiles live in memory only
	RedisURL string `env:"REDIS_URL"`

	DataDir   string    `env:"DIALOGUE_DATA_DIR" envDefault:"./data"`
	ProfileID uuid.UUID `env:"DIALOGUE_PROFILE_ID"`

	TextSpeed          float64       `env:"DIALOGUE_TEXT_SPEED" envDefault:"3"`
	CharsPerLine       int           `env:"DIALOGUE_CHARS_PER_LINE" envDefault:"49"`
	ChoicePopInDelay   time.Duration `env:"DIALOGUE_CHOICE_POP_IN_DELAY" envDefault:"50ms"`
	ChoiceDestroyDelay time.Duration `env:"DIALOGUE_CHOICE_DESTROY_DELAY" envDefault:"1s"`
	TickInterval       time.Duration `env:"DIALOGUE_TICK_INTERVAL" envDefault:"16ms"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelRaw)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.TextSpeed <= 0 {
		errs = append(errs, fmt.Errorf("DIALOGUE_TEXT_SPEED must be positive, got %v", c.TextSpeed))
	}
	if c.CharsPerLine < 0 {
		errs = append(errs, fmt.Errorf("DIALOGUE_CHARS_PER_LINE must not be negative, got %d", c.CharsPerLine))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("DIALOGUE_TICK_INTERVAL must be positive, got %v", c.TickInterval))
	}
	if c.ChoicePopInDelay < 0 || c.ChoiceDestroyDelay < 0 {
		errs = append(errs, errors.New("choice delays must not be negative"))
	}
	return errors.Join(errs...)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
