// Package config loads bot settings from the environment, optionally
// preloaded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/abhisek/tutorbot/internal/level"
)

// Config holds the bot's runtime settings. LLM provider settings live in
// llm.Config.
type Config struct {
	// BotToken is the Telegram bot token.
	BotToken string

	// DBPath overrides the default database location when set.
	DBPath string

	// Admins may insert, delete and list questions.
	Admins map[int64]bool

	// PointDeltas are the points won or lost per daily task.
	PointDeltas level.Deltas

	// DefaultIntervalHours is the task interval given to new users.
	DefaultIntervalHours int

	// SweepInterval is the period of the daily-task sweep.
	SweepInterval time.Duration

	// SendDelay throttles consecutive task deliveries within a sweep.
	SendDelay time.Duration

	// GradeTimeout bounds each grading call, retries included.
	GradeTimeout time.Duration

	// LogMode is "dev" or "prod".
	LogMode string

	// MetricsAddr is the listen address for /metrics. Empty disables it.
	MetricsAddr string
}

// Default returns a Config with the stock settings.
func Default() Config {
	return Config{
		Admins:               map[int64]bool{},
		PointDeltas:          level.DefaultDeltas(),
		DefaultIntervalHours: 24,
		SweepInterval:        time.Minute,
		SendDelay:            500 * time.Millisecond,
		GradeTimeout:         20 * time.Second,
		LogMode:              "dev",
	}
}

// LoadEnvFile loads variables from path into the process environment without
// overriding ones already set. A missing file is not an error unless
// required is true.
func LoadEnvFile(path string, required bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !required && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

// FromEnv builds a Config from TUTORBOT_* variables, falling back to
// defaults for unset values.
func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	cfg.BotToken = get("TUTORBOT_BOT_TOKEN")
	cfg.DBPath = get("TUTORBOT_DB")
	cfg.MetricsAddr = get("TUTORBOT_METRICS_ADDR")
	if v := get("TUTORBOT_LOG_MODE"); v != "" {
		cfg.LogMode = v
	}

	if v := get("TUTORBOT_ADMINS"); v != "" {
		admins, err := ParseAdmins(v)
		if err != nil {
			return Config{}, err
		}
		cfg.Admins = admins
	}

	if v := get("TUTORBOT_POINT_DELTAS"); v != "" {
		deltas, err := level.ParseDeltas(v)
		if err != nil {
			return Config{}, fmt.Errorf("TUTORBOT_POINT_DELTAS: %w", err)
		}
		for l, d := range deltas {
			cfg.PointDeltas[l] = d
		}
	}

	if v := get("TUTORBOT_DEFAULT_INTERVAL_HOURS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("TUTORBOT_DEFAULT_INTERVAL_HOURS: want a positive integer, got %q", v)
		}
		cfg.DefaultIntervalHours = n
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"TUTORBOT_SWEEP_INTERVAL", &cfg.SweepInterval},
		{"TUTORBOT_SEND_DELAY", &cfg.SendDelay},
		{"TUTORBOT_GRADE_TIMEOUT", &cfg.GradeTimeout},
	}
	for _, d := range durations {
		v := get(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil || parsed < 0 {
			return Config{}, fmt.Errorf("%s: invalid duration %q", d.key, v)
		}
		*d.dst = parsed
	}
	if cfg.SweepInterval <= 0 {
		return Config{}, fmt.Errorf("TUTORBOT_SWEEP_INTERVAL must be positive")
	}

	return cfg, nil
}

// ParseAdmins parses a comma-separated list of user ids.
func ParseAdmins(s string) (map[int64]bool, error) {
	out := map[int64]bool{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TUTORBOT_ADMINS: invalid user id %q", part)
		}
		out[id] = true
	}
	return out, nil
}

// Validate checks settings required to run the Telegram bot.
func (c Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("TUTORBOT_BOT_TOKEN is required")
	}
	return nil
}
