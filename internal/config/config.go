package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap/zapcore"

	"github.com/notexe/plant-care/internal/care"
)

// EnvPrefix prefixes every environment override. Nested keys are separated
// by a double underscore: PLANTCARE_SCHEDULER__INTERVAL=30.
const EnvPrefix = "PLANTCARE_"

type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Schedule  ScheduleConfig  `koanf:"schedule"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Log       LogConfig       `koanf:"log"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	UI        UIConfig        `koanf:"ui"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

type ScheduleConfig struct {
	DefaultTime string `koanf:"default_time"` // Preferred time given to reminders created without one
	Timezone    string `koanf:"timezone"`     // IANA name; empty uses the local zone
}

type SchedulerConfig struct {
	Interval int            `koanf:"interval"` // Seconds between dispatcher ticks
	Telegram TelegramConfig `koanf:"telegram"`
}

type TelegramConfig struct {
	BotToken string `koanf:"bot_token"`
	ChatID   string `koanf:"chat_id"`
	BaseURL  string `koanf:"base_url"`
}

// Enabled reports whether alerts should be delivered through Telegram.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // console or json
	File   string `koanf:"file"`   // empty logs to stderr
}

type MetricsConfig struct {
	Addr string `koanf:"addr"` // listen address for /metrics; empty disables
}

type UIConfig struct {
	ColoredOutput bool `koanf:"colored_output"`
}

func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		configPath = expandPath(configPath)

		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// Shortcuts shared with the Telegram tooling
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		k.Set("scheduler.telegram.bot_token", token)
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		k.Set("scheduler.telegram.chat_id", chatID)
	}
	if dbPath := os.Getenv("PLANTCARE_DB_PATH"); dbPath != "" {
		k.Set("database.path", dbPath)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Log.File = expandPath(cfg.Log.File)

	return &cfg, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive, got %d", c.Scheduler.Interval)
	}

	if _, err := care.ParseTimeOfDay(c.Schedule.DefaultTime); err != nil {
		return fmt.Errorf("schedule.default_time: %w", err)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format: %s (supported: console, json)", c.Log.Format)
	}

	if (c.Scheduler.Telegram.BotToken == "") != (c.Scheduler.Telegram.ChatID == "") {
		return fmt.Errorf("telegram needs both bot_token and chat_id (set TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID)")
	}

	return nil
}

// Location returns the time zone used for wall-clock alert times.
func (c *Config) Location() (*time.Location, error) {
	if c.Schedule.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule.timezone %q: %w", c.Schedule.Timezone, err)
	}
	return loc, nil
}

// Interval returns the dispatcher tick interval.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Scheduler.Interval) * time.Second
}

func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}

	return path
}
