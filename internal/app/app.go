// Package app wires configuration, logging and storage into the reminder
// service shared by the plant-care commands.
package app

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"

	"github.com/notexe/plant-care/internal/config"
	"github.com/notexe/plant-care/internal/logging"
	"github.com/notexe/plant-care/internal/notify"
	"github.com/notexe/plant-care/internal/reminder"
	"github.com/notexe/plant-care/internal/storage"
)

type App struct {
	Config    *config.Config
	Logger    *logging.Logger
	DB        *sql.DB
	Registrar *notify.SQLRegistrar
	Service   *reminder.Service
	// Now returns the current time in the configured zone.
	Now func() time.Time
}

// Options tweak how the application is assembled.
type Options struct {
	ConfigPath string
	// EnvFile is loaded before the configuration; a missing file is fine.
	EnvFile string
	// Quiet discards logs, for commands whose stderr must stay clean.
	Quiet bool
}

// Open loads the environment and configuration, then opens the database and
// builds the reminder service.
func Open(opts Options) (*App, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", opts.EnvFile, err)
		}
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	now := func() time.Time { return time.Now().In(loc) }

	logger := logging.Nop()
	if !opts.Quiet {
		if logger, err = logging.New(cfg.Log); err != nil {
			return nil, err
		}
	}

	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		logger.Errorw("Failed to open database", "path", cfg.Database.Path, "error", err)
		_ = logger.Sync()
		return nil, err
	}

	registrar := notify.NewSQLRegistrar(db, notify.WithClock(now))
	service := reminder.NewService(
		reminder.NewStore(db),
		registrar,
		logger,
		reminder.WithClock(now),
		reminder.WithDefaultTime(cfg.Schedule.DefaultTime),
	)

	logger.Debugw("Application opened", "db", cfg.Database.Path, "timezone", loc.String())

	return &App{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Registrar: registrar,
		Service:   service,
		Now:       now,
	}, nil
}

// Sender returns the Telegram sender when it is configured and a logging
// sender otherwise.
func (a *App) Sender() notify.Sender {
	tg := a.Config.Scheduler.Telegram
	if tg.Enabled() {
		return notify.NewTelegramSender(tg.BotToken, tg.ChatID, tg.BaseURL)
	}
	a.Logger.Warn("Telegram is not configured, fired alerts are only logged")
	return notify.NewLogSender(a.Logger)
}

func (a *App) Close() error {
	_ = a.Logger.Sync()
	return a.DB.Close()
}
