// Package app wires the stores, device provider, and logger behind the CLI.
package app

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/yshui/entangle/internal/device"
	"github.com/yshui/entangle/internal/domain"
	"github.com/yshui/entangle/internal/store"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Home    string // state directory, e.g. $HOME/.entangle
	Verbose bool   // enable debug logging
}

// App bundles the dependencies every command needs.
type App struct {
	Home    string
	Store   domain.CredentialStore
	Devices domain.DeviceProvider
	Logger  *slog.Logger
}

// New constructs the dependency graph from cfg, creating the home
// directory if needed.
func New(cfg Config) (*App, error) {
	home := cfg.Home
	if home == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		home = filepath.Join(dir, ".entangle")
	}
	if err := os.MkdirAll(home, 0o700); err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return &App{
		Home:    home,
		Store:   store.NewFileStore(home),
		Devices: device.NewProvider(),
		Logger:  logger,
	}, nil
}
