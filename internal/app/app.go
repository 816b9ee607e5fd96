package app

import (
	"io"
	"log/slog"

	"github.com/vk/sweepx/internal/config"
)

// Config holds the ambient settings shared by every subcommand.
type Config struct {
	LogLevel  string
	LogFormat string
}

// RunOptions select how one experiment is launched.
type RunOptions struct {
	ExpPath     string
	ConfigPath  string
	Farm        string
	Tag         string
	DryRun      bool
	Interactive bool
	PlainNames  bool
}

// SumOptions select how experiments are summarized.
type SumOptions struct {
	Experiments []string
	ConfigPath  string
	LogRoot     string
	SortKey     string
	Ascending   bool
	Ignore      []string
	CSVPath     string
}

// App encapsulates the application's dependencies and lifecycle.
type App struct {
	outW   io.Writer
	errW   io.Writer
	logger *slog.Logger
	loader config.Loader
}

// New constructs the application with an isolated logger writing to errW,
// keeping outW clean for command listings and tables.
func New(outW, errW io.Writer, cfg Config, loader config.Loader) *App {
	return &App{
		outW:   outW,
		errW:   errW,
		logger: newLogger(cfg.LogLevel, cfg.LogFormat, errW),
		loader: loader,
	}
}
