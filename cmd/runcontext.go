package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/dotcommander/qtrend/internal/config"
	"github.com/dotcommander/qtrend/internal/outputters"
	"github.com/dotcommander/qtrend/internal/pipeline"
	"github.com/dotcommander/qtrend/internal/project"
	"github.com/dotcommander/qtrend/internal/quality"
)

// logOutput is where log lines go; tests replace it.
var logOutput io.Writer = os.Stderr

// runContext bundles what every command needs after configuration is loaded.
type runContext struct {
	cfg          *config.Config
	log          zerolog.Logger
	orchestrator *pipeline.Orchestrator
	out          *outputters.Outputter
}

func newRunContext(opts pipeline.Options) (*runContext, error) {
	dir, err := resolveConfigDir(configDir)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	if noSchemas {
		cfg.Schemas.Enabled = false
	}

	log, err := newLogger(cfg, logOutput)
	if err != nil {
		return nil, err
	}

	return &runContext{
		cfg:          cfg,
		log:          log,
		orchestrator: pipeline.NewOrchestrator(cfg, opts, log),
		out:          outputters.NewOutputter(cfg),
	}, nil
}

// resolveConfigDir returns dir, or the nearest directory above the working
// directory holding qtrend settings.
func resolveConfigDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	root, found, err := project.FindConfigDir(".")
	if err != nil {
		return "", fmt.Errorf("error locating configuration: %w", err)
	}
	if !found {
		return "", nil
	}
	return root, nil
}

// newLogger builds the process logger: human-readable on a console writer, or
// JSON lines when logFormat is json. Verbose mode forces debug.
func newLogger(cfg *config.Config, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid logLevel: %w", err)
	}
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}

	if cfg.LogFormat != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

// shouldFail reports whether a checkpoint status fails the run under failOn.
func shouldFail(status, failOn string) bool {
	switch status {
	case quality.StatusFail:
		return true
	case quality.StatusWarning:
		return failOn == "warning"
	default:
		return false
	}
}
