// Package logging builds the logrus loggers handed to each layer of stepscope.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Layer names attached to log entries as the "layer" field.
const (
	LayerDAP        = "dap"
	LayerSession    = "session"
	LayerController = "controller"
	LayerPanel      = "panel"
	LayerCLI        = "cli"
)

// Config selects level, format and destination.
type Config struct {
	// Level is a logrus level name ("debug", "info", "warn", ...).
	// Empty means "info".
	Level string

	// Format is "text" or "json". Empty means "text".
	Format string

	// Output defaults to os.Stderr.
	Output io.Writer
}

// New returns a logger configured from cfg.
func New(cfg Config) (*logrus.Logger, error) {
	logger := logrus.New()

	if cfg.Output != nil {
		logger.SetOutput(cfg.Output)
	} else {
		logger.SetOutput(os.Stderr)
	}

	level := logrus.InfoLevel
	if cfg.Level != "" {
		lvl, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		level = lvl
	}
	logger.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("log format %q: want text or json", cfg.Format)
	}

	return logger, nil
}

// For returns an entry tagged with the given layer.
func For(logger *logrus.Logger, layer string) *logrus.Entry {
	if logger == nil {
		return Discard().WithField("layer", layer)
	}
	return logger.WithFields(logrus.Fields{"layer": layer})
}

// Discard returns an entry whose output goes nowhere.
func Discard() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

// OrDiscard returns log, or a discarding entry when log is nil.
func OrDiscard(log *logrus.Entry) *logrus.Entry {
	if log == nil {
		return Discard()
	}
	return log
}
