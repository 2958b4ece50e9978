// Package logging builds the logrus logger used by CSM clients from a
// config.Logging value.
//
// When a log path is configured, output goes to a lumberjack rotating file
// kept for 30 days and gzip-compressed on rotation. Otherwise it goes to
// stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/vitalvas/imcsm/config"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = logrus.DebugLevel

// Rotation settings for file output.
const (
	maxSizeMB  = 100
	maxAgeDays = 30
)

// New creates a logger for cfg. The returned closer releases the log file
// and must be called when the logger is no longer used; it is a no-op for
// stderr output.
func New(cfg config.Logging) (*logrus.Logger, io.Closer, error) {
	level := DefaultLevel

	if s := strings.TrimSpace(cfg.Level); s != "" {
		parsed, err := logrus.ParseLevel(s)
		if err != nil {
			return nil, nil, fmt.Errorf("logging: %w", err)
		}

		level = parsed
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if cfg.Path == "" {
		logger.SetOutput(os.Stderr)
		return logger, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("logging: create log directory: %w", err)
	}

	file := &lumberjack.Logger{
		Filename: cfg.Path,
		MaxSize:  maxSizeMB,
		MaxAge:   maxAgeDays,
		Compress: true,
	}

	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(file)

	return logger, file, nil
}

// Discard returns a logger that drops everything. It is the default logger
// of csm clients.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.PanicLevel)

	return logger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
