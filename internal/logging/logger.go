// Package logging builds the logrus logger used by the clamdscan CLI.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the logger.
type Options struct {
	// Level is a logrus level name such as "info" or "debug".
	Level string
	// Format is "text" or "json".
	Format string
	// File, when set, receives log output instead of stderr and is rotated
	// once it reaches MaxSizeMB.
	File       string
	MaxSizeMB  int
	MaxBackups int
	// Stderr overrides the default destination; used by tests.
	Stderr io.Writer
}

// New returns a logger configured from opts, plus a close function that
// releases the log file, if any.
func New(opts Options) (*logrus.Logger, func() error, error) {
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}

	logger := logrus.New()
	logger.SetLevel(level)

	switch opts.Format {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	closer := func() error { return nil }
	switch {
	case opts.File != "":
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			Compress:   true,
		}
		logger.SetOutput(rotator)
		closer = rotator.Close
	case opts.Stderr != nil:
		logger.SetOutput(opts.Stderr)
	default:
		logger.SetOutput(os.Stderr)
	}

	return logger, closer, nil
}
