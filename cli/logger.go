package cli

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// LoggerOption configures a command logger.
type LoggerOption func(*logrus.Logger)

func WithOutput(w io.Writer) LoggerOption {
	return func(l *logrus.Logger) { l.SetOutput(w) }
}

func WithLevel(level logrus.Level) LoggerOption {
	return func(l *logrus.Logger) { l.SetLevel(level) }
}

func WithFormatter(formatter logrus.Formatter) LoggerOption {
	return func(l *logrus.Logger) { l.SetFormatter(formatter) }
}

// NewLogger returns a logger writing to stderr, so diagnostics never mix
// with command output on stdout.
func NewLogger(opts ...LoggerOption) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	for _, opt := range opts {
		opt(logger)
	}
	return logger
}
