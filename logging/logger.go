package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/grovetools/agentwatch/config"
	"github.com/grovetools/agentwatch/pkg/paths"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex

	// installed is the logging section handed over by the serve command.
	// When nil, NewLogger looks for a config file itself.
	installed *Config
)

// SetConfig installs the logging configuration used by loggers created from
// now on. Loggers that already exist keep their settings.
func SetConfig(cfg Config) {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	installed = &cfg
}

// NewLogger returns the logger for a component, creating it on first use.
// Every later call with the same component returns the same entry.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if entry, ok := loggers[component]; ok {
		return entry
	}

	logCfg := currentConfig()
	logger := logrus.New()
	logger.SetLevel(levelFor(logCfg))
	logger.SetReportCaller(os.Getenv("AGENTWATCH_LOG_CALLER") == "true" || logCfg.ReportCaller)
	logger.SetFormatter(formatterFor(logCfg.Format))
	logger.SetOutput(outputFor(logger, component, logCfg))

	entry := logger.WithField("component", component)
	loggers[component] = entry
	return entry
}

// levelFor resolves the level: AGENTWATCH_LOG_LEVEL, then config, then info.
func levelFor(logCfg Config) logrus.Level {
	name := logCfg.Level
	if env := os.Getenv("AGENTWATCH_LOG_LEVEL"); env != "" {
		name = env
	}
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func formatterFor(format FormatConfig) logrus.Formatter {
	switch format.Preset {
	case "json":
		return &logrus.JSONFormatter{}
	case "simple":
		return &TextFormatter{Config: FormatConfig{DisableTimestamp: true, DisableComponent: true}}
	default:
		return &TextFormatter{Config: format}
	}
}

// outputFor combines the optional file sink with stderr. The default file
// location is in the state directory, outside any watched workspace.
func outputFor(logger *logrus.Logger, component string, logCfg Config) io.Writer {
	var writers []io.Writer

	if logCfg.File.Enabled {
		path := expandPath(logCfg.File.Path)
		if path == "" {
			path = filepath.Join(paths.LogDir(), fmt.Sprintf("%s-%s.log", component, time.Now().Format("2006-01-02")))
		}
		if file, err := openLogFile(path); err != nil {
			logger.SetOutput(os.Stderr)
			logger.Warnf("Failed to open log file %s: %v", path, err)
		} else {
			writers = append(writers, file)
		}
	}

	var toStderr bool
	switch logCfg.Format.StructuredToStderr {
	case "always":
		toStderr = true
	case "never":
		toStderr = false
	default:
		// auto: stderr unless a file sink already captures an interactive session
		interactive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
		toStderr = logger.GetLevel() >= logrus.DebugLevel || !interactive || len(writers) == 0
	}
	if toStderr {
		writers = append(writers, os.Stderr)
	}

	switch len(writers) {
	case 0:
		return io.Discard
	case 1:
		return writers[0]
	default:
		return io.MultiWriter(writers...)
	}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

// currentConfig returns the installed config, falling back to the logging
// section of the nearest config file. Callers hold loggersMu.
func currentConfig() Config {
	if installed != nil {
		return *installed
	}
	var logCfg Config
	cfg, err := config.LoadDefault()
	if err != nil {
		return logCfg
	}
	if err := cfg.UnmarshalExtension("logging", &logCfg); err != nil {
		logrus.Warnf("Failed to parse 'logging' config: %v", err)
	}
	return logCfg
}

// expandPath expands tilde in file paths
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
