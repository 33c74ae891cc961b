package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

// resetLoggers clears the component cache and installed config.
func resetLoggers(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		loggersMu.Lock()
		loggers = make(map[string]*logrus.Entry)
		installed = nil
		loggersMu.Unlock()
	})
}

func TestNewLogger(t *testing.T) {
	resetLoggers(t)
	SetConfig(Config{})

	logger := NewLogger("test-component")
	if logger == nil {
		t.Fatal("Expected logger to be created")
	}

	if logger.Data["component"] != "test-component" {
		t.Errorf("Expected component to be 'test-component', got %v", logger.Data["component"])
	}

	if NewLogger("test-component") != logger {
		t.Error("Expected the same entry for the same component")
	}
}

func TestLoggerOutput(t *testing.T) {
	var buf bytes.Buffer

	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&TextFormatter{Config: FormatConfig{DisableTimestamp: true}})

	logger.WithFields(logrus.Fields{"component": "server", "observer": 3}).Info("Observer connected")

	out := buf.String()
	for _, want := range []string{"[INFO]", "[server]", "Observer connected", "observer=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
	if strings.Contains(out, "component=") {
		t.Errorf("component should only appear as a prefix: %q", out)
	}
}

func TestTextFormatter(t *testing.T) {
	caller := logrus.New()
	caller.SetReportCaller(true)

	tests := []struct {
		name    string
		config  FormatConfig
		entry   *logrus.Entry
		want    []string
		notWant []string
	}{
		{
			name:   "fields after message",
			config: FormatConfig{},
			entry: &logrus.Entry{
				Level:   logrus.InfoLevel,
				Message: "Task accepted",
				Data:    logrus.Fields{"component": "taskgate", "task": "a1b2"},
			},
			want: []string{"[INFO]", "[taskgate]", "Task accepted", "task=a1b2"},
		},
		{
			name:   "component hidden",
			config: FormatConfig{DisableTimestamp: true, DisableComponent: true},
			entry: &logrus.Entry{
				Level:   logrus.WarnLevel,
				Message: "Dropped event for slow observer",
				Data:    logrus.Fields{"component": "bus"},
			},
			want:    []string{"[WARN]", "Dropped event for slow observer"},
			notWant: []string{"[bus]"},
		},
		{
			name:   "caller frame",
			config: FormatConfig{DisableTimestamp: true},
			entry: &logrus.Entry{
				Logger:  caller,
				Level:   logrus.ErrorLevel,
				Message: "Failed to refresh active file",
				Data:    logrus.Fields{"component": "watcher"},
				Caller: &runtime.Frame{
					File:     "/src/agentwatch/internal/daemon/watcher/watcher.go",
					Line:     118,
					Function: "github.com/grovetools/agentwatch/internal/daemon/watcher.(*Watcher).handle",
				},
			},
			want: []string{"[ERROR]", "[watcher]", "[watcher.go:118 watcher.(*Watcher).handle]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := &TextFormatter{Config: tt.config}
			out, err := formatter.Format(tt.entry)
			if err != nil {
				t.Fatalf("Format: %v", err)
			}
			got := string(out)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("missing %q in %q", want, got)
				}
			}
			for _, notWant := range tt.notWant {
				if strings.Contains(got, notWant) {
					t.Errorf("unexpected %q in %q", notWant, got)
				}
			}
		})
	}
}

func TestFormatterSortsFields(t *testing.T) {
	formatter := &TextFormatter{Config: FormatConfig{DisableTimestamp: true}}
	out, err := formatter.Format(&logrus.Entry{
		Level:   logrus.InfoLevel,
		Message: "m",
		Data:    logrus.Fields{"zeta": 1, "alpha": 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := string(out); !strings.Contains(got, "alpha=2 zeta=1") {
		t.Errorf("Expected sorted fields, got: %s", got)
	}
}

func TestEnvironmentVariables(t *testing.T) {
	resetLoggers(t)
	SetConfig(Config{})
	t.Setenv("AGENTWATCH_LOG_LEVEL", "debug")
	t.Setenv("AGENTWATCH_LOG_CALLER", "true")

	logger := NewLogger("env-test")

	if logger.Logger.Level != logrus.DebugLevel {
		t.Errorf("Expected debug level from env var, got %v", logger.Logger.Level)
	}
	if !logger.Logger.ReportCaller {
		t.Error("Expected caller reporting to be enabled from env var")
	}
}

func TestInstalledConfig(t *testing.T) {
	resetLoggers(t)
	logPath := filepath.Join(t.TempDir(), "logs", "agentwatch.log")
	SetConfig(Config{
		Level:  "warn",
		File:   FileSinkConfig{Enabled: true, Path: logPath},
		Format: FormatConfig{Preset: "json", StructuredToStderr: "never"},
	})

	logger := NewLogger("file-test")
	if logger.Logger.Level != logrus.WarnLevel {
		t.Errorf("Expected warn level from config, got %v", logger.Logger.Level)
	}
	if _, ok := logger.Logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("Expected JSON formatter, got %T", logger.Logger.Formatter)
	}

	logger.Warn("written to file")
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Expected log file to exist: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"written to file"`) {
		t.Errorf("Expected JSON line in log file, got: %s", data)
	}
}
