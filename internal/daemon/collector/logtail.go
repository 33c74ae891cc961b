package collector

import (
	"context"
	"io"
	stdlog "log"

	"github.com/grovetools/agentwatch/pkg/models"
	"github.com/hpcloud/tail"
	"github.com/sirupsen/logrus"
)

// LineHandler consumes log lines.
type LineHandler interface {
	HandleLine(line string)
}

// LogTailCollector follows the agent's log file and hands every line to a
// handler, normally a logstream.Router publishing its own events.
type LogTailCollector struct {
	path      string
	handler   LineHandler
	fromStart bool
	logger    *logrus.Entry
}

// NewLogTailCollector creates a collector following path. Only lines
// written after it starts are read unless fromStart is set.
func NewLogTailCollector(path string, handler LineHandler, fromStart bool, logger *logrus.Entry) *LogTailCollector {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &LogTailCollector{path: path, handler: handler, fromStart: fromStart, logger: logger}
}

// Name returns the collector's name.
func (c *LogTailCollector) Name() string { return "logtail" }

// Run follows the file, reopening it when it is rotated or recreated.
func (c *LogTailCollector) Run(ctx context.Context, _ chan<- models.Event) error {
	whence := io.SeekEnd
	if c.fromStart {
		whence = io.SeekStart
	}
	config := tail.Config{
		Follow:   true,
		ReOpen:   true,
		Location: &tail.SeekInfo{Offset: 0, Whence: whence},
		Logger:   stdlog.New(io.Discard, "", 0),
	}

	t, err := tail.TailFile(c.path, config)
	if err != nil {
		return err
	}
	defer t.Cleanup()
	c.logger.WithField("path", c.path).Info("Following agent log")

	for {
		select {
		case <-ctx.Done():
			return t.Stop()
		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err != nil {
				c.logger.WithError(line.Err).Debug("Error reading agent log line")
				continue
			}
			c.handler.HandleLine(line.Text)
		}
	}
}
