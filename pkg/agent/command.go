package agent

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/grovetools/agentwatch/errors"
)

// Input modes for CommandConfig.Input.
const (
	InputStdin = "stdin"
	InputArg   = "arg"
)

// CommandConfig describes the process started for every task.
type CommandConfig struct {
	Name  string
	Args  []string
	Input string
	Dir   string
	Env   map[string]string
}

// Command runs an external program per task. Lines the program prints on
// stdout that decode as an Entry become transcript appends; every other
// stdout line and all of stderr go to the log stream.
type Command struct {
	Hooks

	cfg   CommandConfig
	log   io.Writer
	logMu sync.Mutex
}

// NewCommand creates a command agent writing its log lines to log.
func NewCommand(cfg CommandConfig, log io.Writer) *Command {
	if cfg.Name == "" {
		cfg.Name = "agent"
	}
	if cfg.Input == "" {
		cfg.Input = InputStdin
	}
	if log == nil {
		log = io.Discard
	}
	return &Command{cfg: cfg, log: log}
}

// Name returns the configured display name.
func (c *Command) Name() string {
	return c.cfg.Name
}

// Run starts the program, feeds it input and waits for it to exit.
func (c *Command) Run(ctx context.Context, input string) error {
	if len(c.cfg.Args) == 0 {
		return errors.InvalidInput("no command configured")
	}

	args := append([]string(nil), c.cfg.Args[1:]...)
	if c.cfg.Input == InputArg {
		args = append(args, input)
	}

	cmd := exec.CommandContext(ctx, c.cfg.Args[0], args...)
	cmd.Dir = c.cfg.Dir
	cmd.Env = os.Environ()
	for k, v := range c.cfg.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}
	if c.cfg.Input == InputStdin {
		cmd.Stdin = strings.NewReader(input)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.AgentFailed(err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return errors.AgentFailed(err)
	}

	if err := cmd.Start(); err != nil {
		return errors.CommandFailed(strings.Join(c.cfg.Args, " "), err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.scan(stdout, true)
	}()
	go func() {
		defer wg.Done()
		c.scan(stderr, false)
	}()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		return errors.AgentExited(strings.Join(c.cfg.Args, " "), err)
	}
	return nil
}

func (c *Command) scan(r io.Reader, transcriptLines bool) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if transcriptLines {
			if entry, ok := decodeEntry(line); ok {
				c.Append(entry.Role, entry.Content, entry.Extras)
				continue
			}
		}
		c.writeLog(line)
	}
}

func (c *Command) writeLog(line string) {
	c.logMu.Lock()
	defer c.logMu.Unlock()
	_, _ = io.WriteString(c.log, line+"\n")
}

// decodeEntry accepts a JSON object with a non-empty role and a content field.
func decodeEntry(line string) (Entry, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return Entry{}, false
	}
	var raw struct {
		Role    Role                   `json:"role"`
		Content *string                `json:"content"`
		Extras  map[string]interface{} `json:"extras"`
	}
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return Entry{}, false
	}
	if raw.Role == "" || raw.Content == nil {
		return Entry{}, false
	}
	return Entry{Role: raw.Role, Content: *raw.Content, Extras: raw.Extras}, true
}
