package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/mitchellh/mapstructure"
)

//go:generate sh -c "cd .. && go run ./tools/schema-generator/"

// Agent kinds.
const (
	AgentKindCommand = "command"
	AgentKindEcho    = "echo"
)

// Agent input modes for the command agent.
const (
	InputStdin = "stdin"
	InputArg   = "arg"
)

// Defaults applied by SetDefaults.
const (
	DefaultAddr         = "0.0.0.0:5001"
	DefaultWorkspace    = "workspace"
	DefaultDebounceMs   = 500
	DefaultMoveWindowMs = 100
	DefaultEventBuffer  = 256
	DefaultVersion      = "1.0"
)

// ServerConfig configures the HTTP/WebSocket surface observers connect to.
type ServerConfig struct {
	Addr           string   `yaml:"addr,omitempty" toml:"addr,omitempty" json:"addr,omitempty" jsonschema:"description=Listen address (host:port) for the HTTP and WebSocket server"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty" toml:"allowed_origins,omitempty" json:"allowed_origins,omitempty" jsonschema:"description=Origins allowed to open a WebSocket; empty allows all"`
	EventBuffer    int      `yaml:"event_buffer,omitempty" toml:"event_buffer,omitempty" json:"event_buffer,omitempty" jsonschema:"description=Per-observer event queue length,minimum=0"`
}

// WorkspaceConfig configures the directory the agent works in.
type WorkspaceConfig struct {
	Root         string   `yaml:"root,omitempty" toml:"root,omitempty" json:"root,omitempty" jsonschema:"description=Workspace root; relative paths resolve against the config file directory"`
	DebounceMs   int      `yaml:"debounce_ms,omitempty" toml:"debounce_ms,omitempty" json:"debounce_ms,omitempty" jsonschema:"description=Per-path window in which repeated filesystem notifications are discarded,minimum=0"`
	MoveWindowMs int      `yaml:"move_window_ms,omitempty" toml:"move_window_ms,omitempty" json:"move_window_ms,omitempty" jsonschema:"description=How long a rename waits for its matching create before it is reported as a delete,minimum=0"`
	Ignore       []string `yaml:"ignore,omitempty" toml:"ignore,omitempty" json:"ignore,omitempty" jsonschema:"description=Patterns (.dockerignore syntax) excluded from watching and listing"`
}

// AgentConfig selects and configures the agent that runs tasks.
type AgentConfig struct {
	Kind    string            `yaml:"kind,omitempty" toml:"kind,omitempty" json:"kind,omitempty" jsonschema:"description=Agent implementation,enum=command,enum=echo"`
	Name    string            `yaml:"name,omitempty" toml:"name,omitempty" json:"name,omitempty" jsonschema:"description=Display name used in log lines"`
	Command []string          `yaml:"command,omitempty" toml:"command,omitempty" json:"command,omitempty" jsonschema:"description=Program and arguments started for every task (command agent)"`
	Input   string            `yaml:"input,omitempty" toml:"input,omitempty" json:"input,omitempty" jsonschema:"description=How the task message reaches the program,enum=stdin,enum=arg"`
	LogFile string            `yaml:"log_file,omitempty" toml:"log_file,omitempty" json:"log_file,omitempty" jsonschema:"description=Agent log file to follow and classify"`
	Env     map[string]string `yaml:"env,omitempty" toml:"env,omitempty" json:"env,omitempty" jsonschema:"description=Extra environment variables for the agent process"`
}

// HistoryConfig bounds the shared chat history.
type HistoryConfig struct {
	MaxMessages int `yaml:"max_messages,omitempty" toml:"max_messages,omitempty" json:"max_messages,omitempty" jsonschema:"description=Maximum retained chat messages; 0 keeps everything,minimum=0"`
}

// Config is the root of agentwatch.yml.
type Config struct {
	Version   string          `yaml:"version" toml:"version" json:"version" jsonschema:"description=Configuration version (e.g. 1.0)"`
	Server    ServerConfig    `yaml:"server,omitempty" toml:"server,omitempty" json:"server,omitempty" jsonschema:"description=Observer-facing server settings"`
	Workspace WorkspaceConfig `yaml:"workspace,omitempty" toml:"workspace,omitempty" json:"workspace,omitempty" jsonschema:"description=Workspace directory settings"`
	Agent     AgentConfig     `yaml:"agent,omitempty" toml:"agent,omitempty" json:"agent,omitempty" jsonschema:"description=Agent settings"`
	History   HistoryConfig   `yaml:"history,omitempty" toml:"history,omitempty" json:"history,omitempty" jsonschema:"description=Chat history settings"`

	// Extensions captures all other top-level keys (e.g. logging).
	Extensions map[string]interface{} `yaml:",inline" toml:"-" json:"-" jsonschema:"-"`

	// source is the file the config was loaded from, if any.
	source string
}

// knownKeys are the top-level sections decoded into Config fields; every
// other key lands in Extensions.
var knownKeys = []string{"version", "server", "workspace", "agent", "history"}

// Source returns the path of the file the config was read from, or "".
func (c *Config) Source() string {
	return c.source
}

// SetDefaults fills unset fields. Relative workspace roots resolve against
// the directory of the config file (or baseDir when there is none).
func (c *Config) SetDefaults(baseDir string) {
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.EventBuffer == 0 {
		c.Server.EventBuffer = DefaultEventBuffer
	}
	if c.Workspace.Root == "" {
		c.Workspace.Root = DefaultWorkspace
	}
	if c.source != "" {
		baseDir = filepath.Dir(c.source)
	}
	if !filepath.IsAbs(c.Workspace.Root) && baseDir != "" {
		c.Workspace.Root = filepath.Join(baseDir, c.Workspace.Root)
	}
	c.Workspace.Root = filepath.Clean(c.Workspace.Root)
	if c.Workspace.DebounceMs == 0 {
		c.Workspace.DebounceMs = DefaultDebounceMs
	}
	if c.Workspace.MoveWindowMs == 0 {
		c.Workspace.MoveWindowMs = DefaultMoveWindowMs
	}
	if c.Agent.Kind == "" {
		if len(c.Agent.Command) > 0 {
			c.Agent.Kind = AgentKindCommand
		} else {
			c.Agent.Kind = AgentKindEcho
		}
	}
	if c.Agent.Name == "" {
		c.Agent.Name = "agent"
	}
	if c.Agent.Input == "" {
		c.Agent.Input = InputStdin
	}
}

// Debounce returns the watcher debounce interval.
func (w WorkspaceConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// MoveWindow returns how long a rename waits for its matching create.
func (w WorkspaceConfig) MoveWindow() time.Duration {
	return time.Duration(w.MoveWindowMs) * time.Millisecond
}

// UnmarshalExtension decodes a specific extension's configuration from the
// loaded agentwatch.yml into the provided target struct. The target must be a pointer.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// It's not an error if the key doesn't exist.
		return nil
	}

	decoder, err := newDecoder(target)
	if err != nil {
		return err
	}
	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}
	return nil
}

// newDecoder builds a mapstructure decoder keyed on `yaml` tags, so TOML
// documents and extension sections decode with the same field names as YAML.
func newDecoder(target interface{}) (*mapstructure.Decoder, error) {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}
	return decoder, nil
}
