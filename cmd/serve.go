package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/grovetools/agentwatch/cli"
	"github.com/grovetools/agentwatch/config"
	"github.com/grovetools/agentwatch/internal/daemon/bus"
	"github.com/grovetools/agentwatch/internal/daemon/collector"
	"github.com/grovetools/agentwatch/internal/daemon/engine"
	"github.com/grovetools/agentwatch/internal/daemon/logstream"
	"github.com/grovetools/agentwatch/internal/daemon/pidfile"
	"github.com/grovetools/agentwatch/internal/daemon/server"
	"github.com/grovetools/agentwatch/internal/daemon/store"
	"github.com/grovetools/agentwatch/internal/daemon/taskgate"
	"github.com/grovetools/agentwatch/internal/daemon/watcher"
	"github.com/grovetools/agentwatch/internal/daemon/workspace"
	"github.com/grovetools/agentwatch/logging"
	"github.com/grovetools/agentwatch/pkg/agent"
	"github.com/grovetools/agentwatch/pkg/paths"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

type serveFlags struct {
	addr         string
	workspace    string
	agentCommand string
	logFile      string
}

// NewServeCmd returns the command that runs the broadcaster in the foreground.
func NewServeCmd() *cobra.Command {
	var flags serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the agent and broadcast its session to observers",
		Long: `Run the agent behind a single-task gate and serve the live session over
HTTP, WebSocket (/ws) and Server-Sent Events (/api/stream).

Examples:
  # Use the built-in echo agent on the default address
  agentwatch serve

  # Run a program for every task, passing the message as its last argument
  agentwatch serve --agent-command "python agent.py" --workspace ./site`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			if err := flags.apply(cfg); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", "", "Listen address (host:port)")
	cmd.Flags().StringVar(&flags.workspace, "workspace", "", "Workspace root directory")
	cmd.Flags().StringVar(&flags.agentCommand, "agent-command", "", "Program started for every task")
	cmd.Flags().StringVar(&flags.logFile, "log-file", "", "Agent log file to follow")
	return cmd
}

// apply overrides configuration values with the flags that were set.
func (f serveFlags) apply(cfg *config.Config) error {
	if f.addr != "" {
		cfg.Server.Addr = f.addr
	}
	if f.workspace != "" {
		abs, err := filepath.Abs(f.workspace)
		if err != nil {
			return err
		}
		cfg.Workspace.Root = abs
	}
	if f.agentCommand != "" {
		cfg.Agent.Kind = config.AgentKindCommand
		cfg.Agent.Command = strings.Fields(f.agentCommand)
	}
	if f.logFile != "" {
		cfg.Agent.LogFile = f.logFile
	}
	return cfg.Validate()
}

func runServe(ctx context.Context, cfg *config.Config) error {
	var logCfg logging.Config
	if err := cfg.UnmarshalExtension("logging", &logCfg); err != nil {
		return err
	}
	logging.SetConfig(logCfg)
	logger := logging.NewLogger("agentwatch")

	// 1. Acquire Lock
	pidPath := paths.PidFilePath()
	if err := pidfile.Acquire(pidPath); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer func() {
		if err := pidfile.Release(pidPath); err != nil {
			logger.Errorf("Failed to release pidfile: %v", err)
		}
	}()

	// 2. Shared state, bus and the engine that orders every event
	st := store.New(cfg.History.MaxMessages)
	b := bus.New(cfg.Server.EventBuffer, logging.NewLogger("bus"))
	eng := engine.New(b, logging.NewLogger("engine"))
	pub := eng.Publisher()

	ws, err := workspace.New(cfg.Workspace.Root, st.Active, pub, cfg.Workspace.Ignore, logging.NewLogger("workspace"))
	if err != nil {
		return err
	}
	if err := ws.EnsureRoot(); err != nil {
		return err
	}

	// 3. Agent, its log stream and the gate in front of it
	agentLog := logstream.NewRouter(st.Session, pub, logstream.WithLogger(logging.NewLogger("logstream")))
	defer agentLog.Close()

	a, err := newAgent(cfg, ws.Root(), agentLog)
	if err != nil {
		return err
	}
	gateOpts := []taskgate.Option{
		taskgate.WithFiles(ws),
		taskgate.WithFlusher(agentLog),
		taskgate.WithLogger(logging.NewLogger("taskgate")),
	}

	// 4. Register collectors
	eng.Register(collector.NewWorkspaceCollector(ws, st.Active,
		watcher.WithDebounce(cfg.Workspace.Debounce()),
		watcher.WithMoveWindow(cfg.Workspace.MoveWindow()),
		watcher.WithLogger(logging.NewLogger("watcher")),
	))
	if cfg.Agent.LogFile != "" {
		tailLog := logstream.NewRouter(st.Session, pub, logstream.WithLogger(logging.NewLogger("logtail")))
		defer tailLog.Close()
		eng.Register(collector.NewLogTailCollector(cfg.Agent.LogFile, tailLog, false, logging.NewLogger("logtail")))
		gateOpts = append(gateOpts, taskgate.WithFlusher(tailLog))
	}
	gate := taskgate.New(a, st, pub, gateOpts...)

	// 5. Setup Server
	srv := server.New(st, b, ws, gate, logging.NewLogger("server"))
	srv.SetPublisher(pub)
	srv.SetAllowedOrigins(cfg.Server.AllowedOrigins)

	listener, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Addr, err)
	}
	addr := listener.Addr().String()
	srv.SetRunningConfig(&server.RunningConfig{
		Addr:          addr,
		WorkspaceRoot: ws.Root(),
		AgentKind:     cfg.Agent.Kind,
		AgentName:     a.Name(),
		LogFile:       cfg.Agent.LogFile,
		DebounceMs:    cfg.Workspace.DebounceMs,
		MoveWindowMs:  cfg.Workspace.MoveWindowMs,
		ConfigFile:    cfg.Source(),
		StartedAt:     time.Now(),
	})
	if err := writeAddrFile(addr); err != nil {
		logger.WithError(err).Warn("Failed to record server address")
	}
	defer os.Remove(paths.AddrFilePath())

	// 6. Handle Signals
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 7. Start engine and gate worker in background
	go eng.Start(ctx)
	go gate.Run(ctx)

	// 8. Serve until stopped
	logger.WithField("pid", os.Getpid()).WithField("workspace", ws.Root()).Info("Starting agentwatch")
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(listener) }()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
		logger.Info("Received stop signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown error: %v", err)
	}
	return <-serveErr
}

func newAgent(cfg *config.Config, root string, log *logstream.Router) (agent.Agent, error) {
	switch cfg.Agent.Kind {
	case config.AgentKindCommand:
		return agent.NewCommand(agent.CommandConfig{
			Name:  cfg.Agent.Name,
			Args:  cfg.Agent.Command,
			Input: cfg.Agent.Input,
			Dir:   root,
			Env:   cfg.Agent.Env,
		}, log), nil
	case config.AgentKindEcho:
		return agent.NewEcho(cfg.Agent.Name, log), nil
	default:
		return nil, fmt.Errorf("unknown agent kind %q", cfg.Agent.Kind)
	}
}

// writeAddrFile records a dialable form of addr for the client commands.
func writeAddrFile(addr string) error {
	path := paths.AddrFilePath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(dialAddr(addr)), 0644)
}

// dialAddr turns a wildcard listen address into one a local client can dial.
func dialAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
