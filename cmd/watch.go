package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/grovetools/agentwatch/cli"
	"github.com/grovetools/agentwatch/pkg/models"
	"github.com/grovetools/agentwatch/pkg/theme"
	"github.com/spf13/cobra"
)

// NewWatchCmd returns the command that follows a running session in the terminal.
func NewWatchCmd() *cobra.Command {
	var (
		addr    string
		noColor bool
		raw     bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the live agent session",
		Long: `Connect to the running server as an observer and print every event:
chat messages, the agent's thoughts and tool calls, file updates and
workspace changes. The chat history is printed first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			theme.InitColor(noColor)
			target, err := resolveAddr(addr)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := &eventPrinter{
				out:   cmd.OutOrStdout(),
				theme: theme.DefaultTheme,
				width: cli.TerminalWidth(),
				raw:   raw || cli.GetOptions(cmd).JSONOutput,
			}
			return watch(ctx, target, w)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Server address (host:port); defaults to the running server")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the raw event envelopes")
	return cmd
}

func watch(ctx context.Context, addr string, p *eventPrinter) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, "ws://"+addr+"/ws", nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	if err := conn.WriteJSON(models.ClientFrame{Event: models.FrameGetMessageHistory}); err != nil {
		return err
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)
		}
		if p.raw {
			fmt.Fprintln(p.out, string(data))
			continue
		}
		ev, err := models.DecodeEvent(data)
		if err != nil {
			fmt.Fprintln(p.out, p.theme.Muted.Render("? " + string(data)))
			continue
		}
		p.Print(ev)
	}
}

// eventPrinter renders observer events as terminal lines.
type eventPrinter struct {
	out   io.Writer
	theme *theme.Theme
	width int
	raw   bool
}

func (p *eventPrinter) Print(ev models.Event) {
	if line := p.render(ev); line != "" {
		fmt.Fprintln(p.out, line)
	}
}

func (p *eventPrinter) render(ev models.Event) string {
	t := p.theme
	switch payload := ev.Payload.(type) {
	case models.ChatMessage:
		return p.message(payload)
	case []models.ChatMessage:
		if len(payload) == 0 {
			return t.Muted.Render("(no messages yet)")
		}
		lines := make([]string, 0, len(payload))
		for _, msg := range payload {
			lines = append(lines, p.message(msg))
		}
		return strings.Join(lines, "\n")
	case models.ContentPayload:
		switch ev.Type {
		case models.EventAgentThoughts:
			return t.Accent.Render("✨ thoughts") + " " + p.indent(payload.Content)
		case models.EventToolArgs:
			return t.Info.Render("🛠 args") + " " + p.clip(payload.Content)
		case models.EventTokenUsage:
			return t.Muted.Render("tokens " + payload.Content)
		default:
			return t.Muted.Render("… " + p.clip(payload.Content))
		}
	case models.ActivatingToolPayload:
		return t.Info.Render("🔧 " + payload.ToolName)
	case models.ToolResultPayload:
		return t.Success.Render("🎯 " + payload.ToolName) + " " + p.clip(payload.Result)
	case models.FileUpdatePayload:
		return t.Warning.Render("✎ " + payload.Path) + t.Muted.Render(fmt.Sprintf(" (%d bytes)", len(payload.Content)))
	case models.WorkspaceChangePayload:
		change := string(payload.Type) + " " + payload.Path
		if payload.DestPath != "" {
			change += " → " + payload.DestPath
		}
		if payload.IsDirectory {
			change += "/"
		}
		return t.Muted.Render("fs " + change)
	case models.TaskCompletePayload:
		return t.Success.Render("✓ " + payload.Message)
	default:
		return t.Muted.Render(string(ev.Type))
	}
}

func (p *eventPrinter) message(msg models.ChatMessage) string {
	style := p.theme.System
	switch msg.Sender {
	case models.SenderUser:
		style = p.theme.User
	case models.SenderAssistant:
		style = p.theme.Assistant
	}
	return style.Render(string(msg.Sender) + ">") + " " + p.indent(msg.Content)
}

// clip shortens single-line bodies to the terminal width.
func (p *eventPrinter) clip(s string) string {
	runes := []rune(strings.ReplaceAll(s, "\n", " "))
	if p.width > 1 && len(runes) > p.width {
		return string(runes[:p.width-1]) + "…"
	}
	return string(runes)
}

// indent keeps continuation lines of multi-line bodies aligned.
func (p *eventPrinter) indent(s string) string {
	return strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n    ")
}
