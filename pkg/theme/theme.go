// Package theme holds the colors and styles agentwatch uses for terminal
// output: styled help, error messages and the watch command's event feed.
package theme

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const defaultThemeName = "kanagawa"

// Kanagawa palette, dark and light variants.
const (
	kanagawaDarkGreen   = "#98BB6C"
	kanagawaDarkYellow  = "#FF9E3B"
	kanagawaDarkRed     = "#FF5D62"
	kanagawaDarkOrange  = "#FFA066"
	kanagawaDarkCyan    = "#7E9CD8"
	kanagawaDarkBlue    = "#7FB4CA"
	kanagawaDarkViolet  = "#957FB8"
	kanagawaDarkMuted   = "#727169"
	kanagawaDarkBorder  = "#363646"
	kanagawaLightGreen  = "#4E7C5A"
	kanagawaLightYellow = "#A68A64"
	kanagawaLightRed    = "#C34043"
	kanagawaLightOrange = "#CC6B4E"
	kanagawaLightCyan   = "#5B8BBE"
	kanagawaLightBlue   = "#4F7CAC"
	kanagawaLightViolet = "#674D7A"
	kanagawaLightMuted  = "#6C7086"
	kanagawaLightBorder = "#B5BDC5"
)

// Colors is the palette a theme is built from.
type Colors struct {
	Green  lipgloss.TerminalColor
	Yellow lipgloss.TerminalColor
	Red    lipgloss.TerminalColor
	Orange lipgloss.TerminalColor
	Cyan   lipgloss.TerminalColor
	Blue   lipgloss.TerminalColor
	Violet lipgloss.TerminalColor
	Muted  lipgloss.TerminalColor
	Border lipgloss.TerminalColor
}

// Theme holds the pre-configured styles.
type Theme struct {
	Name   string
	Colors Colors

	Header  lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Bold    lipgloss.Style
	Italic  lipgloss.Style
	Muted   lipgloss.Style
	Accent  lipgloss.Style
	Box     lipgloss.Style

	// Chat senders in the watch feed.
	User      lipgloss.Style
	Assistant lipgloss.Style
	System    lipgloss.Style
}

var themeRegistry = map[string]func() Colors{
	"kanagawa": newKanagawaColors,
	"terminal": newTerminalColors,
}

// DefaultTheme is chosen from AGENTWATCH_THEME when the process starts.
var DefaultTheme = New(os.Getenv("AGENTWATCH_THEME"))

// New builds the named theme. Unknown names fall back to the default palette.
func New(name string) *Theme {
	key := normalizeThemeName(name)
	build, ok := themeRegistry[key]
	if !ok {
		key = defaultThemeName
		build = themeRegistry[key]
	}
	colors := build()

	return &Theme{
		Name:   key,
		Colors: colors,

		Header:  lipgloss.NewStyle().Bold(true).Foreground(colors.Orange),
		Success: lipgloss.NewStyle().Foreground(colors.Green).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(colors.Red).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(colors.Yellow).Bold(true),
		Info:    lipgloss.NewStyle().Foreground(colors.Cyan).Bold(true),
		Bold:    lipgloss.NewStyle().Bold(true),
		Italic:  lipgloss.NewStyle().Italic(true),
		Muted:   lipgloss.NewStyle().Faint(true),
		Accent:  lipgloss.NewStyle().Foreground(colors.Violet).Bold(true),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Border).
			Padding(0, 1),

		User:      lipgloss.NewStyle().Foreground(colors.Blue).Bold(true),
		Assistant: lipgloss.NewStyle().Foreground(colors.Green).Bold(true),
		System:    lipgloss.NewStyle().Foreground(colors.Yellow).Bold(true),
	}
}

func normalizeThemeName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, " ", "-")
	return strings.ReplaceAll(normalized, "_", "-")
}

func newKanagawaColors() Colors {
	return Colors{
		Green:  lipgloss.AdaptiveColor{Light: kanagawaLightGreen, Dark: kanagawaDarkGreen},
		Yellow: lipgloss.AdaptiveColor{Light: kanagawaLightYellow, Dark: kanagawaDarkYellow},
		Red:    lipgloss.AdaptiveColor{Light: kanagawaLightRed, Dark: kanagawaDarkRed},
		Orange: lipgloss.AdaptiveColor{Light: kanagawaLightOrange, Dark: kanagawaDarkOrange},
		Cyan:   lipgloss.AdaptiveColor{Light: kanagawaLightCyan, Dark: kanagawaDarkCyan},
		Blue:   lipgloss.AdaptiveColor{Light: kanagawaLightBlue, Dark: kanagawaDarkBlue},
		Violet: lipgloss.AdaptiveColor{Light: kanagawaLightViolet, Dark: kanagawaDarkViolet},
		Muted:  lipgloss.AdaptiveColor{Light: kanagawaLightMuted, Dark: kanagawaDarkMuted},
		Border: lipgloss.AdaptiveColor{Light: kanagawaLightBorder, Dark: kanagawaDarkBorder},
	}
}

// newTerminalColors uses the terminal's own ANSI palette.
func newTerminalColors() Colors {
	return Colors{
		Green:  lipgloss.Color("2"),
		Yellow: lipgloss.Color("3"),
		Red:    lipgloss.Color("1"),
		Orange: lipgloss.Color("208"),
		Cyan:   lipgloss.Color("6"),
		Blue:   lipgloss.Color("4"),
		Violet: lipgloss.Color("5"),
		Muted:  lipgloss.Color("8"),
		Border: lipgloss.Color("8"),
	}
}
