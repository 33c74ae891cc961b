package theme

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// InitColor picks the lipgloss color profile. noColor, or NO_COLOR in the
// environment, turns styling off; CLICOLOR_FORCE=1 or COLORTERM=truecolor
// force full color even when stdout is not a terminal.
func InitColor(noColor bool) {
	switch {
	case noColor || os.Getenv("NO_COLOR") != "":
		lipgloss.SetColorProfile(termenv.Ascii)
	case os.Getenv("CLICOLOR_FORCE") == "1" || os.Getenv("COLORTERM") == "truecolor":
		lipgloss.SetColorProfile(termenv.TrueColor)
	}
}
