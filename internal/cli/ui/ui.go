// Package ui holds the smspool terminal styles, symbols and TTY detection.
package ui

import (
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// BrandEmoji prefixes version and banner output.
const BrandEmoji = "\U0001F4E8" // 📨

// ANSI 4-bit colors; lipgloss degrades them on limited terminals.
var (
	ColorCyan   = lipgloss.Color("6")
	ColorGreen  = lipgloss.Color("2")
	ColorYellow = lipgloss.Color("3")
	ColorRed    = lipgloss.Color("1")
)

var (
	StyleBoldRed  = lipgloss.NewStyle().Bold(true).Foreground(ColorRed)
	StyleSuccess  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleWarning  = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleError    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleHint     = lipgloss.NewStyle().Faint(true)
	StyleProvider = lipgloss.NewStyle().Bold(true).Foreground(ColorCyan)
)

const (
	SymbolCheck   = "✓"
	SymbolCross   = "✗"
	SymbolWarning = "⚠"
	SymbolArrow   = "→"
)

var (
	forcedRenderer     *lipgloss.Renderer
	forcedRendererOnce sync.Once
)

// ForcedRenderer returns a lipgloss renderer that always emits ANSI codes.
// Callers use it after deciding on color themselves.
func ForcedRenderer() *lipgloss.Renderer {
	forcedRendererOnce.Do(func() {
		forcedRenderer = lipgloss.NewRenderer(os.Stderr)
		forcedRenderer.SetColorProfile(termenv.ANSI)
	})
	return forcedRenderer
}

// ColorEnabled reports whether stderr is a color-capable TTY.
// Respects NO_COLOR (https://no-color.org/).
func ColorEnabled() bool {
	return ColorEnabledFd(os.Stderr.Fd())
}

// ColorEnabledFd reports whether fd is a color-capable TTY.
func ColorEnabledFd(fd uintptr) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
