package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ANSI 256 palette.
var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleCached      = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed    = lipgloss.NewStyle().Foreground(colorGray)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
)

// status is one kind of leading-icon line.
type status struct {
	icon string
	mark lipgloss.Style
	text *lipgloss.Style // nil leaves the message unstyled
}

var (
	statusSuccess = status{icon: "✓", mark: lipgloss.NewStyle().Foreground(colorGreen)}
	statusError   = status{icon: "✗", mark: lipgloss.NewStyle().Foreground(colorRed)}
	statusWarning = status{icon: "!", mark: lipgloss.NewStyle().Foreground(colorYellow), text: &StyleWarning}
	statusInfo    = status{icon: "›", mark: lipgloss.NewStyle().Foreground(colorGray)}
)

const iconArrow = "→"

// out is where status lines go. Tests swap it.
var out io.Writer = os.Stdout

// line renders msg behind the icon.
func (s status) line(msg string) string {
	if s.text != nil {
		msg = s.text.Render(msg)
	}
	return s.mark.Render(s.icon) + " " + msg
}

func (s status) print(format string, args ...any) {
	fmt.Fprintln(out, s.line(fmt.Sprintf(format, args...)))
}

func printSuccess(format string, args ...any) { statusSuccess.print(format, args...) }
func printError(format string, args ...any)   { statusError.print(format, args...) }
func printWarning(format string, args ...any) { statusWarning.print(format, args...) }
func printInfo(format string, args ...any)    { statusInfo.print(format, args...) }

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(out, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written output path.
func printFile(path string) {
	fmt.Fprintln(out, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(out, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// printStats prints one level's layout summary, e.g.
// "  12 domains · 30 distances · force · fresh".
func printStats(domains, distances int, strategy string, cached bool) {
	parts := []string{StyleDim.Render(pluralize(domains, "domain"))}
	if distances > 0 {
		parts = append(parts, StyleDim.Render(pluralize(distances, "distance")))
	}
	parts = append(parts, StyleDim.Render(strategy))
	if cached {
		parts = append(parts, styleCached.Render("cached"))
	} else {
		parts = append(parts, styleComputed.Render("fresh"))
	}
	fmt.Fprintln(out, "  "+strings.Join(parts, StyleDim.Render(" · ")))
}

// printStale warns that the store was unreachable and cached data is shown.
func printStale() {
	printWarning("Using cached data")
	printDetail("the domain store could not be reached; run again with --verbose for the cause")
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(out, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Fprintln(out)
}
