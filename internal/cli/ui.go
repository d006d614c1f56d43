package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/qlogtree/pkg/pipeline"
)

// Terminal palette (ANSI 256).
var (
	accent = lipgloss.Color("36")
	good   = lipgloss.Color("35")
	warn   = lipgloss.Color("220")
	bad    = lipgloss.Color("167")
	bright = lipgloss.Color("255")
	muted  = lipgloss.Color("245")
	faint  = lipgloss.Color("240")
)

var (
	styleDim   = lipgloss.NewStyle().Foreground(faint)
	styleValue = lipgloss.NewStyle().Foreground(bright)
	styleKey   = lipgloss.NewStyle().Foreground(muted).Width(12)
	styleWarn  = lipgloss.NewStyle().Foreground(warn)
)

// kind selects the marker drawn in front of a status line.
type kind int

const (
	kindSuccess kind = iota
	kindError
	kindWarning
	kindInfo
	kindQuestion
	kindSpinner
)

var marks = map[kind]string{
	kindSuccess:  "✓",
	kindError:    "✗",
	kindWarning:  "!",
	kindInfo:     "›",
	kindQuestion: "?",
}

var theme = map[kind]lipgloss.Style{
	kindSuccess:  lipgloss.NewStyle().Foreground(good),
	kindError:    lipgloss.NewStyle().Foreground(bad),
	kindWarning:  lipgloss.NewStyle().Foreground(warn),
	kindInfo:     lipgloss.NewStyle().Foreground(muted),
	kindQuestion: lipgloss.NewStyle().Foreground(muted),
	kindSpinner:  lipgloss.NewStyle().Foreground(accent),
}

// out is where status lines go. Tests swap it for a buffer.
var out io.Writer = os.Stdout

// mark renders the marker for k.
func mark(k kind) string {
	return theme[k].Render(marks[k])
}

func status(k kind, text string) {
	fmt.Fprintln(out, mark(k)+" "+text)
}

func printSuccess(format string, args ...any) { status(kindSuccess, fmt.Sprintf(format, args...)) }
func printError(format string, args ...any)   { status(kindError, fmt.Sprintf(format, args...)) }
func printInfo(format string, args ...any)    { status(kindInfo, fmt.Sprintf(format, args...)) }

func printWarning(format string, args ...any) {
	status(kindWarning, styleWarn.Render(fmt.Sprintf(format, args...)))
}

// printDetail prints an indented, dimmed line under the previous status.
func printDetail(format string, args ...any) {
	fmt.Fprintln(out, "  "+styleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile lists a written output file.
func printFile(path string) {
	fmt.Fprintln(out, "  "+styleDim.Render("→")+" "+styleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(out, styleKey.Render(key)+" "+styleValue.Render(value))
}

// printStats summarizes a pipeline run on one dimmed line, with the cache
// outcome highlighted when anything was reused.
func printStats(s pipeline.Stats, c pipeline.CacheInfo) {
	fields := []string{
		styleDim.Render(fmt.Sprintf("%d events", s.EventCount)),
		styleDim.Render(fmt.Sprintf("%d snapshots", s.SnapshotCount)),
		styleDim.Render(fmt.Sprintf("%d streams", s.StreamCount)),
	}
	if c.Hits > 0 {
		fields = append(fields, theme[kindSuccess].Render(fmt.Sprintf("%d cached, %d rendered", c.Hits, c.Misses)))
	} else {
		fields = append(fields, theme[kindInfo].Render(fmt.Sprintf("%d rendered", c.Misses)))
	}
	fmt.Fprintln(out, "  "+strings.Join(fields, styleDim.Render(" · ")))
}
