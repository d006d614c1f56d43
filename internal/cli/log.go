// Package cli implements the qlogtree command-line interface.
//
// The root command turns a client-side qlog trace into a dependency tree
// timeline. Further commands expose the timing views of the same trace and
// manage the render cache:
//   - timeline: the root command's explicit form
//   - fetchtime: request waterfall (visualisation.html)
//   - ttc: time-to-completion bar chart (<scheme>.pdf)
//   - chunks: DATA chunk sequence (priority_visualisation.html)
//   - cache: clear or locate the render cache
//   - serve: HTTP API over the same pipeline
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Commands put
// the logger on their context with [log.WithContext]; helpers retrieve it
// with [log.FromContext].
package cli

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// newLogger creates a logger with "HH:MM:SS.ms" timestamps and short,
// colored level labels.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})

	styles := log.DefaultStyles()
	for lvl, color := range map[log.Level]lipgloss.Color{
		log.DebugLevel: faint,
		log.InfoLevel:  accent,
		log.WarnLevel:  warn,
		log.ErrorLevel: bad,
	} {
		styles.Levels[lvl] = lipgloss.NewStyle().
			SetString(strings.ToUpper(lvl.String())[:4]).
			Bold(true).
			Foreground(color)
	}
	l.SetStyles(styles)
	return l
}

// stopwatch logs how long an operation took once it is done.
type stopwatch struct {
	logger *log.Logger
	start  time.Time
}

func startStopwatch(l *log.Logger) stopwatch {
	return stopwatch{logger: l, start: time.Now()}
}

// donef logs the message followed by the elapsed time,
// e.g. "Rendered 12 snapshots (1.234s)".
func (s stopwatch) donef(format string, args ...any) {
	s.logger.Infof(format+" (%s)", append(args, time.Since(s.start).Round(time.Millisecond))...)
}
