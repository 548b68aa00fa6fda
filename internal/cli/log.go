package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger writes leveled lines with a centisecond clock, e.g.
// "14:02:11.07 INFO Computed layout fetch=41ms".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// stageTimer splits a command into named stages and logs their durations
// once at the end. Not safe for concurrent use.
type stageTimer struct {
	logger *log.Logger
	start  time.Time
	last   time.Time
	kv     []any
}

func newStageTimer(l *log.Logger) *stageTimer {
	now := time.Now()
	return &stageTimer{logger: l, start: now, last: now}
}

// mark closes the running stage under name.
func (s *stageTimer) mark(name string) {
	now := time.Now()
	s.kv = append(s.kv, name, now.Sub(s.last).Round(time.Millisecond))
	s.last = now
}

func (s *stageTimer) total() time.Duration {
	return time.Since(s.start).Round(time.Millisecond)
}

// done logs msg at info level with every marked stage and the total.
func (s *stageTimer) done(msg string) {
	s.logger.Info(msg, append(s.kv, "total", s.total())...)
}
