package ui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"
)

// logHook mirrors log entries into the log view.
type logHook struct {
	view  *widget.Entry
	level logrus.Level
}

func newLogHook(view *widget.Entry, level logrus.Level) *logHook {
	return &logHook{view: view, level: level}
}

func (h *logHook) Levels() []logrus.Level {
	return logrus.AllLevels[:h.level+1]
}

func (h *logHook) Fire(e *logrus.Entry) error {
	appendLine(h.view, e.Time, formatEntry(e))
	return nil
}

// formatEntry renders the message followed by its fields in key order, with
// the level in front of anything louder than info.
func formatEntry(e *logrus.Entry) string {
	var b strings.Builder
	if e.Level < logrus.InfoLevel {
		b.WriteString(strings.ToUpper(e.Level.String()))
		b.WriteString(": ")
	}
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Data[k])
	}
	return b.String()
}

func formatLine(ts time.Time, msg string) string {
	return fmt.Sprintf("[%s] %s\n", ts.Format("15:04:05"), msg)
}
