package services

import (
	"fmt"
	"strings"
	"time"
)

// TraceEntry is one step of a promotion load.
type TraceEntry struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// Trace collects human-readable load steps for the diagnostic panel.
// It has no effect on behavior.
type Trace struct {
	now     func() time.Time
	entries []TraceEntry
}

// NewTrace creates an empty trace stamped by now. A nil now uses time.Now.
func NewTrace(now func() time.Time) *Trace {
	if now == nil {
		now = time.Now
	}
	return &Trace{now: now}
}

func (t *Trace) Add(message string) {
	if t == nil {
		return
	}
	t.entries = append(t.entries, TraceEntry{At: t.now(), Message: message})
}

func (t *Trace) Addf(format string, args ...any) {
	t.Add(fmt.Sprintf(format, args...))
}

// Entries returns a copy of the recorded steps.
func (t *Trace) Entries() []TraceEntry {
	if t == nil {
		return nil
	}
	return append([]TraceEntry(nil), t.entries...)
}

func (t *Trace) String() string {
	return FormatTrace(t.Entries())
}

// FormatTrace renders entries one per line.
func FormatTrace(entries []TraceEntry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.At.Format("15:04:05.000"))
		b.WriteString("  ")
		b.WriteString(e.Message)
	}
	return b.String()
}
