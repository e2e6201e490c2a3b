// Package observe provides the optional observability hook for the extraction
// and rule pipeline.
//
// The core never logs on its own: it reports checkpoints (section found or
// missing, record counts, rule outcomes) to an EventSink. The default sink
// discards everything, the zap-backed sink turns checkpoints into structured
// log lines, and the collecting sink records them for tests.
package observe

import (
	"fmt"

	"go.uber.org/zap"
)

// EventSink receives pipeline checkpoints. Implementations must not assume
// any call ordering beyond "per document, in processing order"; documents are
// processed independently.
type EventSink interface {
	// SectionLocated fires once per named section lookup. length is the size
	// of the located slice, 0 when not found.
	SectionLocated(name string, found bool, length int)

	// RecordsParsed fires after a section's lines were grouped into records.
	RecordsParsed(section string, count int)

	// RuleOutcome fires when a rule stage reaches a decision for a vehicle.
	RuleOutcome(plate, rule string, pass bool, detail string)
}

// NopSink discards every event. It is the default sink.
type NopSink struct{}

func (NopSink) SectionLocated(string, bool, int)         {}
func (NopSink) RecordsParsed(string, int)                {}
func (NopSink) RuleOutcome(string, string, bool, string) {}

// LogSink forwards events to a zap logger as debug-level structured lines.
type LogSink struct {
	Log *zap.Logger
}

// NewLogSink wraps log in a LogSink. A nil logger yields a no-op sink.
func NewLogSink(log *zap.Logger) EventSink {
	if log == nil {
		return NopSink{}
	}
	return &LogSink{Log: log}
}

func (s *LogSink) SectionLocated(name string, found bool, length int) {
	s.Log.Debug("section located",
		zap.String("section", name),
		zap.Bool("found", found),
		zap.Int("length", length),
	)
}

func (s *LogSink) RecordsParsed(section string, count int) {
	s.Log.Debug("records parsed",
		zap.String("section", section),
		zap.Int("count", count),
	)
}

func (s *LogSink) RuleOutcome(plate, rule string, pass bool, detail string) {
	s.Log.Debug("rule outcome",
		zap.String("plate", plate),
		zap.String("rule", rule),
		zap.Bool("pass", pass),
		zap.String("detail", detail),
	)
}

// CollectSink records events as formatted strings. Test helper; not safe for
// concurrent use.
type CollectSink struct {
	Events []string
}

func (s *CollectSink) SectionLocated(name string, found bool, length int) {
	s.Events = append(s.Events, fmt.Sprintf("section %s found=%t length=%d", name, found, length))
}

func (s *CollectSink) RecordsParsed(section string, count int) {
	s.Events = append(s.Events, fmt.Sprintf("records %s count=%d", section, count))
}

func (s *CollectSink) RuleOutcome(plate, rule string, pass bool, detail string) {
	s.Events = append(s.Events, fmt.Sprintf("rule %s plate=%s pass=%t detail=%s", rule, plate, pass, detail))
}
