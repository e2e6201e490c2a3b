package parse

import (
	"context"
	"regexp"
	"strings"

	"github.com/looplab/fsm"

	"github.com/caeworks/dgtscan/internal/report"
)

// Line-classification states and events. A scanner is either waiting for a
// record header (idle) or has a record open that may still receive
// continuation lines (accumulating). A header while accumulating flushes the
// open record before opening the next one; end of section flushes the last.
const (
	stateIdle         = "idle"
	stateAccumulating = "accumulating"

	eventHeader       = "header"
	eventContinuation = "continuation"
	eventFlush        = "flush"
)

// recordGrammar describes how one record type appears in section text.
type recordGrammar struct {
	// header matches the line that opens a record; submatches become the
	// record's fields.
	header *regexp.Regexp
	// continuation matches sub-item lines belonging to the open record.
	// Nil when the record type has no continuation lines.
	continuation *regexp.Regexp
	// skip lists column-header markers; lines containing any of them are
	// ignored without touching the open record.
	skip []string
}

// rawRecord is one grouped record before typing: the header submatches, the
// remainder of the header line past the match, and any continuation lines.
type rawRecord struct {
	groups []string
	rest   string
	extras []string
}

// lineScanner walks the lines of a located section and groups them into raw
// records. The state machine is explicit so the boundary conditions (first
// line, last line, consecutive headers, trailing noise) stay testable.
type lineScanner struct {
	grammar recordGrammar
	machine *fsm.FSM
	open    *rawRecord
	out     []rawRecord
}

func newLineScanner(g recordGrammar) *lineScanner {
	s := &lineScanner{grammar: g}

	events := fsm.Events{
		{Name: eventHeader, Src: []string{stateIdle, stateAccumulating}, Dst: stateAccumulating},
		{Name: eventContinuation, Src: []string{stateAccumulating}, Dst: stateAccumulating},
		{Name: eventFlush, Src: []string{stateAccumulating}, Dst: stateIdle},
	}
	callbacks := fsm.Callbacks{
		"before_" + eventHeader: func(_ context.Context, e *fsm.Event) {
			s.emit()
			rec := e.Args[0].(rawRecord)
			s.open = &rec
		},
		eventContinuation: func(_ context.Context, e *fsm.Event) {
			s.open.extras = append(s.open.extras, e.Args[0].(string))
		},
		"before_" + eventFlush: func(_ context.Context, _ *fsm.Event) {
			s.emit()
		},
	}

	s.machine = fsm.NewFSM(stateIdle, events, callbacks)
	return s
}

// emit moves the open record, if any, to the output.
func (s *lineScanner) emit() {
	if s.open != nil {
		s.out = append(s.out, *s.open)
		s.open = nil
	}
}

// scan classifies every physical line of the section. Transitions are
// guarded by the current state, so the machine can never reject an event;
// anything unclassifiable is noise and leaves the state untouched.
func (s *lineScanner) scan(sectionText string) []rawRecord {
	ctx := context.Background()

	for _, line := range strings.Split(sectionText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || s.skipLine(line) {
			continue
		}

		if idx := s.grammar.header.FindStringSubmatchIndex(line); idx != nil {
			rec := rawRecord{rest: strings.TrimSpace(line[idx[1]:])}
			for g := 1; g*2 < len(idx); g++ {
				if idx[g*2] >= 0 {
					rec.groups = append(rec.groups, line[idx[g*2]:idx[g*2+1]])
				} else {
					rec.groups = append(rec.groups, "")
				}
			}
			_ = s.machine.Event(ctx, eventHeader, rec)
			continue
		}

		if s.machine.Is(stateAccumulating) && s.grammar.continuation != nil &&
			s.grammar.continuation.MatchString(line) {
			_ = s.machine.Event(ctx, eventContinuation, line)
		}
		// Anything else is wrapped text or table noise; ignore.
	}

	if s.machine.Is(stateAccumulating) {
		_ = s.machine.Event(ctx, eventFlush)
	}
	return s.out
}

// scanRecords is the one-shot entry point: group the section's lines into raw
// records under the given grammar.
func scanRecords(sectionText string, g recordGrammar) []rawRecord {
	return newLineScanner(g).scan(sectionText)
}

// Record header and continuation patterns, one grammar per history list.
// Headers are a fixed sequence of two dates (the second may be a placeholder
// dash run) followed by a classification token.
var (
	titularHeaderRE = regexp.MustCompile(`^(\d{2}/\d{2}/\d{4})\s+(\d{2}/\d{2}/\d{4}|-+)\s+([A-Za-zÁÉÍÓÚÑáéíóúñ]+)`)
	lesseeHeaderRE  = regexp.MustCompile(`^(\d{2}/\d{2}/\d{4})\s+(\d{2}/\d{2}/\d{4}|-+)\s+(.+)$`)
	itvHeaderRE     = regexp.MustCompile(`(?i)^(\d{2}/\d{2}/\d{4})\s+(\d{2}/\d{2}/\d{4})\s+(\S+)\s+(FAVORABLE(?:\s+CON)?|DESFAVORABLE|NEGATIVA)`)
	defectLineRE    = regexp.MustCompile(`(?i)^\d{2}\.\d{2}\s+(?:LEVE|GRAVE)`)
	bajaHeaderRE    = regexp.MustCompile(`^(\d{2}/\d{2}/\d{4})\s+(\d{2}/\d{2}/\d{4}|-+)\s+([A-Z]+)\s+(.+)$`)
)

var (
	titularGrammar = recordGrammar{header: titularHeaderRE}
	lesseeGrammar  = recordGrammar{header: lesseeHeaderRE}
	itvGrammar     = recordGrammar{
		header:       itvHeaderRE,
		continuation: defectLineRE,
		skip:         []string{"Fecha ITV", "Estación"},
	}
	bajaGrammar = recordGrammar{header: bajaHeaderRE}
)

func (s *lineScanner) skipLine(line string) bool {
	for _, marker := range s.grammar.skip {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

func parseTitulares(sectionText string) []report.TitularRecord {
	var out []report.TitularRecord
	for _, raw := range scanRecords(sectionText, titularGrammar) {
		out = append(out, report.TitularRecord{
			Start: parseDate(raw.groups[0]),
			End:   parseDate(raw.groups[1]),
			Type:  raw.groups[2],
		})
	}
	return out
}

func parseLessees(sectionText string) []report.ArrendatarioRecord {
	var out []report.ArrendatarioRecord
	for _, raw := range scanRecords(sectionText, lesseeGrammar) {
		out = append(out, report.ArrendatarioRecord{
			Start:  parseDate(raw.groups[0]),
			End:    parseDate(raw.groups[1]),
			Lessee: strings.TrimSpace(raw.groups[2]),
		})
	}
	return out
}

func parseInspections(sectionText string) []report.InspectionRecord {
	var out []report.InspectionRecord
	for _, raw := range scanRecords(sectionText, itvGrammar) {
		out = append(out, report.InspectionRecord{
			Date:     parseDate(raw.groups[0]),
			Expiry:   parseDate(raw.groups[1]),
			Station:  raw.groups[2],
			Outcome:  normalizeOutcome(raw.groups[3]),
			Odometer: firstQuantity(raw.rest),
			Defects:  raw.extras,
		})
	}
	return out
}

func parseBajas(sectionText string) []report.BajaRecord {
	var out []report.BajaRecord
	for _, raw := range scanRecords(sectionText, bajaGrammar) {
		out = append(out, report.BajaRecord{
			Start:  parseDate(raw.groups[0]),
			End:    parseDate(raw.groups[1]),
			Type:   raw.groups[2],
			Reason: strings.TrimSpace(raw.groups[3]),
		})
	}
	return out
}

// normalizeOutcome maps a matched outcome token to its canonical label:
// uppercase with internal whitespace collapsed to a single underscore, so
// "Favorable con" becomes FAVORABLE_CON.
func normalizeOutcome(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(s)), "_")
}
