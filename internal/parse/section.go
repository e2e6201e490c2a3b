// Package parse extracts structured vehicle data from the flattened text of a
// DGT "Informe del Vehículo" report.
//
// The input is one pre-extracted text blob per document; page-text extraction
// from the PDF container happens upstream. There is no schema to rely on:
// every field has its own anchor pattern with an explicit stop condition, every
// history section is located between an anchor phrase and the nearest
// terminator, and repeating tabular lines are grouped into records by a small
// line-classification state machine. Absence is always a normal outcome —
// nothing in this package returns an error for a missing field, section or
// malformed row.
package parse

import (
	"regexp"
	"strings"
)

// sectionDef names one history section: its start anchor and the phrases that
// end it. Document end is the ultimate terminator.
type sectionDef struct {
	name        string
	anchor      *regexp.Regexp
	terminators []*regexp.Regexp
}

// section builds a sectionDef from literal anchor phrases, matched
// case-insensitively.
func section(name, anchor string, terminators ...string) sectionDef {
	def := sectionDef{name: name, anchor: anchorRE(anchor)}
	for _, t := range terminators {
		def.terminators = append(def.terminators, anchorRE(t))
	}
	return def
}

// anchorRE compiles a case-insensitive literal matcher for an anchor phrase.
func anchorRE(phrase string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + regexp.QuoteMeta(phrase))
}

// locate returns the text strictly between the first match of def.anchor and
// the nearest terminator found after it. The second return is false when the
// anchor never matches.
func locate(text string, def sectionDef) (string, bool) {
	loc := def.anchor.FindStringIndex(text)
	if loc == nil {
		return "", false
	}

	rest := text[loc[1]:]
	end := len(rest)
	for _, term := range def.terminators {
		if idx := term.FindStringIndex(rest); idx != nil && idx[0] < end {
			end = idx[0]
		}
	}
	return strings.TrimSpace(rest[:end]), true
}
