// Package rules evaluates the fixed DGT processing rules against extracted
// vehicle data: client eligibility over the ownership/lease chain, regulatory
// event commentary, and mileage metrics from the inspection history.
//
// Every stop condition (ineligible vehicle, no usable inspections, duplicate
// records, odometer reset) is a terminal, expected outcome reported through
// the result's commentary list — never an error.
package rules

import "strings"

// Normalize prepares a name for comparison: uppercase with internal
// whitespace collapsed to single spaces.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(s)), " ")
}

// Matches is the fuzzy containment test used for client filtering. After
// normalizing both strings it succeeds when either contains the other, or
// when the same containment holds with all spaces removed — scanned text
// splits words inconsistently ("IN MEDIATO" vs "INMEDIATO"). The definition
// is symmetric: Matches(a, b) == Matches(b, a).
func Matches(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}

	ca := strings.ReplaceAll(na, " ", "")
	cb := strings.ReplaceAll(nb, " ", "")
	return strings.Contains(ca, cb) || strings.Contains(cb, ca)
}
