package rules

import (
	"fmt"

	"github.com/caeworks/dgtscan/internal/report"
)

// applyCommentary derives the regulatory-event flags. It runs only after
// eligibility passed, and its outcome is independent of the metrics stage.
// Fixed order: deregistration windows first, then ownership change, then
// lease events.
func (e *Engine) applyCommentary(v *report.VehicleData, res report.ProcessedResult) report.ProcessedResult {
	res = e.appendDeregistrations(v, res)
	res = e.appendOwnershipChange(v, res)
	res = e.appendLeaseEvents(v, res)
	return res
}

// appendDeregistrations reports every deregistration window starting on or
// after the cutoff. Unlike the other flags this one is cumulative over all
// qualifying records.
func (e *Engine) appendDeregistrations(v *report.VehicleData, res report.ProcessedResult) report.ProcessedResult {
	cutoff := e.policy().ChangeCutoff
	for _, baja := range v.Deregistrations {
		if baja.Start.IsZero() || baja.Start.Before(cutoff) {
			continue
		}
		end := "current"
		if !baja.End.IsZero() {
			end = baja.End.Format(report.DateLayout)
		}
		res.Commentary = append(res.Commentary,
			fmt.Sprintf(commentDeregisteredFm, baja.Start.Format(report.DateLayout), end))
	}
	return res
}

// appendOwnershipChange reports at most one ownership change: the first
// titleholder record in document order whose start lies on or after the
// cutoff.
func (e *Engine) appendOwnershipChange(v *report.VehicleData, res report.ProcessedResult) report.ProcessedResult {
	cutoff := e.policy().ChangeCutoff
	for _, t := range v.Titleholders {
		if t.Start.IsZero() || t.Start.Before(cutoff) {
			continue
		}
		res.Commentary = append(res.Commentary,
			fmt.Sprintf(commentOwnershipChangeFm, t.Start.Format(report.DateLayout)))
		break
	}
	return res
}

// appendLeaseEvents inspects only the most recent lease record of a leased
// vehicle: start and end are reported when on/after the cutoff, and a lease
// with a start but no end is flagged as currently active.
func (e *Engine) appendLeaseEvents(v *report.VehicleData, res report.ProcessedResult) report.ProcessedResult {
	if !v.Leased || len(v.Lessees) == 0 {
		return res
	}
	cutoff := e.policy().ChangeCutoff
	lease := v.Lessees[0]

	if !lease.Start.IsZero() && !lease.Start.Before(cutoff) {
		res.Commentary = append(res.Commentary,
			fmt.Sprintf(commentLeaseStartFm, lease.Start.Format(report.DateLayout)))
	}
	if !lease.End.IsZero() && !lease.End.Before(cutoff) {
		res.Commentary = append(res.Commentary,
			fmt.Sprintf(commentLeaseEndFm, lease.End.Format(report.DateLayout)))
	}
	if !lease.Start.IsZero() && lease.End.IsZero() {
		res.Commentary = append(res.Commentary, CommentLeaseActive)
	}
	return res
}
