package rules

import (
	"time"

	"github.com/caeworks/dgtscan/internal/report"
)

// checkEligibility decides whether the vehicle's ownership or lease chain
// justifies further processing. With no client filter configured every
// vehicle passes. A rejection appends the fixed ineligibility message and
// ends the pipeline.
func (e *Engine) checkEligibility(v *report.VehicleData, res report.ProcessedResult) (report.ProcessedResult, bool) {
	if e.checkTitularity(v) {
		e.sink.RuleOutcome(v.Plate, "eligibility", true, "titleholder match")
		return res, true
	}
	if e.checkRenting(v) {
		e.sink.RuleOutcome(v.Plate, "eligibility", true, "lessee match")
		return res, true
	}

	e.sink.RuleOutcome(v.Plate, "eligibility", false, "no titleholder or lessee match")
	res.Commentary = append(res.Commentary, CommentNotEligible)
	return res, false
}

// checkTitularity passes when the current titleholder matches the client;
// vacuously true without a client filter.
func (e *Engine) checkTitularity(v *report.VehicleData) bool {
	if e.Client == "" {
		return true
	}
	return Matches(v.Titleholder, e.Client)
}

// checkRenting is consulted only after titularity failed. The vehicle passes
// when it is under lease and either the current lessee matches the client, or
// a historical lease matching the client exceeds the policy's month
// threshold. Open leases (no end date) are measured to the evaluation time.
func (e *Engine) checkRenting(v *report.VehicleData) bool {
	if e.Client == "" {
		return v.Leased
	}
	if !v.Leased {
		return false
	}

	if v.CurrentLessee != "" && Matches(v.CurrentLessee, e.Client) {
		return true
	}

	for _, lease := range v.Lessees {
		if !Matches(lease.Lessee, e.Client) {
			continue
		}
		if lease.Start.IsZero() {
			continue
		}

		end := lease.End
		if end.IsZero() {
			end = e.Now()
		}
		if e.leaseMonths(lease.Start, end) > e.policy().LeaseMinMonths {
			return true
		}
	}
	return false
}

// leaseMonths converts a lease span to months using the policy's
// days-per-month constant. Whole elapsed days only, like the source data.
func (e *Engine) leaseMonths(start, end time.Time) float64 {
	days := int(end.Sub(start).Hours() / 24)
	return float64(days) / e.policy().DaysPerMonth
}

// policy returns the engine's constants with zero-value fields defaulted, so
// a partially filled Policy override cannot zero out a threshold.
func (e *Engine) policy() Policy {
	p := e.Policy
	def := DefaultPolicy()
	if p.LeaseMinMonths == 0 {
		p.LeaseMinMonths = def.LeaseMinMonths
	}
	if p.DaysPerMonth == 0 {
		p.DaysPerMonth = def.DaysPerMonth
	}
	if p.ChangeCutoff.IsZero() {
		p.ChangeCutoff = def.ChangeCutoff
	}
	return p
}
