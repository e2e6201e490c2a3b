package rules

import (
	"sort"

	"github.com/caeworks/dgtscan/internal/report"
)

// computeMetrics selects the two most relevant inspections and derives the
// day/kilometer deltas and the annualized projection. A linear pipeline with
// early exits; every exit leaves a message behind and the remaining metrics
// at zero.
func (e *Engine) computeMetrics(v *report.VehicleData, res report.ProcessedResult) report.ProcessedResult {
	if len(v.Inspections) == 0 {
		res.Commentary = append(res.Commentary, CommentNoInspections)
		e.sink.RuleOutcome(v.Plate, "metrics", false, CommentNoInspections)
		return res
	}

	// Local copy, most recent first; an absent date sorts last.
	sorted := make([]report.InspectionRecord, len(v.Inspections))
	copy(sorted, v.Inspections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})

	// Valid set: drop failed inspections. Unknown labels are excluded too —
	// they stay in history but cannot feed the computation.
	var valid []report.InspectionRecord
	for _, itv := range sorted {
		switch itv.Outcome {
		case report.OutcomeFavorable, report.OutcomeFavorableCon:
			valid = append(valid, itv)
		}
	}

	var withReading []report.InspectionRecord
	for _, itv := range valid {
		if itv.Odometer > 0 {
			withReading = append(withReading, itv)
		}
	}

	if len(withReading) < 2 {
		switch {
		case len(withReading) == 1 && len(valid) == 1:
			// The whole usable history is one consistent reading: report it
			// alone, penultimate fields stay absent.
			res.LastDate = withReading[0].Date
			res.LastKm = withReading[0].Odometer
			res.Commentary = append(res.Commentary, CommentSingleReading)
		case len(withReading) == 1:
			res.Commentary = append(res.Commentary, CommentNotEligible)
		case len(valid) > 0:
			res.Commentary = append(res.Commentary, CommentNoReadings)
			res.LastDate = valid[0].Date
		default:
			res.Commentary = append(res.Commentary, CommentNoValid)
		}
		e.sink.RuleOutcome(v.Plate, "metrics", false, "insufficient odometer readings")
		return res
	}

	last, penultimate := withReading[0], withReading[1]

	// Identical date and reading means a duplicated entry, not a usable pair.
	if last.Date.Equal(penultimate.Date) && last.Odometer == penultimate.Odometer {
		res.Commentary = append(res.Commentary, CommentNotEligible)
		e.sink.RuleOutcome(v.Plate, "metrics", false, "duplicate inspection pair")
		return res
	}

	res.LastDate = last.Date
	res.LastKm = last.Odometer
	res.PenultimateDate = penultimate.Date
	res.PenultimateKm = penultimate.Odometer

	// May be negative when source ordering is inconsistent; deliberately not
	// clamped. The projection branch below refuses non-positive spans.
	days := int(last.Date.Sub(penultimate.Date).Hours() / 24)
	res.ElapsedDays = days

	if res.LastKm > 0 && res.PenultimateKm > 0 {
		if res.LastKm < res.PenultimateKm {
			res.Commentary = append(res.Commentary, CommentOdometerReset)
			res.DeltaKm = 0
			res.AnnualKm = 0
		} else {
			res.DeltaKm = res.LastKm - res.PenultimateKm
			if days > 0 {
				res.AnnualKm = res.DeltaKm * 365 / days
			} else {
				res.Commentary = append(res.Commentary, CommentNonPositiveDays)
			}
		}
	}

	e.sink.RuleOutcome(v.Plate, "metrics", true, "projection computed")
	return res
}
