package rules

import (
	"reflect"
	"testing"
	"time"

	"github.com/caeworks/dgtscan/internal/report"
)

func metricsOnly(t *testing.T, inspections []report.InspectionRecord) report.ProcessedResult {
	t.Helper()
	e := NewEngine("", WithNow(testNow))
	return e.computeMetrics(&report.VehicleData{Plate: "9952 HPL", Inspections: inspections}, report.ProcessedResult{})
}

func TestMetricsProjectionOverLeapYear(t *testing.T) {
	res := metricsOnly(t, []report.InspectionRecord{
		{Date: d(2024, time.March, 1), Outcome: report.OutcomeFavorable, Odometer: 110000},
		{Date: d(2023, time.March, 1), Outcome: report.OutcomeFavorable, Odometer: 100000},
	})

	if res.ElapsedDays != 366 || res.DeltaKm != 10000 {
		t.Fatalf("days/delta = %d/%d", res.ElapsedDays, res.DeltaKm)
	}
	// 10000 * 365 / 366, integer division.
	if res.AnnualKm != 9972 {
		t.Errorf("annual projection = %d, want 9972", res.AnnualKm)
	}
	if len(res.Commentary) != 0 {
		t.Errorf("commentary = %v, want none", res.Commentary)
	}
}

func TestMetricsPicksTwoMostRecentReadings(t *testing.T) {
	// Out of document order on purpose; the failed inspection in between must
	// not interrupt the pair.
	res := metricsOnly(t, []report.InspectionRecord{
		{Date: d(2022, time.March, 1), Outcome: report.OutcomeFavorable, Odometer: 64210},
		{Date: d(2024, time.March, 1), Outcome: report.OutcomeFavorable, Odometer: 128456},
		{Date: d(2023, time.June, 15), Outcome: report.OutcomeDesfavorable, Odometer: 99999},
		{Date: d(2023, time.March, 1), Outcome: report.OutcomeFavorableCon, Odometer: 96210},
	})

	if res.LastKm != 128456 || res.PenultimateKm != 96210 {
		t.Errorf("pair = %d/%d, want 128456/96210", res.LastKm, res.PenultimateKm)
	}
	if res.ElapsedDays != 366 {
		t.Errorf("elapsed days = %d, want 366", res.ElapsedDays)
	}
	if res.DeltaKm != 32246 {
		t.Errorf("delta = %d, want 32246", res.DeltaKm)
	}
	if res.AnnualKm != 32157 {
		t.Errorf("annual projection = %d, want 32157", res.AnnualKm)
	}
}

func TestMetricsNoInspections(t *testing.T) {
	res := metricsOnly(t, nil)
	if !reflect.DeepEqual(res.Commentary, []string{CommentNoInspections}) {
		t.Errorf("commentary = %v", res.Commentary)
	}
}

func TestMetricsNoValidInspections(t *testing.T) {
	res := metricsOnly(t, []report.InspectionRecord{
		{Date: d(2023, time.March, 1), Outcome: report.OutcomeDesfavorable, Odometer: 96210},
		{Date: d(2022, time.March, 1), Outcome: report.OutcomeNegativa, Odometer: 64210},
	})
	if !reflect.DeepEqual(res.Commentary, []string{CommentNoValid}) {
		t.Errorf("commentary = %v", res.Commentary)
	}
}

func TestMetricsValidWithoutReadings(t *testing.T) {
	res := metricsOnly(t, []report.InspectionRecord{
		{Date: d(2024, time.March, 1), Outcome: report.OutcomeFavorable},
		{Date: d(2023, time.March, 1), Outcome: report.OutcomeFavorable},
	})
	if !reflect.DeepEqual(res.Commentary, []string{CommentNoReadings}) {
		t.Errorf("commentary = %v", res.Commentary)
	}
	// The most recent valid date is still reported.
	if !res.LastDate.Equal(d(2024, time.March, 1)) {
		t.Errorf("last date = %v", res.LastDate)
	}
}

func TestMetricsSingleConsistentReading(t *testing.T) {
	res := metricsOnly(t, []report.InspectionRecord{
		{Date: d(2024, time.March, 1), Outcome: report.OutcomeFavorable, Odometer: 128456},
	})

	if !reflect.DeepEqual(res.Commentary, []string{CommentSingleReading}) {
		t.Errorf("commentary = %v", res.Commentary)
	}
	if !res.LastDate.Equal(d(2024, time.March, 1)) || res.LastKm != 128456 {
		t.Errorf("last = %v/%d", res.LastDate, res.LastKm)
	}
	if res.PenultimateKm != 0 || !res.PenultimateDate.IsZero() {
		t.Error("penultimate fields must stay absent")
	}
}

func TestMetricsSingleReadingAmongOthers(t *testing.T) {
	// Two valid inspections but only one carries a reading: the history is
	// inconsistent rather than short, so the vehicle is rejected.
	res := metricsOnly(t, []report.InspectionRecord{
		{Date: d(2024, time.March, 1), Outcome: report.OutcomeFavorable, Odometer: 128456},
		{Date: d(2023, time.March, 1), Outcome: report.OutcomeFavorable},
	})
	if !reflect.DeepEqual(res.Commentary, []string{CommentNotEligible}) {
		t.Errorf("commentary = %v", res.Commentary)
	}
}

func TestMetricsDuplicatePairRejected(t *testing.T) {
	res := metricsOnly(t, []report.InspectionRecord{
		{Date: d(2024, time.March, 1), Outcome: report.OutcomeFavorable, Odometer: 128456},
		{Date: d(2024, time.March, 1), Outcome: report.OutcomeFavorable, Odometer: 128456},
	})
	if !reflect.DeepEqual(res.Commentary, []string{CommentNotEligible}) {
		t.Errorf("commentary = %v", res.Commentary)
	}
	if res.LastKm != 0 {
		t.Error("duplicate pair must not populate metrics")
	}
}

func TestMetricsOdometerReset(t *testing.T) {
	res := metricsOnly(t, []report.InspectionRecord{
		{Date: d(2024, time.March, 1), Outcome: report.OutcomeFavorable, Odometer: 5000},
		{Date: d(2023, time.March, 1), Outcome: report.OutcomeFavorable, Odometer: 128456},
	})

	if !reflect.DeepEqual(res.Commentary, []string{CommentOdometerReset}) {
		t.Errorf("commentary = %v", res.Commentary)
	}
	if res.DeltaKm != 0 || res.AnnualKm != 0 {
		t.Errorf("delta/annual = %d/%d, want 0/0", res.DeltaKm, res.AnnualKm)
	}
	// The selected pair is still reported.
	if res.LastKm != 5000 || res.PenultimateKm != 128456 {
		t.Errorf("pair = %d/%d", res.LastKm, res.PenultimateKm)
	}
}

func TestMetricsSameDayReadingsYieldNoProjection(t *testing.T) {
	res := metricsOnly(t, []report.InspectionRecord{
		{Date: d(2024, time.March, 1), Outcome: report.OutcomeFavorable, Odometer: 128456},
		{Date: d(2024, time.March, 1), Outcome: report.OutcomeFavorable, Odometer: 96210},
	})

	if res.ElapsedDays != 0 {
		t.Errorf("elapsed days = %d, want 0", res.ElapsedDays)
	}
	if res.DeltaKm != 32246 {
		t.Errorf("delta = %d", res.DeltaKm)
	}
	if res.AnnualKm != 0 {
		t.Errorf("annual projection = %d, want 0", res.AnnualKm)
	}
	if !reflect.DeepEqual(res.Commentary, []string{CommentNonPositiveDays}) {
		t.Errorf("commentary = %v", res.Commentary)
	}
}

func TestMetricsUnknownOutcomeExcluded(t *testing.T) {
	res := metricsOnly(t, []report.InspectionRecord{
		{Date: d(2024, time.March, 1), Outcome: "PENDIENTE", Odometer: 128456},
		{Date: d(2023, time.March, 1), Outcome: report.OutcomeFavorable, Odometer: 96210},
	})

	// The unknown label stays in history but cannot feed the computation, so
	// only one usable reading remains.
	if !reflect.DeepEqual(res.Commentary, []string{CommentSingleReading}) {
		t.Errorf("commentary = %v", res.Commentary)
	}
	if res.LastKm != 96210 {
		t.Errorf("last km = %d, want 96210", res.LastKm)
	}
}
