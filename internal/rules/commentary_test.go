package rules

import (
	"reflect"
	"testing"
	"time"

	"github.com/caeworks/dgtscan/internal/report"
)

func TestCommentaryDeregistrationsAreCumulative(t *testing.T) {
	e := NewEngine("", WithNow(testNow))
	v := &report.VehicleData{
		Deregistrations: []report.BajaRecord{
			{Start: d(2023, time.February, 10), End: d(2023, time.May, 12), Type: "TEMPORAL"},
			{Start: d(2024, time.January, 5), Type: "TEMPORAL"},
			// Before the cutoff, must not be reported.
			{Start: d(2021, time.June, 1), End: d(2021, time.September, 1), Type: "TEMPORAL"},
		},
	}

	res := e.applyCommentary(v, report.ProcessedResult{})

	want := []string{
		"vehicle deregistered from 10/02/2023 to 12/05/2023",
		"vehicle deregistered from 05/01/2024 to current",
	}
	if !reflect.DeepEqual(res.Commentary, want) {
		t.Errorf("commentary = %v, want %v", res.Commentary, want)
	}
}

func TestCommentaryOwnershipChangeReportsFirstMatchOnly(t *testing.T) {
	e := NewEngine("", WithNow(testNow))
	v := &report.VehicleData{
		Titleholders: []report.TitularRecord{
			{Start: d(2024, time.March, 3), Type: "Compraventa"},
			{Start: d(2023, time.June, 15), End: d(2024, time.March, 2), Type: "Compraventa"},
			{Start: d(2018, time.August, 9), End: d(2023, time.June, 14), Type: "Matriculación"},
		},
	}

	res := e.applyCommentary(v, report.ProcessedResult{})

	want := []string{"ownership changed on 03/03/2024"}
	if !reflect.DeepEqual(res.Commentary, want) {
		t.Errorf("commentary = %v, want %v", res.Commentary, want)
	}
}

func TestCommentaryOwnershipChangeBeforeCutoffIsSilent(t *testing.T) {
	e := NewEngine("", WithNow(testNow))
	v := &report.VehicleData{
		Titleholders: []report.TitularRecord{
			{Start: d(2018, time.August, 9), Type: "Matriculación"},
		},
	}

	res := e.applyCommentary(v, report.ProcessedResult{})
	if len(res.Commentary) != 0 {
		t.Errorf("commentary = %v, want none", res.Commentary)
	}
}

func TestCommentaryLeaseEvents(t *testing.T) {
	cases := []struct {
		name  string
		lease report.ArrendatarioRecord
		want  []string
	}{
		{
			"start and end after cutoff",
			report.ArrendatarioRecord{Start: d(2023, time.February, 10), End: d(2026, time.February, 10)},
			[]string{"lease started on 10/02/2023", "lease ended on 10/02/2026"},
		},
		{
			"open lease flagged active",
			report.ArrendatarioRecord{Start: d(2023, time.February, 10)},
			[]string{"lease started on 10/02/2023", CommentLeaseActive},
		},
		{
			"old open lease still active",
			report.ArrendatarioRecord{Start: d(2019, time.March, 1)},
			[]string{CommentLeaseActive},
		},
		{
			"closed before cutoff",
			report.ArrendatarioRecord{Start: d(2019, time.March, 1), End: d(2022, time.August, 8)},
			nil,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := NewEngine("", WithNow(testNow))
			v := &report.VehicleData{
				Leased:  true,
				Lessees: []report.ArrendatarioRecord{c.lease},
			}
			res := e.applyCommentary(v, report.ProcessedResult{})
			if !reflect.DeepEqual(res.Commentary, c.want) {
				t.Errorf("commentary = %v, want %v", res.Commentary, c.want)
			}
		})
	}
}

func TestCommentaryLeaseEventsRequireLeasedFlag(t *testing.T) {
	e := NewEngine("", WithNow(testNow))
	v := &report.VehicleData{
		Leased: false,
		Lessees: []report.ArrendatarioRecord{
			{Start: d(2023, time.February, 10)},
		},
	}

	res := e.applyCommentary(v, report.ProcessedResult{})
	if len(res.Commentary) != 0 {
		t.Errorf("commentary = %v, want none", res.Commentary)
	}
}

func TestCommentaryRespectsPolicyCutoffOverride(t *testing.T) {
	p := DefaultPolicy()
	p.ChangeCutoff = d(2020, time.January, 1)
	e := NewEngine("", WithPolicy(p), WithNow(testNow))

	v := &report.VehicleData{
		Titleholders: []report.TitularRecord{
			{Start: d(2021, time.May, 5), Type: "Compraventa"},
		},
	}

	res := e.applyCommentary(v, report.ProcessedResult{})
	want := []string{"ownership changed on 05/05/2021"}
	if !reflect.DeepEqual(res.Commentary, want) {
		t.Errorf("commentary = %v, want %v", res.Commentary, want)
	}
}
