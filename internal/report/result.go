package report

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the literal day/month/year format used throughout the report.
const DateLayout = "02/01/2006"

// ProcessedResult is the immutable outcome of running the rule pipeline over
// one document. It is created empty, filled by the eligibility, commentary and
// metrics stages in that fixed order, then returned by value.
type ProcessedResult struct {
	Plate string `json:"plate"`

	PenultimateDate time.Time `json:"penultimate_date,omitempty"`
	PenultimateKm   int       `json:"penultimate_km"`
	LastDate        time.Time `json:"last_date,omitempty"`
	LastKm          int       `json:"last_km"`

	ElapsedDays int `json:"elapsed_days"`
	DeltaKm     int `json:"delta_km"`
	AnnualKm    int `json:"annual_km"`

	// Not derivable from this document type; always zero.
	InternationalKm int `json:"international_km"`
	DomesticKm      int `json:"domestic_km"`

	Commentary []string `json:"commentary,omitempty"`
}

// CSVHeader is the fixed output column order consumed by the CSV export.
var CSVHeader = []string{
	"Matrícula",
	"Fecha penúlti",
	"Lectura k",
	"Fecha últ",
	"Lectura k",
	"Días entre",
	"km ITVs",
	"km 1 año",
	"km int",
	"km nac",
	"Comentarios",
}

// Row renders the result in the fixed column order: dates as DD/MM/YYYY or a
// literal "-" when absent, integers as decimal when positive otherwise "0",
// commentary joined with "; ".
func (r ProcessedResult) Row() []string {
	return []string{
		r.Plate,
		FormatDate(r.PenultimateDate),
		FormatMetric(r.PenultimateKm),
		FormatDate(r.LastDate),
		FormatMetric(r.LastKm),
		FormatMetric(r.ElapsedDays),
		FormatMetric(r.DeltaKm),
		FormatMetric(r.AnnualKm),
		FormatMetric(r.InternationalKm),
		FormatMetric(r.DomesticKm),
		strings.Join(r.Commentary, "; "),
	}
}

// FormatDate renders a calendar date, or "-" when absent.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(DateLayout)
}

// FormatMetric renders an integer metric: decimal string when positive,
// literal "0" otherwise.
func FormatMetric(n int) string {
	if n > 0 {
		return strconv.Itoa(n)
	}
	return "0"
}
