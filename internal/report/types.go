// Package report holds the domain model for DGT vehicle-report processing:
// the structured data extracted from one report, the history record variants,
// and the processed result with its fixed-column rendering rules.
//
// Dates are calendar dates; the zero time.Time means "absent". History lists
// keep document order and are never mutated after assembly — downstream rule
// code re-sorts local copies only.
package report

import "time"

// Inspection outcome labels. This is a closed set: a record with any other
// label stays in history but is excluded from metric computation.
const (
	OutcomeFavorable    = "FAVORABLE"
	OutcomeFavorableCon = "FAVORABLE_CON"
	OutcomeDesfavorable = "DESFAVORABLE"
	OutcomeNegativa     = "NEGATIVA"
)

// KnownOutcome reports whether label belongs to the closed outcome set.
func KnownOutcome(label string) bool {
	switch label {
	case OutcomeFavorable, OutcomeFavorableCon, OutcomeDesfavorable, OutcomeNegativa:
		return true
	}
	return false
}

// TitularRecord is one titleholder period from the ownership history.
type TitularRecord struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end,omitempty"` // zero = still current
	Type  string    `json:"type"`          // relationship type label as printed
}

// ArrendatarioRecord is one lease period from the lessee history.
type ArrendatarioRecord struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end,omitempty"` // zero = lease still active
	Lessee string    `json:"lessee"`
}

// InspectionRecord is one periodic technical inspection (ITV) event.
type InspectionRecord struct {
	Date     time.Time `json:"date"`
	Expiry   time.Time `json:"expiry,omitempty"`
	Station  string    `json:"station"`
	Outcome  string    `json:"outcome"`
	Odometer int       `json:"odometer"` // 0 when the reading was not taken
	Defects  []string  `json:"defects,omitempty"`
}

// BajaRecord is one deregistration window.
type BajaRecord struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end,omitempty"` // zero = still deregistered
	Type   string    `json:"type"`
	Reason string    `json:"reason,omitempty"`
}

// VehicleData is the aggregate extracted from a single report. All fields are
// optional: a missing anchor leaves the type default in place. Identity key is
// the plate (assumed unique per document, not validated).
type VehicleData struct {
	Plate       string `json:"plate"`
	Chassis     string `json:"chassis,omitempty"`
	Make        string `json:"make,omitempty"`
	Model       string `json:"model,omitempty"`
	VehicleType string `json:"vehicle_type,omitempty"`
	Service     string `json:"service,omitempty"`
	MaxMassKg   int    `json:"max_mass_kg,omitempty"`
	UnladenKg   int    `json:"unladen_kg,omitempty"`

	Titleholder   string `json:"titleholder,omitempty"`
	Leased        bool   `json:"leased"`
	CurrentLessee string `json:"current_lessee,omitempty"`

	Titleholders    []TitularRecord      `json:"titleholders,omitempty"`
	Lessees         []ArrendatarioRecord `json:"lessees,omitempty"`
	Inspections     []InspectionRecord   `json:"inspections,omitempty"`
	Deregistrations []BajaRecord         `json:"deregistrations,omitempty"`

	// SourceName identifies the originating document (file name or upload
	// label). Informational only.
	SourceName string `json:"source_name,omitempty"`
}
