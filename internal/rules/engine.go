package rules

import (
	"time"

	"github.com/caeworks/dgtscan/internal/observe"
	"github.com/caeworks/dgtscan/internal/report"
)

// Commentary messages. The ineligible message is shared by every terminal
// rejection: failed eligibility, a single odometer reading, and a duplicated
// last/penultimate pair.
const (
	CommentNotEligible       = "not eligible for computation"
	CommentNoInspections     = "no inspection history"
	CommentNoValid           = "no valid inspections"
	CommentNoReadings        = "valid inspections without odometer reading"
	CommentSingleReading     = "only one consistent reading"
	CommentOdometerReset     = "odometer reset detected"
	CommentNonPositiveDays   = "elapsed days <= 0, projection unavailable"
	CommentLeaseActive       = "lease currently active"
	commentOwnershipChangeFm = "ownership changed on %s"
	commentLeaseStartFm      = "lease started on %s"
	commentLeaseEndFm        = "lease ended on %s"
	commentDeregisteredFm    = "vehicle deregistered from %s to %s"
)

// Policy holds the rule constants that have no stated regulatory
// justification; they are kept named and overridable rather than inlined.
type Policy struct {
	// LeaseMinMonths is the historical-lease duration a lessee match must
	// exceed to make the vehicle eligible.
	LeaseMinMonths float64
	// DaysPerMonth converts a day span into months for the lease threshold.
	DaysPerMonth float64
	// ChangeCutoff is the earliest date a regulatory event (ownership change,
	// lease start/end, deregistration) is worth reporting.
	ChangeCutoff time.Time
}

// DefaultPolicy returns the production constants: 14 months over 30.44-day
// months, events reported from 2023-01-01 on.
func DefaultPolicy() Policy {
	return Policy{
		LeaseMinMonths: 14,
		DaysPerMonth:   30.44,
		ChangeCutoff:   time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Engine runs the rule pipeline for one configured client filter. The zero
// client means "process every vehicle, no eligibility filtering". Engines are
// read-only after construction and safe to reuse across documents.
type Engine struct {
	// Client is the optional client identifier the ownership/lease chain is
	// matched against.
	Client string
	// Policy holds the rule constants; zero-value fields fall back to
	// DefaultPolicy.
	Policy Policy
	// Now supplies the evaluation time for open lease durations.
	Now func() time.Time

	sink observe.EventSink
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithPolicy overrides the default policy constants.
func WithPolicy(p Policy) EngineOption {
	return func(e *Engine) { e.Policy = p }
}

// WithNow pins the evaluation time.
func WithNow(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.Now = now
		}
	}
}

// WithSink installs an observability sink for rule outcomes.
func WithSink(s observe.EventSink) EngineOption {
	return func(e *Engine) {
		if s != nil {
			e.sink = s
		}
	}
}

// NewEngine creates an Engine for the given client filter (empty = none).
func NewEngine(client string, opts ...EngineOption) *Engine {
	e := &Engine{
		Client: client,
		Policy: DefaultPolicy(),
		Now:    time.Now,
		sink:   observe.NopSink{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process evaluates all rules over one vehicle and returns the frozen result.
// The stages run in fixed order — eligibility, commentary, metrics — each as
// a transform from one result value to the next. An ineligible vehicle stops
// after the first stage with the fixed message.
func (e *Engine) Process(v *report.VehicleData) report.ProcessedResult {
	res := report.ProcessedResult{Plate: v.Plate}

	res, ok := e.checkEligibility(v, res)
	if !ok {
		return res
	}

	res = e.applyCommentary(v, res)
	res = e.computeMetrics(v, res)
	return res
}
