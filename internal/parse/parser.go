package parse

import (
	"errors"
	"strings"
	"time"

	"github.com/caeworks/dgtscan/internal/observe"
	"github.com/caeworks/dgtscan/internal/report"
)

// History sections of the target report layout. The anchor opens the section;
// any of the terminators (or document end) closes it.
var (
	lesseeSection  = section("arrendatario", "ARRENDATARIO", "CARGAS", "DATOS SEGURO", "HISTORIAL")
	titularSection = section("titulares", "HISTORIAL DE TITULARES", "HISTORIAL", "DATOS")
	itvSection     = section("inspecciones", "HISTORIAL DE INSPECCIONES TÉCNICAS", "El presente documento", "HISTORIAL DE LECTURAS")
	bajaSection    = section("bajas", "HISTORIAL DE BAJAS", "HISTORIAL", "INFORMACIÓN")
)

// ErrEmptyDocument is returned when the supplied text blob is empty. This is
// the only document-level failure the parser itself raises; the batch
// orchestrator isolates it per document.
var ErrEmptyDocument = errors.New("empty document text")

// Parser assembles one VehicleData per document text blob.
type Parser struct {
	// Now supplies the evaluation time used to decide whether a lease is
	// currently active. Defaults to time.Now; tests pin it.
	Now func() time.Time

	sink observe.EventSink
}

// Option configures a Parser.
type Option func(*Parser)

// WithSink installs an observability sink for parse checkpoints.
func WithSink(s observe.EventSink) Option {
	return func(p *Parser) {
		if s != nil {
			p.sink = s
		}
	}
}

// WithNow pins the evaluation time.
func WithNow(now func() time.Time) Option {
	return func(p *Parser) {
		if now != nil {
			p.Now = now
		}
	}
}

// New creates a Parser. With no options it uses the wall clock and discards
// observability events.
func New(opts ...Option) *Parser {
	p := &Parser{
		Now:  time.Now,
		sink: observe.NopSink{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse extracts the structured vehicle data from one report's flattened
// text. Missing fields and sections are normal outcomes: they leave defaults
// and empty history lists behind. The only error condition is an empty blob.
func (p *Parser) Parse(text string) (*report.VehicleData, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	v := &report.VehicleData{
		Plate:       findField(plateRE, text),
		Chassis:     findField(chassisRE, text),
		Make:        findField(makeRE, text),
		Model:       findField(modelRE, text),
		VehicleType: findField(typeRE, text),
		Service:     findField(serviceRE, text),
		MaxMassKg:   parseQuantity(findField(maxMassRE, text)),
		UnladenKg:   parseQuantity(findField(unladenRE, text)),
		Titleholder: findField(holderRE, text),
		Leased:      parseYes(findField(leasedRE, text)),
	}

	v.Lessees = parseLessees(p.locate(text, lesseeSection))
	v.CurrentLessee = currentLessee(v.Lessees, p.Now())
	v.Titleholders = parseTitulares(p.locate(text, titularSection))
	v.Inspections = parseInspections(p.locate(text, itvSection))
	v.Deregistrations = parseBajas(p.locate(text, bajaSection))

	p.sink.RecordsParsed(lesseeSection.name, len(v.Lessees))
	p.sink.RecordsParsed(titularSection.name, len(v.Titleholders))
	p.sink.RecordsParsed(itvSection.name, len(v.Inspections))
	p.sink.RecordsParsed(bajaSection.name, len(v.Deregistrations))

	return v, nil
}

// locate finds a section and reports the lookup to the sink. A missing
// section yields the empty string, which scans into an empty history list.
func (p *Parser) locate(text string, def sectionDef) string {
	body, found := locate(text, def)
	p.sink.SectionLocated(def.name, found, len(body))
	return body
}

// currentLessee returns the lessee of the record whose end date lies beyond
// the evaluation time, meaning the lease is still running. Document order
// decides when several qualify (last match wins, as in the source layout
// where at most one lease is open).
func currentLessee(lessees []report.ArrendatarioRecord, now time.Time) string {
	current := ""
	for _, r := range lessees {
		if !r.End.IsZero() && r.End.After(now) {
			current = r.Lessee
		}
	}
	return current
}
