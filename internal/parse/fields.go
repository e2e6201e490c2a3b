package parse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/caeworks/dgtscan/internal/report"
)

// Single-value field anchors. Each pattern carries its own stop condition —
// the next known label or end of line — so a capture can never run into the
// following field. RE2 has no lookahead, so stops are non-capturing trailing
// groups instead of the usual assertions.
var (
	plateRE   = regexp.MustCompile(`(?i)Matrícula:\s*([A-Z0-9]{4,7} ?[A-Z]{3})`)
	chassisRE = regexp.MustCompile(`(?i)Bastidor:\s*([A-Z0-9]{17})`)
	makeRE    = regexp.MustCompile(`(?im)Marca:\s*([A-Z][A-Z \-]*?)(?:\s+F\.|$)`)
	modelRE   = regexp.MustCompile(`(?im)Modelo:\s*([A-Z0-9][A-Z0-9 \-]*?)(?:\s+Renting:|$)`)
	serviceRE = regexp.MustCompile(`(?im)Servicio:\s*([A-ZÁÉÍÓÚÑ][A-ZÁÉÍÓÚÑ \-]*?)\s+Tipo`)
	typeRE    = regexp.MustCompile(`(?im)Tipo de vehículo:\s*([A-ZÁÉÍÓÚÑ0-9 ()\-]+?)(?:ARRENDATARIO|CARGAS|$)`)
	maxMassRE = regexp.MustCompile(`(?i)Masa máxima:\s*(\d{4,6})`)
	unladenRE = regexp.MustCompile(`(?i)Tara[:\s()kg]*:\s*(\d{4,6})`)
	holderRE  = regexp.MustCompile(`(?im)Filiación:\s*([A-ZÁÉÍÓÚÑ0-9 .,\-]+?)(?:Cotitulares:|$)`)
	leasedRE  = regexp.MustCompile(`(?i)Renting:\s*(Sí|Si|No)`)

	// groupedIntRE finds the first numeric token in a fragment, grouped
	// ("128.456") or plain ("128456").
	groupedIntRE = regexp.MustCompile(`\d{1,3}(?:\.\d{3})+|\d+`)
)

// findField runs a single-capture anchor pattern over the text and returns the
// trimmed capture, or "" when the anchor does not match.
func findField(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// parseDate parses the literal DD/MM/YYYY format. Empty input, placeholder
// dashes or anything that fails strict parsing yields the zero time, never an
// error.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" || strings.Trim(s, "-") == "" {
		return time.Time{}
	}
	t, err := time.Parse(report.DateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseQuantity converts an integer quantity (mass, odometer reading) after
// stripping thousand-separator dots and stray spaces. Non-numeric or empty
// input yields zero.
func parseQuantity(s string) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ".", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" || s == "---" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// parseYes reports whether a yes/no token is affirmative, tolerating both the
// accented and unaccented spellings.
func parseYes(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SÍ", "SI":
		return true
	}
	return false
}

// firstQuantity extracts the first numeric token from a fragment and converts
// it with parseQuantity. Zero when no number is present.
func firstQuantity(s string) int {
	m := groupedIntRE.FindString(s)
	if m == "" {
		return 0
	}
	return parseQuantity(m)
}
