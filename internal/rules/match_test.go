package rules

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Transporte Inmediato SL", "TRANSPORTE INMEDIATO SL"},
		{"  transporte   inmediato\tSL ", "TRANSPORTE INMEDIATO SL"},
		{"", ""},
		{"ÑANDÚ", "ÑANDÚ"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestMatches(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"TRANSPORTE INMEDIATO SL", "transporte inmediato", true},
		{"INMEDIATO", "TRANSPORTE INMEDIATO SL", true},
		// Scanned text splits words at arbitrary points.
		{"TRANSPORTE IN MEDIATO SL", "INMEDIATO", true},
		{"PAMPLONA T I TRANSPORTE INMEDIATO SL", "TRANSPORTEINMEDIATOSL", true},
		{"ALQUILERES NAVARRA SA", "TRANSPORTE INMEDIATO", false},
		// The empty string is contained in everything.
		{"", "ANYONE", true},
		{"ANYONE", "", true},
	}
	for _, c := range cases {
		if got := Matches(c.a, c.b); got != c.want {
			t.Errorf("Matches(%q, %q) = %t, want %t", c.a, c.b, got, c.want)
		}
		if got := Matches(c.b, c.a); got != c.want {
			t.Errorf("Matches(%q, %q) = %t, want %t (symmetry)", c.b, c.a, got, c.want)
		}
	}
}
