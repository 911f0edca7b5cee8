package voice

import "testing"

// TestNormalize verifies lowercasing, diacritic stripping and whitespace collapse.
func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Press Banca", "press banca"},
		{"  press   banca\t", "press banca"},
		{"Préss BANCA", "press banca"},
		{"Sentadilla búlgara", "sentadilla bulgara"},
		{"Extensión de tríceps", "extension de triceps"},
		{"año", "ano"},
		{"", ""},
		{"   ", ""},
		{"RPE 8,5", "rpe 8,5"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestNormalizeIdempotent verifies normalize(normalize(s)) == normalize(s).
func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Press Banca",
		"ÉLÉVATIONS latérales",
		"İstanbul curl",
		"Ǆ dž ǅ",
		"é combining",
		"ﬁ ligature",
		"nota: Me duele el HOMBRO",
		" nbsp em space",
	}
	for _, s := range inputs {
		once := Normalize(s)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", s, once, twice)
		}
	}
}
