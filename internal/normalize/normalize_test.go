package normalize

import (
	"testing"
)

func TestNormalizer_Key(t *testing.T) {
	n := New(nil)

	tests := []struct {
		name  string
		label string
		want  string
	}{
		{"plain", "Cardiology", "CARDIOLOGY"},
		{"whitespace", "  Cardiology  ", "CARDIOLOGY"},
		{"accents", "Néphrologie", "NEPHROLOGIE"},
		{"boilerplate prefix", "Discharge Summary Cardiology", "CARDIOLOGY"},
		{"boilerplate marker", "Cardiology Day Clinic", "CARDIOLOGY"},
		{"punctuation", "Cardiology.", "CARDIOLOGY"},
		{"inner whitespace collapse", "Vascular   Surgery", "VASCULAR SURGERY"},
		{"empty", "", ""},
		{"only boilerplate", "Discharge Letter", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Key(tt.label); got != tt.want {
				t.Errorf("Key(%q) = %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}

func TestNormalizer_Key_Deterministic(t *testing.T) {
	n := New(nil)
	first := n.Key("Lettre de liaison Néphrologie")
	for i := 0; i < 10; i++ {
		if got := n.Key("Lettre de liaison Néphrologie"); got != first {
			t.Fatalf("Key not deterministic: %q vs %q", got, first)
		}
	}
}

func TestNormalizer_Key_Idempotent(t *testing.T) {
	n := New(nil)
	once := n.Key("Néphrologie Day Clinic")
	twice := n.Key(once)
	if once != twice {
		t.Errorf("Key not idempotent: %q vs %q", once, twice)
	}
}

func TestNew_CustomBoilerplate(t *testing.T) {
	n := New([]string{"cr lettre de liaison", "foch"})

	if got := n.Key("CR Lettre de Liaison Cardiologie Foch"); got != "CARDIOLOGIE" {
		t.Errorf("expected CARDIOLOGIE, got %q", got)
	}
}

func TestNew_EmptyListDisablesStripping(t *testing.T) {
	n := New([]string{})

	if got := n.Key("Discharge Summary Cardiology"); got != "DISCHARGE SUMMARY CARDIOLOGY" {
		t.Errorf("expected no boilerplate stripping, got %q", got)
	}
}

func TestUnitCode(t *testing.T) {
	if got := UnitCode(" 348u "); got != "348U" {
		t.Errorf("expected 348U, got %q", got)
	}
	if got := UnitCode(""); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
