package specialty

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/savegress/staysync/internal/normalize"
	"github.com/savegress/staysync/pkg/models"
)

func TestReadMapping(t *testing.T) {
	data := strings.Join([]string{
		"unit_code;label;specialty",
		"348;Cardiology;CARDIOLOGY",
		"350;Néphrologie;NEPHROLOGY",
	}, "\n")

	n := normalize.New(nil)
	m, err := ReadMapping(strings.NewReader(data), ';', n)
	if err != nil {
		t.Fatalf("ReadMapping failed: %v", err)
	}
	if m.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", m.Len())
	}

	r := NewResolver(m)

	spec, ok := r.Resolve("348", n.Key("Cardiology"))
	if !ok || spec != "CARDIOLOGY" {
		t.Errorf("expected CARDIOLOGY, got %q (found=%v)", spec, ok)
	}

	// Accent-insensitive because both sides pass through the normalizer
	spec, ok = r.Resolve("350", n.Key("Nephrologie"))
	if !ok || spec != "NEPHROLOGY" {
		t.Errorf("expected NEPHROLOGY, got %q (found=%v)", spec, ok)
	}
}

func TestReadMapping_DuplicatesFirstSeen(t *testing.T) {
	n := normalize.New(nil)
	m := NewMapping([]models.MappingRow{
		{UnitCode: "348", Label: "Cardiology", Specialty: "CARDIOLOGY"},
		{UnitCode: "348", Label: "Cardiology", Specialty: "SHOULD-BE-IGNORED"},
	}, n)

	if m.Len() != 1 {
		t.Fatalf("expected 1 entry after duplicate collapse, got %d", m.Len())
	}

	spec, ok := NewResolver(m).Resolve("348", n.Key("Cardiology"))
	if !ok || spec != "CARDIOLOGY" {
		t.Errorf("first occurrence should win, got %q", spec)
	}
}

func TestReadMapping_NoHeader(t *testing.T) {
	data := "348;Cardiology;CARDIOLOGY\n"

	n := normalize.New(nil)
	m, err := ReadMapping(strings.NewReader(data), ';', n)
	if err != nil {
		t.Fatalf("ReadMapping failed: %v", err)
	}
	if m.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", m.Len())
	}
}

func TestReadMapping_ShortRow(t *testing.T) {
	data := "348;Cardiology\n"

	_, err := ReadMapping(strings.NewReader(data), ';', normalize.New(nil))
	if err == nil {
		t.Error("expected error for short row")
	}
}

func TestLoadMapping(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mapping.csv")
	content := "unit_code;label;specialty\n348;Cardiology;CARDIOLOGY\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadMapping(path, ';', normalize.New(nil))
	if err != nil {
		t.Fatalf("LoadMapping failed: %v", err)
	}
	if m.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", m.Len())
	}
}

func TestLoadMapping_MissingFile(t *testing.T) {
	_, err := LoadMapping(filepath.Join(t.TempDir(), "absent.csv"), ';', normalize.New(nil))
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDegradedResolver(t *testing.T) {
	r := NewDegradedResolver()

	if !r.Degraded() {
		t.Error("resolver should report degraded")
	}
	if spec, ok := r.Resolve("348", "CARDIOLOGY"); ok || spec != "" {
		t.Errorf("degraded resolver must resolve nothing, got %q (found=%v)", spec, ok)
	}
}

func TestResolver_UnitCodeNormalization(t *testing.T) {
	n := normalize.New(nil)
	m := NewMapping([]models.MappingRow{
		{UnitCode: " 348u ", Label: "Cardiology", Specialty: "CARDIOLOGY"},
	}, n)
	r := NewResolver(m)

	if _, ok := r.Resolve("348U", n.Key("Cardiology")); !ok {
		t.Error("unit code lookup should be case/whitespace insensitive")
	}
}
