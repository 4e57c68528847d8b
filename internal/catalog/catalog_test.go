package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nplvision/titletrace/internal/model"
)

func TestDefaultCoversCandidateTypes(t *testing.T) {
	c := Default()

	types := c.Types()
	if len(types) != len(model.CandidateTypes) {
		t.Fatalf("expected %d types, got %d", len(model.CandidateTypes), len(types))
	}

	for _, dt := range model.CandidateTypes {
		spec := c.Spec(dt)
		if spec == nil {
			t.Fatalf("missing spec for %s", dt)
		}
		if len(spec.HighKeywords) == 0 {
			t.Errorf("%s has no high keywords", dt)
		}
		if len(spec.HeaderSignatures) == 0 {
			t.Errorf("%s has no header signatures", dt)
		}
		if spec.Threshold <= 0 || spec.Norm <= 0 {
			t.Errorf("%s has unset threshold/norm: %f/%f", dt, spec.Threshold, spec.Norm)
		}
	}

	if c.Spec(model.DocTypeOther) != nil {
		t.Error("Other must not be a scored candidate")
	}
}

func TestAssignmentThresholdStrictest(t *testing.T) {
	c := Default()
	assignment := c.Spec(model.DocTypeAssignment).Threshold
	for _, dt := range []model.DocumentType{model.DocTypeNote, model.DocTypeSecurityInstrument} {
		if c.Spec(dt).Threshold >= assignment {
			t.Errorf("%s threshold %f should be below assignment threshold %f",
				dt, c.Spec(dt).Threshold, assignment)
		}
	}
}

func TestMatchKeywordWordBounded(t *testing.T) {
	c := Default()

	tests := []struct {
		text    string
		keyword string
		want    bool
	}{
		{"i promise to pay the principal", "promise to pay", true},
		{"the assignor transfers", "assignor", true},
		{"reassignorization", "assignor", false}, // Not word-bounded
		{"pay to the order of", "pay to the order", true},
		{"payment schedule", "pay to the order", false},
	}

	for _, tt := range tests {
		if got := c.MatchKeyword(tt.text, tt.keyword); got != tt.want {
			t.Errorf("MatchKeyword(%q, %q) = %v, want %v", tt.text, tt.keyword, got, tt.want)
		}
	}
}

func TestDetectorPatterns(t *testing.T) {
	tests := []struct {
		re   string
		text string
		want bool
	}{
		{"currency", "$250,000.00", true},
		{"currency", "$ 1,500", true},
		{"currency", "250000 dollars", false},
		{"recording", "instrument no. 2021-004512", true},
		{"recording", "book 412, page 88", true},
		{"recording", "the back page of the book", false},
		{"notary", "acknowledged before me this day", true},
		{"notary", "notary public in and for said county", true},
		{"date", "january 5, 2018", true},
		{"date", "03/14/2019", true},
		{"date", "version 1.2.3", false},
	}

	res := map[string]interface{ MatchString(string) bool }{
		"currency":  currencyRe,
		"recording": recordingRe,
		"notary":    notaryRe,
		"date":      dateRe,
	}

	for _, tt := range tests {
		if got := res[tt.re].MatchString(tt.text); got != tt.want {
			t.Errorf("%s.MatchString(%q) = %v, want %v", tt.re, tt.text, got, tt.want)
		}
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	if len(c.Types()) != len(model.CandidateTypes) {
		t.Error("empty-path load should return the default catalog")
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")

	overlay := `types:
  note:
    high_keywords:
      - custom note phrase
    threshold: 0.25
  assignment:
    detectors:
      - name: stamp
        pattern: 'recording stamp'
        weight: 5
`
	if err := os.WriteFile(path, []byte(overlay), 0644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	note := c.Spec(model.DocTypeNote)
	if len(note.HighKeywords) != 1 || note.HighKeywords[0] != "custom note phrase" {
		t.Errorf("high keywords not replaced: %v", note.HighKeywords)
	}
	if note.Threshold != 0.25 {
		t.Errorf("threshold not replaced: %f", note.Threshold)
	}
	// Untouched fields keep their defaults
	if len(note.MediumKeywords) == 0 {
		t.Error("medium keywords should keep defaults")
	}

	assignment := c.Spec(model.DocTypeAssignment)
	if len(assignment.Detectors) != 1 || assignment.Detectors[0].Name != "stamp" {
		t.Errorf("detectors not replaced: %+v", assignment.Detectors)
	}
	// Assignment keywords untouched
	if len(assignment.HighKeywords) == 0 {
		t.Error("assignment keywords should keep defaults")
	}
}

func TestLoadOverlayNewType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")

	overlay := `types:
  bailee_letter:
    header_signatures:
      - '\bbailee letter\b'
    high_keywords:
      - bailee letter
      - released to the custodian
    threshold: 0.35
`
	if err := os.WriteFile(path, []byte(overlay), 0644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	bailee := model.DocumentType("bailee_letter")
	spec := c.Spec(bailee)
	if spec == nil {
		t.Fatal("overlay-added type has no spec")
	}
	if spec.Threshold != 0.35 {
		t.Errorf("threshold not applied: %f", spec.Threshold)
	}
	if spec.Norm <= 0 {
		t.Errorf("new type should get a default norm, got %f", spec.Norm)
	}

	// The new type must be visible to anyone iterating the catalog,
	// after the canonical candidates
	types := c.Types()
	if len(types) != len(model.CandidateTypes)+1 {
		t.Fatalf("expected %d types, got %v", len(model.CandidateTypes)+1, types)
	}
	if types[len(types)-1] != bailee {
		t.Errorf("overlay-added type missing from Types(): %v", types)
	}
	for i, dt := range model.CandidateTypes {
		if types[i] != dt {
			t.Errorf("canonical order broken at %d: %v", i, types)
		}
	}

	if bailee.DisplayName() != "Bailee Letter" {
		t.Errorf("display name = %q", bailee.DisplayName())
	}
}

func TestLoadBadRegex(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")

	overlay := `types:
  note:
    header_signatures:
      - '[unclosed'
`
	if err := os.WriteFile(path, []byte(overlay), 0644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid regex in overlay")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/catalog.yaml"); err == nil {
		t.Error("expected error for missing catalog file")
	}
}
