package chain

import "testing"

func TestHolderRegistryNames(t *testing.T) {
	r, err := NewHolderRegistry([]string{"Lakeview Loan Servicing"}, nil)
	if err != nil {
		t.Fatalf("NewHolderRegistry failed: %v", err)
	}

	tests := []struct {
		party string
		want  bool
	}{
		{"Lakeview Loan Servicing", true},
		{"Lakeview Loan Servicing, LLC", true}, // Containment after folding
		{"LAKEVIEW LOAN SERVICING LLC", true},
		{"Riverside Loan Servicing, LLC", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := r.Match(tt.party); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.party, got, tt.want)
		}
	}
}

func TestHolderRegistryPatterns(t *testing.T) {
	r, err := NewHolderRegistry(nil, []string{`trust\s+\d{4}-[a-z0-9]+`})
	if err != nil {
		t.Fatalf("NewHolderRegistry failed: %v", err)
	}

	if !r.Match("Structured Asset Trust 2007-BC2") {
		t.Error("pattern should match case-insensitively")
	}
	if r.Match("Structured Asset Trust") {
		t.Error("pattern should not match without the series token")
	}
}

func TestHolderRegistryBadPattern(t *testing.T) {
	if _, err := NewHolderRegistry(nil, []string{"[unclosed"}); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestHolderRegistryEmpty(t *testing.T) {
	var nilRegistry *HolderRegistry
	if !nilRegistry.Empty() {
		t.Error("nil registry should report empty")
	}
	if nilRegistry.Match("Anyone") {
		t.Error("nil registry should never match")
	}

	r, err := NewHolderRegistry(nil, nil)
	if err != nil {
		t.Fatalf("NewHolderRegistry failed: %v", err)
	}
	if !r.Empty() {
		t.Error("registry without entries should report empty")
	}
}
