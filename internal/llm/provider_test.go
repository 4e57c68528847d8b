package llm

import (
	"strings"
	"testing"
)

func TestParseLabel(t *testing.T) {
	labels := DefaultLabels()

	tests := []struct {
		name    string
		answer  string
		want    string
		wantErr bool
	}{
		{"exact match", "note", "note", false},
		{"uppercase", "NOTE", "note", false},
		{"surrounding whitespace", "  security_instrument\n", "security_instrument", false},
		{"label inside sentence", "The document is an assignment of mortgage.", "assignment", false},
		{"quoted label", `"other"`, "other", false},
		{"empty answer", "", "", true},
		{"out of set", "promissory_instrument", "", true},
		{"refusal", "I cannot determine the type.", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLabel(tt.answer, labels)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseLabel(%q) expected error, got %q", tt.answer, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLabel(%q) unexpected error: %v", tt.answer, err)
			}
			if string(got) != tt.want {
				t.Errorf("ParseLabel(%q) = %q, want %q", tt.answer, got, tt.want)
			}
		})
	}
}

func TestBuildPromptContainsAllLabels(t *testing.T) {
	labels := DefaultLabels()
	prompt := BuildPrompt("PAY TO THE ORDER OF First National Bank", labels)

	for _, label := range labels {
		if !strings.Contains(prompt, string(label)) {
			t.Errorf("prompt missing label %q", label)
		}
	}
	if !strings.Contains(prompt, "PAY TO THE ORDER OF") {
		t.Error("prompt missing document excerpt")
	}
}

func TestExcerptTruncation(t *testing.T) {
	long := strings.Repeat("mortgage ", 1000)
	got := Excerpt(long)
	if len(got) > excerptChars {
		t.Errorf("excerpt length = %d, want <= %d", len(got), excerptChars)
	}

	short := "a short note"
	if Excerpt(short) != short {
		t.Errorf("short text should pass through unchanged, got %q", Excerpt(short))
	}
}

func TestNewProviderDisabled(t *testing.T) {
	p, err := NewProvider(Config{Provider: ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Error("empty provider name should yield nil provider")
	}
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider(Config{Provider: "bard"})
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}
