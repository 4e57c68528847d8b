package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/nplvision/titletrace/internal/model"
)

// Provider defines the interface for second-opinion LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// ClassifyLabel asks the model to label a document excerpt using a
	// strict closed label set
	ClassifyLabel(ctx context.Context, req ClassifyRequest) (*ClassifyResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ClassifyRequest contains the input for LLM labeling
type ClassifyRequest struct {
	// Excerpt is the leading portion of the document's scan text
	Excerpt string

	// Labels is the STRICT closed set the model must choose from.
	// A response outside this set is rejected, never coerced.
	Labels []model.DocumentType

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// ClassifyResponse contains the model's label choice
type ClassifyResponse struct {
	// Label is the chosen document type
	Label model.DocumentType

	// RawAnswer is the unparsed model output, for audit
	RawAnswer string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama or an OpenAI-compatible gateway)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Model:     "",
		Timeout:   30,
		MaxTokens: 64,
	}
}

// excerptChars caps how much document text goes into the prompt
const excerptChars = 2000

// Excerpt truncates scan text for the labeling prompt
func Excerpt(scanText string) string {
	if len(scanText) > excerptChars {
		return scanText[:excerptChars]
	}
	return scanText
}

// BuildPrompt constructs the default labeling prompt with the strict
// closed label set
func BuildPrompt(excerpt string, labels []model.DocumentType) string {
	var names []string
	for _, l := range labels {
		names = append(names, string(l))
	}

	return fmt.Sprintf(`You are labeling a mortgage loan document that was OCR-converted to text.

CRITICAL RULES:
1. Answer with EXACTLY ONE label from this list and nothing else:
   %s
2. A standalone allonge is labeled "note".
3. If the text does not clearly match any label, answer "other".
4. Do not explain, qualify, or add punctuation.

Document text (may be truncated):
---
%s
---

Label:`, strings.Join(names, "\n   "), excerpt)
}

// ParseLabel maps a model answer onto the closed label set. An answer
// outside the set is an error, never coerced onto a label.
func ParseLabel(answer string, labels []model.DocumentType) (model.DocumentType, error) {
	cleaned := strings.ToLower(strings.TrimSpace(answer))
	cleaned = strings.Trim(cleaned, "\"'.`")
	cleaned = strings.ReplaceAll(cleaned, " ", "_")

	for _, l := range labels {
		if cleaned == string(l) {
			return l, nil
		}
	}
	// Tolerate a label embedded in a short sentence
	for _, l := range labels {
		if strings.Contains(cleaned, string(l)) {
			return l, nil
		}
	}

	return "", fmt.Errorf("answer %q is not in the label set", answer)
}

// DefaultLabels is the closed label set offered to providers
func DefaultLabels() []model.DocumentType {
	return []model.DocumentType{
		model.DocTypeNote,
		model.DocTypeSecurityInstrument,
		model.DocTypeAssignment,
		model.DocTypeOther,
	}
}
