package model

import "strings"

// DocumentType identifies the legal instrument category of a loan document
type DocumentType string

const (
	DocTypeNote               DocumentType = "note"                // Promissory note (includes standalone allonges)
	DocTypeSecurityInstrument DocumentType = "security_instrument" // Mortgage or deed of trust
	DocTypeAssignment         DocumentType = "assignment"          // Assignment of mortgage / deed of trust
	DocTypeOther              DocumentType = "other"               // Unrecognized or below acceptance threshold
)

// CandidateTypes lists the types the classifier actually scores.
// DocTypeOther is a fallback verdict, never a candidate.
var CandidateTypes = []DocumentType{
	DocTypeNote,
	DocTypeSecurityInstrument,
	DocTypeAssignment,
}

func (t DocumentType) String() string {
	return string(t)
}

// DisplayName returns a human-readable label for reports
func (t DocumentType) DisplayName() string {
	switch t {
	case DocTypeNote:
		return "Note"
	case DocTypeSecurityInstrument:
		return "Security Instrument"
	case DocTypeAssignment:
		return "Assignment"
	case DocTypeOther, "":
		return "Other"
	default:
		// Catalog-defined types render from their own name
		words := strings.Split(string(t), "_")
		for i, w := range words {
			if w != "" {
				words[i] = strings.ToUpper(w[:1]) + w[1:]
			}
		}
		return strings.Join(words, " ")
	}
}

// ClassificationResult is the classifier's verdict for one document
type ClassificationResult struct {
	Type       DocumentType             `json:"type"`                 // Final verdict (Other when below threshold)
	Confidence float64                  `json:"confidence"`           // Derived confidence in [0,1]
	Scores     map[DocumentType]float64 `json:"scores"`               // Raw per-type scores, kept for audit
	BestType   DocumentType             `json:"best_type,omitempty"`  // Highest-scoring type before thresholding
	Forced     bool                     `json:"forced,omitempty"`     // True when the verdict was forced to Other
	WordCount  int                      `json:"word_count"`           // Words in the normalized scan text
}

// MaxScore returns the highest per-type score
func (r ClassificationResult) MaxScore() float64 {
	max := 0.0
	for _, s := range r.Scores {
		if s > max {
			max = s
		}
	}
	return max
}
