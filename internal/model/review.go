package model

import "time"

// ExtractedFields holds identifiers pulled from document text for
// cross-validation against the loan reference record
type ExtractedFields struct {
	BorrowerName    string  `json:"borrower_name,omitempty"`
	PropertyAddress string  `json:"property_address,omitempty"`
	LoanAmount      float64 `json:"loan_amount,omitempty"`
}

// DocumentReview is the complete analysis output for one document
type DocumentReview struct {
	Name           string               `json:"name"`                // Source filename or caller-supplied label
	ReviewedAt     time.Time            `json:"reviewed_at"`
	Classification ClassificationResult `json:"classification"`
	Endorsements   *Chain               `json:"endorsements,omitempty"` // Present for notes/allonges
	Assignments    *Chain               `json:"assignments,omitempty"`  // Present for assignment instruments
	Fields         ExtractedFields      `json:"fields"`
	LLM            *LLMOpinion          `json:"llm,omitempty"` // Optional second opinion, never affects the verdict
}

// LLMOpinion is an optional model-generated second opinion on a
// low-confidence classification. It is recorded alongside the
// heuristic verdict and never overrides it.
type LLMOpinion struct {
	Enabled  bool         `json:"enabled"`
	Provider string       `json:"provider,omitempty"`
	Model    string       `json:"model,omitempty"`
	Label    DocumentType `json:"label,omitempty"`   // Label the model chose from the closed set
	Agrees   bool         `json:"agrees"`            // Whether it matches the heuristic verdict
	Warnings []string     `json:"warnings,omitempty"`
}
