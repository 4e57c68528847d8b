package model

import "time"

// LoanReference is the persistence layer's view of a loan, used only
// for field cross-validation. Any field may be absent.
type LoanReference struct {
	LoanID          string  `json:"loan_id"`
	BorrowerName    string  `json:"borrower_name,omitempty"`
	PropertyAddress string  `json:"property_address,omitempty"`
	LoanAmount      float64 `json:"loan_amount,omitempty"`
}

// ValidationSeverity grades a field cross-check mismatch
type ValidationSeverity string

const (
	ValidationWarning ValidationSeverity = "warning" // Suspicious but non-fatal
	ValidationError   ValidationSeverity = "error"   // Fatal to validated status
)

// ValidationIssue records a single field cross-check mismatch
type ValidationIssue struct {
	Field    string             `json:"field"`    // borrower_name, property_address, loan_amount
	Severity ValidationSeverity `json:"severity"`
	Detail   string             `json:"detail"`
}

// DocumentCheck records presence and validation for one required type
type DocumentCheck struct {
	Type      DocumentType      `json:"type"`
	Present   bool              `json:"present"`
	Validated bool              `json:"validated"`
	Issues    []ValidationIssue `json:"issues,omitempty"`
}

// LoanCollateralStatus is the per-loan completeness verdict. It is
// always recomputed in full from the set of known documents, never
// partially updated.
type LoanCollateralStatus struct {
	LoanID          string          `json:"loan_id"`
	ComputedAt      time.Time       `json:"computed_at"`
	Checks          []DocumentCheck `json:"checks"`                     // One per required DocumentType
	AssignmentChain *Chain          `json:"assignment_chain,omitempty"` // Stitched across all assignment documents
	NoteChain       *Chain          `json:"note_chain,omitempty"`       // Stitched endorsement chain for the note
	Complete        bool            `json:"complete"`                   // All requirements satisfied
	Score           int             `json:"score"`                      // Weighted 0-100, for ranking only
	Reasons         []string        `json:"reasons,omitempty"`          // Missing documents, gaps, unresolved ownership
}

// Check returns the check for the given type, or nil if absent
func (s *LoanCollateralStatus) Check(t DocumentType) *DocumentCheck {
	for i := range s.Checks {
		if s.Checks[i].Type == t {
			return &s.Checks[i]
		}
	}
	return nil
}
