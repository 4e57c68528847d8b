// Package collateral recomputes per-loan completeness verdicts from
// the full set of classified documents. Every recomputation starts
// from scratch, which keeps the operation idempotent and lets the
// caller serialize around "recompute for loan X" instead of merging
// partial updates.
package collateral

import (
	"fmt"
	"strings"
	"time"

	"github.com/nplvision/titletrace/internal/chain"
	"github.com/nplvision/titletrace/internal/model"
)

// nowFunc is the clock used for ComputedAt (injectable for tests)
var nowFunc = time.Now

// requiredTypes are the document types a complete collateral file needs
var requiredTypes = []model.DocumentType{
	model.DocTypeNote,
	model.DocTypeSecurityInstrument,
	model.DocTypeAssignment,
}

// Completeness score weights: document presence carries roughly a
// third each, chain health tops it off.
const (
	presenceWeight  = 30
	chainWeight     = 5
	ownershipWeight = 5
)

// Aggregator combines classification and chain outputs into a loan
// collateral verdict
type Aggregator struct {
	cfg       model.CollateralConfig
	extractor *chain.Extractor
}

// NewAggregator creates an aggregator with the given validation tuning
func NewAggregator(cfg model.CollateralConfig, extractor *chain.Extractor) *Aggregator {
	return &Aggregator{cfg: cfg, extractor: extractor}
}

// Recompute rebuilds the collateral status for one loan from every
// known document review. It is a pure recomputation: calling it twice
// with the same inputs yields the same verdict.
func (a *Aggregator) Recompute(ref model.LoanReference, reviews []*model.DocumentReview) *model.LoanCollateralStatus {
	status := &model.LoanCollateralStatus{
		LoanID:     ref.LoanID,
		ComputedAt: nowFunc(),
	}

	byType := make(map[model.DocumentType][]*model.DocumentReview)
	for _, r := range reviews {
		byType[r.Classification.Type] = append(byType[r.Classification.Type], r)
	}

	allValidated := true
	for _, t := range requiredTypes {
		docs := byType[t]
		check := model.DocumentCheck{Type: t, Present: len(docs) > 0}

		if !check.Present {
			status.Reasons = append(status.Reasons, fmt.Sprintf("missing %s", t.DisplayName()))
			allValidated = false
		} else {
			check.Validated, check.Issues = a.validateBest(ref, docs)
			if !check.Validated {
				status.Reasons = append(status.Reasons, fmt.Sprintf("%s failed field validation", t.DisplayName()))
				allValidated = false
			}
			status.Score += presenceWeight
		}

		status.Checks = append(status.Checks, check)
	}

	// Stitch the loan-level chains across documents
	assignChain := a.stitch(model.ChainKindAssignment, byType[model.DocTypeAssignment])
	noteChain := a.stitch(model.ChainKindEndorsement, byType[model.DocTypeNote])
	status.AssignmentChain = assignChain
	status.NoteChain = noteChain

	chainContinuous := true
	if assignChain != nil {
		if gaps := countGaps(assignChain); gaps > 0 {
			chainContinuous = false
			status.Reasons = append(status.Reasons, fmt.Sprintf("assignment chain has %d gap(s)", gaps))
			if assignChain.EndsWithKnownHolder {
				// Reported, never silently treated as complete
				status.Reasons = append(status.Reasons, "assignment chain ends with a recognized holder despite gaps")
			}
		} else if len(assignChain.Links) == 0 && len(byType[model.DocTypeAssignment]) > 0 {
			status.Reasons = append(status.Reasons, "assignment instrument present but no transfer language detected")
		}
		if chainContinuous && len(assignChain.Links) > 0 {
			status.Score += chainWeight
		}
	}

	noteResolved := false
	if noteChain != nil {
		switch {
		case noteChain.EndsInBlank:
			// Bearer paper: ownership tracing stops by design
			noteResolved = true
		case noteChain.EndsWithKnownHolder:
			noteResolved = true
		case len(noteChain.Links) == 0:
			status.Reasons = append(status.Reasons, "no endorsements detected on note")
		default:
			status.Reasons = append(status.Reasons, fmt.Sprintf("note ownership unresolved: last endorsee %q is not a recognized holder", noteChain.CurrentHolder()))
			if noteChain.HasGaps() {
				status.Reasons = append(status.Reasons, "endorsement chain has gaps")
			}
		}
		if noteResolved {
			status.Score += ownershipWeight
		}
	}

	if status.Score > 100 {
		status.Score = 100
	}

	status.Complete = allPresent(status.Checks) && allValidated && chainContinuous && noteResolved
	return status
}

// stitch merges per-document chains; nil when no documents of the
// source type exist
func (a *Aggregator) stitch(kind model.ChainKind, docs []*model.DocumentReview) *model.Chain {
	var chains []model.Chain
	for _, d := range docs {
		switch kind {
		case model.ChainKindEndorsement:
			if d.Endorsements != nil {
				chains = append(chains, *d.Endorsements)
			}
		case model.ChainKindAssignment:
			if d.Assignments != nil {
				chains = append(chains, *d.Assignments)
			}
		}
	}
	if len(docs) == 0 {
		return nil
	}
	stitched := a.extractor.Stitch(kind, chains)
	return &stitched
}

// validateBest validates every document of a type against the loan
// reference and keeps the cleanest result
func (a *Aggregator) validateBest(ref model.LoanReference, docs []*model.DocumentReview) (bool, []model.ValidationIssue) {
	bestValidated := false
	var bestIssues []model.ValidationIssue
	bestErrors := -1

	for _, d := range docs {
		issues := a.validateFields(ref, d.Fields)
		errors := 0
		for _, iss := range issues {
			if iss.Severity == model.ValidationError {
				errors++
			}
		}
		if bestErrors == -1 || errors < bestErrors {
			bestErrors = errors
			bestIssues = issues
			bestValidated = errors == 0
		}
	}

	return bestValidated, bestIssues
}

// validateFields cross-checks extracted identifiers against the loan
// reference record. Mismatches grade into warnings or errors by
// severity; they never abort the review.
func (a *Aggregator) validateFields(ref model.LoanReference, fields model.ExtractedFields) []model.ValidationIssue {
	var issues []model.ValidationIssue

	if ref.BorrowerName != "" {
		switch {
		case fields.BorrowerName == "":
			issues = append(issues, model.ValidationIssue{
				Field:    "borrower_name",
				Severity: model.ValidationWarning,
				Detail:   "borrower name not found in document",
			})
		default:
			sim := chain.Similarity(fields.BorrowerName, ref.BorrowerName)
			if sim < a.cfg.NameSimilarityError {
				issues = append(issues, model.ValidationIssue{
					Field:    "borrower_name",
					Severity: model.ValidationError,
					Detail:   fmt.Sprintf("document borrower %q does not match loan borrower %q (similarity %.2f)", fields.BorrowerName, ref.BorrowerName, sim),
				})
			} else if sim < a.cfg.NameSimilarityWarn {
				issues = append(issues, model.ValidationIssue{
					Field:    "borrower_name",
					Severity: model.ValidationWarning,
					Detail:   fmt.Sprintf("borrower name similarity %.2f below %.2f", sim, a.cfg.NameSimilarityWarn),
				})
			}
		}
	}

	if ref.PropertyAddress != "" {
		switch {
		case fields.PropertyAddress == "":
			issues = append(issues, model.ValidationIssue{
				Field:    "property_address",
				Severity: model.ValidationWarning,
				Detail:   "property address not found in document",
			})
		default:
			overlap := tokenOverlap(fields.PropertyAddress, ref.PropertyAddress)
			if overlap < a.cfg.AddressOverlapWarn/2 {
				issues = append(issues, model.ValidationIssue{
					Field:    "property_address",
					Severity: model.ValidationError,
					Detail:   fmt.Sprintf("document address %q does not match loan address %q", fields.PropertyAddress, ref.PropertyAddress),
				})
			} else if overlap < a.cfg.AddressOverlapWarn {
				issues = append(issues, model.ValidationIssue{
					Field:    "property_address",
					Severity: model.ValidationWarning,
					Detail:   fmt.Sprintf("address token overlap %.2f below %.2f", overlap, a.cfg.AddressOverlapWarn),
				})
			}
		}
	}

	if ref.LoanAmount > 0 && fields.LoanAmount > 0 {
		diff := fields.LoanAmount - ref.LoanAmount
		if diff < 0 {
			diff = -diff
		}
		rel := diff / ref.LoanAmount
		if rel > 2*a.cfg.AmountTolerance {
			issues = append(issues, model.ValidationIssue{
				Field:    "loan_amount",
				Severity: model.ValidationError,
				Detail:   fmt.Sprintf("document amount %.2f differs from loan amount %.2f by %.1f%%", fields.LoanAmount, ref.LoanAmount, rel*100),
			})
		} else if rel > a.cfg.AmountTolerance {
			issues = append(issues, model.ValidationIssue{
				Field:    "loan_amount",
				Severity: model.ValidationWarning,
				Detail:   fmt.Sprintf("document amount %.2f outside %.0f%% tolerance", fields.LoanAmount, a.cfg.AmountTolerance*100),
			})
		}
	}

	return issues
}

// tokenOverlap returns the fraction of reference address tokens found
// in the document address after folding
func tokenOverlap(doc, ref string) float64 {
	refTokens := strings.Fields(chain.Fold(ref))
	if len(refTokens) == 0 {
		return 0
	}

	docTokens := make(map[string]bool)
	for _, t := range strings.Fields(chain.Fold(doc)) {
		docTokens[t] = true
	}

	matched := 0
	for _, t := range refTokens {
		if docTokens[t] {
			matched++
		}
	}
	return float64(matched) / float64(len(refTokens))
}

func countGaps(c *model.Chain) int {
	n := 0
	for _, l := range c.Links {
		if l.IsGap {
			n++
		}
	}
	return n
}

func allPresent(checks []model.DocumentCheck) bool {
	for _, c := range checks {
		if !c.Present {
			return false
		}
	}
	return true
}
