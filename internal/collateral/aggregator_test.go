package collateral

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nplvision/titletrace/internal/chain"
	"github.com/nplvision/titletrace/internal/model"
)

func newTestAggregator(t *testing.T, holders ...string) *Aggregator {
	t.Helper()
	registry, err := chain.NewHolderRegistry(holders, nil)
	if err != nil {
		t.Fatalf("NewHolderRegistry failed: %v", err)
	}
	extractor := chain.NewExtractor(0.8, registry)
	return NewAggregator(model.DefaultConfig().Collateral, extractor)
}

func docReview(name string, docType model.DocumentType) *model.DocumentReview {
	return &model.DocumentReview{
		Name:           name,
		Classification: model.ClassificationResult{Type: docType},
	}
}

// blankEndorsedNote returns a note review whose chain ends in a blank
// endorsement, which resolves ownership as bearer paper
func blankEndorsedNote() *model.DocumentReview {
	r := docReview("note.md", model.DocTypeNote)
	r.Endorsements = &model.Chain{
		Kind: model.ChainKindEndorsement,
		Links: []model.TransferEvent{
			{Sequence: 1, ToParty: "Sunrise Lending LLC", Kind: model.TransferSpecific},
			{Sequence: 2, Kind: model.TransferBlank},
		},
	}
	return r
}

func cleanAssignment() *model.DocumentReview {
	r := docReview("assignment.md", model.DocTypeAssignment)
	r.Assignments = &model.Chain{
		Kind: model.ChainKindAssignment,
		Links: []model.TransferEvent{
			{Sequence: 1, FromParty: "Alpha Mortgage Corp.", ToParty: "Beta Holdings LLC", Kind: model.TransferSpecific},
		},
	}
	return r
}

func hasReason(status *model.LoanCollateralStatus, substr string) bool {
	for _, r := range status.Reasons {
		if strings.Contains(r, substr) {
			return true
		}
	}
	return false
}

func TestRecomputeCompleteFile(t *testing.T) {
	a := newTestAggregator(t)
	ref := model.LoanReference{LoanID: "LN-1001"}
	reviews := []*model.DocumentReview{
		blankEndorsedNote(),
		docReview("mortgage.md", model.DocTypeSecurityInstrument),
		cleanAssignment(),
	}

	status := a.Recompute(ref, reviews)

	if !status.Complete {
		t.Errorf("expected complete, reasons: %v", status.Reasons)
	}
	if status.Score != 100 {
		t.Errorf("score = %d, want 100", status.Score)
	}
	if len(status.Reasons) != 0 {
		t.Errorf("unexpected reasons: %v", status.Reasons)
	}
	for _, dt := range []model.DocumentType{model.DocTypeNote, model.DocTypeSecurityInstrument, model.DocTypeAssignment} {
		check := status.Check(dt)
		if check == nil || !check.Present || !check.Validated {
			t.Errorf("check for %s = %+v", dt, check)
		}
	}
	if status.AssignmentChain == nil || len(status.AssignmentChain.Links) != 1 {
		t.Errorf("assignment chain = %+v", status.AssignmentChain)
	}
	if status.NoteChain == nil || !status.NoteChain.EndsInBlank {
		t.Errorf("note chain = %+v", status.NoteChain)
	}
}

func TestRecomputeMissingDocument(t *testing.T) {
	a := newTestAggregator(t)
	status := a.Recompute(model.LoanReference{LoanID: "LN-1002"}, []*model.DocumentReview{
		blankEndorsedNote(),
		docReview("mortgage.md", model.DocTypeSecurityInstrument),
	})

	if status.Complete {
		t.Error("incomplete file marked complete")
	}
	if !hasReason(status, "missing Assignment") {
		t.Errorf("reasons = %v", status.Reasons)
	}
	if check := status.Check(model.DocTypeAssignment); check == nil || check.Present {
		t.Errorf("assignment check = %+v", check)
	}
	if status.AssignmentChain != nil {
		t.Error("no assignment documents should mean no stitched chain")
	}
}

func TestRecomputeGapReportedNotForgiven(t *testing.T) {
	a := newTestAggregator(t, "Delta Trust")

	gapped := docReview("assignment.md", model.DocTypeAssignment)
	gapped.Assignments = &model.Chain{
		Kind: model.ChainKindAssignment,
		Links: []model.TransferEvent{
			{Sequence: 1, FromParty: "Alpha Mortgage Corp.", ToParty: "Beta Holdings LLC", Kind: model.TransferSpecific},
			{Sequence: 2, FromParty: "Gamma Investments LLC", ToParty: "Delta Trust", Kind: model.TransferSpecific},
		},
	}

	status := a.Recompute(model.LoanReference{LoanID: "LN-1003"}, []*model.DocumentReview{
		blankEndorsedNote(),
		docReview("mortgage.md", model.DocTypeSecurityInstrument),
		gapped,
	})

	if status.Complete {
		t.Error("a gapped chain can never yield a complete verdict")
	}
	if !hasReason(status, "assignment chain has 1 gap(s)") {
		t.Errorf("reasons = %v", status.Reasons)
	}
	// A recognized terminal holder is surfaced for the reviewer but
	// does not repair the chain
	if !hasReason(status, "recognized holder despite gaps") {
		t.Errorf("reasons = %v", status.Reasons)
	}
	if !status.AssignmentChain.EndsWithKnownHolder {
		t.Error("terminal assignee should match the registry")
	}
}

func TestRecomputeAssignmentWithoutTransferLanguage(t *testing.T) {
	a := newTestAggregator(t)

	empty := docReview("assignment.md", model.DocTypeAssignment)
	empty.Assignments = &model.Chain{Kind: model.ChainKindAssignment}

	status := a.Recompute(model.LoanReference{LoanID: "LN-1004"}, []*model.DocumentReview{
		blankEndorsedNote(),
		docReview("mortgage.md", model.DocTypeSecurityInstrument),
		empty,
	})

	if !hasReason(status, "no transfer language detected") {
		t.Errorf("reasons = %v", status.Reasons)
	}
}

func TestRecomputeNoteOwnershipUnresolved(t *testing.T) {
	a := newTestAggregator(t)

	note := docReview("note.md", model.DocTypeNote)
	note.Endorsements = &model.Chain{
		Kind: model.ChainKindEndorsement,
		Links: []model.TransferEvent{
			{Sequence: 1, ToParty: "Sunrise Lending LLC", Kind: model.TransferSpecific},
		},
	}

	status := a.Recompute(model.LoanReference{LoanID: "LN-1005"}, []*model.DocumentReview{
		note,
		docReview("mortgage.md", model.DocTypeSecurityInstrument),
		cleanAssignment(),
	})

	if status.Complete {
		t.Error("unresolved note ownership marked complete")
	}
	if !hasReason(status, "not a recognized holder") {
		t.Errorf("reasons = %v", status.Reasons)
	}
}

func TestRecomputeNoteResolvedByRegistry(t *testing.T) {
	a := newTestAggregator(t, "Sunrise Lending")

	note := docReview("note.md", model.DocTypeNote)
	note.Endorsements = &model.Chain{
		Kind: model.ChainKindEndorsement,
		Links: []model.TransferEvent{
			{Sequence: 1, ToParty: "Sunrise Lending LLC", Kind: model.TransferSpecific},
		},
	}

	status := a.Recompute(model.LoanReference{LoanID: "LN-1006"}, []*model.DocumentReview{
		note,
		docReview("mortgage.md", model.DocTypeSecurityInstrument),
		cleanAssignment(),
	})

	if !status.Complete {
		t.Errorf("registry-resolved ownership should complete the file, reasons: %v", status.Reasons)
	}
}

func TestRecomputeNoEndorsements(t *testing.T) {
	a := newTestAggregator(t)

	status := a.Recompute(model.LoanReference{LoanID: "LN-1007"}, []*model.DocumentReview{
		docReview("note.md", model.DocTypeNote),
		docReview("mortgage.md", model.DocTypeSecurityInstrument),
		cleanAssignment(),
	})

	if status.Complete {
		t.Error("a note with no endorsements has unresolved ownership")
	}
	if !hasReason(status, "no endorsements detected on note") {
		t.Errorf("reasons = %v", status.Reasons)
	}
}

func TestRecomputeIdempotent(t *testing.T) {
	fixed := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	orig := nowFunc
	nowFunc = func() time.Time { return fixed }
	defer func() { nowFunc = orig }()

	a := newTestAggregator(t)
	ref := model.LoanReference{LoanID: "LN-1008", BorrowerName: "John Smith"}
	reviews := []*model.DocumentReview{
		blankEndorsedNote(),
		docReview("mortgage.md", model.DocTypeSecurityInstrument),
		cleanAssignment(),
	}

	first := a.Recompute(ref, reviews)
	second := a.Recompute(ref, reviews)

	if !first.ComputedAt.Equal(fixed) {
		t.Errorf("ComputedAt = %v", first.ComputedAt)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("recomputation is not stable:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestValidateBestKeepsCleanestDocument(t *testing.T) {
	a := newTestAggregator(t)
	ref := model.LoanReference{LoanID: "LN-1009", BorrowerName: "John Smith"}

	bad := docReview("note-copy.md", model.DocTypeNote)
	bad.Fields.BorrowerName = "Mary Johnson"
	good := docReview("note.md", model.DocTypeNote)
	good.Fields.BorrowerName = "John Smith"

	validated, issues := a.validateBest(ref, []*model.DocumentReview{bad, good})
	if !validated {
		t.Errorf("clean copy should validate the type, issues: %v", issues)
	}
	if len(issues) != 0 {
		t.Errorf("issues = %v", issues)
	}
}

func TestValidateFieldsBorrowerName(t *testing.T) {
	a := newTestAggregator(t)

	tests := []struct {
		name     string
		doc      string
		severity model.ValidationSeverity // "" means no issue
	}{
		{"exact match", "John Smith", ""},
		{"minor variant warns", "Jonathan Smith", model.ValidationWarning},
		{"different person errors", "Mary Johnson", model.ValidationError},
		{"absent field warns", "", model.ValidationWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := model.LoanReference{BorrowerName: "John Smith"}
			issues := a.validateFields(ref, model.ExtractedFields{BorrowerName: tt.doc})
			if tt.severity == "" {
				if len(issues) != 0 {
					t.Errorf("issues = %v", issues)
				}
				return
			}
			if len(issues) != 1 || issues[0].Severity != tt.severity {
				t.Errorf("issues = %v, want one %s", issues, tt.severity)
			}
			if len(issues) == 1 && issues[0].Field != "borrower_name" {
				t.Errorf("field = %s", issues[0].Field)
			}
		})
	}
}

func TestValidateFieldsAddress(t *testing.T) {
	a := newTestAggregator(t)
	ref := model.LoanReference{PropertyAddress: "123 Maple Street, Springfield, IL 62704"}

	tests := []struct {
		name     string
		doc      string
		severity model.ValidationSeverity
	}{
		{"full match", "123 Maple Street, Springfield, IL 62704", ""},
		{"partial overlap warns", "123 Maple Avenue", model.ValidationWarning},
		{"wrong property errors", "900 Oak Lane", model.ValidationError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := a.validateFields(ref, model.ExtractedFields{PropertyAddress: tt.doc})
			if tt.severity == "" {
				if len(issues) != 0 {
					t.Errorf("issues = %v", issues)
				}
				return
			}
			if len(issues) != 1 || issues[0].Severity != tt.severity {
				t.Errorf("issues = %v, want one %s", issues, tt.severity)
			}
		})
	}
}

func TestValidateFieldsAmount(t *testing.T) {
	a := newTestAggregator(t)
	ref := model.LoanReference{LoanAmount: 250000}

	tests := []struct {
		name     string
		amount   float64
		severity model.ValidationSeverity
	}{
		{"within tolerance", 250000, ""},
		{"rounding drift ok", 252000, ""}, // 0.8%, inside 5%
		{"moderate drift warns", 268000, model.ValidationWarning}, // 7.2%
		{"gross mismatch errors", 300000, model.ValidationError},  // 20%
		{"absent amount skipped", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := a.validateFields(ref, model.ExtractedFields{LoanAmount: tt.amount})
			if tt.severity == "" {
				if len(issues) != 0 {
					t.Errorf("issues = %v", issues)
				}
				return
			}
			if len(issues) != 1 || issues[0].Severity != tt.severity {
				t.Errorf("issues = %v, want one %s", issues, tt.severity)
			}
		})
	}
}

func TestTokenOverlap(t *testing.T) {
	tests := []struct {
		doc, ref string
		want     float64
	}{
		{"123 Maple Street", "123 Maple Street", 1},
		{"123 MAPLE STREET,", "123 Maple Street", 1}, // folding ignores case and punctuation
		{"somewhere else entirely", "123 Maple Street", 0},
		{"", "123 Maple Street", 0},
		{"123 Maple Street", "", 0},
	}
	for _, tt := range tests {
		if got := tokenOverlap(tt.doc, tt.ref); got != tt.want {
			t.Errorf("tokenOverlap(%q, %q) = %v, want %v", tt.doc, tt.ref, got, tt.want)
		}
	}
}
