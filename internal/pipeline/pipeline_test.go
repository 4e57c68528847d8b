package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/nplvision/titletrace/internal/cache"
	"github.com/nplvision/titletrace/internal/model"
)

const noteDocText = `# ADJUSTABLE RATE NOTE

This promissory note is dated January 5, 2018.

In return for a loan that I have received, I promise to pay U.S.
$250,000.00 (this amount is called "Principal"), plus interest, to the
order of the Lender. The principal amount bears an interest rate of
4.125% per year. I will make my monthly payment on the first day of
each month. The maturity date of this note is February 1, 2048. The
note holder may charge a late charge for overdue payments. Pay to the
order of Sunrise Lending LLC without recourse.`

const assignmentDocText = `ASSIGNMENT OF MORTGAGE

For value received, Alpha Mortgage Corp. (assignor) hereby assigns and
transfers to Beta Servicing Inc. (assignee) all its right, title and
interest in that certain mortgage dated January 5, 2018, recorded in
Book 412, Page 88, together with the note therein described. Mortgage
Electronic Registration Systems, Inc. appears of record as nominee.
Acknowledged before me this 14th day of March, 2019, notary public in
and for said county. Instrument No. 2019-004512.`

func newTestReviewer(t *testing.T) *Reviewer {
	t.Helper()
	r, err := NewReviewer(model.DefaultConfig())
	if err != nil {
		t.Fatalf("NewReviewer failed: %v", err)
	}
	return r
}

func TestReviewRoutesChainsByVerdict(t *testing.T) {
	r := newTestReviewer(t)
	ctx := context.Background()

	note, err := r.Review(ctx, "note.md", noteDocText)
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if note.Classification.Type != model.DocTypeNote {
		t.Fatalf("note classified as %s", note.Classification.Type)
	}
	if note.Endorsements == nil || len(note.Endorsements.Links) == 0 {
		t.Error("note review should carry an endorsement chain")
	}
	if note.Assignments != nil {
		t.Error("note review should not carry an assignment chain")
	}
	if note.Fields.LoanAmount != 250000 {
		t.Errorf("note amount = %v", note.Fields.LoanAmount)
	}

	assign, err := r.Review(ctx, "assignment.md", assignmentDocText)
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if assign.Classification.Type != model.DocTypeAssignment {
		t.Fatalf("assignment classified as %s", assign.Classification.Type)
	}
	if assign.Assignments == nil || len(assign.Assignments.Links) == 0 {
		t.Error("assignment review should carry an assignment chain")
	}
	if assign.Endorsements != nil {
		t.Error("assignment review should not carry an endorsement chain")
	}
}

func TestReviewNoSecondOpinionWhenDisabled(t *testing.T) {
	r := newTestReviewer(t)

	review, err := r.Review(context.Background(), "doc.md", "lender interest rate "+strings.Repeat("word ", 30))
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	// Low confidence, but no provider is configured
	if review.LLM != nil {
		t.Errorf("LLM opinion = %+v, want nil", review.LLM)
	}
}

func TestReviewFileServesFromCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.md")
	if err := os.WriteFile(path, []byte(noteDocText), 0o644); err != nil {
		t.Fatal(err)
	}

	r := newTestReviewer(t)
	ctx := context.Background()

	first, err := r.ReviewFile(ctx, path)
	if err != nil {
		t.Fatalf("first ReviewFile failed: %v", err)
	}
	second, err := r.ReviewFile(ctx, path)
	if err != nil {
		t.Fatalf("second ReviewFile failed: %v", err)
	}

	// Unchanged content is served from the cache, including the
	// original review timestamp
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached review differs:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestReviewFileRecoversFromCorruptCacheEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.md")
	if err := os.WriteFile(path, []byte(noteDocText), 0o644); err != nil {
		t.Fatal(err)
	}

	r := newTestReviewer(t)
	key := cache.Key([]byte(noteDocText))
	if err := r.cache.Set(key, []byte("{not valid json"), 0); err != nil {
		t.Fatal(err)
	}

	review, err := r.ReviewFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ReviewFile failed: %v", err)
	}
	if review.Classification.Type != model.DocTypeNote {
		t.Errorf("classified as %s after cache recovery", review.Classification.Type)
	}
}

func TestReviewLoan(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"note.md":       noteDocText,
		"assignment.md": assignmentDocText,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	paths, err := ListDocuments(dir)
	if err != nil {
		t.Fatal(err)
	}

	r := newTestReviewer(t)
	ref := model.LoanReference{LoanID: "LN-2001"}

	status, reviews, err := r.ReviewLoan(context.Background(), ref, paths)
	if err != nil {
		t.Fatalf("ReviewLoan failed: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("reviews = %d", len(reviews))
	}
	if status.LoanID != "LN-2001" {
		t.Errorf("loan id = %q", status.LoanID)
	}
	if status.Complete {
		t.Error("file without a security instrument marked complete")
	}
	found := false
	for _, reason := range status.Reasons {
		if strings.Contains(reason, "missing Security Instrument") {
			found = true
		}
	}
	if !found {
		t.Errorf("reasons = %v", status.Reasons)
	}
}
