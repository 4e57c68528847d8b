package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/nplvision/titletrace/internal/model"
)

// Renderer writes reviews and loan statuses to JSON and Markdown
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a new renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes any report value as indented JSON
func (r *Renderer) RenderJSON(v interface{}, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// RenderReviewMarkdown writes a human-readable document review report
func (r *Renderer) RenderReviewMarkdown(review *model.DocumentReview, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Document Review: %s\n\n", review.Name)
	fmt.Fprintf(&b, "- **Type**: %s\n", review.Classification.Type.DisplayName())
	fmt.Fprintf(&b, "- **Confidence**: %.2f\n", review.Classification.Confidence)
	fmt.Fprintf(&b, "- **Words**: %d\n", review.Classification.WordCount)
	if review.Classification.Forced {
		fmt.Fprintf(&b, "- **Note**: best candidate %s scored below its acceptance threshold\n",
			review.Classification.BestType.DisplayName())
	}
	fmt.Fprintf(&b, "- **Reviewed**: %s\n\n", review.ReviewedAt.Format("2006-01-02 15:04:05 UTC"))

	if len(review.Classification.Scores) > 0 {
		b.WriteString("## Scores\n\n")
		b.WriteString("| Type | Score |\n|------|-------|\n")
		for _, t := range model.CandidateTypes {
			fmt.Fprintf(&b, "| %s | %.1f |\n", t.DisplayName(), review.Classification.Scores[t])
		}
		b.WriteString("\n")
	}

	if review.Endorsements != nil {
		renderChain(&b, "Endorsement Chain", review.Endorsements)
	}
	if review.Assignments != nil {
		renderChain(&b, "Assignment Chain", review.Assignments)
	}

	if review.Fields.BorrowerName != "" || review.Fields.PropertyAddress != "" || review.Fields.LoanAmount > 0 {
		b.WriteString("## Extracted Fields\n\n")
		if review.Fields.BorrowerName != "" {
			fmt.Fprintf(&b, "- **Borrower**: %s\n", review.Fields.BorrowerName)
		}
		if review.Fields.PropertyAddress != "" {
			fmt.Fprintf(&b, "- **Property**: %s\n", review.Fields.PropertyAddress)
		}
		if review.Fields.LoanAmount > 0 {
			fmt.Fprintf(&b, "- **Amount**: $%.2f\n", review.Fields.LoanAmount)
		}
		b.WriteString("\n")
	}

	if review.LLM != nil && review.LLM.Enabled {
		b.WriteString("## Second Opinion\n\n")
		fmt.Fprintf(&b, "- **Provider**: %s", review.LLM.Provider)
		if review.LLM.Model != "" {
			fmt.Fprintf(&b, " (%s)", review.LLM.Model)
		}
		b.WriteString("\n")
		if review.LLM.Label != "" {
			agreement := "agrees with"
			if !review.LLM.Agrees {
				agreement = "disputes"
			}
			fmt.Fprintf(&b, "- **Label**: %s (%s the heuristic verdict)\n", review.LLM.Label.DisplayName(), agreement)
		}
		for _, w := range review.LLM.Warnings {
			fmt.Fprintf(&b, "- Warning: %s\n", w)
		}
		b.WriteString("\n")
	}

	r.footer(&b)
	return writeMarkdown(path, b.String())
}

// RenderLoanMarkdown writes a human-readable loan collateral report
func (r *Renderer) RenderLoanMarkdown(status *model.LoanCollateralStatus, reviews []*model.DocumentReview, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Collateral Status: %s\n\n", status.LoanID)
	verdict := "INCOMPLETE"
	if status.Complete {
		verdict = "COMPLETE"
	}
	fmt.Fprintf(&b, "- **Verdict**: %s\n", verdict)
	fmt.Fprintf(&b, "- **Score**: %d/100\n", status.Score)
	fmt.Fprintf(&b, "- **Documents reviewed**: %d\n", len(reviews))
	fmt.Fprintf(&b, "- **Computed**: %s\n\n", status.ComputedAt.Format("2006-01-02 15:04:05 UTC"))

	b.WriteString("## Required Documents\n\n")
	b.WriteString("| Document | Present | Validated |\n|----------|---------|----------|\n")
	for _, check := range status.Checks {
		fmt.Fprintf(&b, "| %s | %s | %s |\n",
			check.Type.DisplayName(), yesNo(check.Present), yesNo(check.Validated))
	}
	b.WriteString("\n")

	var issues []model.ValidationIssue
	for _, check := range status.Checks {
		issues = append(issues, check.Issues...)
	}
	if len(issues) > 0 {
		b.WriteString("## Validation Issues\n\n")
		for _, issue := range issues {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", issue.Field, issue.Severity, issue.Detail)
		}
		b.WriteString("\n")
	}

	if status.NoteChain != nil {
		renderChain(&b, "Note Endorsement Chain", status.NoteChain)
	}
	if status.AssignmentChain != nil {
		renderChain(&b, "Assignment Chain", status.AssignmentChain)
	}

	if len(status.Reasons) > 0 {
		b.WriteString("## Findings\n\n")
		for _, reason := range status.Reasons {
			fmt.Fprintf(&b, "- %s\n", reason)
		}
		b.WriteString("\n")
	}

	r.footer(&b)
	return writeMarkdown(path, b.String())
}

// RenderReviewSummary prints a one-screen review summary to stdout
func (r *Renderer) RenderReviewSummary(review *model.DocumentReview) {
	fmt.Printf("\n%s\n", review.Name)
	fmt.Printf("  Type:       %s\n", review.Classification.Type.DisplayName())
	fmt.Printf("  Confidence: %.2f\n", review.Classification.Confidence)
	if review.Endorsements != nil {
		fmt.Printf("  Endorsements: %s\n", chainSummary(review.Endorsements))
	}
	if review.Assignments != nil {
		fmt.Printf("  Assignments:  %s\n", chainSummary(review.Assignments))
	}
	if review.LLM != nil && review.LLM.Enabled && review.LLM.Label != "" && !review.LLM.Agrees {
		fmt.Printf("  Second opinion disagrees: %s\n", review.LLM.Label.DisplayName())
	}
}

// RenderLoanSummary prints a one-screen loan summary to stdout
func (r *Renderer) RenderLoanSummary(status *model.LoanCollateralStatus) {
	verdict := "INCOMPLETE"
	if status.Complete {
		verdict = "COMPLETE"
	}
	fmt.Printf("\nLoan %s: %s (score %d/100)\n", status.LoanID, verdict, status.Score)
	for _, check := range status.Checks {
		marker := "✗"
		if check.Present && check.Validated {
			marker = "✓"
		} else if check.Present {
			marker = "!"
		}
		fmt.Printf("  %s %s\n", marker, check.Type.DisplayName())
	}
	for _, reason := range status.Reasons {
		fmt.Printf("  - %s\n", reason)
	}
}

func renderChain(b *strings.Builder, title string, c *model.Chain) {
	fmt.Fprintf(b, "## %s\n\n", title)

	if len(c.Links) == 0 {
		b.WriteString("No transfers detected.\n\n")
		return
	}

	for _, link := range c.Links {
		to := link.ToParty
		if link.Kind == model.TransferBlank {
			to = "(blank)"
		}
		from := link.FromParty
		if from == "" {
			from = "(unstated)"
		}
		gap := ""
		if link.IsGap {
			gap = " **[GAP]**"
		}
		fmt.Fprintf(b, "%d. %s → %s%s\n", link.Sequence, from, to, gap)
		if link.Recording != nil && !link.Recording.Empty() {
			var parts []string
			if link.Recording.Book != "" {
				parts = append(parts, "Book "+link.Recording.Book)
			}
			if link.Recording.Page != "" {
				parts = append(parts, "Page "+link.Recording.Page)
			}
			if link.Recording.InstrumentNumber != "" {
				parts = append(parts, "Instrument "+link.Recording.InstrumentNumber)
			}
			if link.Recording.Date != "" {
				parts = append(parts, "Recorded "+link.Recording.Date)
			}
			fmt.Fprintf(b, "   - %s\n", strings.Join(parts, ", "))
		}
	}
	b.WriteString("\n")

	if c.EndsInBlank {
		b.WriteString("Chain ends in a blank endorsement (bearer paper).\n\n")
	}
	if c.EndsWithKnownHolder {
		b.WriteString("Chain terminates at a recognized holder.\n\n")
	}
}

func chainSummary(c *model.Chain) string {
	if len(c.Links) == 0 {
		return "none detected"
	}
	desc := fmt.Sprintf("%d link(s)", len(c.Links))
	if c.HasGaps() {
		desc += ", gaps present"
	}
	if c.EndsInBlank {
		desc += ", ends in blank"
	}
	if c.EndsWithKnownHolder {
		desc += ", known holder"
	}
	return desc
}

func (r *Renderer) footer(b *strings.Builder) {
	if r.includeFooter {
		b.WriteString("---\n\nGenerated by titletrace. Heuristic output, not a legal opinion.\n")
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func writeMarkdown(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
