package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nplvision/titletrace/internal/model"
	"github.com/nplvision/titletrace/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	loanID       string
	borrowerName string
	propertyAddr string
	loanAmount   float64
	loanTimeout  time.Duration
)

// loanCmd represents the loan command
var loanCmd = &cobra.Command{
	Use:   "loan <dir>",
	Short: "Review all documents of one loan and compute collateral completeness",
	Long: `Loan reviews every document file in a directory as a single loan's
collateral package:
- Classify each document
- Stitch endorsement and assignment chains across documents
- Cross-validate borrower, property, and amount against the loan record
- Compute a completeness verdict and 0-100 score

The status is always recomputed from the full document set.

Example:
  titletrace loan ./loans/1001
  titletrace loan ./loans/1001 --loan-id 1001 --borrower "Jane A. Smith"
  titletrace loan ./loans/1001 --address "12 Oak St, Springfield" --amount 250000`,
	Args: cobra.ExactArgs(1),
	RunE: runLoan,
}

func init() {
	rootCmd.AddCommand(loanCmd)

	// Loan record flags, all optional
	loanCmd.Flags().StringVar(&loanID, "loan-id", "", "loan identifier (default: directory name)")
	loanCmd.Flags().StringVar(&borrowerName, "borrower", "", "borrower name from the loan record")
	loanCmd.Flags().StringVar(&propertyAddr, "address", "", "property address from the loan record")
	loanCmd.Flags().Float64Var(&loanAmount, "amount", 0, "original loan amount from the loan record")

	// Output flags
	loanCmd.Flags().StringVar(&outJSON, "json", "loan.json", "output JSON path")
	loanCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")

	// Review flags shared with the review command
	loanCmd.Flags().DurationVar(&loanTimeout, "timeout", 5*time.Minute, "overall timeout for the loan review")
	loanCmd.Flags().StringVar(&catalogPath, "catalog", "", "YAML pattern catalog overlay")
	loanCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh reviews)")
	loanCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "disk cache directory (default: memory only)")
	loanCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	loanCmd.Flags().StringSliceVar(&holders, "holder", nil, "known holder entity name (repeatable)")
	loanCmd.Flags().StringSliceVar(&holderRes, "holder-pattern", nil, "known holder regex (repeatable)")

	// LLM flags
	loanCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM second opinion on low-confidence verdicts")
	loanCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	loanCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runLoan(cmd *cobra.Command, args []string) error {
	dir := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), loanTimeout)
	defer cancel()

	paths, err := pipeline.ListDocuments(dir)
	if err != nil {
		return err
	}

	id := loanID
	if id == "" {
		id = filepath.Base(filepath.Clean(dir))
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Loan: %s\n", id)
		fmt.Fprintf(os.Stderr, "Documents: %d\n", len(paths))
		fmt.Fprintln(os.Stderr)
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	reviewer, err := pipeline.NewReviewer(cfg)
	if err != nil {
		return fmt.Errorf("initialize reviewer: %w", err)
	}

	ref := model.LoanReference{
		LoanID:          id,
		BorrowerName:    borrowerName,
		PropertyAddress: propertyAddr,
		LoanAmount:      loanAmount,
	}

	status, reviews, err := reviewer.ReviewLoan(ctx, ref, paths)
	if err != nil {
		return fmt.Errorf("loan review failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Reviewed %d documents\n", len(reviews))
		fmt.Fprintf(os.Stderr, "✓ Collateral score: %d/100\n", status.Score)
		fmt.Fprintln(os.Stderr)
	}

	if err := reviewer.RenderLoan(status, reviews, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}
