package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nplvision/titletrace/internal/model"
	"github.com/nplvision/titletrace/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	outJSON     string
	outMD       string
	timeout     time.Duration
	catalogPath string
	noCache     bool
	cacheDir    string
	noFooter    bool
	llmEnabled  bool
	llmProvider string
	llmModel    string
	holders     []string
	holderRes   []string
)

// reviewCmd represents the review command
var reviewCmd = &cobra.Command{
	Use:   "review <file>",
	Short: "Review a single loan document and generate a classification report",
	Long: `Review analyzes a single OCR-converted loan document to:
- Classify the instrument (note, security instrument, assignment)
- Reconstruct the endorsement or assignment custody chain
- Flag chain gaps and blank endorsements
- Extract borrower, property, and amount fields

Example:
  titletrace review note.md
  titletrace review assignment_2.md --json report.json --md report.md
  titletrace review scanned.md --llm openai --llm-model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	// Output flags
	reviewCmd.Flags().StringVar(&outJSON, "json", "review.json", "output JSON path")
	reviewCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")

	// Review flags
	reviewCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall review timeout (matters only with an LLM provider)")
	reviewCmd.Flags().StringVar(&catalogPath, "catalog", "", "YAML pattern catalog overlay")
	reviewCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh review)")
	reviewCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "disk cache directory (default: memory only)")
	reviewCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	reviewCmd.Flags().StringSliceVar(&holders, "holder", nil, "known holder entity name (repeatable)")
	reviewCmd.Flags().StringSliceVar(&holderRes, "holder-pattern", nil, "known holder regex (repeatable)")

	// LLM flags
	reviewCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM second opinion on low-confidence verdicts")
	reviewCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	reviewCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runReview(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Reviewing: %s\n", path)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", !noCache)
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

	review, err := reviewer.ReviewFile(ctx, path)
	if err != nil {
		return fmt.Errorf("review failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Classified as %s (confidence %.2f)\n",
			review.Classification.Type.DisplayName(), review.Classification.Confidence)
		if review.Endorsements != nil {
			fmt.Fprintf(os.Stderr, "✓ Extracted %d endorsement(s)\n", len(review.Endorsements.Links))
		}
		if review.Assignments != nil {
			fmt.Fprintf(os.Stderr, "✓ Extracted %d assignment(s)\n", len(review.Assignments.Links))
		}
		fmt.Fprintln(os.Stderr)
	}

	if err := reviewer.RenderReview(review, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}

// buildConfig assembles the runtime configuration. Precedence, highest
// first: CLI flags, TITLETRACE_* environment, config file, defaults.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	applyViperConfig(cfg)

	// Flags override the file and environment, but only when given
	if catalogPath != "" {
		cfg.Catalog.Path = catalogPath
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if cacheDir != "" {
		cfg.Cache.Dir = cacheDir
	}
	cfg.Chain.HolderNames = append(cfg.Chain.HolderNames, holders...)
	cfg.Chain.HolderPatterns = append(cfg.Chain.HolderPatterns, holderRes...)
	if verbose {
		cfg.Output.Verbose = true
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	if llmEnabled {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.Model = llmModel
	}

	// A provider set by any source gets its credentials from the
	// environment; keys never live in the config file
	if cfg.LLM.Provider != "" {
		switch strings.ToLower(cfg.LLM.Provider) {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		case "ollama":
			// Ollama doesn't need an API key
			if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
				cfg.LLM.BaseURL = baseURL
			}
		default:
			return nil, fmt.Errorf("unknown LLM provider: %s", cfg.LLM.Provider)
		}
	}

	return cfg, nil
}

// applyViperConfig overlays config-file and TITLETRACE_* environment
// values onto cfg. Each key mirrors the struct's yaml tag path.
func applyViperConfig(cfg *model.Config) {
	setString := func(key string, dst *string) {
		if viper.IsSet(key) {
			*dst = viper.GetString(key)
		}
	}
	setStrings := func(key string, dst *[]string) {
		if viper.IsSet(key) {
			*dst = viper.GetStringSlice(key)
		}
	}
	setInt := func(key string, dst *int) {
		if viper.IsSet(key) {
			*dst = viper.GetInt(key)
		}
	}
	setFloat := func(key string, dst *float64) {
		if viper.IsSet(key) {
			*dst = viper.GetFloat64(key)
		}
	}
	setBool := func(key string, dst *bool) {
		if viper.IsSet(key) {
			*dst = viper.GetBool(key)
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if viper.IsSet(key) {
			*dst = viper.GetDuration(key)
		}
	}

	setString("catalog.path", &cfg.Catalog.Path)

	setInt("classify.min_words", &cfg.Classify.MinWords)
	setInt("classify.short_doc_words", &cfg.Classify.ShortDocWords)
	setFloat("classify.short_note_bonus", &cfg.Classify.ShortNoteBonus)
	setFloat("classify.short_doc_penalty", &cfg.Classify.ShortDocPenalty)
	setFloat("classify.section_bonus", &cfg.Classify.SectionBonus)

	setFloat("chain.similarity_threshold", &cfg.Chain.SimilarityThreshold)
	setStrings("chain.holder_names", &cfg.Chain.HolderNames)
	setStrings("chain.holder_patterns", &cfg.Chain.HolderPatterns)

	setFloat("collateral.name_similarity_warn", &cfg.Collateral.NameSimilarityWarn)
	setFloat("collateral.name_similarity_error", &cfg.Collateral.NameSimilarityError)
	setFloat("collateral.address_overlap_warn", &cfg.Collateral.AddressOverlapWarn)
	setFloat("collateral.amount_tolerance", &cfg.Collateral.AmountTolerance)

	setBool("cache.enabled", &cfg.Cache.Enabled)
	setString("cache.dir", &cfg.Cache.Dir)
	setDuration("cache.memory_ttl", &cfg.Cache.MemoryTTL)
	setDuration("cache.disk_ttl", &cfg.Cache.DiskTTL)

	setInt("concurrency.review_workers", &cfg.Concurrency.ReviewWorkers)

	setString("llm.provider", &cfg.LLM.Provider)
	setString("llm.model", &cfg.LLM.Model)
	setString("llm.base_url", &cfg.LLM.BaseURL)
	setInt("llm.timeout", &cfg.LLM.Timeout)
	setInt("llm.max_tokens", &cfg.LLM.MaxTokens)
	setFloat("llm.min_confidence", &cfg.LLM.MinConfidence)
	setFloat("llm.requests_per_second", &cfg.LLM.RequestsPerSecond)
	setString("llm.http_proxy", &cfg.LLM.HTTPProxy)
	setString("llm.https_proxy", &cfg.LLM.HTTPSProxy)
	setString("llm.no_proxy", &cfg.LLM.NoProxy)

	setBool("output.verbose", &cfg.Output.Verbose)
	setBool("output.include_footer", &cfg.Output.IncludeFooter)
}
