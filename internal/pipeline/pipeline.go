package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/nplvision/titletrace/internal/cache"
	"github.com/nplvision/titletrace/internal/catalog"
	"github.com/nplvision/titletrace/internal/chain"
	"github.com/nplvision/titletrace/internal/classify"
	"github.com/nplvision/titletrace/internal/collateral"
	"github.com/nplvision/titletrace/internal/llm"
	"github.com/nplvision/titletrace/internal/model"
	"github.com/nplvision/titletrace/internal/normalize"
	"github.com/nplvision/titletrace/internal/worker"
)

// Reviewer orchestrates the complete document review process
type Reviewer struct {
	classifier *classify.Classifier
	extractor  *chain.Extractor
	aggregator *collateral.Aggregator
	renderer   *Renderer
	provider   llm.Provider    // Optional second-opinion provider (nil if disabled)
	limiter    *worker.Limiter // Rate limits the provider, nil when no provider
	cache      cache.Cache     // Review result cache, nil when disabled
	config     *model.Config
}

// NewReviewer creates a new reviewer with the given configuration
func NewReviewer(cfg *model.Config) (*Reviewer, error) {
	// 1. Build the pattern catalog (defaults, optionally overlaid)
	var cat *catalog.Catalog
	if cfg.Catalog.Path != "" {
		loaded, err := catalog.Load(cfg.Catalog.Path)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		cat = loaded
	} else {
		cat = catalog.Default()
	}

	// 2. Holder registry for chain terminus matching
	registry, err := chain.NewHolderRegistry(cfg.Chain.HolderNames, cfg.Chain.HolderPatterns)
	if err != nil {
		return nil, fmt.Errorf("build holder registry: %w", err)
	}

	extractor := chain.NewExtractor(cfg.Chain.SimilarityThreshold, registry)

	// 3. Optional second-opinion provider. A broken provider config
	// degrades to heuristic-only review, it never blocks reviews.
	var provider llm.Provider
	var limiter *worker.Limiter
	if cfg.LLM.Provider != "" {
		p, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize LLM provider: %v\n", err)
		} else {
			provider = p
			limiter = worker.NewLimiter(cfg.LLM.RequestsPerSecond, 1)
		}
	}

	// 4. Review result cache
	var reviewCache cache.Cache
	if cfg.Cache.Enabled {
		if cfg.Cache.Dir != "" {
			reviewCache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		} else {
			reviewCache = cache.NewMemoryCache(cfg.Cache.MemoryTTL, 10*time.Minute)
		}
	}

	return &Reviewer{
		classifier: classify.New(cat, cfg.Classify),
		extractor:  extractor,
		aggregator: collateral.NewAggregator(cfg.Collateral, extractor),
		renderer:   NewRenderer(cfg.Output.IncludeFooter),
		provider:   provider,
		limiter:    limiter,
		cache:      reviewCache,
		config:     cfg,
	}, nil
}

// ReviewFile reviews a single document file, serving from the cache
// when the file content is unchanged
func (r *Reviewer) ReviewFile(ctx context.Context, path string) (*model.DocumentReview, error) {
	doc, err := LoadDocument(path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	key := cache.Key(doc.Content)
	if r.cache != nil {
		if data, found := r.cache.Get(key); found {
			var cached model.DocumentReview
			if err := json.Unmarshal(data, &cached); err == nil {
				if r.config.Output.Verbose {
					fmt.Fprintf(os.Stderr, "cache hit: %s\n", doc.Name)
				}
				return &cached, nil
			}
			// Corrupt entry, fall through and recompute
			_ = r.cache.Delete(key)
		}
	}

	review, err := r.Review(ctx, doc.Name, string(doc.Content))
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if data, err := json.Marshal(review); err == nil {
			_ = r.cache.Set(key, data, 0)
		}
	}

	return review, nil
}

// Review runs the full analysis for one document given its raw text
func (r *Reviewer) Review(ctx context.Context, name string, raw string) (*model.DocumentReview, error) {
	// 1. Normalize markdown/OCR text into scannable form
	doc := normalize.Normalize(raw)

	// 2. Classify
	classification := r.classifier.Classify(doc)

	if r.config.Output.Verbose {
		fmt.Fprintf(os.Stderr, "%s: classified as %s (confidence %.2f, %d words)\n",
			name, classification.Type, classification.Confidence, classification.WordCount)
	}

	review := &model.DocumentReview{
		Name:           name,
		ReviewedAt:     time.Now().UTC(),
		Classification: classification,
	}

	// 3. Extract the custody chain matching the verdict. Endorsement
	// and assignment language overlap enough that running both
	// extractors on every document produces noise links.
	switch classification.Type {
	case model.DocTypeNote:
		endorsements := r.extractor.Endorsements(doc)
		review.Endorsements = &endorsements
	case model.DocTypeAssignment:
		assignments := r.extractor.Assignments(doc)
		review.Assignments = &assignments
	}

	// 4. Pull cross-validation fields
	review.Fields = collateral.ExtractFields(doc)

	// 5. Optional second opinion on low-confidence verdicts. Recorded
	// alongside the heuristic verdict, never overriding it.
	if r.provider != nil && classification.Confidence < r.config.LLM.MinConfidence {
		review.LLM = r.secondOpinion(ctx, doc, classification)
	}

	return review, nil
}

// ReviewLoan reviews every document of one loan and recomputes the
// collateral completeness status from scratch
func (r *Reviewer) ReviewLoan(ctx context.Context, ref model.LoanReference, paths []string) (*model.LoanCollateralStatus, []*model.DocumentReview, error) {
	var reviews []*model.DocumentReview
	for _, path := range paths {
		review, err := r.ReviewFile(ctx, path)
		if err != nil {
			return nil, nil, fmt.Errorf("review %s: %w", path, err)
		}
		reviews = append(reviews, review)
	}

	status := r.aggregator.Recompute(ref, reviews)
	return status, reviews, nil
}

// RenderReview renders a document review to the specified outputs
func (r *Reviewer) RenderReview(review *model.DocumentReview, jsonPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := r.renderer.RenderJSON(review, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := r.renderer.RenderReviewMarkdown(review, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	r.renderer.RenderReviewSummary(review)
	return nil
}

// RenderLoan renders a loan collateral status to the specified outputs
func (r *Reviewer) RenderLoan(status *model.LoanCollateralStatus, reviews []*model.DocumentReview, jsonPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := r.renderer.RenderJSON(status, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := r.renderer.RenderLoanMarkdown(status, reviews, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	r.renderer.RenderLoanSummary(status)
	return nil
}

// secondOpinion consults the configured provider and compares its
// label against the heuristic verdict
func (r *Reviewer) secondOpinion(ctx context.Context, doc normalize.Document, classification model.ClassificationResult) *model.LLMOpinion {
	opinion := &model.LLMOpinion{
		Enabled:  true,
		Provider: r.provider.Name(),
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx, r.provider.Name()); err != nil {
			opinion.Warnings = append(opinion.Warnings, fmt.Sprintf("rate limit wait: %v", err))
			return opinion
		}
	}

	resp, err := r.provider.ClassifyLabel(ctx, llm.ClassifyRequest{
		Excerpt: llm.Excerpt(doc.ScanText),
		Labels:  llm.DefaultLabels(),
	})
	if err != nil {
		// A failed or out-of-set answer is recorded and ignored
		opinion.Warnings = append(opinion.Warnings, fmt.Sprintf("second opinion unavailable: %v", err))
		return opinion
	}

	opinion.Model = resp.Model
	opinion.Label = resp.Label
	opinion.Agrees = resp.Label == classification.Type
	if !opinion.Agrees {
		opinion.Warnings = append(opinion.Warnings,
			fmt.Sprintf("model labeled the document %q, heuristic verdict is %q", resp.Label, classification.Type))
	}

	return opinion
}
