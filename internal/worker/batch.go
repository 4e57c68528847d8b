package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/nplvision/titletrace/internal/model"
)

// Reviewer defines the interface for reviewing a document file
type Reviewer interface {
	ReviewFile(ctx context.Context, path string) (*model.DocumentReview, error)
}

// ReviewJob represents a document review job
type ReviewJob struct {
	Path     string
	Reviewer Reviewer
}

// Execute executes the review job
func (j *ReviewJob) Execute(ctx context.Context) Result {
	review, err := j.Reviewer.ReviewFile(ctx, j.Path)
	if err != nil {
		return &ReviewResult{
			Path:   j.Path,
			Review: nil,
			Error:  err,
		}
	}
	return &ReviewResult{
		Path:   j.Path,
		Review: review,
		Error:  nil,
	}
}

// ReviewResult represents the result of a review job
type ReviewResult struct {
	Path   string
	Review *model.DocumentReview
	Error  error
}

// GetError returns the error from the review result
func (r *ReviewResult) GetError() error {
	return r.Error
}

// BatchProcessor processes multiple document files concurrently
type BatchProcessor struct {
	reviewer    Reviewer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(reviewer Reviewer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		reviewer:    reviewer,
		concurrency: concurrency,
	}
}

// ProcessPaths reviews multiple document files concurrently
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*ReviewResult {
	if len(paths) == 0 {
		return []*ReviewResult{}
	}

	// Create worker pool
	pool := NewPool(b.concurrency)
	pool.Start()

	// Submit jobs
	for _, path := range paths {
		job := &ReviewJob{
			Path:     path,
			Reviewer: b.reviewer,
		}
		pool.Submit(job)
	}

	// Wait for all jobs to complete
	results := pool.Wait()

	// Convert to ReviewResults
	reviewResults := make([]*ReviewResult, len(results))
	for i, result := range results {
		reviewResults[i] = result.(*ReviewResult)
	}

	return reviewResults
}

// ProcessManifest reads document paths from a manifest file and
// reviews them concurrently
func (b *BatchProcessor) ProcessManifest(ctx context.Context, manifestPath string) ([]*ReviewResult, error) {
	paths, err := ReadPathsFromFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	return b.ProcessPaths(ctx, paths), nil
}

// ReadPathsFromFile reads document paths from a file (one per line)
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Deduplicate paths
		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
