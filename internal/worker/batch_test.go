package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nplvision/titletrace/internal/model"
)

// mockReviewer implements Reviewer
type mockReviewer struct {
	failPaths map[string]bool
}

func (m *mockReviewer) ReviewFile(ctx context.Context, path string) (*model.DocumentReview, error) {
	if m.failPaths[path] {
		return nil, errors.New("unreadable document")
	}
	return &model.DocumentReview{
		Name: filepath.Base(path),
		Classification: model.ClassificationResult{
			Type:       model.DocTypeNote,
			Confidence: 0.9,
		},
	}, nil
}

func TestBatchProcessor_ProcessPaths(t *testing.T) {
	b := NewBatchProcessor(&mockReviewer{}, 4)

	paths := []string{"a/note.md", "a/mortgage.md", "a/assignment.md"}
	results := b.ProcessPaths(context.Background(), paths)

	if len(results) != len(paths) {
		t.Fatalf("expected %d results, got %d", len(paths), len(results))
	}
	for _, res := range results {
		if res.GetError() != nil {
			t.Errorf("unexpected error for %s: %v", res.Path, res.Error)
		}
		if res.Review == nil {
			t.Errorf("missing review for %s", res.Path)
		}
	}
}

func TestBatchProcessor_PartialFailure(t *testing.T) {
	reviewer := &mockReviewer{failPaths: map[string]bool{"bad.md": true}}
	b := NewBatchProcessor(reviewer, 2)

	results := b.ProcessPaths(context.Background(), []string{"good.md", "bad.md"})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	failures := 0
	for _, res := range results {
		if res.GetError() != nil {
			failures++
			if res.Path != "bad.md" {
				t.Errorf("wrong path failed: %s", res.Path)
			}
		}
	}
	if failures != 1 {
		t.Errorf("expected 1 failure, got %d", failures)
	}
}

func TestBatchProcessor_EmptyInput(t *testing.T) {
	b := NewBatchProcessor(&mockReviewer{}, 2)
	results := b.ProcessPaths(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestReadPathsFromFile(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "docs.txt")

	content := `# loan 1001 documents
loans/1001/note.md
loans/1001/mortgage.md

loans/1001/note.md
loans/1001/assignment_1.md
`
	if err := os.WriteFile(manifest, []byte(content), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	paths, err := ReadPathsFromFile(manifest)
	if err != nil {
		t.Fatalf("ReadPathsFromFile failed: %v", err)
	}

	// Comments and blanks skipped, duplicate note.md collapsed
	want := []string{
		"loans/1001/note.md",
		"loans/1001/mortgage.md",
		"loans/1001/assignment_1.md",
	}
	if len(paths) != len(want) {
		t.Fatalf("expected %d paths, got %d: %v", len(want), len(paths), paths)
	}
	for i, p := range paths {
		if p != want[i] {
			t.Errorf("path[%d] = %q, want %q", i, p, want[i])
		}
	}
}

func TestReadPathsFromFileMissing(t *testing.T) {
	if _, err := ReadPathsFromFile("/nonexistent/manifest.txt"); err == nil {
		t.Error("expected error for missing manifest")
	}
}
