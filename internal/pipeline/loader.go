package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// maxDocumentBytes caps how much of a file the loader will read. OCR
// output for a recorded instrument runs tens of kilobytes; anything
// past this is not a loan document.
const maxDocumentBytes = 10 << 20

// documentExtensions are the OCR/converter output formats accepted as
// loan documents
var documentExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
	".text":     true,
}

// LoadedDocument is a document file read from disk
type LoadedDocument struct {
	Name    string // Base filename, used as the review label
	Path    string
	Content []byte
}

// LoadDocument reads a single document file
func LoadDocument(path string) (*LoadedDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat document: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a document", path)
	}
	if info.Size() > maxDocumentBytes {
		return nil, fmt.Errorf("%s is %d bytes, larger than the %d byte document limit", path, info.Size(), maxDocumentBytes)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	return &LoadedDocument{
		Name:    filepath.Base(path),
		Path:    path,
		Content: content,
	}, nil
}

// ListDocuments returns the document files directly under dir, sorted
// by name. Subdirectories and non-document extensions are skipped.
func ListDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !documentExtensions[ext] {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("no document files (.md/.txt) found in %s", dir)
	}

	return paths, nil
}
