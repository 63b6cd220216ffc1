package docsource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/xhad/examaid/internal/models"
	"github.com/xhad/examaid/internal/types"
)

// DefaultExtensions are the document types indexed when none are configured.
var DefaultExtensions = []string{".txt", ".md", ".py"}

// Directory is a flat folder of plain-text documents. Subdirectories and
// hidden files are ignored.
type Directory struct {
	path       string
	extensions map[string]bool
}

var _ types.DocumentSource = (*Directory)(nil)

// NewDirectory opens path, creating it when it does not exist.
func NewDirectory(path string, extensions []string) (*Directory, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create document directory: %w", err)
	}
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = true
	}

	return &Directory{path: path, extensions: exts}, nil
}

func (d *Directory) Path() string {
	return d.path
}

// Allowed reports whether a file called name would be indexed.
func (d *Directory) Allowed(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return d.extensions[strings.ToLower(filepath.Ext(name))]
}

// Documents reads every allowed file, ordered by name.
func (d *Directory) Documents(ctx context.Context) ([]models.Document, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document directory: %w", err)
	}

	var docs []models.Document
	for _, entry := range entries {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if entry.IsDir() || !d.Allowed(entry.Name()) {
			continue
		}
		doc, err := d.read(entry.Name())
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

// Write saves content as name inside the directory and returns its path.
func (d *Directory) Write(name, content string) (string, error) {
	if name != filepath.Base(name) {
		return "", fmt.Errorf("document name %q must not contain a path", name)
	}
	if !d.Allowed(name) {
		return "", fmt.Errorf("document %q does not have an allowed extension", name)
	}
	if !utf8.ValidString(content) {
		return "", fmt.Errorf("document %q is not valid UTF-8", name)
	}

	path := filepath.Join(d.path, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return path, nil
}

func (d *Directory) read(name string) (models.Document, error) {
	path := filepath.Join(d.path, name)
	content, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	// Chunks must be exact slices of the file, which a lossy decode breaks.
	if !utf8.Valid(content) {
		return models.Document{}, fmt.Errorf("document %s is not valid UTF-8", name)
	}

	return models.Document{
		Name:    name,
		Path:    path,
		Content: string(content),
		Metadata: map[string]interface{}{
			"extension": strings.ToLower(filepath.Ext(name)),
		},
	}, nil
}
