package indexer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/tanya/internal/models"
)

// LoadCorpus reads every regular file directly inside dir whose extension is in
// allowedExts (all files when empty), sorted by name. Each file becomes one Document
// with its base name as ID. Files that cannot be used are reported individually and
// the rest of the corpus still loads; a missing directory is a single load error.
func LoadCorpus(dir string, allowedExts []string) ([]*models.Document, []*models.CorpusLoadError) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, []*models.CorpusLoadError{{Path: dir, Err: err}}
	}
	var docs []*models.Document
	var failed []*models.CorpusLoadError
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if len(allowedExts) > 0 && !extensionAllowed(filepath.Ext(path), allowedExts) {
			continue
		}
		// Resolve symlinks so we only load regular files
		info, err := os.Stat(path)
		if err != nil {
			failed = append(failed, &models.CorpusLoadError{Path: path, Err: err})
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		doc, err := loadDocument(path)
		if err != nil {
			failed = append(failed, &models.CorpusLoadError{Path: path, Err: err})
			continue
		}
		docs = append(docs, doc)
	}
	return docs, failed
}

func loadDocument(path string) (*models.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	text := Preprocess(string(content))
	if text == "" {
		return nil, models.ErrEmptyDocument
	}
	return &models.Document{ID: filepath.Base(path), Text: text}, nil
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
