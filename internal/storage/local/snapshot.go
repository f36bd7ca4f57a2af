package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JakeFAU/review-scraper/internal/scraper"
)

// DefaultSummaryPath is where the run summary lands when none is configured.
const DefaultSummaryPath = "scraping_summary.json"

// SnapshotWriter writes the run summary as one indented JSON document.
type SnapshotWriter struct {
	path string
}

// NewSnapshotWriter returns a writer targeting path.
func NewSnapshotWriter(path string) *SnapshotWriter {
	if strings.TrimSpace(path) == "" {
		path = DefaultSummaryPath
	}
	return &SnapshotWriter{path: path}
}

// WriteSnapshot replaces the summary file atomically and returns its path.
func (w *SnapshotWriter) WriteSnapshot(ctx context.Context, summary scraper.Summary) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context canceled: %w", err)
	}
	payload, err := MarshalSummary(summary)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating summary dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".summary-*.json")
	if err != nil {
		return "", fmt.Errorf("create temp summary: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write summary: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close summary: %w", err)
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("rename summary to %s: %w", w.path, err)
	}
	return w.path, nil
}

// MarshalSummary renders the summary document with two-space indentation.
func MarshalSummary(summary scraper.Summary) ([]byte, error) {
	if summary.Companies == nil {
		summary.Companies = map[string]scraper.Outcome{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return nil, fmt.Errorf("marshal summary: %w", err)
	}
	return buf.Bytes(), nil
}
