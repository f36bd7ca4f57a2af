// Package local implements filesystem-backed review stores and summary snapshots.
package local

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JakeFAU/review-scraper/internal/scraper"
)

// maxLineBytes bounds a single JSONL record when loading a store.
const maxLineBytes = 16 * 1024 * 1024

// Config captures the parameters for the local filesystem review store.
type Config struct {
	// BaseDir is the directory holding one <name>.jsonl file per company.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// ReviewStore keeps one append-only JSON Lines file per company.
// Every Append opens, writes, syncs, and closes the file, so readers always
// observe a complete prefix of records.
type ReviewStore struct {
	baseDir string
}

// New creates a new local filesystem-backed review store.
func New(cfg Config) (*ReviewStore, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	// Check if the directory exists and is writable.
	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat base directory: %w", err)
		}
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", mkErr)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	testFile := filepath.Join(cfg.BaseDir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("failed to clean up test file: %w", err)
	}

	return &ReviewStore{baseDir: cfg.BaseDir}, nil
}

// Location returns the file path of the named store.
func (s *ReviewStore) Location(name string) string {
	return filepath.Join(s.baseDir, name)
}

// Load reads every record of the named store. A missing file is an empty store.
// Any undecodable line fails the whole load.
func (s *ReviewStore) Load(ctx context.Context, name string) ([]scraper.Review, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- path is confined to baseDir by resolve.
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // read-only handle

	var reviews []scraper.Review
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("load store %s: %w", path, err)
		}
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var review scraper.Review
		if err := json.Unmarshal(raw, &review); err != nil {
			return nil, fmt.Errorf("decode %s line %d: %w", path, line, err)
		}
		reviews = append(reviews, review)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read store %s: %w", path, err)
	}
	return reviews, nil
}

// Append writes one record as a single line at the end of the named store.
func (s *ReviewStore) Append(ctx context.Context, name string, review scraper.Review) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	line, err := encodeLine(review)
	if err != nil {
		return err
	}

	// #nosec G304 -- path is confined to baseDir by resolve.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open store %s: %w", path, err)
	}
	if _, err := f.Write(line); err != nil {
		closeErr := f.Close()
		if closeErr != nil {
			return fmt.Errorf("append to %s: %w (close: %v)", path, err, closeErr)
		}
		return fmt.Errorf("append to %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func (s *ReviewStore) resolve(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("store name is required")
	}
	fullPath := filepath.Join(s.baseDir, name)

	// Containment is checked on the relative path, which also works when
	// baseDir is "." and Join strips the leading "./".
	rel, err := filepath.Rel(filepath.Clean(s.baseDir), fullPath)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("store name %q escapes %s", name, s.baseDir)
	}
	return fullPath, nil
}

// encodeLine renders a record as UTF-8 JSON without HTML escaping, newline terminated.
func encodeLine(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return buf.Bytes(), nil
}
