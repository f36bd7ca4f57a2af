package gcs

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/JakeFAU/review-scraper/internal/scraper"
	"github.com/JakeFAU/review-scraper/internal/storage/local"
)

type uploader interface {
	Upload(ctx context.Context, obj Object) (string, error)
}

// SnapshotWriter uploads each run summary as its own object under prefix,
// named by completion time and run ID so runs never overwrite each other.
type SnapshotWriter struct {
	objects uploader
	prefix  string
}

// NewSnapshotWriter wraps an uploader such as *Bucket.
func NewSnapshotWriter(objects uploader, prefix string) (*SnapshotWriter, error) {
	if objects == nil {
		return nil, errors.New("object uploader is required")
	}
	return &SnapshotWriter{objects: objects, prefix: strings.Trim(prefix, "/")}, nil
}

// WriteSnapshot uploads summary and returns the gs:// URI.
func (w *SnapshotWriter) WriteSnapshot(ctx context.Context, summary scraper.Summary) (string, error) {
	payload, err := local.MarshalSummary(summary)
	if err != nil {
		return "", err
	}
	uri, err := w.objects.Upload(ctx, Object{
		Name:         w.objectName(summary),
		ContentType:  "application/json",
		CacheControl: "no-cache",
		Metadata:     summary.Labels(),
		Data:         payload,
	})
	if err != nil {
		return "", fmt.Errorf("upload summary: %w", err)
	}
	return uri, nil
}

func (w *SnapshotWriter) objectName(summary scraper.Summary) string {
	name := summary.CompletedAt.UTC().Format("20060102T150405Z")
	if summary.RunID != "" {
		name += "-" + summary.RunID
	}
	return path.Join(w.prefix, "summaries", name+".json")
}
