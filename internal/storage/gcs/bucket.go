// Package gcs uploads run artifacts to Google Cloud Storage.
package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// Object describes one upload.
type Object struct {
	Name         string
	ContentType  string
	CacheControl string
	// Metadata is stored as custom object metadata.
	Metadata map[string]string
	Data     []byte
}

// Bucket uploads objects to a single GCS bucket.
type Bucket struct {
	handle *storage.BucketHandle
	name   string
}

// NewBucket binds a Bucket to name. The caller owns client.
func NewBucket(client *storage.Client, name string) (*Bucket, error) {
	if client == nil {
		return nil, errors.New("storage client is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("bucket name is required")
	}
	return &Bucket{handle: client.Bucket(name), name: name}, nil
}

// Upload writes obj and returns its gs:// URI. A failed copy aborts the
// upload, so no partial object is left behind.
func (b *Bucket) Upload(ctx context.Context, obj Object) (string, error) {
	if strings.TrimSpace(obj.Name) == "" {
		return "", errors.New("object name is required")
	}
	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := b.handle.Object(obj.Name).NewWriter(writeCtx)
	w.ContentType = obj.ContentType
	w.CacheControl = obj.CacheControl
	w.Metadata = obj.Metadata
	if _, err := io.Copy(w, bytes.NewReader(obj.Data)); err != nil {
		cancel()
		_ = w.Close()
		return "", fmt.Errorf("upload %s: %w", obj.Name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize %s: %w", obj.Name, err)
	}
	return fmt.Sprintf("gs://%s/%s", b.name, obj.Name), nil
}
