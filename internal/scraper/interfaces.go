package scraper

import (
	"context"
	"time"
)

// Fetcher fetches a URL and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// ReviewStore persists reviews per company in append-only stores addressed by name.
type ReviewStore interface {
	Load(ctx context.Context, name string) ([]Review, error)
	Append(ctx context.Context, name string, review Review) error
	Location(name string) string
}

// ReviewMirror receives a copy of every admitted review. key is the dedup key
// of the review body.
type ReviewMirror interface {
	Mirror(ctx context.Context, key string, review Review) error
}

// SnapshotWriter persists the end-of-run summary and returns where it went.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, summary Summary) (string, error)
}

// Publisher pushes completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Reporter renders a human-readable summary.
type Reporter interface {
	Report(summary Summary) error
}

// Hasher computes digests for deduplication.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}

// Pauser blocks for a fixed delay or until ctx is done.
type Pauser interface {
	Pause(ctx context.Context, delay time.Duration)
}
