// Package memory stores reviews in-memory for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/review-scraper/internal/scraper"
)

// ReviewStore keeps append-only review slices keyed by store name.
type ReviewStore struct {
	mu      sync.RWMutex
	data    map[string][]scraper.Review
	loadErr map[string]error
	// appendErr fails Append for reviews with a matching body.
	appendErr map[string]error
	appends   int
}

// NewReviewStore creates an empty in-memory review store.
func NewReviewStore() *ReviewStore {
	return &ReviewStore{
		data:      make(map[string][]scraper.Review),
		loadErr:   make(map[string]error),
		appendErr: make(map[string]error),
	}
}

// Location returns a memory:// URI for the named store.
func (s *ReviewStore) Location(name string) string {
	return fmt.Sprintf("memory://%s", name)
}

// Load returns a copy of the named store's records.
func (s *ReviewStore) Load(_ context.Context, name string) ([]scraper.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.loadErr[name]; err != nil {
		return nil, err
	}
	return append([]scraper.Review(nil), s.data[name]...), nil
}

// Append records a review at the end of the named store.
func (s *ReviewStore) Append(_ context.Context, name string, review scraper.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.appendErr[review.Body]; err != nil {
		return err
	}
	s.data[name] = append(s.data[name], review)
	s.appends++
	return nil
}

// Seed replaces the named store's records.
func (s *ReviewStore) Seed(name string, reviews ...scraper.Review) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = append([]scraper.Review(nil), reviews...)
}

// FailLoad makes subsequent Load calls for name return err; nil clears it.
func (s *ReviewStore) FailLoad(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.loadErr, name)
		return
	}
	s.loadErr[name] = err
}

// FailAppend makes Append fail with err for reviews whose body is body.
func (s *ReviewStore) FailAppend(body string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.appendErr, body)
		return
	}
	s.appendErr[body] = err
}

// Appends reports how many Append calls have succeeded.
func (s *ReviewStore) Appends() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.appends
}
