package scraper_test

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/JakeFAU/review-scraper/internal/scraper"
)

// listingPage renders a minimal listing document embedding entries as the reviews list.
func listingPage(entries ...string) []byte {
	return []byte(fmt.Sprintf(`<!DOCTYPE html><html><head><title>Reviews</title></head><body>
<div id="__next"></div>
<script id="__NEXT_DATA__" type="application/json">{"props":{"pageProps":{"businessUnit":{"id":"x"},"reviews":[%s]}},"page":"/review/[businessUnit]"}</script>
</body></html>`, strings.Join(entries, ",")))
}

// reviewEntry renders one raw listing entry with every required field.
func reviewEntry(text string) string {
	return fmt.Sprintf(`{"id":"r-%d","text":%q,"title":"Heading","rating":4,`+
		`"consumer":{"displayName":"Jane Doe","countryCode":"GB"},`+
		`"dates":{"publishedDate":"2024-03-01T21:45:10.000Z","experiencedDate":null}}`, len(text), text)
}

type fakeFetcher struct {
	mu        sync.Mutex
	pages     map[string][]byte
	status    map[string]int
	errs      map[string]error
	requested []string
	headers   []http.Header
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages:  make(map[string][]byte),
		status: make(map[string]int),
		errs:   make(map[string]error),
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, req scraper.FetchRequest) (scraper.FetchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested = append(f.requested, req.URL)
	f.headers = append(f.headers, req.Headers.Clone())
	if err := f.errs[req.URL]; err != nil {
		return scraper.FetchResponse{}, err
	}
	body, ok := f.pages[req.URL]
	status := f.status[req.URL]
	if !ok {
		body = listingPage()
	}
	if status == 0 {
		status = http.StatusOK
	}
	return scraper.FetchResponse{
		URL:        req.URL,
		StatusCode: status,
		Body:       body,
		Duration:   5 * time.Millisecond,
	}, nil
}

func (f *fakeFetcher) Requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requested...)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

type recordingPauser struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (p *recordingPauser) Pause(_ context.Context, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delays = append(p.delays, d)
}

func (p *recordingPauser) Count(d time.Duration) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, got := range p.delays {
		if got == d {
			n++
		}
	}
	return n
}
