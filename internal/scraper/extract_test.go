package scraper_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/review-scraper/internal/scraper"
)

func TestExtractReviews(t *testing.T) {
	t.Parallel()

	entries, err := scraper.ExtractReviews(listingPage(reviewEntry("first"), reviewEntry("second")))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	review, err := scraper.Normalize(entries[1], "Acme", "https://www.trustpilot.com/review/acme", time.Unix(0, 0).UTC())
	require.NoError(t, err)
	assert.Equal(t, "second", review.Body)
}

func TestExtractReviewsEmptyList(t *testing.T) {
	t.Parallel()

	entries, err := scraper.ExtractReviews(listingPage())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExtractReviewsFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		noPayload bool
	}{
		{name: "no script", body: `<html><body><p>blocked</p></body></html>`, noPayload: true},
		{name: "empty script", body: `<script id="__NEXT_DATA__"></script>`, noPayload: true},
		{name: "bad json", body: `<script id="__NEXT_DATA__">{"props":</script>`},
		{name: "missing reviews", body: `<script id="__NEXT_DATA__">{"props":{"pageProps":{}}}</script>`, noPayload: true},
		{name: "null reviews", body: `<script id="__NEXT_DATA__">{"props":{"pageProps":{"reviews":null}}}</script>`, noPayload: true},
		{name: "reviews not a list", body: `<script id="__NEXT_DATA__">{"props":{"pageProps":{"reviews":{}}}}</script>`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			entries, err := scraper.ExtractReviews([]byte(tt.body))
			require.Error(t, err)
			assert.Empty(t, entries)
			assert.Equal(t, tt.noPayload, errors.Is(err, scraper.ErrNoPayload))
		})
	}
}
