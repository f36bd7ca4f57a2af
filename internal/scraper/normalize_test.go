package scraper_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/review-scraper/internal/scraper"
)

func TestNormalizeMapsFields(t *testing.T) {
	t.Parallel()

	scrapedAt := time.Date(2024, 3, 2, 8, 30, 0, 123000000, time.UTC)
	review, err := scraper.Normalize(
		scraper.RawReview(reviewEntry("Quick delivery")),
		"Acme",
		"https://www.trustpilot.com/review/acme",
		scrapedAt,
	)
	require.NoError(t, err)
	assert.Equal(t, scraper.Review{
		Company:   "Acme",
		Date:      "2024-03-01",
		Author:    "Jane Doe",
		Body:      "Quick delivery",
		Heading:   "Heading",
		Rating:    4,
		Location:  "GB",
		ScrapedAt: "2024-03-02T08:30:00.123Z",
		SourceURL: "https://www.trustpilot.com/review/acme",
	}, review)
}

func TestNormalizeMissingFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{
			name:  "no dates",
			raw:   `{"text":"x","title":"t","rating":1,"consumer":{"displayName":"a","countryCode":"US"}}`,
			field: "dates.publishedDate",
		},
		{
			name:  "no consumer",
			raw:   `{"text":"x","title":"t","rating":1,"dates":{"publishedDate":"2024-01-01T00:00:00Z"}}`,
			field: "consumer.displayName",
		},
		{
			name:  "no country",
			raw:   `{"text":"x","title":"t","rating":1,"consumer":{"displayName":"a"},"dates":{"publishedDate":"2024-01-01T00:00:00Z"}}`,
			field: "consumer.countryCode",
		},
		{
			name:  "no text",
			raw:   `{"title":"t","rating":1,"consumer":{"displayName":"a","countryCode":"US"},"dates":{"publishedDate":"2024-01-01T00:00:00Z"}}`,
			field: "text",
		},
		{
			name:  "null title",
			raw:   `{"text":"x","title":null,"rating":1,"consumer":{"displayName":"a","countryCode":"US"},"dates":{"publishedDate":"2024-01-01T00:00:00Z"}}`,
			field: "title",
		},
		{
			name:  "no rating",
			raw:   `{"text":"x","title":"t","consumer":{"displayName":"a","countryCode":"US"},"dates":{"publishedDate":"2024-01-01T00:00:00Z"}}`,
			field: "rating",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := scraper.Normalize(scraper.RawReview(tt.raw), "Acme", "u", time.Now())
			require.Error(t, err)
			assert.True(t, errors.Is(err, scraper.ErrMissingField))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestNormalizeRejectsBadValues(t *testing.T) {
	t.Parallel()

	badDate := `{"text":"x","title":"t","rating":1,"consumer":{"displayName":"a","countryCode":"US"},"dates":{"publishedDate":"yesterday"}}`
	_, err := scraper.Normalize(scraper.RawReview(badDate), "Acme", "u", time.Now())
	assert.ErrorContains(t, err, "unparseable published date")

	fractionalRating := `{"text":"x","title":"t","rating":4.5,"consumer":{"displayName":"a","countryCode":"US"},"dates":{"publishedDate":"2024-01-01T00:00:00Z"}}`
	_, err = scraper.Normalize(scraper.RawReview(fractionalRating), "Acme", "u", time.Now())
	assert.Error(t, err)

	_, err = scraper.Normalize(scraper.RawReview(`"just a string"`), "Acme", "u", time.Now())
	assert.Error(t, err)
}

func TestFormatDate(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]string{
		"2024-03-01T21:45:10.000Z":      "2024-03-01",
		"2024-03-01T23:30:00+02:00":     "2024-03-01",
		"2024-03-01T23:30:00.123456789": "2024-03-01",
		"2024-03-01 08:00:00":           "2024-03-01",
		"2024-03-01":                    "2024-03-01",
	} {
		got, err := scraper.FormatDate(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
}
