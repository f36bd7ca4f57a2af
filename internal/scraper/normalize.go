package scraper

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DateLayout is the canonical format of Review.Date.
const DateLayout = "2006-01-02"

// ErrMissingField is returned when a raw entry lacks a required field.
var ErrMissingField = errors.New("missing required field")

var publishedDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	DateLayout,
}

type rawEntry struct {
	Text     *string `json:"text"`
	Title    *string `json:"title"`
	Rating   *int    `json:"rating"`
	Consumer *struct {
		DisplayName *string `json:"displayName"`
		CountryCode *string `json:"countryCode"`
	} `json:"consumer"`
	Dates *struct {
		PublishedDate *string `json:"publishedDate"`
	} `json:"dates"`
}

// Normalize maps a raw listing entry onto the Review shape. company and
// sourceURL are copied verbatim; scrapedAt stamps the record.
func Normalize(raw RawReview, company, sourceURL string, scrapedAt time.Time) (Review, error) {
	var entry rawEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Review{}, fmt.Errorf("decode review entry: %w", err)
	}

	switch {
	case entry.Dates == nil || entry.Dates.PublishedDate == nil:
		return Review{}, fmt.Errorf("%w: dates.publishedDate", ErrMissingField)
	case entry.Consumer == nil || entry.Consumer.DisplayName == nil:
		return Review{}, fmt.Errorf("%w: consumer.displayName", ErrMissingField)
	case entry.Consumer.CountryCode == nil:
		return Review{}, fmt.Errorf("%w: consumer.countryCode", ErrMissingField)
	case entry.Text == nil:
		return Review{}, fmt.Errorf("%w: text", ErrMissingField)
	case entry.Title == nil:
		return Review{}, fmt.Errorf("%w: title", ErrMissingField)
	case entry.Rating == nil:
		return Review{}, fmt.Errorf("%w: rating", ErrMissingField)
	}

	date, err := FormatDate(*entry.Dates.PublishedDate)
	if err != nil {
		return Review{}, err
	}

	return Review{
		Company:   company,
		Date:      date,
		Author:    *entry.Consumer.DisplayName,
		Body:      *entry.Text,
		Heading:   *entry.Title,
		Rating:    *entry.Rating,
		Location:  *entry.Consumer.CountryCode,
		ScrapedAt: scrapedAt.Format(time.RFC3339Nano),
		SourceURL: sourceURL,
	}, nil
}

// FormatDate converts a published timestamp into DateLayout, keeping the
// timestamp's own calendar day.
func FormatDate(value string) (string, error) {
	for _, layout := range publishedDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(DateLayout), nil
		}
	}
	return "", fmt.Errorf("unparseable published date %q", value)
}
