package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/review-scraper/internal/scraper"
)

func sampleSummary() scraper.Summary {
	return scraper.Summary{
		CompletedAt:     time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC),
		TotalCompanies:  2,
		TotalNewReviews: 4,
		Companies: map[string]scraper.Outcome{
			"zeta": {Status: scraper.StatusSuccess, OutputFile: "zeta.jsonl", NewReviews: 4},
			"acme": {Status: scraper.StatusFailed, OutputFile: "acme.jsonl", Error: "invalid company identifier"},
		},
		Order: []string{"zeta", "acme"},
	}
}

func TestTableReporterRendersRowsInOrder(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, NewTableReporter(&buf).Report(sampleSummary()))
	out := buf.String()

	assert.Contains(t, out, "Total new reviews scraped: 4")
	assert.Contains(t, out, "zeta.jsonl")
	assert.Contains(t, out, "invalid company identifier")
	assert.Contains(t, strings.ToLower(out), "1 failed")
	assert.Less(t, strings.Index(out, "zeta.jsonl"), strings.Index(out, "acme.jsonl"))
}

func TestTableReporterSortsWithoutOrder(t *testing.T) {
	t.Parallel()

	summary := sampleSummary()
	summary.Order = nil

	var buf bytes.Buffer
	require.NoError(t, NewTableReporter(&buf).Report(summary))
	out := buf.String()
	assert.Less(t, strings.Index(out, "acme.jsonl"), strings.Index(out, "zeta.jsonl"))
}
