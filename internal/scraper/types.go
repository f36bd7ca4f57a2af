package scraper

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// Status represents the outcome of scraping one company.
type Status string

// Outcome status values written to the run summary.
const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Review is the normalized record persisted once per unique body.
type Review struct {
	Company   string `json:"company"`
	Date      string `json:"date"`
	Author    string `json:"author"`
	Body      string `json:"body"`
	Heading   string `json:"heading"`
	Rating    int    `json:"rating"`
	Location  string `json:"location"`
	ScrapedAt string `json:"scraped_at"`
	SourceURL string `json:"source_url"`
}

// RawReview is one undecoded entry of the listing's embedded reviews list.
type RawReview json.RawMessage

// Target is a company identifier with its derived listing URL and store name.
type Target struct {
	Identifier string
	URL        string
	StoreName  string
}

// CompanyResult reports what one ScrapeCompany call did.
type CompanyResult struct {
	Target          Target
	StorePath       string
	ExistingReviews int
	NewReviews      int
	Pages           int
}

// Outcome is the per-company entry of the run summary.
type Outcome struct {
	Status     Status `json:"status"`
	OutputFile string `json:"output_file"`
	NewReviews int    `json:"new_reviews"`
	Error      string `json:"error,omitempty"`
}

// Summary is the snapshot document persisted once at the end of a run.
type Summary struct {
	RunID           string             `json:"run_id,omitempty"`
	StartedAt       time.Time          `json:"started_at"`
	CompletedAt     time.Time          `json:"completed_at"`
	TotalCompanies  int                `json:"total_companies"`
	TotalNewReviews int                `json:"total_new_reviews"`
	Companies       map[string]Outcome `json:"companies"`

	// Order preserves the input order of Companies for console output.
	Order []string `json:"-"`
}

// Failed counts the companies whose outcome is StatusFailed.
func (s Summary) Failed() int {
	n := 0
	for _, outcome := range s.Companies {
		if outcome.Status == StatusFailed {
			n++
		}
	}
	return n
}

// Labels flattens the run totals into string pairs for object metadata and
// message attributes.
func (s Summary) Labels() map[string]string {
	return map[string]string{
		"run_id":            s.RunID,
		"total_companies":   strconv.Itoa(s.TotalCompanies),
		"failed_companies":  strconv.Itoa(s.Failed()),
		"total_new_reviews": strconv.Itoa(s.TotalNewReviews),
	}
}

// FetchRequest captures everything needed to fetch one listing page.
type FetchRequest struct {
	URL     string
	Headers http.Header
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL          string
	StatusCode   int
	Headers      http.Header
	Body         []byte
	Duration     time.Duration
	UsedHeadless bool
}
