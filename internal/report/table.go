// Package report renders the end-of-run summary for humans.
package report

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/JakeFAU/review-scraper/internal/scraper"
)

// TableReporter prints run totals followed by one table row per company in
// the order companies were processed.
type TableReporter struct {
	out io.Writer
}

// NewTableReporter writes to out, or stdout when out is nil.
func NewTableReporter(out io.Writer) *TableReporter {
	if out == nil {
		out = os.Stdout
	}
	return &TableReporter{out: out}
}

// Report implements scraper.Reporter.
func (r *TableReporter) Report(summary scraper.Summary) error {
	if _, err := fmt.Fprintf(r.out,
		"\nAll companies completed!\nFinished at: %s\nTotal new reviews scraped: %d\n\n",
		summary.CompletedAt.Local().Format(time.DateTime),
		summary.TotalNewReviews,
	); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.AppendHeader(table.Row{"Company", "Status", "New reviews", "File", "Error"})
	for _, company := range order(summary) {
		outcome := summary.Companies[company]
		t.AppendRow(table.Row{company, statusLabel(outcome.Status), outcome.NewReviews, outcome.OutputFile, outcome.Error})
	}
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d companies", summary.TotalCompanies),
		fmt.Sprintf("%d failed", summary.Failed()),
		summary.TotalNewReviews,
		"",
		"",
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}

// order falls back to sorted names when the summary carries no processing
// order, e.g. after a JSON round trip.
func order(summary scraper.Summary) []string {
	if len(summary.Order) == len(summary.Companies) {
		return summary.Order
	}
	return slices.Sorted(maps.Keys(summary.Companies))
}

func statusLabel(status scraper.Status) string {
	if status == scraper.StatusSuccess {
		return "Success"
	}
	return "Failed"
}
