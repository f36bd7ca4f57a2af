// Package progress defines the events emitted while a scrape run advances.
package progress

import (
	"errors"
	"fmt"
	"time"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart     Stage = "RUN_START"
	StageRunDone      Stage = "RUN_DONE"
	StageCompanyStart Stage = "COMPANY_START"
	StageCompanyDone  Stage = "COMPANY_DONE"
	StageCompanyError Stage = "COMPANY_ERROR"
	StagePageDone     Stage = "PAGE_DONE"
)

// Event captures a single milestone of a scrape run.
type Event struct {
	// RunID identifies the run that emitted the event.
	RunID string
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which milestone occurred.
	Stage Stage
	// Company is the identifier as configured; empty for run events.
	Company string
	// URL is the listing or page URL.
	URL string
	// Page is the 1-based page index for page events.
	Page int
	// Entries is the number of raw entries found on the page.
	Entries int
	// New counts reviews admitted by this page, or by the company on completion.
	New int
	// TotalNew counts reviews admitted so far for the company.
	TotalNew int
	// Total is the size of the company store after the event.
	Total int
	// Bytes carries the response size for page events.
	Bytes int64
	// Dur captures fetch latency for pages and wall time for completions.
	Dur time.Duration
	// Note lets emitters attach low-volume context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone:
	case StageCompanyStart, StageCompanyDone, StageCompanyError:
		if e.Company == "" {
			return fmt.Errorf("%s requires company", e.Stage)
		}
	case StagePageDone:
		if e.Company == "" {
			return errors.New("page done requires company")
		}
		if e.Page <= 0 {
			return errors.New("page done requires page >= 1")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}
