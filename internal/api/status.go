package api

import (
	"sync"
	"time"

	"github.com/JakeFAU/review-scraper/internal/progress"
)

// Run states reported by RunStatus.
const (
	StateIdle    = "idle"
	StateRunning = "running"
	StateDone    = "done"
)

// Company states reported per company.
const (
	CompanyPending = "pending"
	CompanyRunning = "running"
	CompanySuccess = "success"
	CompanyFailed  = "failed"
)

// CompanyProgress is the live view of one company within a run.
type CompanyProgress struct {
	Company      string `json:"company"`
	State        string `json:"state"`
	URL          string `json:"url,omitempty"`
	Pages        int    `json:"pages"`
	NewReviews   int    `json:"new_reviews"`
	TotalReviews int    `json:"total_reviews"`
	Error        string `json:"error,omitempty"`
}

// RunSnapshot is a point-in-time copy of the run state.
type RunSnapshot struct {
	RunID           string            `json:"run_id,omitempty"`
	State           string            `json:"state"`
	StartedAt       *time.Time        `json:"started_at,omitempty"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
	TotalCompanies  int               `json:"total_companies"`
	CompaniesDone   int               `json:"companies_done"`
	CompaniesFailed int               `json:"companies_failed"`
	NewReviews      int               `json:"new_reviews"`
	Current         string            `json:"current,omitempty"`
	Companies       []CompanyProgress `json:"companies"`
}

// RunStatus is a progress.Observer that keeps the state served by /v1/run.
type RunStatus struct {
	mu        sync.RWMutex
	snap      RunSnapshot
	order     []string
	companies map[string]*CompanyProgress
}

// NewRunStatus returns an idle RunStatus.
func NewRunStatus() *RunStatus {
	return &RunStatus{
		snap:      RunSnapshot{State: StateIdle},
		companies: make(map[string]*CompanyProgress),
	}
}

// Observe implements progress.Observer.
func (s *RunStatus) Observe(evt progress.Event) {
	if evt.Validate() != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch evt.Stage {
	case progress.StageRunStart:
		ts := evt.TS
		s.snap = RunSnapshot{
			RunID:          evt.RunID,
			State:          StateRunning,
			StartedAt:      &ts,
			TotalCompanies: evt.Total,
		}
		s.order = nil
		s.companies = make(map[string]*CompanyProgress)
	case progress.StageCompanyStart:
		c := s.company(evt.Company)
		c.State = CompanyRunning
		c.URL = evt.URL
		c.Pages = 0
		c.NewReviews = 0
		c.TotalReviews = evt.Total
		c.Error = ""
		s.snap.Current = evt.Company
	case progress.StagePageDone:
		c := s.company(evt.Company)
		c.Pages = evt.Page
		c.NewReviews = evt.TotalNew
		c.TotalReviews = evt.Total
	case progress.StageCompanyDone:
		c := s.company(evt.Company)
		c.State = CompanySuccess
		c.NewReviews = evt.New
		c.TotalReviews = evt.Total
		s.snap.CompaniesDone++
		s.snap.NewReviews += evt.New
		s.clearCurrent(evt.Company)
	case progress.StageCompanyError:
		c := s.company(evt.Company)
		c.State = CompanyFailed
		c.NewReviews = evt.New
		c.Error = evt.Note
		s.snap.CompaniesDone++
		s.snap.CompaniesFailed++
		s.snap.NewReviews += evt.New
		s.clearCurrent(evt.Company)
	case progress.StageRunDone:
		ts := evt.TS
		s.snap.State = StateDone
		s.snap.CompletedAt = &ts
		s.snap.NewReviews = evt.TotalNew
		s.snap.Current = ""
	}
}

// Snapshot returns a copy of the current run state.
func (s *RunStatus) Snapshot() RunSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.snap
	out.Companies = make([]CompanyProgress, 0, len(s.order))
	for _, name := range s.order {
		out.Companies = append(out.Companies, *s.companies[name])
	}
	return out
}

// Company returns the progress of one company, if it has been seen.
func (s *RunStatus) Company(name string) (CompanyProgress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.companies[name]
	if !ok {
		return CompanyProgress{}, false
	}
	return *c, true
}

// Started reports whether a run has begun.
func (s *RunStatus) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.State != StateIdle
}

func (s *RunStatus) company(name string) *CompanyProgress {
	c, ok := s.companies[name]
	if !ok {
		c = &CompanyProgress{Company: name, State: CompanyPending}
		s.companies[name] = c
		s.order = append(s.order, name)
	}
	return c
}

func (s *RunStatus) clearCurrent(name string) {
	if s.snap.Current == name {
		s.snap.Current = ""
	}
}
