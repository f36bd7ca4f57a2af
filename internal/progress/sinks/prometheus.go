package sinks

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JakeFAU/review-scraper/internal/progress"
)

// PrometheusSink exports scrape progress as Prometheus collectors. It owns
// run, company, page, and review counters plus latency histograms.
type PrometheusSink struct {
	runsStarted       prometheus.Counter
	companiesStarted  prometheus.Counter
	companiesFinished *prometheus.CounterVec
	companiesRunning  prometheus.Gauge
	companyRuntime    *prometheus.HistogramVec

	pagesFetched  prometheus.Counter
	pageBytes     prometheus.Counter
	pageDuration  prometheus.Histogram
	entriesSeen   prometheus.Counter
	reviewsStored prometheus.Counter

	running *companyTracker
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "review_scraper_runs_started_total",
			Help: "Total scrape runs that have started.",
		}),
		companiesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "review_scraper_companies_started_total",
			Help: "Total companies whose scrape began.",
		}),
		companiesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "review_scraper_companies_finished_total",
			Help: "Total companies finished partitioned by result.",
		}, []string{"result"}),
		companiesRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "review_scraper_companies_running",
			Help: "Companies currently being scraped.",
		}),
		companyRuntime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "review_scraper_company_runtime_seconds",
			Help:    "Wall time per finished company.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200, 3600},
		}, []string{"result"}),
		pagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "review_scraper_pages_total",
			Help: "Non-empty listing pages processed.",
		}),
		pageBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "review_scraper_page_bytes_total",
			Help: "Bytes downloaded for listing pages.",
		}),
		pageDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "review_scraper_page_fetch_duration_seconds",
			Help:    "Listing page fetch latency.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		entriesSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "review_scraper_entries_seen_total",
			Help: "Raw review entries found on listing pages.",
		}),
		reviewsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "review_scraper_reviews_stored_total",
			Help: "Reviews appended to company stores.",
		}),
		running: &companyTracker{active: make(map[string]struct{})},
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.companiesStarted,
		s.companiesFinished,
		s.companiesRunning,
		s.companyRuntime,
		s.pagesFetched,
		s.pageBytes,
		s.pageDuration,
		s.entriesSeen,
		s.reviewsStored,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Observe updates the collectors from evt. It is safe for concurrent use.
// Invalid events are ignored.
func (s *PrometheusSink) Observe(evt progress.Event) {
	if evt.Validate() != nil {
		return
	}
	switch evt.Stage {
	case progress.StageRunStart:
		s.runsStarted.Inc()
	case progress.StageCompanyStart:
		s.companiesStarted.Inc()
		if s.running.start(evt.Company) {
			s.companiesRunning.Inc()
		}
	case progress.StageCompanyDone:
		s.finishCompany(evt, "success")
	case progress.StageCompanyError:
		s.finishCompany(evt, "error")
	case progress.StagePageDone:
		s.pagesFetched.Inc()
		s.entriesSeen.Add(float64(evt.Entries))
		s.reviewsStored.Add(float64(evt.New))
		if evt.Bytes > 0 {
			s.pageBytes.Add(float64(evt.Bytes))
		}
		if evt.Dur > 0 {
			s.pageDuration.Observe(evt.Dur.Seconds())
		}
	}
}

func (s *PrometheusSink) finishCompany(evt progress.Event, result string) {
	s.companiesFinished.WithLabelValues(result).Inc()
	if s.running.complete(evt.Company) {
		s.companiesRunning.Dec()
	}
	if evt.Dur > 0 {
		s.companyRuntime.WithLabelValues(result).Observe(evt.Dur.Seconds())
	}
}

// companyTracker keeps the running gauge balanced when an error is reported
// for a company whose start was never observed.
type companyTracker struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func (t *companyTracker) start(company string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.active[company]; ok {
		return false
	}
	t.active[company] = struct{}{}
	return true
}

func (t *companyTracker) complete(company string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.active[company]; !ok {
		return false
	}
	delete(t.active, company)
	return true
}
