package scraper

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/review-scraper/internal/progress"
)

// CompanyScraper is the per-company unit of work driven by a Runner.
type CompanyScraper interface {
	ScrapeCompany(ctx context.Context, identifier string) (CompanyResult, error)
	StorePath(identifier string) string
}

// RunnerConfig controls orchestration-level behavior.
type RunnerConfig struct {
	CompanyDelay time.Duration
	// Topic receives the run summary when a Publisher is configured.
	Topic string
}

// RunnerDeps bundles the collaborators of a Runner. Scraper is required.
type RunnerDeps struct {
	Scraper   CompanyScraper
	Snapshots []SnapshotWriter
	Reporter  Reporter
	Publisher Publisher
	IDGen     IDGenerator
	Clock     Clock
	Pauser    Pauser
	Observer  progress.Observer
}

// Runner scrapes a list of companies sequentially and records per-company outcomes.
type Runner struct {
	cfg       RunnerConfig
	scraper   CompanyScraper
	snapshots []SnapshotWriter
	reporter  Reporter
	publisher Publisher
	idGen     IDGenerator
	clock     Clock
	pauser    Pauser
	observer  progress.Observer
	logger    *zap.Logger
}

// NewRunner constructs a Runner.
func NewRunner(cfg RunnerConfig, deps RunnerDeps, logger *zap.Logger) (*Runner, error) {
	if deps.Scraper == nil {
		return nil, fmt.Errorf("company scraper is required")
	}
	if cfg.CompanyDelay < 0 {
		return nil, fmt.Errorf("company delay must be >= 0")
	}
	if deps.Clock == nil {
		deps.Clock = utcClock{}
	}
	if deps.Pauser == nil {
		deps.Pauser = TimerPauser{}
	}
	if deps.Observer == nil {
		deps.Observer = progress.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:       cfg,
		scraper:   deps.Scraper,
		snapshots: deps.Snapshots,
		reporter:  deps.Reporter,
		publisher: deps.Publisher,
		idGen:     deps.IDGen,
		clock:     deps.Clock,
		pauser:    deps.Pauser,
		observer:  deps.Observer,
		logger:    logger,
	}, nil
}

// RunAll scrapes every identifier in order. A failing company is recorded in
// the summary and never stops the others. When ctx is canceled the remaining
// companies are skipped, and the partial summary is still reported and persisted.
func (r *Runner) RunAll(ctx context.Context, identifiers []string) Summary {
	summary := Summary{
		RunID:          r.newRunID(),
		StartedAt:      r.clock.Now(),
		TotalCompanies: len(identifiers),
		Companies:      make(map[string]Outcome, len(identifiers)),
	}
	r.logger.Info("starting run",
		zap.String("run_id", summary.RunID),
		zap.Int("companies", len(identifiers)),
	)
	r.observer.Observe(progress.Event{
		RunID: summary.RunID,
		TS:    summary.StartedAt,
		Stage: progress.StageRunStart,
		Total: len(identifiers),
	})

	for i, identifier := range identifiers {
		if ctx.Err() != nil {
			r.logger.Warn("run canceled; skipping remaining companies", zap.Int("remaining", len(identifiers)-i))
			break
		}
		r.logger.Info("processing company",
			zap.Int("index", i+1),
			zap.Int("of", len(identifiers)),
			zap.String("company", identifier),
		)

		outcome := r.runCompany(ctx, summary.RunID, identifier)
		if _, dup := summary.Companies[identifier]; !dup {
			summary.Order = append(summary.Order, identifier)
		}
		summary.Companies[identifier] = outcome
		summary.TotalNewReviews += outcome.NewReviews

		if i < len(identifiers)-1 {
			r.pauser.Pause(ctx, r.cfg.CompanyDelay)
		}
	}

	summary.CompletedAt = r.clock.Now()
	r.observer.Observe(progress.Event{
		RunID:    summary.RunID,
		TS:       summary.CompletedAt,
		Stage:    progress.StageRunDone,
		TotalNew: summary.TotalNewReviews,
		Total:    len(summary.Companies),
		Dur:      nonNegative(summary.CompletedAt.Sub(summary.StartedAt)),
	})
	r.finish(context.WithoutCancel(ctx), summary)
	return summary
}

// runCompany is the company-level error boundary: errors and panics from the
// scrape loop become a failed outcome.
func (r *Runner) runCompany(ctx context.Context, runID, identifier string) (outcome Outcome) {
	outcome = Outcome{OutputFile: r.scraper.StorePath(identifier)}
	started := r.clock.Now()

	fail := func(err error) {
		r.logger.Error("failed to scrape company", zap.String("company", identifier), zap.Error(err))
		outcome.Status = StatusFailed
		outcome.Error = err.Error()
		r.observer.Observe(progress.Event{
			RunID:   runID,
			TS:      r.clock.Now(),
			Stage:   progress.StageCompanyError,
			Company: identifier,
			New:     outcome.NewReviews,
			Dur:     nonNegative(r.clock.Now().Sub(started)),
			Note:    err.Error(),
		})
	}
	defer func() {
		if rec := recover(); rec != nil {
			fail(fmt.Errorf("panic: %v", rec))
		}
	}()

	result, err := r.scraper.ScrapeCompany(ctx, identifier)
	if result.StorePath != "" {
		outcome.OutputFile = result.StorePath
	}
	// Reviews appended before a failure are on disk and still count.
	outcome.NewReviews = result.NewReviews
	if err != nil {
		fail(err)
		return outcome
	}
	outcome.Status = StatusSuccess
	return outcome
}

func (r *Runner) finish(ctx context.Context, summary Summary) {
	r.logger.Info("run completed",
		zap.String("run_id", summary.RunID),
		zap.Int("companies", summary.TotalCompanies),
		zap.Int("failed", summary.Failed()),
		zap.Int("new_reviews", summary.TotalNewReviews),
	)
	if r.reporter != nil {
		if err := r.reporter.Report(summary); err != nil {
			r.logger.Warn("could not render summary", zap.Error(err))
		}
	}
	for _, w := range r.snapshots {
		if w == nil {
			continue
		}
		location, err := w.WriteSnapshot(ctx, summary)
		if err != nil {
			r.logger.Warn("could not save summary", zap.Error(err))
			continue
		}
		r.logger.Info("summary saved", zap.String("location", location))
	}
	if r.publisher != nil && r.cfg.Topic != "" {
		id, err := r.publisher.Publish(ctx, r.cfg.Topic, summary)
		if err != nil {
			r.logger.Warn("could not publish summary", zap.String("topic", r.cfg.Topic), zap.Error(err))
			return
		}
		r.logger.Info("summary published", zap.String("topic", r.cfg.Topic), zap.String("message_id", id))
	}
}

func (r *Runner) newRunID() string {
	if r.idGen == nil {
		return ""
	}
	id, err := r.idGen.NewID()
	if err != nil {
		r.logger.Warn("could not generate run id", zap.Error(err))
		return ""
	}
	return id
}
