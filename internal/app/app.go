// Package app initializes and holds the long-lived services of a scrape run,
// acting as a dependency injection container built from config.Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/JakeFAU/review-scraper/internal/api"
	"github.com/JakeFAU/review-scraper/internal/config"
	collyfetcher "github.com/JakeFAU/review-scraper/internal/fetcher/colly"
	"github.com/JakeFAU/review-scraper/internal/fetcher/headless"
	"github.com/JakeFAU/review-scraper/internal/hash/sha256"
	"github.com/JakeFAU/review-scraper/internal/id/uuid"
	"github.com/JakeFAU/review-scraper/internal/metrics"
	"github.com/JakeFAU/review-scraper/internal/progress"
	"github.com/JakeFAU/review-scraper/internal/progress/sinks"
	pubsubpublisher "github.com/JakeFAU/review-scraper/internal/publisher/pubsub"
	"github.com/JakeFAU/review-scraper/internal/report"
	"github.com/JakeFAU/review-scraper/internal/scraper"
	"github.com/JakeFAU/review-scraper/internal/storage/gcs"
	"github.com/JakeFAU/review-scraper/internal/storage/local"
	"github.com/JakeFAU/review-scraper/internal/storage/postgres"
)

// Option overrides a collaborator that New would otherwise build from config.
type Option func(*options)

type options struct {
	fetcher   scraper.Fetcher
	publisher scraper.Publisher
	mirror    scraper.ReviewMirror
	out       io.Writer
}

// WithFetcher replaces the colly or headless fetcher.
func WithFetcher(f scraper.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithPublisher replaces the Pub/Sub publisher.
func WithPublisher(p scraper.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithMirror replaces the Postgres review mirror.
func WithMirror(m scraper.ReviewMirror) Option {
	return func(o *options) { o.mirror = m }
}

// WithOutput redirects the console summary table (stdout by default).
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// App holds every service a scrape run needs.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	status   *api.RunStatus
	server   *api.Server
	store    *local.ReviewStore
	scraper  *scraper.Scraper
	runner   *scraper.Runner
	closers  []func() error
}

// New builds the App from cfg. It fails fast when an enabled backend cannot be
// initialized. Backends whose config is empty are simply left out.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (a *App, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := options{out: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	a = &App{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		status:   api.NewRunStatus(),
	}
	defer func() {
		if err != nil {
			a.Close()
			a = nil
		}
	}()

	a.store, err = local.New(local.Config{BaseDir: cfg.Storage.OutputDir})
	if err != nil {
		return a, fmt.Errorf("init review store: %w", err)
	}

	fetcher := o.fetcher
	if fetcher == nil {
		if fetcher, err = a.newFetcher(); err != nil {
			return a, err
		}
	}

	mirror := o.mirror
	if mirror == nil && cfg.DB.DSN != "" {
		if mirror, err = a.newMirror(ctx); err != nil {
			return a, err
		}
	}

	snapshots := []scraper.SnapshotWriter{local.NewSnapshotWriter(cfg.Storage.SummaryPath)}
	if cfg.Storage.GCSBucket != "" {
		remote, err := a.newGCSSnapshots(ctx)
		if err != nil {
			return a, err
		}
		snapshots = append(snapshots, remote)
	}

	publisher := o.publisher
	if publisher == nil && cfg.PubSub.TopicName != "" {
		if publisher, err = a.newPublisher(ctx); err != nil {
			return a, err
		}
	}

	observer, err := a.newObserver()
	if err != nil {
		return a, err
	}

	a.scraper, err = scraper.New(scraper.Config{
		SiteRoot:     cfg.Scraper.SiteRoot,
		UserAgent:    cfg.Scraper.UserAgent,
		PageParam:    cfg.Scraper.PageParam,
		FetchDelay:   cfg.Scraper.FetchDelay,
		PageDelay:    cfg.Scraper.PageDelay,
		CompanyDelay: cfg.Scraper.CompanyDelay,
		MaxPages:     cfg.Scraper.MaxPages,
	}, scraper.Deps{
		Fetcher:  fetcher,
		Store:    a.store,
		Mirror:   mirror,
		Hasher:   sha256.New(),
		Observer: observer,
	}, logger)
	if err != nil {
		return a, fmt.Errorf("init scraper: %w", err)
	}

	a.runner, err = scraper.NewRunner(scraper.RunnerConfig{
		CompanyDelay: cfg.Scraper.CompanyDelay,
		Topic:        cfg.PubSub.TopicName,
	}, scraper.RunnerDeps{
		Scraper:   a.scraper,
		Snapshots: snapshots,
		Reporter:  report.NewTableReporter(o.out),
		Publisher: publisher,
		IDGen:     uuid.New(),
		Observer:  observer,
	}, logger)
	if err != nil {
		return a, fmt.Errorf("init runner: %w", err)
	}

	if cfg.Metrics.ListenAddr != "" {
		if err := a.newServer(); err != nil {
			return a, err
		}
	}

	logger.Info("application services initialized",
		zap.String("mode", cfg.HTTP.Mode),
		zap.String("output_dir", cfg.Storage.OutputDir),
		zap.Bool("mirror", mirror != nil),
		zap.Bool("gcs", cfg.Storage.GCSBucket != ""),
		zap.Bool("pubsub", publisher != nil),
		zap.Bool("status_server", a.server != nil),
	)
	return a, nil
}

func (a *App) newFetcher() (scraper.Fetcher, error) {
	switch a.cfg.HTTP.Mode {
	case config.ModeHeadless:
		f, err := headless.NewChromedp(headless.Config{
			UserAgent:         a.cfg.Scraper.UserAgent,
			NavigationTimeout: a.cfg.NavigationTimeout(),
		})
		if err != nil {
			return nil, fmt.Errorf("init headless fetcher: %w", err)
		}
		a.closers = append(a.closers, func() error { f.Close(); return nil })
		return f, nil
	case config.ModeColly, "":
		return collyfetcher.New(collyfetcher.Config{
			UserAgent: a.cfg.Scraper.UserAgent,
			Timeout:   a.cfg.RequestTimeout(),
		}), nil
	default:
		return nil, fmt.Errorf("unknown http.mode %q", a.cfg.HTTP.Mode)
	}
}

func (a *App) newMirror(ctx context.Context) (scraper.ReviewMirror, error) {
	m, err := postgres.NewReviewMirror(ctx, postgres.ReviewMirrorConfig{
		DSN:      a.cfg.DB.DSN,
		Table:    a.cfg.DB.Table,
		MaxConns: a.cfg.DB.MaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("init review mirror: %w", err)
	}
	a.closers = append(a.closers, func() error { m.Close(); return nil })
	if a.cfg.DB.EnsureSchema {
		if err := m.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure review mirror schema: %w", err)
		}
	}
	return m, nil
}

func (a *App) newGCSSnapshots(ctx context.Context) (scraper.SnapshotWriter, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("init gcs client: %w", err)
	}
	a.closers = append(a.closers, client.Close)
	bucket, err := gcs.NewBucket(client, a.cfg.Storage.GCSBucket)
	if err != nil {
		return nil, fmt.Errorf("init gcs bucket: %w", err)
	}
	w, err := gcs.NewSnapshotWriter(bucket, a.cfg.Storage.GCSPrefix)
	if err != nil {
		return nil, fmt.Errorf("init gcs snapshot writer: %w", err)
	}
	return w, nil
}

func (a *App) newPublisher(ctx context.Context) (scraper.Publisher, error) {
	client, err := pubsub.NewClient(ctx, a.cfg.PubSub.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("init pubsub client: %w", err)
	}
	p := pubsubpublisher.New(client)
	// Topics are stopped before the client closes; closers run in reverse.
	a.closers = append(a.closers, client.Close, func() error { p.Stop(); return nil })
	return p, nil
}

func (a *App) newObserver() (progress.Observer, error) {
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promSink, err := sinks.NewPrometheusSink(a.registry)
	if err != nil {
		return nil, fmt.Errorf("init prometheus sink: %w", err)
	}
	return progress.NewMulti(sinks.NewLogSink(a.logger), promSink, a.status), nil
}

func (a *App) newServer() error {
	httpMetrics, err := metrics.NewHTTP(a.registry)
	if err != nil {
		return err
	}
	a.server, err = api.NewServer(api.Config{
		Gatherer:    a.registry,
		Status:      a.status,
		HTTPMetrics: httpMetrics,
		Logger:      a.logger,
	})
	if err != nil {
		return fmt.Errorf("init status server: %w", err)
	}
	return nil
}

// Scraper exposes the per-company scraper, e.g. for resolving store paths.
func (a *App) Scraper() *scraper.Scraper {
	return a.scraper
}

// Registry exposes the Prometheus registry that run metrics are recorded in.
func (a *App) Registry() *prometheus.Registry {
	return a.registry
}

// Status exposes the live run state.
func (a *App) Status() *api.RunStatus {
	return a.status
}

// Run scrapes identifiers in order and returns the run summary. The status
// server, when configured, serves for the duration of the run. The metrics
// textfile is written after the summary has been persisted.
func (a *App) Run(ctx context.Context, identifiers []string) scraper.Summary {
	serverDone := make(chan struct{})
	serverCtx, stopServer := context.WithCancel(ctx)
	if a.server != nil {
		go func() {
			defer close(serverDone)
			if err := a.server.ListenAndServe(serverCtx, a.cfg.Metrics.ListenAddr); err != nil {
				a.logger.Warn("status server stopped", zap.Error(err))
			}
		}()
	} else {
		close(serverDone)
	}

	summary := a.runner.RunAll(ctx, identifiers)

	if err := metrics.WriteTextfile(a.registry, a.cfg.Metrics.TextfilePath); err != nil {
		a.logger.Warn("could not write metrics textfile", zap.Error(err))
	}
	stopServer()
	<-serverDone
	return summary
}

// Close releases every backend in reverse order of creation and syncs the logger.
func (a *App) Close() {
	if a == nil {
		return
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("error closing application services", zap.Error(err))
	}
	// Sync fails on non-syncable outputs such as a terminal stderr.
	_ = a.logger.Sync()
}
