package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/review-scraper/internal/progress"
)

// Default pacing and request settings.
const (
	DefaultUserAgent    = "Mozilla/5.0"
	DefaultPageParam    = "page"
	DefaultFetchDelay   = 2 * time.Second
	DefaultPageDelay    = 1 * time.Second
	DefaultCompanyDelay = 5 * time.Second
)

// Config controls how listings are requested and paced.
type Config struct {
	SiteRoot     string
	UserAgent    string
	PageParam    string
	FetchDelay   time.Duration
	PageDelay    time.Duration
	CompanyDelay time.Duration
	// MaxPages caps pages per company; zero walks until an empty page.
	MaxPages int
}

// Deps bundles the collaborators of a Scraper. Fetcher and Store are required.
type Deps struct {
	Fetcher  Fetcher
	Store    ReviewStore
	Mirror   ReviewMirror
	Hasher   Hasher
	Clock    Clock
	Pauser   Pauser
	Observer progress.Observer
}

// Scraper runs the per-company fetch, extract, and admit loop.
type Scraper struct {
	cfg      Config
	fetcher  Fetcher
	store    ReviewStore
	mirror   ReviewMirror
	hasher   Hasher
	clock    Clock
	pauser   Pauser
	observer progress.Observer
	logger   *zap.Logger
}

// New constructs a Scraper, filling unset config values with defaults.
func New(cfg Config, deps Deps, logger *zap.Logger) (*Scraper, error) {
	if deps.Fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	if deps.Store == nil {
		return nil, errors.New("review store is required")
	}
	if cfg.SiteRoot == "" {
		cfg.SiteRoot = DefaultSiteRoot
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.PageParam == "" {
		cfg.PageParam = DefaultPageParam
	}
	if cfg.FetchDelay < 0 || cfg.PageDelay < 0 || cfg.CompanyDelay < 0 {
		return nil, errors.New("delays must be >= 0")
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
	return &Scraper{
		cfg:      cfg,
		fetcher:  deps.Fetcher,
		store:    deps.Store,
		mirror:   deps.Mirror,
		hasher:   deps.Hasher,
		clock:    deps.Clock,
		pauser:   deps.Pauser,
		observer: deps.Observer,
		logger:   logger,
	}, nil
}

// Config returns the effective configuration.
func (s *Scraper) Config() Config {
	return s.cfg
}

// StorePath returns where the store for identifier lives.
func (s *Scraper) StorePath(identifier string) string {
	return s.store.Location(StoreName(identifier))
}

// FetchPage retrieves one listing page and returns its raw review entries.
// Every failure is logged and reported as an empty page. The fetch delay is
// applied after every request regardless of outcome.
func (s *Scraper) FetchPage(ctx context.Context, listingURL string, page int) []RawReview {
	entries, _ := s.fetchPage(ctx, listingURL, page)
	return entries
}

func (s *Scraper) fetchPage(ctx context.Context, listingURL string, page int) ([]RawReview, FetchResponse) {
	pageURL := PageURL(listingURL, s.cfg.PageParam, page)
	defer s.pauser.Pause(ctx, s.cfg.FetchDelay)

	resp, err := s.fetcher.Fetch(ctx, FetchRequest{
		URL:     pageURL,
		Headers: http.Header{"User-Agent": {s.cfg.UserAgent}},
	})
	if err != nil {
		s.logger.Warn("page fetch failed", zap.String("url", pageURL), zap.Error(err))
		return nil, resp
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Warn("page fetch returned non-success status",
			zap.String("url", pageURL),
			zap.Int("status", resp.StatusCode),
		)
		return nil, resp
	}

	entries, err := ExtractReviews(resp.Body)
	if err != nil {
		s.logger.Warn("page extraction failed", zap.String("url", pageURL), zap.Error(err))
		return nil, resp
	}
	return entries, resp
}

// ScrapeCompany walks the listing for identifier page by page, admitting every
// review whose body is not yet in the company store. It stops at the first
// empty page. Only context cancellation and invalid identifiers return errors.
func (s *Scraper) ScrapeCompany(ctx context.Context, identifier string) (CompanyResult, error) {
	target, err := NewTarget(s.cfg.SiteRoot, identifier)
	if err != nil {
		return CompanyResult{}, err
	}
	result := CompanyResult{
		Target:    target,
		StorePath: s.store.Location(target.StoreName),
	}
	logger := s.logger.With(zap.String("company", identifier))
	started := s.clock.Now()

	existing, err := s.store.Load(ctx, target.StoreName)
	if err != nil {
		logger.Warn("could not load existing store; continuing with empty duplicate set",
			zap.String("store", result.StorePath),
			zap.Error(err),
		)
		existing = nil
	}
	result.ExistingReviews = len(existing)
	known := newBodySet(s.hasher, existing)

	logger.Info("scraping company",
		zap.String("url", target.URL),
		zap.String("store", result.StorePath),
		zap.Int("existing_reviews", result.ExistingReviews),
	)
	s.observer.Observe(progress.Event{
		TS:      started,
		Stage:   progress.StageCompanyStart,
		Company: identifier,
		URL:     target.URL,
		Total:   result.ExistingReviews,
	})

	for page := 1; s.cfg.MaxPages <= 0 || page <= s.cfg.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("scrape %s canceled: %w", identifier, err)
		}

		entries, resp := s.fetchPage(ctx, target.URL, page)
		if len(entries) == 0 {
			break
		}
		result.Pages++

		pageNew := s.admitPage(ctx, logger, target, entries, known)
		result.NewReviews += pageNew

		s.observer.Observe(progress.Event{
			TS:       s.clock.Now(),
			Stage:    progress.StagePageDone,
			Company:  identifier,
			URL:      resp.URL,
			Page:     page,
			Entries:  len(entries),
			New:      pageNew,
			TotalNew: result.NewReviews,
			Total:    result.ExistingReviews + result.NewReviews,
			Bytes:    int64(len(resp.Body)),
			Dur:      resp.Duration,
		})

		s.pauser.Pause(ctx, s.cfg.PageDelay)
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("scrape %s canceled: %w", identifier, err)
	}

	logger.Info("completed company",
		zap.Int("pages", result.Pages),
		zap.Int("new_reviews", result.NewReviews),
		zap.Int("total_reviews", result.ExistingReviews+result.NewReviews),
	)
	s.observer.Observe(progress.Event{
		TS:       s.clock.Now(),
		Stage:    progress.StageCompanyDone,
		Company:  identifier,
		URL:      target.URL,
		New:      result.NewReviews,
		TotalNew: result.NewReviews,
		Total:    result.ExistingReviews + result.NewReviews,
		Dur:      nonNegative(s.clock.Now().Sub(started)),
	})
	return result, nil
}

// admitPage normalizes and admits one page of entries and returns how many
// reviews were durably appended.
func (s *Scraper) admitPage(
	ctx context.Context,
	logger *zap.Logger,
	target Target,
	entries []RawReview,
	known *bodySet,
) int {
	admitted := 0
	for i, raw := range entries {
		review, err := Normalize(raw, target.Identifier, target.URL, s.clock.Now())
		if err != nil {
			logger.Warn("skipping malformed review", zap.Int("entry", i), zap.Error(err))
			continue
		}
		key := known.key(review.Body)
		if known.has(key) {
			continue
		}
		if err := s.store.Append(ctx, target.StoreName, review); err != nil {
			logger.Error("could not append review", zap.Error(err))
			continue
		}
		known.add(key)
		admitted++

		if s.mirror != nil {
			if err := s.mirror.Mirror(ctx, key, review); err != nil {
				logger.Warn("review mirror failed", zap.Error(err))
			}
		}
	}
	return admitted
}

type utcClock struct{}

func (utcClock) Now() time.Time {
	return time.Now().UTC()
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
