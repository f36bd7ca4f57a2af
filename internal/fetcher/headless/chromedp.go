// Package headless fetches listing pages through a headless Chrome browser,
// for sites that refuse plain HTTP clients.
package headless

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/JakeFAU/review-scraper/internal/scraper"
)

const (
	defaultNavigationTimeout = 45 * time.Second
	defaultPayloadWait       = 3 * time.Second
	payloadPollInterval      = 100 * time.Millisecond

	// payloadPresent is true once the listing's embedded data block exists.
	payloadPresent = `document.getElementById("__NEXT_DATA__") !== null`
)

// Config controls the behavior of the headless fetcher.
type Config struct {
	// UserAgent applies when a request does not carry its own header.
	UserAgent         string
	NavigationTimeout time.Duration
	// PayloadWait bounds how long to wait for the embedded data block after
	// the body is ready. Pages without one (blocks, captchas) are captured as-is.
	PayloadWait time.Duration
}

// Fetcher implements scraper.Fetcher on top of chromedp. One browser process
// serves every request and each request opens its own tab.
type Fetcher struct {
	cfg       Config
	browser   context.Context
	closeOnce sync.Once
	shutdown  context.CancelFunc
}

// NewChromedp prepares a headless fetcher. Chrome starts on the first Fetch.
func NewChromedp(cfg Config) (*Fetcher, error) {
	if cfg.NavigationTimeout < 0 || cfg.PayloadWait < 0 {
		return nil, errors.New("headless timeouts must be >= 0")
	}
	if cfg.NavigationTimeout == 0 {
		cfg.NavigationTimeout = defaultNavigationTimeout
	}
	if cfg.PayloadWait == 0 {
		cfg.PayloadWait = defaultPayloadWait
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.Flag("enable-automation", false),
	)
	browser, shutdown := chromedp.NewExecAllocator(context.Background(), opts...)
	return &Fetcher{cfg: cfg, browser: browser, shutdown: shutdown}, nil
}

// Close stops the browser. It is safe to call more than once.
func (f *Fetcher) Close() {
	f.closeOnce.Do(f.shutdown)
}

// Fetch loads the listing page in a fresh tab and returns the rendered HTML
// with the status and headers of the main document response.
func (f *Fetcher) Fetch(ctx context.Context, request scraper.FetchRequest) (scraper.FetchResponse, error) {
	tab, closeTab := chromedp.NewContext(f.browser)
	defer closeTab()
	tab, cancel := context.WithTimeout(tab, f.cfg.NavigationTimeout)
	defer cancel()
	// The browser outlives ctx, so the tab is tied to it explicitly.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	doc := &documentTracker{}
	chromedp.ListenTarget(tab, doc.listen)

	start := time.Now()
	var html, location string
	err := chromedp.Run(tab,
		f.prepareTab(request.Headers),
		chromedp.Navigate(request.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		waitForPayload(f.cfg.PayloadWait),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return scraper.FetchResponse{}, fmt.Errorf("headless fetch canceled: %w", ctx.Err())
		}
		return scraper.FetchResponse{}, fmt.Errorf("headless fetch %s: %w", request.URL, err)
	}

	resp := doc.response(request.URL, location)
	resp.Body = []byte(html)
	resp.Duration = time.Since(start)
	return resp, nil
}

// prepareTab applies request headers. Chrome ignores a User-Agent passed as an
// extra header, so it goes through the emulation override instead.
func (f *Fetcher) prepareTab(headers http.Header) chromedp.Action {
	agent, extra := splitUserAgent(headers, f.cfg.UserAgent)
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if agent != "" {
			if err := emulation.SetUserAgentOverride(agent).Do(ctx); err != nil {
				return fmt.Errorf("override user-agent: %w", err)
			}
		}
		if len(extra) == 0 {
			return nil
		}
		if err := network.SetExtraHTTPHeaders(extra).Do(ctx); err != nil {
			return fmt.Errorf("set extra headers: %w", err)
		}
		return nil
	})
}

// waitForPayload polls for the embedded data block and gives up quietly when
// it never shows up.
func waitForPayload(limit time.Duration) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		err := chromedp.Poll(payloadPresent, nil,
			chromedp.WithPollingTimeout(limit),
			chromedp.WithPollingInterval(payloadPollInterval),
		).Do(ctx)
		if err == nil || errors.Is(err, chromedp.ErrPollingTimeout) {
			return nil
		}
		return fmt.Errorf("wait for payload: %w", err)
	})
}

func splitUserAgent(headers http.Header, fallback string) (string, network.Headers) {
	agent := headers.Get("User-Agent")
	if agent == "" {
		agent = fallback
	}
	extra := network.Headers{}
	for key, values := range headers {
		if http.CanonicalHeaderKey(key) == "User-Agent" || len(values) == 0 {
			continue
		}
		if len(values) == 1 {
			extra[key] = values[0]
			continue
		}
		extra[key] = append([]string(nil), values...)
	}
	return agent, extra
}

// documentTracker remembers the last main-document response seen in a tab,
// which is the final hop after any redirects.
type documentTracker struct {
	mu      sync.Mutex
	status  int
	url     string
	headers http.Header
}

func (d *documentTracker) listen(ev any) {
	e, ok := ev.(*network.EventResponseReceived)
	if !ok || e.Type != network.ResourceTypeDocument || e.Response == nil {
		return
	}
	headers := headersFromNetwork(e.Response.Headers)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = int(e.Response.Status)
	d.url = e.Response.URL
	d.headers = headers
}

// response builds the response metadata. Without a captured document event it
// assumes 200 at the browser's final location, or the request URL.
func (d *documentTracker) response(requestURL, location string) scraper.FetchResponse {
	d.mu.Lock()
	defer d.mu.Unlock()
	resp := scraper.FetchResponse{
		URL:          d.url,
		StatusCode:   d.status,
		Headers:      d.headers.Clone(),
		UsedHeadless: true,
	}
	if resp.URL == "" {
		resp.URL = location
	}
	if resp.URL == "" {
		resp.URL = requestURL
	}
	if resp.StatusCode == 0 {
		resp.StatusCode = http.StatusOK
	}
	if resp.Headers == nil {
		resp.Headers = http.Header{}
	}
	return resp
}

func headersFromNetwork(in network.Headers) http.Header {
	out := make(http.Header, len(in))
	for key, value := range in {
		switch v := value.(type) {
		case string:
			out.Add(key, v)
		case []any:
			for _, item := range v {
				out.Add(key, fmt.Sprint(item))
			}
		default:
			out.Add(key, fmt.Sprint(v))
		}
	}
	return out
}
