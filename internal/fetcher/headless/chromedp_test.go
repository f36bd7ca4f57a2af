package headless

import (
	"net/http"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChromedpDefaults(t *testing.T) {
	t.Parallel()

	_, err := NewChromedp(Config{NavigationTimeout: -time.Second})
	require.Error(t, err)
	_, err = NewChromedp(Config{PayloadWait: -time.Second})
	require.Error(t, err)

	fetcher, err := NewChromedp(Config{})
	require.NoError(t, err)
	t.Cleanup(fetcher.Close)
	assert.Equal(t, defaultNavigationTimeout, fetcher.cfg.NavigationTimeout)
	assert.Equal(t, defaultPayloadWait, fetcher.cfg.PayloadWait)

	fetcher.Close()
	fetcher.Close()
}

func TestSplitUserAgent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		headers   http.Header
		wantAgent string
		wantExtra network.Headers
	}{
		{
			name: "request agent wins",
			headers: http.Header{
				"User-Agent":      {"Mozilla/5.0"},
				"Accept-Language": {"en-GB", "en"},
				"X-Empty":         {},
			},
			wantAgent: "Mozilla/5.0",
			wantExtra: network.Headers{"Accept-Language": []string{"en-GB", "en"}},
		},
		{
			name:      "fallback agent",
			headers:   http.Header{"Accept": {"text/html"}},
			wantAgent: "fallback",
			wantExtra: network.Headers{"Accept": "text/html"},
		},
		{
			name:      "nil headers",
			wantAgent: "fallback",
			wantExtra: network.Headers{},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			agent, extra := splitUserAgent(tt.headers, "fallback")
			assert.Equal(t, tt.wantAgent, agent)
			assert.Equal(t, tt.wantExtra, extra)
		})
	}
}

func TestDocumentTrackerKeepsLastDocument(t *testing.T) {
	t.Parallel()

	doc := &documentTracker{}
	doc.listen(&network.EventResponseReceived{
		Type:     network.ResourceTypeDocument,
		Response: &network.Response{Status: http.StatusMovedPermanently, URL: "https://example.com/review/acme"},
	})
	doc.listen(&network.EventResponseReceived{
		Type:     network.ResourceTypeScript,
		Response: &network.Response{Status: http.StatusNotFound, URL: "https://example.com/app.js"},
	})
	doc.listen(&network.EventResponseReceived{
		Type: network.ResourceTypeDocument,
		Response: &network.Response{
			Status:  http.StatusForbidden,
			URL:     "https://www.example.com/review/acme?page=1",
			Headers: network.Headers{"X-Request-ID": "abc", "Set-Cookie": []any{"a=1", "b=2"}},
		},
	})
	doc.listen("not an event")

	resp := doc.response("https://req", "https://final")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "https://www.example.com/review/acme?page=1", resp.URL)
	assert.Equal(t, "abc", resp.Headers.Get("X-Request-ID"))
	assert.Equal(t, []string{"a=1", "b=2"}, resp.Headers.Values("Set-Cookie"))
	assert.True(t, resp.UsedHeadless)
}

func TestDocumentTrackerFallbacks(t *testing.T) {
	t.Parallel()

	resp := (&documentTracker{}).response("https://req", "https://final")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://final", resp.URL)
	assert.NotNil(t, resp.Headers)

	resp = (&documentTracker{}).response("https://req", "")
	assert.Equal(t, "https://req", resp.URL)
}
