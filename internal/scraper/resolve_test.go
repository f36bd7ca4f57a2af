package scraper

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		identifier string
		want       string
	}{
		{name: "bare name lowercased", identifier: "Acme", want: "https://www.trustpilot.com/review/acme"},
		{name: "bare name no tld appended", identifier: "acme-store", want: "https://www.trustpilot.com/review/acme-store"},
		{name: "domain keeps case", identifier: "Acme.com", want: "https://www.trustpilot.com/review/Acme.com"},
		{name: "domain strips www", identifier: "www.acme.com", want: "https://www.trustpilot.com/review/acme.com"},
		{name: "domain keeps subdomain", identifier: "shop.acme.co.uk", want: "https://www.trustpilot.com/review/shop.acme.co.uk"},
		{name: "whitespace trimmed", identifier: "  Acme  ", want: "https://www.trustpilot.com/review/acme"},
		{
			name:       "source url normalized",
			identifier: "https://uk.trustpilot.com/review/acme.com/",
			want:       "https://www.trustpilot.com/review/acme.com",
		},
		{
			name:       "source url drops query",
			identifier: "https://www.trustpilot.com/review/acme.com?page=3",
			want:       "https://www.trustpilot.com/review/acme.com",
		},
		{
			name:       "foreign url uses host",
			identifier: "https://www.acme.com/about",
			want:       "https://www.trustpilot.com/review/acme.com",
		},
		{
			name:       "source url without review path uses host",
			identifier: "https://www.trustpilot.com/categories",
			want:       "https://www.trustpilot.com/review/trustpilot.com",
		},
		{name: "http-looking name is a slug", identifier: "httpbin", want: "https://www.trustpilot.com/review/httpbin"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ResolveURL(DefaultSiteRoot, tt.identifier))
		})
	}
}

func TestResolveURLCustomRoot(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "http://127.0.0.1:8080/review/acme", ResolveURL("http://127.0.0.1:8080/", "ACME"))
	assert.Equal(t, DefaultSiteRoot+"/review/acme", ResolveURL("", "acme"))
}

func TestStoreName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		identifier string
		want       string
	}{
		{identifier: "Acme", want: "acme.jsonl"},
		{identifier: "www.acme.com", want: "acme.jsonl"},
		{identifier: "acme.co.uk", want: "acme_co_uk.jsonl"},
		{identifier: "acme.com.au", want: "acme_com_au.jsonl"},
		{identifier: "acme.community", want: "acme_community.jsonl"},
		{identifier: "Acme & Sons Ltd", want: "acmesonsltd.jsonl"},
		{identifier: "https://www.trustpilot.com/review/www.acme.com", want: "acme.jsonl"},
		{identifier: "https://www.trustpilot.com/review/acme.de/", want: "acme_de.jsonl"},
		{identifier: "https://www.acme.com/contact", want: "acme.jsonl"},
		{identifier: "my_shop-2", want: "my_shop-2.jsonl"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StoreName(tt.identifier), tt.identifier)
	}
}

func TestNewTarget(t *testing.T) {
	t.Parallel()

	target, err := NewTarget(DefaultSiteRoot, "www.acme.com")
	require.NoError(t, err)
	assert.Equal(t, Target{
		Identifier: "www.acme.com",
		URL:        "https://www.trustpilot.com/review/acme.com",
		StoreName:  "acme.jsonl",
	}, target)

	_, err = NewTarget(DefaultSiteRoot, "!!!")
	assert.True(t, errors.Is(err, ErrInvalidIdentifier))
}

func TestPageURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://www.trustpilot.com/review/acme?page=2", PageURL("https://www.trustpilot.com/review/acme", "page", 2))
	assert.Equal(t, "https://x.test/review/acme?languages=all&page=1", PageURL("https://x.test/review/acme?languages=all", "", 1))
}
