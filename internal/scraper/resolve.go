package scraper

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// DefaultSiteRoot is the canonical root of the review site.
const DefaultSiteRoot = "https://www.trustpilot.com"

const (
	reviewSegment = "/review/"
	storeExt      = ".jsonl"
)

// ErrInvalidIdentifier is returned when an identifier yields no usable store name.
var ErrInvalidIdentifier = errors.New("invalid company identifier")

// ResolveURL maps a bare name, a domain, or a full URL to the canonical listing
// URL under siteRoot. It never fails; odd input degrades to a best guess.
func ResolveURL(siteRoot, identifier string) string {
	root := strings.TrimRight(siteRoot, "/")
	if root == "" {
		root = DefaultSiteRoot
	}
	id := strings.TrimSpace(identifier)

	if u, ok := parseAbsolute(id); ok {
		if strings.Contains(strings.ToLower(u.Host), siteDomain(root)) && strings.Contains(u.Path, reviewSegment) {
			return root + strings.TrimRight(u.Path, "/")
		}
		return root + reviewSegment + strings.TrimPrefix(u.Host, "www.")
	}

	if strings.Contains(id, ".") {
		return root + reviewSegment + strings.TrimPrefix(id, "www.")
	}
	return root + reviewSegment + strings.ToLower(id)
}

// StoreName derives the per-company store file name from an identifier.
func StoreName(identifier string) string {
	name := strings.TrimSpace(identifier)
	if u, ok := parseAbsolute(name); ok {
		if strings.Contains(u.Path, reviewSegment) {
			name = strings.Trim(strings.Replace(u.Path, reviewSegment, "", 1), "/")
		} else {
			name = u.Host
		}
	}
	name = strings.ToLower(name)
	name = strings.TrimPrefix(name, "www.")
	name = strings.TrimSuffix(name, ".com")
	name = strings.ReplaceAll(name, ".", "_")

	var b strings.Builder
	for _, r := range name {
		if isSlugRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String() + storeExt
}

// NewTarget resolves identifier into a Target.
func NewTarget(siteRoot, identifier string) (Target, error) {
	name := StoreName(identifier)
	if name == storeExt {
		return Target{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, identifier)
	}
	return Target{
		Identifier: identifier,
		URL:        ResolveURL(siteRoot, identifier),
		StoreName:  name,
	}, nil
}

// PageURL appends the page query parameter to a listing URL.
func PageURL(listingURL, param string, page int) string {
	if param == "" {
		param = "page"
	}
	u, err := url.Parse(listingURL)
	if err != nil {
		return fmt.Sprintf("%s?%s=%d", listingURL, param, page)
	}
	q := u.Query()
	q.Set(param, fmt.Sprint(page))
	u.RawQuery = q.Encode()
	return u.String()
}

func parseAbsolute(raw string) (*url.URL, bool) {
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return nil, false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, false
	}
	return u, true
}

func siteDomain(root string) string {
	u, err := url.Parse(root)
	if err != nil || u.Hostname() == "" {
		return "trustpilot.com"
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func isSlugRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_'
}
