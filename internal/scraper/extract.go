package scraper

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// payloadSelector locates the Next.js data block embedded in listing pages.
const payloadSelector = "script#__NEXT_DATA__"

// ErrNoPayload is returned when a page carries no embedded reviews list.
var ErrNoPayload = errors.New("embedded review payload not found")

type nextData struct {
	Props struct {
		PageProps struct {
			Reviews *[]json.RawMessage `json:"reviews"`
		} `json:"pageProps"`
	} `json:"props"`
}

// ExtractReviews parses an HTML document and returns the raw entries of its
// props.pageProps.reviews list.
func ExtractReviews(body []byte) ([]RawReview, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	script := doc.Find(payloadSelector).First()
	if script.Length() == 0 {
		return nil, fmt.Errorf("%w: no %s element", ErrNoPayload, payloadSelector)
	}
	text := strings.TrimSpace(script.Text())
	if text == "" {
		return nil, fmt.Errorf("%w: empty data block", ErrNoPayload)
	}

	var data nextData
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, fmt.Errorf("decode data block: %w", err)
	}
	if data.Props.PageProps.Reviews == nil {
		return nil, fmt.Errorf("%w: props.pageProps.reviews missing", ErrNoPayload)
	}

	entries := *data.Props.PageProps.Reviews
	out := make([]RawReview, 0, len(entries))
	for _, entry := range entries {
		out = append(out, RawReview(entry))
	}
	return out, nil
}
