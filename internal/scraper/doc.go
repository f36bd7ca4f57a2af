// Package scraper implements the review pipeline: resolving a company
// identifier to its listing URL, walking listing pages until one comes back
// empty, normalizing the embedded review entries, and admitting new reviews
// into the per-company append-only store.
package scraper
