// Package main hosts the review-scraper entrypoint.
//
// A run resolves the company list (flag, file, or a conventional file in the
// working directory), then scrapes each company sequentially: listing pages are
// fetched with colly (or chromedp in headless mode), reviews are extracted from
// the embedded page data, and every review whose body is new is appended to
// <output_dir>/<company>.jsonl. The run ends with a console table and a
// summary document, optionally mirrored to GCS, Postgres, and Pub/Sub.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/JakeFAU/review-scraper/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cmd.Execute(ctx)
}
