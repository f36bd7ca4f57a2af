package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/review-scraper/internal/app"
	"github.com/JakeFAU/review-scraper/internal/input"
)

const noInputMessage = `No companies to scrape.

Pass a company with --company (or as the only argument), a file with one
company per line with --companies, or place a "companies" or "company" file
in the working directory.`

type scrapeOptions struct {
	company   string
	companies string
}

// newScrapeCmd creates and configures the 'scrape' subcommand.
func newScrapeCmd() *cobra.Command {
	opts := &scrapeOptions{}
	cmd := &cobra.Command{
		Use:   "scrape [company]",
		Short: "Scrapes reviews for one or more companies",
		Long: `Scrapes every company in order, one page at a time, pausing between
requests, pages, and companies. A failing company is recorded in the summary
and never stops the others. The command exits 0 once the run has started.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.company == "" && len(args) == 1 {
				opts.company = args[0]
			}
			return runScrape(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.company, "company", "", "single company identifier, slug, or URL")
	cmd.Flags().StringVar(&opts.companies, "companies", "", "file with one company identifier per line")
	return cmd
}

func runScrape(cmd *cobra.Command, opts *scrapeOptions) error {
	e, err := resolveEnv(cmd.Context())
	if err != nil {
		return err
	}

	identifiers, source, err := input.Resolve(input.Defaults(opts.company, opts.companies)...)
	if errors.Is(err, input.ErrNoInput) {
		e.logger.Debug("no input", zap.String("source", source), zap.Error(err))
		fmt.Fprintln(cmd.OutOrStdout(), noInputMessage)
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprint(cmd.OutOrStdout(), cmd.UsageString())
		return nil
	}
	if err != nil {
		return err
	}
	e.logger.Info("companies resolved", zap.String("source", source), zap.Int("count", len(identifiers)))

	a, err := app.New(cmd.Context(), e.cfg, e.logger, app.WithOutput(cmd.OutOrStdout()))
	if err != nil {
		return fmt.Errorf("failed to initialize application services: %w", err)
	}
	defer a.Close()

	a.Run(cmd.Context(), identifiers)
	return nil
}
