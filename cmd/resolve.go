package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/review-scraper/internal/scraper"
)

// newResolveCmd creates the 'resolve' subcommand, which prints the listing URL
// and store path for each identifier without touching the network or disk.
func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve IDENTIFIER...",
		Short: "Prints the listing URL and store path for identifiers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := resolveEnv(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range args {
				target, err := scraper.NewTarget(e.cfg.Scraper.SiteRoot, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n",
					id, target.URL, filepath.Join(e.cfg.Storage.OutputDir, target.StoreName))
			}
			return nil
		},
	}
}
