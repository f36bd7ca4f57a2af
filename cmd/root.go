// Package cmd defines and implements the CLI commands for the review-scraper executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/review-scraper/internal/config"
	"github.com/JakeFAU/review-scraper/internal/logging"
)

// envKeyType is the key for storing the loaded environment in the command context.
type envKeyType string

const envKey envKeyType = "env"

// env carries what every subcommand needs once flags are parsed.
type env struct {
	cfg    config.Config
	logger *zap.Logger
}

type rootOptions struct {
	cfgFile  string
	logLevel string
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "review-scraper",
		Short: "Collects public reviews for a list of companies.",
		Long: `review-scraper walks the paginated public review listing of each
company, appends every review not seen before to a per-company JSON Lines
store, and writes a summary document for the run.`,
		SilenceUsage: true,

		// Config and logger are built here; backends are only built by the
		// subcommands that need them.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv(opts)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), envKey, e))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if e, ok := cmd.Context().Value(envKey).(*env); ok && e != nil {
				// Sync fails on non-syncable outputs such as a terminal stderr.
				_ = e.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (YAML, JSON, or TOML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	cmd.AddCommand(newScrapeCmd())
	cmd.AddCommand(newResolveCmd())
	return cmd
}

func loadEnv(opts *rootOptions) (*env, error) {
	cfg, err := config.Load(opts.cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	logger, err := logging.New(logging.Config{
		Development: cfg.Logging.Development,
		Level:       cfg.Logging.Level,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return &env{cfg: cfg, logger: logger}, nil
}

func resolveEnv(ctx context.Context) (*env, error) {
	e, ok := ctx.Value(envKey).(*env)
	if !ok || e == nil {
		return nil, errors.New("command environment not initialized")
	}
	return e, nil
}

// Execute is the main entry point.
func Execute(ctx context.Context) {
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "review-scraper:", err)
		os.Exit(1)
	}
}
