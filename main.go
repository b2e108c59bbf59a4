package main

import (
	"fmt"
	"os"

	"books-scraper/config"
	"books-scraper/logger"
	"books-scraper/pipeline"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const version = "1.0.0"

// options holds the command line flags
type options struct {
	configPath string
	url        string
	output     string
	limit      int
	dialect    string
	quote      bool
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return buildRootCmd(&options{})
}

func buildRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "books-scraper",
		Short:         "Scrape one catalog page into books.csv",
		Long:          "Fetches a catalog listing page, extracts url, cover image, title and price of each product card and writes them as comma separated rows.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cmd, opts)
			applyFlags(cmd, opts, cfg)
			return run(cmd, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "config.yaml", "Path to configuration file")
	flags.StringVar(&opts.url, "url", "", "Catalog page URL (overrides target.url)")
	flags.StringVarP(&opts.output, "output", "o", "", "Output file (overrides output.path)")
	flags.IntVar(&opts.limit, "limit", 0, "Maximum number of books to keep, 0 for no cap (overrides extract.max_books)")
	flags.StringVar(&opts.dialect, "dialect", "", "Selector dialect: xpath or css (overrides extract.dialect)")
	flags.BoolVar(&opts.quote, "quote", false, "Quote fields containing commas or quotes (overrides output.quote)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides log.level)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "books-scraper version %s\n", version)
		},
	})

	return cmd
}

// loadConfig loads configuration from file or returns defaults
func loadConfig(cmd *cobra.Command, opts *options) *config.Config {
	if _, err := os.Stat(opts.configPath); err != nil {
		if cmd.Flags().Changed("config") {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: config file %s not found. Using defaults.\n", opts.configPath)
		}
		return config.GetDefaultConfig()
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v. Using defaults.\n", err)
		return config.GetDefaultConfig()
	}
	return cfg
}

// applyFlags copies explicitly set flags over the loaded configuration
func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.Target.URL = opts.url
	}
	if flags.Changed("output") {
		cfg.Output.Path = opts.output
	}
	if flags.Changed("limit") {
		cfg.Extract.MaxBooks = opts.limit
	}
	if flags.Changed("dialect") {
		cfg.Extract.Dialect = opts.dialect
	}
	if flags.Changed("quote") {
		cfg.Output.Quote = opts.quote
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
}

func run(cmd *cobra.Command, cfg *config.Config) error {
	log := logger.New(cfg.Log.Level, cfg.Log.Development)
	defer func() { _ = log.Sync() }()

	summary, err := pipeline.Run(cfg, log)
	if err != nil {
		log.Error("Scrape failed", zap.String("run_id", summary.RunID), zap.Error(err))
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d books to %s (%d skipped)\n", summary.Written, cfg.Output.Path, summary.Skipped)
	return nil
}
