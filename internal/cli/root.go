// Package cli exposes the command-line surface. It only translates
// flags into a config.Config; all behavior lives in internal/app.
package cli

import (
	"time"

	"github.com/spf13/cobra"

	"bdtdharvest/internal/app"
	"bdtdharvest/internal/config"
	"bdtdharvest/internal/logging"
)

// NewRootCommand builds the harvester command.
func NewRootCommand() *cobra.Command {
	var (
		configPath string
		outputDir  string
		maxPages   int
		searchType string
		workers    int
		csvOutput  bool
		interval   time.Duration
		noDetails  bool
		noPDFs     bool
		maxRetries int
		timeout    time.Duration
		insecure   bool
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "bdtdharvest <search term>",
		Short: "Harvests thesis metadata and PDFs from the BDTD repository.",
		Long: "bdtdharvest searches the Brazilian Digital Library of Theses and\n" +
			"Dissertations, extracts record metadata and details, downloads linked\n" +
			"PDF documents, and writes everything as CSV/XLSX tables.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			cfg.SearchTerm = args[0]
			flags := cmd.Flags()
			if flags.Changed("output-folder") {
				cfg.OutputDir = outputDir
			}
			if flags.Changed("pages") {
				cfg.MaxPages = maxPages
			}
			if flags.Changed("type") {
				cfg.SearchType = searchType
			}
			if flags.Changed("workers") {
				cfg.Workers = workers
			}
			if flags.Changed("interval") {
				cfg.Interval = config.Duration(interval)
			}
			if flags.Changed("retries") {
				cfg.MaxRetries = maxRetries
			}
			if flags.Changed("timeout") {
				cfg.Timeout = config.Duration(timeout)
			}
			if flags.Changed("log-level") {
				cfg.Logging.Level = logLevel
			}
			if csvOutput {
				cfg.Excel = false
			}
			if noDetails {
				cfg.GetDetails = false
			}
			if noPDFs {
				cfg.GetPDFs = false
			}
			if insecure {
				cfg.Insecure = true
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := logging.New(cfg.Logging.Level)
			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			return application.Run(cmd.Context())
		},
	}

	defaults := config.Default()
	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to a YAML config file")
	flags.StringVarP(&outputDir, "output-folder", "o", "", "output folder (default \"BDTD (<term>)\")")
	flags.IntVarP(&maxPages, "pages", "p", 0, "number of result pages to harvest (default: all)")
	flags.StringVarP(&searchType, "type", "t", defaults.SearchType, "keyword search filter")
	flags.IntVarP(&workers, "workers", "w", defaults.Workers, "number of concurrent fetch tasks")
	flags.BoolVar(&csvOutput, "csv", false, "write the merged table as CSV instead of Excel")
	flags.DurationVar(&interval, "interval", defaults.Interval.Std(), "pause between requests")
	flags.BoolVar(&noDetails, "no-details", false, "skip fetching record detail pages")
	flags.BoolVar(&noPDFs, "no-pdfs", false, "skip downloading PDF documents")
	flags.IntVar(&maxRetries, "retries", defaults.MaxRetries, "attempts per request before giving up")
	flags.DurationVar(&timeout, "timeout", defaults.Timeout.Std(), "per-request timeout")
	flags.BoolVar(&insecure, "insecure", false, "skip TLS certificate verification")
	flags.StringVar(&logLevel, "log-level", defaults.Logging.Level, "log level (debug, info, warn, error)")

	return cmd
}
