// Package cmd implements the tieba-stats command line.
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tieba-stats/config"
	"tieba-stats/logger"
	"tieba-stats/metrics"
	"tieba-stats/signer"
	"tieba-stats/upstream"
)

// Version is set at build time with -ldflags "-X tieba-stats/cmd.Version=...".
var Version = "dev"

var (
	cfgFile  string
	logLevel string

	rootCmd = &cobra.Command{
		Use:           "tieba-stats",
		Short:         "Forum statistics dashboard service",
		Long:          `Serves the forum statistics dashboard API and prints its reports as terminal tables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml or ./config/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logger.level")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "tieba-stats %s\n", Version)
			},
		},
		serveCommand(),
		reportCommand(),
	)
}

// deps are the dependencies shared by every subcommand.
type deps struct {
	cfg         *config.Config
	log         logger.Logger
	metrics     *metrics.Metrics
	client      *upstream.Client
	loc         *time.Location
	incomeStart time.Time
}

func newDeps() (*deps, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logger.Level = logLevel
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Development: cfg.Logger.Development,
		OutputPaths: cfg.Logger.OutputPaths,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	// Validate has already checked both values.
	loc, _ := cfg.Derive.Location()
	incomeStart, _ := cfg.Derive.IncomeStart(loc)

	m := metrics.New()
	client := upstream.New(upstream.Config{
		BaseURL:        cfg.Upstream.BaseURL,
		NewsURL:        cfg.Upstream.NewsURL,
		OutbreakURL:    cfg.Upstream.OutbreakURL,
		Timeout:        cfg.Upstream.Timeout,
		RatePerSecond:  cfg.Upstream.RatePerSecond,
		Burst:          cfg.Upstream.Burst,
		MaxAttempts:    cfg.Upstream.MaxAttempts,
		InitialBackoff: cfg.Upstream.InitialBackoff,
		MaxBackoff:     cfg.Upstream.MaxBackoff,
		Location:       loc,
	}, signer.NewHMAC(cfg.Signer.Secret), log, m)

	return &deps{
		cfg:         cfg,
		log:         log,
		metrics:     m,
		client:      client,
		loc:         loc,
		incomeStart: incomeStart,
	}, nil
}

// flush writes out buffered log entries before the command exits.
func (d *deps) flush() {
	_ = d.log.Sync()
}
