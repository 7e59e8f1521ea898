// Command scrape harvests one OneFootball listing page and prints the articles
// not seen before.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/Adda-Baaj/onefootball-harvester/internal/app"
	"github.com/Adda-Baaj/onefootball-harvester/internal/config"
	"github.com/Adda-Baaj/onefootball-harvester/internal/fetch"
	"github.com/Adda-Baaj/onefootball-harvester/internal/logger"
	"github.com/Adda-Baaj/onefootball-harvester/internal/output"
)

const defaultListingURL = "https://onefootball.com/pt-br/equipe/palmeiras-10"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "scrape failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	flags := pflag.NewFlagSet("scrape", pflag.ContinueOnError)
	url := flags.String("url", defaultListingURL, "listing page to harvest")
	store := flags.String("store", cfg.StorageType, "storage backend: none, bbolt or postgres")
	format := flags.String("format", output.FormatJSON, "output format: json or table")
	maxRetries := flags.Int("max-retries", fetch.DefaultMaxRetries, "retries per page after the first attempt")
	backoff := flags.Duration("backoff", fetch.DefaultBackoffBase, "base of the exponential backoff between attempts")
	logLevel := flags.String("log-level", "warn", "log level written to stderr")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	cfg.StorageType = *store
	// Retry flags override the environment only when given.
	if flags.Changed("max-retries") {
		cfg.Fetch.MaxRetries = *maxRetries
	}
	if flags.Changed("backoff") {
		cfg.Fetch.BackoffBase = *backoff
	}

	log, err := logger.InitTo(*logLevel, os.Stderr)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector, err := app.NewCollector(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer collector.Close()

	records, err := collector.Collect(ctx, *url)
	if err != nil && records == nil {
		return err
	}
	if werr := output.Write(os.Stdout, *format, records); werr != nil {
		return werr
	}
	return err
}
