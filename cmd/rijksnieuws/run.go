package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pevans/rijksnieuws/config"
	"github.com/pevans/rijksnieuws/discovery"
	"github.com/pevans/rijksnieuws/newsfeed"
	"github.com/spf13/cobra"
)

// session bundles what every fetching command needs.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *newsfeed.Store
	fetcher *discovery.Fetcher
}

// commonFlags are shared by the fetching commands.
type commonFlags struct {
	filename string
	delay    float64
}

func (f *commonFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.filename, "filename", "", "Output JSON file (default: news_articles.json, RIJKSNIEUWS_OUTPUT)")
	cmd.Flags().Float64Var(&f.delay, "delay", 1, "Seconds to wait between requests (RIJKSNIEUWS_DELAY)")
}

// apply overrides cfg with the flags the user actually set.
func (f *commonFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("filename") {
		cfg.Output = f.filename
	}
	if cmd.Flags().Changed("delay") {
		d, err := secondsToDuration(f.delay)
		if err != nil {
			return err
		}
		cfg.Delay = d
	}
	return nil
}

// secondsToDuration converts a --delay value.
func secondsToDuration(seconds float64) (time.Duration, error) {
	if seconds < 0 {
		return 0, fmt.Errorf("delay must not be negative: %v", seconds)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// parseRange parses the START END arguments.
func parseRange(startArg, endArg string) (time.Time, time.Time, error) {
	start, err := newsfeed.ParseDate(startArg)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start date: %w", err)
	}
	end, err := newsfeed.ParseDate(endArg)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end date: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s is before start date %s", endArg, startArg)
	}
	return start, end, nil
}

// openSession resolves the configuration, lets override adjust it, and opens
// the store and the fetcher.
func openSession(override func(*config.Config) error) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if override != nil {
		if err := override(cfg); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger, err := newLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	store, err := newsfeed.Open(cfg.Output, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	logger.Info("store loaded", slog.String("path", cfg.Output), slog.Int("records", store.Len()))

	return &session{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		fetcher: discovery.NewFetcher(cfg.FetcherConfig(), logger),
	}, nil
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// finish reports the outcome of a run. An interrupted run is still an error,
// but everything saved before the interruption stays on disk.
func (s *session) finish(result *discovery.RunResult, err error) error {
	if result != nil {
		s.logger.Info("run finished", slog.Any("result", result))
		fmt.Fprintf(os.Stdout, "Added %d articles (%d skipped, %d without content) to %s\n",
			result.Added, result.Skipped, result.EmptyContent, s.store.Path())
	}

	if err != nil {
		if discovery.IsCanceled(err) {
			return fmt.Errorf("run interrupted: %w", err)
		}
		return err
	}
	return nil
}
