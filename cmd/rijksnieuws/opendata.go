package main

import (
	"fmt"
	"time"

	"github.com/pevans/rijksnieuws/config"
	"github.com/pevans/rijksnieuws/discovery"
	"github.com/pevans/rijksnieuws/newsfeed"
	"github.com/spf13/cobra"
)

var opendataCmd = &cobra.Command{
	Use:   "opendata SINCE",
	Short: "Harvest news from the open-data API",
	Long: "Pages through the Rijksoverheid open-data news listing of everything modified " +
		"since SINCE (YYYY-MM-DD or YYYYMMDD), fetches the detail document of every new " +
		"article and stores it. A store that already holds API articles resumes from the " +
		"newest one.",
	Args: cobra.ExactArgs(1),
	RunE: runOpenData,
}

var (
	opendataFlags       commonFlags
	opendataUntil       string
	opendataMaxArticles int
)

func init() {
	opendataFlags.register(opendataCmd)
	opendataCmd.Flags().StringVar(&opendataUntil, "until", "", "Stop at articles modified after this date (YYYY-MM-DD)")
	opendataCmd.Flags().IntVar(&opendataMaxArticles, "max-articles", 0, "Stop after storing this many articles (0: no limit)")

	rootCmd.AddCommand(opendataCmd)
}

func runOpenData(cmd *cobra.Command, args []string) error {
	since, err := newsfeed.ParseDate(args[0])
	if err != nil {
		return fmt.Errorf("since date: %w", err)
	}

	var until time.Time
	if opendataUntil != "" {
		if until, err = newsfeed.ParseDate(opendataUntil); err != nil {
			return fmt.Errorf("until date: %w", err)
		}
		if until.Before(since) {
			return fmt.Errorf("until date %s is before since date %s", opendataUntil, args[0])
		}
	}
	if opendataMaxArticles < 0 {
		return fmt.Errorf("max-articles must not be negative: %d", opendataMaxArticles)
	}

	s, err := openSession(func(cfg *config.Config) error {
		return opendataFlags.apply(cmd, cfg)
	})
	if err != nil {
		return err
	}

	harvesterConfig := s.cfg.OpenDataHarvesterConfig()
	harvesterConfig.Until = until
	harvesterConfig.MaxArticles = opendataMaxArticles

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	harvester := discovery.NewOpenDataHarvester(s.fetcher, s.store, harvesterConfig, s.logger)
	return s.finish(harvester.Run(ctx, since))
}
