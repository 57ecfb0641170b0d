package main

import (
	"github.com/pevans/rijksnieuws/config"
	"github.com/pevans/rijksnieuws/discovery"
	"github.com/spf13/cobra"
)

var feedCmd = &cobra.Command{
	Use:   "feed START END",
	Short: "Collect recent news from the RSS feed",
	Long: "Reads the Rijksoverheid news RSS feed and stores every item published from " +
		"START to END (YYYY-MM-DD, inclusive) that is not stored yet.",
	Args: cobra.ExactArgs(2),
	RunE: runFeed,
}

var (
	feedFlags commonFlags
	feedURL   string
)

func init() {
	feedFlags.register(feedCmd)
	feedCmd.Flags().StringVar(&feedURL, "url", discovery.DefaultFeedURL, "RSS feed URL")

	rootCmd.AddCommand(feedCmd)
}

func runFeed(cmd *cobra.Command, args []string) error {
	start, end, err := parseRange(args[0], args[1])
	if err != nil {
		return err
	}

	s, err := openSession(func(cfg *config.Config) error {
		if cmd.Flags().Changed("url") {
			cfg.Feed.URL = feedURL
		}
		return feedFlags.apply(cmd, cfg)
	})
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	harvester := discovery.NewFeedHarvester(s.fetcher, s.store, s.cfg.FeedHarvesterConfig(), s.logger)
	return s.finish(harvester.Run(ctx, start, end))
}
