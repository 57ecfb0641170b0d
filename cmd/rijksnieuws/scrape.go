package main

import (
	"fmt"
	"strings"

	"github.com/pevans/rijksnieuws/archive"
	"github.com/pevans/rijksnieuws/config"
	"github.com/pevans/rijksnieuws/discovery"
	"github.com/pevans/rijksnieuws/scraper"
	"github.com/spf13/cobra"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape START END",
	Short: "Scrape archived news listings for a date range",
	Long: "Walks one sitearchief capture of rijksoverheid.nl per day from START to END " +
		"(YYYY-MM-DD, inclusive), follows the news listing pages and stores every article " +
		"published in the range that is not stored yet.",
	Args: cobra.ExactArgs(2),
	RunE: runScrape,
}

var (
	scrapeFlags         commonFlags
	scrapeSkipThreshold int
	scrapeMaxPages      int
	scrapeTemplate      string
)

func init() {
	scrapeFlags.register(scrapeCmd)
	scrapeCmd.Flags().IntVar(&scrapeSkipThreshold, "no_article_skip_threashold", discovery.DefaultSkipThreshold,
		"Stop paging after this many consecutive pages without articles in range")
	scrapeCmd.Flags().IntVar(&scrapeMaxPages, "max-pages", discovery.MaxPages, "Maximum listing pages per day")
	scrapeCmd.Flags().StringVar(&scrapeTemplate, "template", scraper.NieuwsTemplate.Name,
		fmt.Sprintf("Listing layout (%s)", strings.Join(scraper.TemplateNames(), ", ")))

	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	start, end, err := parseRange(args[0], args[1])
	if err != nil {
		return err
	}

	s, err := openSession(func(cfg *config.Config) error {
		if err := scrapeFlags.apply(cmd, cfg); err != nil {
			return err
		}
		if cmd.Flags().Changed("no_article_skip_threashold") {
			cfg.SkipThreshold = scrapeSkipThreshold
		}
		if cmd.Flags().Changed("max-pages") {
			cfg.MaxPages = scrapeMaxPages
		}
		if cmd.Flags().Changed("template") {
			cfg.Archive.Template = scrapeTemplate
		}
		return nil
	})
	if err != nil {
		return err
	}

	archiveConfig, err := s.cfg.ArchiveScraperConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	archiveScraper := discovery.NewArchiveScraper(
		s.fetcher,
		archive.NewBuilder(s.cfg.Archive.Host, s.cfg.Archive.Site),
		s.store,
		archiveConfig,
		s.logger,
	)
	return s.finish(archiveScraper.Run(ctx, start, end))
}
