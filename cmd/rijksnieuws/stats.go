package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pevans/rijksnieuws/config"
	"github.com/pevans/rijksnieuws/newsfeed"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the stored articles per date",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var statsFilename string

func init() {
	statsCmd.Flags().StringVar(&statsFilename, "filename", "", "JSON file to summarize (default: news_articles.json, RIJKSNIEUWS_OUTPUT)")

	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("filename") {
		cfg.Output = statsFilename
	}

	logger, err := newLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}

	store, err := newsfeed.Open(cfg.Output, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	logger.Debug("store loaded", slog.String("path", cfg.Output))

	writeStats(os.Stdout, store)
	return nil
}

// writeStats renders one row per date with its record count and how many of
// those records have no content.
func writeStats(w io.Writer, store *newsfeed.Store) {
	if store.Len() == 0 {
		fmt.Fprintf(w, "No articles in %s.\n", store.Path())
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Date", "Articles", "Empty content"})

	totalEmpty := 0
	for _, date := range store.Dates() {
		records := store.Records(date)
		empty := 0
		for _, rec := range records {
			if rec.FullContent == "" {
				empty++
			}
		}
		totalEmpty += empty
		t.AppendRow(table.Row{date, len(records), empty})
	}

	t.AppendFooter(table.Row{"Total", store.Len(), totalEmpty})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
