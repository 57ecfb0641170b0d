package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pevans/rijksnieuws/archive"
	"github.com/pevans/rijksnieuws/newsfeed"
	"github.com/pevans/rijksnieuws/scraper"
)

// ArchiveConfig holds configuration for scraping the web archive.
type ArchiveConfig struct {
	Template          scraper.Template
	ContentSignatures []string
	// MaxPages caps the listing pages walked per day.
	MaxPages int
	// SkipThreshold is the number of consecutive pages without an in-range
	// article after which a day is abandoned.
	SkipThreshold int
}

// DefaultArchiveConfig returns the default archive configuration.
func DefaultArchiveConfig() *ArchiveConfig {
	return &ArchiveConfig{
		Template:          scraper.NieuwsTemplate,
		ContentSignatures: scraper.DefaultContentSignatures,
		MaxPages:          MaxPages,
		SkipThreshold:     DefaultSkipThreshold,
	}
}

// ArchiveScraper walks archived listing pages day by day, fetches every new
// article in range and merges it into the store.
type ArchiveScraper struct {
	fetcher  *Fetcher
	captures *archive.Builder
	store    *newsfeed.Store
	config   *ArchiveConfig
	logger   *slog.Logger
}

// NewArchiveScraper creates an archive scraper. A nil config uses
// DefaultArchiveConfig and a nil logger uses slog.Default().
func NewArchiveScraper(
	fetcher *Fetcher,
	captures *archive.Builder,
	store *newsfeed.Store,
	config *ArchiveConfig,
	logger *slog.Logger,
) *ArchiveScraper {
	if config == nil {
		config = DefaultArchiveConfig()
	}
	if len(config.ContentSignatures) == 0 {
		config.ContentSignatures = scraper.DefaultContentSignatures
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ArchiveScraper{
		fetcher:  fetcher,
		captures: captures,
		store:    store,
		config:   config,
		logger:   logger,
	}
}

// Run scrapes every day from start to end inclusive. The store is saved after
// each page that added articles, so an interrupted run resumes where it
// stopped.
func (a *ArchiveScraper) Run(ctx context.Context, start, end time.Time) (*RunResult, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s is before start date %s",
			end.Format(newsfeed.DateLayout), start.Format(newsfeed.DateLayout))
	}

	result := &RunResult{}
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if err := a.scrapeDay(ctx, day, start, end, result); err != nil {
			return result, err
		}
		result.Days++
	}

	return result, nil
}

// scrapeDay walks the listing of one capture until the paginator stops.
func (a *ArchiveScraper) scrapeDay(ctx context.Context, day, start, end time.Time, result *RunResult) error {
	tmpl := a.config.Template
	capture := a.captures.Capture(day)

	maxPages := a.config.MaxPages
	if !tmpl.Paged {
		maxPages = 1
	}
	pager := NewPaginator(maxPages, a.config.SkipThreshold)

	logger := a.logger.With(
		slog.String("date", day.Format(newsfeed.DateLayout)),
		slog.String("capture", capture.ID),
	)

	for !pager.Done() {
		page := pager.Page()
		listingURL := capture.ListingURL(tmpl.ListingPath, page, tmpl.Paged)

		resp, err := a.fetcher.Get(ctx, listingURL)
		if err != nil {
			return err
		}
		result.Pages++
		if !resp.OK() {
			logger.Warn("listing page returned non-OK status",
				slog.Int("page", page),
				slog.Int("status", resp.StatusCode))
		}

		stubs, err := scraper.CollectListing(string(resp.Body), tmpl)
		if err != nil {
			return fmt.Errorf("failed to parse listing %s: %w", listingURL, err)
		}
		result.StubsFound += len(stubs)

		inRange, added := 0, 0
		for _, stub := range stubs {
			if !InRange(stub.PublishedAt, start, end) {
				continue
			}
			inRange++

			articleURL := capture.Resolve(stub.Link)
			stub.Link = archive.Canonical(stub.Link)
			if a.store.Has(stub.Key()) {
				result.Skipped++
				continue
			}

			content, err := a.fetchContent(ctx, articleURL, logger)
			if err != nil {
				return err
			}
			if content == "" {
				result.EmptyContent++
			}

			if a.store.Add(newsfeed.Record{Stub: stub, FullContent: content}) {
				added++
			}
		}
		result.Added += added

		if added > 0 {
			if err := a.store.Save(); err != nil {
				return err
			}
		}

		transition := pager.Advance(len(stubs), inRange)
		logger.Info("listing page scraped",
			slog.Int("page", page),
			slog.Int("found", len(stubs)),
			slog.Int("in_range", inRange),
			slog.Int("added", added),
			slog.String("next", transition.String()))
	}

	return nil
}

// fetchContent returns the article text, or "" when the page is missing or
// has no known content container.
func (a *ArchiveScraper) fetchContent(ctx context.Context, articleURL string, logger *slog.Logger) (string, error) {
	resp, err := a.fetcher.Get(ctx, articleURL)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		logger.Warn("article returned non-OK status",
			slog.String("url", articleURL),
			slog.Int("status", resp.StatusCode))
		return "", nil
	}

	content := scraper.ExtractContent(string(resp.Body), a.config.ContentSignatures)
	if content == "" {
		logger.Warn("no content container found", slog.String("url", articleURL))
	}
	return content, nil
}
