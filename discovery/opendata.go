package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/pevans/rijksnieuws/newsfeed"
	"github.com/pevans/rijksnieuws/scraper"
)

// DefaultOpenDataURL is the Rijksoverheid open-data API.
const DefaultOpenDataURL = "https://opendata.rijksoverheid.nl"

// OpenDataConfig holds configuration for harvesting the open-data API.
type OpenDataConfig struct {
	BaseURL string
	// Rows is the page size of the listing endpoint.
	Rows int
	// MaxArticles stops the run after this many new articles. Zero means no
	// limit.
	MaxArticles int
	// Until stops the run at the first article modified after this day. The
	// zero time means no limit.
	Until time.Time
}

// DefaultOpenDataConfig returns the default open-data configuration.
func DefaultOpenDataConfig() *OpenDataConfig {
	return &OpenDataConfig{
		BaseURL: DefaultOpenDataURL,
		Rows:    200,
	}
}

// OpenDataHarvester pages through news items modified since a date, enriches
// each new one with its detail document and merges it into the store.
type OpenDataHarvester struct {
	fetcher *Fetcher
	store   *newsfeed.Store
	config  *OpenDataConfig
	logger  *slog.Logger
}

// NewOpenDataHarvester creates a harvester. A nil config uses
// DefaultOpenDataConfig and a nil logger uses slog.Default().
func NewOpenDataHarvester(fetcher *Fetcher, store *newsfeed.Store, config *OpenDataConfig, logger *slog.Logger) *OpenDataHarvester {
	if config == nil {
		config = DefaultOpenDataConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultOpenDataURL
	}
	if config.Rows <= 0 {
		config.Rows = 200
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &OpenDataHarvester{
		fetcher: fetcher,
		store:   store,
		config:  config,
		logger:  logger,
	}
}

// ListingURL returns the listing endpoint for items modified since the given
// day.
func (h *OpenDataHarvester) ListingURL(since time.Time, offset int) string {
	return fmt.Sprintf("%s/v1/infotypes/news/lastmodifiedsince/%s/?output=json&offset=%d&rows=%d",
		strings.TrimRight(h.config.BaseURL, "/"),
		since.Format(newsfeed.CompactDateLayout),
		offset,
		h.config.Rows)
}

// DetailURL returns the detail endpoint of one item.
func (h *OpenDataHarvester) DetailURL(id string) string {
	return fmt.Sprintf("%s/v1/infotypes/news/%s?output=json",
		strings.TrimRight(h.config.BaseURL, "/"),
		url.PathEscape(id))
}

// Run harvests items modified since the given day. When the store already
// holds API items, the run resumes from the newest one instead if that is
// later.
func (h *OpenDataHarvester) Run(ctx context.Context, since time.Time) (*RunResult, error) {
	if latest := h.store.Latest().UTC(); latest.After(since) {
		since = time.Date(latest.Year(), latest.Month(), latest.Day(), 0, 0, 0, 0, time.UTC)
		h.logger.Info("resuming from stored articles", slog.String("since", since.Format(newsfeed.DateLayout)))
	}

	var until time.Time
	if !h.config.Until.IsZero() {
		until = h.config.Until.AddDate(0, 0, 1)
	}

	result := &RunResult{}
	for offset := 0; ; offset += h.config.Rows {
		listingURL := h.ListingURL(since, offset)

		var items []map[string]any
		if err := h.fetcher.GetJSON(ctx, listingURL, &items); err != nil {
			return result, err
		}
		result.Pages++
		result.StubsFound += len(items)

		added, stop, err := h.harvestPage(ctx, items, until, result)
		if err != nil {
			return result, err
		}
		result.Added += added

		if added > 0 {
			if err := h.store.Save(); err != nil {
				return result, err
			}
		}

		h.logger.Info("listing page harvested",
			slog.Int("offset", offset),
			slog.Int("found", len(items)),
			slog.Int("added", added))

		if stop || len(items) < h.config.Rows {
			break
		}
	}

	return result, nil
}

// harvestPage processes one listing page. It reports whether the run should
// stop after this page.
func (h *OpenDataHarvester) harvestPage(ctx context.Context, items []map[string]any, until time.Time, result *RunResult) (int, bool, error) {
	added := 0
	for _, item := range items {
		stub, err := newsfeed.RecordFromFields(item)
		if err != nil {
			return added, false, fmt.Errorf("invalid listing item: %w", err)
		}
		if stub.ID == "" {
			return added, false, fmt.Errorf("listing item %q has no id", stub.Title)
		}

		if h.store.Has(stub.ID) {
			result.Skipped++
			continue
		}
		if !until.IsZero() && !stub.PublishedAt.Before(until) {
			return added, true, nil
		}

		var detail map[string]any
		if err := h.fetcher.GetJSON(ctx, h.DetailURL(stub.ID), &detail); err != nil {
			return added, false, err
		}
		mergeMissing(item, detail)

		rec, err := newsfeed.RecordFromFields(item)
		if err != nil {
			return added, false, fmt.Errorf("invalid item %s: %w", stub.ID, err)
		}
		if rec.FullContent == "" {
			if content, ok := rec.Extra["content"].(string); ok {
				rec.FullContent = scraper.HTMLToText(content)
			}
		}
		if rec.FullContent == "" {
			result.EmptyContent++
		}

		if h.store.Add(rec) {
			added++
		}
		if h.config.MaxArticles > 0 && result.Added+added >= h.config.MaxArticles {
			return added, true, nil
		}
	}
	return added, false, nil
}

// mergeMissing copies every key of src that dst does not have yet.
func mergeMissing(dst, src map[string]any) {
	for k, v := range src {
		if _, ok := dst[k]; !ok {
			dst[k] = v
		}
	}
}
