package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/pevans/rijksnieuws/archive"
	"github.com/pevans/rijksnieuws/newsfeed"
	"github.com/pevans/rijksnieuws/scraper"
)

// DefaultFeedURL is the Rijksoverheid news RSS feed.
const DefaultFeedURL = "https://feeds.rijksoverheid.nl/nieuws.rss"

// FeedConfig holds configuration for harvesting the live RSS feed.
type FeedConfig struct {
	URL string
	// Site is stripped from article links so they share identifiers with
	// archived articles.
	Site              string
	ContentSignatures []string
}

// DefaultFeedConfig returns the default feed configuration.
func DefaultFeedConfig() *FeedConfig {
	return &FeedConfig{
		URL:               DefaultFeedURL,
		Site:              archive.DefaultSite,
		ContentSignatures: scraper.DefaultContentSignatures,
	}
}

// FeedHarvester reads the news feed, fetches each new article in range and
// merges it into the store.
type FeedHarvester struct {
	fetcher *Fetcher
	store   *newsfeed.Store
	config  *FeedConfig
	logger  *slog.Logger
}

// NewFeedHarvester creates a feed harvester. A nil config uses
// DefaultFeedConfig and a nil logger uses slog.Default().
func NewFeedHarvester(fetcher *Fetcher, store *newsfeed.Store, config *FeedConfig, logger *slog.Logger) *FeedHarvester {
	if config == nil {
		config = DefaultFeedConfig()
	}
	if config.URL == "" {
		config.URL = DefaultFeedURL
	}
	if len(config.ContentSignatures) == 0 {
		config.ContentSignatures = scraper.DefaultContentSignatures
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &FeedHarvester{
		fetcher: fetcher,
		store:   store,
		config:  config,
		logger:  logger,
	}
}

// Run harvests feed items published between start and end inclusive. The
// store is saved once at the end.
func (h *FeedHarvester) Run(ctx context.Context, start, end time.Time) (*RunResult, error) {
	resp, err := h.fetcher.Get(ctx, h.config.URL)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: %d %s from %s", ErrStatus, resp.StatusCode, http.StatusText(resp.StatusCode), h.config.URL)
	}

	feed, err := gofeed.NewParser().ParseString(string(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	result := &RunResult{Pages: 1, StubsFound: len(feed.Items)}
	for _, item := range feed.Items {
		stub, ok := h.feedItemToStub(item)
		if !ok || !InRange(stub.PublishedAt, start, end) {
			continue
		}
		if h.store.Has(stub.Key()) {
			result.Skipped++
			continue
		}

		content, err := h.fetchContent(ctx, item)
		if err != nil {
			return result, err
		}
		if content == "" {
			result.EmptyContent++
		}

		if h.store.Add(newsfeed.Record{Stub: stub, FullContent: content}) {
			result.Added++
		}
	}

	if result.Added > 0 {
		if err := h.store.Save(); err != nil {
			return result, err
		}
	}

	return result, nil
}

// feedItemToStub maps an RSS item onto a stub. Items without a link or a
// date are not usable.
func (h *FeedHarvester) feedItemToStub(item *gofeed.Item) (newsfeed.Stub, bool) {
	if item.Link == "" {
		return newsfeed.Stub{}, false
	}

	var publishedAt time.Time
	if item.PublishedParsed != nil {
		publishedAt = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		publishedAt = *item.UpdatedParsed
	} else {
		h.logger.Debug("feed item without date", slog.String("link", item.Link))
		return newsfeed.Stub{}, false
	}

	link := item.Link
	if site := strings.TrimRight(h.config.Site, "/"); site != "" {
		link = strings.TrimPrefix(link, site)
	}

	return newsfeed.Stub{
		Link:        archive.Canonical(link),
		Title:       strings.Join(strings.Fields(item.Title), " "),
		PublishedAt: publishedAt,
	}, true
}

// fetchContent extracts the article text from the live page, falling back to
// the text the feed itself carries.
func (h *FeedHarvester) fetchContent(ctx context.Context, item *gofeed.Item) (string, error) {
	resp, err := h.fetcher.Get(ctx, item.Link)
	if err != nil {
		return "", err
	}

	var content string
	if resp.OK() {
		content = scraper.ExtractContent(string(resp.Body), h.config.ContentSignatures)
	} else {
		h.logger.Warn("article returned non-OK status",
			slog.String("url", item.Link),
			slog.Int("status", resp.StatusCode))
	}

	if content == "" {
		content = scraper.HTMLToText(item.Content)
	}
	if content == "" {
		content = scraper.HTMLToText(item.Description)
	}
	return content, nil
}
