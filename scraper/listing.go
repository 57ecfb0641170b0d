package scraper

import (
	"fmt"
	"iter"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/rijksnieuws/newsfeed"
)

// ParseListing returns the article stubs on a listing page. Items are parsed
// as the sequence is consumed. Items without a link, title or metadata are
// skipped; a timestamp that matches none of the template's layouts ends the
// sequence with an error.
func ParseListing(html string, tmpl Template) iter.Seq2[newsfeed.Stub, error] {
	return func(yield func(newsfeed.Stub, error) bool) {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			yield(newsfeed.Stub{}, fmt.Errorf("failed to parse HTML: %w", err))
			return
		}

		for _, node := range doc.Find(tmpl.ItemSelector).EachIter() {
			stub, ok, err := parseItem(node, tmpl)
			if err != nil {
				yield(newsfeed.Stub{}, err)
				return
			}
			if !ok {
				continue
			}
			if !yield(stub, nil) {
				return
			}
		}
	}
}

// CollectListing drains ParseListing into a slice.
func CollectListing(html string, tmpl Template) ([]newsfeed.Stub, error) {
	var stubs []newsfeed.Stub
	for stub, err := range ParseListing(html, tmpl) {
		if err != nil {
			return nil, err
		}
		stubs = append(stubs, stub)
	}
	return stubs, nil
}

func parseItem(item *goquery.Selection, tmpl Template) (newsfeed.Stub, bool, error) {
	// Without a link selector the item element is the anchor itself
	link := item
	if tmpl.LinkSelector != "" {
		link = item.Find(tmpl.LinkSelector).First()
	}
	href, ok := link.Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return newsfeed.Stub{}, false, nil
	}

	title := normalizeSpace(item.Find(tmpl.TitleSelector).First().Text())
	if title == "" {
		return newsfeed.Stub{}, false, nil
	}

	meta := item.Find(tmpl.MetaSelector)
	if meta.Length() == 0 {
		return newsfeed.Stub{}, false, nil
	}
	stamp := timestampFragment(meta.First().Text(), tmpl)
	if stamp == "" {
		return newsfeed.Stub{}, false, nil
	}

	publishedAt, err := newsfeed.ParseTimestamp(stamp, tmpl.TimestampLayouts)
	if err != nil {
		return newsfeed.Stub{}, false, fmt.Errorf("article %s: %w", href, err)
	}

	return newsfeed.Stub{
		Link:        href,
		Title:       title,
		PublishedAt: publishedAt,
	}, true, nil
}

// timestampFragment isolates the timestamp in a metadata line and rejoins
// it in the "a | b" form the layouts expect.
func timestampFragment(meta string, tmpl Template) string {
	meta = normalizeSpace(meta)
	if tmpl.MetaDelimiter == "" {
		return meta
	}

	var parts []string
	for part := range strings.SplitSeq(meta, tmpl.MetaDelimiter) {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) <= tmpl.MetaSkip {
		return ""
	}
	return strings.Join(parts[tmpl.MetaSkip:], " "+tmpl.MetaDelimiter+" ")
}

// normalizeSpace collapses runs of whitespace into single spaces.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
