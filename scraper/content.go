package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractContent returns the text of the first element matching one of the
// signatures, tried in order. It returns "" when none match or the page
// cannot be parsed.
func ExtractContent(html string, signatures []string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return extractFromDocument(doc.Selection, signatures)
}

// HTMLToText flattens an HTML fragment to normalised text.
func HTMLToText(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	return normalizeSpace(doc.Text())
}

func extractFromDocument(doc *goquery.Selection, signatures []string) string {
	for _, sig := range signatures {
		container := doc.Find(sig).First()
		if container.Length() == 0 {
			continue
		}
		return normalizeSpace(container.Text())
	}
	return ""
}
