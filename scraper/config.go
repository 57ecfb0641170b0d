package scraper

import (
	"fmt"
	"sort"
)

// Template describes how articles are laid out on one version of the
// rijksoverheid.nl listing page. Selectors are CSS selectors; Link, Title and
// Meta are evaluated inside each Item.
type Template struct {
	Name string `yaml:"name"`
	// ListingPath is appended to the capture root to reach the listing.
	ListingPath string `yaml:"listing_path"`
	// Paged templates accept ?pagina=N.
	Paged bool `yaml:"paged"`

	ItemSelector  string `yaml:"item_selector"`
	LinkSelector  string `yaml:"link_selector"`
	TitleSelector string `yaml:"title_selector"`
	MetaSelector  string `yaml:"meta_selector"`

	// MetaDelimiter splits the metadata text; the first MetaSkip segments
	// are labels and are dropped before the timestamp is parsed.
	MetaDelimiter string `yaml:"meta_delimiter"`
	MetaSkip      int    `yaml:"meta_skip"`
	// TimestampLayouts are Go time layouts, tried in order.
	TimestampLayouts []string `yaml:"timestamp_layouts"`
}

// DefaultContentSignatures are the article containers known from the
// archived site, in the order they are tried.
var DefaultContentSignatures = []string{
	"div.article.content",
	"div#content.article",
}

// BrickTemplate matches the 2018 /actueel overview, where every article is a
// div.brick with a span.publDate. The page is not paged.
var BrickTemplate = Template{
	Name:          "brick",
	ListingPath:   "/actueel",
	ItemSelector:  "div.brick",
	LinkSelector:  "a",
	TitleSelector: "h3",
	MetaSelector:  "span.publDate",
	MetaDelimiter: "|",
	TimestampLayouts: []string{
		"02-01-2006 | 15:04",
		"02-01-2006",
	},
}

// NieuwsTemplate matches the paged /actueel/nieuws listing, where the meta
// line reads "Nieuwsbericht | 01-03-2018 | 14:30".
var NieuwsTemplate = Template{
	Name:          "nieuws",
	ListingPath:   "/actueel/nieuws",
	Paged:         true,
	ItemSelector:  "a.news-item",
	TitleSelector: "h3",
	MetaSelector:  "p.meta",
	MetaDelimiter: "|",
	MetaSkip:      1,
	TimestampLayouts: []string{
		"02-01-2006 | 15:04",
		"02-01-2006",
	},
}

var templates = map[string]Template{
	BrickTemplate.Name:  BrickTemplate,
	NieuwsTemplate.Name: NieuwsTemplate,
}

// LookupTemplate returns the built-in template with the given name.
func LookupTemplate(name string) (Template, error) {
	t, ok := templates[name]
	if !ok {
		return Template{}, fmt.Errorf("unknown site template %q (known: %v)", name, TemplateNames())
	}
	return t, nil
}

// TemplateNames lists the built-in templates.
func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
