// Package archive builds URLs into the sitearchief web archive, which serves
// dated snapshots ("captures") of rijksoverheid.nl.
package archive

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	"github.com/pevans/rijksnieuws/newsfeed"
)

const (
	DefaultHost = "https://archief28.sitearchief.nl"
	DefaultSite = "https://www.rijksoverheid.nl"

	capturePrefix = "/archives/sitearchief/"
	// suffixes are drawn from [0, maxSuffix)
	maxSuffix = 1000000
)

// capturePath matches the archive prefix of a rewritten link, e.g.
// /archives/sitearchief/20180301123456/https://www.rijksoverheid.nl
var capturePath = regexp.MustCompile(`^(?:https?://[^/]+)?/archives/sitearchief/\d+/https?://[^/]+`)

// Builder creates captures for a site.
type Builder struct {
	Host string
	Site string
	// Intn returns a value in [0, n). It defaults to math/rand/v2.
	Intn func(n int) int
}

// NewBuilder returns a builder for the given archive host and archived site.
// Empty arguments fall back to the defaults.
func NewBuilder(host, site string) *Builder {
	if host == "" {
		host = DefaultHost
	}
	if site == "" {
		site = DefaultSite
	}
	return &Builder{
		Host: strings.TrimRight(host, "/"),
		Site: strings.TrimRight(site, "/"),
		Intn: rand.IntN,
	}
}

// Capture returns a capture of the site near day. The archive accepts any
// numeric suffix after the date and redirects to the nearest snapshot, so no
// uniqueness is needed.
func (b *Builder) Capture(day time.Time) Capture {
	intn := b.Intn
	if intn == nil {
		intn = rand.IntN
	}
	return Capture{
		Host: b.Host,
		Site: b.Site,
		ID:   fmt.Sprintf("%s%d", day.Format(newsfeed.CompactDateLayout), intn(maxSuffix)),
	}
}

// Capture is one archived snapshot of the site.
type Capture struct {
	Host string
	Site string
	// ID is the date followed by an opaque numeric suffix.
	ID string
}

// Root returns the archived site root, without a trailing slash.
func (c Capture) Root() string {
	return c.Host + capturePrefix + c.ID + "/" + c.Site
}

// ListingURL returns the URL of a listing page. Page numbers are only added
// for paged listings.
func (c Capture) ListingURL(path string, page int, paged bool) string {
	u := c.Root() + ensureSlash(path)
	if paged {
		u += fmt.Sprintf("?pagina=%d", page)
	}
	return u
}

// Resolve turns a link found on an archived page into a fetchable URL.
func (c Capture) Resolve(link string) string {
	switch {
	case strings.HasPrefix(link, "http://"), strings.HasPrefix(link, "https://"):
		return link
	case strings.HasPrefix(link, capturePrefix):
		return c.Host + link
	default:
		return c.Root() + ensureSlash(link)
	}
}

// Canonical strips any archive capture prefix from link, leaving the path on
// the archived site. The same article found in two captures has the same
// canonical link.
func Canonical(link string) string {
	link = strings.TrimSpace(link)
	if loc := capturePath.FindStringIndex(link); loc != nil {
		link = link[loc[1]:]
	}
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	return ensureSlash(link)
}

func ensureSlash(path string) string {
	if path == "" || strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}
