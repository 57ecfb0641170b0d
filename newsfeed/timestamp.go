package newsfeed

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownTimestamp is returned when a timestamp matches none of the
// accepted layouts.
var ErrUnknownTimestamp = errors.New("unrecognized timestamp format")

const (
	// DateLayout names a store partition.
	DateLayout = "2006-01-02"
	// PublDateLayout is how scraped publication times are written.
	PublDateLayout = "2006-01-02 15:04:05"
	// LastModifiedLayout is how API modification times are written.
	LastModifiedLayout = "2006-01-02T15:04:05.000Z"
	// CompactDateLayout is the date form the open-data API and the archive
	// use in URLs.
	CompactDateLayout = "20060102"
)

// PublDateLayouts are accepted when reading publ_date back from disk.
var PublDateLayouts = []string{
	PublDateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	DateLayout,
}

// LastModifiedLayouts are accepted for lastmodified, from the API or from
// disk.
var LastModifiedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	PublDateLayout,
}

// ParseTimestamp parses s against layouts in order; the first layout that
// matches wins.
func ParseTimestamp(s string, layouts []string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownTimestamp, s)
}

// ParseDate accepts a calendar date as YYYY-MM-DD or YYYYMMDD.
func ParseDate(s string) (time.Time, error) {
	t, err := ParseTimestamp(s, []string{DateLayout, CompactDateLayout})
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}
