package newsfeed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Field names used in the persisted store. Anything else found on a record is
// carried through Extra untouched.
const (
	fieldID           = "id"
	fieldLink         = "link"
	fieldTitle        = "title"
	fieldPublDate     = "publ_date"
	fieldLastModified = "lastmodified"
	fieldFullContent  = "full_content"
)

// Stub is the minimal article reference found on a listing page or in an API
// listing, before the article itself is fetched.
type Stub struct {
	// ID is set for articles that come from the open-data API.
	ID string
	// Link is set for articles found by scraping; it is the site-relative
	// path of the article.
	Link        string
	Title       string
	PublishedAt time.Time
}

// Key returns the identifier a stub is deduplicated on: the API id when there
// is one, otherwise the link.
func (s Stub) Key() string {
	if s.ID != "" {
		return s.ID
	}
	return s.Link
}

// Date returns the store partition the stub belongs to. API timestamps are
// persisted in UTC, so their partition is taken in UTC as well.
func (s Stub) Date() string {
	if s.ID != "" {
		return s.PublishedAt.UTC().Format(DateLayout)
	}
	return s.PublishedAt.Format(DateLayout)
}

// Record is a stub enriched with the article text and any extra fields the
// source provided.
type Record struct {
	Stub
	FullContent string
	Extra       map[string]any
}

// MarshalJSON writes the record as a flat object. API records carry their
// timestamp as lastmodified, scraped records as publ_date.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+5)
	for k, v := range r.Extra {
		out[k] = v
	}

	if r.ID != "" {
		out[fieldID] = r.ID
		out[fieldLastModified] = r.PublishedAt.UTC().Format(LastModifiedLayout)
	} else {
		out[fieldPublDate] = r.PublishedAt.Format(PublDateLayout)
	}
	if r.Link != "" {
		out[fieldLink] = r.Link
	}
	out[fieldTitle] = r.Title
	out[fieldFullContent] = r.FullContent

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON reads a record written by MarshalJSON, or an item as returned
// by the open-data API.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return err
	}

	rec, err := RecordFromFields(fields)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

// RecordFromFields builds a record from a decoded JSON object. Known fields
// are lifted onto the record; the rest end up in Extra.
func RecordFromFields(fields map[string]any) (Record, error) {
	var rec Record
	extra := make(map[string]any)

	var publDate, lastModified string
	for k, v := range fields {
		switch k {
		case fieldID:
			rec.ID = stringify(v)
		case fieldLink:
			rec.Link = stringify(v)
		case fieldTitle:
			rec.Title = stringify(v)
		case fieldFullContent:
			rec.FullContent = stringify(v)
		case fieldPublDate:
			publDate = stringify(v)
		case fieldLastModified:
			lastModified = stringify(v)
		default:
			extra[k] = v
		}
	}

	var err error
	switch {
	case rec.ID != "" && lastModified != "":
		rec.PublishedAt, err = ParseTimestamp(lastModified, LastModifiedLayouts)
	case publDate != "":
		rec.PublishedAt, err = ParseTimestamp(publDate, PublDateLayouts)
	case lastModified != "":
		rec.PublishedAt, err = ParseTimestamp(lastModified, LastModifiedLayouts)
	default:
		return Record{}, fmt.Errorf("record %q has no timestamp", rec.Key())
	}
	if err != nil {
		return Record{}, fmt.Errorf("record %q: %w", rec.Key(), err)
	}

	// A scraped record that somehow carried lastmodified keeps it verbatim.
	if rec.ID == "" && lastModified != "" && publDate != "" {
		extra[fieldLastModified] = lastModified
	}

	if len(extra) > 0 {
		rec.Extra = extra
	}
	return rec, nil
}

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
