package discovery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pevans/rijksnieuws/newsfeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOpenData serves the listing and detail endpoints of the open-data API.
type fakeOpenData struct {
	mu       sync.Mutex
	items    []map[string]any
	details  map[string]map[string]any
	listings []string // lastmodifiedsince dates requested
	detailed []string // ids whose detail was requested
}

func (f *fakeOpenData) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	const listPrefix = "/v1/infotypes/news/lastmodifiedsince/"
	const detailPrefix = "/v1/infotypes/news/"

	switch {
	case strings.HasPrefix(r.URL.Path, listPrefix):
		f.listings = append(f.listings, strings.Trim(strings.TrimPrefix(r.URL.Path, listPrefix), "/"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		rows, _ := strconv.Atoi(r.URL.Query().Get("rows"))

		page := []map[string]any{}
		for i := offset; i < offset+rows && i < len(f.items); i++ {
			page = append(page, f.items[i])
		}
		json.NewEncoder(w).Encode(page)
	case strings.HasPrefix(r.URL.Path, detailPrefix):
		id := strings.TrimPrefix(r.URL.Path, detailPrefix)
		f.detailed = append(f.detailed, id)
		detail, ok := f.details[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(detail)
	default:
		http.NotFound(w, r)
	}
}

func apiItem(id, title, lastmodified string) map[string]any {
	return map[string]any{"id": id, "title": title, "lastmodified": lastmodified, "type": "nieuwsbericht"}
}

func apiDetail(id string) map[string]any {
	return map[string]any{
		"id":           id,
		"title":        "Detailtitel",
		"introduction": "Inleiding " + id,
		"content":      "<p>Inhoud</p>\n<p>van " + id + "</p>",
	}
}

func newTestFakeOpenData() *fakeOpenData {
	f := &fakeOpenData{details: map[string]map[string]any{}}
	for _, item := range []map[string]any{
		apiItem("a1", "Eerste", "2018-01-01T09:00:00.000Z"),
		apiItem("b2", "Tweede", "2018-01-02T10:11:12.123Z"),
		apiItem("c3", "Derde", "2018-01-04T08:00:00.000Z"),
	} {
		f.items = append(f.items, item)
		f.details[item["id"].(string)] = apiDetail(item["id"].(string))
	}
	return f
}

// Test helper: harvester pointed at a fake API with a small page size
func newTestHarvester(t *testing.T, server *httptest.Server, config *OpenDataConfig) (*OpenDataHarvester, *newsfeed.Store) {
	t.Helper()

	store, err := newsfeed.Open(filepath.Join(t.TempDir(), "articles.json"), nil)
	require.NoError(t, err)

	if config == nil {
		config = DefaultOpenDataConfig()
	}
	config.BaseURL = server.URL
	config.Rows = 2

	return NewOpenDataHarvester(newTestFetcher(), store, config, nil), store
}

// TestOpenDataHarvester_URLs verifies the endpoint layout
func TestOpenDataHarvester_URLs(t *testing.T) {
	h := NewOpenDataHarvester(nil, nil, nil, nil)

	assert.Equal(t,
		"https://opendata.rijksoverheid.nl/v1/infotypes/news/lastmodifiedsince/20180101/?output=json&offset=400&rows=200",
		h.ListingURL(day("2018-01-01"), 400))
	assert.Equal(t,
		"https://opendata.rijksoverheid.nl/v1/infotypes/news/abc?output=json",
		h.DetailURL("abc"))
}

// TestOpenDataHarvester_Run verifies paging and detail enrichment
func TestOpenDataHarvester_Run(t *testing.T) {
	fake := newTestFakeOpenData()
	server := httptest.NewServer(fake)
	defer server.Close()

	h, store := newTestHarvester(t, server, nil)
	result, err := h.Run(context.Background(), day("2018-01-01"))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Pages, "second page is short and ends the run")
	assert.Equal(t, 3, result.Added)
	assert.Equal(t, []string{"a1", "b2", "c3"}, fake.detailed)
	assert.Equal(t, []string{"2018-01-01", "2018-01-02", "2018-01-04"}, store.Dates())

	rec := store.Records("2018-01-02")[0]
	assert.Equal(t, "b2", rec.ID)
	assert.Equal(t, "Tweede", rec.Title, "listing fields are not overwritten by the detail")
	assert.Equal(t, "Inleiding b2", rec.Extra["introduction"])
	assert.Equal(t, "nieuwsbericht", rec.Extra["type"])
	assert.Equal(t, "Inhoud van b2", rec.FullContent)
	assert.Equal(t, time.Date(2018, 1, 2, 10, 11, 12, 123000000, time.UTC), rec.PublishedAt)

	reopened, err := newsfeed.Open(store.Path(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, reopened.Len())
}

// TestOpenDataHarvester_Until verifies the run stops past the end date
func TestOpenDataHarvester_Until(t *testing.T) {
	fake := newTestFakeOpenData()
	server := httptest.NewServer(fake)
	defer server.Close()

	config := DefaultOpenDataConfig()
	config.Until = day("2018-01-02")

	h, store := newTestHarvester(t, server, config)
	result, err := h.Run(context.Background(), day("2018-01-01"))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Added)
	assert.False(t, store.Has("c3"))
	assert.NotContains(t, fake.detailed, "c3")
}

// TestOpenDataHarvester_MaxArticles verifies the article cap
func TestOpenDataHarvester_MaxArticles(t *testing.T) {
	fake := newTestFakeOpenData()
	server := httptest.NewServer(fake)
	defer server.Close()

	config := DefaultOpenDataConfig()
	config.MaxArticles = 1

	h, store := newTestHarvester(t, server, config)
	result, err := h.Run(context.Background(), day("2018-01-01"))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, store.Len())
}

// TestOpenDataHarvester_Resume verifies a rerun starts from the newest stored
// item and skips known ids
func TestOpenDataHarvester_Resume(t *testing.T) {
	fake := newTestFakeOpenData()
	server := httptest.NewServer(fake)
	defer server.Close()

	h, store := newTestHarvester(t, server, nil)
	store.Add(newsfeed.Record{Stub: newsfeed.Stub{
		ID:          "b2",
		Title:       "Tweede",
		PublishedAt: time.Date(2018, 1, 2, 10, 11, 12, 0, time.UTC),
	}})

	result, err := h.Run(context.Background(), day("2018-01-01"))
	require.NoError(t, err)

	assert.Equal(t, "20180102", fake.listings[0])
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 2, result.Added)
	assert.NotContains(t, fake.detailed, "b2")
}

// TestOpenDataHarvester_DetailMissing verifies a failing detail aborts
func TestOpenDataHarvester_DetailMissing(t *testing.T) {
	fake := newTestFakeOpenData()
	delete(fake.details, "a1")
	server := httptest.NewServer(fake)
	defer server.Close()

	h, _ := newTestHarvester(t, server, nil)
	_, err := h.Run(context.Background(), day("2018-01-01"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStatus)
}

// TestMergeMissing verifies only absent keys are copied
func TestMergeMissing(t *testing.T) {
	dst := map[string]any{"id": "1", "title": "Listing"}
	mergeMissing(dst, map[string]any{"id": "other", "title": "Detail", "content": "x"})

	assert.Equal(t, map[string]any{"id": "1", "title": "Listing", "content": "x"}, dst)
}
