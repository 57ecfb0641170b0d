package discovery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: fetcher without politeness delay
func newTestFetcher() *Fetcher {
	return NewFetcher(FetcherConfig{Timeout: 5 * time.Second}, nil)
}

// TestFetcher_SendsBrowserHeaders verifies the fixed header set
func TestFetcher_SendsBrowserHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	resp, err := newTestFetcher().Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body))
	assert.True(t, resp.OK())

	assert.Equal(t, BrowserHeaders["User-Agent"], got.Get("User-Agent"))
	assert.Equal(t, BrowserHeaders["Accept-Language"], got.Get("Accept-Language"))
}

// TestFetcher_UserAgentOverride verifies a configured User-Agent wins
func TestFetcher_UserAgentOverride(t *testing.T) {
	var ua string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	fetcher := NewFetcher(FetcherConfig{UserAgent: "rijksnieuws-test"}, nil)
	_, err := fetcher.Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "rijksnieuws-test", ua)
}

// TestFetcher_NonOKIsNotAnError verifies statuses are returned to the caller
func TestFetcher_NonOKIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	resp, err := newTestFetcher().Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, resp.OK())
}

// TestFetcher_TransportFailure verifies network faults are returned
func TestFetcher_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestFetcher().Get(context.Background(), url)
	assert.Error(t, err)
}

// TestFetcher_Canceled verifies a canceled context stops the request
func TestFetcher_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestFetcher().Get(ctx, "http://127.0.0.1:1")
	require.Error(t, err)
	assert.True(t, IsCanceled(err))
}

// TestFetcher_Delay verifies consecutive requests are spaced out
func TestFetcher_Delay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	fetcher := NewFetcher(FetcherConfig{Delay: 100 * time.Millisecond}, nil)

	start := time.Now()
	for range 3 {
		_, err := fetcher.Get(context.Background(), server.URL)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 180*time.Millisecond)
}

// TestFetcher_GetJSON verifies decoding keeps numbers intact
func TestFetcher_GetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"abc","rows":200}`))
	}))
	defer server.Close()

	var out map[string]any
	require.NoError(t, newTestFetcher().GetJSON(context.Background(), server.URL, &out))
	assert.Equal(t, "abc", out["id"])
	assert.Equal(t, json.Number("200"), out["rows"])
}

// TestFetcher_GetJSONStatus verifies a failing status is an ErrStatus
func TestFetcher_GetJSONStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	var out map[string]any
	err := newTestFetcher().GetJSON(context.Background(), server.URL, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStatus)
	assert.Contains(t, err.Error(), "503")
}
