package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// ErrStatus is wrapped by errors for responses whose status the caller
// cannot work with.
var ErrStatus = errors.New("unexpected HTTP status")

// BrowserHeaders is the fixed header set sent with every request. The
// archive serves a reduced page to clients that do not look like a browser.
var BrowserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:89.0) Gecko/20100101 Firefox/89.0",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.8,*/*;q=0.7",
	"Accept-Language": "nl,en-US;q=0.7,en;q=0.3",
}

// FetcherConfig holds configuration for a Fetcher.
type FetcherConfig struct {
	// Delay is the minimum time between two requests. Zero disables it.
	Delay time.Duration
	// Timeout bounds a single request. Zero means no timeout.
	Timeout time.Duration
	// UserAgent replaces the browser User-Agent when set.
	UserAgent string
}

// DefaultFetcherConfig returns the default fetcher configuration.
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		Delay:   1 * time.Second,
		Timeout: 30 * time.Second,
	}
}

// Fetcher performs throttled GET requests. It does not retry: a transport
// failure is returned to the caller.
type Fetcher struct {
	client  *resty.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Response is the status and body of a fetched page.
type Response struct {
	URL        string
	StatusCode int
	Body       []byte
}

// OK reports whether the response has a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// NewFetcher creates a fetcher. A nil logger uses slog.Default().
func NewFetcher(config FetcherConfig, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New()
	client.SetHeaders(BrowserHeaders)
	if config.UserAgent != "" {
		client.SetHeader("User-Agent", config.UserAgent)
	}
	client.SetTimeout(config.Timeout)
	client.SetLogger(restyLogger{logger: logger})

	limit := rate.Inf
	if config.Delay > 0 {
		limit = rate.Every(config.Delay)
	}

	return &Fetcher{
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// Get fetches url after waiting for the politeness delay. Any status is
// returned as a Response; only transport failures and cancellation are
// errors.
func (f *Fetcher) Get(ctx context.Context, url string) (*Response, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	f.logger.Debug("fetching", slog.String("url", url))

	resp, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	return &Response{
		URL:        url,
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
	}, nil
}

// GetJSON fetches url and decodes its JSON body into out. Numbers are kept
// as json.Number so they are written back unchanged.
func (f *Fetcher) GetJSON(ctx context.Context, url string, out any) error {
	resp, err := f.Get(ctx, url)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("%w: %d %s from %s", ErrStatus, resp.StatusCode, http.StatusText(resp.StatusCode), url)
	}

	dec := json.NewDecoder(bytes.NewReader(resp.Body))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", url, err)
	}
	return nil
}

// restyLogger routes resty's own messages into slog.
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "http"))
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "http"))
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "http"))
}
