package discovery

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pevans/rijksnieuws/newsfeed"
)

// RunResult summarises a harvesting run.
type RunResult struct {
	Days         int
	Pages        int
	StubsFound   int
	Added        int
	Skipped      int
	EmptyContent int
}

// LogValue lets a result be logged as a group.
func (r RunResult) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("days", r.Days),
		slog.Int("pages", r.Pages),
		slog.Int("stubs_found", r.StubsFound),
		slog.Int("added", r.Added),
		slog.Int("skipped", r.Skipped),
		slog.Int("empty_content", r.EmptyContent),
	)
}

// InRange reports whether t falls on a calendar day between start and end,
// both inclusive. Only the dates are compared.
func InRange(t, start, end time.Time) bool {
	day := t.Format(newsfeed.DateLayout)
	return day >= start.Format(newsfeed.DateLayout) && day <= end.Format(newsfeed.DateLayout)
}

// IsCanceled reports whether err stems from the run being interrupted.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
