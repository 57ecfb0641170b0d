package discovery

// MaxPages is the hard ceiling on listing pages walked for a single day.
const MaxPages = 50

// DefaultSkipThreshold is how many consecutive pages without an in-range
// article end a day.
const DefaultSkipThreshold = 3

// Transition is the paginator's decision after a page has been observed.
type Transition int

const (
	// NextPage continues with the following page.
	NextPage Transition = iota
	// StopEmpty ends the walk because a page had no articles at all.
	StopEmpty
	// StopOutOfRange ends the walk because too many consecutive pages had no
	// article inside the requested date range.
	StopOutOfRange
	// StopMaxPages ends the walk at the page cap.
	StopMaxPages
)

func (t Transition) String() string {
	switch t {
	case NextPage:
		return "next_page"
	case StopEmpty:
		return "stop_empty"
	case StopOutOfRange:
		return "stop_out_of_range"
	case StopMaxPages:
		return "stop_max_pages"
	default:
		return "unknown"
	}
}

// Paginator walks the listing pages of one day. Pages are numbered from 1.
//
// An empty page stops the walk at once. A page that has articles but none in
// range counts as a miss; misses must be consecutive, and the walk stops when
// they reach the threshold.
type Paginator struct {
	maxPages  int
	threshold int
	page      int
	misses    int
	// stop is the terminal transition once the walk has ended
	stop Transition
}

// NewPaginator creates a paginator. maxPages is clamped to [1, MaxPages] and a
// threshold below 1 uses DefaultSkipThreshold.
func NewPaginator(maxPages, threshold int) *Paginator {
	if maxPages < 1 || maxPages > MaxPages {
		maxPages = MaxPages
	}
	if threshold < 1 {
		threshold = DefaultSkipThreshold
	}
	return &Paginator{
		maxPages:  maxPages,
		threshold: threshold,
		page:      1,
	}
}

// Page returns the page to fetch next.
func (p *Paginator) Page() int {
	return p.page
}

// Misses returns the current number of consecutive pages without an
// in-range article.
func (p *Paginator) Misses() int {
	return p.misses
}

// Done reports whether the walk has stopped.
func (p *Paginator) Done() bool {
	return p.stop != NextPage
}

// Advance records what the current page held and moves to the next page or
// stops. Once stopped it keeps returning the transition that stopped it.
func (p *Paginator) Advance(found, inRange int) Transition {
	if p.Done() {
		return p.stop
	}

	switch {
	case found == 0:
		p.stop = StopEmpty
	case inRange == 0:
		p.misses++
		if p.misses >= p.threshold {
			p.stop = StopOutOfRange
		}
	default:
		p.misses = 0
	}

	if !p.Done() && p.page >= p.maxPages {
		p.stop = StopMaxPages
	}
	if p.Done() {
		return p.stop
	}

	p.page++
	return NextPage
}
