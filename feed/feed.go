// Package feed accumulates successive pages of the news feed into one list.
package feed

import (
	"context"
	"errors"
	"sync"

	"tieba-stats/models"
)

var (
	// ErrNotLoadable is returned by LoadMore while a fetch is in flight or the
	// feed has not been refreshed yet, and by Refresh while another refresh
	// is in flight.
	ErrNotLoadable = errors.New("feed: next page not loadable")
	// ErrSuperseded is returned by LoadMore when a Refresh started while its
	// page was being fetched. The page is dropped.
	ErrSuperseded = errors.New("feed: page superseded by a refresh")
)

// State is the fetch state of a Feed.
type State string

const (
	Idle    State = "idle"
	Loading State = "loading"
)

// Fetcher fetches one 0-based page of the feed.
type Fetcher interface {
	FetchPage(ctx context.Context, pageIndex int) ([]models.NewsItem, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, pageIndex int) ([]models.NewsItem, error)

// FetchPage calls f.
func (f FetcherFunc) FetchPage(ctx context.Context, pageIndex int) ([]models.NewsItem, error) {
	return f(ctx, pageIndex)
}

// ScrollPosition is the viewport geometry reported by the client.
type ScrollPosition struct {
	ScrollTop    float64 `json:"scrollTop"`
	ClientHeight float64 `json:"clientHeight"`
	ScrollHeight float64 `json:"scrollHeight"`
}

// AtBottom reports whether the viewport touches the end of the list. A list
// scrolled to the very top never counts, so a short first page does not
// cascade into further loads.
func (p ScrollPosition) AtBottom() bool {
	return p.ScrollTop != 0 && p.ScrollTop+p.ClientHeight >= p.ScrollHeight
}

// Snapshot is a copy of the feed state.
type Snapshot struct {
	PageIndex int               `json:"pageIndex"`
	State     State             `json:"state"`
	Loadable  bool              `json:"loadable"`
	Items     []models.NewsItem `json:"items"`
}

// Feed is the paginated news accumulator. It is safe for concurrent use;
// the fetch itself runs outside the lock.
type Feed struct {
	fetcher Fetcher
	onPage  func()

	mu         sync.Mutex
	state      State
	pageIndex  int
	items      []models.NewsItem
	loadable   bool
	armed      bool
	refreshing bool
	// generation is bumped by every Refresh; a LoadMore whose generation is
	// no longer current must not touch the list.
	generation uint64
}

// Option configures a Feed.
type Option func(*Feed)

// WithPageHook registers fn to run after every successfully appended page.
func WithPageHook(fn func()) Option {
	return func(f *Feed) { f.onPage = fn }
}

// New creates an idle, empty Feed.
func New(fetcher Fetcher, opts ...Option) *Feed {
	f := &Feed{fetcher: fetcher, state: Idle}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Refresh drops everything accumulated and loads page 0 again. A page
// still in flight from LoadMore is discarded when it lands.
func (f *Feed) Refresh(ctx context.Context) (Snapshot, error) {
	f.mu.Lock()
	if f.refreshing {
		f.mu.Unlock()
		return Snapshot{}, ErrNotLoadable
	}
	f.generation++
	f.refreshing = true
	f.pageIndex = 0
	f.items = nil
	f.armed = false
	f.loadable = false
	f.state = Loading
	f.mu.Unlock()

	items, err := f.fetcher.FetchPage(ctx, 0)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshing = false
	f.state = Idle
	if err != nil {
		return f.snapshotLocked(), err
	}
	f.items = append(f.items, items...)
	f.armed = true
	f.loadable = true
	f.pageLoaded()
	return f.snapshotLocked(), nil
}

// LoadMore appends the next page. A failed fetch keeps the cursor where it
// was so the same page is requested next time.
func (f *Feed) LoadMore(ctx context.Context) (Snapshot, error) {
	f.mu.Lock()
	if !f.loadable || f.state == Loading {
		f.mu.Unlock()
		return Snapshot{}, ErrNotLoadable
	}
	gen := f.generation
	f.loadable = false
	f.state = Loading
	f.pageIndex++
	page := f.pageIndex
	f.mu.Unlock()

	items, err := f.fetcher.FetchPage(ctx, page)

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.generation {
		return f.snapshotLocked(), ErrSuperseded
	}
	f.state = Idle
	f.loadable = true
	if err != nil {
		f.pageIndex--
		return f.snapshotLocked(), err
	}
	f.items = append(f.items, items...)
	f.pageLoaded()
	return f.snapshotLocked(), nil
}

// OnScroll loads the next page when the viewport has reached the bottom of
// the list. It reports whether a page was requested.
func (f *Feed) OnScroll(ctx context.Context, pos ScrollPosition) (Snapshot, bool, error) {
	f.mu.Lock()
	trigger := f.armed && pos.AtBottom()
	f.mu.Unlock()

	if !trigger {
		return f.Snapshot(), false, nil
	}
	snap, err := f.LoadMore(ctx)
	if errors.Is(err, ErrNotLoadable) || errors.Is(err, ErrSuperseded) {
		return f.Snapshot(), false, nil
	}
	return snap, true, err
}

// Snapshot returns a copy of the current state.
func (f *Feed) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Feed) snapshotLocked() Snapshot {
	items := make([]models.NewsItem, len(f.items))
	copy(items, f.items)
	return Snapshot{
		PageIndex: f.pageIndex,
		State:     f.state,
		Loadable:  f.loadable,
		Items:     items,
	}
}

func (f *Feed) pageLoaded() {
	if f.onPage != nil {
		f.onPage()
	}
}
