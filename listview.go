package rojifi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AntimonyIQ/rojifiadmin-sub001/query"
)

// DefaultDebounce is the quiet period after the last search keystroke
// before a fetch is issued.
const DefaultDebounce = 500 * time.Millisecond

// ViewStatus is the state of a ListView.
type ViewStatus int

const (
	StatusIdle ViewStatus = iota
	StatusLoading
	StatusSuccess
	StatusFailed
)

func (s ViewStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("ViewStatus(%d)", int(s))
	}
}

// Snapshot is a point-in-time copy of a ListView.
type Snapshot[T any] struct {
	Status     ViewStatus
	Records    []T
	Pagination *Pagination
	Query      query.State
	Err        error
	Generation uint64
}

// viewConfig holds configuration for a list view.
type viewConfig struct {
	debounce time.Duration
	state    query.State
}

// ViewOption configures a ListView.
type ViewOption func(*viewConfig)

// WithDebounce sets the search debounce window.
// Default: 500ms
func WithDebounce(d time.Duration) ViewOption {
	return func(c *viewConfig) {
		c.debounce = d
	}
}

// WithInitialQuery sets the query the view starts from.
func WithInitialQuery(s query.State) ViewOption {
	return func(c *viewConfig) {
		c.state = s.Clone()
	}
}

// ListView drives the fetches of one paginated list. Every trigger issues a
// fetch tagged with a new generation, and only the newest generation's
// result is applied. Records are replaced wholesale on success and kept on
// failure. Pagination comes from the server.
type ListView[T any] struct {
	path     string
	debounce time.Duration
	logger   *zap.Logger
	fetch    func(ctx context.Context, s query.State) (*Page[T], error)

	bgCtx    context.Context
	bgCancel context.CancelFunc
	subs     *subscriptionManager[Snapshot[T]]

	mu         sync.Mutex
	state      query.State
	status     ViewStatus
	records    []T
	pagination *Pagination
	pagedKey   string // query the pagination was reported for
	err        error
	gen        uint64
	timer      *time.Timer
	timerSeq   uint64
	searching  bool // search term set but not fetched yet
	closed     bool

	// Snapshots waiting for delivery, in the order the changes happened.
	queue    []Snapshot[T]
	draining bool
}

// NewListView creates a view over the list endpoint at path. No request is
// made until the first trigger.
func NewListView[T any](c *Client, path string, opts ...ViewOption) *ListView[T] {
	cfg := &viewConfig{
		debounce: DefaultDebounce,
		state:    query.NewState(query.DefaultLimit),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	v := &ListView[T]{
		path:     path,
		debounce: cfg.debounce,
		logger:   c.logger.With(zap.String("view", path)),
		bgCtx:    bgCtx,
		bgCancel: bgCancel,
		subs:     newSubscriptionManager[Snapshot[T]](),
		state:    cfg.state,
	}
	v.fetch = func(ctx context.Context, s query.State) (*Page[T], error) {
		return List[T](ctx, c, path, s)
	}
	return v
}

// SetPage fetches page. Pages below 1, or above the total the server last
// reported for the current query, fail with ErrPageOutOfRange and issue no
// request. Until a changed query has been fetched only page 1 is known.
func (v *ListView[T]) SetPage(ctx context.Context, page int) error {
	v.mu.Lock()
	if !v.pageKnownLocked(page) {
		v.mu.Unlock()
		return fmt.Errorf("page %d: %w", page, ErrPageOutOfRange)
	}
	v.state = v.state.WithPage(page)
	v.mu.Unlock()

	return v.Refresh(ctx)
}

func (v *ListView[T]) pageKnownLocked(page int) bool {
	switch {
	case page < 1:
		return false
	case page == 1:
		return true
	case v.searching:
		return false
	case v.pagination == nil:
		return true
	case v.pagedKey != pagingKey(v.state):
		return false
	}
	return page <= max(v.pagination.TotalPages, 1)
}

// pagingKey identifies a query independent of its page.
func pagingKey(s query.State) string {
	return query.Build(s.WithPage(1))
}

// SetLimit changes the page size and fetches page 1.
func (v *ListView[T]) SetLimit(ctx context.Context, limit int) error {
	if limit < 1 {
		return fmt.Errorf("invalid limit %d", limit)
	}
	v.mu.Lock()
	v.state = v.state.WithLimit(limit)
	v.mu.Unlock()

	return v.Refresh(ctx)
}

// SetFilter sets a filter and fetches page 1. A value of nil, "" or "all"
// removes the constraint.
func (v *ListView[T]) SetFilter(ctx context.Context, name string, value any) error {
	v.mu.Lock()
	v.state = v.state.WithFilter(name, value)
	v.mu.Unlock()

	return v.Refresh(ctx)
}

// SetSearch records a search term and schedules a fetch of page 1 once the
// debounce window passes without another call. Any fetch already in flight
// is superseded at once.
func (v *ListView[T]) SetSearch(term string) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.state = v.state.WithSearch(term)
	v.searching = true
	v.gen++
	v.status = StatusLoading
	if v.timer != nil {
		v.timer.Stop()
	}
	v.timerSeq++
	seq := v.timerSeq
	v.timer = time.AfterFunc(v.debounce, func() { v.debouncedFetch(seq) })
	v.enqueueLocked()
	v.mu.Unlock()

	v.drain()
}

func (v *ListView[T]) debouncedFetch(seq uint64) {
	err := v.refresh(v.bgCtx, seq)
	if err != nil && !errors.Is(err, ErrSuperseded) && !errors.Is(err, ErrClientClosed) {
		v.logger.Debug("debounced fetch failed", zap.Error(err))
	}
}

// Refresh fetches the current query again, for example after a mutation.
// It returns ErrSuperseded when a newer fetch was issued before this one
// completed; the view then reflects the newer fetch only.
func (v *ListView[T]) Refresh(ctx context.Context) error {
	return v.refresh(ctx, 0)
}

// refresh issues a fetch. A non-zero seq names the debounce timer that fired
// it; if that timer has since been replaced or cancelled nothing is fetched.
func (v *ListView[T]) refresh(ctx context.Context, seq uint64) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClientClosed
	}
	if seq != 0 && seq != v.timerSeq {
		v.mu.Unlock()
		return ErrSuperseded
	}
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	v.timerSeq++
	v.searching = false
	v.gen++
	gen := v.gen
	state := v.state.Clone()
	v.status = StatusLoading
	v.enqueueLocked()
	v.mu.Unlock()

	v.drain()

	page, err := v.fetch(ctx, state)

	v.mu.Lock()
	if gen != v.gen || v.closed {
		v.mu.Unlock()
		v.logger.Debug("discarding superseded response", zap.Uint64("generation", gen))
		return ErrSuperseded
	}
	if err != nil {
		v.status = StatusFailed
		v.err = err
	} else {
		v.status = StatusSuccess
		v.err = nil
		v.records = page.Records
		if page.Pagination != nil {
			p := *page.Pagination
			v.pagination = &p
			v.pagedKey = pagingKey(state)
		}
	}
	v.enqueueLocked()
	v.mu.Unlock()

	v.drain()
	return err
}

// Debounce returns the search debounce window.
func (v *ListView[T]) Debounce() time.Duration {
	return v.debounce
}

func (v *ListView[T]) enqueueLocked() {
	v.queue = append(v.queue, v.snapshotLocked())
}

// drain delivers queued snapshots one at a time. Only one goroutine drains;
// others, including callbacks that trigger a change, leave their snapshot
// in the queue for it.
func (v *ListView[T]) drain() {
	v.mu.Lock()
	if v.draining {
		v.mu.Unlock()
		return
	}
	v.draining = true
	for len(v.queue) > 0 {
		snap := v.queue[0]
		v.queue[0] = Snapshot[T]{}
		v.queue = v.queue[1:]
		v.mu.Unlock()

		v.subs.notify(snap)

		v.mu.Lock()
	}
	v.queue = nil
	v.draining = false
	v.mu.Unlock()
}

// Snapshot returns a copy of the view's current state.
func (v *ListView[T]) Snapshot() Snapshot[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

func (v *ListView[T]) snapshotLocked() Snapshot[T] {
	snap := Snapshot[T]{
		Status:     v.status,
		Query:      v.state.Clone(),
		Err:        v.err,
		Generation: v.gen,
	}
	if v.records != nil {
		snap.Records = make([]T, len(v.records))
		copy(snap.Records, v.records)
	}
	if v.pagination != nil {
		p := *v.pagination
		snap.Pagination = &p
	}
	return snap
}

// Subscribe registers fn to receive a snapshot after every state change.
// Snapshots are delivered one at a time in the order the changes happened,
// so Generation never decreases between calls. Delivery happens on a
// goroutine that triggered a change; a change made from inside fn is
// delivered after fn returns. The returned function unsubscribes: no call
// starts after it returns, though one already running on another goroutine
// may still be finishing.
func (v *ListView[T]) Subscribe(fn func(Snapshot[T])) func() {
	return v.subs.subscribe(fn)
}

// Close stops any pending debounced fetch and drops all subscribers.
// Results of fetches still in flight are discarded.
func (v *ListView[T]) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	v.timerSeq++
	v.queue = nil
	v.mu.Unlock()

	v.bgCancel()
	v.subs.clear()
}
