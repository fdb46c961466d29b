package rojifi

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ActionTracker holds an independent busy flag per entity key so that a
// mutation on one row never blocks another. The zero value is ready to use
// and it is safe for concurrent use.
type ActionTracker struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

// NewActionTracker returns an empty tracker.
func NewActionTracker() *ActionTracker {
	return &ActionTracker{busy: make(map[string]struct{})}
}

// Begin marks key busy. Calling it on a busy key keeps it busy.
func (t *ActionTracker) Begin(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.busy == nil {
		t.busy = make(map[string]struct{})
	}
	t.busy[key] = struct{}{}
}

// TryBegin marks key busy and reports true, or reports false if it already was.
func (t *ActionTracker) TryBegin(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.busy[key]; ok {
		return false
	}
	if t.busy == nil {
		t.busy = make(map[string]struct{})
	}
	t.busy[key] = struct{}{}
	return true
}

// End clears key, whether or not it was busy.
func (t *ActionTracker) End(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.busy, key)
}

// IsBusy reports whether key has a mutation in flight.
func (t *ActionTracker) IsBusy(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.busy[key]
	return ok
}

// Busy returns the busy keys in sorted order.
func (t *ActionTracker) Busy() []string {
	t.mu.Lock()
	keys := make([]string, 0, len(t.busy))
	for k := range t.busy {
		keys = append(keys, k)
	}
	t.mu.Unlock()

	sort.Strings(keys)
	return keys
}

// Do runs fn with key marked busy and clears it afterwards, also when fn
// fails or panics. It returns ErrActionInProgress without running fn if key
// is already busy.
func (t *ActionTracker) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if !t.TryBegin(key) {
		return ErrActionInProgress
	}
	defer t.End(key)
	return fn(ctx)
}

// Key joins identifiers into a composite tracker key such as
// "<teamId>-<email>". A '-' or '\' inside a part is escaped, so distinct
// tuples always give distinct keys.
func Key(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = keyEscaper.Replace(p)
	}
	return strings.Join(escaped, "-")
}

var keyEscaper = strings.NewReplacer(`\`, `\\`, `-`, `\-`)

// RunBulk runs fn for every key through t, at most limit at a time. A failure
// on one key does not stop the others. The returned map holds the error of
// each key that failed and is empty when all succeeded. Duplicate keys run once.
func RunBulk(ctx context.Context, t *ActionTracker, keys []string, limit int, fn func(ctx context.Context, key string) error) map[string]error {
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	var mu sync.Mutex
	failed := make(map[string]error)
	seen := make(map[string]struct{}, len(keys))

	for _, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		g.Go(func() error {
			err := ctx.Err()
			if err == nil {
				err = t.Do(ctx, key, func(ctx context.Context) error {
					return fn(ctx, key)
				})
			}
			if err != nil {
				mu.Lock()
				failed[key] = err
				mu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait()
	return failed
}
