package rojifi

import (
	"sync"
	"sync/atomic"
)

// subscription is one registered change callback.
type subscription[T any] struct {
	callback func(T)
	active   atomic.Bool
}

// subscriptionManager handles change callbacks with safe lifecycle management.
// A callback is not started once its unsubscription completes.
type subscriptionManager[T any] struct {
	mu     sync.RWMutex
	subs   map[uint64]*subscription[T]
	nextID atomic.Uint64
}

func newSubscriptionManager[T any]() *subscriptionManager[T] {
	return &subscriptionManager[T]{
		subs: make(map[uint64]*subscription[T]),
	}
}

// subscribe registers callback and returns its unsubscribe function.
func (m *subscriptionManager[T]) subscribe(callback func(T)) func() {
	id := m.nextID.Add(1)

	sub := &subscription[T]{callback: callback}
	sub.active.Store(true)

	m.mu.Lock()
	m.subs[id] = sub
	m.mu.Unlock()

	return func() {
		m.unsubscribe(id)
	}
}

// unsubscribe removes a subscription. Safe to call multiple times.
func (m *subscriptionManager[T]) unsubscribe(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sub, ok := m.subs[id]; ok {
		sub.active.Store(false)
		delete(m.subs, id)
	}
}

// notify calls every active callback synchronously, outside the lock.
func (m *subscriptionManager[T]) notify(v T) {
	m.mu.RLock()
	if len(m.subs) == 0 {
		m.mu.RUnlock()
		return
	}
	subs := make([]*subscription[T], 0, len(m.subs))
	for _, sub := range m.subs {
		subs = append(subs, sub)
	}
	m.mu.RUnlock()

	for _, sub := range subs {
		if sub.active.Load() {
			sub.callback(v)
		}
	}
}

// clear removes all subscriptions.
func (m *subscriptionManager[T]) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sub := range m.subs {
		sub.active.Store(false)
	}
	m.subs = make(map[uint64]*subscription[T])
}
