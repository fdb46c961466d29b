package rojifi

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionManager_Notify(t *testing.T) {
	m := newSubscriptionManager[int]()

	var a, b []int
	unsubA := m.subscribe(func(v int) { a = append(a, v) })
	m.subscribe(func(v int) { b = append(b, v) })

	m.notify(1)
	unsubA()
	unsubA()
	m.notify(2)

	assert.Equal(t, []int{1}, a)
	assert.Equal(t, []int{1, 2}, b)
}

func TestSubscriptionManager_Clear(t *testing.T) {
	m := newSubscriptionManager[string]()

	var calls int
	m.subscribe(func(string) { calls++ })
	m.clear()
	m.notify("x")

	assert.Zero(t, calls)
}

func TestSubscriptionManager_UnsubscribeDuringNotify(t *testing.T) {
	m := newSubscriptionManager[int]()

	var second int
	var unsubSecond func()
	m.subscribe(func(int) { unsubSecond() })
	unsubSecond = m.subscribe(func(int) { second++ })

	m.notify(1)
	m.notify(2)

	assert.LessOrEqual(t, second, 1)
}

func TestSubscriptionManager_Concurrent(t *testing.T) {
	m := newSubscriptionManager[int]()
	var wg sync.WaitGroup

	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unsub := m.subscribe(func(int) {})
			unsub()
		}()
		go func() {
			defer wg.Done()
			m.notify(i)
		}()
	}
	wg.Wait()
}
