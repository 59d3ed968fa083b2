package flow

import (
	"context"
	"sync"
)

// Value is a single-value broadcast stream: subscribers receive the current
// value on subscribe and every update after it. Slow subscribers are
// conflated to the latest value rather than blocking the publisher.
type Value[T any] struct {
	mu      sync.Mutex
	set     bool
	current T
	subs    map[int]chan T
	nextID  int
}

// NewValue constructs an empty stream.
func NewValue[T any]() *Value[T] {
	return &Value[T]{subs: make(map[int]chan T)}
}

// Set publishes a new value to every subscriber and stores it for replay.
func (v *Value[T]) Set(value T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.current = value
	v.set = true
	for _, ch := range v.subs {
		// Conflate: drop the stale buffered value so the send below can
		// never block.
		select {
		case <-ch:
		default:
		}
		ch <- value
	}
}

// Get returns the current value, if one was ever set.
func (v *Value[T]) Get() (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current, v.set
}

// Subscribe returns a channel primed with the current value (when one
// exists) that then receives each update. The subscription ends and the
// channel closes when ctx is done.
func (v *Value[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)

	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.subs[id] = ch
	if v.set {
		ch <- v.current
	}
	v.mu.Unlock()

	go func() {
		<-ctx.Done()
		v.mu.Lock()
		delete(v.subs, id)
		v.mu.Unlock()
		close(ch)
	}()

	return ch
}
