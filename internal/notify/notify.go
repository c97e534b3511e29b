// Package notify is an in-process, typed publish/subscribe channel.
//
// Handlers run synchronously on the publishing goroutine, in subscription
// order. A handler that panics is recovered and reported through the
// PanicHandler; the remaining handlers still receive the value.
package notify

import (
	"fmt"
	"sync"
)

// Handler receives published values.
type Handler[T any] func(T)

// PanicHandler is told about a recovered handler panic.
type PanicHandler func(recovered any)

// Notifier fans values out to subscribers. The zero value is ready to use.
type Notifier[T any] struct {
	mu      sync.Mutex
	nextID  uint64
	subs    []subscription[T]
	onPanic PanicHandler
}

type subscription[T any] struct {
	id      uint64
	handler Handler[T]
}

// New returns a Notifier that reports handler panics to onPanic.
func New[T any](onPanic PanicHandler) *Notifier[T] {
	return &Notifier[T]{onPanic: onPanic}
}

// Subscribe registers handler and returns a function that removes it.
// Calling the returned function more than once is harmless. A nil handler
// is ignored.
func (n *Notifier[T]) Subscribe(handler Handler[T]) (unsubscribe func()) {
	if handler == nil {
		return func() {}
	}

	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.subs = append(n.subs, subscription[T]{id: id, handler: handler})
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { n.remove(id) })
	}
}

func (n *Notifier[T]) remove(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, s := range n.subs {
		if s.id == id {
			// Copy instead of splicing in place so a Publish iterating an
			// earlier snapshot is unaffected.
			next := make([]subscription[T], 0, len(n.subs)-1)
			next = append(next, n.subs[:i]...)
			next = append(next, n.subs[i+1:]...)
			n.subs = next
			return
		}
	}
}

// Publish delivers v to every current subscriber and returns how many
// handlers completed without panicking. Subscriptions added or removed by a
// handler take effect from the next Publish.
func (n *Notifier[T]) Publish(v T) int {
	n.mu.Lock()
	subs := n.subs
	onPanic := n.onPanic
	n.mu.Unlock()

	delivered := 0
	for _, s := range subs {
		if deliver(s.handler, v, onPanic) {
			delivered++
		}
	}
	return delivered
}

// Len returns the number of active subscribers.
func (n *Notifier[T]) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

func deliver[T any](h Handler[T], v T, onPanic PanicHandler) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			if onPanic != nil {
				onPanic(r)
			}
		}
	}()
	h(v)
	return true
}

// PanicError wraps a recovered panic value as an error.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panicked: %v", e.Value)
}
