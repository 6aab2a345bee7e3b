// Package event implements a small subscribable callback fan-out, used by
// embedders of the client components to observe channel membership and
// operator changes and incoming messages without the components
// depending on any particular UI or transport.
package event

import "sync"

// Handler is a subscriber callback. Its return value participates in the
// aggregate result of the Fire call that invoked it: Fire succeeds only if
// every handler invoked during that Fire returns true.
type Handler func(args ...any) bool

type subscriber struct {
	id        uint64
	handler   Handler
	disposable bool
}

// Event is an ordered list of subscribers. The zero value is ready to use.
// A single Event is not safe for concurrent Fire calls that mutate overlapping
// subscriber state, but Subscribe/Unsubscribe/Fire themselves are safe to call
// from multiple goroutines.
type Event struct {
	mu     sync.Mutex
	subs   []subscriber
	nextID uint64
}

// Subscription identifies one registered handler for later Unsubscribe.
type Subscription uint64

// Subscribe registers a handler that stays registered until explicitly
// unsubscribed. Subscribers added while a Fire is in progress are not
// observed by that Fire — only by the next one.
func (e *Event) Subscribe(h Handler) Subscription {
	return e.add(h, false)
}

// SubscribeOnce registers a handler that is automatically removed after it
// runs for the first time (it still participates in that Fire's aggregate
// result).
func (e *Event) SubscribeOnce(h Handler) Subscription {
	return e.add(h, true)
}

func (e *Event) add(h Handler, disposable bool) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	e.subs = append(e.subs, subscriber{id: id, handler: h, disposable: disposable})
	return Subscription(id)
}

// Unsubscribe removes a previously registered handler. It is a no-op if the
// subscription has already been removed (including via a disposable firing).
func (e *Event) Unsubscribe(s Subscription) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, sub := range e.subs {
		if sub.id == uint64(s) {
			e.subs = append(e.subs[:i], e.subs[i+1:]...)
			return
		}
	}
}

// Fire invokes every currently-registered subscriber, in registration order,
// with args. It returns true only if every subscriber returned true (an
// Event with no subscribers fires successfully). Disposable subscribers are
// removed after this call, regardless of their return value.
func (e *Event) Fire(args ...any) bool {
	e.mu.Lock()
	snapshot := make([]subscriber, len(e.subs))
	copy(snapshot, e.subs)
	e.mu.Unlock()

	ok := true
	var fired []uint64
	for _, sub := range snapshot {
		if !sub.handler(args...) {
			ok = false
		}
		if sub.disposable {
			fired = append(fired, sub.id)
		}
	}

	if len(fired) > 0 {
		e.mu.Lock()
		for _, id := range fired {
			for i, sub := range e.subs {
				if sub.id == id {
					e.subs = append(e.subs[:i], e.subs[i+1:]...)
					break
				}
			}
		}
		e.mu.Unlock()
	}

	return ok
}

// Len reports the current subscriber count; mainly useful in tests.
func (e *Event) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}
