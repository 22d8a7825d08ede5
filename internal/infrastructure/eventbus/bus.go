// Package eventbus fans normalized interaction events out to every live
// session. Each session filters the shared stream locally through its own
// subscription; nothing is claimed globally.
package eventbus

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/entity"
	"github.com/qj0r9j0vc2/button-bridge/internal/usecase/interact"
)

// ErrClosed is returned by Next after the subscription was closed.
var ErrClosed = errors.New("subscription closed")

// Bus is a process-wide broadcast of InteractionEvents.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*Subscription
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[uint64]*Subscription)}
}

// Subscribe registers a subscription that receives every published event
// accepted by match, in publish order.
func (b *Bus) Subscribe(match func(entity.InteractionEvent) bool) interact.Stream {
	return b.subscribe(match)
}

func (b *Bus) subscribe(match func(entity.InteractionEvent) bool) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{
		bus:    b,
		id:     b.nextID,
		match:  match,
		signal: make(chan struct{}, 1),
	}
	b.subs[sub.id] = sub
	return sub
}

// Publish delivers evt to every matching subscription and returns how many
// matched. It never blocks on a slow subscriber.
func (b *Bus) Publish(evt entity.InteractionEvent) int {
	if evt.ReceivedAt.IsZero() {
		evt.ReceivedAt = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	matched := 0
	for _, sub := range b.subs {
		if sub.match != nil && !sub.match(evt) {
			continue
		}
		sub.push(evt)
		matched++
	}
	return matched
}

// Len returns the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

// Subscription is one session's filtered view of the bus.
type Subscription struct {
	bus   *Bus
	id    uint64
	match func(entity.InteractionEvent) bool

	mu     sync.Mutex
	queue  []entity.InteractionEvent
	closed bool
	signal chan struct{}
}

func (s *Subscription) push(evt entity.InteractionEvent) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, evt)
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *Subscription) pop() (entity.InteractionEvent, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return entity.InteractionEvent{}, false, true
	}
	if len(s.queue) == 0 {
		return entity.InteractionEvent{}, false, false
	}
	evt := s.queue[0]
	s.queue[0] = entity.InteractionEvent{}
	s.queue = s.queue[1:]
	return evt, true, false
}

// Next waits for the next matching event until deadline. Reaching the
// deadline is reported as a timed-out WaitResult, not an error.
func (s *Subscription) Next(ctx context.Context, deadline time.Time) (entity.WaitResult, error) {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	for {
		evt, ok, closed := s.pop()
		if closed {
			return entity.WaitResult{}, ErrClosed
		}
		if ok {
			return entity.Received(evt), nil
		}

		select {
		case <-s.signal:
		case <-timer.C:
			// An event may have raced the timer.
			if evt, ok, _ := s.pop(); ok {
				return entity.Received(evt), nil
			}
			return entity.TimedOutResult(), nil
		case <-ctx.Done():
			return entity.WaitResult{}, ctx.Err()
		}
	}
}

// Close detaches the subscription from the bus and drops queued events.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.queue = nil
	s.mu.Unlock()

	s.bus.remove(s.id)
}
