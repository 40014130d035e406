package event

import (
	"fmt"
	"runtime/debug"

	"github.com/Gaurav-Gosain/shellglobal/internal/logging"
)

var logger = logging.New("event")

// Handler receives published events.
type Handler func(Event)

type subscriber struct {
	id      uint64
	handler Handler
	kinds   map[Kind]bool // nil means every kind
}

func (s *subscriber) wants(k Kind) bool {
	return s.kinds == nil || s.kinds[k]
}

// Bus delivers events to subscribers. It is not safe for concurrent use;
// the owner runs it on the run loop goroutine.
type Bus struct {
	subs   []*subscriber
	nextID uint64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscription is returned by Subscribe and removes the handler again.
type Subscription struct {
	bus *Bus
	id  uint64
}

// Subscribe registers h for the given kinds, or for every kind when none
// are given.
func (b *Bus) Subscribe(h Handler, kinds ...Kind) *Subscription {
	if h == nil {
		panic("event: nil handler")
	}

	b.nextID++
	s := &subscriber{id: b.nextID, handler: h}
	if len(kinds) > 0 {
		s.kinds = make(map[Kind]bool, len(kinds))
		for _, k := range kinds {
			s.kinds[k] = true
		}
	}
	b.subs = append(b.subs, s)
	return &Subscription{bus: b, id: s.id}
}

// Unsubscribe removes the handler. It reports false if it was already
// removed.
func (s *Subscription) Unsubscribe() bool {
	if s == nil || s.bus == nil {
		return false
	}
	b := s.bus
	for i, sub := range b.subs {
		if sub.id == s.id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			s.bus = nil
			return true
		}
	}
	return false
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	return len(b.subs)
}

// Publish delivers e to every interested subscriber in subscription order.
// Subscribers added or removed by a handler take effect on the next
// Publish. A panicking handler is logged and does not stop delivery.
func (b *Bus) Publish(e Event) {
	subs := b.subs
	for _, s := range subs {
		if !s.wants(e.Kind()) {
			continue
		}
		b.deliver(s, e)
	}
}

func (b *Bus) deliver(s *subscriber, e Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("handler panicked",
				"event", e.Kind(),
				"subscription", s.id,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	s.handler(e)
}
