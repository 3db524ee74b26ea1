package property

import (
	"sync"

	"github.com/jmylchreest/isle/internal/model"
)

// Subscriber is invoked on the UI thread with each new value of a property.
type Subscriber func(value model.Value)

// Subscribable pairs a property with the ordered list of its subscribers.
// Subscribers are appended and never removed; slice order is call order.
type Subscribable struct {
	property *Property

	mu          sync.RWMutex
	subscribers []Subscriber
}

// NewSubscribable wraps p with an empty subscriber list.
func NewSubscribable(p *Property) *Subscribable {
	return &Subscribable{property: p}
}

// Property returns the shared property handle.
func (s *Subscribable) Property() *Property {
	return s.property
}

// Subscribe appends fn to the subscriber list.
func (s *Subscribable) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Subscribers returns a snapshot of the subscriber list in call order.
func (s *Subscribable) Subscribers() []Subscriber {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Subscriber, len(s.subscribers))
	copy(out, s.subscribers)
	return out
}

// Notify invokes every subscriber in order with value.
func (s *Subscribable) Notify(value model.Value) {
	for _, fn := range s.Subscribers() {
		fn(value)
	}
}
