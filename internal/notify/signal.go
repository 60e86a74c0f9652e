// Package notify provides a payload-free change signal with a bounded
// subscriber list.
package notify

import (
	"errors"
	"sync"
)

// DefaultMaxSubscribers bounds a Signal created with max <= 0.
const DefaultMaxSubscribers = 8

var ErrTooManySubscribers = errors.New("too many subscribers")

type subscriber struct {
	id int
	fn func()
}

// Signal is a named, synchronous publish/subscribe channel. Publish runs every
// subscriber in subscription order on the caller's goroutine.
type Signal struct {
	name string
	max  int

	mu     sync.Mutex
	subs   []subscriber
	nextID int
}

func New(name string, max int) *Signal {
	if max <= 0 {
		max = DefaultMaxSubscribers
	}
	return &Signal{name: name, max: max}
}

func (s *Signal) Name() string { return s.name }

// Subscribe registers fn. The returned cancel func removes it and may be called more than once.
func (s *Signal) Subscribe(fn func()) (cancel func(), err error) {
	if fn == nil {
		return nil, errors.New("nil subscriber")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subs) >= s.max {
		return nil, ErrTooManySubscribers
	}
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() { once.Do(func() { s.remove(id) }) }, nil
}

func (s *Signal) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// Publish raises the signal. Subscribers run outside the lock, so they may
// subscribe, cancel or publish again.
func (s *Signal) Publish() {
	s.mu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn()
	}
}

// Len reports the number of active subscribers.
func (s *Signal) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
