package sessions

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SignalType names a session lifecycle signal.
type SignalType string

const (
	SignedOut  SignalType = "user_signed_out_event"
	ForceReset SignalType = "force_data_reset"
	AuthFailed SignalType = "auth_error"
)

// Signal is a session lifecycle notification. Message is set for AuthFailed.
type Signal struct {
	Type    SignalType `json:"type"`
	Message string     `json:"message,omitempty"`
}

// Resets reports whether receivers should drop cached user data.
func (s Signal) Resets() bool {
	return s.Type == SignedOut || s.Type == ForceReset
}

type Handler func(Signal)

type subscription struct {
	handler Handler
	types   map[SignalType]struct{}
}

func (s subscription) wants(t SignalType) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[t]
	return ok
}

// Broadcaster fans session signals out to every subscriber. It is the only
// channel through which one store can affect another.
type Broadcaster struct {
	subscribers map[string]subscription
	mu          sync.RWMutex
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[string]subscription),
	}
}

// Subscribe registers handler for the given signal types (all types when none
// are given) and returns the function that removes it.
func (b *Broadcaster) Subscribe(handler Handler, types ...SignalType) (unsubscribe func()) {
	sub := subscription{handler: handler}
	if len(types) > 0 {
		sub.types = make(map[SignalType]struct{}, len(types))
		for _, t := range types {
			sub.types[t] = struct{}{}
		}
	}

	id := uuid.New().String()
	b.mu.Lock()
	b.subscribers[id] = sub
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers sig synchronously to every interested subscriber.
// Handlers run outside the lock and may unsubscribe themselves.
func (b *Broadcaster) Publish(sig Signal) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		if sub.wants(sig.Type) {
			handlers = append(handlers, sub.handler)
		}
	}
	b.mu.RUnlock()

	log.Debug().Str("signal", string(sig.Type)).Int("subscribers", len(handlers)).Msg("session signal")
	for _, h := range handlers {
		h(sig)
	}
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
