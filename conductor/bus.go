package conductor

import (
	"fmt"
	"strings"
	"sync"

	"github.com/r3e-labs/musicalconductor/pkg/logger"
)

// Event is one published bus message.
type Event struct {
	Topic   string
	Payload any
}

// Listener handles a published Event. Returning an error (or panicking) is
// the equivalent of the JS "a listener throws" case: the bus recovers it,
// logs it, and republishes it on TopicListenerError. It is never
// re-raised on the original topic and never stops the remaining
// listeners in the dispatch order from running.
type Listener func(Event) error

// Unsubscribe removes the subscription it was returned for.
type Unsubscribe func()

type subscription struct {
	id       uint64
	pattern  string
	listener Listener
}

// EventBus is a synchronous, subscription-ordered publish/subscribe bus.
// It is adapted from the ambient stack's Bus type: subscriptions behind a
// mutex (here one ordered slice rather than a per-topic map, so wildcard
// patterns keep their place in subscription order), but dispatch here runs listeners
// one at a time in subscription order on the publisher's own goroutine,
// rather than fanning out across per-listener goroutines, so that
// movement/beat ordering guarantees hold without extra synchronization at
// call sites.
type EventBus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
	log    *logger.Logger
}

// NewEventBus creates an EventBus. A nil logger falls back to a no-op one.
func NewEventBus(log *logger.Logger) *EventBus {
	if log == nil {
		log = logger.Noop()
	}
	return &EventBus{log: log}
}

// Subscribe registers a listener against a topic pattern. A pattern
// ending in "*" matches any topic sharing its literal prefix; any other
// pattern matches only that exact topic. The returned Unsubscribe removes
// the listener; calling it more than once is a no-op.
func (b *EventBus) Subscribe(pattern string, listener Listener) Unsubscribe {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, pattern: pattern, listener: listener})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i], b.subs[i+1:]...)
					break
				}
			}
		})
	}
}

// Emit publishes payload on topic, invoking every matching listener in
// subscription order. Emit never returns an error: per-listener failures
// are isolated and surfaced on TopicListenerError instead.
func (b *EventBus) Emit(topic string, payload any) {
	b.dispatch(topic, payload, topic != TopicListenerError)
}

func (b *EventBus) dispatch(topic string, payload any, reportErrors bool) {
	b.mu.RLock()
	snapshot := make([]subscription, len(b.subs))
	copy(snapshot, b.subs)
	b.mu.RUnlock()

	event := Event{Topic: topic, Payload: payload}
	for _, s := range snapshot {
		if !topicMatches(s.pattern, topic) {
			continue
		}
		if err := b.invoke(s.listener, event); err != nil && reportErrors {
			b.log.WithFields(map[string]any{"topic": topic, "error": err}).Warn("bus listener error")
			b.dispatch(TopicListenerError, ListenerErrorEvent{Topic: topic, Err: err}, false)
		}
	}
}

func (b *EventBus) invoke(listener Listener, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	return listener(event)
}

func topicMatches(pattern, topic string) bool {
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(topic, strings.TrimSuffix(pattern, "*"))
	}
	return pattern == topic
}
