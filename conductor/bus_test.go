package conductor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_DispatchesInSubscriptionOrder(t *testing.T) {
	bus := NewEventBus(nil)
	var order []string

	bus.Subscribe("topic.a", func(e Event) error {
		order = append(order, "first")
		return nil
	})
	bus.Subscribe("topic.a", func(e Event) error {
		order = append(order, "second")
		return nil
	})

	bus.Emit("topic.a", nil)

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestEventBus_WildcardSuffixMatches(t *testing.T) {
	bus := NewEventBus(nil)
	var got []string

	bus.Subscribe("sequence:*", func(e Event) error {
		got = append(got, e.Topic)
		return nil
	})

	bus.Emit(TopicSequenceQueued, nil)
	bus.Emit(TopicSequenceCompleted, nil)
	bus.Emit(TopicBeatStarted, nil)

	assert.Equal(t, []string{TopicSequenceQueued, TopicSequenceCompleted}, got)
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus(nil)
	calls := 0

	unsub := bus.Subscribe("topic.a", func(e Event) error {
		calls++
		return nil
	})
	bus.Emit("topic.a", nil)
	unsub()
	bus.Emit("topic.a", nil)
	unsub() // idempotent

	assert.Equal(t, 1, calls)
}

func TestEventBus_ListenerErrorIsIsolatedAndReported(t *testing.T) {
	bus := NewEventBus(nil)

	var secondRan bool
	var reportedErr error

	bus.Subscribe("topic.a", func(e Event) error {
		return errors.New("boom")
	})
	bus.Subscribe("topic.a", func(e Event) error {
		secondRan = true
		return nil
	})
	bus.Subscribe(TopicListenerError, func(e Event) error {
		reportedErr = e.Payload.(ListenerErrorEvent).Err
		return nil
	})

	bus.Emit("topic.a", nil)

	assert.True(t, secondRan, "a listener error must not stop subsequent listeners")
	require.Error(t, reportedErr)
	assert.Contains(t, reportedErr.Error(), "boom")
}

func TestEventBus_ListenerPanicIsRecovered(t *testing.T) {
	bus := NewEventBus(nil)
	var reported bool

	bus.Subscribe("topic.a", func(e Event) error {
		panic("kaboom")
	})
	bus.Subscribe(TopicListenerError, func(e Event) error {
		reported = true
		return nil
	})

	assert.NotPanics(t, func() {
		bus.Emit("topic.a", nil)
	})
	assert.True(t, reported)
}
