package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pumpfun-radar/internal/domain"
)

func TestPublishFanOut(t *testing.T) {
	b := New()
	defer b.Close()

	ch1, unsub1 := b.Subscribe(4)
	ch2, unsub2 := b.Subscribe(4)
	defer unsub1()
	defer unsub2()

	rec := &domain.TokenRecord{Address: "mint1"}
	b.Publish(Event{Type: EventTokenPassed, Record: rec})

	ev1 := <-ch1
	ev2 := <-ch2
	assert.Equal(t, EventTokenPassed, ev1.Type)
	assert.Equal(t, "mint1", ev1.Record.Address)
	assert.Equal(t, ev1, ev2)
}

func TestSlowSubscriberDropsNotBlocks(t *testing.T) {
	b := New()
	defer b.Close()

	ch, unsub := b.Subscribe(2)
	defer unsub()

	// Fill the buffer and keep publishing; Publish must never block.
	for i := 0; i < 10; i++ {
		b.Publish(Event{Type: EventTokenAnalyzed, Count: i})
	}

	// Only the first two events survive.
	ev := <-ch
	require.Equal(t, 0, ev.Count)
	ev = <-ch
	require.Equal(t, 1, ev.Count)

	select {
	case ev, ok := <-ch:
		if ok {
			t.Fatalf("unexpected buffered event: %+v", ev)
		}
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	defer b.Close()

	ch, unsub := b.Subscribe(1)
	unsub()
	unsub() // idempotent

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after unsubscribe")
	assert.Equal(t, 0, b.SubscriberCount())

	// Publishing after unsubscribe must not panic.
	b.Publish(Event{Type: EventStopped})
}

func TestCloseTerminatesSubscribers(t *testing.T) {
	b := New()
	ch, _ := b.Subscribe(1)
	b.Close()

	_, ok := <-ch
	assert.False(t, ok)

	// Subscribe after close yields a closed channel.
	ch2, _ := b.Subscribe(1)
	_, ok = <-ch2
	assert.False(t, ok)
}

func TestOrderPreservedPerSubscriber(t *testing.T) {
	b := New()
	defer b.Close()

	ch, unsub := b.Subscribe(16)
	defer unsub()

	for i := 0; i < 10; i++ {
		b.Publish(Event{Type: EventTokenAnalyzed, Count: i})
	}
	for i := 0; i < 10; i++ {
		ev := <-ch
		require.Equal(t, i, ev.Count)
	}
}
