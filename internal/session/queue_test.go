package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueue_FIFO(t *testing.T) {
	q := newEventQueue()
	for _, id := range []string{"a", "b", "c"} {
		require.True(t, q.Enqueue(Event{Type: EventActivate, Display: id}))
	}

	for _, want := range []string{"a", "b", "c"} {
		e, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, e.Display)
	}
	_, ok := q.TryDequeue()
	assert.False(t, ok, "queue should be empty")
}

func TestEventQueue_SignalCoalesces(t *testing.T) {
	q := newEventQueue()
	q.Enqueue(Event{Type: EventSnapshot})
	q.Enqueue(Event{Type: EventSnapshot})

	select {
	case <-q.Wait():
	default:
		t.Fatal("expected a pending signal")
	}
	select {
	case <-q.Wait():
		t.Fatal("signals should coalesce into one")
	default:
	}
	assert.Equal(t, 2, q.Len())
}

func TestEventQueue_CloseReturnsPending(t *testing.T) {
	q := newEventQueue()
	q.Enqueue(Event{Type: EventActivate, Display: "x"})

	pending := q.Close()
	require.Len(t, pending, 1)
	assert.Equal(t, "x", pending[0].Display)
	assert.Equal(t, 0, q.Len())

	assert.False(t, q.Enqueue(Event{Type: EventActivate}), "enqueue after close should fail")
	assert.Nil(t, q.Close(), "second close is a no-op")

	select {
	case _, open := <-q.Wait():
		assert.False(t, open)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("close did not wake waiters")
	}
}

func TestEventQueue_ThreadSafe(t *testing.T) {
	q := newEventQueue()

	const producers = 10
	const perProducer = 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue(Event{Type: EventSnapshot})
			}
		}()
	}

	received := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for received < producers*perProducer {
			if _, ok := q.TryDequeue(); ok {
				received++
				continue
			}
			<-q.Wait()
		}
	}()

	wg.Wait()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("consumer timeout: received %d events", received)
	}
	assert.Equal(t, producers*perProducer, received)
}
