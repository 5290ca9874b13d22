package eventbus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEvent struct {
	key string
	seq int
}

func (e testEvent) Type() string { return "test.event" }
func (e testEvent) Key() string  { return e.key }

type fakeDeadLetter struct {
	mu   sync.Mutex
	recs []Event
}

func (f *fakeDeadLetter) Record(_ context.Context, _ string, event Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs = append(f.recs, event)
	return nil
}

func (f *fakeDeadLetter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.recs)
}

func TestAsyncBus_DeliversRegisteredHandler(t *testing.T) {
	dl := &fakeDeadLetter{}
	bus := NewAsyncBus(16, 2, 50*time.Millisecond, dl, testLogger())

	received := make(chan Event, 1)
	bus.Register("test.event", func(_ context.Context, event Event) error {
		received <- event
		return nil
	})

	require.NoError(t, bus.Emit(context.Background(), testEvent{key: "player-1", seq: 1}))

	select {
	case evt := <-received:
		require.Equal(t, "test.event", evt.Type())
	case <-time.After(time.Second):
		t.Fatal("handler was never invoked")
	}
}

func TestAsyncBus_PreservesOrderPerKey(t *testing.T) {
	dl := &fakeDeadLetter{}
	bus := NewAsyncBus(256, 4, 50*time.Millisecond, dl, testLogger())

	var mu sync.Mutex
	var seen []int
	done := make(chan struct{})
	const n = 50

	bus.Register("test.event", func(_ context.Context, event Event) error {
		e := event.(testEvent)
		mu.Lock()
		seen = append(seen, e.seq)
		if len(seen) == n {
			close(done)
		}
		mu.Unlock()
		return nil
	})

	for i := 0; i < n; i++ {
		require.NoError(t, bus.Emit(context.Background(), testEvent{key: "same-player", seq: i}))
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("not all events delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, s := range seen {
		require.Equal(t, i, s, "events for the same key must be delivered in emission order")
	}
}

func TestAsyncBus_OneBadHandlerDoesNotStopOthers(t *testing.T) {
	dl := &fakeDeadLetter{}
	bus := NewAsyncBus(16, 1, 50*time.Millisecond, dl, testLogger())

	secondCalled := make(chan struct{})
	bus.Register("test.event", func(_ context.Context, _ Event) error {
		panic("boom")
	})
	bus.Register("test.event", func(_ context.Context, _ Event) error {
		close(secondCalled)
		return nil
	})

	require.NoError(t, bus.Emit(context.Background(), testEvent{key: "p1"}))

	select {
	case <-secondCalled:
	case <-time.After(time.Second):
		t.Fatal("second handler was never invoked after the first panicked")
	}
}

func TestAsyncBus_FailingHandlerIsLoggedNotFatal(t *testing.T) {
	dl := &fakeDeadLetter{}
	bus := NewAsyncBus(16, 1, 50*time.Millisecond, dl, testLogger())

	called := make(chan struct{})
	bus.Register("test.event", func(_ context.Context, _ Event) error {
		defer close(called)
		return errors.New("handler failure")
	})

	require.NoError(t, bus.Emit(context.Background(), testEvent{key: "p1"}))
	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("handler was never invoked")
	}
}

func TestAsyncBus_OverflowRoutesToDeadLetter(t *testing.T) {
	dl := &fakeDeadLetter{}
	// A tiny admission queue, a single permanently-blocked worker, and a
	// short backpressure wait: once every buffer between admission and
	// the stuck worker fills up, further Emit calls must overflow to the
	// dead letter sink rather than block the caller indefinitely.
	bus := NewAsyncBus(1, 1, 5*time.Millisecond, dl, testLogger())

	block := make(chan struct{})
	defer close(block)
	bus.Register("test.event", func(_ context.Context, _ Event) error {
		<-block
		return nil
	})

	for i := 0; i < 20; i++ {
		require.NoError(t, bus.Emit(context.Background(), testEvent{key: "p1", seq: i}))
	}

	require.Greater(t, dl.count(), 0, "overflow past every buffer must land in the dead letter sink")
}

func TestAsyncBus_EmitNeverFailsTheCaller(t *testing.T) {
	dl := &fakeDeadLetter{}
	bus := NewAsyncBus(0, 1, time.Millisecond, dl, testLogger())
	require.NoError(t, bus.Emit(context.Background(), testEvent{key: "p1"}))
}
