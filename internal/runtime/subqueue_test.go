package runtime

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubQueue_StartsInPausedState(t *testing.T) {
	sq := NewSubQueue[int](10)
	defer sq.Close()

	// Enqueue something while paused
	sq.Enqueue(42)

	// Channel should not receive anything immediately because queue is paused
	select {
	case <-sq.Chan():
		t.Fatal("should not receive value while paused")
	case <-time.After(50 * time.Millisecond):
		// Expected: no value received
	}
}

func TestSubQueue_ResumeDeliversQueued(t *testing.T) {
	sq := NewSubQueue[int](10)
	defer sq.Close()

	// Enqueue while paused
	sq.Enqueue(1)
	sq.Enqueue(2)
	sq.Enqueue(3)

	// Resume the queue
	sq.SetPaused(false)

	// Should receive all values in order
	assert.Equal(t, 1, <-sq.Chan())
	assert.Equal(t, 2, <-sq.Chan())
	assert.Equal(t, 3, <-sq.Chan())
}

func TestSubQueue_EnqueueDequeueOrder(t *testing.T) {
	sq := NewSubQueue[int](10)
	defer sq.Close()

	sq.SetPaused(false)

	// Enqueue items
	for i := 0; i < 5; i++ {
		sq.Enqueue(i)
	}

	// Dequeue and verify order
	for i := 0; i < 5; i++ {
		select {
		case val := <-sq.Chan():
			assert.Equal(t, i, val)
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for value %d", i)
		}
	}
}

func TestSubQueue_CloseStopsDispatcher(t *testing.T) {
	sq := NewSubQueue[int](10)
	sq.SetPaused(false)

	sq.Enqueue(1)
	<-sq.Chan() // Drain

	sq.Close()

	// Channel should be closed
	select {
	case _, ok := <-sq.Chan():
		assert.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}
}

func TestSubQueue_EnqueueAfterClose(t *testing.T) {
	sq := NewSubQueue[int](10)
	sq.SetPaused(false)
	sq.Close()

	// Enqueue after close should not panic
	require.NotPanics(t, func() {
		sq.Enqueue(42)
	})
}

func TestSubQueue_PauseAndResume(t *testing.T) {
	sq := NewSubQueue[int](10)
	defer sq.Close()

	sq.SetPaused(false)

	// Enqueue and receive
	sq.Enqueue(1)
	assert.Equal(t, 1, <-sq.Chan())

	// Pause
	sq.SetPaused(true)

	// Enqueue while paused
	sq.Enqueue(2)

	// Should not receive while paused
	select {
	case <-sq.Chan():
		t.Fatal("should not receive while paused")
	case <-time.After(50 * time.Millisecond):
		// Expected
	}

	// Resume
	sq.SetPaused(false)

	// Should receive the queued value
	select {
	case val := <-sq.Chan():
		assert.Equal(t, 2, val)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for value after resume")
	}
}

func TestSubQueue_ConcurrentEnqueue(t *testing.T) {
	sq := NewSubQueue[int](100)
	defer sq.Close()

	sq.SetPaused(false)

	numGoroutines := 10
	itemsPerGoroutine := 10

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	// Spawn goroutines to enqueue concurrently
	for g := 0; g < numGoroutines; g++ {
		go func(goroutineID int) {
			defer wg.Done()
			for i := 0; i < itemsPerGoroutine; i++ {
				sq.Enqueue(goroutineID*100 + i)
			}
		}(g)
	}

	// Collect all values
	received := make([]int, 0, numGoroutines*itemsPerGoroutine)
	done := make(chan bool)

	go func() {
		for i := 0; i < numGoroutines*itemsPerGoroutine; i++ {
			select {
			case val := <-sq.Chan():
				received = append(received, val)
			case <-time.After(5 * time.Second):
				break
			}
		}
		done <- true
	}()

	wg.Wait() // Wait for all enqueues to complete
	<-done    // Wait for all receives to complete

	assert.Len(t, received, numGoroutines*itemsPerGoroutine)
}

func TestSubQueue_BufferSize(t *testing.T) {
	// Test with different buffer sizes
	for _, bufSize := range []int{1, 5, 100} {
		t.Run(fmt.Sprintf("buffer_%d", bufSize), func(t *testing.T) {
			sq := NewSubQueue[int](bufSize)
			defer sq.Close()

			sq.SetPaused(false)

			// Enqueue more than buffer size
			for i := 0; i < bufSize*2; i++ {
				sq.Enqueue(i)
			}

			// Drain all
			for i := 0; i < bufSize*2; i++ {
				select {
				case val := <-sq.Chan():
					assert.Equal(t, i, val)
				case <-time.After(time.Second):
					t.Fatalf("timeout at index %d", i)
				}
			}
		})
	}
}

func TestSubQueue_CloseWhilePaused(t *testing.T) {
	sq := NewSubQueue[int](10)
	// Queue starts paused

	sq.Enqueue(1)
	sq.Enqueue(2)

	// Close while paused
	sq.Close()

	// Channel should be closed
	select {
	case _, ok := <-sq.Chan():
		assert.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}
}

func TestSubQueue_MultipleCloses(t *testing.T) {
	sq := NewSubQueue[int](10)
	sq.SetPaused(false)

	sq.Close()

	// Second close should not panic
	require.NotPanics(t, func() {
		sq.Close()
	})
}

func TestSubQueue_CloseDropsQueued(t *testing.T) {
	sq := NewSubQueue[int](10)

	sq.Enqueue(1)
	sq.Enqueue(2)
	assert.Equal(t, 2, sq.Len())

	sq.Close()
	sq.SetPaused(false)

	assert.Equal(t, 0, sq.Len())

	_, ok := <-sq.Chan()
	assert.False(t, ok, "queued values must not be delivered after close")
}

func TestSubQueue_CloseUnblocksPendingSend(t *testing.T) {
	sq := NewSubQueue[int](0)
	sq.SetPaused(false)

	// Nobody reads, so the dispatcher parks on the unbuffered send.
	sq.Enqueue(1)
	time.Sleep(20 * time.Millisecond)

	sq.Close()

	select {
	case <-sq.done:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for done")
	}
}

func TestSubQueueFunc_DeliversInOrder(t *testing.T) {
	var mu sync.Mutex
	var got []int
	done := make(chan struct{})

	sq := NewSubQueueFunc(func(v int) {
		mu.Lock()
		got = append(got, v)
		n := len(got)
		mu.Unlock()
		if n == 5 {
			close(done)
		}
	})
	defer sq.Close()

	assert.Nil(t, sq.Chan())

	for i := 0; i < 5; i++ {
		sq.Enqueue(i)
	}
	sq.SetPaused(false)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for deliveries")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestSubQueueFunc_NoDeliveryAfterClose(t *testing.T) {
	delivered := make(chan int, 10)
	sq := NewSubQueueFunc(func(v int) { delivered <- v })
	sq.SetPaused(false)

	sq.Enqueue(1)
	assert.Equal(t, 1, <-delivered)

	sq.Close()
	sq.Enqueue(2)

	select {
	case v := <-delivered:
		t.Fatalf("unexpected delivery after close: %d", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSerialQueue_RunsOffCallerInOrder(t *testing.T) {
	q := NewSerialQueue()
	defer q.Close()

	var got []int
	done := make(chan struct{})
	for i := 0; i < 3; i++ {
		i := i
		q.Execute(func() { got = append(got, i) })
	}
	q.Execute(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for serial queue")
	}
	assert.Equal(t, []int{0, 1, 2}, got)
}

func TestSerialQueue_ExecuteAfterClose(t *testing.T) {
	q := NewSerialQueue()
	q.Close()

	ran := make(chan struct{}, 1)
	require.NotPanics(t, func() {
		q.Execute(func() { ran <- struct{}{} })
	})

	select {
	case <-ran:
		t.Fatal("function ran after close")
	case <-time.After(50 * time.Millisecond):
	}
}
