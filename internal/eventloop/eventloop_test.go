package eventloop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T, queueSize int) (*Loop, context.CancelFunc) {
	t.Helper()

	loop := New(queueSize)
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx) //nolint:errcheck

	t.Cleanup(func() {
		cancel()
		<-loop.Stopped()
	})
	return loop, cancel
}

func TestDo_RunsInOrder(t *testing.T) {
	loop, _ := startLoop(t, 0)

	var order []int
	for i := 0; i < 10; i++ {
		i := i
		require.NoError(t, loop.Do(context.Background(), func() {
			order = append(order, i)
		}))
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

func TestDo_SerializesConcurrentCallers(t *testing.T) {
	loop, _ := startLoop(t, 4)

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, loop.Do(context.Background(), func() {
				counter++
			}))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestDo_AfterStop(t *testing.T) {
	loop, cancel := startLoop(t, 0)
	cancel()
	<-loop.Stopped()

	err := loop.Do(context.Background(), func() {})
	assert.ErrorIs(t, err, ErrStopped)
	assert.ErrorIs(t, loop.Post(func() {}), ErrStopped)
}

func TestDo_ContextCancelled(t *testing.T) {
	loop, _ := startLoop(t, 0)

	release := make(chan struct{})
	require.NoError(t, loop.Post(func() { <-release }))
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := loop.Do(ctx, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPost_QueueFull(t *testing.T) {
	// Not running, so nothing drains the queue.
	loop := New(1)

	require.NoError(t, loop.Post(func() {}))
	assert.ErrorIs(t, loop.Post(func() {}), ErrQueueFull)
}

func TestPanicDoesNotStopLoop(t *testing.T) {
	loop, _ := startLoop(t, 0)

	require.NoError(t, loop.Do(context.Background(), func() { panic("boom") }))

	ran := false
	require.NoError(t, loop.Do(context.Background(), func() { ran = true }))
	assert.True(t, ran)
}

func TestDo_ExpiredTaskIsNotRun(t *testing.T) {
	loop := New(4)

	ran := false
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := loop.Do(ctx, func() { ran = true })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	runCtx, stop := context.WithCancel(context.Background())
	go loop.Run(runCtx) //nolint:errcheck
	defer func() {
		stop()
		<-loop.Stopped()
	}()

	require.NoError(t, loop.Do(context.Background(), func() {}))
	assert.False(t, ran, "a task whose caller gave up must not run")
}

func TestDo_WaitsForStartedTask(t *testing.T) {
	loop, _ := startLoop(t, 0)

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	finished := false

	go func() {
		<-started
		cancel()
	}()

	err := loop.Do(ctx, func() {
		close(started)
		time.Sleep(20 * time.Millisecond)
		finished = true
	})
	assert.NoError(t, err, "a started task is reported as done")
	assert.True(t, finished)
}
