// Package eventloop runs submitted tasks one at a time on a single
// goroutine. switchd routes every switch operation through a Loop so that
// switches never see concurrent calls.
package eventloop

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// DefaultQueueSize is the number of tasks that can wait before Post fails.
const DefaultQueueSize = 64

// Loop is a serial task executor. Run must be called exactly once.
type Loop struct {
	tasks   chan func()
	stopped chan struct{}
}

// New creates a Loop whose queue holds queueSize pending tasks.
func New(queueSize int) *Loop {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Loop{
		tasks:   make(chan func(), queueSize),
		stopped: make(chan struct{}),
	}
}

// Run executes tasks until ctx is done. Tasks still queued when ctx is
// cancelled are dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)

	log.Debug().Msg("starting event loop")
	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("shutting down event loop")
			return ctx.Err()
		case task := <-l.tasks:
			l.runTask(task)
		}
	}
}

func (l *Loop) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("panic", fmt.Sprint(r)).Msg("event loop task panicked")
		}
	}()
	task()
}

// Post queues fn without waiting for it to run.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.stopped:
		return ErrStopped
	default:
	}

	select {
	case l.tasks <- fn:
		return nil
	default:
		return ErrQueueFull
	}
}

const (
	taskPending int32 = iota
	taskRunning
	taskAbandoned
)

// Do queues fn and waits until it has run. If ctx is done before fn starts,
// Do returns ctx.Err() and fn is never run; once fn has started Do waits for
// it to finish. It must not be called from a task running on the loop, which
// would deadlock.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	var state atomic.Int32
	done := make(chan struct{})
	task := func() {
		defer close(done)
		if ctx.Err() != nil || !state.CompareAndSwap(taskPending, taskRunning) {
			return
		}
		fn()
	}

	select {
	case l.tasks <- task:
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-l.stopped:
		select {
		case <-done:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		if state.CompareAndSwap(taskPending, taskAbandoned) {
			return ctx.Err()
		}
		<-done
		return nil
	}
}

// Stopped is closed once Run has returned.
func (l *Loop) Stopped() <-chan struct{} {
	return l.stopped
}
