// Package loop provides the editor's single-threaded cooperative task loop.
//
// All workspace and plugin state is mutated from tasks running on the loop,
// so no locking is needed around it. Post queues work from any goroutine;
// Defer queues a continuation that runs once the current task and everything
// it already queued have finished, which is how a plugin waits for the host
// to finish building a view before touching it.
package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/keystorm-sourceview/internal/logging"
)

// ErrClosed is returned when posting to a closed loop.
var ErrClosed = errors.New("loop is closed")

// Task is a unit of work run on the loop.
type Task func()

// Loop runs tasks one at a time in FIFO order.
type Loop struct {
	mu      sync.Mutex
	queue   []Task
	wake    chan struct{}
	closed  bool
	running bool
	logger  *logging.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used to report panicking tasks.
func WithLogger(l *logging.Logger) Option {
	return func(lp *Loop) {
		lp.logger = l
	}
}

// New creates an idle loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		wake:   make(chan struct{}, 1),
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post enqueues a task. It is safe to call from any goroutine.
func (l *Loop) Post(task Task) error {
	if task == nil {
		return nil
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.queue = append(l.queue, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Defer schedules task to run after the current task settles. Tasks queued
// before the Defer call, including the host's own pending view setup, run
// first. Errors from a closed loop are dropped.
func (l *Loop) Defer(task func()) {
	_ = l.Post(task)
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Drain runs queued tasks on the calling goroutine until the queue is empty,
// including tasks queued by the tasks it runs. It returns the number of tasks
// run. Drain must not be called concurrently with Run.
func (l *Loop) Drain() int {
	n := 0
	for {
		task, ok := l.next()
		if !ok {
			return n
		}
		l.runTask(task)
		n++
	}
}

// Run processes tasks until ctx is cancelled or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return errors.New("loop is already running")
	}
	l.running = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
	}()

	for {
		l.Drain()

		l.mu.Lock()
		closed := l.closed
		l.mu.Unlock()
		if closed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Close stops accepting tasks. Tasks already queued still run on the next
// Drain or Run iteration.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) next() (Task, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) == 0 {
		return nil, false
	}
	task := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return task, true
}

func (l *Loop) runTask(task Task) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("task panicked: %v", fmt.Sprint(r))
		}
	}()
	task()
}
