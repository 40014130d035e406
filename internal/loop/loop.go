// Package loop is the cooperative run loop every component of the shell
// runs on.
//
// Tasks submitted from any goroutine run on the loop goroutine in
// submission order. Idle sources run one at a time, only when no task is
// pending, and are removed after they run.
package loop

import (
	"context"
	"errors"
	"sync"
)

// ErrAlreadyRunning is returned by Run when the loop is already running.
var ErrAlreadyRunning = errors.New("loop: already running")

// SourceID identifies an idle source. Zero is never a valid id.
type SourceID uint64

type idleSource struct {
	id SourceID
	fn func()
}

// Loop is a single goroutine task and idle dispatcher.
type Loop struct {
	mu      sync.Mutex
	tasks   []func()
	spare   []func()
	idles   []idleSource
	nextID  SourceID
	running bool

	wake chan struct{}
}

// New creates a loop.
func New() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Submit queues fn to run on the loop goroutine. Safe for concurrent use.
func (l *Loop) Submit(fn func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	l.signal()
}

// AddIdle registers fn to run once the loop has nothing else to do.
func (l *Loop) AddIdle(fn func()) SourceID {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.idles = append(l.idles, idleSource{id: id, fn: fn})
	l.mu.Unlock()
	l.signal()
	return id
}

// RemoveIdle unregisters an idle source that has not run yet.
func (l *Loop) RemoveIdle(id SourceID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, s := range l.idles {
		if s.id == id {
			l.idles = append(l.idles[:i], l.idles[i+1:]...)
			return true
		}
	}
	return false
}

// Run dispatches until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrAlreadyRunning
	}
	l.running = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}
		if l.Iterate() {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-l.wake:
		}
	}
}

// Iterate runs every pending task, or the oldest idle source when no task
// is pending. It reports whether anything ran.
func (l *Loop) Iterate() bool {
	l.mu.Lock()
	if len(l.tasks) > 0 {
		// Swap buffers so tasks submitted while draining wait for the next
		// iteration.
		tasks := l.tasks
		l.tasks = l.spare[:0]
		l.mu.Unlock()

		for i, fn := range tasks {
			fn()
			tasks[i] = nil
		}

		l.mu.Lock()
		l.spare = tasks[:0]
		l.mu.Unlock()
		return true
	}

	if len(l.idles) > 0 {
		s := l.idles[0]
		l.idles = l.idles[1:]
		l.mu.Unlock()
		s.fn()
		return true
	}

	l.mu.Unlock()
	return false
}

// RunPending iterates until neither tasks nor idle sources remain. Meant
// for tests and shutdown.
func (l *Loop) RunPending() {
	for l.Iterate() {
	}
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
