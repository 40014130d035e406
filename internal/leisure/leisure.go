// Package leisure defers low-priority work until no tracked work is in
// flight and the run loop has gone idle.
//
// Callers bracket units of work with BeginWork and EndWork. Closures queued
// with RunAtLeisure run, together with a garbage collection pass, the first
// time the loop is idle after the work counter reaches zero.
package leisure

import (
	"errors"

	"github.com/Gaurav-Gosain/shellglobal/internal/logging"
	"github.com/Gaurav-Gosain/shellglobal/internal/loop"
	"github.com/google/uuid"
)

var logger = logging.New("leisure")

// ErrPreconditionViolation is returned by EndWork without a matching
// BeginWork.
var ErrPreconditionViolation = errors.New("leisure: end work without matching begin work")

// Idler schedules one-shot callbacks for when the run loop is idle.
type Idler interface {
	AddIdle(fn func()) loop.SourceID
	RemoveIdle(id loop.SourceID) bool
}

// Collector performs a garbage collection pass of the scripting runtime.
type Collector interface {
	CollectGarbage()
}

// Handle identifies a queued closure.
type Handle uuid.UUID

func (h Handle) String() string {
	return uuid.UUID(h).String()
}

type closure struct {
	handle    Handle
	fn        func()
	cleanup   func()
	cancelled bool
}

// Scheduler owns the work counter and the leisure queue. It is not safe for
// concurrent use; all calls happen on the run loop goroutine.
type Scheduler struct {
	idler Idler
	gc    Collector

	work    uint
	queue   []*closure
	byID    map[Handle]*closure
	pending bool
	idleID  loop.SourceID
	batches int
}

// New creates a Scheduler. gc may be nil.
func New(idler Idler, gc Collector) *Scheduler {
	return &Scheduler{
		idler: idler,
		gc:    gc,
		byID:  make(map[Handle]*closure),
	}
}

// BeginWork marks the start of a unit of work.
func (s *Scheduler) BeginWork() {
	if s.work == ^uint(0) {
		panic("leisure: work counter overflow")
	}
	s.work++
}

// EndWork marks the end of a unit of work started with BeginWork. When the
// counter reaches zero a leisure run is scheduled.
func (s *Scheduler) EndWork() error {
	if s.work == 0 {
		logger.Error("unbalanced end work")
		return ErrPreconditionViolation
	}
	s.work--
	if s.work == 0 {
		s.schedule()
	}
	return nil
}

// RunAtLeisure queues fn to run at the next leisure point. cleanup, if not
// nil, runs right after fn, or when the closure is cancelled.
func (s *Scheduler) RunAtLeisure(fn func(), cleanup func()) Handle {
	c := &closure{
		handle:  Handle(uuid.New()),
		fn:      fn,
		cleanup: cleanup,
	}
	s.queue = append(s.queue, c)
	s.byID[c.handle] = c

	if s.work == 0 {
		s.schedule()
	}
	return c.handle
}

// Cancel drops a closure that has not run yet and runs its cleanup. It
// reports whether the closure was found.
func (s *Scheduler) Cancel(h Handle) bool {
	c, ok := s.byID[h]
	if !ok {
		return false
	}
	delete(s.byID, h)
	c.cancelled = true
	if c.cleanup != nil {
		c.cleanup()
	}
	return true
}

// WorkCount returns the number of units of work in flight.
func (s *Scheduler) WorkCount() uint {
	return s.work
}

// Queued returns the number of closures waiting for the next batch.
func (s *Scheduler) Queued() int {
	n := 0
	for _, c := range s.queue {
		if !c.cancelled {
			n++
		}
	}
	return n
}

// Pending reports whether an idle run is scheduled.
func (s *Scheduler) Pending() bool {
	return s.pending
}

// Batches returns how many leisure batches have run.
func (s *Scheduler) Batches() int {
	return s.batches
}

// Close unschedules the pending idle run and drops every queued closure,
// running their cleanups.
func (s *Scheduler) Close() {
	if s.pending {
		s.idler.RemoveIdle(s.idleID)
		s.pending = false
	}
	queue := s.queue
	s.queue = nil
	for _, c := range queue {
		if !c.cancelled {
			s.Cancel(c.handle)
		}
	}
}

func (s *Scheduler) schedule() {
	if s.pending {
		return
	}
	s.pending = true
	s.idleID = s.idler.AddIdle(s.runBatch)
}

func (s *Scheduler) runBatch() {
	s.pending = false

	// More work began after the run was scheduled; the EndWork that brings
	// the counter back to zero schedules again.
	if s.work > 0 {
		return
	}

	if s.gc != nil {
		s.gc.CollectGarbage()
	}

	batch := s.queue
	s.queue = nil
	s.batches++

	logger.Debug("leisure batch", "closures", len(batch), "batch", s.batches)

	for _, c := range batch {
		if c.cancelled {
			continue
		}
		delete(s.byID, c.handle)
		c.fn()
		if c.cleanup != nil {
			c.cleanup()
		}
	}
}
