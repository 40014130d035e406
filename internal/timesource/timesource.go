// Package timesource resolves the server timestamp used to stamp focus
// requests and outgoing protocol actions.
package timesource

// None is returned when no timestamp is available. It equals the X11
// CurrentTime value.
const None uint32 = 0

// DisplayClock reports the timestamp of the event the display is currently
// dispatching, or None outside of event dispatch.
type DisplayClock interface {
	CurrentTime() uint32
}

// EventQueue reports the timestamp of the most recent event seen by the
// toolkit, if any.
type EventQueue interface {
	LastEventTime() (uint32, bool)
}

// Source resolves the current time. The override slot wins over both
// clocks; it is only set while a drag-and-drop position reply is being
// dispatched.
type Source struct {
	override uint32
	display  DisplayClock
	events   EventQueue
}

// New creates a Source. Either clock may be nil.
func New(display DisplayClock, events EventQueue) *Source {
	return &Source{display: display, events: events}
}

// Now returns the override if set, then the display's current event time,
// then the last queued event time, and finally None.
func (s *Source) Now() uint32 {
	if s.override != None {
		return s.override
	}
	if s.display != nil {
		if t := s.display.CurrentTime(); t != None {
			return t
		}
	}
	if s.events != nil {
		if t, ok := s.events.LastEventTime(); ok {
			return t
		}
	}
	return None
}

// Override returns the active override, or None.
func (s *Source) Override() uint32 {
	return s.override
}

// WithOverride runs fn with the override slot set to ts. The slot is reset
// to None when fn returns or panics.
func (s *Source) WithOverride(ts uint32, fn func()) {
	s.override = ts
	defer func() { s.override = None }()
	fn()
}
