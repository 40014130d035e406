package x11

import (
	"context"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// Handlers receive the events the shell cares about, on the run loop.
type Handlers struct {
	ClientMessage      func(ev xproto.ClientMessageEvent)
	GrabChanged        func(active bool)
	FocusWindowChanged func()
}

// Pump reads events on its own goroutine and hands each one to submit,
// which must run it on the run loop. Pump returns when the connection
// closes or ctx is done.
func (c *Conn) Pump(ctx context.Context, submit func(func()), h Handlers) {
	go func() {
		for {
			ev, xerr := c.conn.WaitForEvent()
			if ev == nil && xerr == nil {
				logger.Debug("event stream closed")
				return
			}
			if ctx.Err() != nil {
				return
			}
			if xerr != nil {
				submit(func() { logger.Warn("x error", "err", xerr) })
				continue
			}
			submit(func() { c.Dispatch(ev, h) })
		}
	}()
}

// Dispatch handles one event. The event's timestamp is the display's
// current time while handlers run. Outside dispatch no event time is
// reported, so work run later stamps its requests with CurrentTime rather
// than a stale timestamp the server would reject.
func (c *Conn) Dispatch(ev xgb.Event, h Handlers) {
	if t, ok := eventTime(ev); ok {
		c.dispatching = t
		c.lastTime = t
		c.hasLast = true
		defer func() {
			c.dispatching = 0
			c.lastTime = 0
			c.hasLast = false
		}()
	}

	switch e := ev.(type) {
	case xproto.ClientMessageEvent:
		if h.ClientMessage != nil {
			h.ClientMessage(e)
		}
	case xproto.FocusOutEvent:
		if e.Event == c.stage && e.Mode == xproto.NotifyModeGrab && h.GrabChanged != nil {
			h.GrabChanged(true)
		}
	case xproto.FocusInEvent:
		if e.Event == c.stage && e.Mode == xproto.NotifyModeUngrab && h.GrabChanged != nil {
			h.GrabChanged(false)
		}
	case xproto.PropertyNotifyEvent:
		if e.Window == c.root && e.Atom == c.activeWindow && h.FocusWindowChanged != nil {
			h.FocusWindowChanged()
		}
	}
}

// eventTime returns the server timestamp carried by ev, if it has one.
func eventTime(ev xgb.Event) (uint32, bool) {
	var t xproto.Timestamp
	switch e := ev.(type) {
	case xproto.KeyPressEvent:
		t = e.Time
	case xproto.KeyReleaseEvent:
		t = e.Time
	case xproto.ButtonPressEvent:
		t = e.Time
	case xproto.ButtonReleaseEvent:
		t = e.Time
	case xproto.MotionNotifyEvent:
		t = e.Time
	case xproto.EnterNotifyEvent:
		t = e.Time
	case xproto.LeaveNotifyEvent:
		t = e.Time
	case xproto.PropertyNotifyEvent:
		t = e.Time
	case xproto.SelectionClearEvent:
		t = e.Time
	default:
		return 0, false
	}
	if t == xproto.TimeCurrentTime {
		return 0, false
	}
	return uint32(t), true
}
