// Package dnd terminates the XDND messages addressed to the shell.
//
// Position messages are answered synchronously with an XdndStatus reply
// and republished as PositionChanged events. Enter and Leave messages are
// republished as events only. Anything else is left to the caller.
package dnd

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/Gaurav-Gosain/shellglobal/internal/event"
	"github.com/Gaurav-Gosain/shellglobal/internal/logging"
)

var logger = logging.New("dnd")

// Sender delivers a client message to dest.
type Sender interface {
	SendClientMessage(dest xproto.Window, ev xproto.ClientMessageEvent) error
}

// Overrider runs fn with the current-time override set to ts.
type Overrider interface {
	WithOverride(ts uint32, fn func())
}

// Config names the windows the router answers for.
type Config struct {
	// Stage is the shell stage window.
	Stage xproto.Window
	// Proxy is the window drags are redirected to, usually the compositor
	// overlay window. Status replies name it as the drop target; zero
	// names Stage instead.
	Proxy xproto.Window
	Atoms Atoms
	// AcceptDrops sets the accept flag in status replies.
	AcceptDrops bool
}

// Router classifies client messages by target window and type.
type Router struct {
	cfg    Config
	sender Sender
	time   Overrider
	bus    *event.Bus
}

// NewRouter creates a router.
func NewRouter(cfg Config, sender Sender, time Overrider, bus *event.Bus) *Router {
	return &Router{cfg: cfg, sender: sender, time: time, bus: bus}
}

// session is the state of one position message while it is handled.
type session struct {
	peer  xproto.Window
	reply StatusEvent
	time  uint32
}

// Handle processes ev. It reports whether the message was consumed. An
// error is returned only when the status reply could not be sent; the
// position event is raised regardless.
func (r *Router) Handle(ev xproto.ClientMessageEvent) (bool, error) {
	if ev.Window != r.cfg.Proxy && ev.Window != r.cfg.Stage {
		return false, nil
	}

	switch ev.Type {
	case r.cfg.Atoms.Position, r.cfg.Atoms.Leave, r.cfg.Atoms.Enter:
		if ev.Format != 32 || len(ev.Data.Data32) < 5 {
			return true, fmt.Errorf("malformed XDND message: format %d, %d longs", ev.Format, len(ev.Data.Data32))
		}
	}

	switch ev.Type {
	case r.cfg.Atoms.Position:
		return true, r.handlePosition(ev)
	case r.cfg.Atoms.Leave:
		logger.Debug("drag left")
		r.bus.Publish(event.Leave{})
		return true, nil
	case r.cfg.Atoms.Enter:
		logger.Debug("drag entered", "source", ev.Data.Data32[0])
		r.bus.Publish(event.Enter{})
		return true, nil
	default:
		return false, nil
	}
}

func (r *Router) handlePosition(ev xproto.ClientMessageEvent) error {
	pos := DecodePosition(ev.Data.Data32)

	flags := uint32(StatusSendPositionsFlag)
	if r.cfg.AcceptDrops {
		flags |= StatusAcceptFlag
	}
	target := r.cfg.Proxy
	if target == 0 {
		target = r.cfg.Stage
	}
	s := session{
		peer: pos.Source,
		reply: StatusEvent{
			Window: target,
			Flags:  flags,
			Action: xproto.AtomNone,
		},
		time: uint32(pos.Time),
	}

	var sendErr error
	if err := r.sender.SendClientMessage(s.peer, s.reply.Message(s.peer, r.cfg.Atoms.Status)); err != nil {
		logger.Warn("send status", "peer", s.peer, "err", err)
		sendErr = fmt.Errorf("send XdndStatus to 0x%x: %w", uint32(s.peer), err)
	}

	r.time.WithOverride(s.time, func() {
		r.bus.Publish(event.PositionChanged{X: pos.X, Y: pos.Y})
	})
	return sendErr
}
