// Package shell builds the per-session context that owns the stage
// arbiter, the leisure scheduler and the drag-and-drop router, and connects
// them to the windowing backend.
package shell

import (
	"slices"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/Gaurav-Gosain/shellglobal/internal/config"
	"github.com/Gaurav-Gosain/shellglobal/internal/dnd"
	"github.com/Gaurav-Gosain/shellglobal/internal/event"
	"github.com/Gaurav-Gosain/shellglobal/internal/leisure"
	"github.com/Gaurav-Gosain/shellglobal/internal/logging"
	"github.com/Gaurav-Gosain/shellglobal/internal/loop"
	"github.com/Gaurav-Gosain/shellglobal/internal/script"
	"github.com/Gaurav-Gosain/shellglobal/internal/stage"
	"github.com/Gaurav-Gosain/shellglobal/internal/timesource"
	"github.com/Gaurav-Gosain/shellglobal/internal/x11"
)

var logger = logging.New("shell")

// Backend is everything the session needs from the windowing system.
type Backend interface {
	stage.Backend
	dnd.Sender
	timesource.DisplayClock
	timesource.EventQueue
}

// Options names the windows and atoms of the session.
type Options struct {
	Stage       xproto.Window
	Proxy       xproto.Window
	Atoms       dnd.Atoms
	AcceptDrops bool
}

// Global is the session context. Every field is used from the run loop
// goroutine only.
type Global struct {
	Loop    *loop.Loop
	Bus     *event.Bus
	Time    *timesource.Source
	Stage   *stage.Arbiter
	Leisure *leisure.Scheduler
	DnD     *dnd.Router
	Script  *script.Runtime
}

// New wires a session on top of backend.
func New(backend Backend, opts Options) *Global {
	g := &Global{
		Loop:   loop.New(),
		Bus:    event.NewBus(),
		Time:   timesource.New(backend, backend),
		Script: script.New(),
	}
	g.Stage = stage.NewArbiter(backend, g.Time, g.Bus)
	g.Leisure = leisure.New(g.Loop, g.Script)
	g.DnD = dnd.NewRouter(dnd.Config{
		Stage:       opts.Stage,
		Proxy:       opts.Proxy,
		Atoms:       opts.Atoms,
		AcceptDrops: opts.AcceptDrops,
	}, backend, g.Time, g.Bus)
	return g
}

// CurrentTime returns the timestamp to stamp outgoing actions with.
func (g *Global) CurrentTime() uint32 {
	return g.Time.Now()
}

// HandleClientMessage routes ev to the drag-and-drop router and reports
// whether it was consumed.
func (g *Global) HandleClientMessage(ev xproto.ClientMessageEvent) bool {
	consumed, err := g.DnD.Handle(ev)
	if err != nil {
		logger.Warn("xdnd reply failed", "err", err)
	}
	return consumed
}

// Handlers returns the backend event handlers of the session. Each event
// is handled as one unit of work.
func (g *Global) Handlers() x11.Handlers {
	return x11.Handlers{
		ClientMessage: func(ev xproto.ClientMessageEvent) {
			g.work(func() {
				if !g.HandleClientMessage(ev) {
					logger.Debug("client message not consumed", "type", ev.Type, "window", ev.Window)
				}
			})
		},
		GrabChanged: func(active bool) {
			g.work(func() { g.Stage.SetGrabActive(active) })
		},
		FocusWindowChanged: func() {
			g.work(g.Stage.FocusWindowChanged)
		},
	}
}

// ApplyStage sets the input region, when one is configured, and then the
// mode from cfg.
func (g *Global) ApplyStage(cfg config.StageConfig) {
	g.work(func() {
		if len(cfg.Regions) > 0 {
			g.Stage.SetRegion(cfg.Regions)
		}
		g.Stage.SetMode(cfg.InitialMode)
	})
}

// ReloadStage applies next after a configuration reload. The region is
// replaced when next lists a different one. The mode is set only when the
// configured initial mode changed, so runtime mode changes survive edits
// to unrelated settings.
func (g *Global) ReloadStage(prev, next config.StageConfig) {
	g.work(func() {
		if len(next.Regions) > 0 && !slices.Equal(prev.Regions, next.Regions) {
			g.Stage.SetRegion(next.Regions)
		}
		if next.InitialMode != prev.InitialMode {
			g.Stage.SetMode(next.InitialMode)
		}
	})
}

// work runs fn between BeginWork and EndWork.
func (g *Global) work(fn func()) {
	g.Leisure.BeginWork()
	defer func() {
		if err := g.Leisure.EndWork(); err != nil {
			logger.Error("end work", "err", err)
		}
	}()
	fn()
}

// Close drops queued leisure work and releases the stage region and the
// script runtime.
func (g *Global) Close() {
	g.Leisure.Close()
	g.Stage.Close()
	g.Script.Close()
}
