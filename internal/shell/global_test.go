package shell

import (
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/charmbracelet/log"

	"github.com/Gaurav-Gosain/shellglobal/internal/config"
	"github.com/Gaurav-Gosain/shellglobal/internal/dnd"
	"github.com/Gaurav-Gosain/shellglobal/internal/event"
	"github.com/Gaurav-Gosain/shellglobal/internal/inputmode"
	"github.com/Gaurav-Gosain/shellglobal/internal/logging"
	"github.com/Gaurav-Gosain/shellglobal/internal/stage"
)

type fakeRegion struct{ released bool }

func (r *fakeRegion) Release() { r.released = true }

type fakeBackend struct {
	commits []stage.Reactivity
	focus   []uint32
	sent    []xproto.ClientMessageEvent
	focused bool
	now     uint32
	last    uint32
	hasLast bool
}

func (b *fakeBackend) CreateRegion([]stage.Rectangle) (stage.Region, error) {
	return &fakeRegion{}, nil
}

func (b *fakeBackend) CommitInput(r stage.Reactivity, _ stage.Region) error {
	b.commits = append(b.commits, r)
	return nil
}

func (b *fakeBackend) FocusStage(ts uint32) error {
	b.focus = append(b.focus, ts)
	return nil
}

func (b *fakeBackend) HasFocusWindow() bool { return b.focused }

func (b *fakeBackend) SendClientMessage(_ xproto.Window, ev xproto.ClientMessageEvent) error {
	b.sent = append(b.sent, ev)
	return nil
}

func (b *fakeBackend) CurrentTime() uint32 { return b.now }

func (b *fakeBackend) LastEventTime() (uint32, bool) { return b.last, b.hasLast }

var atoms = dnd.Atoms{Aware: 1, Enter: 2, Position: 3, Status: 4, Leave: 5, Drop: 6}

func newTestGlobal(t *testing.T) (*Global, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{}
	g := New(backend, Options{Stage: 0x20, Proxy: 0x30, Atoms: atoms, AcceptDrops: true})
	t.Cleanup(g.Close)
	return g, backend
}

func clientMessage(win xproto.Window, typ xproto.Atom, data ...uint32) xproto.ClientMessageEvent {
	longs := make([]uint32, 5)
	copy(longs, data)
	return xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   typ,
		Data:   xproto.ClientMessageDataUnionData32New(longs),
	}
}

func TestFocusUsesDragTimestamp(t *testing.T) {
	g, backend := newTestGlobal(t)
	backend.now = 10

	// A handler reacting to a drag focuses the stage; the focus request
	// carries the drag's timestamp instead of the display time.
	g.Bus.Subscribe(func(event.Event) {
		g.Stage.SetMode(inputmode.Focused)
	}, event.KindPositionChanged)

	if !g.HandleClientMessage(clientMessage(0x20, atoms.Position, 0x10, 0, 100<<16|50, 12345)) {
		t.Fatal("Position message not consumed")
	}

	if len(backend.focus) != 1 || backend.focus[0] != 12345 {
		t.Errorf("Expected focus at 12345, got %v", backend.focus)
	}
	if g.CurrentTime() != 10 {
		t.Errorf("CurrentTime after drag = %d, want display time 10", g.CurrentTime())
	}
}

func TestHandlersRunLeisureAfterWork(t *testing.T) {
	g, backend := newTestGlobal(t)
	h := g.Handlers()

	ran := false
	g.Loop.Submit(func() {
		g.Leisure.RunAtLeisure(func() { ran = true }, nil)
		h.GrabChanged(true)
	})
	g.Loop.RunPending()

	if !ran {
		t.Error("Leisure closure did not run after event handling")
	}
	if g.Leisure.WorkCount() != 0 {
		t.Errorf("Work count = %d after handlers", g.Leisure.WorkCount())
	}
	if len(backend.commits) != 1 || backend.commits[0] != stage.Passthrough {
		t.Errorf("Expected one passthrough commit, got %v", backend.commits)
	}
	if g.Script.Collections() != 1 {
		t.Errorf("Expected one garbage collection, got %d", g.Script.Collections())
	}
}

func TestFocusedExpiresThroughHandlers(t *testing.T) {
	g, backend := newTestGlobal(t)
	h := g.Handlers()

	var changes []event.ModeChanged
	g.Bus.Subscribe(func(e event.Event) {
		changes = append(changes, e.(event.ModeChanged))
	}, event.KindModeChanged)

	g.Stage.SetMode(inputmode.Focused)
	backend.focused = true
	h.FocusWindowChanged()

	if g.Stage.Mode() != inputmode.Normal {
		t.Errorf("Expected Normal, got %v", g.Stage.Mode())
	}
	if len(changes) != 2 || changes[1].To != inputmode.Normal {
		t.Errorf("Unexpected mode changes %v", changes)
	}
}

func TestClientMessageHandler(t *testing.T) {
	g, backend := newTestGlobal(t)
	h := g.Handlers()

	var kinds []event.Kind
	g.Bus.Subscribe(func(e event.Event) { kinds = append(kinds, e.Kind()) })

	h.ClientMessage(clientMessage(0x30, atoms.Enter, 0x10))
	h.ClientMessage(clientMessage(0x30, atoms.Leave, 0x10))
	h.ClientMessage(clientMessage(0x99, atoms.Enter, 0x10))

	if len(kinds) != 2 || kinds[0] != event.KindEnter || kinds[1] != event.KindLeave {
		t.Errorf("Unexpected events %v", kinds)
	}
	if len(backend.sent) != 0 {
		t.Error("Enter/Leave must not reply")
	}
}

func TestApplyStage(t *testing.T) {
	g, backend := newTestGlobal(t)

	g.ApplyStage(config.StageConfig{
		InitialMode: inputmode.Normal,
		Regions:     []stage.Rectangle{{Width: 100, Height: 20}},
	})

	if !g.Stage.HasRegion() {
		t.Error("Expected region to be installed")
	}
	if g.Stage.Reactivity() != stage.Clipped {
		t.Errorf("Expected clipped, got %v", g.Stage.Reactivity())
	}
	if len(backend.commits) != 1 {
		t.Errorf("Expected one commit, got %v", backend.commits)
	}

	g.ApplyStage(config.StageConfig{InitialMode: inputmode.Fullscreen})
	if !g.Stage.HasRegion() {
		t.Error("Config without regions must keep the installed region")
	}
	if g.Stage.Reactivity() != stage.Absorb {
		t.Errorf("Expected absorb, got %v", g.Stage.Reactivity())
	}
}

func TestReloadKeepsRuntimeMode(t *testing.T) {
	g, backend := newTestGlobal(t)

	prev := config.DefaultConfig()
	g.ApplyStage(prev.Stage)
	g.Stage.SetMode(inputmode.Fullscreen)
	commits := len(backend.commits)

	r := &reloader{g: g, current: prev}
	next := config.DefaultConfig()
	next.DnD.AcceptDrops = false
	r.apply(next)

	if g.Stage.Mode() != inputmode.Fullscreen {
		t.Errorf("Reload of unrelated settings reset mode to %v", g.Stage.Mode())
	}
	if len(backend.commits) != commits {
		t.Errorf("Unchanged stage config committed input: %v", backend.commits[commits:])
	}
	if r.current != next {
		t.Error("Reloader did not track the new config")
	}
}

func TestReloadAppliesChangedMode(t *testing.T) {
	g, _ := newTestGlobal(t)

	prev := config.DefaultConfig()
	g.ApplyStage(prev.Stage)

	r := &reloader{g: g, current: prev}
	next := config.DefaultConfig()
	next.Stage.InitialMode = inputmode.Normal
	next.Stage.Regions = []stage.Rectangle{{Width: 10, Height: 10}}
	r.apply(next)

	if g.Stage.Mode() != inputmode.Normal {
		t.Errorf("Expected Normal after reload, got %v", g.Stage.Mode())
	}
	if g.Stage.Reactivity() != stage.Clipped {
		t.Errorf("Expected clipped after reload, got %v", g.Stage.Reactivity())
	}
}

func TestReloadKeepsOverrides(t *testing.T) {
	g, _ := newTestGlobal(t)

	prev := config.DefaultConfig()
	prev.Stage.InitialMode = inputmode.Fullscreen
	g.ApplyStage(prev.Stage)

	r := &reloader{
		g:       g,
		current: prev,
		override: func(c *config.Config) {
			c.Log.Level = "debug"
			c.Stage.InitialMode = inputmode.Fullscreen
		},
	}
	r.apply(config.DefaultConfig())
	defer logging.SetLevel(log.InfoLevel)

	if g.Stage.Mode() != inputmode.Fullscreen {
		t.Errorf("Flag mode lost on reload, got %v", g.Stage.Mode())
	}
	if r.current.Log.Level != "debug" {
		t.Errorf("Flag log level lost on reload, got %q", r.current.Log.Level)
	}
}
