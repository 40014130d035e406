// Package x11 is the windowing backend of the shell on X11. It commits the
// stage input region through XFixes, moves keyboard focus, sends XDND
// replies and pumps events into the run loop.
package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/composite"
	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xprop"

	"github.com/Gaurav-Gosain/shellglobal/internal/dnd"
	"github.com/Gaurav-Gosain/shellglobal/internal/logging"
)

var logger = logging.New("x11")

// regionNone resets a window shape to its default, the whole window.
const regionNone xfixes.Region = 0

// ErrClosed is returned by operations on a closed connection.
var ErrClosed = errors.New("x11: connection closed")

// Options configures Open.
type Options struct {
	// Display is the display name; empty uses $DISPLAY.
	Display string
	// StageWindow is an existing stage window. Zero creates one.
	StageWindow xproto.Window
	// UseOverlay makes the composite overlay window the DND proxy. Without
	// it drags are received on the stage directly.
	UseOverlay bool
}

// Conn is an X connection with the shell's windows and atoms resolved.
// Apart from the event reader started by Pump, it is used from the run
// loop goroutine only.
type Conn struct {
	xu   *xgbutil.XUtil
	conn *xgb.Conn

	root      xproto.Window
	stage     xproto.Window
	ownsStage bool
	proxy     xproto.Window
	overlay   bool

	atoms        dnd.Atoms
	activeWindow xproto.Atom

	empty *region

	// Timestamp of the event being dispatched. All three are reset when
	// dispatch returns.
	dispatching uint32
	lastTime    uint32
	hasLast     bool

	closed bool
}

// Open connects to the display and prepares the stage and proxy windows.
func Open(opts Options) (*Conn, error) {
	xu, err := xgbutil.NewConnDisplay(opts.Display)
	if err != nil {
		return nil, fmt.Errorf("connect to display %q: %w", opts.Display, err)
	}

	c := &Conn{
		xu:   xu,
		conn: xu.Conn(),
		root: xu.RootWin(),
	}
	if err := c.init(opts); err != nil {
		c.conn.Close()
		return nil, err
	}

	logger.Info("connected",
		"display", opts.Display,
		"root", fmt.Sprintf("0x%x", uint32(c.root)),
		"stage", fmt.Sprintf("0x%x", uint32(c.stage)),
		"proxy", fmt.Sprintf("0x%x", uint32(c.proxy)),
	)
	return c, nil
}

func (c *Conn) init(opts Options) error {
	if err := xfixes.Init(c.conn); err != nil {
		return fmt.Errorf("init xfixes: %w", err)
	}
	// Regions and SetWindowShapeRegion need XFixes 2.
	if _, err := xfixes.QueryVersion(c.conn, 5, 0).Reply(); err != nil {
		return fmt.Errorf("query xfixes version: %w", err)
	}
	if err := shape.Init(c.conn); err != nil {
		return fmt.Errorf("init shape: %w", err)
	}

	if opts.StageWindow != 0 {
		c.stage = opts.StageWindow
	} else if err := c.createStage(); err != nil {
		return err
	}

	c.proxy = c.stage
	if opts.UseOverlay {
		if err := composite.Init(c.conn); err != nil {
			return fmt.Errorf("init composite: %w", err)
		}
		reply, err := composite.GetOverlayWindow(c.conn, c.root).Reply()
		if err != nil {
			return fmt.Errorf("get overlay window: %w", err)
		}
		c.proxy = reply.OverlayWin
		c.overlay = true
	}

	if err := c.internAtoms(); err != nil {
		return err
	}

	if err := c.initXdnd(); err != nil {
		return err
	}

	err := xproto.ChangeWindowAttributesChecked(c.conn, c.root,
		xproto.CwEventMask, []uint32{xproto.EventMaskPropertyChange}).Check()
	if err != nil {
		return fmt.Errorf("select root events: %w", err)
	}
	if !c.ownsStage {
		err = xproto.ChangeWindowAttributesChecked(c.conn, c.stage,
			xproto.CwEventMask, []uint32{xproto.EventMaskFocusChange}).Check()
		if err != nil {
			return fmt.Errorf("select stage events: %w", err)
		}
	}
	return nil
}

// initXdnd advertises the stage as a drop target and redirects drags over
// the overlay window to it. The stage also carries XdndProxy pointing at
// itself, which lets sources tell a live proxy from a stale property.
func (c *Conn) initXdnd() error {
	if err := xprop.ChangeProp32(c.xu, c.stage, dnd.AtomAware, "ATOM", dnd.ProtocolVersion); err != nil {
		return fmt.Errorf("set XdndAware: %w", err)
	}
	if !c.overlay {
		return nil
	}
	for _, w := range []xproto.Window{c.proxy, c.stage} {
		if err := xprop.ChangeProp32(c.xu, w, dnd.AtomProxy, "WINDOW", uint(c.stage)); err != nil {
			return fmt.Errorf("set XdndProxy on 0x%x: %w", uint32(w), err)
		}
	}
	return nil
}

// createStage creates an override-redirect input-only window covering the
// root window.
func (c *Conn) createStage() error {
	wid, err := xproto.NewWindowId(c.conn)
	if err != nil {
		return fmt.Errorf("allocate stage window id: %w", err)
	}
	screen := c.xu.Screen()

	err = xproto.CreateWindowChecked(c.conn, 0, wid, c.root,
		0, 0, screen.WidthInPixels, screen.HeightInPixels, 0,
		xproto.WindowClassInputOnly, 0,
		xproto.CwOverrideRedirect|xproto.CwEventMask,
		[]uint32{1, xproto.EventMaskFocusChange},
	).Check()
	if err != nil {
		return fmt.Errorf("create stage window: %w", err)
	}
	if err := xproto.MapWindowChecked(c.conn, wid).Check(); err != nil {
		return fmt.Errorf("map stage window: %w", err)
	}

	c.stage = wid
	c.ownsStage = true
	return nil
}

func (c *Conn) internAtoms() error {
	dst := []*xproto.Atom{
		&c.atoms.Aware,
		&c.atoms.Enter,
		&c.atoms.Position,
		&c.atoms.Status,
		&c.atoms.Leave,
		&c.atoms.Drop,
	}
	for i, name := range dnd.Names() {
		atom, err := xprop.Atm(c.xu, name)
		if err != nil {
			return fmt.Errorf("intern %s: %w", name, err)
		}
		*dst[i] = atom
	}

	atom, err := xprop.Atm(c.xu, "_NET_ACTIVE_WINDOW")
	if err != nil {
		return fmt.Errorf("intern _NET_ACTIVE_WINDOW: %w", err)
	}
	c.activeWindow = atom
	return nil
}

// Root returns the root window.
func (c *Conn) Root() xproto.Window { return c.root }

// Stage returns the stage window.
func (c *Conn) Stage() xproto.Window { return c.stage }

// Proxy returns the window drags are redirected to.
func (c *Conn) Proxy() xproto.Window { return c.proxy }

// Atoms returns the interned XDND atoms.
func (c *Conn) Atoms() dnd.Atoms { return c.atoms }

// HasFocusWindow reports whether the window manager says an application
// window is active.
func (c *Conn) HasFocusWindow() bool {
	active, err := ewmh.ActiveWindowGet(c.xu)
	if err != nil {
		logger.Debug("read _NET_ACTIVE_WINDOW", "err", err)
		return false
	}
	return active != 0 && active != c.stage
}

// SendClientMessage sends ev to dest with an empty event mask, so only the
// window owner receives it.
func (c *Conn) SendClientMessage(dest xproto.Window, ev xproto.ClientMessageEvent) error {
	if c.closed {
		return ErrClosed
	}
	return xproto.SendEventChecked(c.conn, false, dest, 0, string(ev.Bytes())).Check()
}

// CurrentTime returns the timestamp of the event being dispatched, or 0.
func (c *Conn) CurrentTime() uint32 {
	return c.dispatching
}

// LastEventTime returns the timestamp of the queued event being
// dispatched. It reports false outside dispatch.
func (c *Conn) LastEventTime() (uint32, bool) {
	return c.lastTime, c.hasLast
}

// Close releases the windows and regions created by Open and closes the
// connection.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	if c.empty != nil {
		c.empty.Release()
	}
	if c.overlay {
		composite.ReleaseOverlayWindow(c.conn, c.root)
	}
	if c.ownsStage {
		xproto.DestroyWindow(c.conn, c.stage)
	}
	c.conn.Close()
	return nil
}
