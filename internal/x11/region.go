package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/Gaurav-Gosain/shellglobal/internal/pool"
	"github.com/Gaurav-Gosain/shellglobal/internal/stage"
)

type region struct {
	conn     *xgb.Conn
	id       xfixes.Region
	released bool
}

func (r *region) Release() {
	if r.released {
		return
	}
	r.released = true
	xfixes.DestroyRegion(r.conn, r.id)
}

// AppendRects converts stage rectangles to X rectangles, clamping them to
// the 16-bit wire range and dropping empty ones.
func AppendRects(dst []xproto.Rectangle, rects []stage.Rectangle) []xproto.Rectangle {
	for _, r := range rects {
		if r.Width <= 0 || r.Height <= 0 {
			continue
		}
		dst = append(dst, xproto.Rectangle{
			X:      int16(clamp(r.X, -32768, 32767)),
			Y:      int16(clamp(r.Y, -32768, 32767)),
			Width:  uint16(clamp(r.Width, 0, 65535)),
			Height: uint16(clamp(r.Height, 0, 65535)),
		})
	}
	return dst
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// CreateRegion builds an XFixes region from rects.
func (c *Conn) CreateRegion(rects []stage.Rectangle) (stage.Region, error) {
	if c.closed {
		return nil, ErrClosed
	}
	return c.createRegion(rects)
}

func (c *Conn) createRegion(rects []stage.Rectangle) (*region, error) {
	id, err := xfixes.NewRegionId(c.conn)
	if err != nil {
		return nil, fmt.Errorf("allocate region id: %w", err)
	}

	buf := pool.GetRectSlice()
	defer pool.PutRectSlice(buf)
	*buf = AppendRects(*buf, rects)

	if err := xfixes.CreateRegionChecked(c.conn, id, *buf).Check(); err != nil {
		return nil, fmt.Errorf("create region: %w", err)
	}
	return &region{conn: c.conn, id: id}, nil
}

// CommitInput sets the input shape of the stage, and of the overlay window
// when it is the drag proxy.
func (c *Conn) CommitInput(r stage.Reactivity, reg stage.Region) error {
	if c.closed {
		return ErrClosed
	}

	var id xfixes.Region
	switch r {
	case stage.Passthrough:
		if c.empty == nil {
			empty, err := c.createRegion(nil)
			if err != nil {
				return err
			}
			c.empty = empty
		}
		id = c.empty.id
	case stage.Absorb:
		id = regionNone
	case stage.Clipped:
		xr, ok := reg.(*region)
		if !ok || xr == nil {
			return fmt.Errorf("commit clipped input: region %T is not an X region", reg)
		}
		id = xr.id
	default:
		return fmt.Errorf("commit input: unknown reactivity %v", r)
	}

	windows := []xproto.Window{c.stage}
	if c.overlay {
		windows = append(windows, c.proxy)
	}
	for _, w := range windows {
		err := xfixes.SetWindowShapeRegionChecked(c.conn, w, shape.SkInput, 0, 0, id).Check()
		if err != nil {
			return fmt.Errorf("set input shape of 0x%x: %w", uint32(w), err)
		}
	}
	return nil
}

// focusRevertTo sends focus back to the pointer root when the stage
// becomes unviewable.
const focusRevertTo = xproto.InputFocusPointerRoot

// FocusStage gives the stage window keyboard focus.
func (c *Conn) FocusStage(timestamp uint32) error {
	if c.closed {
		return ErrClosed
	}
	return xproto.SetInputFocusChecked(c.conn, focusRevertTo, c.stage,
		xproto.Timestamp(timestamp)).Check()
}
