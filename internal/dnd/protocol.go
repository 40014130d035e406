package dnd

import "github.com/BurntSushi/xgb/xproto"

// Atom names interned at startup.
const (
	AtomAware    = "XdndAware"
	AtomEnter    = "XdndEnter"
	AtomPosition = "XdndPosition"
	AtomStatus   = "XdndStatus"
	AtomLeave    = "XdndLeave"
	AtomDrop     = "XdndDrop"
	// AtomProxy is set on the proxy window, and on the target itself,
	// naming the window that receives the drag messages.
	AtomProxy = "XdndProxy"
)

// ProtocolVersion is advertised through XdndAware.
const ProtocolVersion = 5

// Atoms holds the interned XDND message types.
type Atoms struct {
	Aware    xproto.Atom
	Enter    xproto.Atom
	Position xproto.Atom
	Status   xproto.Atom
	Leave    xproto.Atom
	Drop     xproto.Atom
}

// Names lists every atom the router needs, in Atoms field order.
func Names() []string {
	return []string{AtomAware, AtomEnter, AtomPosition, AtomStatus, AtomLeave, AtomDrop}
}

// StatusEvent is the XdndStatus reply to a position message.
type StatusEvent struct {
	Window xproto.Window
	Flags  uint32
	Action xproto.Atom
}

const (
	StatusAcceptFlag        = 1 << 0
	StatusSendPositionsFlag = 1 << 1 // ask to keep sending positions
)

// Data32 returns the five longs of the client message.
func (st *StatusEvent) Data32() []uint32 {
	return []uint32{
		uint32(st.Window),
		st.Flags,
		0,                 // x,y
		0,                 // w,h
		uint32(st.Action), // accepted action
	}
}

// Message builds the client message sent to dest.
func (st *StatusEvent) Message(dest xproto.Window, statusAtom xproto.Atom) xproto.ClientMessageEvent {
	return xproto.ClientMessageEvent{
		Format: 32,
		Window: dest,
		Type:   statusAtom,
		Data:   xproto.ClientMessageDataUnionData32New(st.Data32()),
	}
}

// Position is a decoded XdndPosition message.
type Position struct {
	Source xproto.Window
	X      int
	Y      int
	Time   xproto.Timestamp
}

// DecodePosition reads the source window, the packed root coordinates
// (x in the high 16 bits, y in the low 16 bits) and the timestamp.
func DecodePosition(data []uint32) Position {
	packed := data[2]
	return Position{
		Source: xproto.Window(data[0]),
		X:      int(packed >> 16),
		Y:      int(packed & 0xFFFF),
		Time:   xproto.Timestamp(data[3]),
	}
}
