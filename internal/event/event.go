// Package event carries the notifications raised by the stage arbiter and
// the drag-and-drop router.
//
// The set of events is closed: ModeChanged, PositionChanged, Leave and
// Enter. Handlers run synchronously on the publisher's goroutine, in the
// order they were subscribed.
package event

import (
	"fmt"

	"github.com/Gaurav-Gosain/shellglobal/internal/inputmode"
)

// Kind identifies an event variant.
type Kind int

const (
	// KindModeChanged is raised when the committed stage input mode changes.
	KindModeChanged Kind = iota
	// KindPositionChanged is raised for every XDND position message.
	KindPositionChanged
	// KindLeave is raised when a drag leaves the shell.
	KindLeave
	// KindEnter is raised when a drag enters the shell.
	KindEnter
)

func (k Kind) String() string {
	switch k {
	case KindModeChanged:
		return "mode-changed"
	case KindPositionChanged:
		return "xdnd-position-changed"
	case KindLeave:
		return "xdnd-leave"
	case KindEnter:
		return "xdnd-enter"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Event is implemented only by the variants in this package.
type Event interface {
	Kind() Kind
	sealed()
}

// ModeChanged reports a transition of the stage input mode.
type ModeChanged struct {
	From inputmode.Mode
	To   inputmode.Mode
}

// PositionChanged reports the pointer position of an ongoing drag, in root
// window coordinates.
type PositionChanged struct {
	X int
	Y int
}

// Leave reports that a drag left the shell.
type Leave struct{}

// Enter reports that a drag entered the shell.
type Enter struct{}

func (ModeChanged) Kind() Kind     { return KindModeChanged }
func (PositionChanged) Kind() Kind { return KindPositionChanged }
func (Leave) Kind() Kind           { return KindLeave }
func (Enter) Kind() Kind           { return KindEnter }

func (ModeChanged) sealed()     {}
func (PositionChanged) sealed() {}
func (Leave) sealed()           {}
func (Enter) sealed()           {}
