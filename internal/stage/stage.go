// Package stage decides whether the shell stage absorbs input or lets it
// through to the application windows below, and commits that decision to
// the windowing backend.
package stage

import (
	"fmt"

	"github.com/Gaurav-Gosain/shellglobal/internal/event"
	"github.com/Gaurav-Gosain/shellglobal/internal/inputmode"
	"github.com/Gaurav-Gosain/shellglobal/internal/logging"
)

var logger = logging.New("stage")

// Rectangle is one rectangle of the input region, in stage coordinates.
type Rectangle struct {
	X      int `toml:"x"`
	Y      int `toml:"y"`
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Reactivity is the effective input behavior committed to the backend.
type Reactivity int

const (
	// Passthrough sends all input to the windows below the stage.
	Passthrough Reactivity = iota
	// Absorb makes the whole stage consume input.
	Absorb
	// Clipped makes the stage consume input inside the input region only.
	Clipped
)

func (r Reactivity) String() string {
	switch r {
	case Passthrough:
		return "passthrough"
	case Absorb:
		return "absorb"
	case Clipped:
		return "clipped"
	default:
		return fmt.Sprintf("Reactivity(%d)", int(r))
	}
}

// Region is a backend-owned region handle. Release frees it.
type Region interface {
	Release()
}

// Backend is the windowing layer the arbiter commits to.
type Backend interface {
	// CreateRegion builds a region from rects. An error means no region
	// could be installed.
	CreateRegion(rects []Rectangle) (Region, error)
	// CommitInput applies r to the stage. region is non-nil only for Clipped.
	CommitInput(r Reactivity, region Region) error
	// FocusStage moves keyboard focus to the stage window.
	FocusStage(timestamp uint32) error
	// HasFocusWindow reports whether an application window holds keyboard
	// focus.
	HasFocusWindow() bool
}

// Clock supplies the timestamp for focus requests.
type Clock interface {
	Now() uint32
}

// Arbiter owns the desired input mode, the toolkit grab state and the input
// region. Every change is reconciled into at most one backend commit.
//
// An Arbiter is not safe for concurrent use; it lives on the run loop.
type Arbiter struct {
	backend Backend
	clock   Clock
	bus     *event.Bus

	mode    inputmode.Mode
	grabbed bool
	region  Region

	committed bool
	last      Reactivity
}

// NewArbiter creates an arbiter in Normal mode with no region. Nothing is
// committed until the first change.
func NewArbiter(backend Backend, clock Clock, bus *event.Bus) *Arbiter {
	return &Arbiter{
		backend: backend,
		clock:   clock,
		bus:     bus,
		mode:    inputmode.Normal,
	}
}

// Mode returns the current mode.
func (a *Arbiter) Mode() inputmode.Mode {
	return a.mode
}

// GrabActive reports whether a toolkit grab is in effect.
func (a *Arbiter) GrabActive() bool {
	return a.grabbed
}

// HasRegion reports whether an input region is installed.
func (a *Arbiter) HasRegion() bool {
	return a.region != nil
}

// Reactivity returns the effective reactivity for the current state.
func (a *Arbiter) Reactivity() Reactivity {
	return Resolve(a.mode, a.grabbed, a.region != nil)
}

// Resolve computes the reactivity of a stage.
//
// Precedence, first match wins:
//  1. grab active or Nonreactive: Passthrough
//  2. Fullscreen or no region installed: Absorb
//  3. otherwise: Clipped to the region
func Resolve(mode inputmode.Mode, grabbed, hasRegion bool) Reactivity {
	switch {
	case grabbed || mode == inputmode.Nonreactive:
		return Passthrough
	case mode == inputmode.Fullscreen || !hasRegion:
		return Absorb
	default:
		return Clipped
	}
}

// SetMode records mode, commits the resulting reactivity and, for Focused,
// moves keyboard focus to the stage. A ModeChanged event is published only
// when the mode actually changed. Invalid modes panic.
func (a *Arbiter) SetMode(mode inputmode.Mode) {
	if !mode.Valid() {
		panic(fmt.Sprintf("stage: invalid input mode %d", int(mode)))
	}

	prev := a.mode
	a.mode = mode
	a.apply(false)

	if mode == inputmode.Focused {
		ts := a.clock.Now()
		if err := a.backend.FocusStage(ts); err != nil {
			logger.Error("focus stage", "time", ts, "err", err)
		}
	}

	if prev != mode {
		logger.Debug("mode changed", "from", prev, "to", mode)
		a.bus.Publish(event.ModeChanged{From: prev, To: mode})
	}
}

// SetRegion replaces the input region. The previous region is released
// first. If the backend cannot create the region the arbiter behaves as if
// no region had ever been set.
func (a *Arbiter) SetRegion(rects []Rectangle) {
	if a.region != nil {
		a.region.Release()
		a.region = nil
	}

	region, err := a.backend.CreateRegion(rects)
	if err != nil {
		logger.Warn("create input region", "rects", len(rects), "err", err)
	} else {
		a.region = region
	}

	a.apply(true)
}

// SetGrabActive records whether a toolkit grab is now in effect.
func (a *Arbiter) SetGrabActive(active bool) {
	a.grabbed = active
	a.apply(false)
}

// GrabNotify adapts toolkit grab-notify signals, whose argument reports
// whether the widget was grabbed before the transition: a grab is active
// exactly when it was not.
func (a *Arbiter) GrabNotify(wasGrabbed bool) {
	a.SetGrabActive(!wasGrabbed)
}

// FocusWindowChanged returns a Focused stage to Normal once an application
// window takes keyboard focus.
func (a *Arbiter) FocusWindowChanged() {
	if a.mode == inputmode.Focused && a.backend.HasFocusWindow() {
		a.SetMode(inputmode.Normal)
	}
}

// Close releases the installed region.
func (a *Arbiter) Close() {
	if a.region != nil {
		a.region.Release()
		a.region = nil
	}
}

// apply commits the effective reactivity unless it matches the last
// commit. A changed region forces a commit while it is in use.
func (a *Arbiter) apply(regionChanged bool) {
	r := a.Reactivity()
	if a.committed && r == a.last && !(regionChanged && r == Clipped) {
		return
	}

	var region Region
	if r == Clipped {
		region = a.region
	}
	if err := a.backend.CommitInput(r, region); err != nil {
		logger.Error("commit input", "reactivity", r, "err", err)
		return
	}

	logger.Debug("committed input", "reactivity", r, "mode", a.mode, "grab", a.grabbed)
	a.committed = true
	a.last = r
}
