// Package inputmode defines the stage input modes and their text form.
package inputmode

import (
	"errors"
	"fmt"
	"strings"
)

// Mode is the desired input mode of the stage.
type Mode int

const (
	// Normal makes the stage reactive inside the input region only.
	Normal Mode = iota
	// Nonreactive passes all input through to the windows below.
	Nonreactive
	// Fullscreen makes the whole stage absorb input.
	Fullscreen
	// Focused behaves like Normal and also moves keyboard focus to the stage.
	Focused
)

// ErrUnknownMode is returned by Parse for names that are not a mode.
var ErrUnknownMode = errors.New("unknown stage input mode")

var names = [...]string{
	Normal:      "normal",
	Nonreactive: "nonreactive",
	Fullscreen:  "fullscreen",
	Focused:     "focused",
}

// All lists the modes in declaration order.
func All() []Mode {
	return []Mode{Normal, Nonreactive, Fullscreen, Focused}
}

// Valid reports whether m is one of the declared modes.
func (m Mode) Valid() bool {
	return m >= Normal && m <= Focused
}

func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return names[m]
}

// Parse converts a case-insensitive mode name.
func Parse(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return Mode(i), nil
		}
	}
	return Normal, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// MarshalText implements encoding.TextMarshaler so modes round-trip
// through the TOML config.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	return []byte(names[m]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
