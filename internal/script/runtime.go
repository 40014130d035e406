// Package script hosts the embedded Lua runtime. The shell only asks it to
// collect garbage when the leisure scheduler runs.
package script

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/Gaurav-Gosain/shellglobal/internal/logging"
)

var logger = logging.New("script")

// ErrClosed is returned after Close.
var ErrClosed = errors.New("script: runtime closed")

// Runtime wraps a gopher-lua state. gopher-lua states are not goroutine
// safe: a Runtime must only be used from the run loop goroutine.
type Runtime struct {
	L           *lua.LState
	collections int
	closed      bool
}

// New creates a runtime with the standard libraries opened.
func New() *Runtime {
	return &Runtime{L: lua.NewState()}
}

// DoString runs a chunk of Lua source.
func (r *Runtime) DoString(src string) error {
	if r.closed {
		return ErrClosed
	}
	if err := r.L.DoString(src); err != nil {
		return fmt.Errorf("run lua chunk: %w", err)
	}
	return nil
}

// CollectGarbage runs a full collection through the Lua collectgarbage
// builtin.
func (r *Runtime) CollectGarbage() {
	if r.closed {
		return
	}
	fn := r.L.GetGlobal("collectgarbage")
	if fn == lua.LNil {
		logger.Warn("collectgarbage is not available")
		return
	}
	if err := r.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, lua.LString("collect")); err != nil {
		logger.Error("garbage collection failed", "err", err)
		return
	}
	r.collections++
	logger.Debug("garbage collected", "collections", r.collections)
}

// Collections returns how many collections completed.
func (r *Runtime) Collections() int {
	return r.collections
}

// Close releases the Lua state.
func (r *Runtime) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.L.Close()
}
