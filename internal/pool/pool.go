// Package pool provides sync.Pool backed buffers for the X11 backend.
package pool

import (
	"sync"

	"github.com/BurntSushi/xgb/xproto"
)

const rectSliceCap = 16

var rectSlicePool = sync.Pool{
	New: func() any {
		s := make([]xproto.Rectangle, 0, rectSliceCap)
		return &s
	},
}

// GetRectSlice returns an empty rectangle slice from the pool.
func GetRectSlice() *[]xproto.Rectangle {
	s := rectSlicePool.Get().(*[]xproto.Rectangle)
	*s = (*s)[:0]
	return s
}

// PutRectSlice returns a slice to the pool. Oversized slices are dropped
// so a single huge region does not pin memory.
func PutRectSlice(s *[]xproto.Rectangle) {
	if s == nil || cap(*s) > 1024 {
		return
	}
	*s = (*s)[:0]
	rectSlicePool.Put(s)
}
