// Package source produces planar YUV frames for playback.
package source

import (
	"github.com/Carmen-Shannon/oxy-yuv/common"
)

// Source yields decoded planar 4:2:0 frames in presentation order.
type Source interface {
	// NextFrame returns the next frame. The returned frame may be reused by the source on the following
	// call, so callers must finish with it first.
	//
	// Returns:
	//   - *common.Frame: the frame
	//   - error: io.EOF when a non-looping source is exhausted, or a read error
	NextFrame() (*common.Frame, error)

	// Width returns the luma width of every frame.
	Width() int

	// Height returns the luma height of every frame.
	Height() int

	// Close releases the underlying input.
	//
	// Returns:
	//   - error: an error if the input could not be closed
	Close() error
}
