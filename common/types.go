// package common contains common types that are used throughout this module. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import "fmt"

// PixelFormat is the logical color format tag a texture is created under.
type PixelFormat uint32

const (
	// PixelFormatUnknown is the zero value and is never accepted.
	PixelFormatUnknown PixelFormat = 0

	// PixelFormatIYUV is planar 4:2:0 with one byte per sample: a full resolution Y plane followed by
	// half resolution U and V planes. The value matches the FourCC 'IYUV'.
	PixelFormatIYUV PixelFormat = 'I' | 'Y'<<8 | 'U'<<16 | 'V'<<24

	// PixelFormatYV12 is planar 4:2:0 with V before U. It is listed so callers can name it; textures reject it.
	PixelFormatYV12 PixelFormat = 'Y' | 'V'<<8 | '1'<<16 | '2'<<24

	// PixelFormatNV12 is semi-planar 4:2:0 with interleaved UV. Textures reject it.
	PixelFormatNV12 PixelFormat = 'N' | 'V'<<8 | '1'<<16 | '2'<<24
)

// String returns the FourCC of the format, or a hex value for unknown tags.
func (f PixelFormat) String() string {
	switch f {
	case PixelFormatIYUV, PixelFormatYV12, PixelFormatNV12:
		return string([]byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)})
	}
	return fmt.Sprintf("PixelFormat(0x%08x)", uint32(f))
}

// TextureAccess is an opaque caller tag describing the intended access pattern of a texture.
// The texture layer stores it and hands it back on query; it never interprets it.
type TextureAccess int

const (
	// TextureAccessStatic marks content that changes rarely.
	TextureAccessStatic TextureAccess = iota
	// TextureAccessStreaming marks content that changes every frame.
	TextureAccessStreaming
	// TextureAccessTarget marks a texture meant to be rendered into.
	TextureAccessTarget
)

// TextureInfo is the identity of a texture as reported by a query. All fields are fixed at creation.
type TextureInfo struct {
	// Format is the pixel format tag the texture was created under.
	Format PixelFormat
	// Access is the caller supplied access tag, returned verbatim.
	Access TextureAccess
	// Width is the luma plane width in pixels.
	Width int
	// Height is the luma plane height in pixels.
	Height int
}

// Plane identifies one of the three planes of an IYUV frame.
type Plane int

const (
	// PlaneY is the full resolution luma plane.
	PlaneY Plane = iota
	// PlaneU is the half resolution blue-difference chroma plane.
	PlaneU
	// PlaneV is the half resolution red-difference chroma plane.
	PlaneV
)

// String returns a short name for the plane.
func (p Plane) String() string {
	switch p {
	case PlaneY:
		return "Y"
	case PlaneU:
		return "U"
	case PlaneV:
		return "V"
	}
	return fmt.Sprintf("Plane(%d)", int(p))
}

// Frame holds one decoded IYUV picture as three plane buffers with independent row strides.
// The buffers are owned by whoever produced the frame; consumers must not retain them past the call they were handed to.
type Frame struct {
	// Width and Height are the luma dimensions in pixels.
	Width, Height int

	// Y, U and V hold the plane samples, row after row, each row Stride bytes apart.
	Y, U, V []byte

	// YStride, UStride and VStride are the byte distances between row starts in each plane.
	// They may exceed the plane width when the producer pads its scanlines.
	YStride, UStride, VStride int

	// Sequence is a monotonically increasing frame counter set by the producer.
	Sequence uint64
}

// PlaneData returns the buffer and stride for the given plane.
//
// Parameters:
//   - p: the plane to look up
//
// Returns:
//   - []byte: the plane samples
//   - int: the plane row stride in bytes
func (f *Frame) PlaneData(p Plane) ([]byte, int) {
	switch p {
	case PlaneU:
		return f.U, f.UStride
	case PlaneV:
		return f.V, f.VStride
	default:
		return f.Y, f.YStride
	}
}

// NewFrame allocates a zeroed frame of the given size whose rows are padded up to a multiple of align bytes.
// An align of 0 or 1 produces tightly packed planes.
//
// Parameters:
//   - width: luma width in pixels
//   - height: luma height in pixels
//   - align: row alignment in bytes
//
// Returns:
//   - *Frame: the allocated frame
func NewFrame(width, height, align int) *Frame {
	align = max(align, 1)
	yStride := AlignUp(PlaneWidth(PlaneY, width), align)
	cStride := AlignUp(PlaneWidth(PlaneU, width), align)
	ch := PlaneHeight(PlaneU, height)
	return &Frame{
		Width:   width,
		Height:  height,
		Y:       make([]byte, yStride*height),
		U:       make([]byte, cStride*ch),
		V:       make([]byte, cStride*ch),
		YStride: yStride,
		UStride: cStride,
		VStride: cStride,
	}
}
