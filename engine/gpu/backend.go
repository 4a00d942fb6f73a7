// Package gpu is the graphics API boundary of the YUV texture layer. Textures talk to a Backend,
// never to a concrete API, so the same texture code drives WebGPU, OpenGL or a test recorder.
package gpu

import "fmt"

// BackendType identifies the graphics API a Backend is implemented on.
type BackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based backend.
	BackendTypeWGPU BackendType = iota

	// BackendTypeGL selects the OpenGL 4.1 core profile backend.
	BackendTypeGL
)

// String returns the configuration name of the backend type.
func (t BackendType) String() string {
	switch t {
	case BackendTypeGL:
		return "gl"
	default:
		return "wgpu"
	}
}

// TextureHandle names a single-channel GPU texture owned by a Backend. The zero handle is never valid.
type TextureHandle uint32

// MaxTextureUnits is the number of texture units every backend exposes.
const MaxTextureUnits = 8

// FilterMode selects texel filtering for minification and magnification.
type FilterMode int

const (
	// FilterLinear blends the nearest texels.
	FilterLinear FilterMode = iota
	// FilterNearest picks the closest texel.
	FilterNearest
)

// WrapMode selects how coordinates outside [0, 1] are resolved.
type WrapMode int

const (
	// WrapClampToEdge clamps to the border texels.
	WrapClampToEdge WrapMode = iota
	// WrapRepeat tiles the texture.
	WrapRepeat
)

// TextureDescriptor describes an 8-bit single-channel 2D texture to allocate.
type TextureDescriptor struct {
	// Label is a debug label attached to the GPU object where the API supports it.
	Label string
	// Width and Height are the texture extent in texels. Both must be positive.
	Width, Height int
	// MinFilter and MagFilter select filtering.
	MinFilter, MagFilter FilterMode
	// WrapS and WrapT select coordinate wrapping on each axis.
	WrapS, WrapT WrapMode
}

// PlaneUpload describes a full-texture replace from a row-strided byte buffer.
type PlaneUpload struct {
	// Pixels holds Height rows, each starting Stride bytes after the previous one.
	Pixels []byte
	// Stride is the byte distance between row starts. It is honoured exactly, never assumed to equal Width.
	Stride int
	// Width and Height are the region written at origin (0, 0); they equal the texture extent.
	Width, Height int
}

// State is a snapshot of the ambient API state a texture operation may disturb.
// Backends without a given piece of state leave its field zero and ignore it on restore.
type State struct {
	// ActiveUnit is the texture unit subsequent binds target.
	ActiveUnit int
	// Bound is the texture bound on ActiveUnit.
	Bound TextureHandle
	// UnpackAlignment is the row alignment applied when reading client memory.
	UnpackAlignment int
	// UnpackRowLength is the client row length in pixels, 0 meaning tightly packed.
	UnpackRowLength int
}

// Backend is the graphics API collaborator of a texture. It assumes a current rendering context and is
// not safe for concurrent use; callers serialise every call on the thread owning that context.
type Backend interface {
	// Type reports which graphics API the backend drives.
	Type() BackendType

	// CreateTexture allocates a zero-filled single-channel texture with the given sampling parameters.
	//
	// Parameters:
	//   - desc: the texture extent, label and sampling parameters
	//
	// Returns:
	//   - TextureHandle: the new texture
	//   - error: an error if the API could not allocate the texture
	CreateTexture(desc TextureDescriptor) (TextureHandle, error)

	// WriteTexture replaces the full content of a texture from a strided buffer.
	//
	// Parameters:
	//   - handle: the destination texture
	//   - upload: the source buffer, stride and extent
	//
	// Returns:
	//   - error: an error if the handle is unknown or the upload was rejected
	WriteTexture(handle TextureHandle, upload PlaneUpload) error

	// DeleteTexture releases a texture. Unknown handles are ignored.
	//
	// Parameters:
	//   - handle: the texture to release
	DeleteTexture(handle TextureHandle)

	// ActiveTextureUnit selects the unit that BindTexture targets.
	//
	// Parameters:
	//   - unit: the unit index in [0, MaxTextureUnits)
	ActiveTextureUnit(unit int)

	// BindTexture binds a texture to the active unit. The zero handle unbinds.
	//
	// Parameters:
	//   - handle: the texture to bind
	BindTexture(handle TextureHandle)

	// SaveState captures the ambient state texture operations may change.
	//
	// Returns:
	//   - State: the snapshot to hand back to RestoreState
	SaveState() State

	// RestoreState reinstates a snapshot taken by SaveState.
	//
	// Parameters:
	//   - state: the snapshot to restore
	RestoreState(state State)
}

// checkUpload validates an upload against a width x height texture without letting the size arithmetic
// overflow. maxStride is the largest row pitch the API can be handed.
//
// Parameters:
//   - upload: the upload to check
//   - width: the texture width in texels
//   - height: the texture height in texels
//   - maxStride: the largest stride the API accepts
//
// Returns:
//   - int: the bytes the API reads, Stride*(Height-1)+Width
//   - error: an error describing the first violated constraint
func checkUpload(upload PlaneUpload, width, height, maxStride int) (int, error) {
	if upload.Width != width || upload.Height != height {
		return 0, fmt.Errorf("upload extent %dx%d does not match texture extent %dx%d", upload.Width, upload.Height, width, height)
	}
	if upload.Width <= 0 || upload.Height <= 0 {
		return 0, fmt.Errorf("invalid upload extent %dx%d", upload.Width, upload.Height)
	}
	if upload.Stride < upload.Width {
		return 0, fmt.Errorf("stride %d is narrower than row width %d", upload.Stride, upload.Width)
	}
	if upload.Stride > maxStride {
		return 0, fmt.Errorf("stride %d exceeds the API limit of %d", upload.Stride, maxStride)
	}
	// The final row only needs Width bytes; anything past it is padding the API never reads.
	rows := len(upload.Pixels) - upload.Width
	if rows < 0 || (upload.Height > 1 && upload.Stride > rows/(upload.Height-1)) {
		return 0, fmt.Errorf("upload of %d bytes is short of %d rows of stride %d", len(upload.Pixels), upload.Height, upload.Stride)
	}
	return upload.Stride*(upload.Height-1) + upload.Width, nil
}
