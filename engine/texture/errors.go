package texture

import "errors"

var (
	// ErrUnsupportedFormat is returned when a texture is requested in any format other than common.PixelFormatIYUV.
	ErrUnsupportedFormat = errors.New("unsupported pixel format")

	// ErrInvalidArgument is returned for non-positive geometry, a missing backend, or a plane buffer
	// that is absent, too narrow or too short.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrResourceExhausted is returned when the backend fails to allocate one of the plane textures.
	ErrResourceExhausted = errors.New("gpu resource exhausted")

	// ErrDestroyed is returned by operations on a texture after Destroy.
	ErrDestroyed = errors.New("texture destroyed")
)
