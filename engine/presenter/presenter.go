// Package presenter draws the YUV planes bound on texture units 0, 1 and 2 to the window, converting
// to RGB in a shader. It is the consumer of the unit assignment a texture's Bind establishes.
package presenter

// Presenter converts and draws whatever planes are currently bound on units 0 (Y), 1 (U) and 2 (V).
type Presenter interface {
	// Resize updates the drawable size after the window framebuffer changed.
	//
	// Parameters:
	//   - width: the new framebuffer width in pixels
	//   - height: the new framebuffer height in pixels
	//
	// Returns:
	//   - error: an error if the surface could not be reconfigured
	Resize(width, height int) error

	// Draw clears the drawable, draws the bound planes letterboxed to the frame's aspect ratio and
	// presents the result.
	//
	// Parameters:
	//   - frameWidth: the luma width of the bound frame
	//   - frameHeight: the luma height of the bound frame
	//
	// Returns:
	//   - error: an error if the drawable could not be acquired or the draw failed
	Draw(frameWidth, frameHeight int) error

	// SetColorMatrix selects the YCbCr coefficients.
	SetColorMatrix(matrix ColorMatrix)

	// ColorMatrix returns the selected YCbCr coefficients.
	ColorMatrix() ColorMatrix

	// SetFullRange selects full (true) or limited (false) sample range.
	SetFullRange(fullRange bool)

	// FullRange reports whether samples are treated as full range.
	FullRange() bool

	// SetFlip enables vertical flipping of the frame.
	SetFlip(flip bool)

	// Flip reports whether the frame is flipped vertically.
	Flip() bool

	// Release frees the GPU objects created by the presenter.
	Release()
}

// settings is the conversion state shared by every presenter implementation.
type settings struct {
	matrix    ColorMatrix
	fullRange bool
	flip      bool
	dirty     bool
	letterbox bool
}

func (s *settings) SetColorMatrix(matrix ColorMatrix) {
	s.dirty = s.dirty || s.matrix != matrix
	s.matrix = matrix
}

func (s *settings) ColorMatrix() ColorMatrix {
	return s.matrix
}

func (s *settings) SetFullRange(fullRange bool) {
	s.dirty = s.dirty || s.fullRange != fullRange
	s.fullRange = fullRange
}

func (s *settings) FullRange() bool {
	return s.fullRange
}

func (s *settings) SetFlip(flip bool) {
	s.dirty = s.dirty || s.flip != flip
	s.flip = flip
}

func (s *settings) Flip() bool {
	return s.flip
}

func (s *settings) params() GPUConversionParams {
	return NewGPUConversionParams(s.matrix, s.fullRange, s.flip)
}

// Viewport is a pixel rectangle inside the drawable, origin at the top-left corner.
type Viewport struct {
	X, Y, Width, Height int
}

// Letterbox returns the largest viewport inside a dstWidth x dstHeight drawable that preserves the
// srcWidth:srcHeight aspect ratio, centred with bars on the short axis. Degenerate sizes yield the full
// drawable.
//
// Parameters:
//   - srcWidth: the frame width
//   - srcHeight: the frame height
//   - dstWidth: the drawable width
//   - dstHeight: the drawable height
//
// Returns:
//   - Viewport: the centred, aspect-preserving viewport
func Letterbox(srcWidth, srcHeight, dstWidth, dstHeight int) Viewport {
	if srcWidth <= 0 || srcHeight <= 0 || dstWidth <= 0 || dstHeight <= 0 {
		return Viewport{Width: max(dstWidth, 0), Height: max(dstHeight, 0)}
	}
	// Compare srcW/srcH with dstW/dstH without floating point.
	if srcWidth*dstHeight > dstWidth*srcHeight {
		h := max(dstWidth*srcHeight/srcWidth, 1)
		return Viewport{X: 0, Y: (dstHeight - h) / 2, Width: dstWidth, Height: h}
	}
	w := max(dstHeight*srcWidth/srcHeight, 1)
	return Viewport{X: (dstWidth - w) / 2, Y: 0, Width: w, Height: dstHeight}
}
