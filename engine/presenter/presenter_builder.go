package presenter

// PresenterBuilderOption is a functional option applied to the shared presenter settings during construction.
type PresenterBuilderOption func(*settings)

// WithColorMatrix sets the initial YCbCr coefficients. The default is BT.709.
//
// Parameters:
//   - matrix: the color matrix
//
// Returns:
//   - PresenterBuilderOption: option function to apply
func WithColorMatrix(matrix ColorMatrix) PresenterBuilderOption {
	return func(s *settings) {
		s.matrix = matrix
	}
}

// WithFullRange treats samples as full range instead of the limited video range.
//
// Parameters:
//   - fullRange: true for full range samples
//
// Returns:
//   - PresenterBuilderOption: option function to apply
func WithFullRange(fullRange bool) PresenterBuilderOption {
	return func(s *settings) {
		s.fullRange = fullRange
	}
}

// WithFlip flips the frame vertically.
//
// Parameters:
//   - flip: true to flip
//
// Returns:
//   - PresenterBuilderOption: option function to apply
func WithFlip(flip bool) PresenterBuilderOption {
	return func(s *settings) {
		s.flip = flip
	}
}

// WithLetterbox toggles aspect-preserving letterboxing. When disabled the frame is stretched to the
// whole drawable. Enabled by default.
//
// Parameters:
//   - enabled: true to letterbox
//
// Returns:
//   - PresenterBuilderOption: option function to apply
func WithLetterbox(enabled bool) PresenterBuilderOption {
	return func(s *settings) {
		s.letterbox = enabled
	}
}

func newSettings(options ...PresenterBuilderOption) settings {
	s := settings{matrix: ColorMatrixBT709, letterbox: true}
	for _, opt := range options {
		opt(&s)
	}
	s.dirty = true
	return s
}

// viewport returns the draw rectangle for a frame on a drawable, honouring the letterbox setting.
func (s *settings) viewport(frameWidth, frameHeight, width, height int) Viewport {
	if !s.letterbox {
		return Viewport{Width: width, Height: height}
	}
	return Letterbox(frameWidth, frameHeight, width, height)
}
