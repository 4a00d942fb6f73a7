package common

// ChromaDimension returns the chroma plane extent for a luma extent under 4:2:0 subsampling.
// Odd extents round up so the last luma column or row still has a chroma sample.
//
// Parameters:
//   - n: the luma width or height in pixels
//
// Returns:
//   - int: ceil(n / 2)
func ChromaDimension(n int) int {
	return (n + 1) / 2
}

// PlaneWidth returns the width in samples of plane p for a frame whose luma width is width.
//
// Parameters:
//   - p: the plane
//   - width: the luma width in pixels
//
// Returns:
//   - int: the plane width in samples
func PlaneWidth(p Plane, width int) int {
	if p == PlaneY {
		return width
	}
	return ChromaDimension(width)
}

// PlaneHeight returns the height in rows of plane p for a frame whose luma height is height.
//
// Parameters:
//   - p: the plane
//   - height: the luma height in pixels
//
// Returns:
//   - int: the plane height in rows
func PlaneHeight(p Plane, height int) int {
	if p == PlaneY {
		return height
	}
	return ChromaDimension(height)
}

// FrameSize returns the number of bytes a tightly packed IYUV frame of the given size occupies.
//
// Parameters:
//   - width: the luma width in pixels
//   - height: the luma height in pixels
//
// Returns:
//   - int: width*height + 2*ceil(width/2)*ceil(height/2)
func FrameSize(width, height int) int {
	return width*height + 2*ChromaDimension(width)*ChromaDimension(height)
}

// AlignUp rounds n up to the next multiple of align. align must be positive.
func AlignUp(n, align int) int {
	return (n + align - 1) / align * align
}
