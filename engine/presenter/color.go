package presenter

// ColorMatrix selects the YCbCr to RGB coefficients used by the conversion shader.
type ColorMatrix int

const (
	// ColorMatrixBT709 uses ITU-R BT.709 luma coefficients (HD content). This is the default.
	ColorMatrixBT709 ColorMatrix = iota
	// ColorMatrixBT601 uses ITU-R BT.601 luma coefficients (SD content).
	ColorMatrixBT601
)

// String returns the configuration name of the matrix.
func (m ColorMatrix) String() string {
	if m == ColorMatrixBT601 {
		return "bt601"
	}
	return "bt709"
}

// ParseColorMatrix maps a configuration name to a ColorMatrix. Unknown names yield BT.709.
//
// Parameters:
//   - name: "bt601" or "bt709"
//
// Returns:
//   - ColorMatrix: the matching matrix
//   - bool: false if the name was not recognised
func ParseColorMatrix(name string) (ColorMatrix, bool) {
	switch name {
	case "bt601", "BT601", "bt.601":
		return ColorMatrixBT601, true
	case "bt709", "BT709", "bt.709", "":
		return ColorMatrixBT709, true
	}
	return ColorMatrixBT709, false
}

// Next returns the other matrix, for cycling from a key binding.
func (m ColorMatrix) Next() ColorMatrix {
	if m == ColorMatrixBT601 {
		return ColorMatrixBT709
	}
	return ColorMatrixBT601
}

// lumaWeights returns Kr and Kb for the matrix.
func (m ColorMatrix) lumaWeights() (kr, kb float64) {
	if m == ColorMatrixBT601 {
		return 0.299, 0.114
	}
	return 0.2126, 0.0722
}

// ConversionRows returns the affine transform from normalised (Y, U, V, 1) samples to RGB as three rows,
// so that R = dot(rows[0], yuv1) and likewise for G and B.
//
// Limited range expands Y from [16, 235] and chroma from [16, 240]; full range uses [0, 255] for both.
//
// Parameters:
//   - fullRange: true for full range (JPEG style) samples
//
// Returns:
//   - [3][4]float32: the R, G and B rows
func (m ColorMatrix) ConversionRows(fullRange bool) [3][4]float32 {
	kr, kb := m.lumaWeights()
	kg := 1 - kr - kb

	yScale, yOffset, cScale := 255.0/219.0, 16.0/255.0, 255.0/224.0
	if fullRange {
		yScale, yOffset, cScale = 1, 0, 1
	}
	const cOffset = 128.0 / 255.0

	rv := 2 * (1 - kr)
	bu := 2 * (1 - kb)
	gu := -2 * kb * (1 - kb) / kg
	gv := -2 * kr * (1 - kr) / kg

	row := func(u, v float64) [4]float32 {
		return [4]float32{
			float32(yScale),
			float32(u * cScale),
			float32(v * cScale),
			float32(-yScale*yOffset - (u+v)*cScale*cOffset),
		}
	}
	return [3][4]float32{row(0, rv), row(gu, gv), row(bu, 0)}
}
