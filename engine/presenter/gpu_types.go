package presenter

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUConversionParamsSource is the canonical WGSL definition of the ConversionParams struct.
// Matches GPUConversionParams layout exactly (64 bytes, std140 aligned).
//
//go:embed assets/conversion_params.wgsl
var GPUConversionParamsSource string

// GPUConversionParams is the GPU-aligned uniform for the YUV conversion fragment shader.
// Matches the WGSL ConversionParams struct layout exactly (see GPUConversionParamsSource).
// Size: 64 bytes (four vec4<f32>).
type GPUConversionParams struct {
	Rows  [3][4]float32 // offset 0: R, G and B rows of the affine YUV to RGB transform (48 bytes)
	Flags [4]float32    // offset 48: x = vertical flip (0 or 1), yzw unused (16 bytes)
}

// NewGPUConversionParams builds the uniform for a matrix, range and flip setting.
//
// Parameters:
//   - matrix: the color matrix
//   - fullRange: true for full range samples
//   - flip: true to flip the frame vertically
//
// Returns:
//   - GPUConversionParams: the uniform contents
func NewGPUConversionParams(matrix ColorMatrix, fullRange, flip bool) GPUConversionParams {
	p := GPUConversionParams{Rows: matrix.ConversionRows(fullRange)}
	if flip {
		p.Flags[0] = 1
	}
	return p
}

// Size returns the size of the GPUConversionParams struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUConversionParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUConversionParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload.
func (g *GPUConversionParams) Marshal() []byte {
	buf := make([]byte, 64)
	for r, row := range g.Rows {
		for c, v := range row {
			binary.LittleEndian.PutUint32(buf[r*16+c*4:], math.Float32bits(v))
		}
	}
	for c, v := range g.Flags {
		binary.LittleEndian.PutUint32(buf[48+c*4:], math.Float32bits(v))
	}
	return buf
}
