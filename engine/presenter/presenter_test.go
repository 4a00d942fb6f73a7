package presenter

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apply(rows [3][4]float32, y, u, v float32) [3]float32 {
	in := [4]float32{y, u, v, 1}
	var out [3]float32
	for i, row := range rows {
		for c := range row {
			out[i] += row[c] * in[c]
		}
	}
	return out
}

func TestConversionRowsFullRangeCoefficients(t *testing.T) {
	rows := ColorMatrixBT601.ConversionRows(true)

	assert.InDelta(t, 1.0, rows[0][0], 1e-6)
	assert.InDelta(t, 0.0, rows[0][1], 1e-6)
	assert.InDelta(t, 1.402, rows[0][2], 1e-4)
	assert.InDelta(t, -0.344136, rows[1][1], 1e-4)
	assert.InDelta(t, -0.714136, rows[1][2], 1e-4)
	assert.InDelta(t, 1.772, rows[2][1], 1e-4)
	assert.InDelta(t, 0.0, rows[2][2], 1e-6)

	rows = ColorMatrixBT709.ConversionRows(true)
	assert.InDelta(t, 1.5748, rows[0][2], 1e-4)
	assert.InDelta(t, 1.8556, rows[2][1], 1e-4)
}

func TestConversionRowsLimitedRangeScales(t *testing.T) {
	rows := ColorMatrixBT601.ConversionRows(false)

	assert.InDelta(t, 255.0/219.0, rows[0][0], 1e-5)
	assert.InDelta(t, 1.402*255.0/224.0, rows[0][2], 1e-4)
}

func TestConversionRowsMapsGreyAxis(t *testing.T) {
	cases := []struct {
		name      string
		fullRange bool
		black     float32
		white     float32
	}{
		{name: "limited", fullRange: false, black: 16.0 / 255.0, white: 235.0 / 255.0},
		{name: "full", fullRange: true, black: 0, white: 1},
	}
	for _, matrix := range []ColorMatrix{ColorMatrixBT601, ColorMatrixBT709} {
		for _, tc := range cases {
			t.Run(matrix.String()+"/"+tc.name, func(t *testing.T) {
				rows := matrix.ConversionRows(tc.fullRange)
				const neutral = 128.0 / 255.0

				for _, c := range apply(rows, tc.black, neutral, neutral) {
					assert.InDelta(t, 0.0, c, 1e-4)
				}
				for _, c := range apply(rows, tc.white, neutral, neutral) {
					assert.InDelta(t, 1.0, c, 1e-4)
				}
			})
		}
	}
}

func TestColorMatrixParseAndCycle(t *testing.T) {
	m, ok := ParseColorMatrix("bt601")
	require.True(t, ok)
	assert.Equal(t, ColorMatrixBT601, m)

	m, ok = ParseColorMatrix("")
	require.True(t, ok)
	assert.Equal(t, ColorMatrixBT709, m)

	m, ok = ParseColorMatrix("bt2020")
	assert.False(t, ok)
	assert.Equal(t, ColorMatrixBT709, m)

	assert.Equal(t, ColorMatrixBT601, ColorMatrixBT709.Next())
	assert.Equal(t, ColorMatrixBT709, ColorMatrixBT601.Next())
	assert.Equal(t, "bt709", ColorMatrixBT709.String())
}

func TestGPUConversionParamsLayout(t *testing.T) {
	params := NewGPUConversionParams(ColorMatrixBT709, false, true)
	require.Equal(t, 64, params.Size())

	buf := params.Marshal()
	require.Len(t, buf, 64)

	word := func(i int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			assert.Equal(t, params.Rows[r][c], word(r*4+c))
		}
	}
	assert.Equal(t, float32(1), word(12))
	assert.Equal(t, float32(0), word(13))

	params = NewGPUConversionParams(ColorMatrixBT709, false, false)
	assert.Equal(t, float32(0), params.Flags[0])
}

func TestLetterbox(t *testing.T) {
	cases := []struct {
		name                   string
		srcW, srcH, dstW, dstH int
		want                   Viewport
	}{
		{name: "exact", srcW: 640, srcH: 480, dstW: 640, dstH: 480, want: Viewport{Width: 640, Height: 480}},
		{name: "wide into square", srcW: 1920, srcH: 1080, dstW: 800, dstH: 800, want: Viewport{Y: 175, Width: 800, Height: 450}},
		{name: "tall into wide", srcW: 1080, srcH: 1920, dstW: 800, dstH: 600, want: Viewport{X: 231, Width: 337, Height: 600}},
		{name: "odd frame", srcW: 17, srcH: 9, dstW: 170, dstH: 100, want: Viewport{X: 0, Y: 5, Width: 170, Height: 90}},
		{name: "degenerate frame", srcW: 0, srcH: 9, dstW: 320, dstH: 240, want: Viewport{Width: 320, Height: 240}},
		{name: "minimised", srcW: 640, srcH: 480, dstW: 0, dstH: 0, want: Viewport{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Letterbox(tc.srcW, tc.srcH, tc.dstW, tc.dstH))
		})
	}
}

func TestSettingsTrackChanges(t *testing.T) {
	s := newSettings(WithColorMatrix(ColorMatrixBT601), WithFullRange(true), WithFlip(true))
	assert.True(t, s.dirty)
	assert.Equal(t, ColorMatrixBT601, s.ColorMatrix())
	assert.True(t, s.FullRange())
	assert.True(t, s.Flip())

	s.dirty = false
	s.SetFlip(true)
	assert.False(t, s.dirty, "unchanged value must not invalidate the uniform")
	s.SetColorMatrix(ColorMatrixBT709)
	assert.True(t, s.dirty)

	stretched := newSettings(WithLetterbox(false))
	assert.Equal(t, Viewport{Width: 300, Height: 100}, stretched.viewport(16, 9, 300, 100))
	assert.Equal(t, Viewport{X: 61, Width: 177, Height: 100}, s.viewport(16, 9, 300, 100))
}
