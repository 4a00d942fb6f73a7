package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChromaDimension(t *testing.T) {
	for n := 1; n <= 64; n++ {
		want := n / 2
		if n%2 == 1 {
			want++
		}
		assert.Equal(t, want, ChromaDimension(n), "n=%d", n)
	}
}

func TestPlaneGeometry(t *testing.T) {
	assert.Equal(t, 17, PlaneWidth(PlaneY, 17))
	assert.Equal(t, 9, PlaneWidth(PlaneU, 17))
	assert.Equal(t, 9, PlaneWidth(PlaneV, 17))
	assert.Equal(t, 9, PlaneHeight(PlaneY, 9))
	assert.Equal(t, 5, PlaneHeight(PlaneV, 9))
	assert.Equal(t, 17*9+2*9*5, FrameSize(17, 9))
}

func TestNewFrameAlignment(t *testing.T) {
	f := NewFrame(17, 9, 4)
	assert.Equal(t, 20, f.YStride)
	assert.Equal(t, 12, f.UStride)
	assert.Equal(t, 12, f.VStride)
	assert.Len(t, f.Y, 20*9)
	assert.Len(t, f.U, 12*5)

	packed := NewFrame(17, 9, 0)
	assert.Equal(t, 17, packed.YStride)
	assert.Equal(t, 9, packed.UStride)

	buf, stride := f.PlaneData(PlaneV)
	assert.Equal(t, 12, stride)
	assert.Len(t, buf, 60)
}

func TestPixelFormatString(t *testing.T) {
	assert.Equal(t, "IYUV", PixelFormatIYUV.String())
	assert.Equal(t, "NV12", PixelFormatNV12.String())
	assert.Equal(t, "PixelFormat(0x00000007)", PixelFormat(7).String())
	assert.Equal(t, "U", PlaneU.String())
}
