package gpu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckUploadAcceptsPaddedRows(t *testing.T) {
	// The last row may stop at Width; its padding need not be present.
	need, err := checkUpload(PlaneUpload{Pixels: make([]byte, 24*8+17), Stride: 24, Width: 17, Height: 9}, 17, 9, math.MaxInt32)
	require.NoError(t, err)
	assert.Equal(t, 24*8+17, need)

	need, err = checkUpload(PlaneUpload{Pixels: make([]byte, 5), Stride: 1 << 40, Width: 5, Height: 1}, 5, 1, math.MaxInt)
	require.NoError(t, err, "a single row never reads the stride")
	assert.Equal(t, 5, need)
}

func TestCheckUploadRejects(t *testing.T) {
	cases := map[string]struct {
		upload    PlaneUpload
		maxStride int
	}{
		"extent mismatch":   {PlaneUpload{Pixels: make([]byte, 64), Stride: 8, Width: 8, Height: 7}, math.MaxInt32},
		"narrow stride":     {PlaneUpload{Pixels: make([]byte, 64), Stride: 7, Width: 8, Height: 8}, math.MaxInt32},
		"short buffer":      {PlaneUpload{Pixels: make([]byte, 8*7+7), Stride: 8, Width: 8, Height: 8}, math.MaxInt32},
		"buffer under row":  {PlaneUpload{Pixels: make([]byte, 3), Stride: 8, Width: 8, Height: 8}, math.MaxInt32},
		"stride over limit": {PlaneUpload{Pixels: make([]byte, 1<<20), Stride: math.MaxInt32 + 1, Width: 8, Height: 8}, math.MaxInt32},
		"overflowing size":  {PlaneUpload{Pixels: make([]byte, 17), Stride: 1 << 60, Width: 8, Height: 8}, math.MaxInt},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := checkUpload(c.upload, 8, 8, c.maxStride)
			assert.Error(t, err)
		})
	}
}
