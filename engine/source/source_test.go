package source

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-yuv/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// packedFrames builds n tightly packed I420 frames where every sample of frame i, plane p is i*3+p+1.
func packedFrames(width, height, n int) []byte {
	var buf bytes.Buffer
	for i := 0; i < n; i++ {
		for p := 0; p < 3; p++ {
			plane := common.Plane(p)
			size := common.PlaneWidth(plane, width) * common.PlaneHeight(plane, height)
			buf.Write(bytes.Repeat([]byte{byte(i*3 + p + 1)}, size))
		}
	}
	return buf.Bytes()
}

func requirePlaneFilled(t *testing.T, f *common.Frame, p common.Plane, want byte) {
	t.Helper()
	data, stride := f.PlaneData(p)
	w := common.PlaneWidth(p, f.Width)
	for row := 0; row < common.PlaneHeight(p, f.Height); row++ {
		line := data[row*stride : row*stride+w]
		require.Equal(t, bytes.Repeat([]byte{want}, w), line, "plane %s row %d", p, row)
		// Padding past the row width is never written.
		for _, b := range data[row*stride+w : row*stride+stride] {
			require.Zero(t, b)
		}
	}
}

func TestFileSourceReadsFramesIntoPaddedRows(t *testing.T) {
	const w, h = 17, 9
	src, err := NewFileSource(bytes.NewReader(packedFrames(w, h, 2)), w, h, WithRowAlignment(8))
	require.NoError(t, err)

	f, err := src.NextFrame()
	require.NoError(t, err)
	assert.Equal(t, 24, f.YStride)
	assert.Equal(t, 16, f.UStride)
	assert.Equal(t, uint64(0), f.Sequence)
	requirePlaneFilled(t, f, common.PlaneY, 1)
	requirePlaneFilled(t, f, common.PlaneU, 2)
	requirePlaneFilled(t, f, common.PlaneV, 3)

	f, err = src.NextFrame()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), f.Sequence)
	requirePlaneFilled(t, f, common.PlaneV, 6)

	_, err = src.NextFrame()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFileSourceDiscardsTruncatedFrame(t *testing.T) {
	const w, h = 4, 4
	data := packedFrames(w, h, 2)
	data = data[:len(data)-3]

	src, err := NewFileSource(bytes.NewReader(data), w, h)
	require.NoError(t, err)

	_, err = src.NextFrame()
	require.NoError(t, err)
	_, err = src.NextFrame()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFileSourceLoops(t *testing.T) {
	const w, h = 2, 2
	src, err := NewFileSource(bytes.NewReader(packedFrames(w, h, 2)), w, h, WithLoop(true))
	require.NoError(t, err)

	want := []byte{1, 4, 1, 4, 1}
	for i, y := range want {
		f, err := src.NextFrame()
		require.NoError(t, err)
		assert.Equal(t, y, f.Y[0], "frame %d", i)
		assert.Equal(t, uint64(i), f.Sequence)
	}
}

func TestFileSourceLoopOnEmptyStreamEnds(t *testing.T) {
	src, err := NewFileSource(bytes.NewReader(nil), 2, 2, WithLoop(true))
	require.NoError(t, err)

	_, err = src.NextFrame()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFileSourceRejectsBadConfiguration(t *testing.T) {
	_, err := NewFileSource(bytes.NewReader(nil), 0, 2)
	assert.Error(t, err)

	_, err = NewFileSource(bytes.NewReader(nil), 2, 2, WithRowAlignment(0))
	assert.Error(t, err)

	_, err = NewFileSource(bytes.NewBufferString(""), 2, 2, WithLoop(true))
	assert.Error(t, err)
}

func TestOpenFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.yuv")
	require.NoError(t, os.WriteFile(path, packedFrames(6, 4, 3), 0o644))

	src, err := OpenFileSource(path, 6, 4)
	require.NoError(t, err)
	assert.Equal(t, 6, src.Width())
	assert.Equal(t, 4, src.Height())

	count := 0
	for {
		_, err := src.NextFrame()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 3, count)
	require.NoError(t, src.Close())
	require.NoError(t, src.Close())

	_, err = OpenFileSource(filepath.Join(t.TempDir(), "missing.yuv"), 6, 4)
	assert.Error(t, err)
}

func TestPatternSourceRendersEveryRow(t *testing.T) {
	const w, h = 33, 17
	src, err := NewPatternSource(w, h, WithWorkers(3), WithPatternAlignment(16))
	require.NoError(t, err)

	f, err := src.NextFrame()
	require.NoError(t, err)
	assert.Equal(t, 48, f.YStride)

	// Top left is the white bar, bottom rows are the ramp on neutral chroma.
	assert.Equal(t, barLuma[0], f.Y[0])
	assert.Equal(t, barChroma[7][1], f.V[common.PlaneWidth(common.PlaneV, w)-1])
	lastY := f.Y[(h-1)*f.YStride : (h-1)*f.YStride+w]
	assert.Equal(t, byte(16), lastY[0])
	assert.Equal(t, byte(235), lastY[w-1])
	lastU := f.U[(common.PlaneHeight(common.PlaneU, h)-1)*f.UStride]
	assert.Equal(t, byte(128), lastU)

	for row := 0; row < h; row++ {
		for _, b := range f.Y[row*f.YStride+w : (row+1)*f.YStride] {
			require.Zero(t, b)
		}
	}
}

func TestPatternSourceAnimatesAndStops(t *testing.T) {
	const w, h = 8, 6
	src, err := NewPatternSource(w, h, WithFrameLimit(2))
	require.NoError(t, err)

	first, err := src.NextFrame()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), first.Sequence)
	rampStart := first.Y[(h-1)*first.YStride]

	second, err := src.NextFrame()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), second.Sequence)
	assert.NotEqual(t, rampStart, second.Y[(h-1)*second.YStride])

	_, err = src.NextFrame()
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, src.Close())
}

func TestPatternSourceCloseKeepsGoroutinesBounded(t *testing.T) {
	// Start the shared pool before taking the baseline.
	warm, err := NewPatternSource(8, 6, WithWorkers(4))
	require.NoError(t, err)
	_, err = warm.NextFrame()
	require.NoError(t, err)
	require.NoError(t, warm.Close())
	before := runtime.NumGoroutine()

	for i := 0; i < 10; i++ {
		src, err := NewPatternSource(8, 6, WithWorkers(4))
		require.NoError(t, err)
		_, err = src.NextFrame()
		require.NoError(t, err)
		require.NoError(t, src.Close())
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, time.Second, 10*time.Millisecond)
}

func TestPatternSourceClosed(t *testing.T) {
	src, err := NewPatternSource(8, 6)
	require.NoError(t, err)
	require.NoError(t, src.Close())
	require.NoError(t, src.Close())

	_, err = src.NextFrame()
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestPatternSourceRejectsBadSize(t *testing.T) {
	_, err := NewPatternSource(0, 4)
	assert.Error(t, err)
}
