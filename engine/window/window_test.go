package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderOptions(t *testing.T) {
	w := &engineWindow{swapInterval: 1}
	for _, opt := range []WindowBuilderOption{
		WithTitle("clip.yuv"),
		WithWidth(352),
		WithHeight(288),
		WithClientAPI(ClientAPIOpenGL),
		WithVSync(false),
	} {
		opt(w)
	}

	assert.Equal(t, "clip.yuv", w.title)
	assert.Equal(t, 352, w.Width())
	assert.Equal(t, 288, w.Height())
	assert.Equal(t, ClientAPIOpenGL, w.ClientAPI())
	assert.Equal(t, 0, w.swapInterval)

	WithVSync(true)(w)
	assert.Equal(t, 1, w.swapInterval)
}

func TestUnspawnedWindow(t *testing.T) {
	w := &engineWindow{clientAPI: ClientAPIOpenGL}

	assert.False(t, w.IsRunning())
	assert.Nil(t, w.SurfaceDescriptor(), "gl windows have no webgpu surface")
	require.Error(t, w.Close())

	// No platform window yet: these must not panic.
	w.SwapBuffers()
	w.RequestClose()
	w.SetTitle("x")
	assert.Equal(t, "x", w.title)

	w.clientAPI = ClientAPINone
	assert.Nil(t, w.SurfaceDescriptor())
}

func TestNewWindowRejectsInvalidSize(t *testing.T) {
	_, err := NewWindow(WithWidth(0))
	assert.Error(t, err)
}
