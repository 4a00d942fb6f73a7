package texture

import "github.com/Carmen-Shannon/oxy-yuv/engine/gpu"

// TextureBuilderOption is a function that configures a texture instance during construction.
type TextureBuilderOption func(*yuvTexture)

// WithLabel sets the debug label of the texture. Plane textures are labelled "<label> Y", "<label> U"
// and "<label> V". Without this option a random "yuv-<uuid>" label is used.
//
// Parameters:
//   - label: the debug label
//
// Returns:
//   - TextureBuilderOption: a function that applies the label option to a texture
func WithLabel(label string) TextureBuilderOption {
	return func(t *yuvTexture) {
		t.label = label
	}
}

// WithFilter overrides the linear minification and magnification filtering of all three planes.
//
// Parameters:
//   - minFilter: the minification filter
//   - magFilter: the magnification filter
//
// Returns:
//   - TextureBuilderOption: a function that applies the filter option to a texture
func WithFilter(minFilter, magFilter gpu.FilterMode) TextureBuilderOption {
	return func(t *yuvTexture) {
		t.minFilter = minFilter
		t.magFilter = magFilter
	}
}
