package gpu

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-yuv/common"
	"github.com/go-gl/gl/v4.1-core/gl"
)

// glTexture is the per-handle bookkeeping of the OpenGL backend; the handle itself is the GL name.
type glTexture struct {
	label  string
	width  int
	height int
}

// GLBackend implements Backend on an OpenGL 4.1 core profile context. Planes are stored as GL_R8
// textures, the core profile replacement for GL_LUMINANCE, so shaders read the sample from .r.
//
// Every method must run on the thread the context is current on. The backend holds no lock; that thread
// serialises all access.
type GLBackend struct {
	textures map[TextureHandle]glTexture
}

var _ Backend = &GLBackend{}

// NewGLBackend loads the GL entry points for the current context.
//
// Returns:
//   - *GLBackend: the backend
//   - error: an error if the GL function pointers could not be loaded
func NewGLBackend() (*GLBackend, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	common.Logger().Info("gl backend ready", "version", gl.GoStr(gl.GetString(gl.VERSION)))
	return &GLBackend{
		textures: make(map[TextureHandle]glTexture),
	}, nil
}

func (b *GLBackend) Type() BackendType {
	return BackendTypeGL
}

func (b *GLBackend) CreateTexture(desc TextureDescriptor) (TextureHandle, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return 0, fmt.Errorf("invalid texture extent %dx%d", desc.Width, desc.Height)
	}

	drainGLErrors()

	var id uint32
	gl.GenTextures(1, &id)
	if id == 0 {
		return 0, fmt.Errorf("glGenTextures returned no name for %q", desc.Label)
	}
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, glFilterMode(desc.MinFilter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, glFilterMode(desc.MagFilter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, glWrapMode(desc.WrapS))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, glWrapMode(desc.WrapT))

	// Upload zeros rather than passing nil so the storage content is defined.
	zero := make([]byte, desc.Width*desc.Height)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	gl.TexImage2D(
		gl.TEXTURE_2D,
		0,
		gl.R8,
		int32(desc.Width),
		int32(desc.Height),
		0,
		gl.RED,
		gl.UNSIGNED_BYTE,
		gl.Ptr(&zero[0]),
	)

	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteTextures(1, &id)
		return 0, fmt.Errorf("glTexImage2D failed for %q (%dx%d): error 0x%04x", desc.Label, desc.Width, desc.Height, code)
	}

	handle := TextureHandle(id)
	b.textures[handle] = glTexture{label: desc.Label, width: desc.Width, height: desc.Height}
	return handle, nil
}

func (b *GLBackend) WriteTexture(handle TextureHandle, upload PlaneUpload) error {
	t, ok := b.textures[handle]
	if !ok {
		return fmt.Errorf("unknown texture handle %d", handle)
	}
	if _, err := checkUpload(upload, t.width, t.height, math.MaxInt32); err != nil {
		return fmt.Errorf("texture %q: %w", t.label, err)
	}

	// Samples are one byte, so the row length in pixels equals the stride in bytes.
	gl.BindTexture(gl.TEXTURE_2D, uint32(handle))
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(upload.Stride))
	gl.TexSubImage2D(
		gl.TEXTURE_2D,
		0, 0, 0,
		int32(upload.Width), int32(upload.Height),
		gl.RED, gl.UNSIGNED_BYTE,
		gl.Ptr(&upload.Pixels[0]),
	)
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("glTexSubImage2D failed for %q: error 0x%04x", t.label, code)
	}
	return nil
}

func (b *GLBackend) DeleteTexture(handle TextureHandle) {
	if _, ok := b.textures[handle]; !ok {
		return
	}
	id := uint32(handle)
	gl.DeleteTextures(1, &id)
	delete(b.textures, handle)
}

func (b *GLBackend) ActiveTextureUnit(unit int) {
	if unit < 0 || unit >= MaxTextureUnits {
		common.Logger().Warn("texture unit out of range", "unit", unit)
		return
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
}

func (b *GLBackend) BindTexture(handle TextureHandle) {
	gl.BindTexture(gl.TEXTURE_2D, uint32(handle))
}

func (b *GLBackend) SaveState() State {
	var active, bound, align, rowLength int32
	gl.GetIntegerv(gl.ACTIVE_TEXTURE, &active)
	gl.GetIntegerv(gl.TEXTURE_BINDING_2D, &bound)
	gl.GetIntegerv(gl.UNPACK_ALIGNMENT, &align)
	gl.GetIntegerv(gl.UNPACK_ROW_LENGTH, &rowLength)
	return State{
		ActiveUnit:      int(active) - gl.TEXTURE0,
		Bound:           TextureHandle(bound),
		UnpackAlignment: int(align),
		UnpackRowLength: int(rowLength),
	}
}

func (b *GLBackend) RestoreState(state State) {
	align := state.UnpackAlignment
	if align == 0 {
		// GL's initial unpack alignment.
		align = 4
	}
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, int32(align))
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(state.UnpackRowLength))
	gl.ActiveTexture(gl.TEXTURE0 + uint32(state.ActiveUnit))
	gl.BindTexture(gl.TEXTURE_2D, uint32(state.Bound))
}

// Release deletes every texture still owned by the backend. The context itself belongs to the window.
func (b *GLBackend) Release() {
	for handle := range b.textures {
		id := uint32(handle)
		gl.DeleteTextures(1, &id)
		delete(b.textures, handle)
	}
}

// maxStaleErrors bounds how many queued GL errors are discarded before an allocation.
const maxStaleErrors = 8

// drainGLErrors discards errors left by earlier calls so the next check only sees the current one. A
// lost context can report errors forever, so at most maxStaleErrors are read.
func drainGLErrors() {
	for i := 0; i < maxStaleErrors && gl.GetError() != gl.NO_ERROR; i++ {
	}
}

func glFilterMode(m FilterMode) int32 {
	if m == FilterNearest {
		return gl.NEAREST
	}
	return gl.LINEAR
}

func glWrapMode(m WrapMode) int32 {
	if m == WrapRepeat {
		return gl.REPEAT
	}
	return gl.CLAMP_TO_EDGE
}
