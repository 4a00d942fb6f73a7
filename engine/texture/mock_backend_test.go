package texture

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-yuv/engine/gpu"
)

// recordingBackend is a gpu.Backend that keeps textures in memory and records every call,
// so tests can assert on allocation, upload, binding and release order.
type recordingBackend struct {
	calls []string

	next     gpu.TextureHandle
	textures map[gpu.TextureHandle]*fakeTexture
	created  []gpu.TextureDescriptor
	uploads  []fakeUpload
	deleted  []gpu.TextureHandle

	active int
	units  [gpu.MaxTextureUnits]gpu.TextureHandle

	unpackAlignment int
	unpackRowLength int

	// failCreateAt makes the n-th CreateTexture call (1-based) fail when non-zero.
	failCreateAt int
	// failWriteAt makes the n-th WriteTexture call (1-based) fail when non-zero.
	failWriteAt int
	// failWritesFrom makes every WriteTexture call from the n-th on fail when non-zero.
	failWritesFrom int
	creates        int
	writes         int
}

type fakeTexture struct {
	desc   gpu.TextureDescriptor
	pixels []byte
}

type fakeUpload struct {
	handle gpu.TextureHandle
	stride int
	width  int
	height int
}

var errFakeOOM = errors.New("out of memory")

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{
		textures:        make(map[gpu.TextureHandle]*fakeTexture),
		unpackAlignment: 4,
	}
}

func (b *recordingBackend) Type() gpu.BackendType { return gpu.BackendTypeGL }

func (b *recordingBackend) CreateTexture(desc gpu.TextureDescriptor) (gpu.TextureHandle, error) {
	b.creates++
	b.calls = append(b.calls, fmt.Sprintf("create %dx%d", desc.Width, desc.Height))
	if b.failCreateAt == b.creates {
		return 0, errFakeOOM
	}
	b.next++
	b.textures[b.next] = &fakeTexture{desc: desc, pixels: make([]byte, desc.Width*desc.Height)}
	b.created = append(b.created, desc)
	// Allocation binds the new texture on the active unit, like glBindTexture does.
	b.units[b.active] = b.next
	return b.next, nil
}

func (b *recordingBackend) WriteTexture(handle gpu.TextureHandle, upload gpu.PlaneUpload) error {
	b.writes++
	b.calls = append(b.calls, fmt.Sprintf("write %d stride=%d %dx%d", handle, upload.Stride, upload.Width, upload.Height))
	if b.failWriteAt == b.writes || (b.failWritesFrom != 0 && b.writes >= b.failWritesFrom) {
		return errFakeOOM
	}
	t, ok := b.textures[handle]
	if !ok {
		return fmt.Errorf("unknown handle %d", handle)
	}
	b.units[b.active] = handle
	b.unpackAlignment = 1
	b.unpackRowLength = upload.Stride
	for row := 0; row < upload.Height; row++ {
		copy(t.pixels[row*upload.Width:(row+1)*upload.Width], upload.Pixels[row*upload.Stride:row*upload.Stride+upload.Width])
	}
	b.uploads = append(b.uploads, fakeUpload{handle: handle, stride: upload.Stride, width: upload.Width, height: upload.Height})
	return nil
}

func (b *recordingBackend) DeleteTexture(handle gpu.TextureHandle) {
	b.calls = append(b.calls, fmt.Sprintf("delete %d", handle))
	b.deleted = append(b.deleted, handle)
	delete(b.textures, handle)
}

func (b *recordingBackend) ActiveTextureUnit(unit int) {
	b.calls = append(b.calls, fmt.Sprintf("active %d", unit))
	b.active = unit
}

func (b *recordingBackend) BindTexture(handle gpu.TextureHandle) {
	b.calls = append(b.calls, fmt.Sprintf("bind %d", handle))
	b.units[b.active] = handle
}

func (b *recordingBackend) SaveState() gpu.State {
	return gpu.State{
		ActiveUnit:      b.active,
		Bound:           b.units[b.active],
		UnpackAlignment: b.unpackAlignment,
		UnpackRowLength: b.unpackRowLength,
	}
}

func (b *recordingBackend) RestoreState(state gpu.State) {
	b.active = state.ActiveUnit
	b.units[b.active] = state.Bound
	b.unpackAlignment = state.UnpackAlignment
	b.unpackRowLength = state.UnpackRowLength
}

// resetCalls forgets recorded calls while keeping textures and bindings.
func (b *recordingBackend) resetCalls() {
	b.calls = nil
}
