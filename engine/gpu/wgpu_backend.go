package gpu

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-yuv/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuTexture is the per-handle bookkeeping of the WebGPU backend. WebGPU keeps sampling state on a
// separate sampler object, so each texture carries the sampler built from its descriptor.
type wgpuTexture struct {
	label   string
	width   int
	height  int
	texture *wgpu.Texture
	view    *wgpu.TextureView
	sampler *wgpu.Sampler
}

// WGPUBackend implements Backend on WebGPU. Texture units have no native meaning in WebGPU; the backend
// records which texture sits on each unit so a presenter can build a bind group with texture unit N at
// binding N.
type WGPUBackend struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface
	device   *wgpu.Device
	queue    *wgpu.Queue

	labelPrefix          string
	forceFallbackAdapter bool

	textures   map[TextureHandle]*wgpuTexture
	nextHandle TextureHandle

	activeUnit int
	units      [MaxTextureUnits]TextureHandle

	// generation increments whenever a unit binding changes so consumers can cache bind groups.
	generation uint64
}

var _ Backend = &WGPUBackend{}

// NewWGPUBackendForSurface creates an instance, a surface from the descriptor, and an adapter and device
// compatible with that surface. The backend owns all of them and releases them in Release.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor, usually from the window
//   - options: functional options for backend configuration
//
// Returns:
//   - *WGPUBackend: the backend
//   - error: an error if the adapter or device could not be acquired
func NewWGPUBackendForSurface(surfaceDescriptor *wgpu.SurfaceDescriptor, options ...WGPUBackendOption) (*WGPUBackend, error) {
	if surfaceDescriptor == nil {
		return nil, errors.New("wgpu backend requires a surface descriptor")
	}
	runtime.LockOSThread()

	b := newWGPUBackend(options...)
	b.instance = wgpu.CreateInstance(nil)
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: b.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: b.labelPrefix + "Device",
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	common.Logger().Info("wgpu backend ready", "fallbackAdapter", b.forceFallbackAdapter)
	return b, nil
}

func newWGPUBackend(options ...WGPUBackendOption) *WGPUBackend {
	b := &WGPUBackend{
		mu:          &sync.Mutex{},
		labelPrefix: "YUV ",
		textures:    make(map[TextureHandle]*wgpuTexture),
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

func (b *WGPUBackend) Type() BackendType {
	return BackendTypeWGPU
}

func (b *WGPUBackend) CreateTexture(desc TextureDescriptor) (TextureHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if desc.Width <= 0 || desc.Height <= 0 {
		return 0, fmt.Errorf("invalid texture extent %dx%d", desc.Width, desc.Height)
	}

	// WebGPU zero-initialises texture memory, so no explicit clear upload is needed.
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     b.labelPrefix + desc.Label,
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              uint32(desc.Width),
			Height:             uint32(desc.Height),
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatR8Unorm,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return 0, err
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return 0, err
	}

	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         b.labelPrefix + desc.Label + " Sampler",
		AddressModeU:  wgpuAddressMode(desc.WrapS),
		AddressModeV:  wgpuAddressMode(desc.WrapT),
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpuFilterMode(desc.MagFilter),
		MinFilter:     wgpuFilterMode(desc.MinFilter),
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0.0,
		LodMaxClamp:   32.0,
		MaxAnisotropy: 1,
	})
	if err != nil {
		view.Release()
		tex.Release()
		return 0, err
	}

	b.nextHandle++
	handle := b.nextHandle
	b.textures[handle] = &wgpuTexture{
		label:   desc.Label,
		width:   desc.Width,
		height:  desc.Height,
		texture: tex,
		view:    view,
		sampler: samp,
	}
	return handle, nil
}

func (b *WGPUBackend) WriteTexture(handle TextureHandle, upload PlaneUpload) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.textures[handle]
	if !ok {
		return fmt.Errorf("unknown texture handle %d", handle)
	}
	need, err := checkUpload(upload, t.width, t.height, math.MaxInt32)
	if err != nil {
		return fmt.Errorf("texture %q: %w", t.label, err)
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t.texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		upload.Pixels[:need],
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(upload.Stride),
			RowsPerImage: uint32(upload.Height),
		},
		&wgpu.Extent3D{
			Width:              uint32(upload.Width),
			Height:             uint32(upload.Height),
			DepthOrArrayLayers: 1,
		},
	)
	return nil
}

func (b *WGPUBackend) DeleteTexture(handle TextureHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.textures[handle]
	if !ok {
		return
	}
	for unit, bound := range b.units {
		if bound == handle {
			b.units[unit] = 0
			b.generation++
		}
	}
	t.sampler.Release()
	t.view.Release()
	t.texture.Release()
	delete(b.textures, handle)
}

func (b *WGPUBackend) ActiveTextureUnit(unit int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if unit < 0 || unit >= MaxTextureUnits {
		common.Logger().Warn("texture unit out of range", "unit", unit)
		return
	}
	b.activeUnit = unit
}

func (b *WGPUBackend) BindTexture(handle TextureHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if handle != 0 {
		if _, ok := b.textures[handle]; !ok {
			common.Logger().Warn("bind of unknown texture handle", "handle", handle)
			return
		}
	}
	if b.units[b.activeUnit] != handle {
		b.units[b.activeUnit] = handle
		b.generation++
	}
}

func (b *WGPUBackend) SaveState() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	return State{
		ActiveUnit: b.activeUnit,
		Bound:      b.units[b.activeUnit],
	}
}

func (b *WGPUBackend) RestoreState(state State) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if state.ActiveUnit < 0 || state.ActiveUnit >= MaxTextureUnits {
		return
	}
	b.activeUnit = state.ActiveUnit
	if _, ok := b.textures[state.Bound]; !ok && state.Bound != 0 {
		// The texture was deleted in the meantime; leave the unit empty rather than dangling.
		state.Bound = 0
	}
	if b.units[b.activeUnit] != state.Bound {
		b.units[b.activeUnit] = state.Bound
		b.generation++
	}
}

// BoundResources returns the view and sampler of the texture bound on a unit.
//
// Parameters:
//   - unit: the texture unit to inspect
//
// Returns:
//   - *wgpu.TextureView: the bound texture view, or nil
//   - *wgpu.Sampler: the sampler of the bound texture, or nil
func (b *WGPUBackend) BoundResources(unit int) (*wgpu.TextureView, *wgpu.Sampler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if unit < 0 || unit >= MaxTextureUnits {
		return nil, nil
	}
	t, ok := b.textures[b.units[unit]]
	if !ok {
		return nil, nil
	}
	return t.view, t.sampler
}

// Generation returns a counter that changes whenever any unit binding changes.
//
// Returns:
//   - uint64: the binding generation
func (b *WGPUBackend) Generation() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.generation
}

func (b *WGPUBackend) Device() *wgpu.Device {
	return b.device
}

func (b *WGPUBackend) Queue() *wgpu.Queue {
	return b.queue
}

func (b *WGPUBackend) Adapter() *wgpu.Adapter {
	return b.adapter
}

func (b *WGPUBackend) Surface() *wgpu.Surface {
	return b.surface
}

// Release frees every texture still owned by the backend, then the device, adapter, surface and
// instance.
func (b *WGPUBackend) Release() {
	b.mu.Lock()
	for handle, t := range b.textures {
		t.sampler.Release()
		t.view.Release()
		t.texture.Release()
		delete(b.textures, handle)
	}
	b.units = [MaxTextureUnits]TextureHandle{}
	b.mu.Unlock()

	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

func wgpuFilterMode(m FilterMode) wgpu.FilterMode {
	if m == FilterNearest {
		return wgpu.FilterModeNearest
	}
	return wgpu.FilterModeLinear
}

func wgpuAddressMode(m WrapMode) wgpu.AddressMode {
	if m == WrapRepeat {
		return wgpu.AddressModeRepeat
	}
	return wgpu.AddressModeClampToEdge
}
