package presenter

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-yuv/common"
	"github.com/Carmen-Shannon/oxy-yuv/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

//go:embed assets/yuv.wgsl
var yuvShaderSource string

const (
	bindingLuma    = 0
	bindingChromaU = 1
	bindingChromaV = 2
	bindingSampler = 3
	bindingParams  = 4
)

// WGPUPresenter draws through a WebGPU surface. The bind group is built from the views the backend
// reports on units 0, 1 and 2 and rebuilt whenever a unit binding changes.
type WGPUPresenter struct {
	mu *sync.Mutex
	settings

	backend     *gpu.WGPUBackend
	presentMode wgpu.PresentMode

	surfaceFormat wgpu.TextureFormat
	width         int
	height        int

	shader          *wgpu.ShaderModule
	bindGroupLayout *wgpu.BindGroupLayout
	pipelineLayout  *wgpu.PipelineLayout
	pipeline        *wgpu.RenderPipeline
	paramsBuffer    *wgpu.Buffer

	bindGroup           *wgpu.BindGroup
	bindGroupGeneration uint64
}

var _ Presenter = &WGPUPresenter{}

// NewWGPUPresenter configures the backend's surface and builds the conversion pipeline for it.
//
// Parameters:
//   - backend: a WebGPU backend created with NewWGPUBackendForSurface
//   - width: the initial framebuffer width
//   - height: the initial framebuffer height
//   - vsync: true to present with FIFO, false for immediate presentation
//   - options: functional options for the conversion settings
//
// Returns:
//   - *WGPUPresenter: the presenter
//   - error: an error if the backend has no surface or a GPU object could not be created
func NewWGPUPresenter(backend *gpu.WGPUBackend, width, height int, vsync bool, options ...PresenterBuilderOption) (*WGPUPresenter, error) {
	if backend == nil || backend.Surface() == nil {
		return nil, errors.New("wgpu presenter requires a backend with a surface")
	}
	p := &WGPUPresenter{
		mu:          &sync.Mutex{},
		settings:    newSettings(options...),
		backend:     backend,
		presentMode: wgpu.PresentModeImmediate,
	}
	if vsync {
		p.presentMode = wgpu.PresentModeFifo
	}

	p.surfaceFormat = p.chooseSurfaceFormat()
	if err := p.Resize(width, height); err != nil {
		return nil, err
	}
	if err := p.createPipeline(); err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

// chooseSurfaceFormat prefers a non-sRGB 8-bit format. The shader outputs gamma-encoded RGB already, so
// an sRGB target would encode it twice.
func (p *WGPUPresenter) chooseSurfaceFormat() wgpu.TextureFormat {
	capabilities := p.backend.Surface().GetCapabilities(p.backend.Adapter())
	for _, f := range capabilities.Formats {
		if f == wgpu.TextureFormatBGRA8Unorm || f == wgpu.TextureFormatRGBA8Unorm {
			return f
		}
	}
	return capabilities.Formats[0]
}

func (p *WGPUPresenter) Resize(width, height int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if width <= 0 || height <= 0 {
		// Minimised; keep the previous configuration until a real size arrives.
		return nil
	}
	capabilities := p.backend.Surface().GetCapabilities(p.backend.Adapter())
	if len(capabilities.AlphaModes) == 0 {
		return errors.New("surface reports no alpha modes")
	}
	p.backend.Surface().Configure(p.backend.Adapter(), p.backend.Device(), &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      p.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: p.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	p.width, p.height = width, height
	return nil
}

func (p *WGPUPresenter) createPipeline() error {
	device := p.backend.Device()

	code, bindings, err := PreprocessWGSL(yuvShaderSource)
	if err != nil {
		return fmt.Errorf("failed to preprocess conversion shader: %w", err)
	}
	if len(bindings) != 1 || bindings[0].Binding != bindingParams {
		return fmt.Errorf("conversion shader must declare its params at binding %d", bindingParams)
	}

	p.shader, err = device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "YUV Conversion Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: code,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create conversion shader: %w", err)
	}

	planeEntry := func(binding uint32) wgpu.BindGroupLayoutEntry {
		return wgpu.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: wgpu.ShaderStageFragment,
			Texture: wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeFloat,
				ViewDimension: wgpu.TextureViewDimension2D,
			},
		}
	}
	params := p.params()
	p.bindGroupLayout, err = device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "YUV Plane Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			planeEntry(bindingLuma),
			planeEntry(bindingChromaU),
			planeEntry(bindingChromaV),
			{
				Binding:    bindingSampler,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
			{
				Binding:    bindingParams,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: uint64(params.Size()),
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create bind group layout: %w", err)
	}

	p.pipelineLayout, err = device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "YUV Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{p.bindGroupLayout},
	})
	if err != nil {
		return fmt.Errorf("failed to create pipeline layout: %w", err)
	}

	p.pipeline, err = device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "YUV Render Pipeline",
		Layout: p.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    p.surfaceFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create render pipeline: %w", err)
	}

	p.paramsBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "YUV Conversion Params",
		Size:             uint64(params.Size()),
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return fmt.Errorf("failed to create params buffer: %w", err)
	}
	return nil
}

// refreshBindGroup rebuilds the bind group when the unit bindings changed since the last draw.
func (p *WGPUPresenter) refreshBindGroup() (bool, error) {
	generation := p.backend.Generation()
	if p.bindGroup != nil && generation == p.bindGroupGeneration {
		return true, nil
	}

	lumaView, lumaSampler := p.backend.BoundResources(bindingLuma)
	chromaUView, _ := p.backend.BoundResources(bindingChromaU)
	chromaVView, _ := p.backend.BoundResources(bindingChromaV)
	if lumaView == nil || chromaUView == nil || chromaVView == nil {
		// Nothing bound yet; the caller only clears.
		return false, nil
	}

	bg, err := p.backend.Device().CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "YUV Plane Bind Group",
		Layout: p.bindGroupLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: bindingLuma, TextureView: lumaView},
			{Binding: bindingChromaU, TextureView: chromaUView},
			{Binding: bindingChromaV, TextureView: chromaVView},
			{Binding: bindingSampler, Sampler: lumaSampler},
			{Binding: bindingParams, Buffer: p.paramsBuffer, Offset: 0, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to create plane bind group: %w", err)
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
	p.bindGroupGeneration = generation
	return true, nil
}

func (p *WGPUPresenter) Draw(frameWidth, frameHeight int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.width <= 0 || p.height <= 0 {
		return nil
	}

	if p.dirty {
		params := p.params()
		p.backend.Queue().WriteBuffer(p.paramsBuffer, 0, params.Marshal())
		p.dirty = false
	}

	drawable, err := p.refreshBindGroup()
	if err != nil {
		return err
	}

	surfaceTexture, err := p.backend.Surface().GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("failed to acquire surface texture: %w", err)
	}
	defer surfaceTexture.Release()

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		return err
	}
	defer view.Release()

	encoder, err := p.backend.Device().CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "YUV Present Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
	})
	if drawable {
		vp := p.viewport(frameWidth, frameHeight, p.width, p.height)
		pass.SetPipeline(p.pipeline)
		pass.SetBindGroup(0, p.bindGroup, nil)
		pass.SetViewport(float32(vp.X), float32(vp.Y), float32(vp.Width), float32(vp.Height), 0, 1)
		pass.Draw(3, 1, 0, 0)
	}
	pass.End()
	pass.Release()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	p.backend.Queue().Submit(commandBuffer)
	commandBuffer.Release()

	p.backend.Surface().Present()
	if !drawable {
		common.Logger().Debug("presented without planes bound")
	}
	return nil
}

func (p *WGPUPresenter) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.paramsBuffer != nil {
		p.paramsBuffer.Release()
		p.paramsBuffer = nil
	}
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
	if p.pipelineLayout != nil {
		p.pipelineLayout.Release()
		p.pipelineLayout = nil
	}
	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
		p.bindGroupLayout = nil
	}
	if p.shader != nil {
		p.shader.Release()
		p.shader = nil
	}
}
