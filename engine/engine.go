package engine

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-yuv/common"
	"github.com/Carmen-Shannon/oxy-yuv/engine/gpu"
	"github.com/Carmen-Shannon/oxy-yuv/engine/presenter"
	"github.com/Carmen-Shannon/oxy-yuv/engine/profiler"
	"github.com/Carmen-Shannon/oxy-yuv/engine/source"
	"github.com/Carmen-Shannon/oxy-yuv/engine/texture"
	"github.com/Carmen-Shannon/oxy-yuv/engine/window"
)

// engine implements the Engine interface.
// A ticker goroutine paces frames; uploads and draws run on the window thread, which owns the
// rendering context.
type engine struct {
	cfg Config

	frameRateChannel chan time.Duration // Channel for dynamic frame rate updates
	frameChannel     chan struct{}      // One pending frame tick; extra ticks are dropped
	droppedFrames    atomic.Int64

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window    window.Window
	backend   gpu.Backend
	release   func()
	source    source.Source
	texture   texture.Texture
	presenter presenter.Presenter
	player    *player

	profiler         *profiler.Profiler
	profilingEnabled bool

	frameInterval time.Duration
	err           error
}

// Engine plays a planar YUV source through a Texture and a Presenter in a window.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Texture returns the YUV texture frames are uploaded into.
	//
	// Returns:
	//   - texture.Texture: the texture
	Texture() texture.Texture

	// Presenter returns the presenter drawing the texture.
	//
	// Returns:
	//   - presenter.Presenter: the presenter
	Presenter() presenter.Presenter

	// EnableProfiler enables playback statistics output to the logger.
	EnableProfiler()

	// DisableProfiler disables playback statistics output.
	DisableProfiler()

	// SetFrameRate changes the playback rate. Values <= 0 select the configured rate.
	// If the engine is running, the change takes effect immediately.
	//
	// Parameters:
	//   - fps: frames per second
	SetFrameRate(fps float64)

	// Run plays until the window closes, Quit is called or a frame fails to upload, then releases
	// every resource the engine owns.
	//
	// Returns:
	//   - error: the upload or draw error that stopped playback, if any
	Run() error

	// Quit signals playback to stop. Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine builds the window, GPU backend, presenter, texture and source described by cfg. Anything
// supplied through options is used instead of being created.
//
// Parameters:
//   - cfg: the playback configuration
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the ready engine
//   - error: an error if cfg is invalid or any component could not be created
func NewEngine(cfg Config, options ...EngineBuilderOption) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &engine{
		cfg:              cfg,
		frameRateChannel: make(chan time.Duration, 1),
		frameChannel:     make(chan struct{}, 1),
		quitChannel:      make(chan struct{}),
		profilingEnabled: cfg.Profiling,
		frameInterval:    frameInterval(cfg.FPS),
	}
	for _, opt := range options {
		opt(e)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler()
	}

	if err := e.init(); err != nil {
		e.teardown()
		return nil, err
	}

	e.player = newPlayer(e.source, e.texture, e.presenter, e.profiler, cfg.Title)
	e.player.profiling = e.profilingEnabled
	e.player.onQuit = e.Quit
	e.player.onTitle = e.window.SetTitle
	e.player.updateTitle()

	e.window.SetResizeCallback(func(width, height int) {
		if err := e.presenter.Resize(width, height); err != nil {
			common.Logger().Warn("resize failed", "width", width, "height", height, "error", err)
		}
		e.player.invalidate()
	})
	e.window.SetKeyDownCallback(e.player.handleKey)
	e.window.SetKeyUpCallback(e.player.handleKeyUp)
	e.window.SetUpdateCallback(e.update)

	return e, nil
}

// init creates every component not supplied through options, in dependency order.
func (e *engine) init() error {
	backendType, _ := e.cfg.BackendType()

	if e.window == nil {
		api := window.ClientAPINone
		if backendType == gpu.BackendTypeGL {
			api = window.ClientAPIOpenGL
		}
		w, err := window.NewWindow(
			window.WithTitle(e.cfg.Title),
			window.WithWidth(e.cfg.WindowWidth),
			window.WithHeight(e.cfg.WindowHeight),
			window.WithClientAPI(api),
			window.WithVSync(e.cfg.VSync),
		)
		if err != nil {
			return err
		}
		e.window = w
	}

	// A created presenter would sample a new backend the supplied texture knows nothing about.
	if e.texture != nil && e.presenter == nil {
		return fmt.Errorf("a supplied texture needs a supplied presenter on the same backend: %w", texture.ErrInvalidArgument)
	}

	matrix, _ := presenter.ParseColorMatrix(e.cfg.ColorMatrix)
	presenterOptions := []presenter.PresenterBuilderOption{
		presenter.WithColorMatrix(matrix),
		presenter.WithFullRange(e.cfg.FullRange),
		presenter.WithFlip(e.cfg.Flip),
		presenter.WithLetterbox(e.cfg.Letterbox),
	}

	if e.texture == nil {
		switch backendType {
		case gpu.BackendTypeGL:
			b, err := gpu.NewGLBackend()
			if err != nil {
				return err
			}
			e.backend, e.release = b, b.Release
			if e.presenter == nil {
				p, err := presenter.NewGLPresenter(e.window.Width(), e.window.Height(), e.window.SwapBuffers, presenterOptions...)
				if err != nil {
					return fmt.Errorf("failed to create gl presenter: %w", err)
				}
				e.presenter = p
			}
		default:
			b, err := gpu.NewWGPUBackendForSurface(e.window.SurfaceDescriptor())
			if err != nil {
				return err
			}
			e.backend, e.release = b, b.Release
			if e.presenter == nil {
				p, err := presenter.NewWGPUPresenter(b, e.window.Width(), e.window.Height(), e.cfg.VSync, presenterOptions...)
				if err != nil {
					return fmt.Errorf("failed to create wgpu presenter: %w", err)
				}
				e.presenter = p
			}
		}
	}

	if e.texture == nil {
		filter, _ := e.cfg.FilterMode()
		tex, err := texture.NewTexture(e.backend, common.PixelFormatIYUV, common.TextureAccessStreaming, e.cfg.Width, e.cfg.Height,
			texture.WithFilter(filter, filter),
		)
		if err != nil {
			return fmt.Errorf("failed to create yuv texture: %w", err)
		}
		e.texture = tex
	}

	if e.source == nil {
		src, err := e.openSource()
		if err != nil {
			return err
		}
		e.source = src
	}
	if e.source.Width() != e.texture.Width() || e.source.Height() != e.texture.Height() {
		return fmt.Errorf("source is %dx%d but texture is %dx%d: %w",
			e.source.Width(), e.source.Height(), e.texture.Width(), e.texture.Height(), texture.ErrInvalidArgument)
	}
	return nil
}

func (e *engine) openSource() (source.Source, error) {
	if e.cfg.Input == "" {
		return source.NewPatternSource(e.cfg.Width, e.cfg.Height,
			source.WithWorkers(e.cfg.Workers),
			source.WithPatternAlignment(e.cfg.Align),
		)
	}
	return source.OpenFileSource(e.cfg.Input, e.cfg.Width, e.cfg.Height,
		source.WithLoop(e.cfg.Loop),
		source.WithRowAlignment(e.cfg.Align),
	)
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Texture() texture.Texture {
	return e.texture
}

func (e *engine) Presenter() presenter.Presenter {
	return e.presenter
}

func (e *engine) Run() error {
	e.running.Store(true)
	e.handle()
	e.window.ProcessMessages()

	e.signalQuit()
	e.wg.Wait()
	e.teardown()
	return e.err
}

// update runs once per window message loop iteration on the window thread.
func (e *engine) update() {
	select {
	case <-e.quitChannel:
		e.window.RequestClose()
		return
	default:
	}

	for n := e.droppedFrames.Swap(0); n > 0; n-- {
		e.profiler.Drop()
	}

	select {
	case <-e.frameChannel:
		if err := e.player.advance(); err != nil {
			e.fail(err)
			return
		}
	default:
	}

	if err := e.player.render(); err != nil {
		e.fail(err)
	}
}

func (e *engine) fail(err error) {
	common.Logger().Error("playback stopped", "error", err)
	e.err = err
	e.signalQuit()
	e.window.RequestClose()
}

// Quit signals all engine goroutines to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running.Store(false)
		close(e.quitChannel)
	})
}

// handle launches the frame pacing goroutine, tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(1)
	go e.handleFrames()
}

// handleFrames emits one frame tick per interval and listens for dynamic rate changes via
// frameRateChannel. A tick the window thread has not consumed yet is counted as dropped.
// Exits when the quit channel is closed.
func (e *engine) handleFrames() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.frameInterval)
	defer ticker.Stop()

	// Show the first frame immediately rather than one interval late.
	e.frameChannel <- struct{}{}

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			select {
			case e.frameChannel <- struct{}{}:
			default:
				e.droppedFrames.Add(1)
			}
		case newRate := <-e.frameRateChannel:
			ticker.Reset(newRate)
			e.frameInterval = newRate
		}
	}
}

// teardown releases everything the engine holds, in reverse creation order. Components may be nil when
// construction failed part way.
func (e *engine) teardown() {
	if e.source != nil {
		if err := e.source.Close(); err != nil {
			common.Logger().Warn("failed to close source", "error", err)
		}
	}
	if e.texture != nil {
		if err := e.texture.Destroy(); err != nil && !errors.Is(err, texture.ErrDestroyed) {
			common.Logger().Warn("failed to destroy texture", "error", err)
		}
	}
	if e.presenter != nil {
		e.presenter.Release()
	}
	if e.release != nil {
		e.release()
		e.release = nil
	}
	if e.window != nil {
		if err := e.window.Close(); err != nil {
			common.Logger().Debug("window close", "error", err)
		}
	}
}

// EnableProfiler enables playback statistics output to the logger.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
	if e.player != nil {
		e.player.profiling = true
	}
}

// DisableProfiler disables playback statistics output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
	if e.player != nil {
		e.player.profiling = false
	}
}

// SetFrameRate sets the playback rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetFrameRate(fps float64) {
	if fps <= 0 {
		fps = e.cfg.FPS
	}
	newRate := frameInterval(fps)

	if e.running.Load() {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.frameRateChannel <- newRate:
		default:
			select {
			case <-e.frameRateChannel:
			default:
			}
			e.frameRateChannel <- newRate
		}
	} else {
		e.frameInterval = newRate
	}
}

func frameInterval(fps float64) time.Duration {
	if fps <= 0 {
		fps = 30
	}
	return time.Duration(float64(time.Second) / fps)
}
