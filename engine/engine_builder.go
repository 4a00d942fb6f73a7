package engine

import (
	"github.com/Carmen-Shannon/oxy-yuv/engine/presenter"
	"github.com/Carmen-Shannon/oxy-yuv/engine/profiler"
	"github.com/Carmen-Shannon/oxy-yuv/engine/source"
	"github.com/Carmen-Shannon/oxy-yuv/engine/texture"
	"github.com/Carmen-Shannon/oxy-yuv/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables playback statistics, overriding the config.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfiler supplies the profiler statistics are collected in.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithWindow sets a custom configured window for the engine to use rather than allowing the engine
// to create and manage one internally. The engine still closes it on teardown.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithSource plays frames from s instead of the configured input. Its size must match the texture.
//
// Parameters:
//   - s: the frame source
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSource(s source.Source) EngineBuilderOption {
	return func(e *engine) {
		e.source = s
	}
}

// WithTexture uploads into t instead of creating a texture on the configured backend.
// The engine destroys it on teardown. It must be paired with WithPresenter, since only the caller knows
// which backend t lives on.
//
// Parameters:
//   - t: the YUV texture
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTexture(t texture.Texture) EngineBuilderOption {
	return func(e *engine) {
		e.texture = t
	}
}

// WithPresenter draws through p instead of creating a presenter for the configured backend.
// The engine releases it on teardown.
//
// Parameters:
//   - p: the presenter
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithPresenter(p presenter.Presenter) EngineBuilderOption {
	return func(e *engine) {
		e.presenter = p
	}
}
