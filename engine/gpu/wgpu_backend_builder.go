package gpu

// WGPUBackendOption is a functional option applied to a WGPUBackend during construction.
type WGPUBackendOption func(*WGPUBackend)

// WithLabelPrefix sets the prefix prepended to every GPU object label the backend creates.
//
// Parameters:
//   - prefix: the label prefix
//
// Returns:
//   - WGPUBackendOption: option function to apply
func WithLabelPrefix(prefix string) WGPUBackendOption {
	return func(b *WGPUBackend) {
		b.labelPrefix = prefix
	}
}

// WithForceFallbackAdapter requests the software fallback adapter when the backend creates its own device.
// It has no effect on NewWGPUBackend, which wraps an existing device.
//
// Parameters:
//   - force: true to force the fallback adapter
//
// Returns:
//   - WGPUBackendOption: option function to apply
func WithForceFallbackAdapter(force bool) WGPUBackendOption {
	return func(b *WGPUBackend) {
		b.forceFallbackAdapter = force
	}
}
