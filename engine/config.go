package engine

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Carmen-Shannon/oxy-yuv/common"
	"github.com/Carmen-Shannon/oxy-yuv/engine/gpu"
	"github.com/Carmen-Shannon/oxy-yuv/engine/presenter"
)

// Config describes one playback session. It is usually decoded from a TOML file with LoadConfig and then
// adjusted from command line flags.
type Config struct {
	// Backend is "wgpu" or "gl".
	Backend string `toml:"backend"`

	// Input is a raw I420 file. Empty plays the built-in test pattern.
	Input string `toml:"input"`

	// Width and Height are the luma size of the frames.
	Width  int `toml:"width"`
	Height int `toml:"height"`

	// FPS is the playback rate.
	FPS float64 `toml:"fps"`

	// Loop restarts the input at its end; otherwise the last frame stays on screen.
	Loop bool `toml:"loop"`

	// Align pads each source row to a multiple of this many bytes before upload.
	Align int `toml:"align"`

	// ColorMatrix is "bt709" or "bt601".
	ColorMatrix string `toml:"color_matrix"`
	FullRange   bool   `toml:"full_range"`
	Flip        bool   `toml:"flip"`
	Letterbox   bool   `toml:"letterbox"`

	// Filter is "linear" or "nearest".
	Filter string `toml:"filter"`

	// Workers is the number of row bands the test pattern is rendered in.
	Workers int `toml:"workers"`

	Title        string `toml:"title"`
	WindowWidth  int    `toml:"window_width"`
	WindowHeight int    `toml:"window_height"`
	VSync        bool   `toml:"vsync"`
	Profiling    bool   `toml:"profiling"`
}

// DefaultConfig returns the settings used for keys a config file leaves out.
//
// Returns:
//   - Config: the default configuration
func DefaultConfig() Config {
	return Config{
		Backend:      gpu.BackendTypeWGPU.String(),
		Width:        1280,
		Height:       720,
		FPS:          30,
		Loop:         true,
		Align:        1,
		ColorMatrix:  presenter.ColorMatrixBT709.String(),
		Letterbox:    true,
		Filter:       "linear",
		Workers:      4,
		Title:        "YUV Player",
		WindowWidth:  1280,
		WindowHeight: 720,
		VSync:        true,
	}
}

// LoadConfig decodes a TOML file over DefaultConfig. Unknown keys are logged and ignored.
//
// Parameters:
//   - path: the config file
//
// Returns:
//   - Config: the decoded and validated configuration
//   - error: an error if the file could not be read, parsed or failed validation
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("couldn't read config file %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		common.Logger().Warn("unknown config key", "path", path, "key", key.String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as TOML.
//
// Parameters:
//   - path: the destination file
//   - cfg: the configuration to write
//
// Returns:
//   - error: an error if encoding or writing failed
func SaveConfig(path string, cfg Config) error {
	var buffer bytes.Buffer
	if err := toml.NewEncoder(&buffer).Encode(cfg); err != nil {
		return fmt.Errorf("couldn't encode config: %w", err)
	}
	if err := os.WriteFile(path, buffer.Bytes(), 0o644); err != nil {
		return fmt.Errorf("couldn't write config file %s: %w", path, err)
	}
	return nil
}

// Validate checks every field and reports all problems at once.
//
// Returns:
//   - error: nil if the configuration is usable
func (c Config) Validate() error {
	var errs []error
	if _, ok := c.BackendType(); !ok {
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid frame size %dx%d", c.Width, c.Height))
	}
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps must be positive, got %g", c.FPS))
	}
	if c.Align < 1 {
		errs = append(errs, fmt.Errorf("align must be at least 1, got %d", c.Align))
	}
	if _, ok := presenter.ParseColorMatrix(c.ColorMatrix); !ok {
		errs = append(errs, fmt.Errorf("unknown color matrix %q", c.ColorMatrix))
	}
	if _, ok := c.FilterMode(); !ok {
		errs = append(errs, fmt.Errorf("unknown filter %q", c.Filter))
	}
	if c.WindowWidth <= 0 || c.WindowHeight <= 0 {
		errs = append(errs, fmt.Errorf("invalid window size %dx%d", c.WindowWidth, c.WindowHeight))
	}
	return errors.Join(errs...)
}

// BackendType maps the Backend name.
//
// Returns:
//   - gpu.BackendType: the backend
//   - bool: false if the name is unknown
func (c Config) BackendType() (gpu.BackendType, bool) {
	switch strings.ToLower(c.Backend) {
	case "wgpu", "webgpu", "":
		return gpu.BackendTypeWGPU, true
	case "gl", "opengl":
		return gpu.BackendTypeGL, true
	}
	return gpu.BackendTypeWGPU, false
}

// FilterMode maps the Filter name.
//
// Returns:
//   - gpu.FilterMode: the sampling filter
//   - bool: false if the name is unknown
func (c Config) FilterMode() (gpu.FilterMode, bool) {
	switch strings.ToLower(c.Filter) {
	case "linear", "":
		return gpu.FilterLinear, true
	case "nearest":
		return gpu.FilterNearest, true
	}
	return gpu.FilterLinear, false
}
