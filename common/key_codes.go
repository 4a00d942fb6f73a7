package common

// Virtual key codes for the playback controls.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeySpace = 32  // Spacebar (ASCII), toggles pause
	KeyC     = 67  // C key (ASCII), cycles the color matrix
	KeyF     = 70  // F key (ASCII), toggles vertical flip
	KeyR     = 82  // R key (ASCII), toggles full/limited range
	KeyRight = 262 // Right arrow (GLFW), steps one frame while paused
	KeyEsc   = 256 // Escape key (GLFW)
)
