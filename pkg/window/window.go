package window

// WindowInfo describes the window that currently has input focus
type WindowInfo struct {
	AppName       string
	WindowTitle   string
	ProcessName   string
	PID           int32
	ExecName      string // lowercase base name of the owning executable
	ExecPath      string
	DisplayServer string // "x11" or "wayland"
}

// IdleInfo represents system idle/lock state
type IdleInfo struct {
	IsIdle   bool
	IsLocked bool
	IdleTime int64 // seconds since last input
}

// RunningApp is one user-visible executable offered in the "add work app" picker
type RunningApp struct {
	ExecName string `json:"exec_name"`
	Path     string `json:"path"`
}

// Detector is implemented by every foreground-window backend
type Detector interface {
	// GetFocusedWindow returns the focused window, or an error when the
	// platform cannot be queried
	GetFocusedWindow() (*WindowInfo, error)

	GetIdleInfo() (*IdleInfo, error)

	// IsAvailable checks if this detector can run on the current system
	IsAvailable() bool

	GetDisplayServer() string

	Close() error
}

// AppLister enumerates running executables, deduplicated by name
type AppLister interface {
	ListRunningApps() ([]RunningApp, error)
}
