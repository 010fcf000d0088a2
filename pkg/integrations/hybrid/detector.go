package hybrid

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/worktimer/worktimer/pkg/integrations/process"
	"github.com/worktimer/worktimer/pkg/integrations/wayland"
	"github.com/worktimer/worktimer/pkg/integrations/x11"
	"github.com/worktimer/worktimer/pkg/window"
)

// executableResolver maps a PID to its executable.
type executableResolver interface {
	Executable(pid int32) (name, path string, err error)
	ListRunningApps() ([]window.RunningApp, error)
}

// Detector combines a display-server window backend with process lookups:
// the window backend says which window is focused, the resolver says which
// executable owns it.
type Detector struct {
	windowDetector window.Detector
	procs          executableResolver
	logger         *zap.Logger
}

func NewDetector(logger *zap.Logger) (*Detector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	procs := process.NewResolver()

	d := &Detector{procs: procs, logger: logger}
	if windowDet := detectWindowDetector(procs); windowDet != nil {
		d.windowDetector = windowDet
		logger.Info("window detector initialized", zap.String("display_server", windowDet.GetDisplayServer()))
	} else {
		logger.Warn("no window detector available, foreground sampling will report nothing")
	}
	return d, nil
}

func detectWindowDetector(procs *process.Resolver) window.Detector {
	if os.Getenv("WAYLAND_DISPLAY") != "" || os.Getenv("XDG_SESSION_TYPE") == "wayland" {
		det := wayland.NewDetector(procs)
		if det.IsAvailable() {
			return det
		}
	}

	// XWayland also lands here when the compositor has no usable IPC
	if os.Getenv("DISPLAY") != "" {
		det := x11.NewDetector()
		if det.IsAvailable() {
			return det
		}
		det.Close()
	}

	return nil
}

func (d *Detector) IsAvailable() bool {
	return d.windowDetector != nil && d.windowDetector.IsAvailable()
}

func (d *Detector) GetDisplayServer() string {
	if d.windowDetector != nil {
		return d.windowDetector.GetDisplayServer()
	}
	return "unknown"
}

// GetFocusedWindow returns the focused window with ExecName and ExecPath
// filled in from its PID. A window whose PID cannot be resolved is still
// returned; ExecName is then empty.
func (d *Detector) GetFocusedWindow() (*window.WindowInfo, error) {
	if d.windowDetector == nil {
		return nil, fmt.Errorf("no window detector available")
	}

	info, err := d.windowDetector.GetFocusedWindow()
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("window detector returned no window")
	}

	if info.ExecName == "" && info.PID > 0 {
		name, path, err := d.procs.Executable(info.PID)
		if err != nil {
			d.logger.Debug("failed to resolve executable", zap.Int32("pid", info.PID), zap.Error(err))
		} else {
			info.ExecName = name
			info.ExecPath = path
		}
	}
	return info, nil
}

func (d *Detector) GetIdleInfo() (*window.IdleInfo, error) {
	if d.windowDetector == nil {
		return &window.IdleInfo{}, nil
	}
	return d.windowDetector.GetIdleInfo()
}

func (d *Detector) ListRunningApps() ([]window.RunningApp, error) {
	return d.procs.ListRunningApps()
}

func (d *Detector) Close() error {
	if d.windowDetector != nil {
		if err := d.windowDetector.Close(); err != nil {
			d.logger.Warn("error closing window detector", zap.Error(err))
		}
	}
	return nil
}
