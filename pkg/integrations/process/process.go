// Package process resolves executables for PIDs and enumerates running
// applications using gopsutil.
package process

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	gproc "github.com/shirou/gopsutil/v3/process"

	"github.com/worktimer/worktimer/pkg/window"
)

// helper processes that never make sense as a work app
var blacklist = []string{
	"bash", "zsh", "fish", "sh", "dash", "tcsh", "ksh",
	"goa-daemon", "goa-identity-service", "gvfs", "dbus-daemon", "dbus-broker", "systemd",
	"pulseaudio", "pipewire", "wireplumber", "bluetoothd",
	"ssh-agent", "gpg-agent", "dconf-service", "xdg-desktop-portal",
}

// Resolver looks up executables by PID and lists running applications.
type Resolver struct {
	ctx context.Context
}

func NewResolver() *Resolver {
	return &Resolver{ctx: context.Background()}
}

// Executable returns the lowercase base name and full path of the executable
// running as pid. When the path cannot be read (another user's process,
// sandboxed apps) the kernel process name is used instead.
func (r *Resolver) Executable(pid int32) (name, path string, err error) {
	if pid <= 0 {
		return "", "", errors.Errorf("invalid pid %d", pid)
	}

	p, err := gproc.NewProcessWithContext(r.ctx, pid)
	if err != nil {
		return "", "", errors.Wrapf(err, "open process %d", pid)
	}

	if exe, exeErr := p.ExeWithContext(r.ctx); exeErr == nil && exe != "" {
		return ExecName(exe), exe, nil
	}

	comm, err := p.NameWithContext(r.ctx)
	if err != nil {
		return "", "", errors.Wrapf(err, "read name of process %d", pid)
	}
	return ExecName(comm), "", nil
}

// ListRunningApps returns one entry per distinct executable name, sorted by
// name. Processes whose executable cannot be read are skipped.
func (r *Resolver) ListRunningApps() ([]window.RunningApp, error) {
	procs, err := gproc.ProcessesWithContext(r.ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list processes")
	}

	seen := make(map[string]bool)
	apps := make([]window.RunningApp, 0, 64)
	for _, p := range procs {
		exe, err := p.ExeWithContext(r.ctx)
		if err != nil || exe == "" {
			continue
		}
		name := ExecName(exe)
		if seen[name] || isBlacklisted(name) {
			continue
		}
		seen[name] = true
		apps = append(apps, window.RunningApp{ExecName: name, Path: exe})
	}

	sort.Slice(apps, func(i, j int) bool {
		return apps[i].ExecName < apps[j].ExecName
	})
	return apps, nil
}

// AnyRunning reports whether a process with one of the given names exists.
func (r *Resolver) AnyRunning(names ...string) bool {
	procs, err := gproc.ProcessesWithContext(r.ctx)
	if err != nil {
		return false
	}
	for _, p := range procs {
		name, err := p.NameWithContext(r.ctx)
		if err != nil {
			continue
		}
		for _, want := range names {
			if name == want {
				return true
			}
		}
	}
	return false
}

// ExecName reduces an executable path to its lowercase base name.
func ExecName(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	// deleted binaries show up as "/usr/bin/foo (deleted)"
	path = strings.TrimSuffix(path, " (deleted)")
	return strings.ToLower(filepath.Base(path))
}

func isBlacklisted(name string) bool {
	for _, blocked := range blacklist {
		if name == blocked {
			return true
		}
	}
	return false
}
