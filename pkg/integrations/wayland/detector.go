package wayland

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/worktimer/worktimer/pkg/integrations/process"
	"github.com/worktimer/worktimer/pkg/window"
)

// compositor process name -> backend
var compositors = map[string]string{
	"sway":        "sway",
	"Hyprland":    "hyprland",
	"gnome-shell": "gnome",
}

var lockers = []string{"swaylock", "waylock", "gtklock", "hyprlock", "gnome-screensaver-dialog"}

// Detector implements window.Detector for Wayland compositors that expose
// the focused window through their IPC tools.
type Detector struct {
	compositor string
	procs      *process.Resolver
}

func NewDetector(procs *process.Resolver) *Detector {
	d := &Detector{procs: procs, compositor: "unknown"}
	for name, backend := range compositors {
		if procs.AnyRunning(name) {
			d.compositor = backend
			break
		}
	}
	return d
}

func commandExists(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}

func (d *Detector) IsAvailable() bool {
	switch d.compositor {
	case "sway":
		return commandExists("swaymsg")
	case "hyprland":
		return commandExists("hyprctl")
	case "gnome":
		return commandExists("gdbus")
	default:
		return false
	}
}

func (d *Detector) GetDisplayServer() string {
	return "wayland"
}

func (d *Detector) GetFocusedWindow() (*window.WindowInfo, error) {
	var (
		info *window.WindowInfo
		err  error
	)

	switch d.compositor {
	case "sway":
		info, err = d.focusedSway()
	case "hyprland":
		info, err = d.focusedHyprland()
	case "gnome":
		info, err = d.focusedGnome()
	default:
		return nil, fmt.Errorf("unsupported wayland compositor: %s", d.compositor)
	}
	if err != nil {
		return nil, err
	}

	info.DisplayServer = "wayland"
	return info, nil
}

type swayNode struct {
	Name          string     `json:"name"`
	AppID         string     `json:"app_id"`
	PID           int32      `json:"pid"`
	Focused       bool       `json:"focused"`
	Nodes         []swayNode `json:"nodes"`
	FloatingNodes []swayNode `json:"floating_nodes"`
	WindowProps   struct {
		Class    string `json:"class"`
		Instance string `json:"instance"`
	} `json:"window_properties"`
}

func (d *Detector) focusedSway() (*window.WindowInfo, error) {
	output, err := exec.Command("swaymsg", "-t", "get_tree").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to execute swaymsg: %w", err)
	}
	return parseSwayTree(output)
}

func parseSwayTree(data []byte) (*window.WindowInfo, error) {
	var root swayNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse sway tree: %w", err)
	}

	node := findFocused(&root)
	if node == nil {
		return nil, fmt.Errorf("no focused sway node")
	}

	appName := node.AppID
	if appName == "" {
		appName = node.WindowProps.Class
	}
	return &window.WindowInfo{
		AppName:     appName,
		WindowTitle: node.Name,
		ProcessName: node.WindowProps.Instance,
		PID:         node.PID,
	}, nil
}

func findFocused(n *swayNode) *swayNode {
	if n.Focused && n.PID != 0 {
		return n
	}
	for i := range n.Nodes {
		if f := findFocused(&n.Nodes[i]); f != nil {
			return f
		}
	}
	for i := range n.FloatingNodes {
		if f := findFocused(&n.FloatingNodes[i]); f != nil {
			return f
		}
	}
	return nil
}

type hyprWindow struct {
	Class        string `json:"class"`
	Title        string `json:"title"`
	InitialClass string `json:"initialClass"`
	PID          int32  `json:"pid"`
}

func (d *Detector) focusedHyprland() (*window.WindowInfo, error) {
	output, err := exec.Command("hyprctl", "activewindow", "-j").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to execute hyprctl: %w", err)
	}
	return parseHyprlandWindow(output)
}

func parseHyprlandWindow(data []byte) (*window.WindowInfo, error) {
	var w hyprWindow
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to parse hyprctl output: %w", err)
	}
	if w.PID <= 0 && w.Title == "" {
		return nil, fmt.Errorf("no active hyprland window")
	}
	return &window.WindowInfo{
		AppName:     w.Class,
		WindowTitle: w.Title,
		ProcessName: w.InitialClass,
		PID:         w.PID,
	}, nil
}

const gnomeScript = `(function() {
	let w = global.display.get_focus_window();
	if (!w) return 'null';
	return JSON.stringify({wm_class: w.get_wm_class() || '', title: w.get_title() || '', pid: w.get_pid() || 0});
})()`

type gnomeWindow struct {
	WMClass string `json:"wm_class"`
	Title   string `json:"title"`
	PID     int32  `json:"pid"`
}

func (d *Detector) focusedGnome() (*window.WindowInfo, error) {
	output, err := exec.Command("gdbus", "call", "--session",
		"--dest", "org.gnome.Shell",
		"--object-path", "/org/gnome/Shell",
		"--method", "org.gnome.Shell.Eval",
		gnomeScript).Output()
	if err != nil {
		return nil, fmt.Errorf("failed to call org.gnome.Shell.Eval: %w", err)
	}
	return parseGnomeEval(string(output))
}

// parseGnomeEval decodes gdbus output of the form (true, '{"json":...}').
// Shell.Eval answers false when unsafe mode is disabled.
func parseGnomeEval(output string) (*window.WindowInfo, error) {
	output = strings.TrimSpace(output)
	if !strings.HasPrefix(output, "(true,") {
		return nil, fmt.Errorf("gnome shell eval refused")
	}

	start := strings.Index(output, "{")
	end := strings.LastIndex(output, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no focused gnome window")
	}
	payload := strings.ReplaceAll(output[start:end+1], `\"`, `"`)

	var w gnomeWindow
	if err := json.Unmarshal([]byte(payload), &w); err != nil {
		return nil, fmt.Errorf("failed to parse gnome window: %w", err)
	}
	return &window.WindowInfo{
		AppName:     w.WMClass,
		WindowTitle: w.Title,
		ProcessName: w.WMClass,
		PID:         w.PID,
	}, nil
}

// GetIdleInfo reports lock state only; Wayland has no portable idle query.
func (d *Detector) GetIdleInfo() (*window.IdleInfo, error) {
	return &window.IdleInfo{IsLocked: d.isScreenLocked()}, nil
}

func (d *Detector) isScreenLocked() bool {
	if d.procs.AnyRunning(lockers...) {
		return true
	}
	output, err := exec.Command("loginctl", "show-session", "-p", "LockedHint").Output()
	return err == nil && parseLockedHint(string(output))
}

func parseLockedHint(output string) bool {
	for _, line := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if ok && key == "LockedHint" {
			locked, _ := strconv.ParseBool(strings.Replace(value, "yes", "true", 1))
			return locked
		}
	}
	return false
}

func (d *Detector) Close() error {
	return nil
}
