package x11

import (
	"encoding/binary"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/screensaver"
	"github.com/jezek/xgb/xproto"

	"github.com/worktimer/worktimer/pkg/window"
)

// IdleThreshold is the input-idle time after which the session counts as idle.
const IdleThreshold = 300

var atomNames = []string{
	"_NET_ACTIVE_WINDOW",
	"_NET_WM_NAME",
	"_NET_WM_PID",
	"WM_NAME",
	"WM_CLASS",
	"UTF8_STRING",
}

// Detector implements window.Detector by talking to the X server directly.
// The connection is opened lazily and re-established after a failure.
type Detector struct {
	mu          sync.Mutex
	conn        *xgb.Conn
	root        xproto.Window
	atoms       map[string]xproto.Atom
	hasSaverExt bool
}

func NewDetector() *Detector {
	return &Detector{}
}

func (d *Detector) connect() error {
	if d.conn != nil {
		return nil
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return fmt.Errorf("failed to connect to X server: %w", err)
	}

	atoms := make(map[string]xproto.Atom, len(atomNames))
	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return fmt.Errorf("failed to intern atom %s: %w", name, err)
		}
		atoms[name] = reply.Atom
	}

	d.conn = conn
	d.root = xproto.Setup(conn).DefaultScreen(conn).Root
	d.atoms = atoms
	d.hasSaverExt = screensaver.Init(conn) == nil
	return nil
}

func (d *Detector) reset() {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}

// IsAvailable checks if an X server accepts connections
func (d *Detector) IsAvailable() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connect() == nil
}

func (d *Detector) GetDisplayServer() string {
	return "x11"
}

// GetFocusedWindow returns title, class and PID of the active window.
// ExecName is left for the caller to resolve from the PID.
func (d *Detector) GetFocusedWindow() (*window.WindowInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.connect(); err != nil {
		return nil, err
	}

	win, err := d.activeWindow()
	if err != nil {
		d.reset()
		return nil, err
	}

	instance, class := d.windowClass(win)
	appName := class
	if appName == "" {
		appName = instance
	}

	return &window.WindowInfo{
		AppName:       appName,
		WindowTitle:   d.windowName(win),
		ProcessName:   instance,
		PID:           int32(d.windowPID(win)),
		DisplayServer: "x11",
	}, nil
}

func (d *Detector) property(win xproto.Window, atom, atomType xproto.Atom, length uint32) ([]byte, error) {
	reply, err := xproto.GetProperty(d.conn, false, win, atom, atomType, 0, length).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

func (d *Detector) activeWindow() (xproto.Window, error) {
	for i := 0; i < 3; i++ {
		data, err := d.property(d.root, d.atoms["_NET_ACTIVE_WINDOW"], xproto.AtomWindow, 1)
		if err == nil && len(data) >= 4 {
			if win := xproto.Window(binary.LittleEndian.Uint32(data)); win != 0 && d.hasName(win) {
				return win, nil
			}
		}

		// window managers without EWMH: walk up from the input focus
		focus, err := xproto.GetInputFocus(d.conn).Reply()
		if err == nil && focus.Focus != 0 && focus.Focus != d.root {
			if top := d.topLevel(focus.Focus); top != 0 && d.hasName(top) {
				return top, nil
			}
		}

		time.Sleep(20 * time.Millisecond)
	}
	return 0, fmt.Errorf("no active x11 window")
}

func (d *Detector) topLevel(win xproto.Window) xproto.Window {
	for {
		reply, err := xproto.QueryTree(d.conn, win).Reply()
		if err != nil || reply.Parent == d.root || reply.Parent == 0 {
			return win
		}
		win = reply.Parent
	}
}

func (d *Detector) hasName(win xproto.Window) bool {
	if data, _ := d.property(win, d.atoms["_NET_WM_NAME"], d.atoms["UTF8_STRING"], 1); len(data) > 0 {
		return true
	}
	data, _ := d.property(win, d.atoms["WM_NAME"], xproto.AtomString, 1)
	return len(data) > 0
}

func (d *Detector) windowName(win xproto.Window) string {
	if data, err := d.property(win, d.atoms["_NET_WM_NAME"], d.atoms["UTF8_STRING"], 256); err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}
	if data, err := d.property(win, d.atoms["WM_NAME"], xproto.AtomString, 256); err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}
	return ""
}

func (d *Detector) windowClass(win xproto.Window) (instance, class string) {
	data, err := d.property(win, d.atoms["WM_CLASS"], xproto.AtomString, 256)
	if err != nil {
		return "", ""
	}
	return parseWMClass(data)
}

func (d *Detector) windowPID(win xproto.Window) uint32 {
	data, err := d.property(win, d.atoms["_NET_WM_PID"], xproto.AtomCardinal, 1)
	if err != nil || len(data) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(data)
}

// parseWMClass splits the raw WM_CLASS value, two NUL-terminated strings
func parseWMClass(data []byte) (instance, class string) {
	parts := strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
	if len(parts) >= 1 {
		instance = parts[0]
	}
	if len(parts) >= 2 {
		class = parts[1]
	}
	return instance, class
}

// GetIdleInfo uses the MIT-SCREEN-SAVER extension. An active screensaver is
// reported as locked.
func (d *Detector) GetIdleInfo() (*window.IdleInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.connect(); err != nil {
		return nil, err
	}
	if !d.hasSaverExt {
		return &window.IdleInfo{}, nil
	}

	reply, err := screensaver.QueryInfo(d.conn, xproto.Drawable(d.root)).Reply()
	if err != nil {
		d.reset()
		return nil, fmt.Errorf("failed to query screensaver: %w", err)
	}

	idle := int64(reply.MsSinceUserInput / 1000)
	return &window.IdleInfo{
		IsIdle:   idle > IdleThreshold,
		IsLocked: reply.State == screensaver.StateOn,
		IdleTime: idle,
	}, nil
}

func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset()
	return nil
}
