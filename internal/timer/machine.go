// Package timer implements the Idle/Running/Paused work timer.
//
// A Machine is driven by two inputs per second: ElapsedTick advances the
// counters and checks the alert threshold, Observe feeds the matcher result
// for the current foreground sample. User intents (Toggle, Reset) and
// shutdown (Stop) are applied between ticks. The machine is not safe for
// concurrent use; the tracker owns it on a single goroutine.
package timer

import (
	"fmt"
	"time"

	"github.com/worktimer/worktimer/internal/models"
)

// ManualApp is the app name of a session started by the user rather than
// by a matched work app.
const ManualApp = "Manual"

type Status int

const (
	Idle Status = iota
	Running
	Paused
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = Idle
	case "running":
		*s = Running
	case "paused":
		*s = Paused
	default:
		return fmt.Errorf("unknown timer status %q", text)
	}
	return nil
}

// Recorder receives every stop transition.
type Recorder interface {
	OnStop(appName string, elapsed int64, now time.Time) (*models.Session, bool)
}

// Transition describes the effect of one input on the machine.
type Transition struct {
	From    Status
	To      Status
	App     string
	Session *models.Session // set when the transition recorded a session
}

func (t Transition) Changed() bool {
	return t.From != t.To
}

type Machine struct {
	cfg      *models.UserConfig
	recorder Recorder

	status  Status
	elapsed int64
	app     string
	manual  bool
}

// NewMachine returns an idle machine. cfg supplies the alert settings and
// receives the daily total; it is shared with the owner of the machine.
func NewMachine(cfg *models.UserConfig, recorder Recorder) *Machine {
	return &Machine{cfg: cfg, recorder: recorder}
}

func (m *Machine) Status() Status { return m.status }
func (m *Machine) Elapsed() int64 { return m.elapsed }

// CurrentApp is the app the running or last run session is attributed to.
func (m *Machine) CurrentApp() string {
	if m.manual {
		return ManualApp
	}
	return m.app
}

// ElapsedTick advances elapsed and today's total by one second while
// running. It reports whether an interval alert is due on this second.
func (m *Machine) ElapsedTick() bool {
	if m.status != Running {
		return false
	}
	m.elapsed++
	m.cfg.TodayTotalSeconds++

	if !m.cfg.ColorAlert {
		return false
	}
	interval := int64(m.cfg.AlertMinutes) * 60
	if interval <= 0 {
		return false
	}
	return m.elapsed%interval == 0
}

// Observe applies the match result of one foreground sample. A match starts
// an idle or paused timer; losing the match stops an automatically started
// one. A manual run is never stopped by sampling, and a running timer keeps
// its app when a different work app comes to the foreground.
func (m *Machine) Observe(app *models.WorkApp, now time.Time) Transition {
	switch {
	case app != nil && m.status != Running:
		return m.start(displayName(*app), false)
	case app == nil && m.status == Running && !m.manual:
		return m.stop(now)
	default:
		return Transition{From: m.status, To: m.status, App: m.CurrentApp()}
	}
}

// Toggle stops a running timer or starts a manual one.
func (m *Machine) Toggle(now time.Time) Transition {
	if m.status == Running {
		return m.stop(now)
	}
	return m.start("", true)
}

// Reset stops a running timer, recording its session, then zeroes elapsed.
func (m *Machine) Reset(now time.Time) Transition {
	from := m.status
	var session *models.Session
	if m.status == Running {
		session = m.stop(now).Session
	}
	m.elapsed = 0
	m.status = Idle
	m.app = ""
	m.manual = false
	return Transition{From: from, To: Idle, Session: session}
}

// Stop ends a running timer, used on shutdown.
func (m *Machine) Stop(now time.Time) Transition {
	if m.status != Running {
		return Transition{From: m.status, To: m.status, App: m.CurrentApp()}
	}
	return m.stop(now)
}

func (m *Machine) start(app string, manual bool) Transition {
	from := m.status
	m.status = Running
	m.app = app
	m.manual = manual
	return Transition{From: from, To: Running, App: m.CurrentApp()}
}

func (m *Machine) stop(now time.Time) Transition {
	m.status = Paused
	t := Transition{From: Running, To: Paused, App: m.CurrentApp()}
	if m.recorder != nil {
		if session, ok := m.recorder.OnStop(t.App, m.elapsed, now); ok {
			t.Session = session
		}
	}
	return t
}

func displayName(app models.WorkApp) string {
	if app.Label != "" {
		return app.Label
	}
	return app.Identity
}
