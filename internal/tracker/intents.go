package tracker

import (
	"context"

	"go.uber.org/zap"

	"github.com/worktimer/worktimer/internal/models"
	"github.com/worktimer/worktimer/internal/reporter"
	"github.com/worktimer/worktimer/internal/settings"
	"github.com/worktimer/worktimer/internal/timer"
	"github.com/worktimer/worktimer/pkg/window"
)

// Settings is the user-adjustable part of the snapshot.
type Settings struct {
	ColorAlert         bool `json:"colorAlert"`
	AlertMinutes       int  `json:"alertMinutes"`
	AlwaysOnTop        bool `json:"alwaysOnTop"`
	StartMinimized     bool `json:"startMinimized"`
	OnboardingComplete bool `json:"onboardingComplete"`
}

// Snapshot is a read-only copy of the observable state.
type Snapshot struct {
	Elapsed      int64            `json:"elapsed"`
	Status       timer.Status     `json:"status"`
	TodayTotal   int64            `json:"todayTotal"`
	CurrentApp   string           `json:"currentApp"`
	Alerting     bool             `json:"alerting"`
	Matcher      string           `json:"matcher"`
	WorkApps     []models.WorkApp `json:"workApps"`
	Settings     Settings         `json:"settings"`
	SessionCount int              `json:"sessionCount"`
	SessionCap   int              `json:"sessionCap"`
}

func (s *Service) snapshot() Snapshot {
	cfg := s.state.Clone()
	return Snapshot{
		Elapsed:    s.machine.Elapsed(),
		Status:     s.machine.Status(),
		TodayTotal: cfg.TodayTotalSeconds,
		CurrentApp: s.machine.CurrentApp(),
		Alerting:   s.alerting,
		Matcher:    s.deps.Strategy.Name(),
		WorkApps:   cfg.WorkApps,
		Settings: Settings{
			ColorAlert:         cfg.ColorAlert,
			AlertMinutes:       cfg.AlertMinutes,
			AlwaysOnTop:        cfg.AlwaysOnTop,
			StartMinimized:     cfg.StartMinimized,
			OnboardingComplete: cfg.OnboardingComplete,
		},
		SessionCount: len(s.recorder.Sessions()),
		SessionCap:   s.recorder.Cap(),
	}
}

func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.exec(ctx, func() { snap = s.snapshot() })
	return snap, err
}

// Toggle stops a running timer or starts a manual one.
func (s *Service) Toggle(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.exec(ctx, func() {
		s.observe(s.machine.Toggle(s.now()), "toggle")
		s.publish()
		snap = s.snapshot()
	})
	return snap, err
}

// Reset stops a running timer, recording its session, and zeroes elapsed.
func (s *Service) Reset(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.exec(ctx, func() {
		s.observe(s.machine.Reset(s.now()), "reset")
		s.publish()
		snap = s.snapshot()
	})
	return snap, err
}

func (s *Service) AddApp(ctx context.Context, identity, label string) (models.WorkApp, error) {
	var (
		app    models.WorkApp
		addErr error
	)
	err := s.exec(ctx, func() {
		app, addErr = settings.AddApp(s.state, s.deps.Strategy, identity, label)
		if addErr != nil {
			s.logger.Info("work app rejected", zap.String("identity", identity), zap.Error(addErr))
			return
		}
		s.logger.Info("work app added", zap.String("identity", app.Identity), zap.String("label", app.Label))
		s.recorder.Save()
	})
	if err != nil {
		return models.WorkApp{}, err
	}
	return app, addErr
}

func (s *Service) RemoveApp(ctx context.Context, identity string) (models.WorkApp, error) {
	var (
		app       models.WorkApp
		removeErr error
	)
	err := s.exec(ctx, func() {
		app, removeErr = settings.RemoveApp(s.state, s.deps.Strategy, identity)
		if removeErr != nil {
			return
		}
		s.logger.Info("work app removed", zap.String("identity", app.Identity))
		s.recorder.Save()
	})
	if err != nil {
		return models.WorkApp{}, err
	}
	return app, removeErr
}

func (s *Service) UpdateSettings(ctx context.Context, patch models.SettingsPatch) (Snapshot, error) {
	var (
		snap     Snapshot
		applyErr error
	)
	err := s.exec(ctx, func() {
		if applyErr = settings.Apply(s.state, patch); applyErr != nil {
			return
		}
		if !patch.IsEmpty() {
			s.recorder.Save()
		}
		snap = s.snapshot()
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, applyErr
}

// Sessions returns up to limit sessions, newest first.
func (s *Service) Sessions(ctx context.Context, limit int) ([]models.Session, error) {
	var sessions []models.Session
	err := s.exec(ctx, func() { sessions = s.recorder.Latest(limit) })
	return sessions, err
}

// ClearSessions drops the session history and returns how many were removed.
func (s *Service) ClearSessions(ctx context.Context) (int, error) {
	var n int
	err := s.exec(ctx, func() {
		n = s.recorder.Clear()
		s.logger.Info("session history cleared", zap.Int("sessions", n))
	})
	return n, err
}

// TodayReport aggregates today's sessions per app.
func (s *Service) TodayReport(ctx context.Context) (*models.Report, error) {
	var report *models.Report
	err := s.exec(ctx, func() {
		report = reporter.Today(s.recorder.Sessions(), s.state.TodayTotalSeconds, s.now())
	})
	return report, err
}

// RunningApps lists candidate executables for the add-app picker. It does
// not touch timer state and needs no running loop.
func (s *Service) RunningApps() ([]window.RunningApp, error) {
	if s.deps.Lister == nil {
		return []window.RunningApp{}, nil
	}
	return s.deps.Lister.ListRunningApps()
}
