package tracker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/worktimer/worktimer/internal/config"
	"github.com/worktimer/worktimer/internal/matcher"
	"github.com/worktimer/worktimer/internal/models"
	"github.com/worktimer/worktimer/internal/monitoring"
	"github.com/worktimer/worktimer/internal/recorder"
	"github.com/worktimer/worktimer/internal/settings"
	"github.com/worktimer/worktimer/internal/timer"
	"github.com/worktimer/worktimer/pkg/window"
)

const (
	// tickInterval is fixed: every tick adds exactly one second to the timer.
	tickInterval = time.Second
	// alertRevert is how long the snapshot reports alerting after an alert.
	alertRevert = 2 * time.Second
)

var (
	ErrNotRunning     = errors.New("tracker is not running")
	ErrAlreadyRunning = errors.New("tracker is already running")
)

// Store loads and saves the full user state.
type Store interface {
	Load(ctx context.Context) (models.UserConfig, []models.Session, error)
	Save(ctx context.Context, cfg models.UserConfig, sessions []models.Session) error
}

// Sampler returns the identifying string of the foreground app, or "".
type Sampler interface {
	Sample() string
}

// Alerter is notified when an interval alert fires. It must not block.
type Alerter interface {
	Alert(app string, elapsed int64)
}

type Deps struct {
	Store    Store
	Sampler  Sampler
	Lister   window.AppLister
	Strategy matcher.Strategy
	Alerter  Alerter
	Logger   *zap.Logger
	Metrics  *monitoring.Metrics
}

// Service runs the scheduler loop. All timer state is owned by the loop
// goroutine; intents are sent to it as closures and run between ticks.
type Service struct {
	config   *config.Config
	deps     Deps
	logger   *zap.Logger
	now      func() time.Time
	interval time.Duration

	intents  chan func()
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	ready    chan struct{}
	started  atomic.Bool
	running  atomic.Bool

	// loop-owned
	state    *models.UserConfig
	machine  *timer.Machine
	recorder *recorder.Recorder
	alerting bool
	revert   *time.Timer
}

func NewService(cfg *config.Config, deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = monitoring.NewMetrics()
	}
	return &Service{
		config:   cfg,
		deps:     deps,
		logger:   deps.Logger,
		now:      time.Now,
		interval: tickInterval,
		intents:  make(chan func()),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
		ready:    make(chan struct{}),
	}
}

// Start loads the persisted state and runs the loop until ctx is done or
// Stop is called. On exit a running timer is stopped, recording its
// session, and the state is saved. A Service can be started once.
func (s *Service) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	s.running.Store(true)
	defer func() {
		s.running.Store(false)
		close(s.done)
	}()

	if err := s.load(ctx); err != nil {
		return err
	}
	close(s.ready)

	s.logger.Info("tracker started",
		zap.String("matcher", s.deps.Strategy.Name()),
		zap.Duration("tick", s.interval),
		zap.Int("work_apps", len(s.state.WorkApps)),
		zap.Int("session_cap", s.recorder.Cap()))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			s.logger.Info("tracker stopped by context")
			return ctx.Err()

		case <-s.stopChan:
			s.shutdown()
			s.logger.Info("tracker stopped")
			return nil

		case fn := <-s.intents:
			fn()

		case <-ticker.C:
			s.tick()

		case <-s.revertC():
			s.alerting = false
			s.revert = nil
		}
	}
}

func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *Service) IsRunning() bool {
	return s.running.Load()
}

// Ready is closed once the persisted state is loaded and intents are served.
func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

// Done is closed when Start has returned.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

func (s *Service) load(ctx context.Context) error {
	cfg, sessions, err := s.deps.Store.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load state")
	}

	settings.Sanitize(&cfg, s.deps.Strategy)
	rolled := settings.RollOver(&cfg, s.now())

	s.state = &cfg
	s.recorder = recorder.New(s.deps.Store, s.state, sessions,
		s.config.EffectiveSessionCap(s.deps.Strategy), s.logger, s.deps.Metrics)
	s.machine = timer.NewMachine(s.state, s.recorder)

	if rolled {
		s.logger.Info("new day, today's total reset", zap.String("date", cfg.LastActiveDate))
		s.recorder.Save()
	}
	s.publish()
	return nil
}

// tick runs the Elapsed Tick, then the Monitor Tick.
func (s *Service) tick() {
	s.deps.Metrics.Ticks.Inc()

	if s.machine.ElapsedTick() {
		s.fireAlert()
	}

	sample := s.deps.Sampler.Sample()
	var match *models.WorkApp
	if app, ok := s.deps.Strategy.Match(sample, s.state.WorkApps); ok {
		match = &app
	}
	s.deps.Metrics.ObserveSample(match != nil)

	s.observe(s.machine.Observe(match, s.now()), "monitor")
	s.publish()
}

func (s *Service) fireAlert() {
	app := s.machine.CurrentApp()
	elapsed := s.machine.Elapsed()

	s.deps.Metrics.Alerts.Inc()
	s.logger.Info("interval alert", zap.String("app", app), zap.Int64("elapsed", elapsed))
	if s.deps.Alerter != nil {
		s.deps.Alerter.Alert(app, elapsed)
	}

	s.alerting = true
	if s.revert != nil {
		s.revert.Stop()
	}
	s.revert = time.NewTimer(alertRevert)
}

func (s *Service) revertC() <-chan time.Time {
	if s.revert == nil {
		return nil
	}
	return s.revert.C
}

func (s *Service) observe(t timer.Transition, cause string) {
	if !t.Changed() {
		return
	}
	s.deps.Metrics.ObserveTransition(t.To.String(), cause)

	fields := []zap.Field{
		zap.Stringer("from", t.From),
		zap.Stringer("to", t.To),
		zap.String("app", t.App),
		zap.String("cause", cause),
	}
	if t.Session != nil {
		fields = append(fields, zap.Int64("session_duration", t.Session.Duration))
	}
	s.logger.Info("timer transition", fields...)
}

func (s *Service) publish() {
	s.deps.Metrics.SetTimer(s.machine.Elapsed(), s.state.TodayTotalSeconds, s.machine.Status() == timer.Running)
}

func (s *Service) shutdown() {
	if s.revert != nil {
		s.revert.Stop()
	}
	s.observe(s.machine.Stop(s.now()), "shutdown")
	s.recorder.Save()
	s.publish()
}

// exec runs fn on the loop goroutine and waits for it to finish.
func (s *Service) exec(ctx context.Context, fn func()) error {
	if !s.running.Load() {
		return ErrNotRunning
	}

	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}

	select {
	case s.intents <- task:
	case <-s.done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}

	<-finished
	return nil
}
