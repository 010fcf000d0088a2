// Package activity turns detector queries into the plain string samples the
// matcher consumes.
package activity

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/worktimer/worktimer/internal/matcher"
	"github.com/worktimer/worktimer/internal/models"
	"github.com/worktimer/worktimer/internal/monitoring"
	"github.com/worktimer/worktimer/pkg/window"
)

const errorLogTimeout = 2 * time.Second

// ErrorSink receives distinct platform failures.
type ErrorSink interface {
	CreateErrorLog(ctx context.Context, errorLog *models.ErrorLog) error
}

type Options struct {
	Source          matcher.Source
	PauseWhenLocked bool
	ErrorSink       ErrorSink
	Metrics         *monitoring.Metrics
	Logger          *zap.Logger
}

// Sampler reads the foreground window. It is not safe for concurrent use;
// the tracker calls it from its scheduler goroutine only.
type Sampler struct {
	detector window.Detector
	opts     Options
	logger   *zap.Logger

	lastFailure string
	locked      bool
}

func NewSampler(detector window.Detector, opts Options) *Sampler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sampler{detector: detector, opts: opts, logger: logger}
}

// Sample returns the title or executable name of the foreground window,
// depending on the configured source. It never fails: any platform error,
// panic, locked screen or unresolved executable yields "".
func (s *Sampler) Sample() (sample string) {
	defer func() {
		if r := recover(); r != nil {
			s.fail(fmt.Errorf("detector panic: %v", r))
			sample = ""
		}
	}()

	if s.opts.PauseWhenLocked && s.screenLocked() {
		return ""
	}

	info, err := s.detector.GetFocusedWindow()
	if err != nil {
		s.fail(err)
		return ""
	}
	if info == nil {
		s.fail(fmt.Errorf("detector returned no window"))
		return ""
	}
	s.lastFailure = ""

	switch s.opts.Source {
	case matcher.SourceExecutable:
		return info.ExecName
	default:
		return info.WindowTitle
	}
}

func (s *Sampler) screenLocked() bool {
	idle, err := s.detector.GetIdleInfo()
	locked := err == nil && idle != nil && idle.IsLocked
	if locked != s.locked {
		s.logger.Info("screen lock changed", zap.Bool("locked", locked))
		s.locked = locked
	}
	return locked
}

// fail logs a failure once per distinct message until a sample succeeds.
func (s *Sampler) fail(err error) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.SampleErrors.Inc()
	}

	msg := err.Error()
	if msg == s.lastFailure {
		return
	}
	s.lastFailure = msg
	s.logger.Debug("foreground sample failed", zap.Error(err))

	if s.opts.ErrorSink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), errorLogTimeout)
	defer cancel()
	entry := &models.ErrorLog{Timestamp: time.Now(), Source: "sampler", ErrorMsg: msg}
	if err := s.opts.ErrorSink.CreateErrorLog(ctx, entry); err != nil {
		s.logger.Warn("failed to store error log", zap.Error(err))
	}
}
