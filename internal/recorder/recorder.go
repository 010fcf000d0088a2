// Package recorder owns the session history and writes the full user state
// to the store after every change.
package recorder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/worktimer/worktimer/internal/models"
	"github.com/worktimer/worktimer/internal/monitoring"
)

const saveTimeout = 5 * time.Second

// Store persists the full user state.
type Store interface {
	Save(ctx context.Context, cfg models.UserConfig, sessions []models.Session) error
}

// Recorder appends sessions on stop transitions and keeps at most Cap of
// them, evicting the oldest first. Persistence failures are logged and
// absorbed; the in-memory state stays authoritative and the next save
// writes it in full.
type Recorder struct {
	store    Store
	cfg      *models.UserConfig
	sessions []models.Session
	cap      int
	logger   *zap.Logger
	metrics  *monitoring.Metrics

	newID       func() string
	lastSaveErr error
}

func New(store Store, cfg *models.UserConfig, sessions []models.Session, cap int, logger *zap.Logger, metrics *monitoring.Metrics) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Recorder{
		store:   store,
		cfg:     cfg,
		cap:     cap,
		logger:  logger,
		metrics: metrics,
		newID:   func() string { return uuid.NewString() },
	}
	r.sessions = r.retain(append([]models.Session(nil), sessions...))
	return r
}

// OnStop records a session of elapsed seconds attributed to appName.
// Nothing is recorded or written when elapsed is zero.
func (r *Recorder) OnStop(appName string, elapsed int64, now time.Time) (*models.Session, bool) {
	if elapsed <= 0 {
		return nil, false
	}

	session := models.NewSession(r.newID(), appName, elapsed, now)
	r.sessions = r.retain(append(r.sessions, session))
	if r.metrics != nil {
		r.metrics.SessionsRecorded.Inc()
	}

	r.logger.Info("session recorded",
		zap.String("app", appName),
		zap.Int64("duration", elapsed),
		zap.Int("history", len(r.sessions)))

	r.Save()
	return &session, true
}

func (r *Recorder) retain(sessions []models.Session) []models.Session {
	kept := models.RetainLatest(sessions, r.cap)
	if evicted := len(sessions) - len(kept); evicted > 0 {
		if r.metrics != nil {
			r.metrics.SessionsEvicted.Add(float64(evicted))
		}
		// copy so the evicted prefix can be collected
		kept = append(make([]models.Session, 0, len(kept)+1), kept...)
	}
	return kept
}

// Save writes the current config and history. It reports whether the write
// succeeded; failures never propagate further.
func (r *Recorder) Save() bool {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	err := r.store.Save(ctx, r.cfg.Clone(), r.Sessions())
	if err != nil {
		if r.metrics != nil {
			r.metrics.SaveFailures.Inc()
		}
		r.logger.Error("failed to save state", zap.Error(err))
	} else if r.lastSaveErr != nil {
		r.logger.Info("state saved after earlier failure")
	}
	r.lastSaveErr = err
	return err == nil
}

// Clear drops the whole history and saves.
func (r *Recorder) Clear() int {
	n := len(r.sessions)
	r.sessions = nil
	r.Save()
	return n
}

// Sessions returns a copy of the history, oldest first.
func (r *Recorder) Sessions() []models.Session {
	out := make([]models.Session, len(r.sessions))
	copy(out, r.sessions)
	return out
}

// Latest returns up to limit sessions, newest first. A non-positive limit
// returns all of them.
func (r *Recorder) Latest(limit int) []models.Session {
	n := len(r.sessions)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]models.Session, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, r.sessions[i])
	}
	return out
}

func (r *Recorder) Cap() int { return r.cap }
