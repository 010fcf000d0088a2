package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/worktimer/worktimer/internal/client"
	"github.com/worktimer/worktimer/internal/daemon"
	"github.com/worktimer/worktimer/internal/database"
	"github.com/worktimer/worktimer/internal/matcher"
	"github.com/worktimer/worktimer/internal/models"
	"github.com/worktimer/worktimer/internal/settings"
)

const probeTimeout = 2 * time.Second

var errDaemonRequired = errors.New("the daemon is not running; start it with `" + appName + " start`")

// remote returns a client when a daemon answers and nil when none is
// running. A live PID without a reachable API is an error: editing the
// database behind the daemon's back would be overwritten on its next save.
func (c *cli) remote(ctx context.Context) (*client.Client, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}

	cl := client.New(cfg.BaseURL(), nil).SetTimeout(probeTimeout)
	err = cl.Health(ctx)
	if err == nil {
		return cl, nil
	}
	if !errors.Is(err, client.ErrUnavailable) {
		return nil, err
	}

	running, pid, _ := daemon.New(cfg.Daemon.PIDFile).IsRunning()
	if running {
		return nil, fmt.Errorf("daemon (PID %d) is running but %s does not answer", pid, cfg.BaseURL())
	}
	return nil, nil
}

// store is direct database access for when no daemon owns the state.
type store struct {
	db       *database.DB
	repo     *database.Repository
	strategy matcher.Strategy
	cap      int
}

func (c *cli) openStore() (*store, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	strategy, err := cfg.Strategy()
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := db.Initialize(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &store{
		db:       db,
		repo:     database.NewRepository(db),
		strategy: strategy,
		cap:      cfg.EffectiveSessionCap(strategy),
	}, nil
}

func (s *store) Close() error {
	return s.db.Close()
}

func (s *store) load(ctx context.Context) (models.UserConfig, []models.Session, error) {
	cfg, sessions, err := s.repo.Load(ctx)
	if err != nil {
		return cfg, nil, err
	}
	settings.Sanitize(&cfg, s.strategy)
	return cfg, sessions, nil
}

// edit applies fn to the persisted config and saves it with the history
// trimmed to the session cap.
func (s *store) edit(ctx context.Context, fn func(*models.UserConfig) error) (models.UserConfig, error) {
	cfg, sessions, err := s.load(ctx)
	if err != nil {
		return cfg, err
	}
	if err := fn(&cfg); err != nil {
		return cfg, err
	}
	return cfg, s.repo.Save(ctx, cfg, models.RetainLatest(sessions, s.cap))
}

// withStore opens the database for the duration of fn.
func (c *cli) withStore(fn func(*store) error) error {
	s, err := c.openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}
