package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/worktimer/worktimer/internal/activity"
	"github.com/worktimer/worktimer/internal/client"
	"github.com/worktimer/worktimer/internal/config"
	"github.com/worktimer/worktimer/internal/daemon"
	"github.com/worktimer/worktimer/internal/database"
	"github.com/worktimer/worktimer/internal/logging"
	"github.com/worktimer/worktimer/internal/monitoring"
	"github.com/worktimer/worktimer/internal/tracker"
	"github.com/worktimer/worktimer/internal/web"
	"github.com/worktimer/worktimer/pkg/detector"
)

const (
	startupWait     = 5 * time.Second
	shutdownTimeout = 10 * time.Second
)

func newStartCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the timer daemon in the background",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}

			dm := daemon.New(cfg.Daemon.PIDFile)
			running, pid, err := dm.IsRunning()
			if err != nil {
				return fmt.Errorf("failed to check daemon status: %w", err)
			}
			if running {
				return fmt.Errorf("daemon is already running (PID: %d)", pid)
			}

			args := []string{"run"}
			if c.configPath != "" {
				args = append(args, "--config", c.configPath)
			}
			pid, err = daemon.Spawn(args, cfg.Daemon.LogFile)
			if err != nil {
				return err
			}

			if err := waitHealthy(commandContext(cmd), cfg, startupWait); err != nil {
				return fmt.Errorf("daemon (PID %d) did not come up, see %s: %w", pid, cfg.Daemon.LogFile, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Daemon started (PID: %d)\n", pid)
			fmt.Fprintf(out, "API:  %s\n", cfg.BaseURL())
			fmt.Fprintf(out, "Logs: %s\n", cfg.Daemon.LogFile)
			return nil
		},
	}
}

func waitHealthy(ctx context.Context, cfg *config.Config, wait time.Duration) error {
	cl := client.New(cfg.BaseURL(), nil).SetTimeout(probeTimeout)
	deadline := time.Now().Add(wait)
	for {
		err := cl.Health(ctx)
		if err == nil || time.Now().After(deadline) {
			return err
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func newRunCmd(c *cli) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the timer daemon in the foreground",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if port > 0 {
				if err := cfg.SetWebPort(port); err != nil {
					return err
				}
			}

			var bell io.Writer
			if !daemon.IsChild() {
				bell = cmd.ErrOrStderr()
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runDaemon(ctx, cfg, bell)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "override the API port")
	return cmd
}

func runDaemon(ctx context.Context, cfg *config.Config, bell io.Writer) error {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		File:        cfg.Logging.File,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	dm := daemon.New(cfg.Daemon.PIDFile)
	if running, pid, _ := dm.IsRunning(); running && pid != os.Getpid() {
		return fmt.Errorf("daemon is already running (PID: %d)", pid)
	}

	strategy, err := cfg.Strategy()
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Initialize(); err != nil {
		return err
	}
	repo := database.NewRepository(db)

	src, err := detector.New(logger)
	if err != nil {
		return fmt.Errorf("failed to initialize window detector: %w", err)
	}
	defer src.Close()

	metrics := monitoring.NewMetrics()
	sampler := activity.NewSampler(src, activity.Options{
		Source:          strategy.Source(),
		PauseWhenLocked: cfg.Tracker.PauseWhenLocked,
		ErrorSink:       repo,
		Metrics:         metrics,
		Logger:          logger.Named("sampler"),
	})

	svc := tracker.NewService(cfg, tracker.Deps{
		Store:    repo,
		Sampler:  sampler,
		Lister:   src,
		Strategy: strategy,
		Alerter:  newNotifyAlerter(logger, bell),
		Logger:   logger.Named("tracker"),
		Metrics:  metrics,
	})
	server := web.NewServer(cfg, svc, metrics, logger.Named("web"))

	webErr, err := server.Start()
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("error shutting down web server", zap.Error(err))
		}
	}()

	if err := dm.WritePID(); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	defer func() { _ = dm.RemovePID() }()

	logger.Info("starting worktimer daemon", zap.String("api", cfg.BaseURL()))
	logger.Debug(cfg.String())

	trackerErr := make(chan error, 1)
	go func() { trackerErr <- svc.Start(ctx) }()

	select {
	case err := <-trackerErr:
		if err != nil && err != context.Canceled {
			return fmt.Errorf("tracker error: %w", err)
		}
	case err := <-webErr:
		svc.Stop()
		<-svc.Done()
		if err != nil {
			return fmt.Errorf("web server error: %w", err)
		}
	}

	logger.Info("daemon stopped")
	return nil
}

func newStopCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the timer daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}

			dm := daemon.New(cfg.Daemon.PIDFile)
			running, pid, err := dm.IsRunning()
			if err != nil {
				return fmt.Errorf("failed to check daemon status: %w", err)
			}
			if !running {
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon is not running")
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Stopping daemon (PID: %d)...\n", pid)
			if err := dm.Stop(shutdownTimeout); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopped")
			return nil
		},
	}
}
