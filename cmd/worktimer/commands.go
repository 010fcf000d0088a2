package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/worktimer/worktimer/internal/client"
	"github.com/worktimer/worktimer/internal/models"
	"github.com/worktimer/worktimer/internal/reporter"
	"github.com/worktimer/worktimer/internal/settings"
	"github.com/worktimer/worktimer/internal/tracker"
	"github.com/worktimer/worktimer/internal/version"
	"github.com/worktimer/worktimer/pkg/detector"
	"github.com/worktimer/worktimer/pkg/window"
)

const defaultSessionLimit = 20

func newStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the timer state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			cl, err := c.remote(ctx)
			if err != nil {
				return err
			}
			if cl != nil {
				snap, err := cl.Status(ctx)
				if err != nil {
					return err
				}
				return c.output(cmd, snap, func() string { return renderSnapshot(snap) })
			}

			return c.withStore(func(s *store) error {
				cfg, _, err := s.load(ctx)
				if err != nil {
					return err
				}
				out := map[string]any{"running": false, "todayTotal": cfg.TodayTotalSeconds, "lastActiveDate": cfg.LastActiveDate, "workApps": cfg.WorkApps}
				return c.output(cmd, out, func() string { return renderOffline(cfg, s.strategy.Name()) })
			})
		},
	}
}

// snapshotCmd builds a command that only a running daemon can serve.
func snapshotCmd(c *cli, use, short string, call func(*client.Client, context.Context) (tracker.Snapshot, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			cl, err := c.remote(ctx)
			if err != nil {
				return err
			}
			if cl == nil {
				return errDaemonRequired
			}
			snap, err := call(cl, ctx)
			if err != nil {
				return err
			}
			return c.output(cmd, snap, func() string { return renderSnapshot(snap) })
		},
	}
}

func newToggleCmd(c *cli) *cobra.Command {
	return snapshotCmd(c, "toggle", "Stop a running timer or start it manually", (*client.Client).Toggle)
}

func newResetCmd(c *cli) *cobra.Command {
	return snapshotCmd(c, "reset", "Stop the timer, record the session and zero it", (*client.Client).Reset)
}

func newAppsCmd(c *cli) *cobra.Command {
	apps := &cobra.Command{Use: "apps", Short: "Manage work apps"}

	apps.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered work apps",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			cl, err := c.remote(ctx)
			if err != nil {
				return err
			}

			var list []models.WorkApp
			if cl != nil {
				if list, err = cl.Apps(ctx); err != nil {
					return err
				}
			} else {
				err = c.withStore(func(s *store) error {
					cfg, _, err := s.load(ctx)
					list = cfg.WorkApps
					return err
				})
				if err != nil {
					return err
				}
			}
			return c.output(cmd, list, func() string { return renderApps(list) })
		},
	})

	var label string
	add := &cobra.Command{
		Use:   "add <identity>",
		Short: "Register a work app by keyword or executable name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			cl, err := c.remote(ctx)
			if err != nil {
				return err
			}

			var app models.WorkApp
			if cl != nil {
				app, err = cl.AddApp(ctx, args[0], label)
			} else {
				err = c.withStore(func(s *store) error {
					_, err := s.edit(ctx, func(cfg *models.UserConfig) error {
						var addErr error
						app, addErr = settings.AddApp(cfg, s.strategy, args[0], label)
						return addErr
					})
					return err
				})
			}
			if err != nil {
				return err
			}
			return c.output(cmd, app, func() string {
				return fmt.Sprintf("Added %s (%s)", app.Identity, app.Label)
			})
		},
	}
	add.Flags().StringVar(&label, "label", "", "display name (default derived from the identity)")
	apps.AddCommand(add)

	apps.AddCommand(&cobra.Command{
		Use:   "remove <identity>",
		Short: "Unregister a work app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			cl, err := c.remote(ctx)
			if err != nil {
				return err
			}

			var app models.WorkApp
			if cl != nil {
				app, err = cl.RemoveApp(ctx, args[0])
			} else {
				err = c.withStore(func(s *store) error {
					_, err := s.edit(ctx, func(cfg *models.UserConfig) error {
						var removeErr error
						app, removeErr = settings.RemoveApp(cfg, s.strategy, args[0])
						return removeErr
					})
					return err
				})
			}
			if err != nil {
				return err
			}
			return c.output(cmd, app, func() string { return "Removed " + app.Identity })
		},
	})

	apps.AddCommand(&cobra.Command{
		Use:   "running",
		Short: "List running applications that can be added",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			cl, err := c.remote(ctx)
			if err != nil {
				return err
			}

			var running []window.RunningApp
			if cl != nil {
				running, err = cl.RunningApps(ctx)
			} else {
				running, err = listRunningApps()
			}
			if err != nil {
				return err
			}
			return c.output(cmd, running, func() string { return renderRunningApps(running) })
		},
	})

	return apps
}

func listRunningApps() ([]window.RunningApp, error) {
	src, err := detector.New(nil)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return src.ListRunningApps()
}

func newSettingsCmd(c *cli) *cobra.Command {
	var (
		colorAlert, alwaysOnTop, startMinimized, onboarded bool
		alertMinutes                                       int
	)

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change alert and window settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			var patch models.SettingsPatch
			if flags.Changed("color-alert") {
				patch.ColorAlert = &colorAlert
			}
			if flags.Changed("alert-minutes") {
				patch.AlertMinutes = &alertMinutes
			}
			if flags.Changed("always-on-top") {
				patch.AlwaysOnTop = &alwaysOnTop
			}
			if flags.Changed("start-minimized") {
				patch.StartMinimized = &startMinimized
			}
			if flags.Changed("onboarding-complete") {
				patch.OnboardingComplete = &onboarded
			}

			ctx := commandContext(cmd)
			cl, err := c.remote(ctx)
			if err != nil {
				return err
			}

			var current tracker.Settings
			if cl != nil {
				var snap tracker.Snapshot
				if patch.IsEmpty() {
					snap, err = cl.Status(ctx)
				} else {
					snap, err = cl.UpdateSettings(ctx, patch)
				}
				if err != nil {
					return err
				}
				current = snap.Settings
			} else {
				err = c.withStore(func(s *store) error {
					cfg, err := s.edit(ctx, func(cfg *models.UserConfig) error {
						return settings.Apply(cfg, patch)
					})
					current = settingsOf(cfg)
					return err
				})
				if err != nil {
					return err
				}
			}
			return c.output(cmd, current, func() string { return renderSettings(current) })
		},
	}

	f := cmd.Flags()
	f.BoolVar(&colorAlert, "color-alert", true, "flash the timer at each alert interval")
	f.IntVar(&alertMinutes, "alert-minutes", models.DefaultAlertMinutes,
		fmt.Sprintf("alert interval in minutes (%d-%d)", models.MinAlertMinutes, models.MaxAlertMinutes))
	f.BoolVar(&alwaysOnTop, "always-on-top", true, "keep the timer window above others")
	f.BoolVar(&startMinimized, "start-minimized", false, "start with the timer window minimized")
	f.BoolVar(&onboarded, "onboarding-complete", false, "mark first-run onboarding as done")
	return cmd
}

func newSessionsCmd(c *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded sessions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			cl, err := c.remote(ctx)
			if err != nil {
				return err
			}

			var sessions []models.Session
			if cl != nil {
				sessions, err = cl.Sessions(ctx, limit)
			} else {
				err = c.withStore(func(s *store) error {
					var err error
					sessions, err = s.repo.ListSessions(ctx, limit)
					return err
				})
			}
			if err != nil {
				return err
			}
			return c.output(cmd, sessions, func() string { return renderSessions(sessions) })
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultSessionLimit, "number of sessions to show (0 for all)")
	return cmd
}

func newReportCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "report [today|yesterday|YYYY-MM-DD]",
		Short: "Summarize recorded time per app for a day",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day := "today"
			if len(args) == 1 {
				day = args[0]
			}

			now := time.Now()
			date, err := reporter.ResolveDate(day, now)
			if err != nil {
				return err
			}

			ctx := commandContext(cmd)
			cl, err := c.remote(ctx)
			if err != nil {
				return err
			}

			var report *models.Report
			if cl != nil && date == models.Today(now) {
				report, err = cl.Report(ctx)
			} else {
				if cl != nil {
					// the daemon's last save holds every completed session
					fmt.Fprintln(cmd.ErrOrStderr(), idleStyle.Render("reading "+date+" from the database"))
				}
				err = c.withStore(func(s *store) error {
					var err error
					report, err = reporter.New(s.repo).GenerateReport(ctx, date, now)
					return err
				})
			}
			if err != nil {
				return err
			}

			if c.jsonOut {
				out, err := reporter.FormatReportJSON(report)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), reporter.FormatReportText(report))
			return nil
		},
	}
}

func newClearCmd(c *cli) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the recorded session history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				fmt.Fprint(cmd.OutOrStdout(), "This will delete all recorded sessions. Are you sure? (yes/no): ")
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				answer = strings.ToLower(strings.TrimSpace(answer))
				if answer != "yes" && answer != "y" {
					fmt.Fprintln(cmd.OutOrStdout(), "Operation cancelled")
					return nil
				}
			}

			ctx := commandContext(cmd)
			cl, err := c.remote(ctx)
			if err != nil {
				return err
			}

			var removed int
			if cl != nil {
				removed, err = cl.ClearSessions(ctx)
			} else {
				err = c.withStore(func(s *store) error {
					n, err := s.repo.ClearSessions(ctx)
					removed = int(n)
					return err
				})
			}
			if err != nil {
				return err
			}
			return c.output(cmd, map[string]int{"removed": removed}, func() string {
				return fmt.Sprintf("Removed %d sessions", removed)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newVersionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Info()
			return c.output(cmd, info, func() string {
				return fmt.Sprintf("%s version %s\n  commit: %s\n  built:  %s",
					appName, info["version"], info["git_commit"], info["build_time"])
			})
		},
	}
}

func newErrorsCmd(c *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "errors",
		Short: "Show recent foreground detection failures",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			return c.withStore(func(s *store) error {
				logs, err := s.repo.RecentErrorLogs(ctx, limit)
				if err != nil {
					return err
				}
				return c.output(cmd, logs, func() string { return renderErrorLogs(logs) })
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultSessionLimit, "number of entries to show")
	return cmd
}
