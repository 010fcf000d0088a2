package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/worktimer/worktimer/internal/activity"
	"github.com/worktimer/worktimer/internal/models"
	"github.com/worktimer/worktimer/pkg/detector"
)

func newProbeCmd(c *cli) *cobra.Command {
	var (
		duration time.Duration
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Print what the detector sees and whether it matches a work app",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if interval <= 0 {
				return fmt.Errorf("interval must be positive, got %v", interval)
			}
			cfg, err := c.config()
			if err != nil {
				return err
			}
			strategy, err := cfg.Strategy()
			if err != nil {
				return err
			}

			var apps []models.WorkApp
			err = c.withStore(func(s *store) error {
				userCfg, _, err := s.load(commandContext(cmd))
				apps = userCfg.WorkApps
				return err
			})
			if err != nil {
				return err
			}

			src, err := detector.New(nil)
			if err != nil {
				return err
			}
			defer src.Close()

			sampler := activity.NewSampler(src, activity.Options{
				Source:          strategy.Source(),
				PauseWhenLocked: cfg.Tracker.PauseWhenLocked,
			})

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Display server: %s (available: %v)\n", src.GetDisplayServer(), src.IsAvailable())
			fmt.Fprintf(out, "Matcher: %s, %d work apps\n\n", strategy.Name(), len(apps))

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			timeout := time.After(duration)

			for count := 1; ; count++ {
				info, err := src.GetFocusedWindow()
				switch {
				case err != nil:
					fmt.Fprintf(out, "[%d] %s\n", count, errorStyle.Render(err.Error()))
				case info == nil:
					fmt.Fprintf(out, "[%d] no window\n", count)
				default:
					fmt.Fprintf(out, "[%d] exec: %-20s title: %s\n", count, orDash(info.ExecName), truncate(info.WindowTitle, 60))
				}

				sample := sampler.Sample()
				if app, ok := strategy.Match(sample, apps); ok {
					fmt.Fprintf(out, "     sample %q -> %s\n", sample, runningStyle.Render(app.Label))
				} else {
					fmt.Fprintf(out, "     sample %q -> %s\n", sample, idleStyle.Render("no match"))
				}

				select {
				case <-timeout:
					return nil
				case <-commandContext(cmd).Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", 30*time.Second, "how long to probe")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "time between samples")
	return cmd
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
