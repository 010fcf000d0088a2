package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/worktimer/worktimer/internal/config"
)

const appName = "worktimer"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, errorStyle.Render("error:"), err)
		os.Exit(1)
	}
}

// cli carries the persistent flags and the lazily loaded configuration.
type cli struct {
	configPath string
	jsonOut    bool
	cfg        *config.Config
}

func (c *cli) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	c.cfg = cfg
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           appName,
		Short:         "Work timer that runs while your work apps are in the foreground",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML config file (default $"+config.EnvConfigFile+")")
	root.PersistentFlags().BoolVar(&c.jsonOut, "json", false, "print JSON instead of text")

	root.AddCommand(
		newStartCmd(c),
		newRunCmd(c),
		newStopCmd(c),
		newStatusCmd(c),
		newToggleCmd(c),
		newResetCmd(c),
		newAppsCmd(c),
		newSettingsCmd(c),
		newSessionsCmd(c),
		newReportCmd(c),
		newClearCmd(c),
		newErrorsCmd(c),
		newProbeCmd(c),
		newVersionCmd(c),
	)
	return root
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func (c *cli) output(cmd *cobra.Command, v any, text func() string) error {
	if c.jsonOut {
		return printJSON(cmd.OutOrStdout(), v)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), text())
	return err
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
