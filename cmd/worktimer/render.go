package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/worktimer/worktimer/internal/models"
	"github.com/worktimer/worktimer/internal/timer"
	"github.com/worktimer/worktimer/internal/tracker"
	"github.com/worktimer/worktimer/pkg/utils"
	"github.com/worktimer/worktimer/pkg/window"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	clockStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF"))

	alertClockStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F7DC6F")).
			Bold(true)

	idleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#874BFD"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(0, 1)
)

func statusStyle(s timer.Status) lipgloss.Style {
	switch s {
	case timer.Running:
		return runningStyle
	case timer.Paused:
		return pausedStyle
	default:
		return idleStyle
	}
}

func field(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-12s", label)) + " " + value
}

func renderSnapshot(snap tracker.Snapshot) string {
	clock := clockStyle
	if snap.Alerting {
		clock = alertClockStyle
	}

	app := snap.CurrentApp
	if app == "" {
		app = "-"
	}

	lines := []string{
		clock.Render(utils.FormatClock(snap.Elapsed)) + "  " + statusStyle(snap.Status).Render(snap.Status.String()),
		"",
		field("App", app),
		field("Today", utils.FormatClock(snap.TodayTotal)),
		field("Matcher", snap.Matcher),
		field("Work apps", fmt.Sprintf("%d", len(snap.WorkApps))),
		field("Sessions", fmt.Sprintf("%d / %d", snap.SessionCount, snap.SessionCap)),
	}
	return titleStyle.Render("Work Timer") + "\n" + boxStyle.Render(strings.Join(lines, "\n"))
}

// renderOffline shows the persisted state when no daemon is running.
func renderOffline(cfg models.UserConfig, matcher string) string {
	lines := []string{
		idleStyle.Render("daemon not running"),
		"",
		field("Today", utils.FormatClock(cfg.TodayTotalSeconds)+" (as of "+orDash(cfg.LastActiveDate)+")"),
		field("Matcher", matcher),
		field("Work apps", fmt.Sprintf("%d", len(cfg.WorkApps))),
	}
	return titleStyle.Render("Work Timer") + "\n" + boxStyle.Render(strings.Join(lines, "\n"))
}

func renderApps(apps []models.WorkApp) string {
	if len(apps) == 0 {
		return "No work apps registered. Add one with: " + appName + " apps add <identity>"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-30s %s\n", "Identity", "Label")
	b.WriteString(strings.Repeat("-", 50) + "\n")
	for _, app := range apps {
		fmt.Fprintf(&b, "%-30s %s\n", app.Identity, app.Label)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderRunningApps(apps []window.RunningApp) string {
	if len(apps) == 0 {
		return "No running applications found."
	}

	var b strings.Builder
	for _, app := range apps {
		fmt.Fprintf(&b, "%-30s %s\n", app.ExecName, idleStyle.Render(app.Path))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderSessions(sessions []models.Session) string {
	if len(sessions) == 0 {
		return "No sessions recorded."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-12s %-10s %-10s %s\n", "Date", "Ended", "Duration", "App")
	b.WriteString(strings.Repeat("-", 60) + "\n")
	for _, s := range sessions {
		fmt.Fprintf(&b, "%-12s %-10s %-10s %s\n", s.Date, s.EndTime, utils.FormatClock(s.Duration), s.AppName)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderErrorLogs(logs []models.ErrorLog) string {
	if len(logs) == 0 {
		return "No detection failures recorded."
	}

	var b strings.Builder
	for _, l := range logs {
		fmt.Fprintf(&b, "%s  %-8s %s\n", l.Timestamp.Format("2006-01-02 15:04:05"), l.Source, errorStyle.Render(l.ErrorMsg))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderSettings(s tracker.Settings) string {
	alert := "off"
	if s.ColorAlert {
		alert = fmt.Sprintf("every %d min", s.AlertMinutes)
	}
	return strings.Join([]string{
		field("Alert", alert),
		field("Interval", fmt.Sprintf("%d min", s.AlertMinutes)),
		field("On top", fmt.Sprintf("%v", s.AlwaysOnTop)),
		field("Minimized", fmt.Sprintf("%v", s.StartMinimized)),
		field("Onboarded", fmt.Sprintf("%v", s.OnboardingComplete)),
	}, "\n")
}

func settingsOf(cfg models.UserConfig) tracker.Settings {
	return tracker.Settings{
		ColorAlert:         cfg.ColorAlert,
		AlertMinutes:       cfg.AlertMinutes,
		AlwaysOnTop:        cfg.AlwaysOnTop,
		StartMinimized:     cfg.StartMinimized,
		OnboardingComplete: cfg.OnboardingComplete,
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
