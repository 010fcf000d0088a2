package reporter

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/worktimer/worktimer/internal/models"
	"github.com/worktimer/worktimer/pkg/utils"
)

// SummaryStore aggregates persisted sessions per app for one day.
type SummaryStore interface {
	GetAppSummaryForDate(ctx context.Context, date string) ([]models.AppSummary, error)
}

// Reporter builds day reports from the store, for use when no daemon is
// running.
type Reporter struct {
	repo SummaryStore
}

func New(repo SummaryStore) *Reporter {
	return &Reporter{repo: repo}
}

// GenerateReport builds the report for day, which is "today" or an ISO date.
func (r *Reporter) GenerateReport(ctx context.Context, day string, now time.Time) (*models.Report, error) {
	date, err := ResolveDate(day, now)
	if err != nil {
		return nil, err
	}

	summaries, err := r.repo.GetAppSummaryForDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get app summary: %w", err)
	}

	return build(date, summaries, now), nil
}

// Today aggregates in-memory sessions dated on now's day.
func Today(sessions []models.Session, trackedSeconds int64, now time.Time) *models.Report {
	date := models.Today(now)

	byApp := make(map[string]*models.AppSummary)
	for _, s := range sessions {
		if s.Date != date || s.AppName == "" {
			continue
		}
		sum, ok := byApp[s.AppName]
		if !ok {
			sum = &models.AppSummary{AppName: s.AppName}
			byApp[s.AppName] = sum
		}
		sum.TotalSeconds += s.Duration
		sum.SessionCount++
	}

	summaries := make([]models.AppSummary, 0, len(byApp))
	for _, sum := range byApp {
		summaries = append(summaries, *sum)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].TotalSeconds != summaries[j].TotalSeconds {
			return summaries[i].TotalSeconds > summaries[j].TotalSeconds
		}
		return summaries[i].AppName < summaries[j].AppName
	})

	report := build(date, summaries, now)
	report.TrackedSeconds = trackedSeconds
	return report
}

func build(date string, summaries []models.AppSummary, now time.Time) *models.Report {
	if summaries == nil {
		summaries = []models.AppSummary{}
	}

	var totalSeconds int64
	var sessionCount int
	for _, s := range summaries {
		totalSeconds += s.TotalSeconds
		sessionCount += s.SessionCount
	}

	if totalSeconds > 0 {
		for i := range summaries {
			summaries[i].Percentage = (float64(summaries[i].TotalSeconds) / float64(totalSeconds)) * 100.0
		}
	}

	return &models.Report{
		Date:         date,
		Apps:         summaries,
		SessionCount: sessionCount,
		TotalSeconds: totalSeconds,
		GeneratedAt:  now,
	}
}

// ResolveDate accepts "", "today", "yesterday" or an ISO date.
func ResolveDate(day string, now time.Time) (string, error) {
	switch strings.ToLower(strings.TrimSpace(day)) {
	case "", "today", "day":
		return models.Today(now), nil
	case "yesterday":
		return models.Today(now.AddDate(0, 0, -1)), nil
	}

	t, err := time.ParseInLocation(models.DateLayout, day, now.Location())
	if err != nil {
		return "", fmt.Errorf("invalid day %q (valid: today, yesterday, YYYY-MM-DD)", day)
	}
	return t.Format(models.DateLayout), nil
}

// FormatReportText formats the report as human-readable text
func FormatReportText(report *models.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Work Report - %s\n", report.Date)
	fmt.Fprintf(&b, "Sessions: %d   Recorded: %s", report.SessionCount, utils.FormatClock(report.TotalSeconds))
	if report.TrackedSeconds > 0 {
		fmt.Fprintf(&b, "   Today total: %s", utils.FormatClock(report.TrackedSeconds))
	}
	b.WriteString("\n\n")

	if len(report.Apps) == 0 {
		b.WriteString("No sessions recorded for this day.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "%-30s %10s %10s %9s\n", "Application", "Time", "Sessions", "Percent")
	b.WriteString(strings.Repeat("-", 62) + "\n")

	for _, app := range report.Apps {
		fmt.Fprintf(&b, "%-30s %10s %10d %8.1f%%\n",
			truncate(app.AppName, 30),
			utils.FormatClock(app.TotalSeconds),
			app.SessionCount,
			app.Percentage)
	}

	return b.String()
}

// FormatReportJSON formats the report as JSON
func FormatReportJSON(report *models.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// truncate shortens s to maxLen runes, marking the cut with "..."
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
