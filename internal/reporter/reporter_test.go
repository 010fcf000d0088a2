package reporter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worktimer/worktimer/internal/models"
)

var now = time.Date(2026, 3, 14, 18, 0, 0, 0, time.Local)

func TestToday(t *testing.T) {
	sessions := []models.Session{
		{ID: "1", AppName: "VS Code", Duration: 100, Date: "2026-03-13"},
		{ID: "2", AppName: "VS Code", Duration: 300, Date: "2026-03-14"},
		{ID: "3", AppName: "Manual", Duration: 100, Date: "2026-03-14"},
		{ID: "4", AppName: "VS Code", Duration: 200, Date: "2026-03-14"},
		{ID: "5", AppName: "", Duration: 50, Date: "2026-03-14"},
	}

	report := Today(sessions, 650, now)

	assert.Equal(t, "2026-03-14", report.Date)
	assert.Equal(t, 3, report.SessionCount)
	assert.Equal(t, int64(600), report.TotalSeconds)
	assert.Equal(t, int64(650), report.TrackedSeconds)
	require.Len(t, report.Apps, 2)
	assert.Equal(t, "VS Code", report.Apps[0].AppName)
	assert.Equal(t, int64(500), report.Apps[0].TotalSeconds)
	assert.Equal(t, 2, report.Apps[0].SessionCount)
	assert.InDelta(t, 83.33, report.Apps[0].Percentage, 0.01)
	assert.Equal(t, "Manual", report.Apps[1].AppName)
}

func TestTodayEmpty(t *testing.T) {
	report := Today(nil, 0, now)
	assert.NotNil(t, report.Apps)
	assert.Empty(t, report.Apps)
	assert.Contains(t, FormatReportText(report), "No sessions recorded")
}

type fakeSummaryStore struct {
	date      string
	summaries []models.AppSummary
	err       error
}

func (f *fakeSummaryStore) GetAppSummaryForDate(_ context.Context, date string) ([]models.AppSummary, error) {
	f.date = date
	return f.summaries, f.err
}

func TestGenerateReport(t *testing.T) {
	store := &fakeSummaryStore{summaries: []models.AppSummary{
		{AppName: "figma", TotalSeconds: 300, SessionCount: 1},
		{AppName: "VS Code", TotalSeconds: 100, SessionCount: 2},
	}}

	report, err := New(store).GenerateReport(context.Background(), "yesterday", now)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-13", store.date)
	assert.Equal(t, int64(400), report.TotalSeconds)
	assert.Equal(t, 3, report.SessionCount)
	assert.InDelta(t, 75.0, report.Apps[0].Percentage, 0.001)
}

func TestGenerateReportErrors(t *testing.T) {
	_, err := New(&fakeSummaryStore{}).GenerateReport(context.Background(), "last week", now)
	assert.Error(t, err)

	_, err = New(&fakeSummaryStore{err: errors.New("locked")}).GenerateReport(context.Background(), "today", now)
	assert.Error(t, err)
}

func TestResolveDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "2026-03-14"},
		{"today", "2026-03-14"},
		{"Yesterday", "2026-03-13"},
		{"2025-12-31", "2025-12-31"},
	}

	for _, tt := range tests {
		got, err := ResolveDate(tt.input, now)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestFormatReportText(t *testing.T) {
	report := Today([]models.Session{
		{AppName: "A very long application name that keeps going", Duration: 3725, Date: "2026-03-14"},
	}, 3725, now)

	text := FormatReportText(report)
	assert.Contains(t, text, "Work Report - 2026-03-14")
	assert.Contains(t, text, "01:02:05")
	assert.Contains(t, text, "A very long application nam...")
	assert.Contains(t, text, "100.0%")
}

func TestFormatReportJSON(t *testing.T) {
	out, err := FormatReportJSON(Today(nil, 0, now))
	require.NoError(t, err)
	assert.Contains(t, out, `"date": "2026-03-14"`)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmno", 10))
}
