package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worktimer/worktimer/internal/models"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := Connect(filepath.Join(t.TempDir(), "worktimer.db"))
	require.NoError(t, err)
	require.NoError(t, db.Initialize())
	t.Cleanup(func() { db.Close() })

	return NewRepository(db)
}

func sampleState() (models.UserConfig, []models.Session) {
	cfg := models.UserConfig{
		WorkApps: []models.WorkApp{
			{Identity: "code.exe", Label: "VS Code"},
			{Identity: "figma.exe", Label: "figma"},
		},
		ColorAlert:         false,
		AlertMinutes:       45,
		AlwaysOnTop:        true,
		StartMinimized:     true,
		OnboardingComplete: true,
		TodayTotalSeconds:  1234,
		LastActiveDate:     "2026-03-14",
	}
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.Local)
	sessions := []models.Session{
		models.NewSession("a", "VS Code", 600, now),
		models.NewSession("b", "Manual", 30, now.Add(time.Hour)),
		models.NewSession("c", "figma", 90, now.Add(2*time.Hour)),
	}
	return cfg, sessions
}

func TestLoadEmptyReturnsDefaults(t *testing.T) {
	repo := newTestRepository(t)

	cfg, sessions, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultUserConfig(), cfg)
	assert.Empty(t, sessions)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	cfg, sessions := sampleState()

	require.NoError(t, repo.Save(ctx, cfg, sessions))

	gotCfg, gotSessions, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg, gotCfg)
	assert.Equal(t, sessions, gotSessions)
}

func TestSaveIsIdempotent(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	cfg, sessions := sampleState()

	require.NoError(t, repo.Save(ctx, cfg, sessions))
	require.NoError(t, repo.Save(ctx, cfg, sessions))

	var settingsCount, appCount, sessionCount int64
	repo.db.Model(&settingsRecord{}).Count(&settingsCount)
	repo.db.Model(&workAppRecord{}).Count(&appCount)
	repo.db.Model(&sessionRecord{}).Count(&sessionCount)
	assert.Equal(t, int64(1), settingsCount)
	assert.Equal(t, int64(2), appCount)
	assert.Equal(t, int64(3), sessionCount)

	gotCfg, gotSessions, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg, gotCfg)
	assert.Equal(t, sessions, gotSessions)
}

func TestSaveReplacesPreviousState(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	cfg, sessions := sampleState()
	require.NoError(t, repo.Save(ctx, cfg, sessions))

	cfg.WorkApps = []models.WorkApp{}
	cfg.ColorAlert = true
	require.NoError(t, repo.Save(ctx, cfg, sessions[2:]))

	gotCfg, gotSessions, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, gotCfg.WorkApps)
	assert.True(t, gotCfg.ColorAlert)
	assert.Equal(t, sessions[2:], gotSessions)
}

func TestLoadSkipsEmptyAppName(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	cfg, sessions := sampleState()

	sessions = append(sessions, models.Session{ID: "x", AppName: "", Duration: 10, Date: "2026-03-14", EndTime: "13:00"})
	require.NoError(t, repo.Save(ctx, cfg, sessions))

	_, got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	for _, s := range got {
		assert.NotEmpty(t, s.AppName)
	}
}

func TestListSessions(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	cfg, sessions := sampleState()
	require.NoError(t, repo.Save(ctx, cfg, sessions))

	got, err := repo.ListSessions(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "b", got[1].ID)

	all, err := repo.ListSessions(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGetAppSummaryForDate(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	cfg, sessions := sampleState()
	sessions = append(sessions,
		models.NewSession("d", "VS Code", 300, time.Date(2026, 3, 14, 16, 0, 0, 0, time.Local)),
		models.NewSession("e", "VS Code", 999, time.Date(2026, 3, 13, 16, 0, 0, 0, time.Local)),
	)
	require.NoError(t, repo.Save(ctx, cfg, sessions))

	summaries, err := repo.GetAppSummaryForDate(ctx, "2026-03-14")
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, models.AppSummary{AppName: "VS Code", TotalSeconds: 900, SessionCount: 2}, summaries[0])
	assert.Equal(t, "figma", summaries[1].AppName)
	assert.Equal(t, "Manual", summaries[2].AppName)
}

func TestClearSessions(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	cfg, sessions := sampleState()
	require.NoError(t, repo.Save(ctx, cfg, sessions))

	n, err := repo.ClearSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	gotCfg, got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, cfg, gotCfg)
}

func TestErrorLogs(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, repo.CreateErrorLog(ctx, &models.ErrorLog{Timestamp: base, Source: "sampler", ErrorMsg: "first"}))
	require.NoError(t, repo.CreateErrorLog(ctx, &models.ErrorLog{Timestamp: base.Add(time.Second), Source: "sampler", ErrorMsg: "second"}))

	logs, err := repo.RecentErrorLogs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "second", logs[0].ErrorMsg)
}

func TestConnectCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "worktimer.db")

	db, err := Connect(path)
	require.NoError(t, err)
	defer db.Close()
	assert.NoError(t, db.Initialize())
}
