package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worktimer/worktimer/internal/config"
	"github.com/worktimer/worktimer/internal/models"
	"github.com/worktimer/worktimer/internal/monitoring"
	"github.com/worktimer/worktimer/internal/settings"
	"github.com/worktimer/worktimer/internal/timer"
	"github.com/worktimer/worktimer/internal/tracker"
	"github.com/worktimer/worktimer/pkg/window"
)

type fakeTracker struct {
	snap      tracker.Snapshot
	err       error
	apps      []models.WorkApp
	sessions  []models.Session
	limit     int
	patch     models.SettingsPatch
	removed   string
	toggled   int
	cleared   int
	running   []window.RunningApp
	reportDay string
}

func (f *fakeTracker) Snapshot(context.Context) (tracker.Snapshot, error) {
	f.snap.WorkApps = f.apps
	return f.snap, f.err
}

func (f *fakeTracker) Toggle(context.Context) (tracker.Snapshot, error) {
	f.toggled++
	f.snap.Status = timer.Running
	f.snap.CurrentApp = timer.ManualApp
	return f.snap, f.err
}

func (f *fakeTracker) Reset(context.Context) (tracker.Snapshot, error) {
	f.snap = tracker.Snapshot{Status: timer.Idle}
	return f.snap, f.err
}

func (f *fakeTracker) AddApp(_ context.Context, identity, label string) (models.WorkApp, error) {
	if f.err != nil {
		return models.WorkApp{}, f.err
	}
	if strings.TrimSpace(identity) == "" {
		return models.WorkApp{}, settings.ErrEmptyIdentity
	}
	for _, a := range f.apps {
		if a.Identity == identity {
			return models.WorkApp{}, errors.Wrapf(settings.ErrDuplicateApp, "%q", identity)
		}
	}
	app := models.WorkApp{Identity: identity, Label: label}
	f.apps = append(f.apps, app)
	return app, nil
}

func (f *fakeTracker) RemoveApp(_ context.Context, identity string) (models.WorkApp, error) {
	f.removed = identity
	for i, a := range f.apps {
		if a.Identity == identity {
			f.apps = append(f.apps[:i], f.apps[i+1:]...)
			return a, nil
		}
	}
	return models.WorkApp{}, errors.Wrapf(settings.ErrAppNotFound, "%q", identity)
}

func (f *fakeTracker) UpdateSettings(_ context.Context, patch models.SettingsPatch) (tracker.Snapshot, error) {
	f.patch = patch
	if patch.AlertMinutes != nil {
		if err := settings.ValidateAlertMinutes(*patch.AlertMinutes); err != nil {
			return tracker.Snapshot{}, err
		}
		f.snap.Settings.AlertMinutes = *patch.AlertMinutes
	}
	return f.snap, f.err
}

func (f *fakeTracker) Sessions(_ context.Context, limit int) ([]models.Session, error) {
	f.limit = limit
	return f.sessions, f.err
}

func (f *fakeTracker) ClearSessions(context.Context) (int, error) {
	n := len(f.sessions)
	f.cleared++
	f.sessions = nil
	return n, f.err
}

func (f *fakeTracker) TodayReport(context.Context) (*models.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Report{Date: "2026-03-14", Apps: []models.AppSummary{}}, nil
}

func (f *fakeTracker) RunningApps() ([]window.RunningApp, error) {
	return f.running, nil
}

func newTestServer(t *testing.T, ft *fakeTracker) (*Server, *monitoring.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	metrics := monitoring.NewMetrics()
	return NewServer(config.Default(), ft, metrics, nil), metrics
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, &fakeTracker{})

	w := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestStatus(t *testing.T) {
	ft := &fakeTracker{
		snap: tracker.Snapshot{Elapsed: 42, Status: timer.Running, TodayTotal: 100, CurrentApp: "VS Code"},
		apps: []models.WorkApp{{Identity: "code.exe", Label: "VS Code"}},
	}
	s, _ := newTestServer(t, ft)

	w := do(t, s, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]any
	decode(t, w, &got)
	assert.Equal(t, float64(42), got["elapsed"])
	assert.Equal(t, "running", got["status"])
	assert.Equal(t, float64(100), got["todayTotal"])
	assert.Equal(t, "VS Code", got["currentApp"])
	assert.Equal(t, false, got["alerting"])
	assert.Len(t, got["workApps"], 1)
}

func TestStatusNotRunning(t *testing.T) {
	s, _ := newTestServer(t, &fakeTracker{err: tracker.ErrNotRunning})

	w := do(t, s, http.MethodGet, "/api/status", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var got errorResponse
	decode(t, w, &got)
	assert.Equal(t, tracker.ErrNotRunning.Error(), got.Error)
}

func TestToggleAndReset(t *testing.T) {
	ft := &fakeTracker{}
	s, _ := newTestServer(t, ft)

	w := do(t, s, http.MethodPost, "/api/toggle", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, ft.toggled)
	assert.Contains(t, w.Body.String(), `"currentApp":"Manual"`)

	w = do(t, s, http.MethodPost, "/api/reset", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"idle"`)
}

func TestApps(t *testing.T) {
	ft := &fakeTracker{}
	s, _ := newTestServer(t, ft)

	w := do(t, s, http.MethodPost, "/api/apps", `{"identity":"code.exe","label":"VS Code"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"identity":"code.exe","label":"VS Code"}`, w.Body.String())

	w = do(t, s, http.MethodPost, "/api/apps", `{"identity":"code.exe"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, s, http.MethodPost, "/api/apps", `{"identity":"  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/api/apps", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodGet, "/api/apps", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"identity":"code.exe","label":"VS Code"}]`, w.Body.String())

	w = do(t, s, http.MethodDelete, "/api/apps/vim", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodDelete, "/api/apps/code.exe", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "code.exe", ft.removed)
	assert.Empty(t, ft.apps)
}

func TestRemoveAppEscapedIdentity(t *testing.T) {
	ft := &fakeTracker{apps: []models.WorkApp{{Identity: "src/project"}}}
	s, _ := newTestServer(t, ft)

	w := do(t, s, http.MethodDelete, "/api/apps/src%2Fproject", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "src/project", ft.removed)
}

func TestRunningApps(t *testing.T) {
	s, _ := newTestServer(t, &fakeTracker{})

	w := do(t, s, http.MethodGet, "/api/apps/running", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	s, _ = newTestServer(t, &fakeTracker{running: []window.RunningApp{{ExecName: "code", Path: "/usr/bin/code"}}})
	w = do(t, s, http.MethodGet, "/api/apps/running", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"exec_name":"code","path":"/usr/bin/code"}]`, w.Body.String())
}

func TestSettings(t *testing.T) {
	ft := &fakeTracker{}
	s, _ := newTestServer(t, ft)

	w := do(t, s, http.MethodPatch, "/api/settings", `{"alertMinutes":45,"colorAlert":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, ft.patch.AlertMinutes)
	assert.Equal(t, 45, *ft.patch.AlertMinutes)
	require.NotNil(t, ft.patch.ColorAlert)
	assert.False(t, *ft.patch.ColorAlert)
	assert.Nil(t, ft.patch.AlwaysOnTop)

	w = do(t, s, http.MethodPatch, "/api/settings", `{"alertMinutes":121}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessions(t *testing.T) {
	now := time.Date(2026, 3, 14, 17, 45, 0, 0, time.Local)
	ft := &fakeTracker{sessions: []models.Session{models.NewSession("a", "VS Code", 90, now)}}
	s, _ := newTestServer(t, ft)

	w := do(t, s, http.MethodGet, "/api/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultSessionLimit, ft.limit)

	var got []models.Session
	decode(t, w, &got)
	require.Len(t, got, 1)
	assert.Equal(t, "VS Code", got[0].AppName)

	do(t, s, http.MethodGet, "/api/sessions?limit=5", "")
	assert.Equal(t, 5, ft.limit)

	w = do(t, s, http.MethodGet, "/api/sessions?limit=x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodDelete, "/api/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"removed":1}`, w.Body.String())
	assert.Equal(t, 1, ft.cleared)
}

func TestReport(t *testing.T) {
	s, _ := newTestServer(t, &fakeTracker{})

	w := do(t, s, http.MethodGet, "/api/report", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"date":"2026-03-14"`)

	w = do(t, s, http.MethodGet, "/api/report?day=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, metrics := newTestServer(t, &fakeTracker{})

	do(t, s, http.MethodGet, "/health", "")
	do(t, s, http.MethodGet, "/nope", "")

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("GET", "/health", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("GET", "unmatched", "404")))

	w := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "worktimer_http_requests_total")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(context.DeadlineExceeded))
	assert.Equal(t, http.StatusNotFound, statusFor(errors.Wrap(settings.ErrAppNotFound, "x")))
}
