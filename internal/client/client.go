// Package client talks to a running worktimer daemon over its HTTP API.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/worktimer/worktimer/internal/models"
	"github.com/worktimer/worktimer/internal/settings"
	"github.com/worktimer/worktimer/internal/tracker"
	"github.com/worktimer/worktimer/pkg/window"
)

const defaultTimeout = 5 * time.Second

// ErrUnavailable means no daemon answered at the configured address.
var ErrUnavailable = errors.New("daemon is not reachable")

// APIError is a non-2xx answer from the daemon. It unwraps to the matching
// domain sentinel so callers can use errors.Is across the wire.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("daemon returned %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusConflict:
		return settings.ErrDuplicateApp
	case http.StatusNotFound:
		return settings.ErrAppNotFound
	case http.StatusServiceUnavailable:
		return tracker.ErrNotRunning
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
}

type Client struct {
	resty *resty.Client
}

func New(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := resty.New().
		SetBaseURL(baseURL).
		SetLogger(logger.Sugar()).
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "worktimer-cli")
	return &Client{resty: r}
}

// SetTimeout overrides the per-request timeout.
func (c *Client) SetTimeout(d time.Duration) *Client {
	c.resty.SetTimeout(d)
	return c
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func (c *Client) Status(ctx context.Context) (tracker.Snapshot, error) {
	var snap tracker.Snapshot
	err := c.do(ctx, http.MethodGet, "/api/status", nil, nil, &snap)
	return snap, err
}

func (c *Client) Toggle(ctx context.Context) (tracker.Snapshot, error) {
	var snap tracker.Snapshot
	err := c.do(ctx, http.MethodPost, "/api/toggle", nil, nil, &snap)
	return snap, err
}

func (c *Client) Reset(ctx context.Context) (tracker.Snapshot, error) {
	var snap tracker.Snapshot
	err := c.do(ctx, http.MethodPost, "/api/reset", nil, nil, &snap)
	return snap, err
}

func (c *Client) Apps(ctx context.Context) ([]models.WorkApp, error) {
	var apps []models.WorkApp
	err := c.do(ctx, http.MethodGet, "/api/apps", nil, nil, &apps)
	return apps, err
}

func (c *Client) AddApp(ctx context.Context, identity, label string) (models.WorkApp, error) {
	var app models.WorkApp
	body := map[string]string{"identity": identity, "label": label}
	err := c.do(ctx, http.MethodPost, "/api/apps", nil, body, &app)
	return app, err
}

func (c *Client) RemoveApp(ctx context.Context, identity string) (models.WorkApp, error) {
	var app models.WorkApp
	err := c.do(ctx, http.MethodDelete, "/api/apps/{identity}",
		func(r *resty.Request) { r.SetPathParam("identity", identity) }, nil, &app)
	return app, err
}

func (c *Client) RunningApps(ctx context.Context) ([]window.RunningApp, error) {
	var apps []window.RunningApp
	err := c.do(ctx, http.MethodGet, "/api/apps/running", nil, nil, &apps)
	return apps, err
}

func (c *Client) UpdateSettings(ctx context.Context, patch models.SettingsPatch) (tracker.Snapshot, error) {
	var snap tracker.Snapshot
	err := c.do(ctx, http.MethodPatch, "/api/settings", nil, patch, &snap)
	return snap, err
}

func (c *Client) Sessions(ctx context.Context, limit int) ([]models.Session, error) {
	var sessions []models.Session
	err := c.do(ctx, http.MethodGet, "/api/sessions",
		func(r *resty.Request) { r.SetQueryParam("limit", strconv.Itoa(limit)) }, nil, &sessions)
	return sessions, err
}

func (c *Client) ClearSessions(ctx context.Context) (int, error) {
	var out struct {
		Removed int `json:"removed"`
	}
	err := c.do(ctx, http.MethodDelete, "/api/sessions", nil, nil, &out)
	return out.Removed, err
}

func (c *Client) Report(ctx context.Context) (*models.Report, error) {
	var report models.Report
	if err := c.do(ctx, http.MethodGet, "/api/report", nil, nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *Client) do(ctx context.Context, method, path string, prepare func(*resty.Request), body, result any) error {
	var apiErr errorBody
	req := c.resty.R().SetContext(ctx).SetError(&apiErr)
	if prepare != nil {
		prepare(req)
	}
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Wrap(ErrUnavailable, err.Error())
	}

	if resp.IsError() {
		msg := apiErr.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		return &APIError{StatusCode: resp.StatusCode(), Message: msg}
	}
	return nil
}
