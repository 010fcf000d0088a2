package web

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/worktimer/worktimer/internal/models"
	"github.com/worktimer/worktimer/internal/settings"
	"github.com/worktimer/worktimer/internal/tracker"
	"github.com/worktimer/worktimer/pkg/window"
)

const defaultSessionLimit = 50

// Tracker is the part of the tracker service the API drives.
type Tracker interface {
	Snapshot(ctx context.Context) (tracker.Snapshot, error)
	Toggle(ctx context.Context) (tracker.Snapshot, error)
	Reset(ctx context.Context) (tracker.Snapshot, error)
	AddApp(ctx context.Context, identity, label string) (models.WorkApp, error)
	RemoveApp(ctx context.Context, identity string) (models.WorkApp, error)
	UpdateSettings(ctx context.Context, patch models.SettingsPatch) (tracker.Snapshot, error)
	Sessions(ctx context.Context, limit int) ([]models.Session, error)
	ClearSessions(ctx context.Context) (int, error)
	TodayReport(ctx context.Context) (*models.Report, error)
	RunningApps() ([]window.RunningApp, error)
}

type Handler struct {
	tracker Tracker
	logger  *zap.Logger
}

func NewHandler(t Tracker, logger *zap.Logger) *Handler {
	return &Handler{tracker: t, logger: logger}
}

// AddAppRequest is the body of POST /api/apps.
type AddAppRequest struct {
	Identity string `json:"identity"`
	Label    string `json:"label"`
}

// ClearResponse is returned by DELETE /api/sessions.
type ClearResponse struct {
	Removed int `json:"removed"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) SetupRoutes(r gin.IRouter) {
	r.GET("/health", h.handleHealth)

	api := r.Group("/api")
	api.GET("/status", h.handleStatus)
	api.POST("/toggle", h.handleToggle)
	api.POST("/reset", h.handleReset)

	api.GET("/apps", h.handleListApps)
	api.POST("/apps", h.handleAddApp)
	api.GET("/apps/running", h.handleRunningApps)
	api.DELETE("/apps/:identity", h.handleRemoveApp)

	api.PATCH("/settings", h.handleSettings)

	api.GET("/sessions", h.handleSessions)
	api.DELETE("/sessions", h.handleClearSessions)
	api.GET("/report", h.handleReport)
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) handleStatus(c *gin.Context) {
	snap, err := h.tracker.Snapshot(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) handleToggle(c *gin.Context) {
	snap, err := h.tracker.Toggle(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) handleReset(c *gin.Context) {
	snap, err := h.tracker.Reset(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) handleListApps(c *gin.Context) {
	snap, err := h.tracker.Snapshot(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap.WorkApps)
}

func (h *Handler) handleAddApp(c *gin.Context) {
	var req AddAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	app, err := h.tracker.AddApp(c.Request.Context(), req.Identity, req.Label)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

func (h *Handler) handleRemoveApp(c *gin.Context) {
	app, err := h.tracker.RemoveApp(c.Request.Context(), c.Param("identity"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *Handler) handleRunningApps(c *gin.Context) {
	apps, err := h.tracker.RunningApps()
	if err != nil {
		h.respondError(c, err)
		return
	}
	if apps == nil {
		apps = []window.RunningApp{}
	}
	c.JSON(http.StatusOK, apps)
}

func (h *Handler) handleSettings(c *gin.Context) {
	var patch models.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	snap, err := h.tracker.UpdateSettings(c.Request.Context(), patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) handleSessions(c *gin.Context) {
	limit := defaultSessionLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	sessions, err := h.tracker.Sessions(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *Handler) handleClearSessions(c *gin.Context) {
	n, err := h.tracker.ClearSessions(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ClearResponse{Removed: n})
}

func (h *Handler) handleReport(c *gin.Context) {
	if day := strings.ToLower(c.Query("day")); day != "" && day != "today" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "the daemon reports today only; use the CLI with the database for other days"})
		return
	}

	report, err := h.tracker.TodayReport(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, settings.ErrDuplicateApp):
		return http.StatusConflict
	case errors.Is(err, settings.ErrAppNotFound):
		return http.StatusNotFound
	case errors.Is(err, settings.ErrEmptyIdentity), errors.Is(err, settings.ErrInvalidAlertInterval):
		return http.StatusBadRequest
	case errors.Is(err, tracker.ErrNotRunning):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
