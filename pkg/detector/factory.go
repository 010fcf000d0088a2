package detector

import (
	"os"

	"go.uber.org/zap"

	"github.com/worktimer/worktimer/pkg/integrations/hybrid"
	"github.com/worktimer/worktimer/pkg/window"
)

// Source is a foreground detector that can also enumerate running apps.
type Source interface {
	window.Detector
	window.AppLister
}

func New(logger *zap.Logger) (Source, error) {
	return hybrid.NewDetector(logger)
}

func DetectDisplayServer() string {
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	if sessionType == "wayland" || waylandDisplay != "" {
		return "wayland"
	}

	if sessionType == "x11" || x11Display != "" {
		return "x11"
	}

	return "unknown"
}
