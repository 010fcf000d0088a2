package main

import (
	"io"
	"os/exec"

	"go.uber.org/zap"

	"github.com/worktimer/worktimer/pkg/utils"
)

// notifyAlerter rings the terminal bell when attached to one and raises a
// desktop notification through notify-send when it is installed.
type notifyAlerter struct {
	logger *zap.Logger
	bell   io.Writer
	notify string
}

func newNotifyAlerter(logger *zap.Logger, bell io.Writer) *notifyAlerter {
	path, _ := exec.LookPath("notify-send")
	return &notifyAlerter{logger: logger, bell: bell, notify: path}
}

func (a *notifyAlerter) Alert(app string, elapsed int64) {
	if a.bell != nil {
		_, _ = io.WriteString(a.bell, "\a")
	}
	if a.notify == "" {
		return
	}

	body := app + " for " + utils.FormatClock(elapsed)
	cmd := exec.Command(a.notify, "--app-name="+appName, "Time for a break?", body)
	if err := cmd.Start(); err != nil {
		a.logger.Warn("failed to send notification", zap.Error(err))
		return
	}
	go func() { _ = cmd.Wait() }()
}
