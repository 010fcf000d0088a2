package models

import "time"

const (
	// DateLayout is the ISO date format used for Session.Date and UserConfig.LastActiveDate.
	DateLayout = "2006-01-02"
	// EndTimeLayout is the wall-clock format used for Session.EndTime.
	EndTimeLayout = "15:04"
)

// Session is one completed interval of tracked time. Sessions are created once,
// when a running timer stops with a positive elapsed count, and never mutated.
type Session struct {
	ID       string `json:"id"`
	AppName  string `json:"app_name"`
	Duration int64  `json:"duration"` // seconds
	Date     string `json:"date"`
	EndTime  string `json:"end_time"`
}

// NewSession builds a session ending at now.
func NewSession(id, appName string, duration int64, now time.Time) Session {
	return Session{
		ID:       id,
		AppName:  appName,
		Duration: duration,
		Date:     now.Format(DateLayout),
		EndTime:  now.Format(EndTimeLayout),
	}
}

// RetainLatest returns the newest max sessions, dropping the oldest first.
// A non-positive max disables the cap.
func RetainLatest(sessions []Session, max int) []Session {
	if max <= 0 || len(sessions) <= max {
		return sessions
	}
	return sessions[len(sessions)-max:]
}

// Today returns the ISO date string for t.
func Today(t time.Time) string {
	return t.Format(DateLayout)
}
