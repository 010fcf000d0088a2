package models

import "time"

type AppSummary struct {
	AppName      string  `json:"app_name"`
	TotalSeconds int64   `json:"total_seconds"`
	SessionCount int     `json:"session_count"`
	Percentage   float64 `json:"percentage,omitempty"`
}

// Report aggregates the sessions recorded on a single day.
type Report struct {
	Date         string       `json:"date"`
	Apps         []AppSummary `json:"apps"`
	SessionCount int          `json:"session_count"`
	TotalSeconds int64        `json:"total_seconds"`
	// TrackedSeconds is the timer's running total for the day, when known.
	TrackedSeconds int64     `json:"tracked_seconds,omitempty"`
	GeneratedAt    time.Time `json:"generated_at"`
}
