package database

import (
	"time"

	"github.com/worktimer/worktimer/internal/models"
)

// settingsID is the primary key of the single settings row.
const settingsID = 1

type settingsRecord struct {
	ID                 uint `gorm:"primaryKey"`
	ColorAlert         bool
	AlertMinutes       int `gorm:"not null"`
	AlwaysOnTop        bool
	StartMinimized     bool
	OnboardingComplete bool
	TodayTotalSeconds  int64  `gorm:"not null"`
	LastActiveDate     string `gorm:"size:10"`
	UpdatedAt          time.Time
}

func (settingsRecord) TableName() string { return "settings" }

type workAppRecord struct {
	ID       uint   `gorm:"primaryKey"`
	Position int    `gorm:"not null;index"`
	Identity string `gorm:"not null"`
	Label    string
}

func (workAppRecord) TableName() string { return "work_apps" }

type sessionRecord struct {
	ID       uint   `gorm:"primaryKey"`
	Position int    `gorm:"not null;index"`
	UUID     string `gorm:"size:36;not null"`
	AppName  string `gorm:"not null;index"`
	Duration int64  `gorm:"not null"`
	Date     string `gorm:"size:10;not null;index"`
	EndTime  string `gorm:"size:5"`
}

func (sessionRecord) TableName() string { return "sessions" }

func toSettingsRecord(cfg models.UserConfig) settingsRecord {
	return settingsRecord{
		ID:                 settingsID,
		ColorAlert:         cfg.ColorAlert,
		AlertMinutes:       cfg.AlertMinutes,
		AlwaysOnTop:        cfg.AlwaysOnTop,
		StartMinimized:     cfg.StartMinimized,
		OnboardingComplete: cfg.OnboardingComplete,
		TodayTotalSeconds:  cfg.TodayTotalSeconds,
		LastActiveDate:     cfg.LastActiveDate,
	}
}

func (r settingsRecord) toModel(apps []workAppRecord) models.UserConfig {
	cfg := models.UserConfig{
		WorkApps:           make([]models.WorkApp, 0, len(apps)),
		ColorAlert:         r.ColorAlert,
		AlertMinutes:       r.AlertMinutes,
		AlwaysOnTop:        r.AlwaysOnTop,
		StartMinimized:     r.StartMinimized,
		OnboardingComplete: r.OnboardingComplete,
		TodayTotalSeconds:  r.TodayTotalSeconds,
		LastActiveDate:     r.LastActiveDate,
	}
	for _, app := range apps {
		cfg.WorkApps = append(cfg.WorkApps, models.WorkApp{Identity: app.Identity, Label: app.Label})
	}
	return cfg
}

func toSessionRecords(sessions []models.Session) []sessionRecord {
	records := make([]sessionRecord, 0, len(sessions))
	for i, s := range sessions {
		records = append(records, sessionRecord{
			Position: i,
			UUID:     s.ID,
			AppName:  s.AppName,
			Duration: s.Duration,
			Date:     s.Date,
			EndTime:  s.EndTime,
		})
	}
	return records
}

func (r sessionRecord) toModel() models.Session {
	return models.Session{
		ID:       r.UUID,
		AppName:  r.AppName,
		Duration: r.Duration,
		Date:     r.Date,
		EndTime:  r.EndTime,
	}
}
