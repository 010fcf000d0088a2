package database

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/worktimer/worktimer/internal/models"
)

const insertBatchSize = 100

// Repository persists the user config, session history and error log.
type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Load returns the persisted config and sessions, oldest session first.
// When nothing was saved yet the default config is returned. Sessions with
// an empty app name are skipped.
func (r *Repository) Load(ctx context.Context) (models.UserConfig, []models.Session, error) {
	db := r.db.WithContext(ctx)

	cfg := models.DefaultUserConfig()

	var settings settingsRecord
	err := db.First(&settings, settingsID).Error
	switch {
	case err == nil:
		var apps []workAppRecord
		if err := db.Order("position ASC").Find(&apps).Error; err != nil {
			return cfg, nil, errors.Wrap(err, "failed to load work apps")
		}
		cfg = settings.toModel(apps)
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return cfg, nil, errors.Wrap(err, "failed to load settings")
	}

	var records []sessionRecord
	if err := db.Where("app_name <> ''").Order("position ASC").Find(&records).Error; err != nil {
		return cfg, nil, errors.Wrap(err, "failed to load sessions")
	}

	sessions := make([]models.Session, 0, len(records))
	for _, rec := range records {
		sessions = append(sessions, rec.toModel())
	}
	return cfg, sessions, nil
}

// Save replaces the persisted state with cfg and sessions in a single
// transaction. Saving the same state twice leaves the same rows.
func (r *Repository) Save(ctx context.Context, cfg models.UserConfig, sessions []models.Session) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		settings := toSettingsRecord(cfg)
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&settings).Error; err != nil {
			return errors.Wrap(err, "failed to save settings")
		}

		if err := tx.Exec("DELETE FROM work_apps").Error; err != nil {
			return errors.Wrap(err, "failed to clear work apps")
		}
		if len(cfg.WorkApps) > 0 {
			apps := make([]workAppRecord, 0, len(cfg.WorkApps))
			for i, app := range cfg.WorkApps {
				apps = append(apps, workAppRecord{Position: i, Identity: app.Identity, Label: app.Label})
			}
			if err := tx.Create(&apps).Error; err != nil {
				return errors.Wrap(err, "failed to save work apps")
			}
		}

		if err := tx.Exec("DELETE FROM sessions").Error; err != nil {
			return errors.Wrap(err, "failed to clear sessions")
		}
		if len(sessions) > 0 {
			records := toSessionRecords(sessions)
			if err := tx.CreateInBatches(&records, insertBatchSize).Error; err != nil {
				return errors.Wrap(err, "failed to save sessions")
			}
		}
		return nil
	})
	return err
}

// ListSessions returns up to limit sessions, newest first. A non-positive
// limit returns all of them.
func (r *Repository) ListSessions(ctx context.Context, limit int) ([]models.Session, error) {
	q := r.db.WithContext(ctx).Where("app_name <> ''").Order("position DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var records []sessionRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list sessions")
	}

	sessions := make([]models.Session, 0, len(records))
	for _, rec := range records {
		sessions = append(sessions, rec.toModel())
	}
	return sessions, nil
}

// GetAppSummaryForDate aggregates the sessions of one day per app name,
// largest total first.
func (r *Repository) GetAppSummaryForDate(ctx context.Context, date string) ([]models.AppSummary, error) {
	var summaries []models.AppSummary

	result := r.db.WithContext(ctx).Model(&sessionRecord{}).
		Select("app_name, SUM(duration) as total_seconds, COUNT(*) as session_count").
		Where("date = ? AND app_name <> ''", date).
		Group("app_name").
		Order("total_seconds DESC, app_name ASC").
		Scan(&summaries)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query app summary")
	}

	return summaries, nil
}

// CreateErrorLog inserts a new error log into the database
func (r *Repository) CreateErrorLog(ctx context.Context, errorLog *models.ErrorLog) error {
	result := r.db.WithContext(ctx).Create(errorLog)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert error log")
	}
	return nil
}

// RecentErrorLogs returns the newest error logs first.
func (r *Repository) RecentErrorLogs(ctx context.Context, limit int) ([]models.ErrorLog, error) {
	var logs []models.ErrorLog
	result := r.db.WithContext(ctx).Order("timestamp DESC").Limit(limit).Find(&logs)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query error logs")
	}
	return logs, nil
}

// ClearSessions removes the whole session history and returns how many
// sessions were deleted.
func (r *Repository) ClearSessions(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Exec("DELETE FROM sessions")
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to clear sessions")
	}
	return result.RowsAffected, nil
}
