package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/notabene-app/notabene-backend/internal/domain"
	"github.com/notabene-app/notabene-backend/internal/domain/billing"
	"github.com/notabene-app/notabene-backend/internal/platform/logger"
)

type UsageRepo interface {
	// AddAudioSeconds upserts the workspace's record for the current
	// period and increments it atomically.
	AddAudioSeconds(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID, seconds float64) error
	AudioSecondsThisPeriod(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) (float64, error)
}

type usageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUsageRepo(db *gorm.DB, baseLog *logger.Logger) UsageRepo {
	return &usageRepo{db: db, log: baseLog.With("repo", "UsageRepo")}
}

func (r *usageRepo) AddAudioSeconds(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID, seconds float64) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if seconds <= 0 {
		return nil
	}
	period := billing.PeriodFor(time.Now())
	return transaction.WithContext(ctx).Exec(`
		INSERT INTO usage_record (id, workspace_id, period, audio_seconds, created_at, updated_at)
		VALUES (uuid_generate_v4(), ?, ?, ?, now(), now())
		ON CONFLICT (workspace_id, period)
		DO UPDATE SET audio_seconds = usage_record.audio_seconds + EXCLUDED.audio_seconds,
		              updated_at = now()`,
		workspaceID, period, seconds,
	).Error
}

func (r *usageRepo) AudioSecondsThisPeriod(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) (float64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var record types.UsageRecord
	err := transaction.WithContext(ctx).
		Where("workspace_id = ? AND period = ?", workspaceID, billing.PeriodFor(time.Now())).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return record.AudioSeconds, nil
}
