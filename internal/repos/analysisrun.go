package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/notabene-app/notabene-backend/internal/domain"
	"github.com/notabene-app/notabene-backend/internal/domain/jobs"
	"github.com/notabene-app/notabene-backend/internal/domain/notes"
	"github.com/notabene-app/notabene-backend/internal/platform/logger"
)

type AnalysisRunRepo interface {
	Create(ctx context.Context, tx *gorm.DB, run *types.AnalysisRun) (*types.AnalysisRun, error)
	GetByID(ctx context.Context, tx *gorm.DB, runID uuid.UUID) (*types.AnalysisRun, error)
	GetLatestByNoteID(ctx context.Context, tx *gorm.DB, noteID uuid.UUID) (*types.AnalysisRun, error)
	HasActiveByNoteID(ctx context.Context, tx *gorm.DB, noteID uuid.UUID) (bool, error)

	// ClaimNext atomically moves the oldest queued run to running and
	// returns it; nil when the queue is empty. SKIP LOCKED keeps
	// concurrent workers from claiming the same row.
	ClaimNext(ctx context.Context, tx *gorm.DB) (*types.AnalysisRun, error)
	Heartbeat(ctx context.Context, tx *gorm.DB, runID uuid.UUID) error

	// RequeueStale moves running runs whose heartbeat went silent back
	// to the queue and unsticks their notes so a retry passes the
	// begin-analysis CAS. Covers workers that died without persisting
	// a terminal state.
	RequeueStale(ctx context.Context, tx *gorm.DB, staleAfter time.Duration) (int64, error)
	SetStage(ctx context.Context, tx *gorm.DB, runID uuid.UUID, stage string) error
	Finish(ctx context.Context, tx *gorm.DB, runID uuid.UUID, status string, reason string, result []byte) error
}

type analysisRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnalysisRunRepo(db *gorm.DB, baseLog *logger.Logger) AnalysisRunRepo {
	return &analysisRunRepo{db: db, log: baseLog.With("repo", "AnalysisRunRepo")}
}

func (r *analysisRunRepo) Create(ctx context.Context, tx *gorm.DB, run *types.AnalysisRun) (*types.AnalysisRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (r *analysisRunRepo) GetByID(ctx context.Context, tx *gorm.DB, runID uuid.UUID) (*types.AnalysisRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.AnalysisRun
	if err := transaction.WithContext(ctx).
		Where("id = ?", runID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *analysisRunRepo) GetLatestByNoteID(ctx context.Context, tx *gorm.DB, noteID uuid.UUID) (*types.AnalysisRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.AnalysisRun
	if err := transaction.WithContext(ctx).
		Where("note_id = ?", noteID).
		Order("created_at DESC").
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *analysisRunRepo) HasActiveByNoteID(ctx context.Context, tx *gorm.DB, noteID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.AnalysisRun{}).
		Where("note_id = ? AND status IN ?", noteID, []string{jobs.RunQueued, jobs.RunRunning}).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *analysisRunRepo) ClaimNext(ctx context.Context, tx *gorm.DB) (*types.AnalysisRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var claimed []*types.AnalysisRun
	err := transaction.WithContext(ctx).Raw(`
		UPDATE analysis_run
		SET status = ?, stage = ?, attempts = attempts + 1,
		    locked_at = now(), started_at = now(), updated_at = now()
		WHERE id = (
			SELECT id FROM analysis_run
			WHERE status = ? AND deleted_at IS NULL
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING *`,
		jobs.RunRunning, jobs.StageTranscribe, jobs.RunQueued,
	).Scan(&claimed).Error
	if err != nil {
		return nil, err
	}
	if len(claimed) == 0 {
		return nil, nil
	}
	return claimed[0], nil
}

func (r *analysisRunRepo) RequeueStale(ctx context.Context, tx *gorm.DB, staleAfter time.Duration) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	cutoff := time.Now().Add(-staleAfter)
	var requeued []*types.AnalysisRun
	err := transaction.WithContext(ctx).Transaction(func(tx2 *gorm.DB) error {
		// COALESCE catches runs that died before their first heartbeat.
		if err := tx2.Raw(`
			UPDATE analysis_run
			SET status = ?, stage = ?, locked_at = NULL, started_at = NULL,
			    heartbeat_at = NULL, updated_at = now()
			WHERE status = ? AND deleted_at IS NULL
			  AND COALESCE(heartbeat_at, locked_at) < ?
			RETURNING *`,
			jobs.RunQueued, jobs.StageQueued, jobs.RunRunning, cutoff,
		).Scan(&requeued).Error; err != nil {
			return err
		}
		if len(requeued) == 0 {
			return nil
		}
		noteIDs := make([]uuid.UUID, 0, len(requeued))
		for _, run := range requeued {
			noteIDs = append(noteIDs, run.NoteID)
		}
		return tx2.Model(&types.Note{}).
			Where("id IN ? AND analysis_status = ?", noteIDs, notes.AnalysisRunning).
			Update("analysis_status", notes.AnalysisIdle).Error
	})
	if err != nil {
		return 0, err
	}
	return int64(len(requeued)), nil
}

func (r *analysisRunRepo) Heartbeat(ctx context.Context, tx *gorm.DB, runID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now()
	return transaction.WithContext(ctx).
		Model(&types.AnalysisRun{}).
		Where("id = ?", runID).
		Update("heartbeat_at", &now).Error
}

func (r *analysisRunRepo) SetStage(ctx context.Context, tx *gorm.DB, runID uuid.UUID, stage string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.AnalysisRun{}).
		Where("id = ?", runID).
		Update("stage", stage).Error
}

func (r *analysisRunRepo) Finish(ctx context.Context, tx *gorm.DB, runID uuid.UUID, status string, reason string, result []byte) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now()
	fields := map[string]any{
		"status":      status,
		"error":       reason,
		"finished_at": &now,
	}
	if status == jobs.RunSucceeded {
		fields["stage"] = jobs.StageDone
	}
	if len(result) > 0 {
		fields["result"] = result
	}
	return transaction.WithContext(ctx).
		Model(&types.AnalysisRun{}).
		Where("id = ?", runID).
		Updates(fields).Error
}
