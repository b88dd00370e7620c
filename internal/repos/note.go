package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/notabene-app/notabene-backend/internal/domain"
	"github.com/notabene-app/notabene-backend/internal/domain/notes"
	"github.com/notabene-app/notabene-backend/internal/platform/logger"
)

type NoteRepo interface {
	Create(ctx context.Context, tx *gorm.DB, note *types.Note) (*types.Note, error)
	GetByID(ctx context.Context, tx *gorm.DB, noteID uuid.UUID) (*types.Note, error)
	ListByWorkspaceID(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) ([]*types.Note, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, noteID uuid.UUID, fields map[string]any) error
	SoftDeleteByID(ctx context.Context, tx *gorm.DB, noteID uuid.UUID) error

	// BeginAnalysis atomically flips the note into the running state.
	// It reports false when the note is already running (or missing),
	// which is the caller's signal that another pipeline owns it.
	BeginAnalysis(ctx context.Context, tx *gorm.DB, noteID uuid.UUID) (bool, error)
	FinishAnalysis(ctx context.Context, tx *gorm.DB, noteID uuid.UUID, status string, reason string) error
}

type noteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNoteRepo(db *gorm.DB, baseLog *logger.Logger) NoteRepo {
	return &noteRepo{db: db, log: baseLog.With("repo", "NoteRepo")}
}

func (r *noteRepo) Create(ctx context.Context, tx *gorm.DB, note *types.Note) (*types.Note, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(note).Error; err != nil {
		return nil, err
	}
	return note, nil
}

func (r *noteRepo) GetByID(ctx context.Context, tx *gorm.DB, noteID uuid.UUID) (*types.Note, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Note
	if err := transaction.WithContext(ctx).
		Where("id = ?", noteID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *noteRepo) ListByWorkspaceID(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) ([]*types.Note, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Note
	if err := transaction.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *noteRepo) UpdateFields(ctx context.Context, tx *gorm.DB, noteID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Note{}).
		Where("id = ?", noteID).
		Updates(fields).Error
}

func (r *noteRepo) SoftDeleteByID(ctx context.Context, tx *gorm.DB, noteID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", noteID).
		Delete(&types.Note{}).Error
}

func (r *noteRepo) BeginAnalysis(ctx context.Context, tx *gorm.DB, noteID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.Note{}).
		Where("id = ? AND analysis_status <> ?", noteID, notes.AnalysisRunning).
		Updates(map[string]any{
			"analysis_status": notes.AnalysisRunning,
			"analysis_error":  "",
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *noteRepo) FinishAnalysis(ctx context.Context, tx *gorm.DB, noteID uuid.UUID, status string, reason string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	fields := map[string]any{
		"analysis_status": status,
		"analysis_error":  reason,
	}
	if status == notes.AnalysisSucceeded {
		now := time.Now()
		fields["analyzed_at"] = &now
	}
	return transaction.WithContext(ctx).
		Model(&types.Note{}).
		Where("id = ?", noteID).
		Updates(fields).Error
}
