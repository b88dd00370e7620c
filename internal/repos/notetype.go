package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/notabene-app/notabene-backend/internal/domain"
	"github.com/notabene-app/notabene-backend/internal/platform/logger"
)

type NoteTypeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, noteType *types.NoteType) (*types.NoteType, error)
	ListByProjectID(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.NoteType, error)
	UpdateEmbedding(ctx context.Context, tx *gorm.DB, noteTypeID uuid.UUID, embedding []byte) error
}

type noteTypeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNoteTypeRepo(db *gorm.DB, baseLog *logger.Logger) NoteTypeRepo {
	return &noteTypeRepo{db: db, log: baseLog.With("repo", "NoteTypeRepo")}
}

func (r *noteTypeRepo) Create(ctx context.Context, tx *gorm.DB, noteType *types.NoteType) (*types.NoteType, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(noteType).Error; err != nil {
		return nil, err
	}
	return noteType, nil
}

func (r *noteTypeRepo) ListByProjectID(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.NoteType, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.NoteType
	if err := transaction.WithContext(ctx).
		Where("project_id = ?", projectID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *noteTypeRepo) UpdateEmbedding(ctx context.Context, tx *gorm.DB, noteTypeID uuid.UUID, embedding []byte) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.NoteType{}).
		Where("id = ?", noteTypeID).
		Update("embedding", embedding).Error
}
