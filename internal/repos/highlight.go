package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/notabene-app/notabene-backend/internal/domain"
	"github.com/notabene-app/notabene-backend/internal/platform/logger"
)

type HighlightRepo interface {
	Create(ctx context.Context, tx *gorm.DB, highlight *types.Highlight) (*types.Highlight, error)
	GetByID(ctx context.Context, tx *gorm.DB, highlightID uuid.UUID) (*types.Highlight, error)
	ListByNoteID(ctx context.Context, tx *gorm.DB, noteID uuid.UUID) ([]*types.Highlight, error)
	SoftDeleteByID(ctx context.Context, tx *gorm.DB, highlightID uuid.UUID) error
}

type highlightRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHighlightRepo(db *gorm.DB, baseLog *logger.Logger) HighlightRepo {
	return &highlightRepo{db: db, log: baseLog.With("repo", "HighlightRepo")}
}

func (r *highlightRepo) Create(ctx context.Context, tx *gorm.DB, highlight *types.Highlight) (*types.Highlight, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(highlight).Error; err != nil {
		return nil, err
	}
	return highlight, nil
}

func (r *highlightRepo) GetByID(ctx context.Context, tx *gorm.DB, highlightID uuid.UUID) (*types.Highlight, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Highlight
	if err := transaction.WithContext(ctx).
		Where("id = ?", highlightID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *highlightRepo) ListByNoteID(ctx context.Context, tx *gorm.DB, noteID uuid.UUID) ([]*types.Highlight, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Highlight
	if err := transaction.WithContext(ctx).
		Where("note_id = ?", noteID).
		Order("start_ms ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *highlightRepo) SoftDeleteByID(ctx context.Context, tx *gorm.DB, highlightID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", highlightID).
		Delete(&types.Highlight{}).Error
}
