package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/notabene-app/notabene-backend/internal/domain"
	"github.com/notabene-app/notabene-backend/internal/platform/logger"
)

type KeywordRepo interface {
	GetByNames(ctx context.Context, tx *gorm.DB, names []string) ([]*types.Keyword, error)
	// CreateMissing inserts keywords that do not exist yet; the unique
	// index on name absorbs concurrent identical creations.
	CreateMissing(ctx context.Context, tx *gorm.DB, names []string) ([]*types.Keyword, error)
	LinkToNote(ctx context.Context, tx *gorm.DB, noteID uuid.UUID, keywordIDs []uuid.UUID) error
	ListByNoteID(ctx context.Context, tx *gorm.DB, noteID uuid.UUID) ([]*types.Keyword, error)
}

type keywordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewKeywordRepo(db *gorm.DB, baseLog *logger.Logger) KeywordRepo {
	return &keywordRepo{db: db, log: baseLog.With("repo", "KeywordRepo")}
}

func (r *keywordRepo) GetByNames(ctx context.Context, tx *gorm.DB, names []string) ([]*types.Keyword, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Keyword
	if len(names) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("name IN ?", names).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *keywordRepo) CreateMissing(ctx context.Context, tx *gorm.DB, names []string) ([]*types.Keyword, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(names) == 0 {
		return []*types.Keyword{}, nil
	}

	rows := make([]*types.Keyword, 0, len(names))
	for _, n := range names {
		rows = append(rows, &types.Keyword{Name: n})
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(&rows).Error; err != nil {
		return nil, err
	}

	// Re-read so conflicting rows come back with their real ids.
	return r.GetByNames(ctx, transaction, names)
}

func (r *keywordRepo) LinkToNote(ctx context.Context, tx *gorm.DB, noteID uuid.UUID, keywordIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(keywordIDs) == 0 {
		return nil
	}
	rows := make([]*types.NoteKeyword, 0, len(keywordIDs))
	for _, id := range keywordIDs {
		rows = append(rows, &types.NoteKeyword{NoteID: noteID, KeywordID: id})
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

func (r *keywordRepo) ListByNoteID(ctx context.Context, tx *gorm.DB, noteID uuid.UUID) ([]*types.Keyword, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Keyword
	if err := transaction.WithContext(ctx).
		Joins("JOIN note_keyword ON note_keyword.keyword_id = keyword.id").
		Where("note_keyword.note_id = ?", noteID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
