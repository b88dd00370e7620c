package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/notabene-app/notabene-backend/internal/domain"
	"github.com/notabene-app/notabene-backend/internal/domain/notes"
	"github.com/notabene-app/notabene-backend/internal/platform/apierr"
	"github.com/notabene-app/notabene-backend/internal/platform/logger"
	"github.com/notabene-app/notabene-backend/internal/repos"
)

// Validation failures carry their HTTP mapping so handlers can
// translate them without enumerating every sentinel.
var (
	ErrInvalidRange = apierr.New(http.StatusBadRequest, "invalid_range",
		errors.New("highlight start must not exceed end"))
	ErrClipTooLong = apierr.New(http.StatusBadRequest, "clip_too_long",
		errors.New("highlight exceeds maximum clip duration"))
	ErrHighlightTooLong = apierr.New(http.StatusBadRequest, "highlight_too_long",
		errors.New("highlight text exceeds maximum length"))
	ErrNoTranscript = apierr.New(http.StatusConflict, "no_transcript",
		errors.New("note has no transcript"))
)

type CreateHighlightInput struct {
	NoteID      uuid.UUID
	CreatedByID uuid.UUID
	StartMs     int64
	EndMs       int64
}

// HighlightService creates and removes user highlights over a note's
// transcript. Creation extracts the range text, persists the
// highlight, and tags every covered transcript word with the
// highlight's id; deletion mirrors the tagging.
type HighlightService interface {
	Create(ctx context.Context, in CreateHighlightInput) (*types.Highlight, error)
	ListByNote(ctx context.Context, noteID uuid.UUID) ([]*types.Highlight, error)
	Delete(ctx context.Context, highlightID uuid.UUID) error
}

type highlightService struct {
	db         *gorm.DB
	log        *logger.Logger
	notes      repos.NoteRepo
	highlights repos.HighlightRepo
}

func NewHighlightService(db *gorm.DB, baseLog *logger.Logger, noteRepo repos.NoteRepo, highlightRepo repos.HighlightRepo) HighlightService {
	return &highlightService{
		db:         db,
		log:        baseLog.With("service", "HighlightService"),
		notes:      noteRepo,
		highlights: highlightRepo,
	}
}

func (s *highlightService) Create(ctx context.Context, in CreateHighlightInput) (*types.Highlight, error) {
	if in.StartMs > in.EndMs {
		return nil, ErrInvalidRange
	}
	if in.EndMs-in.StartMs > notes.MaxClipDurationMs {
		return nil, ErrClipTooLong
	}

	note, err := s.notes.GetByID(ctx, nil, in.NoteID)
	if err != nil {
		return nil, fmt.Errorf("load note: %w", err)
	}
	transcript, err := notes.ParseTranscript(note.Transcript)
	if err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}
	if transcript == nil {
		return nil, ErrNoTranscript
	}

	text := transcript.TextInRange(in.StartMs, in.EndMs)
	if highlightTextTooLong(text) {
		return nil, ErrHighlightTooLong
	}

	highlight := &types.Highlight{
		ID:          uuid.New(),
		NoteID:      in.NoteID,
		CreatedByID: in.CreatedByID,
		StartMs:     in.StartMs,
		EndMs:       in.EndMs,
		Text:        text,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.highlights.Create(ctx, tx, highlight); err != nil {
			return fmt.Errorf("create highlight: %w", err)
		}
		transcript.TagHighlight(in.StartMs, in.EndMs, highlight.ID.String())
		raw, err := transcript.Marshal()
		if err != nil {
			return fmt.Errorf("marshal transcript: %w", err)
		}
		return s.notes.UpdateFields(ctx, tx, in.NoteID, map[string]any{
			"transcript": datatypes.JSON(raw),
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("highlight created",
		"highlight_id", highlight.ID,
		"note_id", in.NoteID,
		"start_ms", in.StartMs,
		"end_ms", in.EndMs,
	)
	return highlight, nil
}

// The cap is measured in characters, not bytes, so translated and CJK
// transcripts get the same budget as ASCII ones.
func highlightTextTooLong(text string) bool {
	return utf8.RuneCountInString(text) > notes.MaxHighlightTextLen
}

func (s *highlightService) ListByNote(ctx context.Context, noteID uuid.UUID) ([]*types.Highlight, error) {
	return s.highlights.ListByNoteID(ctx, nil, noteID)
}

func (s *highlightService) Delete(ctx context.Context, highlightID uuid.UUID) error {
	highlight, err := s.highlights.GetByID(ctx, nil, highlightID)
	if err != nil {
		return fmt.Errorf("load highlight: %w", err)
	}
	note, err := s.notes.GetByID(ctx, nil, highlight.NoteID)
	if err != nil {
		return fmt.Errorf("load note: %w", err)
	}
	transcript, err := notes.ParseTranscript(note.Transcript)
	if err != nil {
		return fmt.Errorf("parse transcript: %w", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if transcript != nil {
			transcript.UntagHighlight(highlight.StartMs, highlight.EndMs, highlight.ID.String())
			raw, err := transcript.Marshal()
			if err != nil {
				return fmt.Errorf("marshal transcript: %w", err)
			}
			if err := s.notes.UpdateFields(ctx, tx, note.ID, map[string]any{
				"transcript": datatypes.JSON(raw),
			}); err != nil {
				return err
			}
		}
		return s.highlights.SoftDeleteByID(ctx, tx, highlightID)
	})
}
