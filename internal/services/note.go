package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	types "github.com/notabene-app/notabene-backend/internal/domain"
	"github.com/notabene-app/notabene-backend/internal/domain/notes"
	"github.com/notabene-app/notabene-backend/internal/platform/apierr"
	"github.com/notabene-app/notabene-backend/internal/platform/logger"
	"github.com/notabene-app/notabene-backend/internal/repos"
)

var ErrNoteSourceMissing = apierr.New(http.StatusBadRequest, "note_source_missing",
	errors.New("note needs a storage key or a source url"))

type CreateNoteInput struct {
	WorkspaceID uuid.UUID
	ProjectID   uuid.UUID
	CreatedByID uuid.UUID
	Title       string
	SourceName  string
	SourceURL   string
	StorageKey  string
	Language    string
}

type NoteService interface {
	Create(ctx context.Context, in CreateNoteInput) (*types.Note, error)
	GetByID(ctx context.Context, noteID uuid.UUID) (*types.Note, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*types.Note, error)
	Delete(ctx context.Context, noteID uuid.UUID) error
}

type noteService struct {
	log   *logger.Logger
	notes repos.NoteRepo
}

func NewNoteService(baseLog *logger.Logger, noteRepo repos.NoteRepo) NoteService {
	return &noteService{
		log:   baseLog.With("service", "NoteService"),
		notes: noteRepo,
	}
}

func (s *noteService) Create(ctx context.Context, in CreateNoteInput) (*types.Note, error) {
	if in.WorkspaceID == uuid.Nil {
		return nil, fmt.Errorf("missing workspace_id")
	}

	sourceKind := notes.SourceUpload
	switch {
	case strings.TrimSpace(in.StorageKey) != "":
		sourceKind = notes.SourceUpload
	case strings.TrimSpace(in.SourceURL) != "":
		sourceKind = notes.SourceURL
	default:
		return nil, ErrNoteSourceMissing
	}

	lang := strings.TrimSpace(in.Language)
	if lang == "" {
		lang = "en"
	}

	note := &types.Note{
		ID:             uuid.New(),
		WorkspaceID:    in.WorkspaceID,
		ProjectID:      in.ProjectID,
		CreatedByID:    in.CreatedByID,
		Title:          strings.TrimSpace(in.Title),
		SourceKind:     sourceKind,
		SourceName:     strings.TrimSpace(in.SourceName),
		SourceURL:      strings.TrimSpace(in.SourceURL),
		StorageKey:     strings.TrimSpace(in.StorageKey),
		Language:       lang,
		AnalysisStatus: notes.AnalysisIdle,
	}
	return s.notes.Create(ctx, nil, note)
}

func (s *noteService) GetByID(ctx context.Context, noteID uuid.UUID) (*types.Note, error) {
	return s.notes.GetByID(ctx, nil, noteID)
}

func (s *noteService) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*types.Note, error) {
	return s.notes.ListByWorkspaceID(ctx, nil, workspaceID)
}

func (s *noteService) Delete(ctx context.Context, noteID uuid.UUID) error {
	return s.notes.SoftDeleteByID(ctx, nil, noteID)
}
