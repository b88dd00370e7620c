package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/notabene-app/notabene-backend/internal/domain"
	"github.com/notabene-app/notabene-backend/internal/domain/notes"
	"github.com/notabene-app/notabene-backend/internal/platform/apierr"
)

type fakeNoteRepo struct {
	note *types.Note
	err  error
}

func (f *fakeNoteRepo) Create(ctx context.Context, tx *gorm.DB, n *types.Note) (*types.Note, error) {
	return n, nil
}

func (f *fakeNoteRepo) GetByID(ctx context.Context, tx *gorm.DB, noteID uuid.UUID) (*types.Note, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.note, nil
}

func (f *fakeNoteRepo) ListByWorkspaceID(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) ([]*types.Note, error) {
	return nil, nil
}

func (f *fakeNoteRepo) UpdateFields(ctx context.Context, tx *gorm.DB, noteID uuid.UUID, fields map[string]any) error {
	return nil
}

func (f *fakeNoteRepo) SoftDeleteByID(ctx context.Context, tx *gorm.DB, noteID uuid.UUID) error {
	return nil
}

func (f *fakeNoteRepo) BeginAnalysis(ctx context.Context, tx *gorm.DB, noteID uuid.UUID) (bool, error) {
	return true, nil
}

func (f *fakeNoteRepo) FinishAnalysis(ctx context.Context, tx *gorm.DB, noteID uuid.UUID, status, reason string) error {
	return nil
}

func noteWithTranscript(t *testing.T, tr *notes.Transcript) *types.Note {
	t.Helper()
	n := &types.Note{ID: uuid.New()}
	if tr != nil {
		raw, err := tr.Marshal()
		if err != nil {
			t.Fatalf("marshal transcript: %v", err)
		}
		n.Transcript = datatypes.JSON(raw)
	}
	return n
}

func TestCreateHighlightRejectsInvertedRange(t *testing.T) {
	svc := NewHighlightService(nil, testLogger(t), nil, nil)

	_, err := svc.Create(context.Background(), CreateHighlightInput{
		NoteID:  uuid.New(),
		StartMs: 500,
		EndMs:   100,
	})
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("err = %v, want ErrInvalidRange", err)
	}
	// validation errors carry their HTTP mapping for the handlers
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Status != http.StatusBadRequest || ae.Code != "invalid_range" {
		t.Fatalf("err = %#v, want bad-request apierr", err)
	}
}

func TestCreateHighlightRejectsOverlongClip(t *testing.T) {
	svc := NewHighlightService(nil, testLogger(t), nil, nil)

	_, err := svc.Create(context.Background(), CreateHighlightInput{
		NoteID:  uuid.New(),
		StartMs: 0,
		EndMs:   notes.MaxClipDurationMs + 1,
	})
	if !errors.Is(err, ErrClipTooLong) {
		t.Fatalf("err = %v, want ErrClipTooLong", err)
	}
}

func TestCreateHighlightRequiresTranscript(t *testing.T) {
	repo := &fakeNoteRepo{note: noteWithTranscript(t, nil)}
	svc := NewHighlightService(nil, testLogger(t), repo, nil)

	_, err := svc.Create(context.Background(), CreateHighlightInput{
		NoteID:  uuid.New(),
		StartMs: 0,
		EndMs:   1000,
	})
	if !errors.Is(err, ErrNoTranscript) {
		t.Fatalf("err = %v, want ErrNoTranscript", err)
	}
}

func TestCreateHighlightRejectsOverlongText(t *testing.T) {
	// a single word whose text alone exceeds the highlight ceiling
	long := strings.Repeat("a", notes.MaxHighlightTextLen+1)
	tr := &notes.Transcript{
		Utterances: []notes.Utterance{
			{Speaker: "Speaker 1", Words: []notes.Word{{StartMs: 0, EndMs: 1000, Text: long}}},
		},
	}
	repo := &fakeNoteRepo{note: noteWithTranscript(t, tr)}
	svc := NewHighlightService(nil, testLogger(t), repo, nil)

	_, err := svc.Create(context.Background(), CreateHighlightInput{
		NoteID:  uuid.New(),
		StartMs: 0,
		EndMs:   1000,
	})
	if !errors.Is(err, ErrHighlightTooLong) {
		t.Fatalf("err = %v, want ErrHighlightTooLong", err)
	}
}

func TestHighlightTextLengthCountsRunes(t *testing.T) {
	limit := notes.MaxHighlightTextLen
	if highlightTextTooLong(strings.Repeat("a", limit)) {
		t.Fatal("ascii text at the limit rejected")
	}
	if !highlightTextTooLong(strings.Repeat("a", limit+1)) {
		t.Fatal("ascii text over the limit accepted")
	}
	// two bytes per rune; byte length is double the cap but the
	// character count is exactly at it
	if highlightTextTooLong(strings.Repeat("é", limit)) {
		t.Fatalf("%d-rune multibyte text rejected", limit)
	}
	if !highlightTextTooLong(strings.Repeat("é", limit+1)) {
		t.Fatal("multibyte text over the limit accepted")
	}
}

func TestCreateHighlightPropagatesNoteLoadError(t *testing.T) {
	repo := &fakeNoteRepo{err: gorm.ErrRecordNotFound}
	svc := NewHighlightService(nil, testLogger(t), repo, nil)

	_, err := svc.Create(context.Background(), CreateHighlightInput{
		NoteID: uuid.New(),
		EndMs:  1000,
	})
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("err = %v, want wrapped ErrRecordNotFound", err)
	}
}
