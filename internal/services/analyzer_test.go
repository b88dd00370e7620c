package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/notabene-app/notabene-backend/internal/domain"
	"github.com/notabene-app/notabene-backend/internal/domain/jobs"
	"github.com/notabene-app/notabene-backend/internal/domain/notes"
	"github.com/notabene-app/notabene-backend/internal/platform/apierr"
)

type fakeRunRepo struct {
	active  bool
	created *types.AnalysisRun
	latest  *types.AnalysisRun

	finishStatus string
	finishReason string
	finishCtxErr error
}

func (f *fakeRunRepo) Create(ctx context.Context, tx *gorm.DB, run *types.AnalysisRun) (*types.AnalysisRun, error) {
	f.created = run
	return run, nil
}

func (f *fakeRunRepo) GetByID(ctx context.Context, tx *gorm.DB, runID uuid.UUID) (*types.AnalysisRun, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRunRepo) GetLatestByNoteID(ctx context.Context, tx *gorm.DB, noteID uuid.UUID) (*types.AnalysisRun, error) {
	if f.latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.latest, nil
}

func (f *fakeRunRepo) HasActiveByNoteID(ctx context.Context, tx *gorm.DB, noteID uuid.UUID) (bool, error) {
	return f.active, nil
}

func (f *fakeRunRepo) ClaimNext(ctx context.Context, tx *gorm.DB) (*types.AnalysisRun, error) {
	return nil, nil
}

func (f *fakeRunRepo) Heartbeat(ctx context.Context, tx *gorm.DB, runID uuid.UUID) error {
	return nil
}

func (f *fakeRunRepo) SetStage(ctx context.Context, tx *gorm.DB, runID uuid.UUID, stage string) error {
	return nil
}

func (f *fakeRunRepo) RequeueStale(ctx context.Context, tx *gorm.DB, staleAfter time.Duration) (int64, error) {
	return 0, nil
}

func (f *fakeRunRepo) Finish(ctx context.Context, tx *gorm.DB, runID uuid.UUID, status, reason string, result []byte) error {
	f.finishStatus = status
	f.finishReason = reason
	f.finishCtxErr = ctx.Err()
	return nil
}

func newTestAnalyzer(t *testing.T, noteRepo *fakeNoteRepo, runRepo *fakeRunRepo) AnalyzerService {
	t.Helper()
	return NewAnalyzerService(
		nil,
		testLogger(t),
		AnalyzerConfig{},
		noteRepo,
		runRepo,
		nil,
		nil,
		nil,
		nil,
		nil,
		nil,
	)
}

func TestEnqueueCreatesQueuedRun(t *testing.T) {
	noteID := uuid.New()
	userID := uuid.New()
	runRepo := &fakeRunRepo{}
	svc := newTestAnalyzer(t, &fakeNoteRepo{note: &types.Note{ID: noteID}}, runRepo)

	run, err := svc.Enqueue(context.Background(), noteID, userID)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if run.Status != jobs.RunQueued || run.Stage != jobs.StageQueued {
		t.Fatalf("run = %+v", run)
	}
	if run.NoteID != noteID || run.RequestedByID != userID {
		t.Fatalf("run ids = %+v", run)
	}
	if runRepo.created == nil {
		t.Fatal("run was not persisted")
	}
}

func TestEnqueueRejectsActiveRun(t *testing.T) {
	noteID := uuid.New()
	svc := newTestAnalyzer(t, &fakeNoteRepo{note: &types.Note{ID: noteID}}, &fakeRunRepo{active: true})

	_, err := svc.Enqueue(context.Background(), noteID, uuid.New())
	if !errors.Is(err, ErrAnalysisRunning) {
		t.Fatalf("err = %v, want ErrAnalysisRunning", err)
	}
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Status != http.StatusConflict {
		t.Fatalf("err = %v, want conflict status", err)
	}
}

// ctxNoteRepo fails reads once its context is dead, the way a real
// database query would, and records the context state at the terminal
// write.
type ctxNoteRepo struct {
	fakeNoteRepo

	finishStatus string
	finishReason string
	finishCtxErr error
}

func (f *ctxNoteRepo) GetByID(ctx context.Context, tx *gorm.DB, noteID uuid.UUID) (*types.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.fakeNoteRepo.GetByID(ctx, tx, noteID)
}

func (f *ctxNoteRepo) FinishAnalysis(ctx context.Context, tx *gorm.DB, noteID uuid.UUID, status, reason string) error {
	f.finishStatus = status
	f.finishReason = reason
	f.finishCtxErr = ctx.Err()
	return nil
}

func TestRunRecordsFailureWhenContextDies(t *testing.T) {
	noteID := uuid.New()
	noteRepo := &ctxNoteRepo{fakeNoteRepo: fakeNoteRepo{note: &types.Note{ID: noteID}}}
	runRepo := &fakeRunRepo{}
	svc := NewAnalyzerService(nil, testLogger(t), AnalyzerConfig{},
		noteRepo, runRepo, nil, nil, nil, nil, nil, nil)

	run := &types.AnalysisRun{ID: uuid.New(), NoteID: noteID, Status: jobs.RunRunning}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.Run(ctx, run)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if noteRepo.finishStatus != notes.AnalysisFailed {
		t.Fatalf("note status = %q, want %q", noteRepo.finishStatus, notes.AnalysisFailed)
	}
	if runRepo.finishStatus != jobs.RunFailed {
		t.Fatalf("run status = %q, want %q", runRepo.finishStatus, jobs.RunFailed)
	}
	// terminal writes must run on a live context even though the run
	// itself died on its own
	if noteRepo.finishCtxErr != nil || runRepo.finishCtxErr != nil {
		t.Fatalf("terminal writes saw dead contexts: note=%v run=%v",
			noteRepo.finishCtxErr, runRepo.finishCtxErr)
	}
	if runRepo.finishReason == "" {
		t.Fatal("run failure reason not recorded")
	}
}

func TestEnqueueRejectsMissingNote(t *testing.T) {
	svc := newTestAnalyzer(t, &fakeNoteRepo{err: gorm.ErrRecordNotFound}, &fakeRunRepo{})

	if _, err := svc.Enqueue(context.Background(), uuid.New(), uuid.New()); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("err = %v, want wrapped ErrRecordNotFound", err)
	}
	if _, err := svc.Enqueue(context.Background(), uuid.Nil, uuid.New()); err == nil {
		t.Fatal("expected error for nil note id")
	}
}

func TestLatestRun(t *testing.T) {
	run := &types.AnalysisRun{ID: uuid.New(), Status: jobs.RunSucceeded}
	svc := newTestAnalyzer(t, &fakeNoteRepo{}, &fakeRunRepo{latest: run})

	got, err := svc.LatestRun(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if got.ID != run.ID {
		t.Fatalf("run = %+v, want %+v", got, run)
	}
}

func TestAnalyzerConfigDefaults(t *testing.T) {
	cfg := AnalyzerConfig{}.withDefaults()
	if cfg.ChunkTokens <= 0 || cfg.MaxTextBytes <= 0 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.RunTimeout <= 0 || cfg.LockTTL <= 0 || cfg.MaxMonthlyAudioSecond <= 0 {
		t.Fatalf("cfg = %+v", cfg)
	}

	set := AnalyzerConfig{ChunkTokens: 100}.withDefaults()
	if set.ChunkTokens != 100 {
		t.Fatalf("explicit value overridden: %+v", set)
	}
}
