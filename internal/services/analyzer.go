package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/notabene-app/notabene-backend/internal/clients/gcp"
	rdb "github.com/notabene-app/notabene-backend/internal/clients/redis"
	types "github.com/notabene-app/notabene-backend/internal/domain"
	"github.com/notabene-app/notabene-backend/internal/domain/jobs"
	"github.com/notabene-app/notabene-backend/internal/domain/notes"
	"github.com/notabene-app/notabene-backend/internal/platform/apierr"
	"github.com/notabene-app/notabene-backend/internal/platform/logger"
	"github.com/notabene-app/notabene-backend/internal/repos"
)

var (
	// ErrAnalysisRunning means another pipeline currently owns the
	// note. Callers see a typed result instead of a silent second run.
	ErrAnalysisRunning = apierr.New(http.StatusConflict, "analysis_running",
		errors.New("analysis already running for this note"))

	ErrAudioQuotaExceeded = apierr.New(http.StatusTooManyRequests, "audio_quota_exceeded",
		errors.New("monthly audio transcription quota exceeded"))
)

// AnalyzerConfig bounds each pipeline run.
type AnalyzerConfig struct {
	ChunkTokens           int
	MaxTextBytes          int
	RunTimeout            time.Duration
	LockTTL               time.Duration
	MaxMonthlyAudioSecond float64
}

func (c AnalyzerConfig) withDefaults() AnalyzerConfig {
	if c.ChunkTokens <= 0 {
		c.ChunkTokens = 2000
	}
	if c.MaxTextBytes <= 0 {
		c.MaxTextBytes = 200_000
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = 30 * time.Minute
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 45 * time.Minute
	}
	if c.MaxMonthlyAudioSecond <= 0 {
		c.MaxMonthlyAudioSecond = 10 * 3600
	}
	return c
}

// AnalyzerService owns the note-analysis pipeline:
// transcribe-or-download, translate, reflow, summarize, persist.
// Enqueue creates an AnalysisRun row; the background worker claims it
// and calls Run. Every run finishes in an observable terminal state.
type AnalyzerService interface {
	Enqueue(ctx context.Context, noteID uuid.UUID, requestedBy uuid.UUID) (*types.AnalysisRun, error)
	Run(ctx context.Context, run *types.AnalysisRun) error
	LatestRun(ctx context.Context, noteID uuid.UUID) (*types.AnalysisRun, error)
}

type analyzerService struct {
	db  *gorm.DB
	log *logger.Logger
	cfg AnalyzerConfig

	noteRepo repos.NoteRepo
	runRepo  repos.AnalysisRunRepo
	usage    repos.UsageRepo

	transcriber TranscriberService
	reflow      ReflowService
	summarize   SummarizeService
	bucket      gcp.Bucket
	locker      rdb.NoteLocker

	httpClient *http.Client
}

func NewAnalyzerService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg AnalyzerConfig,
	noteRepo repos.NoteRepo,
	runRepo repos.AnalysisRunRepo,
	usage repos.UsageRepo,
	transcriber TranscriberService,
	reflow ReflowService,
	summarize SummarizeService,
	bucket gcp.Bucket,
	locker rdb.NoteLocker,
) AnalyzerService {
	return &analyzerService{
		db:          db,
		log:         baseLog.With("service", "AnalyzerService"),
		cfg:         cfg.withDefaults(),
		noteRepo:    noteRepo,
		runRepo:     runRepo,
		usage:       usage,
		transcriber: transcriber,
		reflow:      reflow,
		summarize:   summarize,
		bucket:      bucket,
		locker:      locker,
		httpClient:  &http.Client{Timeout: 2 * time.Minute},
	}
}

func (s *analyzerService) Enqueue(ctx context.Context, noteID uuid.UUID, requestedBy uuid.UUID) (*types.AnalysisRun, error) {
	if noteID == uuid.Nil {
		return nil, fmt.Errorf("missing note_id")
	}
	if _, err := s.noteRepo.GetByID(ctx, nil, noteID); err != nil {
		return nil, fmt.Errorf("load note: %w", err)
	}

	active, err := s.runRepo.HasActiveByNoteID(ctx, nil, noteID)
	if err != nil {
		return nil, fmt.Errorf("check active runs: %w", err)
	}
	if active {
		return nil, ErrAnalysisRunning
	}

	run := &types.AnalysisRun{
		ID:            uuid.New(),
		NoteID:        noteID,
		RequestedByID: requestedBy,
		Status:        jobs.RunQueued,
		Stage:         jobs.StageQueued,
	}
	return s.runRepo.Create(ctx, nil, run)
}

func (s *analyzerService) LatestRun(ctx context.Context, noteID uuid.UUID) (*types.AnalysisRun, error) {
	return s.runRepo.GetLatestByNoteID(ctx, nil, noteID)
}

// Run executes the pipeline for a claimed run. Failures are persisted
// on both the run and the note before the error is returned, so a
// failed analysis is never indistinguishable from a no-op.
func (s *analyzerService) Run(ctx context.Context, run *types.AnalysisRun) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	ctx, span := otel.Tracer("analyzer").Start(ctx, "analysis.run", trace.WithAttributes(
		attribute.String("run.id", run.ID.String()),
		attribute.String("note.id", run.NoteID.String()),
	))
	defer span.End()

	log := s.log.With("run_id", run.ID, "note_id", run.NoteID)

	if s.locker != nil {
		ok, err := s.locker.Acquire(ctx, run.NoteID, s.cfg.LockTTL)
		if err != nil {
			return s.fail(ctx, run, fmt.Errorf("acquire note lock: %w", err))
		}
		if !ok {
			return s.fail(ctx, run, ErrAnalysisRunning)
		}
		defer func() {
			if err := s.locker.Release(context.Background(), run.NoteID); err != nil {
				log.Warn("release note lock failed", "error", err)
			}
		}()
	}

	ok, err := s.noteRepo.BeginAnalysis(ctx, nil, run.NoteID)
	if err != nil {
		return s.fail(ctx, run, fmt.Errorf("begin analysis: %w", err))
	}
	if !ok {
		return s.fail(ctx, run, ErrAnalysisRunning)
	}

	// Terminal state is persisted on a detached context: the pipeline
	// may have died on ctx itself (run timeout, worker shutdown), and a
	// note left in analysis_status=running blocks every future run.
	persistCtx := context.WithoutCancel(ctx)

	result, err := s.pipeline(ctx, run, log)
	if err != nil {
		span.RecordError(err)
		if ferr := s.noteRepo.FinishAnalysis(persistCtx, nil, run.NoteID, notes.AnalysisFailed, err.Error()); ferr != nil {
			log.Error("persist failed state", "error", ferr)
		}
		return s.fail(persistCtx, run, err)
	}

	if err := s.noteRepo.FinishAnalysis(persistCtx, nil, run.NoteID, notes.AnalysisSucceeded, ""); err != nil {
		return s.fail(persistCtx, run, fmt.Errorf("persist succeeded state: %w", err))
	}
	raw, _ := json.Marshal(result)
	if err := s.runRepo.Finish(persistCtx, nil, run.ID, jobs.RunSucceeded, "", raw); err != nil {
		log.Error("finish run", "error", err)
	}
	log.Info("analysis succeeded", "content_chars", result["content_chars"], "keywords", result["keywords"])
	return nil
}

func (s *analyzerService) fail(ctx context.Context, run *types.AnalysisRun, cause error) error {
	// The cause may be ctx's own expiry; the failure row must land anyway.
	ctx = context.WithoutCancel(ctx)
	s.log.Error("analysis failed", "run_id", run.ID, "note_id", run.NoteID, "error", cause)
	if err := s.runRepo.Finish(ctx, nil, run.ID, jobs.RunFailed, cause.Error(), nil); err != nil {
		s.log.Error("persist run failure", "run_id", run.ID, "error", err)
	}
	return cause
}

func (s *analyzerService) pipeline(ctx context.Context, run *types.AnalysisRun, log *logger.Logger) (map[string]any, error) {
	note, err := s.noteRepo.GetByID(ctx, nil, run.NoteID)
	if err != nil {
		return nil, fmt.Errorf("load note: %w", err)
	}

	// transcribe or download
	_ = s.runRepo.SetStage(ctx, nil, run.ID, jobs.StageTranscribe)

	var (
		text         string
		transcript   *notes.Transcript
		audioSeconds float64
	)
	switch note.SourceKind {
	case notes.SourceURL:
		text, err = s.fetchURL(ctx, note.SourceURL)
		if err != nil {
			return nil, fmt.Errorf("download source url: %w", err)
		}
	default:
		if IsAudioVideoFile(note.SourceName) {
			used, err := s.usage.AudioSecondsThisPeriod(ctx, nil, note.WorkspaceID)
			if err != nil {
				return nil, fmt.Errorf("check audio quota: %w", err)
			}
			if used >= s.cfg.MaxMonthlyAudioSecond {
				return nil, ErrAudioQuotaExceeded
			}
		}
		data, err := s.bucket.Download(ctx, note.StorageKey)
		if err != nil {
			return nil, fmt.Errorf("download note file: %w", err)
		}
		out, err := s.transcriber.Transcribe(ctx, TranscribeInput{
			FileName:   note.SourceName,
			Data:       data,
			TargetLang: note.Language,
		})
		if err != nil {
			return nil, err
		}
		text = out.Text
		transcript = out.Transcript
		audioSeconds = out.AudioSeconds

		// Only the duration-based speech strategy is metered.
		if out.Kind == KindSpeech && audioSeconds > 0 {
			if err := s.usage.AddAudioSeconds(ctx, nil, note.WorkspaceID, audioSeconds); err != nil {
				log.Warn("record audio usage failed", "error", err)
			}
		}
	}

	// reflow long-form transcripts into readable paragraphs
	content := text
	if transcript != nil && len(transcript.Utterances) > 0 {
		_ = s.runRepo.SetStage(ctx, nil, run.ID, jobs.StageReflow)
		segments := make([]string, 0, len(transcript.Utterances))
		for _, u := range transcript.Utterances {
			words := make([]string, 0, len(u.Words))
			for _, w := range u.Words {
				words = append(words, w.Text)
			}
			segments = append(segments, strings.Join(words, " "))
		}
		content, err = s.reflow.Reflow(ctx, segments)
		if err != nil {
			return nil, fmt.Errorf("reflow: %w", err)
		}
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("no text extracted from note source")
	}

	// summarize
	_ = s.runRepo.SetStage(ctx, nil, run.ID, jobs.StageSummarize)
	meta, err := s.summarize.GenerateMetadata(ctx, content)
	if err != nil {
		return nil, err
	}

	var noteTypeID *uuid.UUID
	if meta.TypeGuess != "" {
		noteTypeID, err = s.summarize.ClassifyType(ctx, note.ProjectID, meta.TypeGuess)
		if err != nil {
			log.Warn("type classification failed", "error", err)
			noteTypeID = nil
		}
	}

	// persist
	_ = s.runRepo.SetStage(ctx, nil, run.ID, jobs.StagePersist)
	summaryJSON, _ := json.Marshal(meta.Summary)
	fields := map[string]any{
		"content":     content,
		"description": meta.Description,
		"summary":     datatypes.JSON(summaryJSON),
		"sentiment":   meta.Sentiment,
	}
	if note.Title == "" && meta.Title != "" {
		fields["title"] = meta.Title
	}
	if noteTypeID != nil {
		fields["note_type_id"] = *noteTypeID
	}
	if transcript != nil && len(transcript.Utterances) > 0 {
		raw, err := transcript.Marshal()
		if err != nil {
			return nil, fmt.Errorf("marshal transcript: %w", err)
		}
		fields["transcript"] = datatypes.JSON(raw)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.noteRepo.UpdateFields(ctx, tx, note.ID, fields); err != nil {
			return fmt.Errorf("persist note fields: %w", err)
		}
		return s.summarize.AttachKeywords(ctx, tx, note.ID, meta.Keywords)
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"content_chars": len(content),
		"keywords":      len(meta.Keywords),
		"audio_seconds": audioSeconds,
		"typed":         noteTypeID != nil,
	}, nil
}

func (s *analyzerService) fetchURL(ctx context.Context, url string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", fmt.Errorf("empty source url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch %s: http %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(s.cfg.MaxTextBytes)))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
