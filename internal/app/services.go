package app

import (
	"gorm.io/gorm"

	"github.com/notabene-app/notabene-backend/internal/jobs"
	"github.com/notabene-app/notabene-backend/internal/platform/logger"
	"github.com/notabene-app/notabene-backend/internal/services"
)

type Services struct {
	Note        services.NoteService
	Highlight   services.HighlightService
	Transcriber services.TranscriberService
	Reflow      services.ReflowService
	Summarize   services.SummarizeService
	Analyzer    services.AnalyzerService

	Worker *jobs.Worker
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients) Services {
	log.Info("wiring services")

	transcriber := services.NewTranscriberService(log, c.Speech, c.Document, c.Translator, cfg.Analyzer.MaxTextBytes)
	reflow := services.NewReflowService(log, c.OpenAI, cfg.Analyzer.ChunkTokens)
	summarize := services.NewSummarizeService(log, c.OpenAI, r.NoteType, r.Keyword, cfg.Analyzer.ChunkTokens)

	analyzer := services.NewAnalyzerService(
		db,
		log,
		cfg.Analyzer,
		r.Note,
		r.AnalysisRun,
		r.Usage,
		transcriber,
		reflow,
		summarize,
		c.Bucket,
		c.Locker,
	)

	var worker *jobs.Worker
	if cfg.WorkerEnabled {
		worker = jobs.NewWorker(log, r.AnalysisRun, analyzer, cfg.WorkerConcurrency, cfg.WorkerPollInterval)
	}

	return Services{
		Note:        services.NewNoteService(log, r.Note),
		Highlight:   services.NewHighlightService(db, log, r.Note, r.Highlight),
		Transcriber: transcriber,
		Reflow:      reflow,
		Summarize:   summarize,
		Analyzer:    analyzer,
		Worker:      worker,
	}
}
