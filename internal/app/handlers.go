package app

import (
	"github.com/notabene-app/notabene-backend/internal/handlers"
	"github.com/notabene-app/notabene-backend/internal/platform/logger"
)

type Handlers struct {
	Note      *handlers.NoteHandler
	Highlight *handlers.HighlightHandler
	Analysis  *handlers.AnalysisHandler
}

func wireHandlers(log *logger.Logger, s Services, r Repos) Handlers {
	log.Info("wiring handlers")
	return Handlers{
		Note:      handlers.NewNoteHandler(log, s.Note),
		Highlight: handlers.NewHighlightHandler(log, s.Highlight),
		Analysis:  handlers.NewAnalysisHandler(log, s.Analyzer, r.Usage),
	}
}
