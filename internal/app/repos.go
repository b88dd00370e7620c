package app

import (
	"gorm.io/gorm"

	"github.com/notabene-app/notabene-backend/internal/platform/logger"
	"github.com/notabene-app/notabene-backend/internal/repos"
)

type Repos struct {
	Note        repos.NoteRepo
	Highlight   repos.HighlightRepo
	Keyword     repos.KeywordRepo
	NoteType    repos.NoteTypeRepo
	AnalysisRun repos.AnalysisRunRepo
	Usage       repos.UsageRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("wiring repos")
	return Repos{
		Note:        repos.NewNoteRepo(db, log),
		Highlight:   repos.NewHighlightRepo(db, log),
		Keyword:     repos.NewKeywordRepo(db, log),
		NoteType:    repos.NewNoteTypeRepo(db, log),
		AnalysisRun: repos.NewAnalysisRunRepo(db, log),
		Usage:       repos.NewUsageRepo(db, log),
	}
}
