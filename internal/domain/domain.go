package domain

import (
	"github.com/notabene-app/notabene-backend/internal/domain/billing"
	"github.com/notabene-app/notabene-backend/internal/domain/jobs"
	"github.com/notabene-app/notabene-backend/internal/domain/notes"
)

type Note = notes.Note
type Transcript = notes.Transcript
type Utterance = notes.Utterance
type Word = notes.Word
type Highlight = notes.Highlight
type Keyword = notes.Keyword
type NoteKeyword = notes.NoteKeyword
type NoteType = notes.NoteType

type AnalysisRun = jobs.AnalysisRun
type UsageRecord = billing.UsageRecord
