package jobs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RunQueued    = "queued"
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
	RunCanceled  = "canceled"
)

// Pipeline stages, recorded for observability as the run progresses.
const (
	StageQueued     = "queued"
	StageTranscribe = "transcribe"
	StageTranslate  = "translate"
	StageReflow     = "reflow"
	StageSummarize  = "summarize"
	StagePersist    = "persist"
	StageDone       = "done"
)

// AnalysisRun is one attempt at analyzing a note. Every trigger writes
// a row, and a failed attempt keeps its reason, so callers can tell a
// failed analysis apart from one that never ran.
type AnalysisRun struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	NoteID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"note_id"`
	RequestedByID uuid.UUID      `gorm:"type:uuid;index" json:"requested_by_id"`
	Status        string         `gorm:"column:status;not null;index" json:"status"`
	Stage         string         `gorm:"column:stage;not null" json:"stage"`
	Attempts      int            `gorm:"column:attempts;not null;default:0" json:"attempts"`
	Error         string         `gorm:"column:error" json:"error,omitempty"`
	Result        datatypes.JSON `gorm:"column:result;type:jsonb" json:"result,omitempty"`
	LockedAt      *time.Time     `gorm:"column:locked_at;index" json:"locked_at,omitempty"`
	HeartbeatAt   *time.Time     `gorm:"column:heartbeat_at" json:"heartbeat_at,omitempty"`
	StartedAt     *time.Time     `gorm:"column:started_at" json:"started_at,omitempty"`
	FinishedAt    *time.Time     `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (AnalysisRun) TableName() string { return "analysis_run" }
