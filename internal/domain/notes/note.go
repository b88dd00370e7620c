package notes

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SourceUpload = "upload"
	SourceURL    = "url"
)

// Analysis lifecycle. A failed run is observable: the status moves to
// failed and AnalysisError carries the reason, so "failed" is
// distinguishable from "never analyzed".
const (
	AnalysisIdle      = "idle"
	AnalysisRunning   = "running"
	AnalysisSucceeded = "succeeded"
	AnalysisFailed    = "failed"
)

type Note struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	WorkspaceID uuid.UUID `gorm:"type:uuid;not null;index" json:"workspace_id"`
	ProjectID   uuid.UUID `gorm:"type:uuid;index" json:"project_id"`
	CreatedByID uuid.UUID `gorm:"type:uuid;index" json:"created_by_id"`

	Title       string `gorm:"column:title" json:"title"`
	Description string `gorm:"column:description" json:"description"`

	SourceKind string `gorm:"column:source_kind;not null;default:'upload'" json:"source_kind"`
	SourceName string `gorm:"column:source_name" json:"source_name"`
	SourceURL  string `gorm:"column:source_url" json:"source_url"`
	StorageKey string `gorm:"column:storage_key" json:"storage_key"`
	Language   string `gorm:"column:language;not null;default:'en'" json:"language"`

	Content    string         `gorm:"column:content;type:text" json:"content"`
	Transcript datatypes.JSON `gorm:"column:transcript;type:jsonb" json:"transcript,omitempty"`
	Summary    datatypes.JSON `gorm:"column:summary;type:jsonb" json:"summary,omitempty"`
	Sentiment  string         `gorm:"column:sentiment" json:"sentiment,omitempty"`

	NoteTypeID *uuid.UUID `gorm:"type:uuid;column:note_type_id;index" json:"note_type_id,omitempty"`
	NoteType   *NoteType  `gorm:"foreignKey:NoteTypeID;references:ID" json:"note_type,omitempty"`

	AnalysisStatus string     `gorm:"column:analysis_status;not null;default:'idle';index" json:"analysis_status"`
	AnalysisError  string     `gorm:"column:analysis_error" json:"analysis_error,omitempty"`
	AnalyzedAt     *time.Time `gorm:"column:analyzed_at" json:"analyzed_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Note) TableName() string { return "note" }
