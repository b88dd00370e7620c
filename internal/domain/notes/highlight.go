package notes

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ceilings enforced at highlight creation.
const (
	MaxClipDurationMs   = 300_000
	MaxHighlightTextLen = 1000
)

type Highlight struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	NoteID      uuid.UUID `gorm:"type:uuid;not null;index" json:"note_id"`
	Note        *Note     `gorm:"constraint:OnDelete:CASCADE;foreignKey:NoteID;references:ID" json:"note,omitempty"`
	CreatedByID uuid.UUID `gorm:"type:uuid;index" json:"created_by_id"`

	StartMs int64  `gorm:"column:start_ms;not null" json:"start_ms"`
	EndMs   int64  `gorm:"column:end_ms;not null" json:"end_ms"`
	Text    string `gorm:"column:text;type:text" json:"text"`

	ClipKey      string `gorm:"column:clip_key" json:"clip_key,omitempty"`
	ThumbnailKey string `gorm:"column:thumbnail_key" json:"thumbnail_key,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Highlight) TableName() string { return "highlight" }
