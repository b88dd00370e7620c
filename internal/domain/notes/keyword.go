package notes

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Keyword rows are global and deduplicated by exact name.
type Keyword struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Keyword) TableName() string { return "keyword" }

type NoteKeyword struct {
	NoteID    uuid.UUID `gorm:"type:uuid;not null;primaryKey" json:"note_id"`
	KeywordID uuid.UUID `gorm:"type:uuid;not null;primaryKey" json:"keyword_id"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (NoteKeyword) TableName() string { return "note_keyword" }

// NoteType is one entry in a project's catalog of known note types.
// Embedding holds the vector of the type name, used for
// nearest-neighbor classification of a note's free-text type guess.
type NoteType struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID uuid.UUID      `gorm:"type:uuid;not null;index" json:"project_id"`
	Name      string         `gorm:"column:name;not null" json:"name"`
	Embedding datatypes.JSON `gorm:"column:embedding;type:jsonb" json:"embedding,omitempty"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (NoteType) TableName() string { return "note_type" }

func (nt *NoteType) Vector() []float32 {
	if nt == nil || len(nt.Embedding) == 0 {
		return nil
	}
	var vec []float32
	if err := jsonUnmarshal(nt.Embedding, &vec); err != nil {
		return nil
	}
	return vec
}
