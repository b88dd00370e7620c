package billing

import (
	"time"

	"github.com/google/uuid"
)

// UsageRecord accumulates billable audio seconds per workspace per
// calendar month. Only the duration-based speech transcriber adds to
// it; document extraction is not metered by duration.
type UsageRecord struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	WorkspaceID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_usage_workspace_period" json:"workspace_id"`
	Period       string    `gorm:"column:period;not null;uniqueIndex:idx_usage_workspace_period" json:"period"`
	AudioSeconds float64   `gorm:"column:audio_seconds;not null;default:0" json:"audio_seconds"`
	CreatedAt    time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (UsageRecord) TableName() string { return "usage_record" }

// PeriodFor formats t as the YYYY-MM billing period key.
func PeriodFor(t time.Time) string {
	return t.UTC().Format("2006-01")
}
