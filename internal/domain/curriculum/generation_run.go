package curriculum

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RunStatusSucceeded = "succeeded"
	RunStatusDegraded  = "degraded"
	RunStatusFailed    = "failed"
)

// LessonGenerationRun records one pipeline invocation for a lesson.
type LessonGenerationRun struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	LessonID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"lesson_id"`
	Mode             string         `gorm:"column:mode;not null" json:"mode"`
	Status           string         `gorm:"column:status;not null;index" json:"status"`
	UsedRAG          bool           `gorm:"column:used_rag;not null;default:false" json:"used_rag"`
	UsedWebSearch    bool           `gorm:"column:used_web_search;not null;default:false" json:"used_web_search"`
	InputTokens      int            `gorm:"column:input_tokens;not null;default:0" json:"input_tokens"`
	OutputTokens     int            `gorm:"column:output_tokens;not null;default:0" json:"output_tokens"`
	TotalTokens      int            `gorm:"column:total_tokens;not null;default:0" json:"total_tokens"`
	EstimatedCostUSD float64        `gorm:"column:estimated_cost_usd;not null;default:0" json:"estimated_cost_usd"`
	Usage            datatypes.JSON `gorm:"column:usage" json:"usage"`
	Error            string         `gorm:"column:error" json:"error,omitempty"`
	DurationMS       int64          `gorm:"column:duration_ms;not null;default:0" json:"duration_ms"`
	CreatedAt        time.Time      `gorm:"not null;index" json:"created_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (LessonGenerationRun) TableName() string { return "lesson_generation_run" }

func (r *LessonGenerationRun) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
