package curriculum

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Program struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Code             string         `gorm:"column:code;size:6;not null;uniqueIndex" json:"code"`
	Title            string         `gorm:"column:title;not null" json:"title"`
	Niche            string         `gorm:"column:niche" json:"niche,omitempty"`
	Domain           string         `gorm:"column:domain;index" json:"domain,omitempty"`
	Description      string         `gorm:"column:description" json:"description,omitempty"`
	DesignParameters datatypes.JSON `gorm:"column:design_parameters" json:"design_parameters"`
	VectorStoreIDs   datatypes.JSON `gorm:"column:vector_store_ids" json:"vector_store_ids"`
	Courses          []Course       `gorm:"foreignKey:ProgramID" json:"courses,omitempty"`
	CreatedAt        time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Program) TableName() string { return "program" }

func (p *Program) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type Course struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProgramID        uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_course_program_seq" json:"program_id"`
	Sequence         int            `gorm:"column:sequence;not null;uniqueIndex:idx_course_program_seq" json:"sequence"`
	Code             string         `gorm:"column:code;not null;index" json:"code"`
	Title            string         `gorm:"column:title;not null" json:"title"`
	Description      string         `gorm:"column:description" json:"description,omitempty"`
	Context          string         `gorm:"column:context" json:"context,omitempty"`
	DesignParameters datatypes.JSON `gorm:"column:design_parameters" json:"design_parameters"`
	Topics           []Topic        `gorm:"foreignKey:CourseID" json:"topics,omitempty"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Course) TableName() string { return "course" }

func (c *Course) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Topic struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID    uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_topic_course_seq" json:"course_id"`
	Sequence    int            `gorm:"column:sequence;not null;uniqueIndex:idx_topic_course_seq" json:"sequence"`
	Code        string         `gorm:"column:code;not null" json:"code"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	Description string         `gorm:"column:description" json:"description,omitempty"`
	Lessons     []Lesson       `gorm:"foreignKey:TopicID" json:"lessons,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Topic) TableName() string { return "topic" }

func (t *Topic) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

const (
	LessonStatusPending    = "pending"
	LessonStatusGenerating = "generating"
	LessonStatusReady      = "ready"
	LessonStatusFailed     = "failed"
)

type Lesson struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TopicID              uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_lesson_topic_seq" json:"topic_id"`
	Sequence             int            `gorm:"column:sequence;not null;uniqueIndex:idx_lesson_topic_seq" json:"sequence"`
	Code                 string         `gorm:"column:code;not null" json:"code"`
	Title                string         `gorm:"column:title;not null" json:"title"`
	Description          string         `gorm:"column:description" json:"description,omitempty"`
	MustHave             string         `gorm:"column:must_have" json:"must_have,omitempty"`
	DesignConsiderations string         `gorm:"column:design_considerations" json:"design_considerations,omitempty"`
	ContentHTML          string         `gorm:"column:content_html" json:"content_html,omitempty"`
	Status               string         `gorm:"column:status;not null;default:pending;index" json:"status"`
	GenerationMetadata   datatypes.JSON `gorm:"column:generation_metadata" json:"generation_metadata"`
	CreatedAt            time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Lesson) TableName() string { return "lesson" }

func (l *Lesson) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Status == "" {
		l.Status = LessonStatusPending
	}
	return nil
}
