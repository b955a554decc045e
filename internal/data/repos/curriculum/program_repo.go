package curriculum

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/curriculum-backend/internal/domain"
	"github.com/yungbote/curriculum-backend/internal/pkg/dbctx"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

type ProgramRepo interface {
	// Create inserts the program together with its courses, topics and lessons.
	Create(dbc dbctx.Context, program *types.Program) (*types.Program, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Program, error)
	GetByCode(dbc dbctx.Context, code string) (*types.Program, error)
	// GetTree loads the program with courses, topics and lessons in sequence order.
	GetTree(dbc dbctx.Context, id uuid.UUID) (*types.Program, error)
	ListLessonIDs(dbc dbctx.Context, programID uuid.UUID) ([]uuid.UUID, error)
}

type programRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgramRepo(db *gorm.DB, baseLog *logger.Logger) ProgramRepo {
	return &programRepo{
		db:  db,
		log: baseLog.With("repo", "ProgramRepo"),
	}
}

func (r *programRepo) Create(dbc dbctx.Context, program *types.Program) (*types.Program, error) {
	if program == nil {
		return nil, nil
	}
	if err := dbc.DB(r.db).Create(program).Error; err != nil {
		return nil, err
	}
	return program, nil
}

func (r *programRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Program, error) {
	var out []*types.Program
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *programRepo) GetByCode(dbc dbctx.Context, code string) (*types.Program, error) {
	if code == "" {
		return nil, nil
	}
	var p types.Program
	err := dbc.DB(r.db).Where("code = ?", code).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func bySequence(tx *gorm.DB) *gorm.DB { return tx.Order("sequence ASC") }

func (r *programRepo) GetTree(dbc dbctx.Context, id uuid.UUID) (*types.Program, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var p types.Program
	err := dbc.DB(r.db).
		Preload("Courses", bySequence).
		Preload("Courses.Topics", bySequence).
		Preload("Courses.Topics.Lessons", bySequence).
		Where("id = ?", id).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *programRepo) ListLessonIDs(dbc dbctx.Context, programID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	if programID == uuid.Nil {
		return ids, nil
	}
	err := dbc.DB(r.db).
		Model(&types.Lesson{}).
		Joins("JOIN topic ON topic.id = lesson.topic_id AND topic.deleted_at IS NULL").
		Joins("JOIN course ON course.id = topic.course_id AND course.deleted_at IS NULL").
		Where("course.program_id = ?", programID).
		Order("course.sequence ASC, topic.sequence ASC, lesson.sequence ASC").
		Pluck("lesson.id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
