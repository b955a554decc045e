package curriculum

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/curriculum-backend/internal/domain"
	"github.com/yungbote/curriculum-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/curriculum-backend/internal/pkg/errors"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

// LessonContext is a lesson together with the chain it inherits context and
// design parameters from.
type LessonContext struct {
	Lesson  *types.Lesson
	Topic   *types.Topic
	Course  *types.Course
	Program *types.Program
}

type LessonRepo interface {
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Lesson, error)
	GetContext(dbc dbctx.Context, lessonID uuid.UUID) (*LessonContext, error)
	UpdateContent(dbc dbctx.Context, id uuid.UUID, contentHTML string, status string, metadata datatypes.JSON) error
	UpdateStatus(dbc dbctx.Context, id uuid.UUID, status string) error
}

type lessonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return &lessonRepo{
		db:  db,
		log: baseLog.With("repo", "LessonRepo"),
	}
}

func (r *lessonRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Lesson, error) {
	var out []*types.Lesson
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

// GetContext returns nil when the lesson or any ancestor is missing.
func (r *lessonRepo) GetContext(dbc dbctx.Context, lessonID uuid.UUID) (*LessonContext, error) {
	if lessonID == uuid.Nil {
		return nil, nil
	}
	out := &LessonContext{
		Lesson:  &types.Lesson{},
		Topic:   &types.Topic{},
		Course:  &types.Course{},
		Program: &types.Program{},
	}
	steps := []struct {
		dest any
		id   func() uuid.UUID
	}{
		{out.Lesson, func() uuid.UUID { return lessonID }},
		{out.Topic, func() uuid.UUID { return out.Lesson.TopicID }},
		{out.Course, func() uuid.UUID { return out.Topic.CourseID }},
		{out.Program, func() uuid.UUID { return out.Course.ProgramID }},
	}
	for _, s := range steps {
		res := dbc.DB(r.db).Where("id = ?", s.id()).Limit(1).Find(s.dest)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, nil
		}
	}
	return out, nil
}

func (r *lessonRepo) UpdateContent(dbc dbctx.Context, id uuid.UUID, contentHTML string, status string, metadata datatypes.JSON) error {
	return r.update(dbc, id, map[string]interface{}{
		"content_html":        contentHTML,
		"status":              status,
		"generation_metadata": metadata,
		"updated_at":          time.Now().UTC(),
	})
}

func (r *lessonRepo) UpdateStatus(dbc dbctx.Context, id uuid.UUID, status string) error {
	return r.update(dbc, id, map[string]interface{}{
		"status":     status,
		"updated_at": time.Now().UTC(),
	})
}

func (r *lessonRepo) update(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return apperr.Invalid("LessonRepo.update", "id", "required")
	}
	res := dbc.DB(r.db).
		Model(&types.Lesson{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("lesson %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}
