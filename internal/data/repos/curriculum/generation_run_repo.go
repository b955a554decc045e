package curriculum

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/curriculum-backend/internal/domain"
	"github.com/yungbote/curriculum-backend/internal/pkg/dbctx"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

type GenerationRunRepo interface {
	Create(dbc dbctx.Context, rows []*types.LessonGenerationRun) ([]*types.LessonGenerationRun, error)
	// GetByLessonIDs returns runs newest first.
	GetByLessonIDs(dbc dbctx.Context, lessonIDs []uuid.UUID) ([]*types.LessonGenerationRun, error)
}

type generationRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGenerationRunRepo(db *gorm.DB, baseLog *logger.Logger) GenerationRunRepo {
	return &generationRunRepo{db: db, log: baseLog.With("repo", "GenerationRunRepo")}
}

func (r *generationRunRepo) Create(dbc dbctx.Context, rows []*types.LessonGenerationRun) ([]*types.LessonGenerationRun, error) {
	if len(rows) == 0 {
		return []*types.LessonGenerationRun{}, nil
	}
	for _, row := range rows {
		if row != nil && row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *generationRunRepo) GetByLessonIDs(dbc dbctx.Context, lessonIDs []uuid.UUID) ([]*types.LessonGenerationRun, error) {
	var out []*types.LessonGenerationRun
	if len(lessonIDs) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("lesson_id IN ?", lessonIDs).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
