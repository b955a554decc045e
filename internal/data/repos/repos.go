package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/curriculum-backend/internal/data/repos/curriculum"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

type ProgramRepo = curriculum.ProgramRepo
type LessonRepo = curriculum.LessonRepo
type GenerationRunRepo = curriculum.GenerationRunRepo

type LessonContext = curriculum.LessonContext

func NewProgramRepo(db *gorm.DB, baseLog *logger.Logger) ProgramRepo {
	return curriculum.NewProgramRepo(db, baseLog)
}
func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return curriculum.NewLessonRepo(db, baseLog)
}
func NewGenerationRunRepo(db *gorm.DB, baseLog *logger.Logger) GenerationRunRepo {
	return curriculum.NewGenerationRunRepo(db, baseLog)
}
