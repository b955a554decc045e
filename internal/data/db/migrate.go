package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/curriculum-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&types.Program{},
		&types.Course{},
		&types.Topic{},
		&types.Lesson{},
		&types.LessonGenerationRun{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// EnsureCurriculumIndexes adds indexes gorm tags cannot express. Safe to re-run.
func EnsureCurriculumIndexes(db *gorm.DB) error {
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_lesson_generation_run_lesson_created ON lesson_generation_run(lesson_id, created_at);`).Error; err != nil {
		return fmt.Errorf("create idx_lesson_generation_run_lesson_created: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_lesson_status_updated ON lesson(status, updated_at);`).Error; err != nil {
		return fmt.Errorf("create idx_lesson_status_updated: %w", err)
	}
	return nil
}
