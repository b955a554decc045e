package domain

import "github.com/yungbote/curriculum-backend/internal/domain/curriculum"

const (
	LessonStatusPending    = curriculum.LessonStatusPending
	LessonStatusGenerating = curriculum.LessonStatusGenerating
	LessonStatusReady      = curriculum.LessonStatusReady
	LessonStatusFailed     = curriculum.LessonStatusFailed

	RunStatusSucceeded = curriculum.RunStatusSucceeded
	RunStatusDegraded  = curriculum.RunStatusDegraded
	RunStatusFailed    = curriculum.RunStatusFailed
)

type (
	Program             = curriculum.Program
	Course              = curriculum.Course
	Topic               = curriculum.Topic
	Lesson              = curriculum.Lesson
	LessonGenerationRun = curriculum.LessonGenerationRun
)
