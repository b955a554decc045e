package testutil

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/gorm"

	types "github.com/yungbote/curriculum-backend/internal/domain"
)

// SeedProgram stores a program with the given number of courses, each holding
// one topic of lessonsPerTopic lessons.
func SeedProgram(tb testing.TB, ctx context.Context, conn *gorm.DB, code string, courses, lessonsPerTopic int) *types.Program {
	tb.Helper()
	p := &types.Program{Code: code, Title: "Program " + code}
	for c := 1; c <= courses; c++ {
		course := types.Course{
			Sequence: c,
			Code:     fmt.Sprintf("%s%d", code, c),
			Title:    fmt.Sprintf("Course %d", c),
		}
		topic := types.Topic{Sequence: 1, Code: fmt.Sprintf("%d1", c), Title: "Topic"}
		for l := 1; l <= lessonsPerTopic; l++ {
			topic.Lessons = append(topic.Lessons, types.Lesson{
				Sequence: l,
				Code:     fmt.Sprintf("%d1%d", c, l),
				Title:    fmt.Sprintf("Lesson %d.%d", c, l),
			})
		}
		course.Topics = []types.Topic{topic}
		p.Courses = append(p.Courses, course)
	}
	if err := conn.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed program: %v", err)
	}
	return p
}
