package lessongen

import (
	"context"
	"strings"

	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/designparams"
	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/prompts"
	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/usage"
)

const SubsectionCount = 4

// FallbackSubsections returns the canned plan used when planning fails.
func FallbackSubsections(lessonTitle string) []string {
	t := strings.TrimSpace(lessonTitle)
	if t == "" {
		t = "This Lesson"
	}
	return []string{
		"Foundations of " + t,
		"Core Concepts and Principles of " + t,
		"Applying " + t + " in Practice",
		"Advanced Perspectives on " + t,
	}
}

// planSubsections never fails; failures return the fallback plan as a degraded outcome.
func (g *Generator) planSubsections(ctx context.Context, in Input, params designparams.Parameters, retrieval string, sess *usage.Session) Outcome[[]string] {
	fallback := FallbackSubsections(in.LessonTitle)

	p, err := prompts.Build(prompts.PromptSubsectionPlan, prompts.Input{
		CourseTitle:       in.CourseTitle,
		TopicTitle:        in.TopicTitle,
		LessonTitle:       in.LessonTitle,
		LessonDescription: in.LessonDescription,
		AudienceLabel:     designparams.AudienceLabel(params),
		WebSearchContext:  preview(in.WebSearchContext, g.cfg.PreviewChars),
		RetrievalContent:  preview(retrieval, g.cfg.PreviewChars),
		CourseContext:     preview(in.CourseContext, g.cfg.PreviewChars),
		InstructionBlock:  designparams.InstructionBlock(params),
	})
	if err != nil {
		return degraded(fallback, err.Error())
	}

	resp, text, err := g.call(ctx, callSpec{
		stage:       "plan",
		model:       g.cfg.modelFor(g.cfg.PlannerModel),
		timeout:     g.cfg.PlannerTimeout,
		maxTokens:   g.cfg.PlannerMaxOutputTokens,
		temperature: g.cfg.PlannerTemperature,
	}, p)
	if resp != nil {
		record(sess, usage.StagePlanner, resp, p, text)
	}
	if err != nil {
		g.log.Warn("Subsection planning failed; using fallback titles", "lesson", in.LessonTitle, "error", err)
		return degraded(fallback, err.Error())
	}

	titles, err := ParseSubsectionTitles(text)
	if err != nil {
		g.log.Warn("Subsection plan unparseable; using fallback titles", "lesson", in.LessonTitle, "error", err)
		return degraded(fallback, err.Error())
	}
	return ok(titles)
}
