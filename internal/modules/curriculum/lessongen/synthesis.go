package lessongen

import (
	"context"
	"errors"

	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/designparams"
	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/prompts"
	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/usage"
	apperr "github.com/yungbote/curriculum-backend/internal/pkg/errors"
)

// synthesize runs stage 2. Errors are returned to the orchestrator unchanged
// apart from upstream wrapping.
func (g *Generator) synthesize(ctx context.Context, mode Mode, in Input, params designparams.Parameters, retrieval string, subsections []string, sess *usage.Session) (string, error) {
	const op = "lessongen.synthesize"

	name := prompts.PromptLessonSynthesis
	if mode == ModeFallback {
		name = prompts.PromptLessonFallback
	}
	p, err := prompts.Build(name, prompts.Input{
		ProgramTitle:         in.ProgramTitle,
		CourseTitle:          in.CourseTitle,
		TopicTitle:           in.TopicTitle,
		LessonTitle:          in.LessonTitle,
		LessonDescription:    in.LessonDescription,
		AudienceLabel:        designparams.AudienceLabel(params),
		WebSearchContext:     in.WebSearchContext,
		RetrievalContent:     retrieval,
		CourseContext:        in.CourseContext,
		MustHave:             in.MustHave,
		DesignConsiderations: in.DesignConsiderations,
		InstructionBlock:     designparams.InstructionBlock(params),
		Subsections:          subsections,
	})
	if err != nil {
		return "", apperr.Invalid(op, "input", err.Error())
	}

	resp, text, err := g.call(ctx, callSpec{
		stage:       "synthesis",
		model:       g.cfg.Model,
		timeout:     g.cfg.SynthesisTimeout,
		maxTokens:   g.cfg.SynthesisMaxOutputTokens,
		temperature: g.cfg.SynthesisTemperature,
	}, p)
	if err != nil {
		if errors.Is(err, apperr.ErrMalformedResponse) {
			return "", err
		}
		return "", apperr.Upstream(op, err)
	}
	record(sess, usage.StageSynthesis, resp, p, text)
	return text, nil
}
