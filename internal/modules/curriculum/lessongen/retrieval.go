package lessongen

import (
	"context"
	"math"

	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/designparams"
	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/prompts"
	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/usage"
	apperr "github.com/yungbote/curriculum-backend/internal/pkg/errors"
	"github.com/yungbote/curriculum-backend/internal/platform/openai"
)

// retrieve runs stage 1 against the lesson's vector stores. Any failure
// degrades to empty content and leaves the stage 1 bucket untouched.
func (g *Generator) retrieve(ctx context.Context, in Input, params designparams.Parameters, sess *usage.Session) Outcome[string] {
	const op = "lessongen.retrieve"
	if len(in.VectorStoreIDs) == 0 {
		return skipped[string]()
	}

	p, err := prompts.Build(prompts.PromptRetrievalDraft, prompts.Input{
		CourseTitle:       in.CourseTitle,
		TopicTitle:        in.TopicTitle,
		LessonTitle:       in.LessonTitle,
		LessonDescription: in.LessonDescription,
		AudienceLabel:     designparams.AudienceLabel(params),
		MustHave:          in.MustHave,
	})
	if err != nil {
		return degraded("", err.Error())
	}

	resp, text, err := g.call(ctx, callSpec{
		stage:     "retrieval",
		model:     g.cfg.modelFor(g.cfg.RetrievalModel),
		timeout:   g.cfg.RetrievalTimeout,
		maxTokens: g.cfg.RetrievalMaxOutputTokens,
		tools:     []openai.Tool{openai.FileSearchTool(in.VectorStoreIDs, g.cfg.RetrievalMaxResults)},
	}, p)
	if err != nil {
		return degraded("", apperr.Upstream(op, err).Error())
	}
	if text == "" {
		return degraded("", apperr.Malformed(op, "empty retrieval content").Error())
	}

	promptTokens := record(sess, usage.StageRetrieval, resp, p, text)
	sess.AddFileSearchOverhead(int(math.Round(float64(promptTokens) * g.cfg.FileSearchRatio)))
	return ok(text)
}
