package lessongen

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/prompts"
	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/usage"
	"github.com/yungbote/curriculum-backend/internal/observability"
	"github.com/yungbote/curriculum-backend/internal/platform/openai"
)

type callSpec struct {
	stage       string
	model       string
	timeout     time.Duration
	maxTokens   int
	temperature *float64
	tools       []openai.Tool
}

// call issues one generation request bounded by spec.timeout and returns the
// extracted, fence-stripped text.
func (g *Generator) call(ctx context.Context, spec callSpec, p prompts.Prompt) (*openai.Response, string, error) {
	ctx, span := observability.StartSpan(ctx, "lessongen."+spec.stage,
		attribute.String("lessongen.prompt", p.Name),
		attribute.String("lessongen.model", spec.model),
	)
	start := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, spec.timeout)
	defer cancel()

	resp, err := g.client.CreateResponse(callCtx, openai.ResponseRequest{
		Model:           spec.model,
		Input:           []openai.Message{openai.System(p.System), openai.User(p.User)},
		Tools:           spec.tools,
		MaxOutputTokens: spec.maxTokens,
		Temperature:     spec.temperature,
	})
	var text string
	if err == nil {
		text, err = ExtractMessageText("lessongen."+spec.stage, resp)
		text = StripCodeFence(text)
	}
	if resp != nil {
		if pt, ct, _, ok := resp.Usage.Counts(); ok {
			span.SetAttributes(attribute.Int("llm.prompt_tokens", pt), attribute.Int("llm.completion_tokens", ct))
		}
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.Current().ObserveLessonStage(spec.stage, status, time.Since(start))
	observability.EndSpan(span, err)
	return resp, text, err
}

// record adds measured usage for stage, or an estimate from the texts when the
// response carried none. It returns the prompt tokens recorded.
func record(sess *usage.Session, stage usage.Stage, resp *openai.Response, p prompts.Prompt, completion string) int {
	if resp != nil {
		if pt, ct, _, ok := resp.Usage.Counts(); ok {
			sess.Record(stage, pt, ct)
			return pt
		}
	}
	pt := usage.EstimateTokens(p.System + "\n" + p.User)
	sess.Record(stage, pt, usage.EstimateTokens(completion))
	return pt
}
