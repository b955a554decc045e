package lessongen

import (
	"context"
	"time"

	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/prompts"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
	"github.com/yungbote/curriculum-backend/internal/platform/openai"
)

// Researcher gathers web research context with the web search tool. Its
// usage is accounted only through the proxy estimate applied by the generator.
type Researcher struct {
	log    *logger.Logger
	client openai.Client
	cfg    Config
}

func NewResearcher(log *logger.Logger, client openai.Client, cfg Config) *Researcher {
	return &Researcher{log: log.With("service", "LessonResearcher"), client: client, cfg: cfg.withDefaults()}
}

// Research returns plain-text notes for the lesson or a degraded empty outcome.
func (r *Researcher) Research(ctx context.Context, in Input) Outcome[string] {
	if r == nil || r.client == nil {
		return skipped[string]()
	}
	p, err := prompts.Build(prompts.PromptLessonWebResearch, prompts.Input{
		CourseTitle:       in.CourseTitle,
		TopicTitle:        in.TopicTitle,
		LessonTitle:       in.LessonTitle,
		LessonDescription: in.LessonDescription,
	})
	if err != nil {
		return degraded("", err.Error())
	}

	callCtx, cancel := context.WithTimeout(ctx, r.cfg.ResearchTimeout)
	defer cancel()
	start := time.Now()
	resp, err := r.client.CreateResponse(callCtx, openai.ResponseRequest{
		Model:           r.cfg.modelFor(r.cfg.ResearchModel),
		Input:           []openai.Message{openai.System(p.System), openai.User(p.User)},
		Tools:           []openai.Tool{openai.WebSearchTool()},
		MaxOutputTokens: r.cfg.ResearchMaxOutputTokens,
	})
	if err != nil {
		r.log.Warn("Web research failed; continuing without it", "lesson", in.LessonTitle, "error", err)
		return degraded("", err.Error())
	}
	text, err := ExtractMessageText("lessongen.research", resp)
	if err != nil {
		r.log.Warn("Web research returned no text", "lesson", in.LessonTitle, "error", err)
		return degraded("", err.Error())
	}
	r.log.Info("Web research complete", "lesson", in.LessonTitle, "chars", runeLen(text), "duration", time.Since(start).String())
	return ok(StripCodeFence(text))
}
