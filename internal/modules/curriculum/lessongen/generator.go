package lessongen

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/designparams"
	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/usage"
	"github.com/yungbote/curriculum-backend/internal/observability"
	apperr "github.com/yungbote/curriculum-backend/internal/pkg/errors"
	"github.com/yungbote/curriculum-backend/internal/platform/ctxutil"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
	"github.com/yungbote/curriculum-backend/internal/platform/openai"
)

// Generator runs the lesson pipeline. It holds no per-call state and is safe
// for concurrent use; each call owns its own usage session.
type Generator struct {
	log    *logger.Logger
	client openai.Client
	cfg    Config
	sink   usage.Sink
}

func NewGenerator(log *logger.Logger, client openai.Client, cfg Config, sink usage.Sink) *Generator {
	cfg = cfg.withDefaults()
	if cfg.Model == "" && client != nil {
		cfg.Model = client.DefaultModel()
	}
	if sink == nil {
		sink = usage.SinkFunc(func(context.Context, *usage.Session) {})
	}
	return &Generator{
		log:    log.With("service", "LessonGenerator"),
		client: client,
		cfg:    cfg,
		sink:   sink,
	}
}

func (g *Generator) Config() Config { return g.cfg }

// Generate runs the two-stage pipeline: optional retrieval, then planning and synthesis.
func (g *Generator) Generate(ctx context.Context, in Input, onStatus StatusFunc) (*Result, error) {
	return g.run(ctx, ModeTwoStage, in, onStatus)
}

// GenerateFallback skips retrieval and grounds synthesis on the course context first.
func (g *Generator) GenerateFallback(ctx context.Context, in Input, onStatus StatusFunc) (*Result, error) {
	return g.run(ctx, ModeFallback, in, onStatus)
}

func (g *Generator) run(ctx context.Context, mode Mode, in Input, onStatus StatusFunc) (res *Result, err error) {
	const op = "lessongen.Generate"
	ctx = ctxutil.Default(ctx)
	if strings.TrimSpace(in.LessonTitle) == "" {
		return nil, apperr.Invalid(op, "lessonTitle", "required")
	}
	if g.client == nil {
		return nil, apperr.Upstream(op, errors.New("generation client not configured"))
	}

	ctx, span := observability.StartSpan(ctx, "lessongen.generate",
		attribute.String("lessongen.mode", string(mode)),
		attribute.String("lessongen.lesson", in.LessonTitle),
	)
	defer func() { observability.EndSpan(span, err) }()

	log := g.log.With(append(ctxutil.LogFields(ctx), "lesson", in.LessonTitle, "mode", string(mode))...)
	emit := func(phase Phase, msg string) {
		if onStatus != nil {
			onStatus(ctx, StatusEvent{Phase: phase, LessonTitle: in.LessonTitle, Message: msg, At: time.Now().UTC()})
		}
	}

	params := designparams.Resolve(in.Parameters, designparams.Parameters{})
	instructions := designparams.InstructionBlock(params)

	sess := usage.NewSession(in.LessonTitle)
	sess.ContextSizes = usage.ContextSizes{
		WebSearch:            runeLen(in.WebSearchContext),
		Course:               runeLen(in.CourseContext),
		MustHave:             runeLen(in.MustHave),
		DesignConsiderations: runeLen(in.DesignConsiderations),
		Instructions:         runeLen(instructions),
	}
	web := strings.TrimSpace(in.WebSearchContext)
	if web != "" {
		p, c := usage.WebSearchProxy(web, g.cfg.WebSearchPromptRatio)
		sess.Record(usage.StageWebSearch, p, c)
	}

	fail := func(err error) (*Result, error) {
		t := sess.CalculateTotals(g.cfg.CostRates)
		outcome := "failed"
		if errors.Is(err, context.Canceled) {
			outcome = "canceled"
		}
		log.Error("Lesson generation failed",
			"error", err,
			"input_tokens", t.Input,
			"output_tokens", t.Output,
			"total_tokens", t.Total,
		)
		g.sink.Emit(ctx, sess)
		observability.Current().ObserveLessonGeneration(string(mode), outcome)
		emit(PhaseFailed, err.Error())
		return nil, err
	}

	retrieval := skipped[string]()
	if mode == ModeTwoStage && len(in.VectorStoreIDs) > 0 {
		emit(PhaseRetrievalStarted, "")
		log.Info("Stage 1 retrieval started", "vector_stores", len(in.VectorStoreIDs))
		retrieval = g.retrieve(ctx, in, params, sess)
		if cerr := ctx.Err(); cerr != nil {
			return fail(apperr.Upstream(op, cerr))
		}
		if retrieval.Status == StatusDegraded {
			log.Warn("Stage 1 retrieval failed; continuing without reference content", "reason", retrieval.Reason)
			emit(PhaseRetrievalDegraded, retrieval.Reason)
		} else {
			b := sess.Bucket(usage.StageRetrieval)
			log.Info("Stage 1 retrieval done", "chars", runeLen(retrieval.Value), "total_tokens", b.TotalTokens)
			emit(PhaseRetrievalDone, "")
		}
	}
	sess.ContextSizes.Retrieval = runeLen(retrieval.Value)

	emit(PhasePlanning, "")
	plan := g.planSubsections(ctx, in, params, retrieval.Value, sess)
	if cerr := ctx.Err(); cerr != nil {
		return fail(apperr.Upstream(op, cerr))
	}

	emit(PhaseSynthesisStarted, "")
	log.Info("Stage 2 synthesis started", "subsections", len(plan.Value))
	raw, err := g.synthesize(ctx, mode, in, params, retrieval.Value, plan.Value, sess)
	if err != nil {
		return fail(err)
	}

	content := SanitizeLessonHTML(raw)
	report, ierr := InspectLessonHTML(content, plan.Value)
	if ierr != nil {
		log.Warn("Lesson HTML inspection failed", "error", ierr)
	}
	if len(report.MissingHeadings) > 0 {
		log.Warn("Lesson is missing planned subsection headings", "missing", report.MissingHeadings)
	}

	totals := sess.CalculateTotals(g.cfg.CostRates)
	g.sink.Emit(ctx, sess)

	outcome := "ok"
	if retrieval.Status == StatusDegraded || plan.Status == StatusDegraded {
		outcome = "degraded"
	}
	observability.Current().ObserveLessonGeneration(string(mode), outcome)
	span.SetAttributes(
		attribute.Int("lessongen.input_tokens", totals.Input),
		attribute.Int("lessongen.output_tokens", totals.Output),
		attribute.Int("lessongen.total_tokens", totals.Total),
	)
	log.Info("Stage 2 synthesis done", "chars", runeLen(content), "words", report.WordCount, "total_tokens", totals.Total)
	emit(PhaseSynthesisDone, "")

	return &Result{
		Content:    content,
		TokenUsage: sess,
		Metadata: Metadata{
			Mode:                      mode,
			UsedRAG:                   retrieval.Status == StatusOK,
			UsedWebSearch:             web != "",
			UsedDesignParameters:      in.Parameters != (designparams.Parameters{}),
			UsedDynamicSubsections:    plan.Status == StatusOK,
			DynamicSubsections:        plan.Value,
			RetrievalStatus:           retrieval.Status,
			RetrievalReason:           retrieval.Reason,
			PlannerStatus:             plan.Status,
			PlannerReason:             plan.Reason,
			Stage1TokenUsage:          sess.Bucket(usage.StageRetrieval),
			Stage2TokenUsage:          sess.Bucket(usage.StageSynthesis),
			WebSearchTokenUsage:       sess.Bucket(usage.StageWebSearch),
			SubsectionTokenUsage:      sess.Bucket(usage.StagePlanner),
			ContentLength:             runeLen(content),
			WordCount:                 report.WordCount,
			MissingSubsectionHeadings: report.MissingHeadings,
			ContextSizes:              sess.ContextSizes,
		},
	}, nil
}
