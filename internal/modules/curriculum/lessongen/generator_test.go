package lessongen

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/designparams"
	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/usage"
	apperr "github.com/yungbote/curriculum-backend/internal/pkg/errors"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
	"github.com/yungbote/curriculum-backend/internal/platform/openai"
)

type fakeResponder struct {
	mu      sync.Mutex
	calls   []string
	reqs    []openai.ResponseRequest
	respond map[string]func(ctx context.Context, req openai.ResponseRequest) (*openai.Response, error)
}

func (f *fakeResponder) DefaultModel() string { return "gpt-test" }

func (f *fakeResponder) CreateResponse(ctx context.Context, req openai.ResponseRequest) (*openai.Response, error) {
	stage := classify(req)
	f.mu.Lock()
	f.calls = append(f.calls, stage)
	f.reqs = append(f.reqs, req)
	fn := f.respond[stage]
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.New("unexpected call: " + stage)
	}
	return fn(ctx, req)
}

func (f *fakeResponder) called(stage string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == stage {
			n++
		}
	}
	return n
}

func classify(req openai.ResponseRequest) string {
	for _, t := range req.Tools {
		if t.Type == "file_search" {
			return "retrieval"
		}
		if t.Type == "web_search_preview" {
			return "research"
		}
	}
	if len(req.Input) > 0 && strings.Contains(req.Input[0].Content, "plan the internal structure") {
		return "plan"
	}
	return "synthesis"
}

func textResponse(text string, u *openai.Usage) func(context.Context, openai.ResponseRequest) (*openai.Response, error) {
	return func(context.Context, openai.ResponseRequest) (*openai.Response, error) {
		return &openai.Response{
			Output: []openai.OutputItem{
				{Type: "file_search_call"},
				{Type: "message", Role: "assistant", Content: []openai.ContentPart{{Type: "output_text", Text: text}}},
			},
			Usage: u,
		}, nil
	}
}

func failWith(err error) func(context.Context, openai.ResponseRequest) (*openai.Response, error) {
	return func(context.Context, openai.ResponseRequest) (*openai.Response, error) { return nil, err }
}

const planJSON = `Here is the plan: ["Market Signals", "Pricing Models", "Running Experiments", "Scaling Decisions"]`

const lessonHTML = "```html\n<h2>Overview</h2><p>Intro text here.</p>" +
	"<h2>Market Signals</h2><p>one two three</p>" +
	"<h2>Pricing Models</h2><p>four five</p>" +
	"<h2>Running Experiments</h2><p>six</p>" +
	"<h2>Scaling Decisions</h2><p>seven</p>" +
	"<script>alert(1)</script>\n```"

func newTestGenerator(f *fakeResponder, sink usage.Sink) *Generator {
	return NewGenerator(logger.Nop(), f, Config{}, sink)
}

func baseInput() Input {
	return Input{
		CourseTitle:   "Growth",
		TopicTitle:    "Pricing",
		LessonTitle:   "Pricing Strategy",
		CourseContext: "A course about growth.",
		Parameters:    designparams.Parameters{TargetAudienceLevel: "advanced"},
	}
}

type eventLog struct {
	mu     sync.Mutex
	phases []Phase
}

func (e *eventLog) fn(_ context.Context, ev StatusEvent) {
	e.mu.Lock()
	e.phases = append(e.phases, ev.Phase)
	e.mu.Unlock()
}

func (e *eventLog) has(p Phase) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, q := range e.phases {
		if q == p {
			return true
		}
	}
	return false
}

func TestGenerateTwoStageWithRetrieval(t *testing.T) {
	f := &fakeResponder{respond: map[string]func(context.Context, openai.ResponseRequest) (*openai.Response, error){
		"retrieval": textResponse("<p>Reference grounded draft.</p>", &openai.Usage{InputTokens: 100, OutputTokens: 200, TotalTokens: 300}),
		"plan":      textResponse(planJSON, &openai.Usage{InputTokens: 40, OutputTokens: 10, TotalTokens: 50}),
		"synthesis": textResponse(lessonHTML, &openai.Usage{InputTokens: 500, OutputTokens: 4000, TotalTokens: 4500}),
	}}
	var emitted *usage.Session
	g := newTestGenerator(f, usage.SinkFunc(func(_ context.Context, s *usage.Session) { emitted = s }))

	in := baseInput()
	in.VectorStoreIDs = []string{"vs_1", "vs_2"}
	events := &eventLog{}
	res, err := g.Generate(context.Background(), in, events.fn)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	md := res.Metadata
	if !md.UsedRAG || md.RetrievalStatus != StatusOK {
		t.Fatalf("expected retrieval to be used: %+v", md)
	}
	if !md.UsedDynamicSubsections || len(md.DynamicSubsections) != 4 || md.DynamicSubsections[0] != "Market Signals" {
		t.Fatalf("subsections: %+v", md.DynamicSubsections)
	}
	if !md.UsedDesignParameters {
		t.Fatalf("design parameters were supplied")
	}
	if len(md.MissingSubsectionHeadings) != 0 {
		t.Fatalf("unexpected missing headings: %v", md.MissingSubsectionHeadings)
	}
	if strings.Contains(res.Content, "<script") || strings.Contains(res.Content, "```") {
		t.Fatalf("content not cleaned: %s", res.Content)
	}
	if want := (usage.Bucket{PromptTokens: 100, CompletionTokens: 200, TotalTokens: 320, FileSearchTokens: 20}); md.Stage1TokenUsage != want {
		t.Fatalf("stage1 usage = %+v, want %+v", md.Stage1TokenUsage, want)
	}
	if md.Stage2TokenUsage.TotalTokens != 4500 || md.SubsectionTokenUsage.TotalTokens != 50 {
		t.Fatalf("stage usage: %+v %+v", md.Stage2TokenUsage, md.SubsectionTokenUsage)
	}
	if emitted != res.TokenUsage {
		t.Fatalf("sink should receive the result session")
	}
	if tot := res.TokenUsage.Totals; tot.Input != 640 || tot.Output != 4210 || tot.Total != 4870 {
		t.Fatalf("totals: %+v", tot)
	}
	for _, p := range []Phase{PhaseRetrievalStarted, PhaseRetrievalDone, PhasePlanning, PhaseSynthesisStarted, PhaseSynthesisDone} {
		if !events.has(p) {
			t.Fatalf("missing status %s in %v", p, events.phases)
		}
	}

	var retrievalReq openai.ResponseRequest
	for _, r := range f.reqs {
		if classify(r) == "retrieval" {
			retrievalReq = r
		}
	}
	if len(retrievalReq.Tools) != 1 || retrievalReq.Tools[0].MaxNumResults != 3 || len(retrievalReq.Tools[0].VectorStoreIDs) != 2 {
		t.Fatalf("file search tool: %+v", retrievalReq.Tools)
	}
}

func TestRetrievalFailureDegradesToSynthesis(t *testing.T) {
	f := &fakeResponder{respond: map[string]func(context.Context, openai.ResponseRequest) (*openai.Response, error){
		"retrieval": failWith(&openai.HTTPError{StatusCode: 502, Body: "bad gateway"}),
		"plan":      textResponse(planJSON, nil),
		"synthesis": textResponse(lessonHTML, nil),
	}}
	g := newTestGenerator(f, nil)
	in := baseInput()
	in.VectorStoreIDs = []string{"vs_1"}
	events := &eventLog{}

	res, err := g.Generate(context.Background(), in, events.fn)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Metadata.UsedRAG || res.Metadata.RetrievalStatus != StatusDegraded {
		t.Fatalf("retrieval should be degraded: %+v", res.Metadata)
	}
	if !res.Metadata.Stage1TokenUsage.IsZero() {
		t.Fatalf("stage1 usage should stay zero: %+v", res.Metadata.Stage1TokenUsage)
	}
	if res.Content == "" {
		t.Fatalf("expected synthesized content")
	}
	if !events.has(PhaseRetrievalDegraded) {
		t.Fatalf("expected retrieval_degraded event")
	}
}

func TestNoVectorStoresSkipsRetrieval(t *testing.T) {
	f := &fakeResponder{respond: map[string]func(context.Context, openai.ResponseRequest) (*openai.Response, error){
		"plan":      textResponse(planJSON, nil),
		"synthesis": textResponse(lessonHTML, nil),
	}}
	res, err := newTestGenerator(f, nil).Generate(context.Background(), baseInput(), nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if f.called("retrieval") != 0 {
		t.Fatalf("retrieval must not be invoked")
	}
	if res.Metadata.RetrievalStatus != StatusSkipped || !res.Metadata.Stage1TokenUsage.IsZero() {
		t.Fatalf("stage1 should be skipped with zero usage: %+v", res.Metadata)
	}
}

func TestPlannerFallsBackOnMalformedOutput(t *testing.T) {
	for name, planner := range map[string]func(context.Context, openai.ResponseRequest) (*openai.Response, error){
		"prose":       textResponse("I think the lesson should cover a few things.", nil),
		"three items": textResponse(`["a","b","c"]`, nil),
		"error":       failWith(errors.New("connection reset")),
	} {
		t.Run(name, func(t *testing.T) {
			f := &fakeResponder{respond: map[string]func(context.Context, openai.ResponseRequest) (*openai.Response, error){
				"plan":      planner,
				"synthesis": textResponse("<h2>Overview</h2><p>x</p>", nil),
			}}
			res, err := newTestGenerator(f, nil).Generate(context.Background(), baseInput(), nil)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			got := res.Metadata.DynamicSubsections
			want := FallbackSubsections("Pricing Strategy")
			if len(got) != 4 {
				t.Fatalf("expected 4 fallback titles, got %v", got)
			}
			for i := range want {
				if got[i] != want[i] || got[i] == "" {
					t.Fatalf("fallback title %d = %q, want %q", i, got[i], want[i])
				}
			}
			if res.Metadata.UsedDynamicSubsections || res.Metadata.PlannerStatus != StatusDegraded {
				t.Fatalf("planner should be degraded: %+v", res.Metadata)
			}
			if len(res.Metadata.MissingSubsectionHeadings) != 4 {
				t.Fatalf("headings should be reported missing: %v", res.Metadata.MissingSubsectionHeadings)
			}
		})
	}
}

func TestSynthesisFailureIsFatal(t *testing.T) {
	f := &fakeResponder{respond: map[string]func(context.Context, openai.ResponseRequest) (*openai.Response, error){
		"plan":      textResponse(planJSON, &openai.Usage{InputTokens: 5, OutputTokens: 5, TotalTokens: 10}),
		"synthesis": failWith(&openai.HTTPError{StatusCode: 500, Body: "boom"}),
	}}
	var emitted *usage.Session
	events := &eventLog{}
	g := newTestGenerator(f, usage.SinkFunc(func(_ context.Context, s *usage.Session) { emitted = s }))

	res, err := g.Generate(context.Background(), baseInput(), events.fn)
	if err == nil || res != nil {
		t.Fatalf("expected fatal error, got %v", res)
	}
	if !errors.Is(err, apperr.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	var he *openai.HTTPError
	if !errors.As(err, &he) || he.StatusCode != 500 {
		t.Fatalf("cause should be preserved: %v", err)
	}
	if !events.has(PhaseFailed) {
		t.Fatalf("expected failed status")
	}
	if emitted == nil || emitted.Totals.Total != 10 {
		t.Fatalf("accumulated usage should be reported on failure: %+v", emitted)
	}
}

func TestCancellationPropagatesFromRetrieval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := &fakeResponder{respond: map[string]func(context.Context, openai.ResponseRequest) (*openai.Response, error){
		"retrieval": func(ctx context.Context, _ openai.ResponseRequest) (*openai.Response, error) {
			cancel()
			return nil, context.Canceled
		},
		"plan":      textResponse(planJSON, nil),
		"synthesis": textResponse(lessonHTML, nil),
	}}
	in := baseInput()
	in.VectorStoreIDs = []string{"vs_1"}

	_, err := newTestGenerator(f, nil).Generate(ctx, in, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if f.called("synthesis") != 0 || f.called("plan") != 0 {
		t.Fatalf("no further stages should run after cancellation: %v", f.calls)
	}
}

func TestWebSearchContextRecordsProxyUsage(t *testing.T) {
	f := &fakeResponder{respond: map[string]func(context.Context, openai.ResponseRequest) (*openai.Response, error){
		"plan":      textResponse(planJSON, nil),
		"synthesis": textResponse(lessonHTML, nil),
	}}
	in := baseInput()
	in.WebSearchContext = strings.Repeat("a", 400)

	res, err := newTestGenerator(f, nil).Generate(context.Background(), in, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b := res.Metadata.WebSearchTokenUsage
	if b.CompletionTokens != 100 || b.PromptTokens != 10 || b.TotalTokens != 110 {
		t.Fatalf("web search proxy usage: %+v", b)
	}
	if !res.Metadata.UsedWebSearch || res.Metadata.ContextSizes.WebSearch != 400 {
		t.Fatalf("metadata: %+v", res.Metadata)
	}
}

func TestEstimatesUsageWhenResponseHasNone(t *testing.T) {
	f := &fakeResponder{respond: map[string]func(context.Context, openai.ResponseRequest) (*openai.Response, error){
		"plan":      textResponse(planJSON, nil),
		"synthesis": textResponse(lessonHTML, nil),
	}}
	res, err := newTestGenerator(f, nil).Generate(context.Background(), baseInput(), nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	s2 := res.Metadata.Stage2TokenUsage
	if s2.PromptTokens == 0 || s2.CompletionTokens == 0 || s2.TotalTokens != s2.PromptTokens+s2.CompletionTokens {
		t.Fatalf("expected estimated stage2 usage: %+v", s2)
	}
}

func TestFallbackModeSkipsRetrievalAndElevatesCourseContext(t *testing.T) {
	f := &fakeResponder{respond: map[string]func(context.Context, openai.ResponseRequest) (*openai.Response, error){
		"plan":      textResponse(planJSON, nil),
		"synthesis": textResponse(lessonHTML, nil),
	}}
	in := baseInput()
	in.VectorStoreIDs = []string{"vs_1"}

	res, err := newTestGenerator(f, nil).GenerateFallback(context.Background(), in, nil)
	if err != nil {
		t.Fatalf("GenerateFallback: %v", err)
	}
	if f.called("retrieval") != 0 || res.Metadata.UsedRAG || res.Metadata.Mode != ModeFallback {
		t.Fatalf("fallback must skip retrieval: %+v", res.Metadata)
	}
	for _, r := range f.reqs {
		if classify(r) == "synthesis" && !strings.Contains(r.Input[0].Content, "1. Course context") {
			t.Fatalf("fallback synthesis prompt should rank course context first")
		}
	}
}

func TestGenerateRequiresLessonTitle(t *testing.T) {
	_, err := newTestGenerator(&fakeResponder{}, nil).Generate(context.Background(), Input{}, nil)
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}
