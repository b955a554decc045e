package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/curriculum-backend/internal/data/repos"
	"github.com/yungbote/curriculum-backend/internal/data/repos/testutil"
	types "github.com/yungbote/curriculum-backend/internal/domain"
	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/designparams"
	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/lessongen"
	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/structure"
	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/usage"
	"github.com/yungbote/curriculum-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/curriculum-backend/internal/pkg/errors"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
	"github.com/yungbote/curriculum-backend/internal/realtime"
	"github.com/yungbote/curriculum-backend/internal/realtime/bus"
)

type fakeGenerator struct {
	mu       sync.Mutex
	inputs   []lessongen.Input
	modes    []lessongen.Mode
	err      error
	errByKey map[string]error
}

func (f *fakeGenerator) Generate(ctx context.Context, in lessongen.Input, onStatus lessongen.StatusFunc) (*lessongen.Result, error) {
	return f.run(ctx, lessongen.ModeTwoStage, in, onStatus)
}

func (f *fakeGenerator) GenerateFallback(ctx context.Context, in lessongen.Input, onStatus lessongen.StatusFunc) (*lessongen.Result, error) {
	return f.run(ctx, lessongen.ModeFallback, in, onStatus)
}

func (f *fakeGenerator) run(ctx context.Context, mode lessongen.Mode, in lessongen.Input, onStatus lessongen.StatusFunc) (*lessongen.Result, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	f.modes = append(f.modes, mode)
	err := f.err
	if e, ok := f.errByKey[in.LessonTitle]; ok {
		err = e
	}
	f.mu.Unlock()

	if onStatus != nil {
		onStatus(ctx, lessongen.StatusEvent{Phase: lessongen.PhasePlanning, LessonTitle: in.LessonTitle})
	}
	if err != nil {
		return nil, err
	}
	sess := usage.NewSession(in.LessonTitle)
	sess.Record(usage.StageSynthesis, 100, 400)
	sess.CalculateTotals(usage.CostRates{InputPer1K: 0.0025, OutputPer1K: 0.01})
	return &lessongen.Result{
		Content:    "<h2>Overview</h2><p>" + in.LessonTitle + "</p>",
		TokenUsage: sess,
		Metadata: lessongen.Metadata{
			Mode:               mode,
			RetrievalStatus:    lessongen.StatusSkipped,
			PlannerStatus:      lessongen.StatusOK,
			DynamicSubsections: []string{"Overview", "Practice", "Pitfalls", "Recap"},
		},
	}, nil
}

func (f *fakeGenerator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

func (f *fakeGenerator) last() lessongen.Input {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inputs[len(f.inputs)-1]
}

type fakeResearcher struct {
	calls int
	out   lessongen.Outcome[string]
}

func (f *fakeResearcher) Research(context.Context, lessongen.Input) lessongen.Outcome[string] {
	f.calls++
	return f.out
}

func newTestLessonService(t *testing.T, gen LessonGenerator, research LessonResearcher, withStore bool) (LessonService, repos.LessonRepo, repos.GenerationRunRepo, bus.Bus) {
	t.Helper()
	log := logger.Nop()
	b := bus.NewMemoryBus(log)
	t.Cleanup(func() { _ = b.Close() })
	var lessons repos.LessonRepo
	var runs repos.GenerationRunRepo
	if withStore {
		db := testutil.DB(t)
		lessons = repos.NewLessonRepo(db, log)
		runs = repos.NewGenerationRunRepo(db, log)
	}
	svc, err := NewLessonService(log, gen, research, lessons, runs, b, 8)
	if err != nil {
		t.Fatalf("NewLessonService: %v", err)
	}
	return svc, lessons, runs, b
}

func TestLessonServiceCachesInlineRequests(t *testing.T) {
	gen := &fakeGenerator{}
	svc, _, _, _ := newTestLessonService(t, gen, nil, false)
	ctx := context.Background()
	req := GenerateLessonRequest{LessonTitle: "Pricing Basics", CourseTitle: "Sales"}

	first, err := svc.Generate(ctx, req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if first.Cached || first.StatusChannel == "" {
		t.Fatalf("first result: %+v", first)
	}
	second, err := svc.Generate(ctx, req)
	if err != nil {
		t.Fatalf("Generate again: %v", err)
	}
	if !second.Cached || second.Content != first.Content || gen.count() != 1 {
		t.Fatalf("expected cache hit; cached=%v calls=%d", second.Cached, gen.count())
	}
	if first.Cached {
		t.Fatalf("cache hit must not alter the stored result")
	}

	req.Force = true
	if _, err := svc.Generate(ctx, req); err != nil {
		t.Fatalf("forced Generate: %v", err)
	}
	req.Force = false
	req.Fallback = true
	if _, err := svc.Generate(ctx, req); err != nil {
		t.Fatalf("fallback Generate: %v", err)
	}
	if gen.count() != 3 || gen.modes[2] != lessongen.ModeFallback {
		t.Fatalf("calls=%d modes=%v", gen.count(), gen.modes)
	}
}

func TestLessonServiceRequiresTitle(t *testing.T) {
	svc, _, _, _ := newTestLessonService(t, &fakeGenerator{}, nil, false)
	if _, err := svc.Generate(context.Background(), GenerateLessonRequest{}); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	_, err := svc.Generate(context.Background(), GenerateLessonRequest{LessonID: uuid.New()})
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("stored lesson without a store: %v", err)
	}
}

func TestLessonServiceStoredLessonPersistsContentAndRun(t *testing.T) {
	gen := &fakeGenerator{}
	log := logger.Nop()
	db := testutil.DB(t)
	ctx := context.Background()
	p := testutil.SeedProgram(t, ctx, db, "2DIG45", 1, 1)
	course := p.Courses[0]
	lesson := course.Topics[0].Lessons[0]
	if err := db.Model(&types.Course{}).Where("id = ?", course.ID).Updates(map[string]interface{}{
		"context":           "Sales fundamentals for new managers.",
		"design_parameters": datatypes.JSON([]byte(`{"targetAudienceLevel":"advanced","courseToneStyle":"not-a-tone"}`)),
	}).Error; err != nil {
		t.Fatalf("update course: %v", err)
	}
	if err := db.Model(&types.Program{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"design_parameters": datatypes.JSON([]byte(`{"courseToneStyle":"academic"}`)),
		"vector_store_ids":  datatypes.JSON([]byte(`["vs_1"]`)),
	}).Error; err != nil {
		t.Fatalf("update program: %v", err)
	}

	lessons := repos.NewLessonRepo(db, log)
	runs := repos.NewGenerationRunRepo(db, log)
	b := bus.NewMemoryBus(log)
	events := make(chan realtime.StatusMessage, 8)
	if err := b.StartForwarder(ctx, func(m realtime.StatusMessage) { events <- m }); err != nil {
		t.Fatalf("StartForwarder: %v", err)
	}
	svc, err := NewLessonService(log, gen, nil, lessons, runs, b, 8)
	if err != nil {
		t.Fatalf("NewLessonService: %v", err)
	}

	res, err := svc.Generate(ctx, GenerateLessonRequest{LessonID: lesson.ID})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	in := gen.last()
	if in.CourseTitle != "Course 1" || in.ProgramTitle != "Program 2DIG45" || in.CourseContext != "Sales fundamentals for new managers." {
		t.Fatalf("input from store: %+v", in)
	}
	// The invalid course tone is dropped, so the program tone applies.
	want := designparams.Defaults()
	want.TargetAudienceLevel = "advanced"
	want.CourseToneStyle = "academic"
	if in.Parameters != want {
		t.Fatalf("resolved parameters: %+v, want %+v", in.Parameters, want)
	}
	if len(in.VectorStoreIDs) != 1 || in.VectorStoreIDs[0] != "vs_1" {
		t.Fatalf("vector stores: %v", in.VectorStoreIDs)
	}

	rows, err := lessons.GetByIDs(dbctx.New(ctx), []uuid.UUID{lesson.ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("GetByIDs: %v", err)
	}
	if rows[0].Status != types.LessonStatusReady || rows[0].ContentHTML != res.Content {
		t.Fatalf("lesson row: %+v", rows[0])
	}
	got, err := runs.GetByLessonIDs(dbctx.New(ctx), []uuid.UUID{lesson.ID})
	if err != nil || len(got) != 1 {
		t.Fatalf("runs: %v len=%d", err, len(got))
	}
	if got[0].Status != types.RunStatusSucceeded || got[0].TotalTokens != 500 || res.RunID == nil || *res.RunID != got[0].ID {
		t.Fatalf("run row: %+v", got[0])
	}

	select {
	case m := <-events:
		if m.Channel != lesson.ID.String() || m.Event != realtime.EventLessonStatus {
			t.Fatalf("status message: %+v", m)
		}
	case <-time.After(time.Second):
		t.Fatalf("no status published")
	}
}

func TestLessonServiceFailureMarksLessonFailed(t *testing.T) {
	log := logger.Nop()
	db := testutil.DB(t)
	ctx := context.Background()
	p := testutil.SeedProgram(t, ctx, db, "2DIG45", 1, 1)
	lesson := p.Courses[0].Topics[0].Lessons[0]

	gen := &fakeGenerator{err: apperr.Upstream("lessongen.synthesis", errors.New("503"))}
	lessons := repos.NewLessonRepo(db, log)
	runs := repos.NewGenerationRunRepo(db, log)
	svc, err := NewLessonService(log, gen, nil, lessons, runs, nil, 8)
	if err != nil {
		t.Fatalf("NewLessonService: %v", err)
	}

	if _, err := svc.Generate(ctx, GenerateLessonRequest{LessonID: lesson.ID}); !errors.Is(err, apperr.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	rows, _ := lessons.GetByIDs(dbctx.New(ctx), []uuid.UUID{lesson.ID})
	if len(rows) != 1 || rows[0].Status != types.LessonStatusFailed {
		t.Fatalf("lesson should be failed: %+v", rows)
	}
	got, _ := runs.GetByLessonIDs(dbctx.New(ctx), []uuid.UUID{lesson.ID})
	if len(got) != 1 || got[0].Status != types.RunStatusFailed || got[0].Error == "" {
		t.Fatalf("failed run: %+v", got)
	}

	if _, err := svc.Generate(ctx, GenerateLessonRequest{LessonID: uuid.New()}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLessonServiceResearchFillsMissingWebContext(t *testing.T) {
	gen := &fakeGenerator{}
	research := &fakeResearcher{out: lessongen.Outcome[string]{Value: "Recent findings", Status: lessongen.StatusOK}}
	svc, _, _, _ := newTestLessonService(t, gen, research, false)
	ctx := context.Background()

	if _, err := svc.Generate(ctx, GenerateLessonRequest{LessonTitle: "A", Research: true}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if research.calls != 1 || gen.last().WebSearchContext != "Recent findings" {
		t.Fatalf("research not applied: calls=%d web=%q", research.calls, gen.last().WebSearchContext)
	}

	if _, err := svc.Generate(ctx, GenerateLessonRequest{LessonTitle: "B", Research: true, WebSearchContext: "supplied"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if research.calls != 1 || gen.last().WebSearchContext != "supplied" {
		t.Fatalf("supplied context must win: calls=%d web=%q", research.calls, gen.last().WebSearchContext)
	}

	research.out = lessongen.Outcome[string]{Status: lessongen.StatusDegraded, Reason: "timeout"}
	if _, err := svc.Generate(ctx, GenerateLessonRequest{LessonTitle: "C", Research: true}); err != nil {
		t.Fatalf("degraded research must not fail generation: %v", err)
	}
	if gen.last().WebSearchContext != "" {
		t.Fatalf("web context: %q", gen.last().WebSearchContext)
	}
}

func TestLessonServiceCacheHitsAreIndependentCopies(t *testing.T) {
	gen := &fakeGenerator{}
	svc, _, _, _ := newTestLessonService(t, gen, nil, false)
	ctx := context.Background()
	req := GenerateLessonRequest{LessonTitle: "Pricing Basics"}

	first, err := svc.Generate(ctx, req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	wantTotal := first.TokenUsage.Totals.Total
	first.TokenUsage.Totals.Total = -1
	first.Metadata.DynamicSubsections[0] = "changed"

	hit, err := svc.Generate(ctx, req)
	if err != nil {
		t.Fatalf("Generate hit: %v", err)
	}
	if !hit.Cached || hit.TokenUsage.Totals.Total != wantTotal || hit.Metadata.DynamicSubsections[0] != "Overview" {
		t.Fatalf("cache entry changed through first result: total=%d subsections=%v", hit.TokenUsage.Totals.Total, hit.Metadata.DynamicSubsections)
	}

	hit.TokenUsage.Stage2.PromptTokens = 0
	hit.Metadata.DynamicSubsections[1] = "changed"
	again, err := svc.Generate(ctx, req)
	if err != nil {
		t.Fatalf("Generate second hit: %v", err)
	}
	if again.TokenUsage.Stage2.PromptTokens != 100 || again.Metadata.DynamicSubsections[1] != "Practice" {
		t.Fatalf("cache entry changed through a hit: %+v %v", again.TokenUsage.Stage2, again.Metadata.DynamicSubsections)
	}
}

func TestLessonServiceStripsCodesFromNumberedTitles(t *testing.T) {
	gen := &fakeGenerator{}
	log := logger.Nop()
	db := testutil.DB(t)
	ctx := context.Background()

	programs := repos.NewProgramRepo(db, log)
	psvc := NewProgramService(db, log, programs).(*programService)
	psvc.now = func() time.Time { return time.UnixMilli(1700000004567) }
	created, err := psvc.Create(ctx, CreateProgramRequest{Program: structure.Program{
		Title:  "Digital Marketing",
		Niche:  "Digital Marketing",
		Domain: "business-management",
		Courses: []structure.Course{{
			Title: "SEO",
			Topics: []structure.Topic{{
				Title:   "Basics",
				Lessons: []structure.Lesson{{Title: "Intro to Search"}},
			}},
		}},
	}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	stored := created.Courses[0].Topics[0].Lessons[0]
	if !strings.HasPrefix(stored.Title, created.Code+"__") {
		t.Fatalf("stored lesson title should carry its code: %q", stored.Title)
	}

	b := bus.NewMemoryBus(log)
	t.Cleanup(func() { _ = b.Close() })
	svc, err := NewLessonService(log, gen, nil, repos.NewLessonRepo(db, log), repos.NewGenerationRunRepo(db, log), b, 8)
	if err != nil {
		t.Fatalf("NewLessonService: %v", err)
	}
	if _, err := svc.Generate(ctx, GenerateLessonRequest{LessonID: stored.ID}); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	in := gen.last()
	if in.LessonTitle != "Intro to Search" || in.TopicTitle != "Basics" || in.CourseTitle != "SEO" {
		t.Fatalf("titles reaching the generator: lesson=%q topic=%q course=%q", in.LessonTitle, in.TopicTitle, in.CourseTitle)
	}
	for _, h := range lessongen.FallbackSubsections(in.LessonTitle) {
		if strings.Contains(h, created.Code) {
			t.Fatalf("fallback heading carries a code: %q", h)
		}
	}
}
