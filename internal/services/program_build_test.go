package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/curriculum-backend/internal/data/repos"
	"github.com/yungbote/curriculum-backend/internal/data/repos/testutil"
	types "github.com/yungbote/curriculum-backend/internal/domain"
	apperr "github.com/yungbote/curriculum-backend/internal/pkg/errors"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
	"github.com/yungbote/curriculum-backend/internal/realtime"
	"github.com/yungbote/curriculum-backend/internal/realtime/bus"
)

type fakeDispatcher struct {
	programID uuid.UUID
	lessonIDs []uuid.UUID
}

func (f *fakeDispatcher) Dispatch(_ context.Context, programID uuid.UUID, lessonIDs []uuid.UUID, _ BuildOptions) (string, error) {
	f.programID, f.lessonIDs = programID, lessonIDs
	return "program-build-" + programID.String(), nil
}

type buildFixture struct {
	program *types.Program
	gen     *fakeGenerator
	svc     ProgramBuildService
	mu      sync.Mutex
	events  []realtime.StatusMessage
}

func (f *buildFixture) eventsFor(ev realtime.Event) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.events {
		if m.Event == ev && m.Channel == f.program.ID.String() {
			n++
		}
	}
	return n
}

func newBuildFixture(t *testing.T, dispatcher BuildDispatcher) *buildFixture {
	t.Helper()
	log := logger.Nop()
	db := testutil.DB(t)
	ctx := context.Background()
	f := &buildFixture{
		program: testutil.SeedProgram(t, ctx, db, "2DIG45", 2, 2),
		gen:     &fakeGenerator{errByKey: map[string]error{"Lesson 1.2": apperr.Upstream("test", errors.New("boom"))}},
	}
	b := bus.NewMemoryBus(log)
	t.Cleanup(func() { _ = b.Close() })
	if err := b.StartForwarder(ctx, func(m realtime.StatusMessage) {
		f.mu.Lock()
		f.events = append(f.events, m)
		f.mu.Unlock()
	}); err != nil {
		t.Fatalf("StartForwarder: %v", err)
	}
	lessons, err := NewLessonService(log, f.gen, nil, repos.NewLessonRepo(db, log), repos.NewGenerationRunRepo(db, log), b, 16)
	if err != nil {
		t.Fatalf("NewLessonService: %v", err)
	}
	f.svc = NewProgramBuildService(log, repos.NewProgramRepo(db, log), lessons, b, dispatcher, 2)
	return f
}

func TestProgramBuildContinuesPastFailedLesson(t *testing.T) {
	f := newBuildFixture(t, nil)
	summary, err := f.svc.BuildAll(context.Background(), f.program.ID, BuildOptions{})
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if summary.Succeeded != 3 || summary.Failed != 1 || len(summary.Lessons) != 4 {
		t.Fatalf("summary: %+v", summary)
	}
	failed := summary.Lessons[1]
	if failed.LessonID != f.program.Courses[0].Topics[0].Lessons[1].ID || failed.Status != LessonBuildFailed || failed.Error == "" {
		t.Fatalf("second lesson should fail: %+v", failed)
	}
	if summary.Lessons[3].Status != LessonBuildSucceeded || summary.Lessons[3].TotalTokens != 500 {
		t.Fatalf("last lesson: %+v", summary.Lessons[3])
	}
	if f.eventsFor(realtime.EventProgramBuildProgress) != 4 || f.eventsFor(realtime.EventProgramBuildDone) != 1 {
		t.Fatalf("events: progress=%d done=%d", f.eventsFor(realtime.EventProgramBuildProgress), f.eventsFor(realtime.EventProgramBuildDone))
	}
}

func TestProgramBuildSubsetAndValidation(t *testing.T) {
	f := newBuildFixture(t, nil)
	ctx := context.Background()
	only := f.program.Courses[1].Topics[0].Lessons[0].ID

	summary, err := f.svc.BuildAll(ctx, f.program.ID, BuildOptions{LessonIDs: []uuid.UUID{only}, Fallback: true})
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(summary.Lessons) != 1 || summary.Succeeded != 1 || f.gen.count() != 1 {
		t.Fatalf("subset summary: %+v calls=%d", summary, f.gen.count())
	}

	if _, err := f.svc.BuildAll(ctx, f.program.ID, BuildOptions{LessonIDs: []uuid.UUID{uuid.New()}}); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("foreign lesson: %v", err)
	}
	if _, err := f.svc.BuildAll(ctx, uuid.New(), BuildOptions{}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing program: %v", err)
	}
	if _, err := f.svc.BuildAll(ctx, uuid.Nil, BuildOptions{}); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("nil program: %v", err)
	}
}

func TestProgramBuildStartInProcess(t *testing.T) {
	f := newBuildFixture(t, nil)
	ticket, err := f.svc.Start(context.Background(), f.program.ID, BuildOptions{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	f.svc.Wait()
	if ticket.Runner != "in_process" || len(ticket.LessonIDs) != 4 || ticket.StatusChannel != f.program.ID.String() {
		t.Fatalf("ticket: %+v", ticket)
	}
	if f.gen.count() != 4 || f.eventsFor(realtime.EventProgramBuildDone) != 1 {
		t.Fatalf("background build: calls=%d done=%d", f.gen.count(), f.eventsFor(realtime.EventProgramBuildDone))
	}
}

func TestProgramBuildStartUsesDispatcher(t *testing.T) {
	d := &fakeDispatcher{}
	f := newBuildFixture(t, d)
	ticket, err := f.svc.Start(context.Background(), f.program.ID, BuildOptions{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if ticket.Runner != "temporal" || ticket.WorkflowID == "" || d.programID != f.program.ID || len(d.lessonIDs) != 4 {
		t.Fatalf("ticket: %+v dispatched=%v", ticket, d.lessonIDs)
	}
	if f.gen.count() != 0 {
		t.Fatalf("dispatcher path must not generate in process")
	}
}
