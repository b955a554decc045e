package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/curriculum-backend/internal/data/repos"
	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/lessongen"
	"github.com/yungbote/curriculum-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/curriculum-backend/internal/pkg/errors"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
	"github.com/yungbote/curriculum-backend/internal/realtime"
	"github.com/yungbote/curriculum-backend/internal/realtime/bus"
)

const (
	LessonBuildSucceeded = "succeeded"
	LessonBuildFailed    = "failed"
)

type BuildOptions struct {
	// LessonIDs restricts the build; empty means every lesson of the program.
	LessonIDs   []uuid.UUID `json:"lessonIds,omitempty"`
	Concurrency int         `json:"concurrency,omitempty"`
	Fallback    bool        `json:"fallback,omitempty"`
	Research    bool        `json:"research,omitempty"`
	Force       bool        `json:"force,omitempty"`
}

type LessonBuildResult struct {
	LessonID    uuid.UUID `json:"lessonId"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	TotalTokens int       `json:"totalTokens"`
	Degraded    bool      `json:"degraded,omitempty"`
}

type BuildSummary struct {
	ProgramID  uuid.UUID           `json:"programId"`
	Lessons    []LessonBuildResult `json:"lessons"`
	Succeeded  int                 `json:"succeeded"`
	Failed     int                 `json:"failed"`
	DurationMS int64               `json:"durationMs"`
}

// BuildTicket describes a build started in the background.
type BuildTicket struct {
	ProgramID     uuid.UUID   `json:"programId"`
	LessonIDs     []uuid.UUID `json:"lessonIds"`
	Runner        string      `json:"runner"`
	WorkflowID    string      `json:"workflowId,omitempty"`
	StatusChannel string      `json:"statusChannel"`
}

// BuildDispatcher hands a resolved build to an external runner such as Temporal.
type BuildDispatcher interface {
	Dispatch(ctx context.Context, programID uuid.UUID, lessonIDs []uuid.UUID, opts BuildOptions) (workflowID string, err error)
}

type ProgramBuildService interface {
	// BuildAll generates every selected lesson and waits. A failed lesson is
	// recorded in the summary and does not stop the others.
	BuildAll(ctx context.Context, programID uuid.UUID, opts BuildOptions) (*BuildSummary, error)
	// Start runs the build through the dispatcher when one is configured and
	// in a background goroutine otherwise.
	Start(ctx context.Context, programID uuid.UUID, opts BuildOptions) (*BuildTicket, error)
	// Wait blocks until background builds started by Start have finished.
	Wait()
}

type programBuildService struct {
	log         *logger.Logger
	programs    repos.ProgramRepo
	lessons     LessonService
	statusBus   bus.Bus
	dispatcher  BuildDispatcher
	concurrency int
	background  context.Context
	wg          sync.WaitGroup
}

func NewProgramBuildService(
	baseLog *logger.Logger,
	programs repos.ProgramRepo,
	lessons LessonService,
	statusBus bus.Bus,
	dispatcher BuildDispatcher,
	concurrency int,
) ProgramBuildService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &programBuildService{
		log:         baseLog.With("service", "ProgramBuildService"),
		programs:    programs,
		lessons:     lessons,
		statusBus:   statusBus,
		dispatcher:  dispatcher,
		concurrency: concurrency,
		background:  context.Background(),
	}
}

func (s *programBuildService) resolveLessons(ctx context.Context, programID uuid.UUID, opts BuildOptions) ([]uuid.UUID, error) {
	const op = "ProgramBuildService.resolveLessons"
	if programID == uuid.Nil {
		return nil, apperr.Invalid(op, "programId", "required")
	}
	all, err := s.programs.ListLessonIDs(dbctx.New(ctx), programID)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		p, err := s.programs.GetByIDs(dbctx.New(ctx), []uuid.UUID{programID})
		if err != nil {
			return nil, err
		}
		if len(p) == 0 {
			return nil, fmt.Errorf("program %s: %w", programID, apperr.ErrNotFound)
		}
		return all, nil
	}
	if len(opts.LessonIDs) == 0 {
		return all, nil
	}
	member := make(map[uuid.UUID]bool, len(all))
	for _, id := range all {
		member[id] = true
	}
	for _, id := range opts.LessonIDs {
		if !member[id] {
			return nil, apperr.Invalid(op, "lessonIds", fmt.Sprintf("lesson %s is not part of program %s", id, programID))
		}
	}
	return opts.LessonIDs, nil
}

func (s *programBuildService) BuildAll(ctx context.Context, programID uuid.UUID, opts BuildOptions) (*BuildSummary, error) {
	ids, err := s.resolveLessons(ctx, programID, opts)
	if err != nil {
		return nil, err
	}
	return s.build(ctx, programID, ids, opts)
}

func (s *programBuildService) build(ctx context.Context, programID uuid.UUID, ids []uuid.UUID, opts BuildOptions) (*BuildSummary, error) {
	started := time.Now()
	conc := opts.Concurrency
	if conc < 1 {
		conc = s.concurrency
	}
	log := s.log.With("program_id", programID, "lessons", len(ids), "concurrency", conc)
	log.Info("Program build started")

	results := make([]LessonBuildResult, len(ids))
	var done atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(conc)
	for i, id := range ids {
		g.Go(func() error {
			if gctx.Err() != nil {
				results[i] = LessonBuildResult{LessonID: id, Status: LessonBuildFailed, Error: gctx.Err().Error()}
				return nil
			}
			results[i] = s.buildLesson(gctx, id, opts)
			n := int(done.Add(1))
			s.publish(ctx, programID, realtime.EventProgramBuildProgress, map[string]any{
				"lessonId": id,
				"status":   results[i].Status,
				"done":     n,
				"total":    len(ids),
			})
			return nil
		})
	}
	_ = g.Wait()

	summary := &BuildSummary{ProgramID: programID, Lessons: results, DurationMS: time.Since(started).Milliseconds()}
	for _, r := range results {
		if r.Status == LessonBuildSucceeded {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	s.publish(ctx, programID, realtime.EventProgramBuildDone, summary)
	log.Info("Program build finished", "succeeded", summary.Succeeded, "failed", summary.Failed, "duration_ms", summary.DurationMS)

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (s *programBuildService) buildLesson(ctx context.Context, id uuid.UUID, opts BuildOptions) LessonBuildResult {
	res, err := s.lessons.Generate(ctx, GenerateLessonRequest{
		LessonID: id,
		Fallback: opts.Fallback,
		Research: opts.Research,
		Force:    opts.Force,
	})
	if err != nil {
		s.log.Warn("Lesson build failed", "lesson_id", id, "error", err)
		return LessonBuildResult{LessonID: id, Status: LessonBuildFailed, Error: err.Error()}
	}
	out := LessonBuildResult{LessonID: id, Status: LessonBuildSucceeded}
	if res.TokenUsage != nil {
		out.TotalTokens = res.TokenUsage.Totals.Total
	}
	out.Degraded = res.Metadata.RetrievalStatus == lessongen.StatusDegraded || res.Metadata.PlannerStatus == lessongen.StatusDegraded
	return out
}

func (s *programBuildService) Start(ctx context.Context, programID uuid.UUID, opts BuildOptions) (*BuildTicket, error) {
	ids, err := s.resolveLessons(ctx, programID, opts)
	if err != nil {
		return nil, err
	}
	ticket := &BuildTicket{ProgramID: programID, LessonIDs: ids, StatusChannel: programID.String()}

	if s.dispatcher != nil {
		wfID, err := s.dispatcher.Dispatch(ctx, programID, ids, opts)
		if err != nil {
			return nil, err
		}
		ticket.Runner = "temporal"
		ticket.WorkflowID = wfID
		return ticket, nil
	}

	ticket.Runner = "in_process"
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.build(s.background, programID, ids, opts); err != nil {
			s.log.Warn("Background program build ended with error", "program_id", programID, "error", err)
		}
	}()
	return ticket, nil
}

func (s *programBuildService) Wait() { s.wg.Wait() }

func (s *programBuildService) publish(ctx context.Context, programID uuid.UUID, event realtime.Event, data any) {
	if s.statusBus == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.statusBus.Publish(pctx, realtime.StatusMessage{Channel: programID.String(), Event: event, Data: data}); err != nil {
		s.log.Debug("Build status publish failed", "program_id", programID, "error", err)
	}
}
