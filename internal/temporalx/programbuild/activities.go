package programbuild

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/lessongen"
	apperr "github.com/yungbote/curriculum-backend/internal/pkg/errors"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
	"github.com/yungbote/curriculum-backend/internal/realtime"
	"github.com/yungbote/curriculum-backend/internal/realtime/bus"
	"github.com/yungbote/curriculum-backend/internal/services"
)

type Activities struct {
	Log     *logger.Logger
	Lessons services.LessonService
	Bus     bus.Bus

	// HeartbeatEvery defaults to 10s.
	HeartbeatEvery time.Duration
}

func (a *Activities) GenerateLesson(ctx context.Context, in LessonInput) (LessonOutcome, error) {
	out := LessonOutcome{LessonID: in.LessonID, Status: services.LessonBuildFailed}
	if a == nil || a.Lessons == nil {
		return out, temporal.NewNonRetryableApplicationError("programbuild: activity not configured", "config", nil)
	}
	id, err := uuid.Parse(in.LessonID)
	if err != nil || id == uuid.Nil {
		return out, temporal.NewNonRetryableApplicationError(fmt.Sprintf("programbuild: invalid lesson_id %q", in.LessonID), "invalid_argument", err)
	}

	stop := a.startHeartbeat(ctx, in.LessonID)
	defer stop()

	res, err := a.Lessons.Generate(ctx, services.GenerateLessonRequest{
		LessonID: id,
		Fallback: in.Fallback,
		Research: in.Research,
		Force:    in.Force,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidArgument) || errors.Is(err, apperr.ErrNotFound) {
			return out, temporal.NewNonRetryableApplicationError(err.Error(), "invalid_argument", err)
		}
		return out, err
	}

	out.Status = services.LessonBuildSucceeded
	if res.TokenUsage != nil {
		out.TotalTokens = res.TokenUsage.Totals.Total
	}
	out.Degraded = res.Metadata.RetrievalStatus == lessongen.StatusDegraded || res.Metadata.PlannerStatus == lessongen.StatusDegraded
	a.publish(ctx, in.ProgramID, realtime.EventProgramBuildProgress, out)
	return out, nil
}

// Finish announces the completed build on the status bus.
func (a *Activities) Finish(ctx context.Context, res Result) error {
	a.publish(ctx, res.ProgramID, realtime.EventProgramBuildDone, res)
	if a != nil && a.Log != nil {
		a.Log.Info("Program build workflow finished", "program_id", res.ProgramID, "succeeded", res.Succeeded, "failed", res.Failed)
	}
	return nil
}

func (a *Activities) publish(ctx context.Context, programID string, ev realtime.Event, data any) {
	if a == nil || a.Bus == nil || programID == "" {
		return
	}
	if err := a.Bus.Publish(ctx, realtime.StatusMessage{Channel: programID, Event: ev, Data: data}); err != nil && a.Log != nil {
		a.Log.Debug("Build status publish failed", "program_id", programID, "error", err)
	}
}

func (a *Activities) startHeartbeat(ctx context.Context, lessonID string) func() {
	every := a.HeartbeatEvery
	if every <= 0 {
		every = 10 * time.Second
	}
	done := make(chan struct{})
	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-t.C:
				activity.RecordHeartbeat(ctx, lessonID)
			}
		}
	}()
	return func() { close(done) }
}
