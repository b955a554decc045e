package programbuild

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/yungbote/curriculum-backend/internal/services"
)

// Workflow generates every lesson of the input in parallel. A lesson whose
// activity fails is reported in the result; it never fails the workflow.
func Workflow(ctx workflow.Context, in Input) (Result, error) {
	out := Result{ProgramID: strings.TrimSpace(in.ProgramID)}
	if out.ProgramID == "" {
		return out, fmt.Errorf("programbuild: missing program_id")
	}

	lessonCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 20 * time.Minute,
		HeartbeatTimeout:    time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2,
			MaximumAttempts:    3,
		},
	})

	futures := make([]workflow.Future, len(in.LessonIDs))
	for i, id := range in.LessonIDs {
		futures[i] = workflow.ExecuteActivity(lessonCtx, ActivityGenerateLesson, LessonInput{
			ProgramID: out.ProgramID,
			LessonID:  id,
			Fallback:  in.Fallback,
			Research:  in.Research,
			Force:     in.Force,
		})
	}

	out.Lessons = make([]LessonOutcome, len(in.LessonIDs))
	for i, f := range futures {
		var lo LessonOutcome
		if err := f.Get(ctx, &lo); err != nil {
			lo = LessonOutcome{LessonID: in.LessonIDs[i], Status: services.LessonBuildFailed, Error: err.Error()}
		}
		out.Lessons[i] = lo
		if lo.Status == services.LessonBuildSucceeded {
			out.Succeeded++
		} else {
			out.Failed++
		}
	}

	finishCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 3},
	})
	if err := workflow.ExecuteActivity(finishCtx, ActivityFinish, out).Get(ctx, nil); err != nil {
		workflow.GetLogger(ctx).Warn("program build finish notification failed", "error", err)
	}
	return out, nil
}
