package programbuild

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/yungbote/curriculum-backend/internal/services"
)

// Dispatcher starts program builds as Temporal workflows.
type Dispatcher struct {
	Client    temporalsdkclient.Client
	TaskQueue string
	now       func() time.Time
}

func NewDispatcher(c temporalsdkclient.Client, taskQueue string) *Dispatcher {
	return &Dispatcher{Client: c, TaskQueue: taskQueue, now: time.Now}
}

func (d *Dispatcher) Dispatch(ctx context.Context, programID uuid.UUID, lessonIDs []uuid.UUID, opts services.BuildOptions) (string, error) {
	if d == nil || d.Client == nil {
		return "", fmt.Errorf("programbuild: temporal client not configured")
	}
	in := Input{
		ProgramID: programID.String(),
		Fallback:  opts.Fallback,
		Research:  opts.Research,
		Force:     opts.Force,
	}
	for _, id := range lessonIDs {
		in.LessonIDs = append(in.LessonIDs, id.String())
	}
	run, err := d.Client.ExecuteWorkflow(ctx, temporalsdkclient.StartWorkflowOptions{
		ID:        fmt.Sprintf("%s-%s-%d", WorkflowName, programID, d.now().UnixMilli()),
		TaskQueue: d.TaskQueue,
	}, WorkflowName, in)
	if err != nil {
		return "", fmt.Errorf("programbuild: start workflow: %w", err)
	}
	return run.GetID(), nil
}
