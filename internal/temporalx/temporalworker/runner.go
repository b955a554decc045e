package temporalworker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/yungbote/curriculum-backend/internal/platform/logger"
	"github.com/yungbote/curriculum-backend/internal/temporalx"
	"github.com/yungbote/curriculum-backend/internal/temporalx/programbuild"
)

// Runner polls the build task queue and executes program build workflows.
type Runner struct {
	log  *logger.Logger
	tc   temporalsdkclient.Client
	cfg  temporalx.Config
	acts *programbuild.Activities
}

func NewRunner(log *logger.Logger, tc temporalsdkclient.Client, cfg temporalx.Config, acts *programbuild.Activities) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if acts == nil || acts.Lessons == nil {
		return nil, fmt.Errorf("temporal worker missing deps")
	}
	return &Runner{log: log.With("component", "TemporalWorker"), tc: tc, cfg: cfg, acts: acts}, nil
}

// Start retries worker start until WorkerStartMaxWait elapses. The worker is
// stopped when ctx is done.
func (r *Runner) Start(ctx context.Context) error {
	if r == nil || r.tc == nil {
		return fmt.Errorf("temporal worker not initialized")
	}
	cfg := r.cfg
	r.log.Info("Starting Temporal worker", "address", cfg.Address, "namespace", cfg.Namespace, "task_queue", cfg.TaskQueue)

	deadline := time.Now().Add(cfg.WorkerStartMaxWait)
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		w := r.newWorker()
		startErr := w.Start()
		if startErr == nil {
			go func() {
				<-ctx.Done()
				w.Stop()
			}()
			r.log.Info("Temporal worker started", "task_queue", cfg.TaskQueue, "attempts", attempt)
			return nil
		}
		w.Stop()

		var nfe *serviceerror.NamespaceNotFound
		missingNamespace := errors.As(startErr, &nfe)
		if missingNamespace && cfg.AutoRegisterNamespace {
			if err := temporalx.EnsureNamespace(ctx, r.log, cfg); err != nil {
				r.log.Warn("Temporal namespace ensure failed", "namespace", cfg.Namespace, "error", err)
			}
		}

		if cfg.WorkerStartMaxWait <= 0 || time.Now().After(deadline) {
			if missingNamespace {
				return fmt.Errorf("temporal namespace not found (namespace=%s): %w", cfg.Namespace, startErr)
			}
			return startErr
		}
		r.log.Warn("Temporal worker failed to start; retrying", "attempt", attempt, "error", startErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(temporalx.ClampBackoff(cfg.Backoff, cfg.BackoffMax, attempt)):
		}
	}
}

func (r *Runner) newWorker() worker.Worker {
	concurrency := max(r.cfg.WorkerConcurrency, 1)
	w := worker.New(r.tc, r.cfg.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     concurrency,
		MaxConcurrentWorkflowTaskExecutionSize: concurrency,
	})
	Register(w, r.acts)
	return w
}

// Register binds the program build workflow and its activities under their
// stable names.
func Register(reg worker.Registry, acts *programbuild.Activities) {
	reg.RegisterWorkflowWithOptions(programbuild.Workflow, workflow.RegisterOptions{Name: programbuild.WorkflowName})
	reg.RegisterActivityWithOptions(acts.GenerateLesson, activity.RegisterOptions{Name: programbuild.ActivityGenerateLesson})
	reg.RegisterActivityWithOptions(acts.Finish, activity.RegisterOptions{Name: programbuild.ActivityFinish})
}
