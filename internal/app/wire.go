package app

import (
	"fmt"

	temporalsdkclient "go.temporal.io/sdk/client"
	"gorm.io/gorm"

	"github.com/yungbote/curriculum-backend/internal/data/repos"
	httpserver "github.com/yungbote/curriculum-backend/internal/http"
	httpH "github.com/yungbote/curriculum-backend/internal/http/handlers"
	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/lessongen"
	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/usage"
	"github.com/yungbote/curriculum-backend/internal/observability"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
	"github.com/yungbote/curriculum-backend/internal/platform/openai"
	"github.com/yungbote/curriculum-backend/internal/realtime"
	"github.com/yungbote/curriculum-backend/internal/realtime/bus"
	"github.com/yungbote/curriculum-backend/internal/services"
	"github.com/yungbote/curriculum-backend/internal/temporalx/programbuild"
)

type Repos struct {
	Program       repos.ProgramRepo
	Lesson        repos.LessonRepo
	GenerationRun repos.GenerationRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Program:       repos.NewProgramRepo(db, log),
		Lesson:        repos.NewLessonRepo(db, log),
		GenerationRun: repos.NewGenerationRunRepo(db, log),
	}
}

type Services struct {
	Lesson       services.LessonService
	Program      services.ProgramService
	ProgramBuild services.ProgramBuildService

	BuildActivities *programbuild.Activities
}

func wireServices(
	db *gorm.DB,
	log *logger.Logger,
	cfg Config,
	reposet Repos,
	statusBus bus.Bus,
	tc temporalsdkclient.Client,
	metrics *observability.Metrics,
) (Services, error) {
	log.Info("Wiring services...")

	client, err := openai.NewClient(log, cfg.OpenAI)
	if err != nil {
		return Services{}, fmt.Errorf("init openai client: %w", err)
	}

	var sink usage.Sink = usage.NewLogSink(log, cfg.Generation.CostRates)
	if metrics != nil {
		sink = usage.MultiSink(sink, metrics)
	}
	gen := lessongen.NewGenerator(log, client, cfg.Generation, sink)
	researcher := lessongen.NewResearcher(log, client, cfg.Generation)

	lessonService, err := services.NewLessonService(log, gen, researcher, reposet.Lesson, reposet.GenerationRun, statusBus, cfg.LessonCacheSize)
	if err != nil {
		return Services{}, err
	}

	var dispatcher services.BuildDispatcher
	if tc != nil {
		dispatcher = programbuild.NewDispatcher(tc, cfg.Temporal.TaskQueue)
	}

	return Services{
		Lesson:       lessonService,
		Program:      services.NewProgramService(db, log, reposet.Program),
		ProgramBuild: services.NewProgramBuildService(log, reposet.Program, lessonService, statusBus, dispatcher, cfg.BuildConcurrency),
		BuildActivities: &programbuild.Activities{
			Log:     log.With("component", "ProgramBuildActivities"),
			Lessons: lessonService,
			Bus:     statusBus,
		},
	}, nil
}

func wireRouterConfig(log *logger.Logger, cfg Config, metrics *observability.Metrics, serviceset Services, hub *realtime.Hub, checks map[string]httpH.Pinger) httpserver.RouterConfig {
	log.Info("Wiring handlers...")
	return httpserver.RouterConfig{
		Log:         log.With("component", "HTTP"),
		Metrics:     metrics,
		ServiceName: cfg.ServiceName,
		CORSOrigins: cfg.CORSOrigins,

		HealthHandler:       httpH.NewHealthHandler(checks),
		DesignParamsHandler: httpH.NewDesignParamsHandler(),
		ProgramCodeHandler:  httpH.NewProgramCodeHandler(),
		ProgramHandler:      httpH.NewProgramHandler(serviceset.Program, serviceset.ProgramBuild),
		LessonHandler:       httpH.NewLessonHandler(serviceset.Lesson),
		EventsHandler:       httpH.NewEventsHandler(hub),
	}
}
