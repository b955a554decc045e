package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	temporalsdkclient "go.temporal.io/sdk/client"
	"gorm.io/gorm"

	"github.com/yungbote/curriculum-backend/internal/data/db"
	httpserver "github.com/yungbote/curriculum-backend/internal/http"
	httpH "github.com/yungbote/curriculum-backend/internal/http/handlers"
	"github.com/yungbote/curriculum-backend/internal/observability"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
	"github.com/yungbote/curriculum-backend/internal/realtime"
	"github.com/yungbote/curriculum-backend/internal/realtime/bus"
	"github.com/yungbote/curriculum-backend/internal/temporalx"
	"github.com/yungbote/curriculum-backend/internal/temporalx/temporalworker"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *gorm.DB
	Repos    Repos
	Services Services
	Server   *httpserver.Server

	Hub      *realtime.Hub
	Bus      bus.Bus
	Temporal temporalsdkclient.Client
	Worker   *temporalworker.Runner

	dbService    *db.Service
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &App{Log: log, Cfg: cfg}
	if err := a.wire(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire() error {
	log, cfg := a.Log, a.Cfg

	a.otelShutdown = observability.InitOTel(context.Background(), log,
		observability.LoadOtelConfig(cfg.ServiceName, cfg.Environment, cfg.Version))

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.Init(log)
	}

	log.Info("Connecting database...", "driver", cfg.DB.Driver)
	dbService, err := db.NewService(log, cfg.DB)
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}
	a.dbService = dbService
	a.DB = dbService.DB()
	if err := db.AutoMigrateAll(a.DB); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if err := db.EnsureCurriculumIndexes(a.DB); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	a.Bus, err = bus.New(log, cfg.Bus)
	if err != nil {
		return fmt.Errorf("init status bus: %w", err)
	}
	a.Hub = realtime.NewHub(log)

	a.Temporal, err = temporalx.NewClient(log, cfg.Temporal)
	if err != nil {
		return fmt.Errorf("init temporal: %w", err)
	}

	a.Repos = wireRepos(a.DB, log)
	a.Services, err = wireServices(a.DB, log, cfg, a.Repos, a.Bus, a.Temporal, metrics)
	if err != nil {
		return err
	}

	if a.Temporal != nil && cfg.RunWorker {
		a.Worker, err = temporalworker.NewRunner(log, a.Temporal, cfg.Temporal, a.Services.BuildActivities)
		if err != nil {
			return fmt.Errorf("init temporal worker: %w", err)
		}
	}

	a.Server = httpserver.NewServer(wireRouterConfig(log, cfg, metrics, a.Services, a.Hub, a.healthChecks()))
	return nil
}

func (a *App) healthChecks() map[string]httpH.Pinger {
	checks := map[string]httpH.Pinger{}
	if a.DB != nil {
		db := a.DB
		checks["database"] = func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	return checks
}

// Start launches the background pieces: the status forwarder into the SSE
// hub and, when configured, the Temporal worker.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if err := a.Bus.StartForwarder(ctx, a.Hub.Broadcast); err != nil {
		return fmt.Errorf("start status forwarder: %w", err)
	}
	if a.Worker != nil {
		if err := a.Worker.Start(ctx); err != nil {
			return fmt.Errorf("start temporal worker: %w", err)
		}
	}
	return nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Server listening", "addr", a.Cfg.HTTPAddr)
	return a.Server.Run(a.Cfg.HTTPAddr)
}

// Shutdown stops accepting requests and waits for in-process builds.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if a.Services.ProgramBuild != nil {
		done := make(chan struct{})
		go func() {
			a.Services.ProgramBuild.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("waiting for program builds: %w", ctx.Err()))
		}
	}
	return errors.Join(errs...)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Temporal != nil {
		a.Temporal.Close()
	}
	if a.Bus != nil {
		_ = a.Bus.Close()
	}
	if a.dbService != nil {
		_ = a.dbService.Close()
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
