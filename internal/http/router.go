package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/curriculum-backend/internal/http/handlers"
	httpMW "github.com/yungbote/curriculum-backend/internal/http/middleware"
	"github.com/yungbote/curriculum-backend/internal/observability"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string

	HealthHandler       *httpH.HealthHandler
	DesignParamsHandler *httpH.DesignParamsHandler
	ProgramCodeHandler  *httpH.ProgramCodeHandler
	ProgramHandler      *httpH.ProgramHandler
	LessonHandler       *httpH.LessonHandler
	EventsHandler       *httpH.EventsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Design parameters
		if cfg.DesignParamsHandler != nil {
			api.GET("/design-parameters", cfg.DesignParamsHandler.Catalog)
			api.POST("/design-parameters/validate", cfg.DesignParamsHandler.Validate)
			api.POST("/design-parameters/resolve", cfg.DesignParamsHandler.Resolve)
		}

		// Program codes
		if cfg.ProgramCodeHandler != nil {
			api.POST("/program-codes", cfg.ProgramCodeHandler.Generate)
			api.GET("/program-codes/:code/validate", cfg.ProgramCodeHandler.Validate)
		}

		// Programs
		if cfg.ProgramHandler != nil {
			api.POST("/programs", cfg.ProgramHandler.Create)
			api.GET("/programs/:id", cfg.ProgramHandler.Get)
			api.POST("/programs/:id/build", cfg.ProgramHandler.Build)
		}

		// Lessons
		if cfg.LessonHandler != nil {
			api.POST("/lessons/generate", cfg.LessonHandler.Generate)
		}

		// Status stream (SSE)
		if cfg.EventsHandler != nil {
			api.GET("/events", cfg.EventsHandler.Stream)
		}
	}

	return r
}
