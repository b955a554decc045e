package observability

import (
	"context"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/usage"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	llmRequests *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec
	llmTokens   *prometheus.CounterVec

	lessonGenerations *prometheus.CounterVec
	lessonStageTime   *prometheus.HistogramVec
	lessonTokens      *prometheus.CounterVec
	lessonCost        prometheus.Counter
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

// Current returns the process-wide metrics, or nil when Init was never called.
func Current() *Metrics {
	return instance
}

// Init builds the process-wide metrics once.
func Init(log *logger.Logger) *Metrics {
	initOnce.Do(func() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		instance = NewMetrics(reg)
		if log != nil {
			log.Info("metrics initialized")
		}
	})
	return instance
}

// NewMetrics registers every collector on reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curriculum_api_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "curriculum_api_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "curriculum_api_inflight_requests",
			Help: "HTTP requests currently being served.",
		}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curriculum_llm_requests_total",
			Help: "Generation service calls by model, endpoint and status.",
		}, []string{"model", "endpoint", "status"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "curriculum_llm_request_duration_seconds",
			Help:    "Generation service call latency including retries.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"model", "endpoint"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curriculum_llm_tokens_total",
			Help: "Tokens reported by the generation service.",
		}, []string{"model", "direction"}),
		lessonGenerations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curriculum_lesson_generations_total",
			Help: "Lesson generations by mode and outcome.",
		}, []string{"mode", "outcome"}),
		lessonStageTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "curriculum_lesson_stage_duration_seconds",
			Help:    "Lesson pipeline stage latency.",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"stage", "status"}),
		lessonTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curriculum_lesson_tokens_total",
			Help: "Lesson token usage by stage and direction.",
		}, []string{"stage", "direction"}),
		lessonCost: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "curriculum_lesson_cost_usd_total",
			Help: "Estimated lesson generation cost in USD.",
		}),
	}
	reg.MustRegister(
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.llmRequests, m.llmLatency, m.llmTokens,
		m.lessonGenerations, m.lessonStageTime, m.lessonTokens, m.lessonCost,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m != nil {
		m.apiInflight.Inc()
	}
}

func (m *Metrics) ApiInflightDec() {
	if m != nil {
		m.apiInflight.Dec()
	}
}

func (m *Metrics) ObserveLLMRequest(model, endpoint, status string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	if model == "" {
		model = "unknown"
	}
	m.llmRequests.WithLabelValues(model, endpoint, status).Inc()
	m.llmLatency.WithLabelValues(model, endpoint).Observe(dur.Seconds())
	if inputTokens > 0 {
		m.llmTokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.llmTokens.WithLabelValues(model, "output").Add(float64(outputTokens))
	}
}

func (m *Metrics) ObserveLessonGeneration(mode, outcome string) {
	if m == nil {
		return
	}
	m.lessonGenerations.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) ObserveLessonStage(stage, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.lessonStageTime.WithLabelValues(stage, status).Observe(dur.Seconds())
}

// Emit records a finalized usage session. It makes Metrics a usage.Sink.
func (m *Metrics) Emit(_ context.Context, s *usage.Session) {
	if m == nil || s == nil {
		return
	}
	for _, st := range usage.Stages {
		b := s.Bucket(st)
		if b.PromptTokens > 0 {
			m.lessonTokens.WithLabelValues(string(st), "input").Add(float64(b.PromptTokens))
		}
		if b.CompletionTokens > 0 {
			m.lessonTokens.WithLabelValues(string(st), "output").Add(float64(b.CompletionTokens))
		}
		if b.FileSearchTokens > 0 {
			m.lessonTokens.WithLabelValues(string(st), "file_search").Add(float64(b.FileSearchTokens))
		}
	}
	if s.Totals.EstimatedCostUSD > 0 {
		m.lessonCost.Add(s.Totals.EstimatedCostUSD)
	}
}
