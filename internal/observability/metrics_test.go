package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/usage"
)

func TestUsageSinkRecordsStageTokens(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	s := usage.NewSession("lesson")
	s.Record(usage.StageSynthesis, 100, 400)
	s.Record(usage.StageRetrieval, 50, 60)
	s.AddFileSearchOverhead(10)
	s.CalculateTotals(usage.CostRates{InputPer1K: 1, OutputPer1K: 1})
	m.Emit(context.Background(), s)

	if got := testutil.ToFloat64(m.lessonTokens.WithLabelValues("stage2", "output")); got != 400 {
		t.Fatalf("stage2 output tokens: %v", got)
	}
	if got := testutil.ToFloat64(m.lessonTokens.WithLabelValues("stage1", "file_search")); got != 10 {
		t.Fatalf("stage1 file search tokens: %v", got)
	}
	if got := testutil.ToFloat64(m.lessonCost); got <= 0 {
		t.Fatalf("expected cost to be recorded, got %v", got)
	}
}

func TestHandlerExposesLLMMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.ObserveLLMRequest("gpt-test", "/v1/responses", "200", 2*time.Second, 10, 20)
	m.ObserveLessonGeneration("two_stage", "ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{"curriculum_llm_requests_total", "curriculum_lesson_generations_total", `direction="output"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.ObserveLessonStage("stage2", "ok", time.Second)
	m.Emit(context.Background(), usage.NewSession("x"))
}
