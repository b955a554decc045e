package lessongen

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/curriculum-backend/internal/platform/logger"
	"github.com/yungbote/curriculum-backend/internal/platform/openai"
)

func TestResearcherUsesWebSearchTool(t *testing.T) {
	f := &fakeResponder{respond: map[string]func(context.Context, openai.ResponseRequest) (*openai.Response, error){
		"research": textResponse("Recent pricing studies show...", nil),
	}}
	r := NewResearcher(logger.Nop(), f, Config{})
	out := r.Research(context.Background(), Input{LessonTitle: "Pricing"})
	if out.Status != StatusOK || out.Value != "Recent pricing studies show..." {
		t.Fatalf("research outcome: %+v", out)
	}
	if f.called("research") != 1 {
		t.Fatalf("expected one web search call, got %v", f.calls)
	}
}

func TestResearcherDegradesOnError(t *testing.T) {
	f := &fakeResponder{respond: map[string]func(context.Context, openai.ResponseRequest) (*openai.Response, error){
		"research": failWith(errors.New("timeout")),
	}}
	out := NewResearcher(logger.Nop(), f, Config{}).Research(context.Background(), Input{LessonTitle: "Pricing"})
	if out.Status != StatusDegraded || out.Value != "" {
		t.Fatalf("expected degraded empty outcome: %+v", out)
	}
}

func TestNilResearcherSkips(t *testing.T) {
	var r *Researcher
	if out := r.Research(context.Background(), Input{LessonTitle: "x"}); out.Status != StatusSkipped {
		t.Fatalf("nil researcher should skip: %+v", out)
	}
}
