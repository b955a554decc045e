package usage

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

var stageTitles = map[Stage]string{
	StagePlanner:   "Subsection planning",
	StageWebSearch: "Web research (estimated)",
	StageRetrieval: "Stage 1 retrieval",
	StageSynthesis: "Stage 2 synthesis",
}

// Report renders a human readable usage and cost summary.
func (s *Session) Report(rates CostRates) string {
	if s == nil {
		return ""
	}
	t := s.CalculateTotals(rates)

	var b strings.Builder
	label := s.Label
	if label == "" {
		label = "lesson generation"
	}
	fmt.Fprintf(&b, "=== Token usage: %s ===\n", label)
	for _, st := range Stages {
		bk := s.Bucket(st)
		fmt.Fprintf(&b, "%-26s prompt=%d completion=%d total=%d", stageTitles[st], bk.PromptTokens, bk.CompletionTokens, bk.TotalTokens)
		if st == StageRetrieval {
			fmt.Fprintf(&b, " file_search=%d", bk.FileSearchTokens)
		}
		b.WriteString("\n")
	}
	cs := s.ContextSizes
	b.WriteString("--- context sizes (chars) ---\n")
	fmt.Fprintf(&b, "web=%d retrieval=%d course=%d mustHave=%d designConsiderations=%d instructions=%d\n",
		cs.WebSearch, cs.Retrieval, cs.Course, cs.MustHave, cs.DesignConsiderations, cs.Instructions)
	b.WriteString("--- totals ---\n")
	fmt.Fprintf(&b, "input=%d output=%d total=%d\n", t.Input, t.Output, t.Total)
	fmt.Fprintf(&b, "estimated cost: $%.4f (input $%.4f/1K, output $%.4f/1K)", t.EstimatedCostUSD, rates.InputPer1K, rates.OutputPer1K)
	return b.String()
}

// Sink receives a finalized session.
type Sink interface {
	Emit(ctx context.Context, s *Session)
}

type SinkFunc func(ctx context.Context, s *Session)

func (f SinkFunc) Emit(ctx context.Context, s *Session) { f(ctx, s) }

// MultiSink fans a session out to every non-nil sink.
func MultiSink(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, s *Session) {
		for _, sk := range sinks {
			if sk != nil {
				sk.Emit(ctx, s)
			}
		}
	})
}

type logSink struct {
	log   *logger.Logger
	rates CostRates
}

// NewLogSink logs the report text together with the totals as fields.
func NewLogSink(log *logger.Logger, rates CostRates) Sink {
	return &logSink{log: log.With("component", "TokenUsage"), rates: rates}
}

func (l *logSink) Emit(_ context.Context, s *Session) {
	if l == nil || l.log == nil || s == nil {
		return
	}
	report := s.Report(l.rates)
	l.log.Info("Lesson token usage",
		"label", s.Label,
		"input_tokens", s.Totals.Input,
		"output_tokens", s.Totals.Output,
		"total_tokens", s.Totals.Total,
		"estimated_cost_usd", s.Totals.EstimatedCostUSD,
		"report", report,
	)
}
