// Package lessongen generates long-form lesson content with an optional
// retrieval stage, a subsection planner and a mandatory synthesis stage.
package lessongen

import (
	"context"
	"time"

	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/designparams"
	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/usage"
)

type Mode string

const (
	ModeTwoStage Mode = "two_stage"
	ModeFallback Mode = "fallback"
)

// Input describes one lesson to generate. Parameters must already be resolved.
type Input struct {
	ProgramTitle      string
	CourseTitle       string
	TopicTitle        string
	LessonTitle       string
	LessonDescription string

	CourseContext    string
	WebSearchContext string

	MustHave             string
	DesignConsiderations string

	VectorStoreIDs []string
	Parameters     designparams.Parameters
}

type Metadata struct {
	Mode                      Mode               `json:"mode"`
	UsedRAG                   bool               `json:"usedRAG"`
	UsedWebSearch             bool               `json:"usedWebSearch"`
	UsedDesignParameters      bool               `json:"usedDesignParameters"`
	UsedDynamicSubsections    bool               `json:"usedDynamicSubsections"`
	DynamicSubsections        []string           `json:"dynamicSubsections"`
	RetrievalStatus           Status             `json:"retrievalStatus"`
	RetrievalReason           string             `json:"retrievalReason,omitempty"`
	PlannerStatus             Status             `json:"plannerStatus"`
	PlannerReason             string             `json:"plannerReason,omitempty"`
	Stage1TokenUsage          usage.Bucket       `json:"stage1TokenUsage"`
	Stage2TokenUsage          usage.Bucket       `json:"stage2TokenUsage"`
	WebSearchTokenUsage       usage.Bucket       `json:"webSearchTokenUsage"`
	SubsectionTokenUsage      usage.Bucket       `json:"subsectionTokenUsage"`
	ContentLength             int                `json:"contentLength"`
	WordCount                 int                `json:"wordCount"`
	MissingSubsectionHeadings []string           `json:"missingSubsectionHeadings,omitempty"`
	ContextSizes              usage.ContextSizes `json:"contextSizes"`
}

type Result struct {
	Content    string         `json:"content"`
	TokenUsage *usage.Session `json:"tokenUsage"`
	Metadata   Metadata       `json:"metadata"`
}

// Status tags the outcome of an optional step.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusSkipped  Status = "skipped"
)

// Outcome is the result of an optional step. Degraded outcomes carry the
// fallback value and the reason the real value was not produced.
type Outcome[T any] struct {
	Value  T
	Status Status
	Reason string
}

func ok[T any](v T) Outcome[T] { return Outcome[T]{Value: v, Status: StatusOK} }

func degraded[T any](v T, reason string) Outcome[T] {
	return Outcome[T]{Value: v, Status: StatusDegraded, Reason: reason}
}

func skipped[T any]() Outcome[T] { return Outcome[T]{Status: StatusSkipped} }

type Phase string

const (
	PhasePlanning          Phase = "planning"
	PhaseRetrievalStarted  Phase = "retrieval_started"
	PhaseRetrievalDegraded Phase = "retrieval_degraded"
	PhaseRetrievalDone     Phase = "retrieval_done"
	PhaseSynthesisStarted  Phase = "synthesis_started"
	PhaseSynthesisDone     Phase = "synthesis_done"
	PhaseFailed            Phase = "failed"

	// PhaseResearching is emitted by callers that run web research before the pipeline.
	PhaseResearching Phase = "researching"
)

type StatusEvent struct {
	Phase       Phase     `json:"phase"`
	LessonTitle string    `json:"lessonTitle"`
	Message     string    `json:"message,omitempty"`
	At          time.Time `json:"at"`
}

// StatusFunc receives progress callbacks. It must not block.
type StatusFunc func(ctx context.Context, ev StatusEvent)
