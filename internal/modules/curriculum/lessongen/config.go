package lessongen

import (
	"time"

	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/usage"
)

type Config struct {
	// Model used for every stage unless a stage override is set.
	Model          string
	PlannerModel   string
	RetrievalModel string
	ResearchModel  string

	PlannerTimeout   time.Duration
	RetrievalTimeout time.Duration
	SynthesisTimeout time.Duration
	ResearchTimeout  time.Duration

	PlannerMaxOutputTokens   int
	RetrievalMaxOutputTokens int
	SynthesisMaxOutputTokens int
	ResearchMaxOutputTokens  int

	PlannerTemperature   *float64
	SynthesisTemperature *float64

	RetrievalMaxResults int
	// FileSearchRatio is the share of stage 1 prompt tokens added as file search overhead.
	FileSearchRatio float64
	// WebSearchPromptRatio estimates research prompt tokens from its completion.
	WebSearchPromptRatio float64
	// PreviewChars bounds each context snippet handed to the planner.
	PreviewChars int

	CostRates usage.CostRates
}

func DefaultConfig() Config {
	return Config{
		PlannerTimeout:           45 * time.Second,
		RetrievalTimeout:         6 * time.Minute,
		SynthesisTimeout:         6 * time.Minute,
		ResearchTimeout:          2 * time.Minute,
		PlannerMaxOutputTokens:   400,
		RetrievalMaxOutputTokens: 3000,
		SynthesisMaxOutputTokens: 12000,
		ResearchMaxOutputTokens:  2000,
		RetrievalMaxResults:      3,
		FileSearchRatio:          0.2,
		WebSearchPromptRatio:     0.1,
		PreviewChars:             1500,
		CostRates:                usage.CostRates{InputPer1K: 0.0025, OutputPer1K: 0.01},
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PlannerTimeout <= 0 {
		c.PlannerTimeout = d.PlannerTimeout
	}
	if c.RetrievalTimeout <= 0 {
		c.RetrievalTimeout = d.RetrievalTimeout
	}
	if c.SynthesisTimeout <= 0 {
		c.SynthesisTimeout = d.SynthesisTimeout
	}
	if c.ResearchTimeout <= 0 {
		c.ResearchTimeout = d.ResearchTimeout
	}
	if c.PlannerMaxOutputTokens <= 0 {
		c.PlannerMaxOutputTokens = d.PlannerMaxOutputTokens
	}
	if c.RetrievalMaxOutputTokens <= 0 {
		c.RetrievalMaxOutputTokens = d.RetrievalMaxOutputTokens
	}
	if c.SynthesisMaxOutputTokens <= 0 {
		c.SynthesisMaxOutputTokens = d.SynthesisMaxOutputTokens
	}
	if c.ResearchMaxOutputTokens <= 0 {
		c.ResearchMaxOutputTokens = d.ResearchMaxOutputTokens
	}
	if c.RetrievalMaxResults <= 0 {
		c.RetrievalMaxResults = d.RetrievalMaxResults
	}
	if c.FileSearchRatio <= 0 {
		c.FileSearchRatio = d.FileSearchRatio
	}
	if c.WebSearchPromptRatio <= 0 {
		c.WebSearchPromptRatio = d.WebSearchPromptRatio
	}
	if c.CostRates.InputPer1K <= 0 {
		c.CostRates.InputPer1K = d.CostRates.InputPer1K
	}
	if c.CostRates.OutputPer1K <= 0 {
		c.CostRates.OutputPer1K = d.CostRates.OutputPer1K
	}
	if c.PreviewChars <= 0 {
		c.PreviewChars = d.PreviewChars
	}
	return c
}

func (c Config) modelFor(override string) string {
	if override != "" {
		return override
	}
	return c.Model
}
