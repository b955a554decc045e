// Package usage accumulates token usage for a single lesson generation.
package usage

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

type Stage string

const (
	StageRetrieval Stage = "stage1"
	StageSynthesis Stage = "stage2"
	StageWebSearch Stage = "webSearch"
	StagePlanner   Stage = "subsectionGeneration"
)

// Stages lists every bucket in report order.
var Stages = []Stage{StagePlanner, StageWebSearch, StageRetrieval, StageSynthesis}

type Bucket struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
	FileSearchTokens int `json:"file_search_tokens,omitempty"`
}

func (b Bucket) IsZero() bool { return b == Bucket{} }

type ContextSizes struct {
	WebSearch            int `json:"webSearch"`
	Retrieval            int `json:"retrieval"`
	Course               int `json:"course"`
	MustHave             int `json:"mustHave"`
	DesignConsiderations int `json:"designConsiderations"`
	Instructions         int `json:"instructions"`
}

type Totals struct {
	Input            int     `json:"input"`
	Output           int     `json:"output"`
	Total            int     `json:"total"`
	EstimatedCostUSD float64 `json:"estimatedCostUsd"`
}

// CostRates are USD per 1000 tokens.
type CostRates struct {
	InputPer1K  float64
	OutputPer1K float64
}

func (r CostRates) Cost(input, output int) float64 {
	return float64(input)/1000*r.InputPer1K + float64(output)/1000*r.OutputPer1K
}

// Session is owned by one generation call and is not safe for concurrent use.
type Session struct {
	Label                string       `json:"label"`
	StartedAt            time.Time    `json:"startedAt"`
	Stage1               Bucket       `json:"stage1"`
	Stage2               Bucket       `json:"stage2"`
	WebSearch            Bucket       `json:"webSearch"`
	SubsectionGeneration Bucket       `json:"subsectionGeneration"`
	ContextSizes         ContextSizes `json:"contextSizes"`
	Totals               Totals       `json:"totals"`
}

func NewSession(label string) *Session {
	return &Session{Label: strings.TrimSpace(label), StartedAt: time.Now().UTC()}
}

// Clone returns an independent copy; nil stays nil.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func (s *Session) bucket(stage Stage) *Bucket {
	switch stage {
	case StageRetrieval:
		return &s.Stage1
	case StageSynthesis:
		return &s.Stage2
	case StageWebSearch:
		return &s.WebSearch
	case StagePlanner:
		return &s.SubsectionGeneration
	}
	return nil
}

// Bucket returns a copy of the stage's counters.
func (s *Session) Bucket(stage Stage) Bucket {
	if s == nil {
		return Bucket{}
	}
	if b := s.bucket(stage); b != nil {
		return *b
	}
	return Bucket{}
}

// Record adds measured counts to a stage. Negative counts are ignored.
func (s *Session) Record(stage Stage, prompt, completion int) {
	if s == nil {
		return
	}
	b := s.bucket(stage)
	if b == nil {
		return
	}
	prompt, completion = max(prompt, 0), max(completion, 0)
	b.PromptTokens += prompt
	b.CompletionTokens += completion
	b.TotalTokens += prompt + completion
}

// RecordEstimated records ceil(chars/4) estimates for the given texts.
func (s *Session) RecordEstimated(stage Stage, promptText, completionText string) {
	s.Record(stage, EstimateTokens(promptText), EstimateTokens(completionText))
}

// AddFileSearchOverhead adds retrieval processing tokens to stage1; they count toward its total.
func (s *Session) AddFileSearchOverhead(tokens int) {
	if s == nil || tokens <= 0 {
		return
	}
	s.Stage1.FileSearchTokens += tokens
	s.Stage1.TotalTokens += tokens
}

// CalculateTotals recomputes the totals from the buckets.
func (s *Session) CalculateTotals(rates CostRates) Totals {
	if s == nil {
		return Totals{}
	}
	var t Totals
	for _, st := range Stages {
		b := s.bucket(st)
		t.Input += b.PromptTokens
		t.Output += b.CompletionTokens
		t.Total += b.TotalTokens
	}
	t.EstimatedCostUSD = rates.Cost(t.Input, t.Output)
	s.Totals = t
	return t
}

// EstimateTokens approximates token count as ceil(runes/4).
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return int(math.Ceil(float64(n) / 4.0))
}

// WebSearchProxy estimates the cost of externally produced research text:
// completion is len/4 and prompt is ratio x completion.
func WebSearchProxy(researchText string, ratio float64) (prompt, completion int) {
	completion = EstimateTokens(researchText)
	if ratio < 0 {
		ratio = 0
	}
	prompt = int(math.Round(float64(completion) * ratio))
	return prompt, completion
}
