package lessongen

import "testing"

func TestWithDefaultsFillsRatiosAndCostRates(t *testing.T) {
	d := DefaultConfig()
	got := Config{Model: "custom"}.withDefaults()
	if got.FileSearchRatio != d.FileSearchRatio || got.WebSearchPromptRatio != d.WebSearchPromptRatio {
		t.Fatalf("ratios = %v/%v, want %v/%v", got.FileSearchRatio, got.WebSearchPromptRatio, d.FileSearchRatio, d.WebSearchPromptRatio)
	}
	if got.CostRates != d.CostRates {
		t.Fatalf("cost rates = %+v, want %+v", got.CostRates, d.CostRates)
	}

	kept := Config{FileSearchRatio: 0.5, WebSearchPromptRatio: 0.3}.withDefaults()
	if kept.FileSearchRatio != 0.5 || kept.WebSearchPromptRatio != 0.3 {
		t.Fatalf("explicit ratios overwritten: %+v", kept)
	}
}
