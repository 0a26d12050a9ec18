package domain

import "testing"

func TestDefaultSearchOptions(t *testing.T) {
	opts := DefaultSearchOptions()
	if opts.TopK != 5 {
		t.Errorf("expected TopK 5, got %d", opts.TopK)
	}
	if opts.MaxTokens != 2000 {
		t.Errorf("expected MaxTokens 2000, got %d", opts.MaxTokens)
	}
}

func TestSearchOptions_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   SearchOptions
		want SearchOptions
	}{
		{"zero values", SearchOptions{}, SearchOptions{TopK: 5, MaxTokens: 2000}},
		{"negative", SearchOptions{TopK: -1, MaxTokens: -5}, SearchOptions{TopK: 5, MaxTokens: 2000}},
		{"clamped", SearchOptions{TopK: 500, MaxTokens: 10}, SearchOptions{TopK: 100, MaxTokens: 10}},
		{"kept", SearchOptions{TopK: 3, MaxTokens: 300}, SearchOptions{TopK: 3, MaxTokens: 300}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Normalize(); got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSimilarityScore(t *testing.T) {
	if SimilarityScore(0) != 1 {
		t.Errorf("expected score 1 at distance 0, got %f", SimilarityScore(0))
	}
	if SimilarityScore(1) != 0.5 {
		t.Errorf("expected score 0.5 at distance 1, got %f", SimilarityScore(1))
	}
	if SimilarityScore(2) >= SimilarityScore(1) {
		t.Error("expected score to decrease with distance")
	}
	if SimilarityScore(-1) != 1 {
		t.Error("expected negative distances to clamp to 0")
	}
}
