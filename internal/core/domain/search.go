package domain

const (
	// DefaultTopK is the number of passages returned when none is requested
	DefaultTopK = 5

	// DefaultMaxTokens is the context budget handed to the language model
	DefaultMaxTokens = 2000

	// MaxTopK caps a single request
	MaxTopK = 100
)

// SearchOptions configures a retrieval request
type SearchOptions struct {
	TopK      int `json:"top_k"`
	MaxTokens int `json:"max_tokens"`
}

// DefaultSearchOptions returns sensible defaults
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		TopK:      DefaultTopK,
		MaxTokens: DefaultMaxTokens,
	}
}

// Normalize fills in defaults and clamps out-of-range values
func (o SearchOptions) Normalize() SearchOptions {
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	if o.TopK > MaxTopK {
		o.TopK = MaxTopK
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	return o
}

// RetrievalResult is a chunk with its relevance score.
// Score is 1/(1+d) for squared L2 distance d; higher is more relevant.
type RetrievalResult struct {
	Chunk    Chunk   `json:"chunk"`
	Score    float64 `json:"score"`
	Distance float64 `json:"distance"`
	Rank     int     `json:"rank"`
}

// SimilarityScore converts a squared L2 distance into a score in (0, 1]
func SimilarityScore(distance float64) float64 {
	if distance < 0 {
		distance = 0
	}
	return 1 / (1 + distance)
}

// SearchResult is the ranked answer to a query against one game
type SearchResult struct {
	GameID  string            `json:"game_id"`
	Query   string            `json:"query"`
	Results []RetrievalResult `json:"results"`
}

// GenerationReport summarizes a bulk embedding run
type GenerationReport struct {
	Processed []string          `json:"processed"`
	Failed    map[string]string `json:"failed"`
}

// IndexSummary describes a freshly generated game index
type IndexSummary struct {
	GameID    string `json:"game_id"`
	Model     string `json:"model"`
	Dimension int    `json:"dimension"`
	Guides    int    `json:"guides"`
	Chunks    int    `json:"chunks"`
}

// DownloadResult describes a downloaded guide
type DownloadResult struct {
	Game  Game          `json:"game"`
	Path  string        `json:"path"`
	Pages int           `json:"pages"`
	Index *IndexSummary `json:"index,omitempty"`

	// IndexError is set when the guide was saved but regeneration failed
	IndexError string `json:"index_error,omitempty"`
}
