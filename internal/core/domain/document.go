package domain

import "fmt"

// GuideDocument is the concatenated text of every page of one guide, or of
// every guide file of one game. It is never persisted itself.
type GuideDocument struct {
	GameID   string
	Platform string
	RawText  string
	Sources  []string
}

// Chunk is a bounded segment of guide text, the unit embedded and retrieved.
// JSON tags match the persisted embedding record.
type Chunk struct {
	Text     string `json:"text"`
	Source   string `json:"source"`
	StartIdx int    `json:"start_idx"`
	EndIdx   int    `json:"end_idx"`

	// Paragraphs is the [first, last) paragraph index range in the source text
	Paragraphs [2]int `json:"paragraphs"`
}

// EmbeddingRecord is the persisted form of one game's chunks and vectors.
// Embeddings[i] belongs to Chunks[i].
type EmbeddingRecord struct {
	GameName     string      `json:"game_name"`
	ModelName    string      `json:"model_name"`
	EmbeddingDim int         `json:"embedding_dim"`
	Chunks       []Chunk     `json:"chunks"`
	Embeddings   [][]float32 `json:"embeddings"`
}

// NewEmbeddingRecord builds a record for a game, deriving the dimension from the vectors
func NewEmbeddingRecord(gameID, model string, chunks []Chunk, vectors [][]float32) *EmbeddingRecord {
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	return &EmbeddingRecord{
		GameName:     NormalizeGameID(gameID),
		ModelName:    model,
		EmbeddingDim: dim,
		Chunks:       chunks,
		Embeddings:   vectors,
	}
}

// Validate checks the chunk/vector lockstep and the uniform dimension
func (r *EmbeddingRecord) Validate() error {
	if len(r.Chunks) != len(r.Embeddings) {
		return fmt.Errorf("%w: %d chunks but %d embeddings", ErrInvalidInput, len(r.Chunks), len(r.Embeddings))
	}
	for i, v := range r.Embeddings {
		if len(v) != r.EmbeddingDim {
			return fmt.Errorf("%w: vector %d has %d values, want %d", ErrDimensionMismatch, i, len(v), r.EmbeddingDim)
		}
	}
	return nil
}
