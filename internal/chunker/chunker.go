// Package chunker splits guide text into paragraph-aligned chunks.
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
	"github.com/custodia-labs/gamefriend-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Chunker = (*Chunker)(nil)

// paragraphSeparator delimits paragraphs in guide text and joins them in chunks
const paragraphSeparator = "\n\n"

// SizePolicy selects how chunk size is measured.
type SizePolicy string

const (
	// SizeChars measures size in characters (runes)
	SizeChars SizePolicy = "chars"

	// SizeTokens measures size in approximate model tokens
	SizeTokens SizePolicy = "tokens"
)

// IsValid returns true if this is a known policy
func (p SizePolicy) IsValid() bool {
	return p == SizeChars || p == SizeTokens
}

// Measure returns the size of text under the policy.
func (p SizePolicy) Measure(text string) int {
	if p == SizeTokens {
		return CountTokens(text)
	}
	return utf8.RuneCountInString(text)
}

// separatorSize is the cost of joining two paragraphs.
func (p SizePolicy) separatorSize() int {
	if p == SizeTokens {
		return 0
	}
	return utf8.RuneCountInString(paragraphSeparator)
}

// CountTokens approximates a model token count by whitespace-delimited words.
func CountTokens(text string) int {
	return len(strings.Fields(text))
}

// ChunkConfig configures the chunker behavior.
type ChunkConfig struct {
	// ChunkSize is the maximum chunk size, measured by Policy
	ChunkSize int

	// ChunkOverlap is the number of trailing paragraphs of a closed chunk
	// that open the next one
	ChunkOverlap int

	// Policy selects characters or tokens
	Policy SizePolicy
}

// Defaults for ChunkConfig
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 2
)

// DefaultChunkConfig returns sensible defaults.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
		Policy:       SizeChars,
	}
}

// Validate rejects configurations that cannot produce bounded chunks.
func (c ChunkConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidInput, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk overlap must be in [0, %d), got %d", domain.ErrInvalidInput, c.ChunkSize, c.ChunkOverlap)
	}
	if !c.Policy.IsValid() {
		return fmt.Errorf("%w: unknown size policy %q", domain.ErrInvalidInput, c.Policy)
	}
	return nil
}

// Chunker accumulates blank-line delimited paragraphs into chunks.
type Chunker struct {
	config ChunkConfig
}

// NewChunker creates a new chunker with the given config.
// An empty policy defaults to characters.
func NewChunker(config ChunkConfig) *Chunker {
	if config.Policy == "" {
		config.Policy = SizeChars
	}
	return &Chunker{config: config}
}

// Name returns the chunker name.
func (c *Chunker) Name() string {
	return "paragraph-chunker"
}

// Config returns the active configuration.
func (c *Chunker) Config() ChunkConfig {
	return c.config
}

// paragraph is a trimmed paragraph with its byte span in the source text
type paragraph struct {
	text  string
	start int
	end   int
	size  int
}

// Chunk splits text into chunks.
//
// Paragraphs are added greedily until the next one would push the chunk past
// ChunkSize. The closed chunk's last ChunkOverlap paragraphs then open the
// next chunk, dropped from the front as needed so the new chunk still fits
// once the incoming paragraph is added. A single paragraph larger than
// ChunkSize becomes a chunk of its own.
func (c *Chunker) Chunk(text, source string) []domain.Chunk {
	paras := c.split(text)
	if len(paras) == 0 {
		return nil
	}

	var chunks []domain.Chunk
	var current []int

	for i, p := range paras {
		if len(current) > 0 && c.sizeOf(paras, current)+c.config.Policy.separatorSize()+p.size > c.config.ChunkSize {
			chunks = append(chunks, c.emit(paras, current, source))
			current = c.carry(paras, current, p)
		}
		current = append(current, i)
	}

	return append(chunks, c.emit(paras, current, source))
}

// carry returns the overlap that opens the chunk after current.
func (c *Chunker) carry(paras []paragraph, current []int, next paragraph) []int {
	keep := c.config.ChunkOverlap
	if keep > len(current)-1 {
		keep = len(current) - 1
	}
	if keep <= 0 {
		return nil
	}

	carried := append([]int(nil), current[len(current)-keep:]...)
	for len(carried) > 0 && c.sizeOf(paras, carried)+c.config.Policy.separatorSize()+next.size > c.config.ChunkSize {
		carried = carried[1:]
	}
	return carried
}

func (c *Chunker) sizeOf(paras []paragraph, idx []int) int {
	if len(idx) == 0 {
		return 0
	}
	size := c.config.Policy.separatorSize() * (len(idx) - 1)
	for _, i := range idx {
		size += paras[i].size
	}
	return size
}

func (c *Chunker) emit(paras []paragraph, idx []int, source string) domain.Chunk {
	texts := make([]string, len(idx))
	for n, i := range idx {
		texts[n] = paras[i].text
	}

	first, last := idx[0], idx[len(idx)-1]
	return domain.Chunk{
		Text:       strings.Join(texts, paragraphSeparator),
		Source:     source,
		StartIdx:   paras[first].start,
		EndIdx:     paras[last].end,
		Paragraphs: [2]int{first, last + 1},
	}
}

// split returns the non-empty trimmed paragraphs of text with their offsets.
func (c *Chunker) split(text string) []paragraph {
	var paras []paragraph
	offset := 0

	for _, segment := range strings.Split(text, paragraphSeparator) {
		trimmed := strings.TrimSpace(segment)
		if trimmed != "" {
			start := offset + strings.Index(segment, trimmed)
			paras = append(paras, paragraph{
				text:  trimmed,
				start: start,
				end:   start + len(trimmed),
				size:  c.config.Policy.Measure(trimmed),
			})
		}
		offset += len(segment) + len(paragraphSeparator)
	}

	return paras
}
