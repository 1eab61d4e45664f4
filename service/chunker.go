package service

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultMaxChunkTokens keeps each chunk comfortably under the embedding
// provider's input limit.
const DefaultMaxChunkTokens = 480

// Chunker splits full opinion text into fixed-size chunks at word
// boundaries. Chunks never overlap, so concatenating them in ordinal order
// reproduces the whitespace-normalized source text.
type Chunker struct {
	maxTokens int
	encoder   *tiktoken.Tiktoken
}

// NewChunker creates a chunker bounded by maxTokens per chunk. When the
// tiktoken encoder cannot initialize (offline build), a character
// approximation of four bytes per token is used instead.
func NewChunker(maxTokens int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxChunkTokens
	}
	encoder, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		encoder = nil
	}
	return &Chunker{maxTokens: maxTokens, encoder: encoder}
}

func (c *Chunker) countTokens(text string) int {
	if c.encoder != nil {
		return len(c.encoder.Encode(text, nil, nil))
	}
	return (len(text) + 3) / 4
}

// Split breaks text into chunks of at most maxTokens each. Words longer
// than the budget become their own chunk rather than being truncated.
func (c *Chunker) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentTokens := 0

	for _, word := range words {
		wordTokens := c.countTokens(word) + 1
		if len(current) > 0 && currentTokens+wordTokens > c.maxTokens {
			chunks = append(chunks, strings.Join(current, " "))
			current = current[:0]
			currentTokens = 0
		}
		current = append(current, word)
		currentTokens += wordTokens
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}
