package types

import (
	"crypto/sha256"
	"errors"
	"fmt"
)

// ChunkType classifies the structural origin of a chunk.
type ChunkType string

const (
	// ChunkFunction is a chunk covering a single function definition.
	ChunkFunction ChunkType = "function"
	// ChunkClass is a chunk covering a class or type definition.
	ChunkClass ChunkType = "class"
	// ChunkBlock is interstitial code or a fixed-size fallback chunk.
	ChunkBlock ChunkType = "block"
)

// TokensPerChar is the heuristic divisor for estimating tokens (chars/4).
const TokensPerChar = 4

// Chunk is the atomic retrieval unit: a contiguous span of a source file.
// Chunks are immutable once produced by the chunker.
type Chunk struct {
	FilePath  string    `json:"file_path"`
	Content   string    `json:"content"`
	StartLine int       `json:"start_line"` // 1-based, inclusive
	EndLine   int       `json:"end_line"`   // 1-based, inclusive
	ChunkType ChunkType `json:"chunk_type"`
}

// Validate checks the chunk's structural invariants.
func (c *Chunk) Validate() error {
	if c.FilePath == "" {
		return errors.New("chunk file path cannot be empty")
	}
	if c.StartLine <= 0 || c.EndLine <= 0 {
		return errors.New("line numbers must be positive")
	}
	if c.StartLine > c.EndLine {
		return errors.New("start line must be before or equal to end line")
	}
	switch c.ChunkType {
	case ChunkFunction, ChunkClass, ChunkBlock:
	default:
		return fmt.Errorf("invalid chunk type %q", c.ChunkType)
	}
	return nil
}

// TokenEstimate returns the approximate token count of the chunk content.
func (c *Chunk) TokenEstimate() int {
	return EstimateTokens(c.Content)
}

// ContentHash computes the SHA-256 hash of the chunk content.
func (c *Chunk) ContentHash() [32]byte {
	return sha256.Sum256([]byte(c.Content))
}

// Location formats the chunk position as path:start-end.
func (c *Chunk) Location() string {
	return fmt.Sprintf("%s:%d-%d", c.FilePath, c.StartLine, c.EndLine)
}

// EstimateTokens approximates the token count of a string (chars/4).
func EstimateTokens(text string) int {
	return len(text) / TokensPerChar
}
