package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkValidate(t *testing.T) {
	valid := Chunk{
		FilePath:  "pkg/util.py",
		Content:   "def helper():\n    pass",
		StartLine: 1,
		EndLine:   2,
		ChunkType: ChunkFunction,
	}

	t.Run("valid chunk", func(t *testing.T) {
		require.NoError(t, valid.Validate())
	})

	tests := []struct {
		name   string
		mutate func(*Chunk)
	}{
		{"empty file path", func(c *Chunk) { c.FilePath = "" }},
		{"zero start line", func(c *Chunk) { c.StartLine = 0 }},
		{"negative end line", func(c *Chunk) { c.EndLine = -1 }},
		{"start after end", func(c *Chunk) { c.StartLine = 5; c.EndLine = 3 }},
		{"unknown chunk type", func(c *Chunk) { c.ChunkType = "module" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 0, EstimateTokens("abc"))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 25, EstimateTokens(string(make([]byte, 100))))

	c := Chunk{Content: "12345678"}
	assert.Equal(t, 2, c.TokenEstimate())
}

func TestChunkLocation(t *testing.T) {
	c := Chunk{FilePath: "src/app.py", StartLine: 10, EndLine: 25}
	assert.Equal(t, "src/app.py:10-25", c.Location())
}

func TestContentHash(t *testing.T) {
	a := Chunk{Content: "x = 1"}
	b := Chunk{Content: "x = 1", FilePath: "other.py"}
	c := Chunk{Content: "x = 2"}

	assert.Equal(t, a.ContentHash(), b.ContentHash(), "hash depends only on content")
	assert.NotEqual(t, a.ContentHash(), c.ContentHash())
}
