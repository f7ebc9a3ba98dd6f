package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarls/repoquery/internal/config"
	"github.com/mkarls/repoquery/pkg/types"
)

func defaultChunker() *Chunker {
	return New(config.ChunkingConfig{ChunkSize: 1500, ChunkOverlap: 200})
}

// pythonFixture is a 50-line file exercising every structural case:
// leading block, top-level function, interstitial block, class with
// methods, and a trailing block.
func pythonFixture() []string {
	return []string{
		"import os",                      // 1
		"import sys",                     // 2
		"",                               // 3
		"# helpers",                      // 4
		"def compute(values):",           // 5
		"    total = 0",                  // 6
		"    for v in values:",           // 7
		"        total += v",             // 8
		"",                               // 9
		"    if total < 0:",              // 10
		"        raise ValueError",       // 11
		"    # accumulate",               // 12
		"    result = []",                // 13
		"    for v in values:",           // 14
		"        result.append(v)",       // 15
		"",                               // 16
		"    if not result:",             // 17
		"        return 0",               // 18
		"    return total",               // 19
		"",                               // 20
		"THRESHOLD = 10",                 // 21
		"LIMIT = 99",                     // 22
		"",                               // 23
		"# widget types",                 // 24
		"class Widget:",                  // 25
		"    def __init__(self, size):",  // 26
		"        self.size = size",       // 27
		"",                               // 28
		"    def area(self):",            // 29
		"        return self.size ** 2",  // 30
		"",                               // 31
		"    def perimeter(self):",       // 32
		"        return 4 * self.size",   // 33
		"",                               // 34
		"    def scale(self, factor):",   // 35
		"        self.size *= factor",    // 36
		"        return self",            // 37
		"",                               // 38
		"    def name(self):",            // 39
		"        return 'widget'",        // 40
		"",                               // 41
		"    def describe(self):",        // 42
		"        label = self.name()",    // 43
		"        return label",           // 44
		"    SIDES = 4",                  // 45
		"if __name__ == '__main__':",     // 46
		"    w = Widget(2)",              // 47
		"    print(w.area())",            // 48
		"",                               // 49
		"# end",                          // 50
	}
}

func TestChunkPythonStructural(t *testing.T) {
	lines := pythonFixture()
	require.Len(t, lines, 50)

	chunks := defaultChunker().Chunk(strings.Join(lines, "\n"), "app.py")
	require.Len(t, chunks, 5)

	expected := []struct {
		start, end int
		kind       types.ChunkType
	}{
		{1, 4, types.ChunkBlock},
		{5, 20, types.ChunkFunction},
		{21, 24, types.ChunkBlock},
		{25, 45, types.ChunkClass},
		{46, 50, types.ChunkBlock},
	}
	for i, want := range expected {
		assert.Equal(t, want.start, chunks[i].StartLine, "chunk %d start", i)
		assert.Equal(t, want.end, chunks[i].EndLine, "chunk %d end", i)
		assert.Equal(t, want.kind, chunks[i].ChunkType, "chunk %d type", i)
		assert.Equal(t, "app.py", chunks[i].FilePath)
		assert.Equal(t,
			strings.Join(lines[want.start-1:want.end], "\n"),
			chunks[i].Content, "chunk %d content", i)
		require.NoError(t, chunks[i].Validate())
	}

	// Structural chunks cover the file exactly once, in order.
	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, chunks[i-1].EndLine+1, chunks[i].StartLine)
	}
}

func TestChunkEmptyContent(t *testing.T) {
	assert.Nil(t, defaultChunker().Chunk("", "app.py"))
}

func TestChunkOneLineDefinition(t *testing.T) {
	chunks := defaultChunker().Chunk("def f(): pass\nX = 1", "one.py")
	require.Len(t, chunks, 2)

	assert.Equal(t, types.ChunkFunction, chunks[0].ChunkType)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 1, chunks[0].EndLine)

	assert.Equal(t, types.ChunkBlock, chunks[1].ChunkType)
	assert.Equal(t, 2, chunks[1].StartLine)
	assert.Equal(t, 2, chunks[1].EndLine)
}

func TestChunkGoBraceBased(t *testing.T) {
	content := strings.Join([]string{
		"package main",            // 1
		"",                        // 2
		"func Add(a, b int) int {", // 3
		"\treturn a + b",          // 4
		"}",                       // 5
		"",                        // 6
		"type Point struct {",     // 7
		"\tX int",                 // 8
		"}",                       // 9
	}, "\n")

	chunks := defaultChunker().Chunk(content, "main.go")
	require.Len(t, chunks, 4)

	assert.Equal(t, types.ChunkBlock, chunks[0].ChunkType)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 2, chunks[0].EndLine)

	assert.Equal(t, types.ChunkFunction, chunks[1].ChunkType)
	assert.Equal(t, 3, chunks[1].StartLine)
	assert.Equal(t, 5, chunks[1].EndLine)

	assert.Equal(t, types.ChunkBlock, chunks[2].ChunkType)
	assert.Equal(t, 6, chunks[2].StartLine)
	assert.Equal(t, 6, chunks[2].EndLine)

	assert.Equal(t, types.ChunkClass, chunks[3].ChunkType)
	assert.Equal(t, 7, chunks[3].StartLine)
	assert.Equal(t, 9, chunks[3].EndLine)
}

func TestChunkBraceIgnoresNestedDefinitions(t *testing.T) {
	content := strings.Join([]string{
		"func Outer() {",
		"\tfunc() {",
		"\t}()",
		"}",
	}, "\n")

	chunks := defaultChunker().Chunk(content, "x.go")
	require.Len(t, chunks, 1)
	assert.Equal(t, types.ChunkFunction, chunks[0].ChunkType)
	assert.Equal(t, 4, chunks[0].EndLine)
}

func TestChunkBySizeFallback(t *testing.T) {
	c := New(config.ChunkingConfig{ChunkSize: 10, ChunkOverlap: 5})
	content := "aaaa\nbbbb\ncccc\ndddd"

	chunks := c.Chunk(content, "notes.txt")
	require.Len(t, chunks, 4)

	expected := []struct{ start, end int }{
		{1, 2}, {2, 3}, {3, 4}, {4, 4},
	}
	for i, want := range expected {
		assert.Equal(t, want.start, chunks[i].StartLine, "chunk %d start", i)
		assert.Equal(t, want.end, chunks[i].EndLine, "chunk %d end", i)
		assert.Equal(t, types.ChunkBlock, chunks[i].ChunkType)
	}

	// Adjacent fallback chunks share the overlap window.
	assert.Equal(t, "aaaa\nbbbb", chunks[0].Content)
	assert.Equal(t, "bbbb\ncccc", chunks[1].Content)
}

func TestChunkBySizeNoOverlapFit(t *testing.T) {
	// Lines longer than the overlap budget cannot be carried over, so the
	// chunks are disjoint.
	c := New(config.ChunkingConfig{ChunkSize: 20, ChunkOverlap: 5})
	lines := []string{
		"0123456789", "0123456789", "0123456789", "0123456789", "0123456789",
	}

	chunks := c.Chunk(strings.Join(lines, "\n"), "data.c")
	require.Len(t, chunks, 3)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 2, chunks[0].EndLine)
	assert.Equal(t, 3, chunks[1].StartLine)
	assert.Equal(t, 4, chunks[1].EndLine)
	assert.Equal(t, 5, chunks[2].StartLine)
	assert.Equal(t, 5, chunks[2].EndLine)
}

func TestChunkOversizedStructuralDemoted(t *testing.T) {
	// A file whose structural result is one giant chunk falls back to
	// fixed-size chunking.
	c := New(config.ChunkingConfig{ChunkSize: 20, ChunkOverlap: 5})
	lines := []string{
		"x1 = 1000", "x2 = 2000", "x3 = 3000", "x4 = 4000", "x5 = 5000", "x6 = 6000",
	}

	chunks := c.Chunk(strings.Join(lines, "\n"), "consts.py")
	require.Greater(t, len(chunks), 1, "oversized single chunk must be re-split")
	for _, chunk := range chunks {
		assert.Equal(t, types.ChunkBlock, chunk.ChunkType)
	}
}

func TestChunkDeterministic(t *testing.T) {
	content := strings.Join(pythonFixture(), "\n")
	c := defaultChunker()
	assert.Equal(t, c.Chunk(content, "app.py"), c.Chunk(content, "app.py"))
}

func TestRulesForFile(t *testing.T) {
	for _, ext := range []string{".py", ".go", ".js", ".jsx", ".ts", ".tsx", ".java", ".rs"} {
		_, ok := rulesForFile("src/file" + ext)
		assert.True(t, ok, "expected structural rules for %s", ext)
	}
	for _, name := range []string{"main.c", "main.cpp", "defs.h", "notes.txt", "Makefile"} {
		_, ok := rulesForFile(name)
		assert.False(t, ok, "expected fallback for %s", name)
	}
}

func TestMatchDefinitionIndentedBraceLanguage(t *testing.T) {
	_, _, matched := goRules.matchDefinition("\tfunc nested() {")
	assert.False(t, matched, "brace languages only match top-level definitions")

	kind, indent, matched := pythonRules.matchDefinition("    def method(self):")
	assert.True(t, matched)
	assert.Equal(t, types.ChunkFunction, kind)
	assert.Equal(t, 4, indent)
}
