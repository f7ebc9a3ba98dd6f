package chunker

import (
	"strings"

	"github.com/mkarls/repoquery/internal/config"
	"github.com/mkarls/repoquery/pkg/types"
)

// Chunker splits file content into labeled spans for embedding.
type Chunker struct {
	chunkSize int
	overlap   int
}

// New creates a Chunker with the given sizing configuration.
func New(cfg config.ChunkingConfig) *Chunker {
	return &Chunker{
		chunkSize: cfg.ChunkSize,
		overlap:   cfg.ChunkOverlap,
	}
}

// Chunk splits content into an ordered chunk sequence. Output is
// deterministic for identical input. Languages with a recognized grammar
// are chunked structurally; everything else falls back to fixed-size
// chunking. A structural result consisting of a single chunk more than
// twice the target size is discarded in favor of the fixed-size fallback.
func (c *Chunker) Chunk(content, filePath string) []types.Chunk {
	if content == "" {
		return nil
	}

	rules, ok := rulesForFile(filePath)
	if !ok {
		return c.chunkBySize(content, filePath)
	}

	chunks := c.chunkStructural(content, filePath, rules)
	if len(chunks) == 1 && len(chunks[0].Content) > c.chunkSize*2 {
		return c.chunkBySize(content, filePath)
	}
	return chunks
}

// chunkStructural emits one chunk per top-level definition plus block
// chunks for interstitial code. The chunks are non-overlapping, in file
// order, and together cover every line of the file exactly once.
//
// A definition chunk greedily consumes all subsequent lines that are blank
// or nested deeper than the definition line, stopping at the first
// non-blank line at or above the definition's own level. A definition with
// no body yields a one-line chunk.
func (c *Chunker) chunkStructural(content, filePath string, rules languageRules) []types.Chunk {
	lines := strings.Split(content, "\n")

	var chunks []types.Chunk
	var block []string
	blockStart := 1

	i := 0
	for i < len(lines) {
		line := lines[i]

		kind, indent, matched := rules.matchDefinition(line)
		if !matched {
			block = append(block, line)
			i++
			continue
		}

		// Close the pending interstitial block before the definition.
		if len(block) > 0 {
			chunks = append(chunks, types.Chunk{
				FilePath:  filePath,
				Content:   strings.Join(block, "\n"),
				StartLine: blockStart,
				EndLine:   blockStart + len(block) - 1,
				ChunkType: types.ChunkBlock,
			})
			block = nil
		}

		defStart := i + 1
		body := []string{line}
		i++

		if rules.braceBased {
			depth := braceDelta(line)
			for i < len(lines) && depth > 0 {
				body = append(body, lines[i])
				depth += braceDelta(lines[i])
				i++
			}
		} else {
			for i < len(lines) {
				next := lines[i]
				if strings.TrimSpace(next) == "" {
					body = append(body, next)
					i++
					continue
				}
				if indentOf(next) <= indent {
					break
				}
				body = append(body, next)
				i++
			}
		}

		chunks = append(chunks, types.Chunk{
			FilePath:  filePath,
			Content:   strings.Join(body, "\n"),
			StartLine: defStart,
			EndLine:   defStart + len(body) - 1,
			ChunkType: kind,
		})
		blockStart = i + 1
	}

	if len(block) > 0 {
		chunks = append(chunks, types.Chunk{
			FilePath:  filePath,
			Content:   strings.Join(block, "\n"),
			StartLine: blockStart,
			EndLine:   blockStart + len(block) - 1,
			ChunkType: types.ChunkBlock,
		})
	}

	return chunks
}

// chunkBySize accumulates lines until the character count reaches the
// target size, emits a block chunk, then seeds the next chunk with a
// trailing window of lines up to the overlap budget.
//
// Overlap chunks deliberately share a line-range suffix/prefix with their
// neighbor. This is the one exception to the exactly-once coverage
// invariant of structural chunking; Retriever.FileContext de-overlaps when
// reconstructing whole files.
func (c *Chunker) chunkBySize(content, filePath string) []types.Chunk {
	lines := strings.Split(content, "\n")

	var chunks []types.Chunk
	var cur []string
	chars := 0
	start := 1

	for i, line := range lines {
		cur = append(cur, line)
		chars += len(line) + 1 // +1 for the newline

		if chars < c.chunkSize {
			continue
		}

		chunks = append(chunks, types.Chunk{
			FilePath:  filePath,
			Content:   strings.Join(cur, "\n"),
			StartLine: start,
			EndLine:   i + 1,
			ChunkType: types.ChunkBlock,
		})

		// Seed the next chunk with trailing lines within the overlap
		// budget, preserving line order.
		var keep []string
		kept := 0
		for j := len(cur) - 1; j >= 0; j-- {
			if kept+len(cur[j]) > c.overlap {
				break
			}
			keep = append([]string{cur[j]}, keep...)
			kept += len(cur[j]) + 1
		}
		cur = keep
		chars = kept
		start = (i + 1) - len(keep) + 1
	}

	if len(cur) > 0 {
		chunks = append(chunks, types.Chunk{
			FilePath:  filePath,
			Content:   strings.Join(cur, "\n"),
			StartLine: start,
			EndLine:   len(lines),
			ChunkType: types.ChunkBlock,
		})
	}

	return chunks
}

// indentOf returns the leading-whitespace width of a line.
func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// braceDelta counts opening minus closing braces on a line. It does not
// understand strings or comments; boundary drift from brace literals is
// tolerated the same way the indentation rules tolerate unusual layout.
func braceDelta(line string) int {
	return strings.Count(line, "{") - strings.Count(line, "}")
}
