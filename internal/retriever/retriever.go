package retriever

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/mkarls/repoquery/internal/vectorindex"
	"github.com/mkarls/repoquery/pkg/types"
)

// NoResultsMessage is returned in place of formatted context when nothing
// relevant survives retrieval.
const NoResultsMessage = "No relevant code found in the repository."

// dedupPrefixLen is how many leading content bytes feed the duplicate
// fingerprint. Chunks sharing this prefix are treated as the same code.
const dedupPrefixLen = 500

// overfetchFactor widens the index search so deduplication and budget
// filtering still leave enough candidates to fill the requested count.
const overfetchFactor = 2

// Retriever turns a free-text query into a budgeted, deduplicated set of
// relevant chunks, and formats them for prompt assembly.
type Retriever struct {
	index  *vectorindex.Index
	logger *zap.Logger
}

// New creates a Retriever over a populated index.
func New(index *vectorindex.Index, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{index: index, logger: logger}
}

// Retrieve returns up to topK relevant chunks for the query, deduplicated
// and trimmed to the maxTokens budget. Results keep the index's descending
// score order. An unpopulated index fails with types.ErrIndexEmpty;
// non-positive topK or maxTokens fail with types.ErrInvalidArgument.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK, maxTokens int) ([]types.ScoredChunk, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", types.ErrInvalidArgument, topK)
	}
	if maxTokens <= 0 {
		return nil, fmt.Errorf("%w: maxTokens must be positive, got %d", types.ErrInvalidArgument, maxTokens)
	}

	// Fetch extra candidates so dedup and budget filtering can discard
	// some without starving the final result.
	candidates, err := r.index.Search(ctx, query, topK*overfetchFactor)
	if err != nil {
		return nil, err
	}

	seen := make(map[[32]byte]struct{}, len(candidates))
	budget := maxTokens
	results := make([]types.ScoredChunk, 0, topK)

	for _, cand := range candidates {
		if len(results) == topK {
			break
		}

		fp := fingerprint(cand.Chunk.Content)
		if _, dup := seen[fp]; dup {
			continue
		}

		cost := cand.Chunk.TokenEstimate()
		if cost > budget {
			// Skip only this chunk; a smaller one further down the
			// ranking may still fit.
			continue
		}

		seen[fp] = struct{}{}
		budget -= cost
		results = append(results, cand)
	}

	r.logger.Debug("retrieval complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("selected", len(results)),
		zap.Int("tokens_used", maxTokens-budget))
	return results, nil
}

// RetrieveAsContext runs Retrieve and renders the results as a single
// prompt-ready string: numbered sections with the chunk location and
// relevance score, each body fenced as a code block. When nothing
// survives retrieval it returns NoResultsMessage.
func (r *Retriever) RetrieveAsContext(ctx context.Context, query string, topK, maxTokens int) (string, error) {
	results, err := r.Retrieve(ctx, query, topK, maxTokens)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return NoResultsMessage, nil
	}

	var sb strings.Builder
	for i, res := range results {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "--- [%d] %s (relevance: %.2f) ---\n", i+1, res.Chunk.Location(), res.Score)
		sb.WriteString("```\n")
		sb.WriteString(res.Chunk.Content)
		if !strings.HasSuffix(res.Chunk.Content, "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString("```\n")
	}
	return sb.String(), nil
}

// FileContext reconstructs a file's indexed text from its chunks. Chunks
// are stitched in line order, with overlapping leading lines dropped so
// shared regions appear once. The second return is false when the index
// holds no chunks for the path.
func (r *Retriever) FileContext(filePath string) (string, bool) {
	var parts []types.Chunk
	for _, chunk := range r.index.Chunks() {
		if chunk.FilePath == filePath {
			parts = append(parts, chunk)
		}
	}
	if len(parts) == 0 {
		return "", false
	}

	sort.SliceStable(parts, func(i, j int) bool {
		return parts[i].StartLine < parts[j].StartLine
	})

	var sb strings.Builder
	lastEnd := 0
	for _, chunk := range parts {
		lines := strings.Split(chunk.Content, "\n")
		start := 0
		if chunk.StartLine <= lastEnd {
			// Drop the lines already emitted by the previous chunk.
			start = lastEnd - chunk.StartLine + 1
			if start >= len(lines) {
				continue
			}
		}
		for _, line := range lines[start:] {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		if chunk.EndLine > lastEnd {
			lastEnd = chunk.EndLine
		}
	}
	return sb.String(), true
}

// fingerprint hashes the leading dedupPrefixLen bytes of chunk content.
func fingerprint(content string) [32]byte {
	if len(content) > dedupPrefixLen {
		content = content[:dedupPrefixLen]
	}
	return sha256.Sum256([]byte(content))
}
