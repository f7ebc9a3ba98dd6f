package vectorindex

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mkarls/repoquery/internal/ann"
	"github.com/mkarls/repoquery/internal/embedder"
	"github.com/mkarls/repoquery/pkg/types"
)

// DefaultBatchSize is the number of chunk texts embedded per backend call.
const DefaultBatchSize = 50

// Index owns an ordered collection of (chunk, vector) pairs and the search
// structure built over the vectors. Population is all-or-nothing through
// Build or Load; mutation after that is not supported, and re-indexing
// replaces the whole store under a given name.
type Index struct {
	embedder    embedder.Embedder
	backend     ann.Backend
	storageRoot string
	batchSize   int
	logger      *zap.Logger

	chunks  []types.Chunk
	vectors [][]float32
	dim     int
}

// New creates an empty Index. The embedder and backend are the pluggable
// collaborators; storageRoot is the directory holding named stores. A nil
// backend degrades search to a brute-force scan over the stored vectors.
func New(emb embedder.Embedder, backend ann.Backend, storageRoot string, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{
		embedder:    emb,
		backend:     backend,
		storageRoot: storageRoot,
		batchSize:   DefaultBatchSize,
		logger:      logger,
	}
}

// SetBatchSize overrides the embedding batch size.
func (idx *Index) SetBatchSize(n int) {
	if n > 0 {
		idx.batchSize = n
	}
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	return len(idx.chunks)
}

// Dimension returns the vector dimension, or 0 before population.
func (idx *Index) Dimension() int {
	return idx.dim
}

// Chunks exposes the indexed chunk sequence in index order. The returned
// slice is owned by the Index; callers must treat it as read-only.
func (idx *Index) Chunks() []types.Chunk {
	return idx.chunks
}

// Build embeds all chunks in batches and constructs the search structure.
// Building from zero chunks succeeds and leaves an empty index. Any
// embedding failure aborts the whole build: no partial index remains.
func (idx *Index) Build(ctx context.Context, chunks []types.Chunk) error {
	if idx.embedder == nil {
		return fmt.Errorf("%w: no embedder configured", types.ErrEmbeddingUnavailable)
	}

	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += idx.batchSize {
		end := start + idx.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		texts := make([]string, 0, end-start)
		for _, chunk := range chunks[start:end] {
			texts = append(texts, embeddingText(chunk))
		}

		batch, err := idx.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
		}
		vectors = append(vectors, batch...)
	}

	if idx.backend != nil && len(vectors) > 0 {
		if err := idx.backend.Build(vectors); err != nil {
			return fmt.Errorf("build search structure: %w", err)
		}
	}

	idx.chunks = chunks
	idx.vectors = vectors
	idx.dim = 0
	if len(vectors) > 0 {
		idx.dim = len(vectors[0])
	}

	idx.logger.Info("index built",
		zap.Int("chunks", len(chunks)), zap.Int("dimension", idx.dim))
	return nil
}

// Search embeds the query and returns the k most similar chunks sorted by
// descending score. It fails with types.ErrIndexEmpty before population
// and falls back to a brute-force scan when the search structure is
// unavailable.
func (idx *Index) Search(ctx context.Context, query string, k int) ([]types.ScoredChunk, error) {
	if len(idx.chunks) == 0 {
		return nil, types.ErrIndexEmpty
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", types.ErrInvalidArgument, k)
	}
	if idx.embedder == nil {
		return nil, fmt.Errorf("%w: no embedder configured", types.ErrEmbeddingUnavailable)
	}

	embedded, err := idx.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	queryVec := embedded[0]

	if k > len(idx.chunks) {
		k = len(idx.chunks)
	}

	var candidates []ann.Candidate
	if idx.backend != nil {
		candidates, err = idx.backend.Search(queryVec, k)
		if err != nil {
			// Degrade to the exact scan; ranking semantics are identical.
			idx.logger.Warn("search structure unavailable, scanning vectors", zap.Error(err))
			candidates = ann.TopK(idx.vectors, queryVec, k)
		}
	} else {
		candidates = ann.TopK(idx.vectors, queryVec, k)
	}

	results := make([]types.ScoredChunk, 0, len(candidates))
	for _, cand := range candidates {
		if cand.Index < 0 || cand.Index >= len(idx.chunks) {
			return nil, fmt.Errorf("search structure returned index %d outside [0,%d)",
				cand.Index, len(idx.chunks))
		}
		results = append(results, types.ScoredChunk{
			Chunk: idx.chunks[cand.Index],
			Score: cand.Score,
		})
	}
	return results, nil
}

// embeddingText is the text handed to the embedding backend for a chunk.
// The file path is included for better context.
func embeddingText(chunk types.Chunk) string {
	return fmt.Sprintf("File: %s\n%s", chunk.FilePath, chunk.Content)
}
