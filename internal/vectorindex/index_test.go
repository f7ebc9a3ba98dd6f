package vectorindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarls/repoquery/internal/ann"
	"github.com/mkarls/repoquery/internal/embedder"
	"github.com/mkarls/repoquery/pkg/types"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	return New(embedder.NewLocalEmbedder(nil), ann.NewBruteForce(), t.TempDir(), nil)
}

func testChunks() []types.Chunk {
	return []types.Chunk{
		{
			FilePath:  "auth.py",
			Content:   "def login(user, password):\n    return check(user, password)",
			StartLine: 1,
			EndLine:   2,
			ChunkType: types.ChunkFunction,
		},
		{
			FilePath:  "db.py",
			Content:   "def connect(dsn):\n    return Pool(dsn)",
			StartLine: 1,
			EndLine:   2,
			ChunkType: types.ChunkFunction,
		},
		{
			FilePath:  "models.py",
			Content:   "class User:\n    name: str",
			StartLine: 1,
			EndLine:   2,
			ChunkType: types.ChunkClass,
		},
	}
}

func TestBuildAndSearch(t *testing.T) {
	idx := newTestIndex(t)
	chunks := testChunks()
	require.NoError(t, idx.Build(context.Background(), chunks))

	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, embedder.LocalDimension, idx.Dimension())

	// A query identical to a chunk's embedding text scores 1 with the
	// deterministic hash embedder.
	query := embeddingText(chunks[1])
	results, err := idx.Search(context.Background(), query, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "db.py", results[0].Chunk.FilePath)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestSearchClampsK(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Build(context.Background(), testChunks()))

	results, err := idx.Search(context.Background(), "anything", 50)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestSearchEmptyIndex(t *testing.T) {
	t.Run("before build", func(t *testing.T) {
		idx := newTestIndex(t)
		_, err := idx.Search(context.Background(), "query", 5)
		assert.ErrorIs(t, err, types.ErrIndexEmpty)
	})

	t.Run("built from zero chunks", func(t *testing.T) {
		idx := newTestIndex(t)
		require.NoError(t, idx.Build(context.Background(), nil))
		_, err := idx.Search(context.Background(), "query", 5)
		assert.ErrorIs(t, err, types.ErrIndexEmpty)
	})
}

func TestSearchInvalidK(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Build(context.Background(), testChunks()))

	_, err := idx.Search(context.Background(), "query", 0)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = idx.Search(context.Background(), "query", -1)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestBuildWithoutEmbedder(t *testing.T) {
	idx := New(nil, ann.NewBruteForce(), t.TempDir(), nil)
	err := idx.Build(context.Background(), testChunks())
	assert.ErrorIs(t, err, types.ErrEmbeddingUnavailable)
}

func TestBuildBatched(t *testing.T) {
	idx := newTestIndex(t)
	idx.SetBatchSize(2)

	require.NoError(t, idx.Build(context.Background(), testChunks()))
	assert.Equal(t, 3, idx.Len(), "batching must not drop chunks")
}
