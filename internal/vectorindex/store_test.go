package vectorindex

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarls/repoquery/internal/ann"
	"github.com/mkarls/repoquery/internal/embedder"
	"github.com/mkarls/repoquery/pkg/types"
)

func TestPersistLoadRoundtrip(t *testing.T) {
	root := t.TempDir()
	chunks := testChunks()

	idx := New(embedder.NewLocalEmbedder(nil), ann.NewBruteForce(), root, nil)
	require.NoError(t, idx.Build(context.Background(), chunks))
	require.NoError(t, idx.Persist("myrepo"))

	storeDir := filepath.Join(root, "myrepo")
	assert.FileExists(t, filepath.Join(storeDir, "vectors.bin"))
	assert.FileExists(t, filepath.Join(storeDir, "chunks.json"))

	loaded := New(embedder.NewLocalEmbedder(nil), ann.NewBruteForce(), root, nil)
	found, err := loaded.Load("myrepo")
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, idx.Len(), loaded.Len())
	assert.Equal(t, idx.Dimension(), loaded.Dimension())
	assert.Equal(t, chunks, loaded.Chunks())

	// Search behaves identically after the roundtrip.
	query := embeddingText(chunks[0])
	before, err := idx.Search(context.Background(), query, 2)
	require.NoError(t, err)
	after, err := loaded.Search(context.Background(), query, 2)
	require.NoError(t, err)
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].Chunk, after[i].Chunk)
		assert.InDelta(t, before[i].Score, after[i].Score, 1e-6)
	}
}

func TestPersistReplacesExistingStore(t *testing.T) {
	root := t.TempDir()

	idx := New(embedder.NewLocalEmbedder(nil), ann.NewBruteForce(), root, nil)
	require.NoError(t, idx.Build(context.Background(), testChunks()))
	require.NoError(t, idx.Persist("repo"))

	smaller := New(embedder.NewLocalEmbedder(nil), ann.NewBruteForce(), root, nil)
	require.NoError(t, smaller.Build(context.Background(), testChunks()[:1]))
	require.NoError(t, smaller.Persist("repo"))

	loaded := New(embedder.NewLocalEmbedder(nil), ann.NewBruteForce(), root, nil)
	found, err := loaded.Load("repo")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, loaded.Len())
}

func TestLoadMissingStore(t *testing.T) {
	idx := newTestIndex(t)
	found, err := idx.Load("never-created")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLoadCorruptStore(t *testing.T) {
	t.Run("bad vector header", func(t *testing.T) {
		root := t.TempDir()
		dir := filepath.Join(root, "broken")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "vectors.bin"), []byte("garbage"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "chunks.json"), []byte("[]"), 0o644))

		idx := New(embedder.NewLocalEmbedder(nil), ann.NewBruteForce(), root, nil)
		_, err := idx.Load("broken")
		assert.ErrorIs(t, err, types.ErrCorruptStore)
	})

	t.Run("missing chunks file", func(t *testing.T) {
		root := t.TempDir()
		idx := New(embedder.NewLocalEmbedder(nil), ann.NewBruteForce(), root, nil)
		require.NoError(t, idx.Build(context.Background(), testChunks()))
		require.NoError(t, idx.Persist("partial"))
		require.NoError(t, os.Remove(filepath.Join(root, "partial", "chunks.json")))

		loaded := New(embedder.NewLocalEmbedder(nil), ann.NewBruteForce(), root, nil)
		_, err := loaded.Load("partial")
		assert.ErrorIs(t, err, types.ErrCorruptStore)
	})

	t.Run("vector and chunk counts disagree", func(t *testing.T) {
		root := t.TempDir()
		idx := New(embedder.NewLocalEmbedder(nil), ann.NewBruteForce(), root, nil)
		require.NoError(t, idx.Build(context.Background(), testChunks()))
		require.NoError(t, idx.Persist("skewed"))

		// Drop one chunk from the metadata while leaving vectors intact.
		require.NoError(t, writeChunks(filepath.Join(root, "skewed", "chunks.json"), testChunks()[:2]))

		loaded := New(embedder.NewLocalEmbedder(nil), ann.NewBruteForce(), root, nil)
		_, err := loaded.Load("skewed")
		assert.ErrorIs(t, err, types.ErrCorruptStore)
	})
}

func TestStoreNameValidation(t *testing.T) {
	idx := newTestIndex(t)

	for _, name := range []string{"", ".", "..", "a/b", `a\b`} {
		assert.Error(t, idx.Persist(name), "name %q", name)
		_, err := idx.Load(name)
		assert.Error(t, err, "name %q", name)
	}
}

func TestPersistEmptyIndex(t *testing.T) {
	root := t.TempDir()
	idx := New(embedder.NewLocalEmbedder(nil), ann.NewBruteForce(), root, nil)
	require.NoError(t, idx.Build(context.Background(), nil))
	require.NoError(t, idx.Persist("empty"))

	loaded := New(embedder.NewLocalEmbedder(nil), ann.NewBruteForce(), root, nil)
	found, err := loaded.Load("empty")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 0, loaded.Len())
}
