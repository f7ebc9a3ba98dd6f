package vectorindex

import (
	"encoding"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mkarls/repoquery/pkg/types"
)

// Store file names inside a named store directory.
const (
	vectorsFile = "vectors.bin"
	chunksFile  = "chunks.json"
	annFile     = "index.ann"
)

// vectorsMagic identifies the vector file format.
var vectorsMagic = [4]byte{'R', 'Q', 'V', '1'}

// Persist writes the index (vectors, chunk metadata, and the search
// structure when it can serialize itself) under a named store directory,
// replacing any prior content. The store is assembled in a temporary
// directory and swapped in with a rename, so a reader never observes a
// partially written store.
func (idx *Index) Persist(name string) error {
	if err := validateStoreName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(idx.storageRoot, 0o755); err != nil {
		return fmt.Errorf("create storage root: %w", err)
	}

	tmp, err := os.MkdirTemp(idx.storageRoot, "."+name+".tmp-")
	if err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	var g errgroup.Group
	g.Go(func() error {
		return writeVectors(filepath.Join(tmp, vectorsFile), idx.vectors, idx.dim)
	})
	g.Go(func() error {
		return writeChunks(filepath.Join(tmp, chunksFile), idx.chunks)
	})
	g.Go(func() error {
		marshaler, ok := idx.backend.(encoding.BinaryMarshaler)
		if !ok {
			return nil
		}
		data, err := marshaler.MarshalBinary()
		if err != nil {
			return fmt.Errorf("serialize search structure: %w", err)
		}
		return os.WriteFile(filepath.Join(tmp, annFile), data, 0o644)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	final := filepath.Join(idx.storageRoot, name)
	if err := os.RemoveAll(final); err != nil {
		return fmt.Errorf("remove previous store: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("install store: %w", err)
	}

	idx.logger.Info("index persisted",
		zap.String("name", name), zap.Int("chunks", len(idx.chunks)))
	return nil
}

// Load reads a named store into this (empty) Index. It returns false with
// a nil error when no store exists under the name; corrupt or partial
// store contents return an error wrapping types.ErrCorruptStore. The
// search structure is restored from its serialized form when possible and
// reconstructed from the vectors otherwise.
func (idx *Index) Load(name string) (bool, error) {
	if err := validateStoreName(name); err != nil {
		return false, err
	}

	dir := filepath.Join(idx.storageRoot, name)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat store %s: %w", name, err)
	}

	var (
		vectors [][]float32
		dim     int
		chunks  []types.Chunk
		annData []byte
	)

	var g errgroup.Group
	g.Go(func() error {
		var err error
		vectors, dim, err = readVectors(filepath.Join(dir, vectorsFile))
		return err
	})
	g.Go(func() error {
		var err error
		chunks, err = readChunks(filepath.Join(dir, chunksFile))
		return err
	})
	g.Go(func() error {
		data, err := os.ReadFile(filepath.Join(dir, annFile))
		if err != nil {
			// The search structure file is optional.
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("read search structure: %w", err)
		}
		annData = data
		return nil
	})
	if err := g.Wait(); err != nil {
		return false, err
	}

	if len(vectors) != len(chunks) {
		return false, fmt.Errorf("%w: %d vectors for %d chunks",
			types.ErrCorruptStore, len(vectors), len(chunks))
	}

	if err := idx.restoreBackend(vectors, annData); err != nil {
		return false, err
	}

	idx.chunks = chunks
	idx.vectors = vectors
	idx.dim = dim

	idx.logger.Info("index loaded",
		zap.String("name", name), zap.Int("chunks", len(chunks)))
	return true, nil
}

// restoreBackend rebuilds the search structure, preferring the serialized
// form and falling back to a fresh build over the vectors.
func (idx *Index) restoreBackend(vectors [][]float32, annData []byte) error {
	if idx.backend == nil || len(vectors) == 0 {
		return nil
	}
	if annData != nil {
		if unmarshaler, ok := idx.backend.(encoding.BinaryUnmarshaler); ok {
			if err := unmarshaler.UnmarshalBinary(annData); err == nil {
				return nil
			}
			// Incompatible stored structure: rebuild below.
		}
	}
	if err := idx.backend.Build(vectors); err != nil {
		return fmt.Errorf("reconstruct search structure: %w", err)
	}
	return nil
}

// writeVectors writes the vector matrix: a magic header, dimension and row
// count, then row-major little-endian float32 values in chunk order.
func writeVectors(path string, vectors [][]float32, dim int) error {
	buf := make([]byte, 0, len(vectorsMagic)+8+len(vectors)*dim*4)
	buf = append(buf, vectorsMagic[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dim))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(vectors)))
	for _, row := range vectors {
		if len(row) != dim {
			return fmt.Errorf("vector row has dimension %d, want %d", len(row), dim)
		}
		for _, v := range row {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	return os.WriteFile(path, buf, 0o644)
}

// readVectors reads the vector matrix written by writeVectors.
func readVectors(path string) ([][]float32, int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, fmt.Errorf("%w: missing %s", types.ErrCorruptStore, vectorsFile)
		}
		return nil, 0, fmt.Errorf("read vectors: %w", err)
	}

	header := len(vectorsMagic) + 8
	if len(raw) < header || [4]byte(raw[:4]) != vectorsMagic {
		return nil, 0, fmt.Errorf("%w: bad vector file header", types.ErrCorruptStore)
	}
	dim := int(binary.LittleEndian.Uint32(raw[4:8]))
	count := int(binary.LittleEndian.Uint32(raw[8:12]))

	body := raw[header:]
	if len(body) != count*dim*4 {
		return nil, 0, fmt.Errorf("%w: vector file has %d payload bytes, want %d",
			types.ErrCorruptStore, len(body), count*dim*4)
	}

	vectors := make([][]float32, count)
	for i := 0; i < count; i++ {
		row := make([]float32, dim)
		for j := 0; j < dim; j++ {
			bits := binary.LittleEndian.Uint32(body[(i*dim+j)*4:])
			row[j] = math.Float32frombits(bits)
		}
		vectors[i] = row
	}
	return vectors, dim, nil
}

// writeChunks writes chunk metadata as a JSON array in index order.
func writeChunks(path string, chunks []types.Chunk) error {
	if chunks == nil {
		chunks = []types.Chunk{}
	}
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return fmt.Errorf("encode chunks: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// readChunks reads the metadata written by writeChunks.
func readChunks(path string) ([]types.Chunk, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: missing %s", types.ErrCorruptStore, chunksFile)
		}
		return nil, fmt.Errorf("read chunks: %w", err)
	}
	var chunks []types.Chunk
	if err := json.Unmarshal(raw, &chunks); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrCorruptStore, err)
	}
	for i := range chunks {
		if err := chunks[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: chunk %d: %v", types.ErrCorruptStore, i, err)
		}
	}
	return chunks, nil
}

// validateStoreName rejects names that would escape the storage root.
func validateStoreName(name string) error {
	if name == "" {
		return errors.New("store name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid store name %q", name)
	}
	return nil
}
