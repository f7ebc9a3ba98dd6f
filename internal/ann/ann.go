package ann

import (
	"errors"
	"fmt"
	"sort"
)

// Common errors.
var (
	ErrNotBuilt          = errors.New("search structure not built")
	ErrDimensionMismatch = errors.New("query dimension does not match index")
)

// Candidate is one nearest-neighbor hit: the position of the vector in the
// build order and its inner-product score.
type Candidate struct {
	Index int
	Score float64
}

// Backend is the pluggable nearest-neighbor search structure. Build takes
// ownership of the vector set; Search ranks by inner product, which equals
// cosine similarity on normalized vectors.
//
// A Backend that can serialize its structure additionally implements
// encoding.BinaryMarshaler and encoding.BinaryUnmarshaler; the store
// persists such structures and reconstructs from raw vectors otherwise.
type Backend interface {
	Build(vectors [][]float32) error
	Search(query []float32, k int) ([]Candidate, error)
	Len() int
}

// BruteForce scans every stored vector on each query. Exact results, O(n·d)
// per search; entirely state-free beyond the vectors themselves.
type BruteForce struct {
	vectors [][]float32
	dim     int
}

// NewBruteForce creates an empty brute-force backend.
func NewBruteForce() *BruteForce {
	return &BruteForce{}
}

// Build stores the vector set. All vectors must share one dimension.
func (b *BruteForce) Build(vectors [][]float32) error {
	dim := 0
	for i, v := range vectors {
		if i == 0 {
			dim = len(v)
			continue
		}
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has dimension %d, want %d",
				ErrDimensionMismatch, i, len(v), dim)
		}
	}
	b.vectors = vectors
	b.dim = dim
	return nil
}

// Search returns the k highest-scoring vectors by inner product, sorted by
// strictly non-increasing score. Fewer than k candidates are returned when
// the set is smaller than k.
func (b *BruteForce) Search(query []float32, k int) ([]Candidate, error) {
	if b.vectors == nil {
		return nil, ErrNotBuilt
	}
	if len(query) != b.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, want %d",
			ErrDimensionMismatch, len(query), b.dim)
	}
	return TopK(b.vectors, query, k), nil
}

// Len returns the number of stored vectors.
func (b *BruteForce) Len() int {
	return len(b.vectors)
}

// TopK ranks vectors against query by inner product and returns the best k,
// sorted by descending score with index order breaking ties. It is shared
// by BruteForce and by the index's own fallback scan.
func TopK(vectors [][]float32, query []float32, k int) []Candidate {
	if k <= 0 {
		return nil
	}

	candidates := make([]Candidate, 0, len(vectors))
	for i, v := range vectors {
		candidates = append(candidates, Candidate{Index: i, Score: Dot(query, v)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if k < len(candidates) {
		candidates = candidates[:k]
	}
	return candidates
}

// Dot computes the inner product of two vectors. Mismatched lengths score
// zero rather than panic; the backends validate dimensions upfront.
func Dot(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
