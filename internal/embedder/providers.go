package embedder

import (
	"context"
	"crypto/sha256"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mkarls/repoquery/pkg/types"
)

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"

	DefaultOpenAIModel = "text-embedding-3-small"

	// LocalDimension is the vector size of the deterministic local provider.
	LocalDimension = 384

	// MaxBatchSize bounds a single Embed call.
	MaxBatchSize = 100
)

// openAIDimensions maps known OpenAI embedding models to their dimensions.
var openAIDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// OpenAIEmbedder generates embeddings through the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	dim    int
	cache  *Cache
}

// NewOpenAIEmbedder creates an OpenAI-backed embedder.
func NewOpenAIEmbedder(apiKey, model string, cache *Cache) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key not set", ErrNoProviderEnabled)
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	dim, ok := openAIDimensions[model]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedModel, model)
	}

	return &OpenAIEmbedder{
		client: openai.NewClient(apiKey),
		model:  model,
		dim:    dim,
		cache:  cache,
	}, nil
}

// Embed generates one normalized vector per input text, consulting the
// cache first and calling the API only for misses.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ValidateBatch(texts); err != nil {
		return nil, err
	}
	if len(texts) > MaxBatchSize {
		return nil, fmt.Errorf("%w: max %d texts allowed", ErrBatchTooLarge, MaxBatchSize)
	}

	vectors := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if e.cache != nil {
			if v, ok := e.cache.Get(ComputeHash(text)); ok {
				vectors[i] = v
				continue
			}
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) > 0 {
		fetched, err := retryWithBackoff(ctx, DefaultRetryConfig(), func() ([][]float32, error) {
			return e.callAPI(ctx, missing)
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrEmbeddingUnavailable, err)
		}
		for j, v := range fetched {
			i := missingIdx[j]
			vectors[i] = v
			if e.cache != nil {
				e.cache.Set(ComputeHash(texts[i]), v)
			}
		}
	}

	return vectors, nil
}

func (e *OpenAIEmbedder) callAPI(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: got %d vectors for %d texts",
			len(resp.Data), len(texts))
	}

	// Responses are index-addressed; do not assume they arrive in order.
	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("openai embeddings: index %d out of range", d.Index)
		}
		vectors[d.Index] = Normalize(d.Embedding)
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("openai embeddings: missing vector for text %d", i)
		}
	}
	return vectors, nil
}

func (e *OpenAIEmbedder) Dimension() int { return e.dim }
func (e *OpenAIEmbedder) Model() string  { return e.model }
func (e *OpenAIEmbedder) Close() error   { return nil }

// LocalEmbedder is a deterministic offline embedder. Vectors are derived
// from repeated SHA-256 hashing of the text, so identical texts always map
// to identical unit vectors. Useful for tests and air-gapped smoke runs;
// the similarity signal is essentially exact-match only.
type LocalEmbedder struct {
	cache *Cache
}

// NewLocalEmbedder creates the offline hash-based embedder.
func NewLocalEmbedder(cache *Cache) *LocalEmbedder {
	return &LocalEmbedder{cache: cache}
}

// Embed generates deterministic normalized vectors.
func (l *LocalEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ValidateBatch(texts); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		hash := ComputeHash(text)
		if l.cache != nil {
			if v, ok := l.cache.Get(hash); ok {
				vectors[i] = v
				continue
			}
		}
		v := hashVector(text)
		if l.cache != nil {
			l.cache.Set(hash, v)
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (l *LocalEmbedder) Dimension() int { return LocalDimension }
func (l *LocalEmbedder) Model() string  { return "local-hash" }
func (l *LocalEmbedder) Close() error   { return nil }

// hashVector expands a text into LocalDimension floats by chaining SHA-256
// blocks, then normalizes to unit length.
func hashVector(text string) []float32 {
	v := make([]float32, LocalDimension)
	block := sha256.Sum256([]byte(text))
	for i := 0; i < LocalDimension; i++ {
		if i > 0 && i%len(block) == 0 {
			block = sha256.Sum256(block[:])
		}
		v[i] = float32(block[i%len(block)])/255.0 - 0.5
	}
	return Normalize(v)
}
