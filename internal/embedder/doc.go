// Package embedder generates vector embeddings for chunk and query texts.
//
// The Embedder interface is the pluggable embedding backend of the
// pipeline: Embed maps a batch of texts to L2-normalized fixed-length
// vectors, order-preserving, one vector per input. Because every vector is
// unit length, inner product equals cosine similarity downstream.
//
// # Providers
//
// Two implementations ship:
//
//   - OpenAIEmbedder calls the OpenAI embeddings API with exponential
//     backoff retry. Failures after retry exhaustion wrap
//     types.ErrEmbeddingUnavailable.
//   - LocalEmbedder derives deterministic vectors from SHA-256 of the
//     text. No network, no model download; the similarity signal is only
//     useful for tests and offline smoke runs.
//
// The factory picks a provider from configuration, falling back from
// openai to local when no API key is available.
//
// # Caching
//
// Both providers share an LRU cache keyed by content hash, so re-indexing
// an unchanged repository skips the API for unchanged chunks.
package embedder
