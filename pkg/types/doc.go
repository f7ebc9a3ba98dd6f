// Package types provides shared domain types for repoquery.
//
// Chunk is the atomic retrieval unit: a labeled span of a source file with
// a 1-based inclusive line range and a structural type (function, class or
// block). Chunks produced by structural chunking tile their file exactly
// once; chunks produced by the fixed-size fallback may overlap by design.
//
// ScoredChunk pairs a chunk with a query-relative relevance score, and the
// package also defines the sentinel errors of the pipeline's failure
// taxonomy (ErrIndexEmpty, ErrEmbeddingUnavailable, ErrCorruptStore).
package types
