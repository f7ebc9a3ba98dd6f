// Package chunker splits source files into labeled spans for embedding
// and retrieval.
//
// # Structural Chunking
//
// For languages with a recognized grammar the chunker identifies top-level
// function and class definitions by a leading-keyword match, then greedily
// consumes the definition body:
//
//   - indentation-based languages (Python): all subsequent lines that are
//     blank or indented deeper than the definition line, stopping at the
//     first non-blank line at or above the definition's own indentation
//   - brace-based languages (Go, JS/TS, Java, Rust): lines until brace
//     depth returns to zero
//
// The result is one chunk per definition plus "block" chunks for
// interstitial code, in file order, non-overlapping, together spanning
// every line of the file exactly once. A definition with no body yields a
// one-line chunk.
//
// # Fixed-Size Fallback
//
// Files without a recognized grammar, and files whose structural result is
// a single chunk larger than twice the target size, are chunked by size:
// lines accumulate until the character target is reached, and each new
// chunk is seeded with a trailing overlap window from its predecessor so
// adjacent chunks share context. These chunks overlap in line range by
// design; whole-file reconstruction de-duplicates the overlap region.
//
// # Edge Cases
//
// An empty file produces an empty chunk sequence. A file with no
// recognized structures is entirely fixed-size chunked.
package chunker
