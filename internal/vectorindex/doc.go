// Package vectorindex owns the chunk-to-vector mapping, nearest-neighbor
// search, and index persistence.
//
// # Lifecycle
//
// An Index is created empty, populated exactly once by Build (bulk, not
// incremental) or Load, and is immutable afterwards. Re-indexing replaces
// the entire persisted store under a name. Build is all-or-nothing: an
// embedding failure aborts the call with types.ErrEmbeddingUnavailable
// wrapped in context and leaves no usable partial state.
//
// # Search
//
// Search embeds the query with the same embedding backend used at build
// time and ranks candidates by inner product (cosine similarity on the
// normalized vectors), descending. When the search structure is missing
// or fails, search degrades to an exact brute-force scan with identical
// ranking semantics. Searching an unpopulated index fails with
// types.ErrIndexEmpty.
//
// # Persistence
//
// A named store is a directory with a binary vector file (one fixed-size
// row per chunk in chunk order), a JSON chunk metadata file, and an
// optional serialized search structure. Persist stages the files in a
// temporary directory and renames it into place. Load returns (false,
// nil) for a missing store, reconstructs the search structure from the
// vectors when the serialized form is absent or incompatible, and wraps
// types.ErrCorruptStore for partial or inconsistent data.
package vectorindex
