package types

import "errors"

// Domain errors shared across the indexing and retrieval pipeline.
var (
	// ErrIndexEmpty is returned when search is invoked before the index
	// has been populated via Build or Load.
	ErrIndexEmpty = errors.New("index is empty: build or load it first")

	// ErrEmbeddingUnavailable indicates the embedding backend could not be
	// reached or loaded. A build failing with this error leaves no usable
	// partial index.
	ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")

	// ErrCorruptStore indicates a persisted store exists but its contents
	// are partial or inconsistent.
	ErrCorruptStore = errors.New("persisted store is corrupt")

	// ErrInvalidArgument is returned for caller-contract violations such
	// as non-positive top-k or token budgets.
	ErrInvalidArgument = errors.New("invalid argument")
)
