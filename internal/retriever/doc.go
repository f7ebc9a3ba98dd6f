// Package retriever selects and formats the code context handed to a
// language model for a query.
//
// Retrieval over-fetches from the vector index, drops near-duplicate
// chunks by content-prefix fingerprint, and packs survivors into a token
// budget using the chars/4 estimate. A chunk that does not fit is skipped
// individually so smaller lower-ranked chunks can still use the remaining
// budget. Score order from the index is preserved throughout.
package retriever
