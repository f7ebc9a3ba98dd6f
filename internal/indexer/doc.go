// Package indexer orchestrates the indexing pipeline: scan a repository,
// chunk its files, embed the chunks into the vector index, and persist
// the result under a named store. Scan-level problems degrade gracefully
// and are reported in the run statistics; embedding and persistence
// failures abort the run.
package indexer
