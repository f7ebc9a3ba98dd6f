// Package ann provides the nearest-neighbor search primitive used by the
// vector index.
//
// Backend is a strategy interface: Build constructs a search structure
// over a vector set, Search returns the k nearest vectors by inner
// product. The shipped BruteForce backend performs an exact linear scan,
// which is the right trade-off for repository-scale chunk counts; an
// approximate structure can be swapped in without touching the index.
package ann
