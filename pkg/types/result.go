package types

// ScoredChunk pairs a chunk with its relevance score for one query.
// Higher scores mean more relevant. Scores are comparable within a single
// query but carry no fixed range across embedding backends.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// ScanReport accumulates per-file skip and failure information from a
// repository scan. Skips are recoverable; the scan always continues.
type ScanReport struct {
	FilesRead     int
	SkippedLarge  []string
	SkippedDecode []string
	FailedRead    []string
}

// Skipped returns the total number of files the scan passed over.
func (r *ScanReport) Skipped() int {
	return len(r.SkippedLarge) + len(r.SkippedDecode) + len(r.FailedRead)
}
