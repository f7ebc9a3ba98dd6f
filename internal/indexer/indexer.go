package indexer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mkarls/repoquery/internal/chunker"
	"github.com/mkarls/repoquery/internal/config"
	"github.com/mkarls/repoquery/internal/scanner"
	"github.com/mkarls/repoquery/internal/vectorindex"
	"github.com/mkarls/repoquery/pkg/types"
)

// Statistics summarizes one indexing run.
type Statistics struct {
	FilesIndexed  int
	FilesSkipped  int
	FilesFailed   int
	ChunksCreated int
	Duration      time.Duration
	ErrorMessages []string
}

// Indexer runs the full scan, chunk, embed, persist pipeline against a
// repository and a named store.
type Indexer struct {
	scanner *scanner.Scanner
	chunker *chunker.Chunker
	index   *vectorindex.Index
	logger  *zap.Logger
}

// New creates an Indexer writing into the given index.
func New(cfg *config.Config, index *vectorindex.Index, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		scanner: scanner.New(cfg.Scanner, logger),
		chunker: chunker.New(cfg.Chunking),
		index:   index,
		logger:  logger,
	}
}

// IndexRepository scans repoPath, chunks every included file, builds the
// vector index, and persists it under storeName. Per-file scan problems
// are reported in Statistics; embedding or persistence failures abort the
// run with an error.
func (ix *Indexer) IndexRepository(ctx context.Context, repoPath, storeName string) (*Statistics, error) {
	start := time.Now()
	stats := &Statistics{}

	var chunks []types.Chunk
	report, err := ix.scanner.Scan(repoPath, func(f scanner.File) error {
		fileChunks := ix.chunker.Chunk(f.Content, f.RelPath)
		chunks = append(chunks, fileChunks...)
		stats.FilesIndexed++
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("scan repository: %w", err)
	}

	stats.FilesSkipped = len(report.SkippedLarge) + len(report.SkippedDecode)
	stats.FilesFailed = len(report.FailedRead)
	stats.ChunksCreated = len(chunks)
	for _, path := range report.FailedRead {
		stats.ErrorMessages = append(stats.ErrorMessages, "failed to read "+path)
	}

	ix.logger.Info("repository scanned",
		zap.String("repo", repoPath),
		zap.Int("files", stats.FilesIndexed),
		zap.Int("skipped", stats.FilesSkipped),
		zap.Int("chunks", stats.ChunksCreated))

	if err := ix.index.Build(ctx, chunks); err != nil {
		return stats, fmt.Errorf("build index: %w", err)
	}
	if err := ix.index.Persist(storeName); err != nil {
		return stats, fmt.Errorf("persist index: %w", err)
	}

	stats.Duration = time.Since(start)
	ix.logger.Info("indexing complete",
		zap.String("store", storeName),
		zap.Duration("duration", stats.Duration))
	return stats, nil
}
