package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mkarls/repoquery/internal/ann"
	"github.com/mkarls/repoquery/internal/embedder"
	"github.com/mkarls/repoquery/internal/indexer"
	"github.com/mkarls/repoquery/internal/llm"
	"github.com/mkarls/repoquery/internal/mcp"
	"github.com/mkarls/repoquery/internal/retriever"
	"github.com/mkarls/repoquery/internal/vectorindex"
)

// newIndex builds an empty index wired to the configured embedder.
func newIndex() (*vectorindex.Index, embedder.Embedder, error) {
	emb, err := embedder.New(cfg.Embedding)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize embedder: %w", err)
	}
	idx := vectorindex.New(emb, ann.NewBruteForce(), cfg.Storage.Root, logger)
	idx.SetBatchSize(cfg.Embedding.BatchSize)
	return idx, emb, nil
}

// loadStore loads a named store, failing with a hint when it is missing.
func loadStore(storeName string) (*vectorindex.Index, embedder.Embedder, error) {
	idx, emb, err := newIndex()
	if err != nil {
		return nil, nil, err
	}
	found, err := idx.Load(storeName)
	if err != nil {
		_ = emb.Close()
		return nil, nil, fmt.Errorf("load store %q: %w", storeName, err)
	}
	if !found {
		_ = emb.Close()
		return nil, nil, fmt.Errorf("store %q does not exist; run 'repoquery index' first", storeName)
	}
	return idx, emb, nil
}

func indexCmd() *cobra.Command {
	var storeName string

	cmd := &cobra.Command{
		Use:   "index [repository]",
		Short: "Index a repository into a named vector store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := "."
			if len(args) == 1 {
				repo = args[0]
			}
			repo, err := filepath.Abs(repo)
			if err != nil {
				return fmt.Errorf("resolve repository path: %w", err)
			}

			idx, emb, err := newIndex()
			if err != nil {
				return err
			}
			defer func() { _ = emb.Close() }()

			ix := indexer.New(cfg, idx, logger)
			stats, err := ix.IndexRepository(cmd.Context(), repo, storeName)
			if err != nil {
				return err
			}

			fmt.Printf("Indexed %d files into store %q\n", stats.FilesIndexed, storeName)
			fmt.Printf("  chunks:   %d\n", stats.ChunksCreated)
			fmt.Printf("  skipped:  %d\n", stats.FilesSkipped)
			fmt.Printf("  failed:   %d\n", stats.FilesFailed)
			fmt.Printf("  duration: %s\n", stats.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVar(&storeName, "store", "default", "name of the vector store")
	return cmd
}

func searchCmd() *cobra.Command {
	var (
		storeName string
		topK      int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search an indexed repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, emb, err := loadStore(storeName)
			if err != nil {
				return err
			}
			defer func() { _ = emb.Close() }()

			if topK <= 0 {
				topK = cfg.Retrieval.TopK
			}
			results, err := idx.Search(cmd.Context(), args[0], topK)
			if err != nil {
				return err
			}

			for i, res := range results {
				fmt.Printf("%2d. %s (score: %.3f)\n", i+1, res.Chunk.Location(), res.Score)
			}
			if len(results) == 0 {
				fmt.Println(retriever.NoResultsMessage)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&storeName, "store", "default", "name of the vector store")
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of results (default from config)")
	return cmd
}

func askCmd() *cobra.Command {
	var (
		storeName string
		topK      int
		fix       bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question about an indexed repository using an LLM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := llm.New(cfg.LLM)
			if err != nil {
				return err
			}
			client := llm.NewClient(provider)
			logger.Info("using llm", zap.String("model", client.ModelName()))

			idx, emb, err := loadStore(storeName)
			if err != nil {
				return err
			}
			defer func() { _ = emb.Close() }()

			ret := retriever.New(idx, logger)
			if topK <= 0 {
				topK = cfg.Retrieval.TopK
			}
			codeContext, err := ret.RetrieveAsContext(cmd.Context(), args[0], topK, cfg.Retrieval.MaxTokens)
			if err != nil {
				return err
			}

			var answer string
			if fix {
				answer, err = client.SuggestFix(cmd.Context(), codeContext, args[0])
			} else {
				answer, err = client.AnalyzeCode(cmd.Context(), codeContext, args[0])
			}
			if err != nil {
				return err
			}

			fmt.Println(answer)
			return nil
		},
	}

	cmd.Flags().StringVar(&storeName, "store", "default", "name of the vector store")
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
	cmd.Flags().BoolVar(&fix, "fix", false, "treat the question as a bug report and suggest a fix")
	return cmd
}

func fileCmd() *cobra.Command {
	var storeName string

	cmd := &cobra.Command{
		Use:   "file <path>",
		Short: "Print a file's indexed content reconstructed from its chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, emb, err := loadStore(storeName)
			if err != nil {
				return err
			}
			defer func() { _ = emb.Close() }()

			ret := retriever.New(idx, logger)
			content, found := ret.FileContext(args[0])
			if !found {
				return fmt.Errorf("file %q not found in store %q", args[0], storeName)
			}
			fmt.Print(content)
			return nil
		},
	}

	cmd.Flags().StringVar(&storeName, "store", "default", "name of the vector store")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := mcp.NewServer(cfg, logger)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			errChan := make(chan error, 1)
			go func() {
				logger.Info("mcp server ready, listening on stdio")
				errChan <- srv.Serve(ctx)
			}()

			select {
			case sig := <-sigChan:
				logger.Info("shutting down", zap.String("signal", sig.String()))
				cancel()
				return nil
			case err := <-errChan:
				return err
			}
		},
	}
}
