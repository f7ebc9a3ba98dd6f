package mcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/mkarls/repoquery/internal/ann"
	"github.com/mkarls/repoquery/internal/config"
	"github.com/mkarls/repoquery/internal/embedder"
	"github.com/mkarls/repoquery/internal/llm"
	"github.com/mkarls/repoquery/internal/retriever"
	"github.com/mkarls/repoquery/internal/vectorindex"
)

const (
	// ServerName is the MCP server name
	ServerName = "repoquery"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	cfg      *config.Config
	embedder embedder.Embedder
	llm      *llm.Client
	logger   *zap.Logger

	mu      sync.Mutex
	indexes map[string]*vectorindex.Index // loaded stores by name
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	emb, err := embedder.New(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	// Generation is optional: without an API key the ask tool reports
	// the problem per call and the rest of the server still works.
	var client *llm.Client
	if provider, err := llm.New(cfg.LLM); err != nil {
		logger.Warn("llm provider unavailable, ask_repository disabled", zap.Error(err))
	} else {
		client = llm.NewClient(provider)
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:      mcpServer,
		cfg:      cfg,
		embedder: emb,
		llm:      client,
		logger:   logger,
		indexes:  make(map[string]*vectorindex.Index),
	}

	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.embedder.Close() }()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(indexRepositoryTool(), s.handleIndexRepository)
	s.mcp.AddTool(searchCodeTool(), s.handleSearchCode)
	s.mcp.AddTool(getFileContextTool(), s.handleGetFileContext)
	s.mcp.AddTool(askRepositoryTool(), s.handleAskRepository)
}

// newIndex creates an empty index wired to the server's embedder.
func (s *Server) newIndex() *vectorindex.Index {
	idx := vectorindex.New(s.embedder, ann.NewBruteForce(), s.cfg.Storage.Root, s.logger)
	idx.SetBatchSize(s.cfg.Embedding.BatchSize)
	return idx
}

// cacheIndex replaces the cached index for a store name.
func (s *Server) cacheIndex(name string, idx *vectorindex.Index) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes[name] = idx
}

// loadIndex returns the index for a store name, loading it from disk on
// first use. The second return reports whether the store exists.
func (s *Server) loadIndex(name string) (*vectorindex.Index, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.indexes[name]; ok {
		return idx, true, nil
	}

	idx := s.newIndex()
	found, err := idx.Load(name)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	s.indexes[name] = idx
	return idx, true, nil
}

// loadRetriever builds a Retriever over the named store's index.
func (s *Server) loadRetriever(name string) (*retriever.Retriever, bool, error) {
	idx, found, err := s.loadIndex(name)
	if err != nil || !found {
		return nil, found, err
	}
	return retriever.New(idx, s.logger), true, nil
}
