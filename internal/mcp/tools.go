package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mkarls/repoquery/internal/indexer"
	"github.com/mkarls/repoquery/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams  = -32602 // Invalid method parameters
	ErrorCodeInternalError  = -32603 // Internal JSON-RPC error
	ErrorCodeNotIndexed     = -32001 // Named store does not exist
	ErrorCodeEmptyQuery     = -32002 // Query parameter is empty
	ErrorCodeLLMUnavailable = -32003 // No generation provider configured
)

// handleIndexRepository handles the index_repository tool invocation
func (s *Server) handleIndexRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if err := validateRepoPath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	storeName := getStringDefault(args, "store_name", "default")

	idx := s.newIndex()
	ix := indexer.New(s.cfg, idx, s.logger)
	stats, err := ix.IndexRepository(ctx, path, storeName)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	s.cacheIndex(storeName, idx)

	response := map[string]interface{}{
		"indexed":        true,
		"store_name":     storeName,
		"files_indexed":  stats.FilesIndexed,
		"files_skipped":  stats.FilesSkipped,
		"files_failed":   stats.FilesFailed,
		"chunks_created": stats.ChunksCreated,
		"duration_ms":    stats.Duration.Milliseconds(),
	}
	if len(stats.ErrorMessages) > 0 {
		errorCount := len(stats.ErrorMessages)
		if errorCount > 5 {
			response["errors"] = stats.ErrorMessages[:5]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchCode handles the search_code tool invocation
func (s *Server) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", s.cfg.Retrieval.TopK)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	storeName := getStringDefault(args, "store_name", "default")
	idx, found, err := s.loadIndex(storeName)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load index", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if !found {
		return nil, notIndexedError(storeName)
	}

	results, err := idx.Search(ctx, query, limit)
	if err != nil {
		if errors.Is(err, types.ErrIndexEmpty) {
			return nil, notIndexedError(storeName)
		}
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	hits := make([]map[string]interface{}, 0, len(results))
	for i, res := range results {
		hits = append(hits, map[string]interface{}{
			"rank":            i + 1,
			"relevance_score": res.Score,
			"file_path":       res.Chunk.FilePath,
			"start_line":      res.Chunk.StartLine,
			"end_line":        res.Chunk.EndLine,
			"chunk_type":      string(res.Chunk.ChunkType),
			"content":         res.Chunk.Content,
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"query":   query,
		"results": hits,
	})), nil
}

// handleGetFileContext handles the get_file_context tool invocation
func (s *Server) handleGetFileContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	filePath, ok := args["file_path"].(string)
	if !ok || filePath == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "file_path parameter is required", map[string]interface{}{
			"param":  "file_path",
			"reason": "missing or empty",
		})
	}

	storeName := getStringDefault(args, "store_name", "default")
	ret, found, err := s.loadRetriever(storeName)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load index", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if !found {
		return nil, notIndexedError(storeName)
	}

	content, found := ret.FileContext(filePath)
	if !found {
		return nil, newMCPError(ErrorCodeInvalidParams, "file not found in index", map[string]interface{}{
			"param": "file_path",
			"value": filePath,
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"file_path": filePath,
		"content":   content,
	})), nil
}

// handleAskRepository handles the ask_repository tool invocation
func (s *Server) handleAskRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	question, ok := args["question"].(string)
	if !ok || question == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "question parameter is required and cannot be empty", map[string]interface{}{
			"param":  "question",
			"reason": "missing or empty",
		})
	}

	if s.llm == nil {
		return nil, newMCPError(ErrorCodeLLMUnavailable, "no generation provider configured", map[string]interface{}{
			"reason": "set llm.api_key or the provider's environment variable",
		})
	}

	topK := getIntDefault(args, "top_k", s.cfg.Retrieval.TopK)
	if topK < 1 || topK > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "top_k must be between 1 and 100", map[string]interface{}{
			"param": "top_k",
			"value": topK,
		})
	}

	storeName := getStringDefault(args, "store_name", "default")
	ret, found, err := s.loadRetriever(storeName)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load index", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if !found {
		return nil, notIndexedError(storeName)
	}

	codeContext, err := ret.RetrieveAsContext(ctx, question, topK, s.cfg.Retrieval.MaxTokens)
	if err != nil {
		if errors.Is(err, types.ErrIndexEmpty) {
			return nil, notIndexedError(storeName)
		}
		return nil, newMCPError(ErrorCodeInternalError, "retrieval failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	answer, err := s.llm.AnalyzeCode(ctx, codeContext, question)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "generation failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"question": question,
		"model":    s.llm.ModelName(),
		"answer":   answer,
	})), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// notIndexedError is the shared "store missing or empty" error.
func notIndexedError(storeName string) error {
	return newMCPError(ErrorCodeNotIndexed, "repository not indexed", map[string]interface{}{
		"store_name": storeName,
		"reason":     "use the index_repository tool first",
	})
}

// validateRepoPath checks if a path exists and is a readable directory
func validateRepoPath(path string) error {
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}
	if !info.IsDir() {
		return ErrNotDirectory
	}
	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()
	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok && val != "" {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
)
