package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexRepositoryTool returns the tool definition for index_repository
func indexRepositoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_repository",
		Description: "Index a source repository to make it searchable",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the repository root",
				},
				"store_name": map[string]interface{}{
					"type":        "string",
					"description": "Name for the persisted index store",
					"default":     "default",
				},
			},
			Required: []string{"path"},
		},
	}
}

// searchCodeTool returns the tool definition for search_code
func searchCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_code",
		Description: "Search an indexed repository with natural language queries",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"store_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the index store to search",
					"default":     "default",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"query"},
		},
	}
}

// getFileContextTool returns the tool definition for get_file_context
func getFileContextTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_file_context",
		Description: "Reconstruct a file's indexed content from its chunks",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "Repository-relative path of the file",
				},
				"store_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the index store",
					"default":     "default",
				},
			},
			Required: []string{"file_path"},
		},
	}
}

// askRepositoryTool returns the tool definition for ask_repository
func askRepositoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "ask_repository",
		Description: "Answer a question about an indexed repository using retrieved code and an LLM",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Question or request about the code",
				},
				"store_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the index store",
					"default":     "default",
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Number of code chunks to retrieve as context",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"question"},
		},
	}
}
