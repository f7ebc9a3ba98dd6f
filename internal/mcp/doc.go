// Package mcp implements the Model Context Protocol (MCP) server for repoquery.
//
// The MCP server exposes four tools to AI coding assistants:
//   - index_repository: Index a source repository for semantic search
//   - search_code: Search indexed code with natural language queries
//   - get_file_context: Reconstruct a file's indexed content
//   - ask_repository: Answer a question using retrieved code and an LLM
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport. The server reads
// requests from stdin and writes responses to stdout; all logging goes to
// stderr so the protocol stream stays clean.
//
// Indexed repositories are addressed by store name. Every tool except
// index_repository takes an optional store_name (default "default") and
// fails with code -32001 when that store has not been built yet.
//
// # Error Handling
//
// Tools return standard JSON-RPC error responses:
//
//	{
//	  "error": {
//	    "code": -32602,
//	    "message": "Invalid params",
//	    "data": {"param": "path", "reason": "path does not exist"}
//	  }
//	}
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (embedding, storage, generation)
//   - -32001: Repository not indexed under the given store name
//   - -32002: Empty query or question
//   - -32003: No generation provider configured
package mcp
