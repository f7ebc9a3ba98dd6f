// Package llm provides text generation for answering questions about
// retrieved code.
//
// Provider abstracts the completion backend; OpenAI and Groq are
// supported through the same OpenAI-compatible chat protocol. Client
// layers the code-analysis prompt templates on top: free-form analysis,
// fix suggestions, and unified-diff patch generation.
package llm
