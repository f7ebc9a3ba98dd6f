package llm

import (
	"context"
	"fmt"
)

// systemPrompt frames the model as a code reviewer for all analysis calls.
const systemPrompt = `You are a senior software engineer and expert code reviewer.
You analyze code carefully and provide precise, actionable suggestions.
When suggesting fixes:
1. Explain the issue clearly
2. Show the exact code changes needed
3. Use diff format when showing changes
4. Consider edge cases and potential side effects

Be concise but thorough. Focus on the specific task at hand.`

// patchSystemPrompt constrains output to a bare unified diff.
const patchSystemPrompt = `You are a code patching assistant.
Output ONLY the changes in unified diff format.
Do not include explanations outside the diff.`

// Client wraps a Provider with the prompt templates for code tasks.
type Client struct {
	provider Provider
}

// NewClient creates a Client over the given provider.
func NewClient(provider Provider) *Client {
	return &Client{provider: provider}
}

// ModelName reports the underlying model identifier.
func (c *Client) ModelName() string {
	return c.provider.ModelName()
}

// AnalyzeCode answers a user request against retrieved code context.
func (c *Client) AnalyzeCode(ctx context.Context, codeContext, userPrompt string) (string, error) {
	prompt := fmt.Sprintf(`## Relevant Code from Repository

%s

## User Request

%s

## Instructions

Analyze the code above and respond to the user's request.
If suggesting code changes, show them in a clear diff format.
`, codeContext, userPrompt)

	return c.provider.Generate(ctx, prompt, systemPrompt)
}

// SuggestFix proposes a fix for a described issue using the retrieved
// code context.
func (c *Client) SuggestFix(ctx context.Context, codeContext, issue string) (string, error) {
	prompt := fmt.Sprintf(`## Problem

%s

## Relevant Code

%s

## Task

1. Identify the root cause of the issue
2. Explain why this is happening
3. Provide the exact fix in diff format
4. Note any potential side effects of the fix
`, issue, codeContext)

	return c.provider.Generate(ctx, prompt, systemPrompt)
}

// GeneratePatch produces a unified diff implementing the instructions
// against the given code.
func (c *Client) GeneratePatch(ctx context.Context, codeContext, instructions string) (string, error) {
	prompt := fmt.Sprintf(`Generate a patch for the following request.

## Current Code

%s

## Requested Changes

%s

Output the changes as a unified diff (--- a/file, +++ b/file format).
`, codeContext, instructions)

	return c.provider.Generate(ctx, prompt, patchSystemPrompt)
}
