package llm

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mkarls/repoquery/internal/config"
)

// Common errors.
var (
	ErrUnavailable = errors.New("llm provider unavailable")
	ErrRateLimited = errors.New("llm provider rate limited")
	ErrNoAPIKey    = errors.New("no api key configured")
)

// Generation parameters shared by all providers. Low temperature keeps
// code analysis deterministic enough to act on.
const (
	generationTemperature = 0.2
	generationMaxTokens   = 4000
)

// groqBaseURL is Groq's OpenAI-compatible endpoint.
const groqBaseURL = "https://api.groq.com/openai/v1"

// Default models per provider.
const (
	defaultOpenAIModel = "gpt-4o-mini"
	defaultGroqModel   = "llama-3.1-8b-instant"
)

// Provider generates text completions. Implementations are safe for
// concurrent use.
type Provider interface {
	// Generate produces a completion for prompt. A non-empty system
	// message steers the model's role.
	Generate(ctx context.Context, prompt, system string) (string, error)

	// ModelName returns the underlying model identifier.
	ModelName() string
}

// chatProvider drives any OpenAI-compatible chat completion endpoint.
// Both OpenAI itself and Groq speak this protocol.
type chatProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates a Provider backed by the OpenAI API.
func NewOpenAI(apiKey, model string) (Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set llm.api_key or OPENAI_API_KEY", ErrNoAPIKey)
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &chatProvider{client: openai.NewClient(apiKey), model: model}, nil
}

// NewGroq creates a Provider backed by Groq's OpenAI-compatible API.
func NewGroq(apiKey, model string) (Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GROQ_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set llm.api_key or GROQ_API_KEY", ErrNoAPIKey)
	}
	if model == "" {
		model = defaultGroqModel
	}
	clientCfg := openai.DefaultConfig(apiKey)
	clientCfg.BaseURL = groqBaseURL
	return &chatProvider{client: openai.NewClientWithConfig(clientCfg), model: model}, nil
}

// New creates the Provider selected by the configuration.
func New(cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAI(cfg.APIKey, cfg.Model)
	case "groq":
		return NewGroq(cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown llm provider %q (supported: openai, groq)", cfg.Provider)
	}
}

func (p *chatProvider) ModelName() string {
	return p.model
}

func (p *chatProvider) Generate(ctx context.Context, prompt, system string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: generationTemperature,
		MaxTokens:   generationMaxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
			return "", fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion response", ErrUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}
