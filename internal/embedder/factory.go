package embedder

import (
	"fmt"
	"os"
	"strings"

	"github.com/mkarls/repoquery/internal/config"
)

// New creates an embedder from configuration. Provider selection:
//
//  1. cfg.Provider when set ("openai" or "local")
//  2. openai when an API key is available (config or OPENAI_API_KEY)
//  3. local otherwise
func New(cfg config.EmbeddingConfig) (Embedder, error) {
	cache := NewCache(cfg.CacheSize)

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		return NewOpenAIEmbedder(apiKey, cfg.Model, cache)
	case ProviderLocal:
		return NewLocalEmbedder(cache), nil
	case "":
		if apiKey != "" {
			return NewOpenAIEmbedder(apiKey, cfg.Model, cache)
		}
		return NewLocalEmbedder(cache), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrUnsupportedModel, cfg.Provider)
	}
}
