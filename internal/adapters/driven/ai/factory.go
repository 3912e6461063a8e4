// Package ai builds embedding service adapters from settings.
package ai

import (
	"context"
	"fmt"
	"sync"

	geminiembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/gemini"
	localembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/local"
	ollamaembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// sharedLocal is the process-wide local model. Its own lazy build is
// single-flight, so every caller shares one initialisation.
var sharedLocal = sync.OnceValue(func() *localembed.EmbeddingService {
	return localembed.NewEmbeddingService(domain.LocalEmbeddingDimensions)
})

// LocalEmbeddingService returns the process-wide local embedding model.
func LocalEmbeddingService() driven.EmbeddingService {
	return sharedLocal()
}

type builder func(ctx context.Context, settings *domain.EmbeddingSettings, dimensions int) (driven.EmbeddingService, error)

var builders = map[domain.AIProvider]builder{
	domain.AIProviderLocal: func(context.Context, *domain.EmbeddingSettings, int) (driven.EmbeddingService, error) {
		return LocalEmbeddingService(), nil
	},
	domain.AIProviderOllama: func(_ context.Context, s *domain.EmbeddingSettings, dims int) (driven.EmbeddingService, error) {
		if dims == 0 {
			dims = ollamaembed.DefaultDimensions
		}
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    s.BaseURL,
			Model:      s.Model,
			Dimensions: dims,
		}), nil
	},
	domain.AIProviderOpenAI: func(_ context.Context, s *domain.EmbeddingSettings, dims int) (driven.EmbeddingService, error) {
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     s.APIKey,
			BaseURL:    s.BaseURL,
			Model:      s.Model,
			Dimensions: dims,
		})
	},
	domain.AIProviderGemini: func(ctx context.Context, s *domain.EmbeddingSettings, dims int) (driven.EmbeddingService, error) {
		return geminiembed.NewEmbeddingService(ctx, geminiembed.Config{
			APIKey:     s.APIKey,
			BaseURL:    s.BaseURL,
			Model:      s.Model,
			Dimensions: dims,
		})
	},
}

// CreateEmbeddingService creates the service the settings select.
// It returns nil, nil when the provider is not configured.
func CreateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	build, ok := builders[settings.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
	return build(ctx, settings, domain.EmbeddingDimensions()[settings.Model])
}
