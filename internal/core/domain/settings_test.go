package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, 1000, s.Ingest.ChunkSize)
	assert.Equal(t, 200, s.Ingest.ChunkOverlap)
	assert.Equal(t, 50, s.Ingest.BatchSize)
	assert.Equal(t, ChunkAuto, s.Ingest.Strategy)
	assert.InDelta(t, 0.2, s.Retrieval.MinSimilarity, 1e-9)
	assert.Equal(t, 10, s.Retrieval.MaxContextChunks)
	assert.Equal(t, DefaultExtractionMethods(), s.Extraction.Methods)
	assert.Equal(t, ExtractionBasic, s.Extraction.Methods[len(s.Extraction.Methods)-1])
	assert.Equal(t, AIProviderLocal, s.Embedding.Provider)
	assert.True(t, s.Embedding.IsConfigured())
}

func TestAppSettings_ForScope(t *testing.T) {
	s := DefaultAppSettings()
	s.ScopeOverrides = map[string]ScopeOverride{
		"legal": {ChunkSize: 600, Strategy: ChunkSemantic, MinSimilarity: 0.35},
	}

	legal := s.ForScope("legal")
	assert.Equal(t, 600, legal.Ingest.ChunkSize)
	assert.Equal(t, 200, legal.Ingest.ChunkOverlap)
	assert.Equal(t, ChunkSemantic, legal.Ingest.Strategy)
	assert.InDelta(t, 0.35, legal.Retrieval.MinSimilarity, 1e-9)

	other := s.ForScope("other")
	assert.Equal(t, 1000, other.Ingest.ChunkSize)

	// The receiver is not modified.
	assert.Equal(t, 1000, s.Ingest.ChunkSize)
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		want     bool
	}{
		{"local", EmbeddingSettings{Provider: AIProviderLocal}, true},
		{"ollama without key", EmbeddingSettings{Provider: AIProviderOllama}, true},
		{"openai without key", EmbeddingSettings{Provider: AIProviderOpenAI}, false},
		{"openai with key", EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk"}, true},
		{"gemini without key", EmbeddingSettings{Provider: AIProviderGemini}, false},
		{"unknown", EmbeddingSettings{Provider: "bogus"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.settings.IsConfigured())
		})
	}
}

func TestEnums_IsValid(t *testing.T) {
	for _, m := range DefaultExtractionMethods() {
		assert.True(t, m.IsValid(), m)
	}
	assert.False(t, ExtractionMethod("ocr").IsValid())
	assert.True(t, ChunkMarkdown.IsValid())
	assert.False(t, ChunkStrategy("sentence").IsValid())
	assert.True(t, RegistryRedis.IsValid())
	assert.True(t, VectorQdrant.IsValid())
	assert.False(t, VectorBackend("pinecone").IsValid())
}

func TestEmbeddingIdentity(t *testing.T) {
	local := EmbeddingIdentity{Provider: AIProviderLocal, Model: LocalEmbeddingModel, Dimensions: 384}
	remote := EmbeddingIdentity{Provider: AIProviderOpenAI, Model: "text-embedding-3-small", Dimensions: 1536}

	assert.True(t, local.Matches(local))
	assert.False(t, local.Matches(remote))
	assert.Equal(t, "local/hashed-bow-384@384", local.String())
	assert.Equal(t, "none", EmbeddingIdentity{}.String())
	assert.True(t, EmbeddingIdentity{}.IsZero())
}
