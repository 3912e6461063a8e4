package services

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkSize        = "ingest.chunk_size"
	keyChunkOverlap     = "ingest.chunk_overlap"
	keyChunkStrategy    = "ingest.strategy"
	keyBatchSize        = "ingest.batch_size"
	keyIndexDiagnostics = "ingest.index_diagnostics"

	keyMinSimilarity    = "retrieval.min_similarity"
	keyMaxContextChunks = "retrieval.max_context_chunks"
	keyDefaultLimit     = "retrieval.default_limit"

	keyExtractMethods    = "extraction.methods"
	keyExtractTimeout    = "extraction.attempt_timeout"
	keyHostedURL         = "extraction.hosted_url"
	keyHostedAPIKey      = "extraction.hosted_api_key"
	keyLocalURL          = "extraction.local_url"
	keyPartitionStrategy = "extraction.partition_strategy"
	keyPdftotextPath     = "extraction.pdftotext_path"

	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"
	keyEmbedFallback = "embedding.fallback_to_local"

	keyDataDir      = "storage.data_dir"
	keyRegistry     = "storage.registry"
	keyVector       = "storage.vector"
	keyRedisURL     = "storage.redis_url"
	keyQdrantURL    = "storage.qdrant_url"
	keyQdrantAPIKey = "storage.qdrant_api_key"
	keyCollection   = "storage.collection"

	keyScopeNames = "scopes.names"
	scopePrefix   = "scopes."
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	validator   driven.EmbeddingValidator
}

// NewSettingsService creates a new settings service.
// The validator is optional and only used by ValidateEmbeddingConfig.
func NewSettingsService(configStore driven.ConfigStore, validator driven.EmbeddingValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		validator:   validator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Ingest: domain.IngestSettings{
			ChunkSize:        s.getInt(keyChunkSize, defaults.Ingest.ChunkSize),
			ChunkOverlap:     s.getSetInt(keyChunkOverlap, defaults.Ingest.ChunkOverlap),
			Strategy:         s.getStrategy(keyChunkStrategy, defaults.Ingest.Strategy),
			BatchSize:        s.getInt(keyBatchSize, defaults.Ingest.BatchSize),
			IndexDiagnostics: s.getBool(keyIndexDiagnostics, defaults.Ingest.IndexDiagnostics),
		},
		Retrieval: domain.RetrievalSettings{
			MinSimilarity:    s.getFloat(keyMinSimilarity, defaults.Retrieval.MinSimilarity),
			MaxContextChunks: s.getInt(keyMaxContextChunks, defaults.Retrieval.MaxContextChunks),
			DefaultLimit:     s.getInt(keyDefaultLimit, defaults.Retrieval.DefaultLimit),
		},
		Extraction: domain.ExtractionSettings{
			Methods:           s.getMethods(defaults.Extraction.Methods),
			AttemptTimeout:    defaults.Extraction.AttemptTimeout,
			HostedURL:         s.getString(keyHostedURL, defaults.Extraction.HostedURL),
			HostedAPIKey:      s.configStore.GetString(keyHostedAPIKey),
			LocalURL:          s.getString(keyLocalURL, defaults.Extraction.LocalURL),
			PartitionStrategy: s.getString(keyPartitionStrategy, defaults.Extraction.PartitionStrategy),
			PdftotextPath:     s.getString(keyPdftotextPath, defaults.Extraction.PdftotextPath),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:        s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:           s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:         s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:          s.configStore.GetString(keyEmbedAPIKey),
			FallbackToLocal: s.getBool(keyEmbedFallback, defaults.Embedding.FallbackToLocal),
		},
		Storage: domain.StorageSettings{
			DataDir:      s.configStore.GetString(keyDataDir),
			Registry:     domain.RegistryBackend(s.getString(keyRegistry, string(defaults.Storage.Registry))),
			Vector:       domain.VectorBackend(s.getString(keyVector, string(defaults.Storage.Vector))),
			RedisURL:     s.configStore.GetString(keyRedisURL),
			QdrantURL:    s.configStore.GetString(keyQdrantURL),
			QdrantAPIKey: s.configStore.GetString(keyQdrantAPIKey),
			Collection:   s.getString(keyCollection, defaults.Storage.Collection),
		},
	}
	if d := s.configStore.GetDuration(keyExtractTimeout); d > 0 {
		settings.Extraction.AttemptTimeout = d
	}

	for _, scope := range s.configStore.GetStringSlice(keyScopeNames) {
		if settings.ScopeOverrides == nil {
			settings.ScopeOverrides = make(map[string]domain.ScopeOverride)
		}
		prefix := scopePrefix + scope + "."
		settings.ScopeOverrides[scope] = domain.ScopeOverride{
			ChunkSize:     s.configStore.GetInt(prefix + "chunk_size"),
			ChunkOverlap:  s.configStore.GetInt(prefix + "chunk_overlap"),
			Strategy:      s.getStrategy(prefix+"strategy", ""),
			MinSimilarity: s.configStore.GetFloat(prefix + "min_similarity"),
		}
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	methods := make([]string, len(settings.Extraction.Methods))
	for i, m := range settings.Extraction.Methods {
		methods[i] = m.String()
	}

	values := []struct {
		key   string
		value any
	}{
		{keyChunkSize, settings.Ingest.ChunkSize},
		{keyChunkOverlap, settings.Ingest.ChunkOverlap},
		{keyChunkStrategy, settings.Ingest.Strategy.String()},
		{keyBatchSize, settings.Ingest.BatchSize},
		{keyIndexDiagnostics, settings.Ingest.IndexDiagnostics},
		{keyMinSimilarity, settings.Retrieval.MinSimilarity},
		{keyMaxContextChunks, settings.Retrieval.MaxContextChunks},
		{keyDefaultLimit, settings.Retrieval.DefaultLimit},
		{keyExtractMethods, methods},
		{keyExtractTimeout, settings.Extraction.AttemptTimeout.String()},
		{keyHostedURL, settings.Extraction.HostedURL},
		{keyLocalURL, settings.Extraction.LocalURL},
		{keyPartitionStrategy, settings.Extraction.PartitionStrategy},
		{keyPdftotextPath, settings.Extraction.PdftotextPath},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedFallback, settings.Embedding.FallbackToLocal},
		{keyDataDir, settings.Storage.DataDir},
		{keyRegistry, string(settings.Storage.Registry)},
		{keyVector, string(settings.Storage.Vector)},
		{keyRedisURL, settings.Storage.RedisURL},
		{keyQdrantURL, settings.Storage.QdrantURL},
		{keyCollection, settings.Storage.Collection},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Secrets are only written when set, so an env-provided key is never
	// copied into the file by a round trip.
	secrets := map[string]string{
		keyEmbedAPIKey:  settings.Embedding.APIKey,
		keyHostedAPIKey: settings.Extraction.HostedAPIKey,
		keyQdrantAPIKey: settings.Storage.QdrantAPIKey,
	}
	for key, value := range secrets {
		if value == "" {
			continue
		}
		if err := s.configStore.Set(key, value); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	for scope, o := range settings.ScopeOverrides {
		if err := s.saveScope(scope, o); err != nil {
			return err
		}
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	// Validate provider supports embeddings
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}

	// Ollama needs a base URL; other providers use their fixed endpoints
	if provider == domain.AIProviderOllama {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetScopeOverride stores per-scope overrides. Zero fields inherit.
func (s *SettingsService) SetScopeOverride(scope string, override domain.ScopeOverride) error {
	if scope == "" || strings.ContainsAny(scope, ". ") || scope == "names" {
		return fmt.Errorf("invalid scope name %q: %w", scope, domain.ErrInvalidInput)
	}
	if override.Strategy != "" && !override.Strategy.IsValid() {
		return fmt.Errorf("invalid chunk strategy %q: %w", override.Strategy, domain.ErrInvalidInput)
	}
	if override.MinSimilarity < 0 || override.MinSimilarity > 1 {
		return fmt.Errorf("min similarity %.2f outside [0, 1]: %w", override.MinSimilarity, domain.ErrInvalidInput)
	}
	return s.saveScope(scope, override)
}

// saveScope writes one scope's overrides and registers its name.
func (s *SettingsService) saveScope(scope string, o domain.ScopeOverride) error {
	prefix := scopePrefix + scope + "."
	values := []struct {
		key   string
		value any
	}{
		{prefix + "chunk_size", o.ChunkSize},
		{prefix + "chunk_overlap", o.ChunkOverlap},
		{prefix + "strategy", string(o.Strategy)},
		{prefix + "min_similarity", o.MinSimilarity},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	names := s.configStore.GetStringSlice(keyScopeNames)
	if !slices.Contains(names, scope) {
		names = append(names, scope)
		slices.Sort(names)
		if err := s.configStore.Set(keyScopeNames, names); err != nil {
			return fmt.Errorf("save %s: %w", keyScopeNames, err)
		}
	}
	return nil
}

// Validate checks the settings for contradictions.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(settings.Ingest.ChunkSize > 0, "chunk size must be positive")
	check(settings.Ingest.ChunkOverlap >= 0 && settings.Ingest.ChunkOverlap < settings.Ingest.ChunkSize,
		"chunk overlap %d must be below chunk size %d", settings.Ingest.ChunkOverlap, settings.Ingest.ChunkSize)
	check(settings.Ingest.Strategy.IsValid(), "invalid chunk strategy: %s", settings.Ingest.Strategy)
	check(settings.Ingest.BatchSize > 0, "batch size must be positive")
	check(settings.Retrieval.MinSimilarity >= 0 && settings.Retrieval.MinSimilarity <= 1,
		"min similarity %.2f outside [0, 1]", settings.Retrieval.MinSimilarity)
	check(settings.Retrieval.MaxContextChunks > 0, "max context chunks must be positive")
	for _, m := range settings.Extraction.Methods {
		check(m.IsValid(), "invalid extraction method: %s", m)
	}
	check(settings.Embedding.IsConfigured(), "embedding provider %q is not configured", settings.Embedding.Provider)
	check(settings.Storage.Registry.IsValid(), "invalid registry backend: %s", settings.Storage.Registry)
	check(settings.Storage.Vector.IsValid(), "invalid vector backend: %s", settings.Storage.Vector)
	check(settings.Storage.Registry != domain.RegistryRedis || settings.Storage.RedisURL != "",
		"redis registry requires %s", keyRedisURL)
	check(settings.Storage.Vector != domain.VectorQdrant || settings.Storage.QdrantURL != "",
		"qdrant vector store requires %s", keyQdrantURL)

	for scope := range settings.ScopeOverrides {
		eff := settings.ForScope(scope).Ingest
		check(eff.ChunkOverlap < eff.ChunkSize,
			"scope %s: chunk overlap %d must be below chunk size %d", scope, eff.ChunkOverlap, eff.ChunkSize)
	}

	return errors.Join(errs...)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.validator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.validator.ValidateEmbedding(&settings.Embedding)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getSetInt treats an explicit 0 as a value, not as unset.
func (s *SettingsService) getSetInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getStrategy(key string, defaultVal domain.ChunkStrategy) domain.ChunkStrategy {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	strategy := domain.ChunkStrategy(val)
	if !strategy.IsValid() {
		return defaultVal
	}
	return strategy
}

// getMethods keeps the configured order and drops unknown names.
func (s *SettingsService) getMethods(defaultVal []domain.ExtractionMethod) []domain.ExtractionMethod {
	names := s.configStore.GetStringSlice(keyExtractMethods)
	if len(names) == 0 {
		return defaultVal
	}
	methods := make([]domain.ExtractionMethod, 0, len(names))
	for _, n := range names {
		m := domain.ExtractionMethod(strings.TrimSpace(n))
		if m.IsValid() {
			methods = append(methods, m)
		}
	}
	if len(methods) == 0 {
		return defaultVal
	}
	return methods
}
