package domain

import "time"

const unknownDescription = "Unknown"

// Pipeline defaults. Scope overrides and the config file may replace them.
const (
	DefaultChunkSize         = 1000
	DefaultChunkOverlap      = 200
	DefaultBatchSize         = 50
	DefaultMinSimilarity     = 0.2
	DefaultMaxContextChunks  = 10
	DefaultSearchLimit       = 5
	DefaultAttemptTimeout    = 5 * time.Second
	LocalEmbeddingDimensions = 384
	LocalEmbeddingModel      = "hashed-bow-384"
)

// AIProvider identifies an embedding provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderLocal is the in-process embedding model.
	AIProviderLocal AIProvider = "local"

	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderLocal, AIProviderOllama, AIProviderOpenAI, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderGemini
}

// IsRemote returns true if the provider is reached over the network.
func (p AIProvider) IsRemote() bool {
	return p != AIProviderLocal
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable name for the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderLocal:
		return "Local (in-process, 384 dims)"
	case AIProviderOllama:
		return "Ollama (local server)"
	case AIProviderOpenAI:
		return "OpenAI (cloud API)"
	case AIProviderGemini:
		return "Gemini (cloud API)"
	default:
		return unknownDescription
	}
}

// ExtractionMethod names one step of the extraction chain.
type ExtractionMethod string

// Extraction methods in their default order.
const (
	// ExtractionHosted is the remote hosted partition service. Needs an API key.
	ExtractionHosted ExtractionMethod = "hosted"

	// ExtractionLocal is the self-hosted partition service container.
	ExtractionLocal ExtractionMethod = "local"

	// ExtractionNative is the in-process format library extractor.
	ExtractionNative ExtractionMethod = "native"

	// ExtractionPoppler shells out to pdftotext.
	ExtractionPoppler ExtractionMethod = "poppler"

	// ExtractionBasic is the always-available format-aware fallback.
	ExtractionBasic ExtractionMethod = "basic"
)

// IsValid returns true if the method is recognised.
func (m ExtractionMethod) IsValid() bool {
	switch m {
	case ExtractionHosted, ExtractionLocal, ExtractionNative, ExtractionPoppler, ExtractionBasic:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m ExtractionMethod) String() string {
	return string(m)
}

// DefaultExtractionMethods returns the default chain order.
func DefaultExtractionMethods() []ExtractionMethod {
	return []ExtractionMethod{
		ExtractionHosted,
		ExtractionLocal,
		ExtractionNative,
		ExtractionPoppler,
		ExtractionBasic,
	}
}

// ChunkStrategy selects how elements are split into chunks.
type ChunkStrategy string

// Chunk strategies.
const (
	// ChunkAuto detects the strategy from content signatures.
	ChunkAuto ChunkStrategy = "auto"

	// ChunkFixed is a sliding character window with overlap.
	ChunkFixed ChunkStrategy = "fixed"

	// ChunkSemantic accumulates paragraphs with a carried tail.
	ChunkSemantic ChunkStrategy = "semantic"

	// ChunkMarkdown splits on headings first.
	ChunkMarkdown ChunkStrategy = "markdown"

	// ChunkCode splits on top-level declarations first.
	ChunkCode ChunkStrategy = "code"
)

// IsValid returns true if the strategy is recognised.
func (s ChunkStrategy) IsValid() bool {
	switch s {
	case ChunkAuto, ChunkFixed, ChunkSemantic, ChunkMarkdown, ChunkCode:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s ChunkStrategy) String() string {
	return string(s)
}

// RegistryBackend selects the document registry implementation.
type RegistryBackend string

// Registry backends.
const (
	RegistrySQLite RegistryBackend = "sqlite"
	RegistryMemory RegistryBackend = "memory"
	RegistryRedis  RegistryBackend = "redis"
)

// IsValid returns true if the backend is recognised.
func (b RegistryBackend) IsValid() bool {
	return b == RegistrySQLite || b == RegistryMemory || b == RegistryRedis
}

// VectorBackend selects the vector store implementation.
type VectorBackend string

// Vector backends.
const (
	VectorSQLite VectorBackend = "sqlite"
	VectorMemory VectorBackend = "memory"
	VectorQdrant VectorBackend = "qdrant"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	return b == VectorSQLite || b == VectorMemory || b == VectorQdrant
}

// IngestSettings controls chunking and vector writes.
type IngestSettings struct {
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int

	// ChunkOverlap is the carried context between consecutive chunks.
	ChunkOverlap int

	// Strategy is the chunking strategy, or auto.
	Strategy ChunkStrategy

	// BatchSize is the number of vector records written per batch.
	BatchSize int

	// IndexDiagnostics ingests the diagnostic element when extraction fails
	// instead of marking the document failed.
	IndexDiagnostics bool
}

// RetrievalSettings controls search and context assembly.
type RetrievalSettings struct {
	// MinSimilarity is the relevance floor.
	MinSimilarity float64

	// MaxContextChunks caps the chunks injected into a conversation.
	MaxContextChunks int

	// DefaultLimit is used when a search does not set one.
	DefaultLimit int
}

// ExtractionSettings configures the extraction chain.
type ExtractionSettings struct {
	// Methods is the ordered chain. Basic is always appended if missing.
	Methods []ExtractionMethod

	// AttemptTimeout bounds each method attempt.
	AttemptTimeout time.Duration

	// HostedURL is the hosted partition API endpoint.
	HostedURL string

	// HostedAPIKey enables the hosted method when set.
	HostedAPIKey string

	// LocalURL is the self-hosted partition container endpoint.
	LocalURL string

	// PartitionStrategy is passed to partition services (fast, hi_res, auto).
	PartitionStrategy string

	// PdftotextPath is the pdftotext binary used by the poppler method.
	PdftotextPath string
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the primary embedding provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key for remote providers.
	APIKey string

	// FallbackToLocal embeds with the local model when the primary fails.
	FallbackToLocal bool
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// StorageSettings selects and configures persistence backends.
type StorageSettings struct {
	// DataDir holds the sqlite database.
	DataDir string

	// Registry selects the document registry.
	Registry RegistryBackend

	// Vector selects the vector store.
	Vector VectorBackend

	// RedisURL is used by the redis registry.
	RedisURL string

	// QdrantURL and QdrantAPIKey configure the qdrant vector store.
	QdrantURL    string
	QdrantAPIKey string

	// Collection is the vector collection base name.
	Collection string
}

// ScopeOverride replaces selected settings for one scope. Zero fields inherit.
type ScopeOverride struct {
	ChunkSize     int
	ChunkOverlap  int
	Strategy      ChunkStrategy
	MinSimilarity float64
}

// AppSettings holds all application settings.
type AppSettings struct {
	Ingest     IngestSettings
	Retrieval  RetrievalSettings
	Extraction ExtractionSettings
	Embedding  EmbeddingSettings
	Storage    StorageSettings

	// ScopeOverrides maps scope to its overrides.
	ScopeOverrides map[string]ScopeOverride
}

// DefaultAppSettings returns settings with sensible defaults.
// The local embedding provider works without any setup.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Ingest: IngestSettings{
			ChunkSize:    DefaultChunkSize,
			ChunkOverlap: DefaultChunkOverlap,
			Strategy:     ChunkAuto,
			BatchSize:    DefaultBatchSize,
		},
		Retrieval: RetrievalSettings{
			MinSimilarity:    DefaultMinSimilarity,
			MaxContextChunks: DefaultMaxContextChunks,
			DefaultLimit:     DefaultSearchLimit,
		},
		Extraction: ExtractionSettings{
			Methods:           DefaultExtractionMethods(),
			AttemptTimeout:    DefaultAttemptTimeout,
			HostedURL:         "https://api.unstructuredapp.io/general/v0/general",
			LocalURL:          "http://localhost:8000/general/v0/general",
			PartitionStrategy: "fast",
			PdftotextPath:     "pdftotext",
		},
		Embedding: EmbeddingSettings{
			Provider:        AIProviderLocal,
			Model:           LocalEmbeddingModel,
			FallbackToLocal: true,
		},
		Storage: StorageSettings{
			Registry:   RegistrySQLite,
			Vector:     VectorSQLite,
			Collection: "chunks",
		},
	}
}

// ForScope returns a copy of the settings with the scope's overrides applied.
func (s AppSettings) ForScope(scope string) AppSettings {
	o, ok := s.ScopeOverrides[scope]
	if !ok {
		return s
	}
	if o.ChunkSize > 0 {
		s.Ingest.ChunkSize = o.ChunkSize
	}
	if o.ChunkOverlap > 0 {
		s.Ingest.ChunkOverlap = o.ChunkOverlap
	}
	if o.Strategy.IsValid() {
		s.Ingest.Strategy = o.Strategy
	}
	if o.MinSimilarity > 0 {
		s.Retrieval.MinSimilarity = o.MinSimilarity
	}
	return s
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderLocal,
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderLocal:  LocalEmbeddingModel,
		AIProviderOllama: "all-minilm",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGemini: "text-embedding-004",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		LocalEmbeddingModel: LocalEmbeddingDimensions,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"text-embedding-004": 768,
	}
}

// ChunkOptions are the resolved chunking parameters for one document.
type ChunkOptions struct {
	// Size is the maximum chunk length in characters.
	Size int

	// Overlap is the carried context between consecutive chunks.
	Overlap int

	// Strategy is the requested strategy; auto detects from content.
	Strategy ChunkStrategy
}

// ChunkOptions returns the chunking parameters from these settings.
func (s IngestSettings) ChunkOptions() ChunkOptions {
	return ChunkOptions{Size: s.ChunkSize, Overlap: s.ChunkOverlap, Strategy: s.Strategy}
}
