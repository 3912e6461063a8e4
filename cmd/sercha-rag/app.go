package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/cache"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/vector/qdrant"
	vectormem "github.com/custodia-labs/sercha-rag/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
	"github.com/custodia-labs/sercha-rag/internal/extractors"
	"github.com/custodia-labs/sercha-rag/internal/logger"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors"
)

// app owns the wired services and the resources behind them.
type app struct {
	services cli.Services
	closers  []func() error
	ingest   *services.IngestService
}

// newApp loads settings and wires every service from them.
func newApp(configDir string) (*app, error) {
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	a := &app{}
	ctx := context.Background()

	docStore, vectors, err := a.openStores(ctx, settings.Storage)
	if err != nil {
		a.Close()
		return nil, err
	}

	embedder, err := newEmbedder(ctx, &settings.Embedding)
	if err != nil {
		a.Close()
		return nil, err
	}

	writer := services.NewVectorWriter(vectors, settings.Ingest.BatchSize)
	a.ingest = services.NewIngestService(
		docStore,
		extractors.NewDefaultChain(settings.Extraction),
		postprocessors.NewDefaultPipeline(),
		embedder,
		writer,
		*settings,
	)
	search := services.NewSearchService(docStore, vectors, embedder, *settings)
	documents := services.NewDocumentService(docStore, writer, settings.Storage.Collection)
	documents.TrackRuns(a.ingest)

	a.services = cli.Services{
		Ingest:   a.ingest,
		Search:   search,
		Document: documents,
		Settings: settingsService,
		Context:  services.NewContextAssembler(search, *settings),
		Folder:   services.NewFolderSync(a.ingest, documents),
	}
	return a, nil
}

// openStores opens the registry and vector store selected by settings.
// Both sqlite backends share one database.
func (a *app) openStores(ctx context.Context, cfg domain.StorageSettings) (driven.DocumentStore, driven.VectorStore, error) {
	var shared *sqlite.Store
	openSQLite := func() (*sqlite.Store, error) {
		if shared != nil {
			return shared, nil
		}
		store, err := sqlite.NewStore(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		shared = store
		a.closers = append(a.closers, store.Close)
		logger.Debug("sqlite store at %s", store.Path())
		return store, nil
	}

	var docStore driven.DocumentStore
	switch cfg.Registry {
	case domain.RegistryMemory:
		docStore = memory.NewDocumentStore()
	case domain.RegistryRedis:
		store, err := redis.NewStore(ctx, redis.Config{URL: cfg.RedisURL})
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		docStore = store
	default:
		store, err := openSQLite()
		if err != nil {
			return nil, nil, err
		}
		docStore = store.DocumentStore()
	}

	var vectors driven.VectorStore
	switch cfg.Vector {
	case domain.VectorMemory:
		vectors = vectormem.NewStore()
	case domain.VectorQdrant:
		store := qdrant.NewStore(qdrant.Config{URL: cfg.QdrantURL, APIKey: cfg.QdrantAPIKey})
		a.closers = append(a.closers, store.Close)
		vectors = store
	default:
		store, err := openSQLite()
		if err != nil {
			return nil, nil, err
		}
		vectors = store.VectorStore()
	}

	logger.Debug("registry=%s vectors=%s", cfg.Registry, cfg.Vector)
	return docStore, vectors, nil
}

// newEmbedder builds the embedding adapter. A remote provider that cannot
// be created falls back to the local model only when allowed.
func newEmbedder(ctx context.Context, cfg *domain.EmbeddingSettings) (*services.EmbeddingAdapter, error) {
	primary, err := ai.CreateEmbeddingService(ctx, cfg)
	switch {
	case err != nil && !cfg.FallbackToLocal:
		return nil, fmt.Errorf("creating embedding service: %w", err)
	case err != nil:
		logger.Warn("embedding provider %s unavailable, using local model: %v", cfg.Provider, err)
		primary = ai.LocalEmbeddingService()
	case primary == nil:
		primary = ai.LocalEmbeddingService()
	}

	var fallback driven.EmbeddingService
	if cfg.FallbackToLocal && cfg.Provider.IsRemote() {
		fallback = ai.LocalEmbeddingService()
	}

	return services.NewEmbeddingAdapter(cache.New(primary, 0, 0), fallback), nil
}

// Close waits for background ingestion and releases every store.
func (a *app) Close() error {
	if a.ingest != nil {
		a.ingest.Wait()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
