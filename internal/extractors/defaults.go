package extractors

import (
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/extractors/basic"
	"github.com/custodia-labs/sercha-rag/internal/extractors/native"
	"github.com/custodia-labs/sercha-rag/internal/extractors/partition"
	"github.com/custodia-labs/sercha-rag/internal/extractors/poppler"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// NewDefaultChain builds the chain described by the extraction settings.
// The hosted method is only included when an API key is configured.
func NewDefaultChain(cfg domain.ExtractionSettings) *Chain {
	methods := cfg.Methods
	if len(methods) == 0 {
		methods = domain.DefaultExtractionMethods()
	}

	var chain []driven.Extractor
	for _, m := range methods {
		switch m {
		case domain.ExtractionHosted:
			if cfg.HostedAPIKey == "" {
				logger.Debug("extraction: hosted method skipped, no API key")
				continue
			}
			chain = append(chain, partition.New(partition.Config{
				Method:   domain.ExtractionHosted,
				URL:      cfg.HostedURL,
				APIKey:   cfg.HostedAPIKey,
				Strategy: cfg.PartitionStrategy,
			}))
		case domain.ExtractionLocal:
			if cfg.LocalURL == "" {
				continue
			}
			chain = append(chain, partition.New(partition.Config{
				Method:   domain.ExtractionLocal,
				URL:      cfg.LocalURL,
				Strategy: cfg.PartitionStrategy,
			}))
		case domain.ExtractionNative:
			chain = append(chain, native.New())
		case domain.ExtractionPoppler:
			chain = append(chain, poppler.New(cfg.PdftotextPath))
		case domain.ExtractionBasic:
			chain = append(chain, basic.New())
		default:
			logger.Warn("extraction: unknown method %q ignored", m)
		}
	}
	return NewChain(cfg.AttemptTimeout, chain...)
}
