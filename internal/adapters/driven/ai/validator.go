package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

var _ driven.EmbeddingValidator = (*ConfigValidator)(nil)

// DefaultPingTimeout bounds a validation ping.
const DefaultPingTimeout = 5 * time.Second

// ConfigValidator checks an embedding configuration by building the
// service and pinging it.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator creates a validator with the default ping timeout.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{timeout: DefaultPingTimeout}
}

// ValidateEmbedding returns nil for an unconfigured provider. Otherwise
// it wraps any failure in domain.ErrEmbeddingUnavailable.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	svc, err := CreateEmbeddingService(ctx, config)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil || svc.Provider() == domain.AIProviderLocal {
		return nil
	}
	defer svc.Close()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %s unreachable: %w", domain.ErrEmbeddingUnavailable, config.Provider, err)
	}
	return nil
}
