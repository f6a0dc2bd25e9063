package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driven"
)

// sampleText is embedded once to confirm the model is loaded and returns
// vectors of the configured size.
const sampleText = "Miranda v. Arizona, 384 U.S. 436 (1966)"

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks settings against the live upstream before they
// are saved. A stored chunk set is only comparable with query vectors of
// the same size, so embedding settings are exercised as well as pinged.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator returns a validator bounded by the ping timeout.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{timeout: pingTimeout}
}

// WithTimeout overrides the per-check timeout.
func (v *ConfigValidator) WithTimeout(d time.Duration) *ConfigValidator {
	if d > 0 {
		v.timeout = d
	}
	return v
}

// ValidateEmbedding pings the provider and embeds a short sample. Unset
// settings are valid: retrieval then runs on fallback vectors.
func (v *ConfigValidator) ValidateEmbedding(settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%s: %w", settings.Provider, err)
	}
	vec, err := svc.Embed(ctx, sampleText)
	if err != nil {
		return fmt.Errorf("%s model %s: %w", settings.Provider, svc.ModelName(), err)
	}
	if want := svc.Dimensions(); len(vec) != want {
		return fmt.Errorf("%s model %s returned %d dimensions, want %d: %w",
			settings.Provider, svc.ModelName(), len(vec), want, domain.ErrDimensionMismatch)
	}
	return nil
}

// ValidateLLM pings the chat provider. Unset settings are valid.
func (v *ConfigValidator) ValidateLLM(settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%s: %w", settings.Provider, err)
	}
	return nil
}
