// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/lexground/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/lexground/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/lexground/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/lexground/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/lexground/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driven"
	"github.com/custodia-labs/lexground/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the upstream AI services built from settings.
type InitResult struct {
	// Embedder is nil when no embedding provider is configured or
	// reachable. The embedding service then serves fallback vectors.
	Embedder driven.EmbeddingService

	// LLM is nil when answering is unavailable.
	LLM driven.LLMService

	// Warnings lists non-fatal issues that disabled a service.
	Warnings []string
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.Embedder != nil {
		_ = r.Embedder.Close()
	}
	if r.LLM != nil {
		_ = r.LLM.Close()
	}
}

// Init builds both services. An unreachable upstream is not fatal: it is
// logged, recorded as a warning and left nil.
func Init(ctx context.Context, settings *domain.Settings) *InitResult {
	result := &InitResult{}

	embedder, err := CreateAndValidateEmbeddingService(ctx, &settings.Embedding)
	if err != nil {
		logger.Warn("embedding upstream disabled: %v", err)
		result.Warnings = append(result.Warnings, err.Error())
	}
	result.Embedder = embedder

	llm, err := CreateAndValidateLLMService(ctx, &settings.LLM)
	if err != nil {
		logger.Warn("llm disabled: %v", err)
		result.Warnings = append(result.Warnings, err.Error())
	}
	result.LLM = llm

	return result
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
func CreateAndValidateEmbeddingService(
	ctx context.Context, settings *domain.EmbeddingSettings,
) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		return nil, err
	}
	if err := ping(ctx, svc.Ping); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: %s unreachable: %w", domain.ErrEmbeddingDegraded, settings.Provider, err)
	}
	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
func CreateAndValidateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil || svc == nil {
		return nil, err
	}
	if err := ping(ctx, svc.Ping); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: %s unreachable: %w", domain.ErrLLMUnavailable, settings.Provider, err)
	}
	return svc, nil
}

// CreateEmbeddingService creates the embedding adapter for the settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider == domain.AIProviderAnthropic {
		return nil, fmt.Errorf("%w: anthropic does not support embeddings", domain.ErrInvalidInput)
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}), nil
	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidInput, settings.Provider)
	}
}

// CreateLLMService creates the chat adapter for the settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil
	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q", domain.ErrInvalidInput, settings.Provider)
	}
}

func ping(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return fn(ctx)
}
