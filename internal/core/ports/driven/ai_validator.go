package driven

import "github.com/custodia-labs/lexground/internal/core/domain"

// AIConfigValidator checks AI settings against the live upstream before
// they are persisted. Unconfigured settings pass.
type AIConfigValidator interface {
	// ValidateEmbedding reports an unreachable provider, a missing model or
	// vectors whose size differs from the configured dimensions.
	ValidateEmbedding(settings *domain.EmbeddingSettings) error

	// ValidateLLM reports an unreachable chat provider.
	ValidateLLM(settings *domain.LLMSettings) error
}
