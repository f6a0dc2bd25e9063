// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/custodia-labs/lexground/internal/core/domain"
)

// LLMService is the language model boundary. It accepts a conversation that
// already carries the grounding context and streams text back.
// This is an optional service - when nil, answer generation is disabled.
//
// Implementations may include:
//   - OpenAI and OpenAI-compatible servers
//   - Ollama (local models)
type LLMService interface {
	// StreamChat sends the conversation and calls onToken for every text
	// fragment as it arrives. It returns the full concatenated reply.
	StreamChat(ctx context.Context, messages []domain.ChatMessage, opts ChatOptions, onToken func(string)) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
