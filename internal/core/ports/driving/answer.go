package driving

import (
	"context"

	"github.com/custodia-labs/lexground/internal/core/domain"
)

// AnswerOptions configures a grounded answer.
type AnswerOptions struct {
	Limit   int
	Filters domain.Filters
}

// AnswerService produces grounded, citation-annotated answers.
type AnswerService interface {
	// Prepare retrieves evidence and returns the grounding context that
	// Answer would use. Callers that must emit citations before streaming
	// (HTTP headers) call Prepare first and pass the response to Generate.
	Prepare(ctx context.Context, question string, opts AnswerOptions) (*domain.RetrievalResponse, error)

	// Generate streams an answer grounded on a prepared response.
	Generate(ctx context.Context, question string, history []domain.ChatMessage,
		grounding *domain.RetrievalResponse, onToken func(string)) (*domain.Answer, error)

	// Answer runs Prepare then Generate.
	Answer(ctx context.Context, question string, history []domain.ChatMessage,
		opts AnswerOptions, onToken func(string)) (*domain.Answer, error)
}
