package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driven"
	"github.com/custodia-labs/lexground/internal/core/ports/driving"
	"github.com/custodia-labs/lexground/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// Answer defaults.
const (
	// DefaultMaxHistory is the number of prior turns sent to the model.
	DefaultMaxHistory = 10

	// DefaultAnswerMaxTokens bounds the generated answer.
	DefaultAnswerMaxTokens = 1024

	// DefaultAnswerTemperature keeps answers close to the sources.
	DefaultAnswerTemperature = 0.2
)

// AnswerService generates answers grounded on retrieved sources.
type AnswerService struct {
	retrieval  driving.RetrievalService
	llm        driven.LLMService
	prompts    driven.PromptStore
	chat       driven.ChatOptions
	maxHistory int
}

// AnswerOption configures an AnswerService.
type AnswerOption func(*AnswerService)

// WithPrompts loads the system prompt template from a user-editable store.
func WithPrompts(prompts driven.PromptStore) AnswerOption {
	return func(s *AnswerService) {
		s.prompts = prompts
	}
}

// NewAnswerService creates an answer service. llm may be nil, in which
// case Prepare still works and generation returns domain.ErrLLMUnavailable.
func NewAnswerService(retrieval driving.RetrievalService, llm driven.LLMService, opts ...AnswerOption) *AnswerService {
	s := &AnswerService{
		retrieval: retrieval,
		llm:       llm,
		chat: driven.ChatOptions{
			MaxTokens:   DefaultAnswerMaxTokens,
			Temperature: DefaultAnswerTemperature,
		},
		maxHistory: DefaultMaxHistory,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// systemTemplate returns the stored template when it has exactly one
// sources placeholder, otherwise the built-in one.
func (s *AnswerService) systemTemplate() string {
	if s.prompts == nil {
		return domain.AnswerSystemPrompt
	}
	tmpl, err := s.prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		logger.Warn("loading answer prompt: %v", err)
		return domain.AnswerSystemPrompt
	}
	if _, ok := sourcesSlot(tmpl); !ok {
		logger.Warn("answer prompt must contain %s exactly once, using the default", domain.SourcesPlaceholder)
		return domain.AnswerSystemPrompt
	}
	return tmpl
}

// sourcesSlot returns the placeholder tmpl uses for the sources: the named
// one, or a single %s in templates saved before it existed.
func sourcesSlot(tmpl string) (string, bool) {
	switch named := strings.Count(tmpl, domain.SourcesPlaceholder); {
	case named == 1:
		return domain.SourcesPlaceholder, true
	case named == 0 && strings.Count(tmpl, "%s") == 1:
		return "%s", true
	default:
		return "", false
	}
}

// renderSystemPrompt puts promptBlocks in the template's sources slot.
// Nothing else in the template is interpreted.
func renderSystemPrompt(tmpl, promptBlocks string) string {
	slot, ok := sourcesSlot(tmpl)
	if !ok {
		return tmpl + "\n\n" + promptBlocks
	}
	return strings.Replace(tmpl, slot, promptBlocks, 1)
}

// Prepare retrieves the evidence for question.
func (s *AnswerService) Prepare(
	ctx context.Context, question string, opts driving.AnswerOptions,
) (*domain.RetrievalResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	return s.retrieval.Retrieve(ctx, domain.RetrievalRequest{
		Query:   question,
		Limit:   opts.Limit,
		Filters: opts.Filters,
	})
}

// Generate streams an answer grounded on a prepared response.
func (s *AnswerService) Generate(
	ctx context.Context,
	question string,
	history []domain.ChatMessage,
	grounding *domain.RetrievalResponse,
	onToken func(string),
) (*domain.Answer, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	if grounding == nil {
		grounding = &domain.RetrievalResponse{
			PromptBlocks: domain.NoSourcesMessage,
			Citations:    []domain.CitationEntry{},
		}
	}

	messages := buildMessages(s.systemTemplate(), question, history, grounding.PromptBlocks, s.maxHistory)
	logger.Debug("generating answer with %s from %d sources", s.llm.ModelName(), len(grounding.Citations))

	text, err := s.llm.StreamChat(ctx, messages, s.chat, onToken)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}

	return &domain.Answer{
		Text:      text,
		Citations: grounding.Citations,
		Degraded:  grounding.Degraded,
	}, nil
}

// Answer retrieves evidence and streams a grounded answer.
func (s *AnswerService) Answer(
	ctx context.Context,
	question string,
	history []domain.ChatMessage,
	opts driving.AnswerOptions,
	onToken func(string),
) (*domain.Answer, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	grounding, err := s.Prepare(ctx, question, opts)
	if err != nil {
		return nil, err
	}
	return s.Generate(ctx, question, history, grounding, onToken)
}

// BuildMessages assembles the conversation sent to the model: the system
// prompt with the grounding blocks, the most recent maxHistory user and
// assistant turns, then the question. System turns in history are dropped
// so callers cannot replace the grounding instructions.
func BuildMessages(question string, history []domain.ChatMessage, promptBlocks string, maxHistory int) []domain.ChatMessage {
	return buildMessages(domain.AnswerSystemPrompt, question, history, promptBlocks, maxHistory)
}

func buildMessages(
	template, question string, history []domain.ChatMessage, promptBlocks string, maxHistory int,
) []domain.ChatMessage {
	var turns []domain.ChatMessage
	for _, m := range history {
		if m.Role == domain.ChatRoleSystem || strings.TrimSpace(m.Content) == "" {
			continue
		}
		turns = append(turns, m)
	}
	if maxHistory >= 0 && len(turns) > maxHistory {
		turns = turns[len(turns)-maxHistory:]
	}

	messages := make([]domain.ChatMessage, 0, len(turns)+2)
	messages = append(messages, domain.ChatMessage{
		Role:    domain.ChatRoleSystem,
		Content: renderSystemPrompt(template, promptBlocks),
	})
	messages = append(messages, turns...)
	messages = append(messages, domain.ChatMessage{
		Role:    domain.ChatRoleUser,
		Content: strings.TrimSpace(question),
	})
	return messages
}
