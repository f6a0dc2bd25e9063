package domain

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// NoSourcesMessage is the prompt block used when retrieval found nothing.
const NoSourcesMessage = "No relevant sources found for this query. " +
	"Answer without citations and state that the answer is ungrounded."

// CitationEntry pairs a 1-based citation number with a ranked result.
// Numbers are assigned only when a grounding context is built.
type CitationEntry struct {
	Number     int        `json:"number"`
	ResultID   string     `json:"resultId"`
	Title      string     `json:"title"`
	Source     string     `json:"source"`
	SourceType SourceType `json:"sourceType"`
	Citation   string     `json:"citation,omitempty"`
	URL        string     `json:"url,omitempty"`
	Court      string     `json:"court,omitempty"`
	Date       *time.Time `json:"date,omitempty"`
}

// GroundingContext is the rendered evidence handed to a language model.
// PromptBlocks[i] is labelled with Citations[i].Number.
type GroundingContext struct {
	PromptBlocks string
	Citations    []CitationEntry
}

// IsEmpty returns true if the context carries no citations.
func (g GroundingContext) IsEmpty() bool {
	return len(g.Citations) == 0
}

// CitationsHeader encodes citations for the X-Citations response header.
// The value is base64-encoded JSON so it survives header transport.
func CitationsHeader(citations []CitationEntry) (string, error) {
	if citations == nil {
		citations = []CitationEntry{}
	}
	data, err := json.Marshal(citations)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// ParseCitationsHeader decodes a value produced by CitationsHeader.
func ParseCitationsHeader(value string) ([]CitationEntry, error) {
	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, err
	}
	var citations []CitationEntry
	if err := json.Unmarshal(data, &citations); err != nil {
		return nil, err
	}
	return citations, nil
}

// ChatRole identifies the author of a chat message.
type ChatRole string

// Chat roles understood by the LLM boundary.
const (
	ChatRoleSystem    ChatRole = "system"
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// Answer is a grounded answer with the citations it may reference.
type Answer struct {
	Text      string          `json:"text"`
	Citations []CitationEntry `json:"citations"`
	Degraded  bool            `json:"degraded"`
}

// SourcesPlaceholder marks where an answer prompt template receives the
// grounding prompt blocks. The rest of a template is literal text.
const SourcesPlaceholder = "{{sources}}"

// AnswerSystemPrompt is the default system prompt template for answers.
const AnswerSystemPrompt = `You are a legal research assistant. Answer the user's question using only the sources below.
Cite sources inline as [Source N] using the numbers shown. Do not invent citations, case names or statutes.
If the sources do not answer the question, say so plainly. This is legal information, not legal advice.

Sources:

{{sources}}`
