// Package messages defines the tea.Msg types exchanged between views.
package messages

import (
	"github.com/custodia-labs/lexground/internal/core/domain"
)

// ViewType identifies a top-level view.
type ViewType int

const (
	// ViewSearch is the query input and result list.
	ViewSearch ViewType = iota
	// ViewReader shows a single source or a streamed answer.
	ViewReader
)

// String returns the view name.
func (v ViewType) String() string {
	switch v {
	case ViewSearch:
		return "search"
	case ViewReader:
		return "reader"
	default:
		return "unknown"
	}
}

// ViewChanged switches the active view.
type ViewChanged struct {
	View ViewType
}

// SearchCompleted carries a retrieval response.
type SearchCompleted struct {
	Query    string
	Response *domain.RetrievalResponse
	Err      error
}

// SourceOpened asks the reader to show one result.
type SourceOpened struct {
	Result   domain.SearchResult
	Citation domain.CitationEntry
}

// AnswerRequested asks the reader to stream an answer grounded on an
// existing retrieval response.
type AnswerRequested struct {
	Query     string
	Grounding *domain.RetrievalResponse
}

// AnswerToken is one streamed piece of answer text.
type AnswerToken struct {
	Text string
}

// AnswerCompleted ends an answer stream.
type AnswerCompleted struct {
	Answer *domain.Answer
	Err    error
}

// ErrorOccurred reports a failure to the active view.
type ErrorOccurred struct {
	Err error
}
