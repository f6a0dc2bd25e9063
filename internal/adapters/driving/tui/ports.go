// Package tui provides the interactive research terminal interface. It is a
// driving adapter over the retrieval and answer services.
package tui

import (
	"github.com/custodia-labs/lexground/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI uses.
type Ports struct {
	// Retrieval runs searches. Required.
	Retrieval driving.RetrievalService

	// Answer streams grounded answers. Optional; without it the ask key
	// reports that no language model is configured.
	Answer driving.AnswerService
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
