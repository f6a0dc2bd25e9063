// Package mcp provides an MCP (Model Context Protocol) server adapter for lexground.
// It lets AI assistants retrieve grounded legal evidence with citations.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
