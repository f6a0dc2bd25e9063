package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrInvalidFilters", ErrInvalidFilters},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingDegraded", ErrEmbeddingDegraded},
		{"ErrVectorQueryFailed", ErrVectorQueryFailed},
		{"ErrProviderUnavailable", ErrProviderUnavailable},
		{"ErrProviderNotFound", ErrProviderNotFound},
		{"ErrDimensionMismatch", ErrDimensionMismatch},
		{"ErrStoreUnavailable", ErrStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrors_Wrapping tests that wrapped errors are still classified
func TestErrors_Wrapping(t *testing.T) {
	wrapped := fmt.Errorf("courtlistener: %w", ErrProviderUnavailable)

	assert.True(t, errors.Is(wrapped, ErrProviderUnavailable))
	assert.False(t, errors.Is(wrapped, ErrVectorQueryFailed))
}

// TestErrors_Distinct tests that sentinel errors are distinct
func TestErrors_Distinct(t *testing.T) {
	assert.False(t, errors.Is(ErrEmbeddingDegraded, ErrVectorQueryFailed))
	assert.False(t, errors.Is(ErrInvalidFilters, ErrInvalidInput))
}
