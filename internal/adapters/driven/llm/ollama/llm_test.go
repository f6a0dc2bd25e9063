package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driven"
)

func TestStreamChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		assert.Equal(t, 128, req.Options.NumPredict)

		for _, token := range []string{"The ", "statute ", "applies."} {
			_, _ = fmt.Fprintf(w, "{\"message\":{\"role\":\"assistant\",\"content\":%q},\"done\":false}\n", token)
		}
		_, _ = fmt.Fprint(w, "{\"message\":{\"role\":\"assistant\",\"content\":\"\"},\"done\":true}\n")
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})
	var tokens []string
	reply, err := svc.StreamChat(context.Background(),
		[]domain.ChatMessage{{Role: domain.ChatRoleUser, Content: "Does it apply?"}},
		driven.ChatOptions{MaxTokens: 128}, func(tok string) { tokens = append(tokens, tok) })

	require.NoError(t, err)
	assert.Equal(t, "The statute applies.", reply)
	assert.Equal(t, []string{"The ", "statute ", "applies."}, tokens)
}

func TestStreamChat_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"status", http.StatusNotFound, `model not found`, "status 404"},
		{"stream error", http.StatusOK, "{\"error\":\"out of memory\"}\n", "out of memory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			_, err := NewLLMService(LLMConfig{BaseURL: server.URL}).StreamChat(context.Background(), nil, driven.ChatOptions{}, nil)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
