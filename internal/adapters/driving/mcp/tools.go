package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/lexground/internal/core/domain"
)

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query        string `json:"query" jsonschema:"the legal research question or search terms"`
	Limit        int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10, max 50)"`
	Jurisdiction string `json:"jurisdiction,omitempty" jsonschema:"only return sources from this jurisdiction"`
	PracticeArea string `json:"practiceArea,omitempty" jsonschema:"only return sources in this practice area"`
	DocumentType string `json:"documentType,omitempty" jsonschema:"only return sources of this type, such as case or statute"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Results      []ResultOutput         `json:"results"`
	Citations    []domain.CitationEntry `json:"citations"`
	PromptBlocks string                 `json:"promptBlocks"`
	Degraded     bool                   `json:"degraded"`
	Count        int                    `json:"count"`
}

// ResultOutput represents a single ranked source.
type ResultOutput struct {
	Rank       int     `json:"rank"`
	Title      string  `json:"title"`
	Source     string  `json:"source"`
	SourceType string  `json:"sourceType"`
	Citation   string  `json:"citation,omitempty"`
	Court      string  `json:"court,omitempty"`
	Date       string  `json:"date,omitempty"`
	URL        string  `json:"url,omitempty"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

// HealthInput is the empty input of the provider_health tool.
type HealthInput struct{}

// HealthOutput lists provider availability.
type HealthOutput struct {
	Providers []domain.ProviderHealth `json:"providers"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "retrieve",
		Description: "Retrieve ranked legal sources for a question from the local library, " +
			"case law, statutes and the web. Returns numbered citations and prompt blocks " +
			"to ground an answer; cite sources as [Source N].",
	}, s.handleRetrieve)

	if s.ports.Providers != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "provider_health",
			Description: "Report whether each retrieval provider is online, limited to curated results, or offline",
		}, s.handleHealth)
	}
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	resp, err := s.ports.Retrieval.Retrieve(ctx, domain.RetrievalRequest{
		Query: input.Query,
		Limit: input.Limit,
		Filters: domain.Filters{
			Jurisdiction: input.Jurisdiction,
			PracticeArea: input.PracticeArea,
			DocumentType: input.DocumentType,
		},
	})
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Results:      make([]ResultOutput, len(resp.Results)),
		Citations:    resp.Citations,
		PromptBlocks: resp.PromptBlocks,
		Degraded:     resp.Degraded,
		Count:        len(resp.Results),
	}
	if output.Citations == nil {
		output.Citations = []domain.CitationEntry{}
	}

	for i := range resp.Results {
		r := resp.Results[i]
		out := ResultOutput{
			Rank:       r.Rank,
			Title:      r.Title,
			Source:     r.Source,
			SourceType: string(r.SourceType),
			Citation:   r.Citation,
			Court:      r.Court,
			URL:        r.URL,
			Score:      r.Score,
			Content:    r.Content,
		}
		if r.Date != nil {
			out.Date = r.Date.Format(time.DateOnly)
		}
		output.Results[i] = out
	}

	return nil, output, nil
}

func (s *Server) handleHealth(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ HealthInput,
) (*mcp.CallToolResult, HealthOutput, error) {
	return nil, HealthOutput{Providers: s.ports.Providers.Health(ctx)}, nil
}
