package websearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driven"
	"github.com/custodia-labs/lexground/internal/normalisers/html"
	"github.com/custodia-labs/lexground/internal/postprocessors/citations"
	"github.com/custodia-labs/lexground/internal/providers"
)

// Ensure Provider implements the interface.
var _ driven.RetrievalProvider = (*Provider)(nil)

// Name is the provider identifier.
const Name = "websearch"

const (
	sourceLabel = "Web"

	// The JSON API returns at most 10 items per request.
	maxPageSize       = 10
	requestsPerSecond = 1.0
	maxPageBytes      = 8 << 20
)

// Web pages carry no jurisdiction, so any jurisdiction filter skips the
// live search.
var scope = providers.Scope{DocumentTypes: []string{"commentary"}}

// Config configures the web search provider.
type Config struct {
	// APIKey and EngineID identify the Programmable Search Engine.
	// Either one empty means curated results only.
	APIKey   string
	EngineID string

	// BaseURL overrides the Custom Search endpoint.
	BaseURL string

	// HTTPClient fetches result pages for import.
	HTTPClient *http.Client

	Breaker providers.BreakerConfig
}

// Provider searches the web for legal sources.
type Provider struct {
	cfg        Config
	client     *http.Client
	limiter    *providers.RateLimiter
	fallback   *providers.Fallback
	normaliser *html.Normaliser
}

// New creates a web search provider.
func New(cfg Config) *Provider {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Provider{
		cfg:        cfg,
		client:     client,
		limiter:    providers.NewRateLimiter(requestsPerSecond, 2),
		fallback:   providers.NewFallback(Name, providers.NewBreaker(Name, cfg.Breaker), curatedSet()).WithScope(scope),
		normaliser: html.New(),
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return Name
}

func (p *Provider) configured() bool {
	return p.cfg.APIKey != "" && p.cfg.EngineID != ""
}

// Search returns web pages matching query.
func (p *Provider) Search(ctx context.Context, query string, opts domain.RetrievalOptions) ([]domain.SearchResult, error) {
	var live providers.LiveSearch
	if p.configured() {
		live = func(ctx context.Context) ([]domain.SearchResult, error) {
			return p.searchLive(ctx, query, opts.Limit)
		}
	}
	return p.fallback.Search(ctx, query, opts, live)
}

// HealthCheck runs a one-result query.
func (p *Provider) HealthCheck(ctx context.Context) domain.ProviderHealth {
	var ping func(context.Context) error
	if p.configured() {
		ping = func(ctx context.Context) error {
			_, err := p.searchLive(ctx, "statute", 1)
			return err
		}
	}
	return p.fallback.Health(ctx, ping)
}

// Fetch downloads a result page by URL and extracts its text.
func (p *Provider) Fetch(ctx context.Context, id string) (*domain.Document, error) {
	u, err := url.Parse(id)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: websearch id must be an http(s) URL: %q", domain.ErrInvalidInput, id)
	}

	return p.fallback.Fetch(ctx, id, func(ctx context.Context) (*domain.Document, error) {
		return p.fetchPage(ctx, u.String())
	})
}

func (p *Provider) searchLive(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	opts := []option.ClientOption{option.WithAPIKey(p.cfg.APIKey)}
	if p.cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(p.cfg.BaseURL))
	}
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create custom search service: %w", err)
	}

	num := limit
	if num <= 0 || num > maxPageSize {
		num = maxPageSize
	}

	resp, err := svc.Cse.List().Q(query).Cx(p.cfg.EngineID).Num(int64(num)).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
			p.limiter.RecordRateLimit(0)
		}
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil || item.Link == "" {
			continue
		}
		results = append(results, toResult(item))
	}
	return results, nil
}

func (p *Provider) fetchPage(ctx context.Context, link string) (*domain.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	body, err := providers.Do(p.client, req)
	if err != nil {
		if providers.IsNotFound(err) {
			return nil, fmt.Errorf("page %s: %w", link, domain.ErrNotFound)
		}
		return nil, err
	}
	if len(body) > maxPageBytes {
		body = body[:maxPageBytes]
	}

	doc, err := p.normaliser.Normalise(ctx, &domain.RawDocument{URI: link, MIMEType: "text/html", Content: body})
	if err != nil {
		return nil, err
	}
	doc.Source = sourceLabel
	doc.SourceURL = link
	doc.DocumentType = "commentary"
	doc.Metadata["citation"] = firstCitation(doc.Content)
	return doc, nil
}

func toResult(item *customsearch.Result) domain.SearchResult {
	snippet := strings.Join(strings.Fields(item.Snippet), " ")
	return domain.SearchResult{
		ID:       item.Link,
		Title:    strings.TrimSpace(item.Title),
		Content:  snippet,
		Source:   displaySource(item),
		Citation: firstCitation(item.Title + " " + snippet),
		URL:      item.Link,
		Provider: Name,
	}
}

func displaySource(item *customsearch.Result) string {
	if item.DisplayLink != "" {
		return item.DisplayLink
	}
	return sourceLabel
}

func firstCitation(text string) string {
	if cites := citations.Extract(text); len(cites) > 0 {
		return cites[0]
	}
	return ""
}
