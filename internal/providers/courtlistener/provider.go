package courtlistener

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driven"
	"github.com/custodia-labs/lexground/internal/normalisers/html"
	"github.com/custodia-labs/lexground/internal/providers"
)

// Ensure Provider implements the interface.
var _ driven.RetrievalProvider = (*Provider)(nil)

// Name is the provider identifier.
const Name = "courtlistener"

const (
	// DefaultBaseURL is the CourtListener REST API root.
	DefaultBaseURL = "https://www.courtlistener.com/api/rest/v4"

	webBaseURL  = "https://www.courtlistener.com"
	sourceLabel = "CourtListener"

	// CourtListener allows 5000 requests per hour per token.
	requestsPerSecond = 1.2
	maxPageSize       = 20
)

// federalCourts are the court ids searched for the "federal" jurisdiction.
var federalCourts = []string{
	"scotus", "ca1", "ca2", "ca3", "ca4", "ca5", "ca6", "ca7", "ca8", "ca9",
	"ca10", "ca11", "cadc", "cafc",
}

// Jurisdiction filters other than "federal" are passed to the API as
// court ids.
var scope = providers.Scope{DocumentTypes: []string{"case"}, AnyJurisdiction: true}

// Config configures the CourtListener provider.
type Config struct {
	// BaseURL overrides DefaultBaseURL.
	BaseURL string

	// Token is the API token. Empty means curated results only.
	Token string

	// HTTPClient is the base client wrapped with token auth.
	HTTPClient *http.Client

	// Breaker configures the circuit breaker.
	Breaker providers.BreakerConfig
}

// Provider searches case law on CourtListener.
type Provider struct {
	baseURL  string
	client   *http.Client
	hasToken bool
	limiter  *providers.RateLimiter
	fallback *providers.Fallback
}

// New creates a CourtListener provider.
func New(cfg Config) *Provider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: 30 * time.Second}
	}

	client := base
	if cfg.Token != "" {
		// CourtListener expects "Authorization: Token <key>".
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Token"})
		client = &http.Client{
			Timeout:   base.Timeout,
			Transport: &oauth2.Transport{Source: src, Base: base.Transport},
		}
	}

	return &Provider{
		baseURL:  baseURL,
		client:   client,
		hasToken: cfg.Token != "",
		limiter:  providers.NewRateLimiter(requestsPerSecond, 5),
		fallback: providers.NewFallback(Name, providers.NewBreaker(Name, cfg.Breaker), curatedSet()).WithScope(scope),
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return Name
}

// Search returns opinions matching query.
func (p *Provider) Search(ctx context.Context, query string, opts domain.RetrievalOptions) ([]domain.SearchResult, error) {
	var live providers.LiveSearch
	if p.hasToken {
		live = func(ctx context.Context) ([]domain.SearchResult, error) {
			return p.searchLive(ctx, query, opts)
		}
	}
	return p.fallback.Search(ctx, query, opts, live)
}

// HealthCheck pings the API root.
func (p *Provider) HealthCheck(ctx context.Context) domain.ProviderHealth {
	var ping func(context.Context) error
	if p.hasToken {
		ping = func(ctx context.Context) error {
			return p.get(ctx, p.baseURL+"/", nil)
		}
	}
	return p.fallback.Health(ctx, ping)
}

// Fetch retrieves an opinion by ID with its cluster metadata.
func (p *Provider) Fetch(ctx context.Context, id string) (*domain.Document, error) {
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return nil, fmt.Errorf("%w: courtlistener opinion id must be numeric: %q", domain.ErrInvalidInput, id)
	}

	var fetch func(context.Context) (*domain.Document, error)
	if p.hasToken {
		fetch = func(ctx context.Context) (*domain.Document, error) {
			return p.fetchLive(ctx, id)
		}
	}
	return p.fallback.Fetch(ctx, id, fetch)
}

func (p *Provider) searchLive(ctx context.Context, query string, opts domain.RetrievalOptions) ([]domain.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "o")
	params.Set("order_by", "score desc")
	if n := pageSize(opts.Limit); n > 0 {
		params.Set("page_size", strconv.Itoa(n))
	}
	if j := strings.ToLower(opts.Filters.Jurisdiction); j == "federal" {
		params.Set("court", strings.Join(federalCourts, " "))
	} else if j != "" {
		params.Set("court", j)
	}

	var resp searchResponse
	if err := p.get(ctx, p.baseURL+"/search/?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		doc := &domain.Document{Jurisdiction: jurisdiction(r.CourtID), DocumentType: "case"}
		if !opts.Filters.Matches(doc) {
			continue
		}
		results = append(results, r.toResult())
	}
	return results, nil
}

func (p *Provider) fetchLive(ctx context.Context, id string) (*domain.Document, error) {
	var op opinionResponse
	if err := p.get(ctx, fmt.Sprintf("%s/opinions/%s/", p.baseURL, id), &op); err != nil {
		if providers.IsNotFound(err) {
			return nil, fmt.Errorf("opinion %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}

	var cl clusterResponse
	if op.Cluster != "" {
		if err := p.get(ctx, op.Cluster, &cl); err != nil {
			return nil, fmt.Errorf("cluster for opinion %s: %w", id, err)
		}
	}

	text := strings.TrimSpace(op.PlainText)
	if text == "" {
		text = html.Text(op.HTMLWithCitations)
	}
	if text == "" {
		return nil, fmt.Errorf("opinion %s has no text: %w", id, domain.ErrNotFound)
	}

	doc := &domain.Document{
		Title:        cl.CaseName,
		Content:      text,
		Source:       sourceLabel,
		SourceURL:    webBaseURL + op.AbsoluteURL,
		DocumentType: "case",
		PublishedAt:  parseDate(cl.DateFiled),
		Metadata: map[string]any{
			"opinion_id": id,
			"citation":   cl.citation(),
		},
	}
	if doc.Title == "" {
		doc.Title = "CourtListener opinion " + id
	}
	return doc, nil
}

func (p *Provider) get(ctx context.Context, endpoint string, out any) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	err := providers.GetJSON(ctx, p.client, endpoint, out)
	p.limiter.Observe(err)
	return err
}

func pageSize(limit int) int {
	if limit <= 0 {
		return 0
	}
	return min(limit, maxPageSize)
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil
	}
	return &t
}
