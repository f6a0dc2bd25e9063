package govinfo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driven"
	"github.com/custodia-labs/lexground/internal/normalisers/html"
	"github.com/custodia-labs/lexground/internal/postprocessors/citations"
	"github.com/custodia-labs/lexground/internal/providers"
)

// Ensure Provider implements the interface.
var _ driven.RetrievalProvider = (*Provider)(nil)

// Name is the provider identifier.
const Name = "govinfo"

const (
	// DefaultBaseURL is the GovInfo API root.
	DefaultBaseURL = "https://api.govinfo.gov"

	webBaseURL  = "https://www.govinfo.gov"
	sourceLabel = "GovInfo"

	// api.data.gov keys allow 1000 requests per hour.
	requestsPerSecond = 0.25
	burst             = 4
	maxPageSize       = 100
)

// Only statutes and regulations are searched.
var scope = providers.Scope{
	DocumentTypes: []string{"statute", "regulation"},
	Jurisdictions: []string{"federal"},
}

// Config configures the GovInfo provider.
type Config struct {
	// BaseURL overrides DefaultBaseURL.
	BaseURL string

	// APIKey is the api.data.gov key. Empty means curated results only.
	APIKey string

	HTTPClient *http.Client

	// RequestsPerSecond overrides the proactive pacing rate.
	RequestsPerSecond float64

	Breaker providers.BreakerConfig
}

var titleCitation = regexp.MustCompile(`^\s*(\d{1,2})\s+(U\.S\.C\.|CFR)\s+([0-9][0-9A-Za-z.\-]*[0-9A-Za-z])`)

// Provider searches statutes and regulations on GovInfo.
type Provider struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	limiter  *providers.RateLimiter
	fallback *providers.Fallback
}

// New creates a GovInfo provider.
func New(cfg Config) *Provider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = requestsPerSecond
	}

	return &Provider{
		baseURL:  baseURL,
		apiKey:   cfg.APIKey,
		client:   client,
		limiter:  providers.NewRateLimiter(rps, burst),
		fallback: providers.NewFallback(Name, providers.NewBreaker(Name, cfg.Breaker), curatedSet()).WithScope(scope),
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return Name
}

// Search returns U.S. Code sections and CFR parts matching query.
func (p *Provider) Search(ctx context.Context, query string, opts domain.RetrievalOptions) ([]domain.SearchResult, error) {
	var live providers.LiveSearch
	if p.apiKey != "" {
		live = func(ctx context.Context) ([]domain.SearchResult, error) {
			return p.searchLive(ctx, query, opts)
		}
	}
	return p.fallback.Search(ctx, query, opts, live)
}

// HealthCheck lists collections, the cheapest authenticated call.
func (p *Provider) HealthCheck(ctx context.Context) domain.ProviderHealth {
	var ping func(context.Context) error
	if p.apiKey != "" {
		ping = func(ctx context.Context) error {
			return p.get(ctx, "/collections", nil)
		}
	}
	return p.fallback.Health(ctx, ping)
}

// Fetch retrieves a granule by "packageId/granuleId".
func (p *Provider) Fetch(ctx context.Context, id string) (*domain.Document, error) {
	pkg, granule, ok := strings.Cut(id, "/")
	if !ok || pkg == "" || granule == "" || strings.ContainsAny(id, "?#") {
		return nil, fmt.Errorf("%w: govinfo id must be packageId/granuleId: %q", domain.ErrInvalidInput, id)
	}

	var fetch func(context.Context) (*domain.Document, error)
	if p.apiKey != "" {
		fetch = func(ctx context.Context) (*domain.Document, error) {
			return p.fetchLive(ctx, pkg, granule)
		}
	}
	return p.fallback.Fetch(ctx, id, fetch)
}

func (p *Provider) searchLive(ctx context.Context, query string, opts domain.RetrievalOptions) ([]domain.SearchResult, error) {
	pageSize := opts.Limit
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = domain.DefaultRetrievalLimit
	}

	req := searchRequest{
		Query:      fmt.Sprintf("%s %s", query, collectionClause(opts.Filters.DocumentType)),
		PageSize:   pageSize,
		OffsetMark: "*",
		Sorts:      []sortField{{Field: "score", SortOrder: "DESC"}},
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var resp searchResponse
	err := providers.PostJSON(ctx, p.client, p.endpoint("/search", nil), req, &resp)
	p.limiter.Observe(err)
	if err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		doc := &domain.Document{Jurisdiction: "federal", DocumentType: documentType(r.CollectionCode)}
		if !opts.Filters.Matches(doc) {
			continue
		}
		results = append(results, r.toResult())
	}
	return results, nil
}

// collectionClause narrows the search to the collections holding docType.
func collectionClause(docType string) string {
	switch strings.ToLower(docType) {
	case "statute":
		return "collection:(USCODE)"
	case "regulation":
		return "collection:(CFR)"
	default:
		return "collection:(USCODE OR CFR)"
	}
}

func (p *Provider) fetchLive(ctx context.Context, pkg, granule string) (*domain.Document, error) {
	path := fmt.Sprintf("/packages/%s/granules/%s/summary", url.PathEscape(pkg), url.PathEscape(granule))

	var summary granuleSummary
	if err := p.get(ctx, path, &summary); err != nil {
		if providers.IsNotFound(err) {
			return nil, fmt.Errorf("granule %s/%s: %w", pkg, granule, domain.ErrNotFound)
		}
		return nil, err
	}
	if summary.Download.TxtLink == "" {
		return nil, fmt.Errorf("granule %s/%s has no html rendition: %w", pkg, granule, domain.ErrNotFound)
	}

	body, err := p.download(ctx, summary.Download.TxtLink)
	if err != nil {
		return nil, err
	}

	text := html.Text(string(body))
	return &domain.Document{
		Title:        summary.Title,
		Content:      text,
		Source:       sourceLabel,
		SourceURL:    summary.DetailsLink,
		Jurisdiction: "federal",
		DocumentType: documentType(summary.CollectionCode),
		PublishedAt:  parseDate(summary.DateIssued),
		Metadata: map[string]any{
			"package_id": pkg,
			"granule_id": granule,
			"citation":   firstCitation(summary.Title + " " + text),
		},
	}, nil
}

func (p *Provider) get(ctx context.Context, path string, out any) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	err := providers.GetJSON(ctx, p.client, p.endpoint(path, nil), out)
	p.limiter.Observe(err)
	return err
}

func (p *Provider) download(ctx context.Context, link string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	u, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("parse download link: %w", err)
	}
	q := u.Query()
	q.Set("api_key", p.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	body, err := providers.Do(p.client, req)
	p.limiter.Observe(err)
	return body, err
}

func (p *Provider) endpoint(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", p.apiKey)
	return p.baseURL + path + "?" + params.Encode()
}

func documentType(collection string) string {
	if collection == "CFR" {
		return "regulation"
	}
	return "statute"
}

// firstCitation prefers the citation GovInfo puts at the start of granule
// titles ("42 U.S.C. 1983 - ...") and falls back to the first one in text.
func firstCitation(text string) string {
	if m := titleCitation.FindStringSubmatch(text); m != nil {
		code := "U.S.C."
		if m[2] == "CFR" {
			code = "C.F.R."
		}
		return fmt.Sprintf("%s %s § %s", m[1], code, m[3])
	}
	if cites := citations.Extract(text); len(cites) > 0 {
		return cites[0]
	}
	return ""
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return &t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	return nil
}
