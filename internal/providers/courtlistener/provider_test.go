package courtlistener

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexground/internal/core/domain"
)

const searchBody = `{
  "count": 1,
  "results": [{
    "cluster_id": 107252,
    "caseName": "Miranda v. Arizona",
    "citation": ["384 U.S. 436", "86 S. Ct. 1602"],
    "court": "Supreme Court of the United States",
    "court_id": "scotus",
    "dateFiled": "1966-06-13",
    "absolute_url": "/opinion/107252/miranda-v-arizona/",
    "opinions": [{"id": 107252, "snippet": "statements stemming from <mark>custodial</mark> interrogation"}]
  }]
}`

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestProvider_Search_Live(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token secret", r.Header.Get("Authorization"))
		assert.Equal(t, "/search/", r.URL.Path)
		assert.Equal(t, "miranda rights", r.URL.Query().Get("q"))
		assert.Equal(t, "o", r.URL.Query().Get("type"))
		assert.Equal(t, "5", r.URL.Query().Get("page_size"))
		_, _ = w.Write([]byte(searchBody))
	})

	p := New(Config{BaseURL: server.URL, Token: "secret"})
	results, err := p.Search(context.Background(), "miranda rights", domain.RetrievalOptions{Limit: 5})
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "107252", r.ID)
	assert.Equal(t, "Miranda v. Arizona", r.Title)
	assert.Equal(t, "statements stemming from custodial interrogation", r.Content)
	assert.Equal(t, "384 U.S. 436", r.Citation)
	assert.Equal(t, "https://www.courtlistener.com/opinion/107252/miranda-v-arizona/", r.URL)
	assert.Equal(t, domain.SourceTypeLive, r.SourceType)
	assert.Equal(t, Name, r.Provider)
	require.NotNil(t, r.Date)
	assert.Equal(t, 1966, r.Date.Year())
}

func TestProvider_Search_NoTokenUsesCurated(t *testing.T) {
	var hits atomic.Int32
	server := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	})

	p := New(Config{BaseURL: server.URL})
	results, err := p.Search(context.Background(), "Miranda", domain.RetrievalOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Miranda v. Arizona", results[0].Title)
	assert.Equal(t, "384 U.S. 436", results[0].Citation)
	assert.Zero(t, hits.Load())
}

func TestProvider_Search_LiveFailureUsesCurated(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	p := New(Config{BaseURL: server.URL, Token: "secret"})
	results, err := p.Search(context.Background(), "counsel", domain.RetrievalOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Gideon v. Wainwright", results[0].Title)
}

func TestProvider_Search_RateLimitPauseServesCuratedWithinDeadline(t *testing.T) {
	var hits atomic.Int32
	server := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	})
	p := New(Config{BaseURL: server.URL, Token: "secret"})

	results, err := p.Search(context.Background(), "counsel", domain.RetrievalOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	start := time.Now()
	results, err = p.Search(ctx, "counsel", domain.RetrievalOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, results, "curated results are served while paused")
	assert.Equal(t, "Gideon v. Wainwright", results[0].Title)
	assert.Less(t, time.Since(start), 250*time.Millisecond, "the pause is not slept through")
	assert.Equal(t, int32(1), hits.Load(), "no request is sent while paused")
}

func TestProvider_Search_JurisdictionFilter(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, strings.Join(federalCourts, " "), r.URL.Query().Get("court"))
		_, _ = w.Write([]byte(`{"count": 2, "results": [
			{"cluster_id": 1, "caseName": "Federal Case", "court_id": "scotus"},
			{"cluster_id": 2, "caseName": "State Case", "court_id": "cal"}
		]}`))
	})

	p := New(Config{BaseURL: server.URL, Token: "secret"})
	results, err := p.Search(context.Background(), "search", domain.RetrievalOptions{
		Filters: domain.Filters{Jurisdiction: "Federal"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Federal Case", results[0].Title)
}

func TestProvider_Search_CourtIDFilter(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "cal", r.URL.Query().Get("court"))
		_, _ = w.Write([]byte(`{"count": 1, "results": [{"cluster_id": 2, "caseName": "State Case", "court_id": "cal"}]}`))
	})

	p := New(Config{BaseURL: server.URL, Token: "secret"})
	results, err := p.Search(context.Background(), "search", domain.RetrievalOptions{
		Filters: domain.Filters{Jurisdiction: "cal"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "State Case", results[0].Title)
}

func TestProvider_Search_FiltersExcludingLiveSkipAPI(t *testing.T) {
	var hits atomic.Int32
	server := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(searchBody))
	})
	p := New(Config{BaseURL: server.URL, Token: "secret"})

	results, err := p.Search(context.Background(), "miranda", domain.RetrievalOptions{
		Filters: domain.Filters{DocumentType: "statute"},
	})
	require.NoError(t, err)
	assert.Empty(t, results, "opinions are never statutes")

	results, err = p.Search(context.Background(), "ohio", domain.RetrievalOptions{
		Filters: domain.Filters{PracticeArea: "criminal"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2, "practice areas come from the curated set")
	assert.Equal(t, "Terry v. Ohio", results[0].Title)

	assert.Zero(t, hits.Load())
}

func TestProvider_HealthCheck(t *testing.T) {
	up := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	down := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	tests := []struct {
		name string
		cfg  Config
		want domain.ProviderStatus
	}{
		{"online", Config{BaseURL: up.URL, Token: "secret"}, domain.ProviderOnline},
		{"no token", Config{BaseURL: up.URL}, domain.ProviderLimited},
		{"bad token", Config{BaseURL: down.URL, Token: "bad"}, domain.ProviderLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(tt.cfg).HealthCheck(context.Background())
			assert.Equal(t, Name, h.Provider)
			assert.Equal(t, tt.want, h.Status)
		})
	}
}

func TestProvider_Fetch_Live(t *testing.T) {
	var server *httptest.Server
	server = newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/opinions/107252/":
			_, _ = w.Write([]byte(`{
				"id": 107252,
				"cluster": "` + server.URL + `/clusters/107252/",
				"absolute_url": "/opinion/107252/miranda-v-arizona/",
				"plain_text": "",
				"html_with_citations": "<p>The person in custody must, prior to interrogation, be clearly informed.</p>"
			}`))
		case "/clusters/107252/":
			_, _ = w.Write([]byte(`{
				"case_name": "Miranda v. Arizona",
				"date_filed": "1966-06-13",
				"citations": [{"volume": 384, "reporter": "U.S.", "page": "436"}]
			}`))
		default:
			http.NotFound(w, r)
		}
	})

	p := New(Config{BaseURL: server.URL, Token: "secret"})
	doc, err := p.Fetch(context.Background(), "107252")
	require.NoError(t, err)
	assert.Equal(t, "Miranda v. Arizona", doc.Title)
	assert.Equal(t, "The person in custody must, prior to interrogation, be clearly informed.", doc.Content)
	assert.Equal(t, "case", doc.DocumentType)
	assert.Equal(t, "384 U.S. 436", doc.Metadata["citation"])
	require.NotNil(t, doc.PublishedAt)
}

func TestProvider_Fetch_InvalidID(t *testing.T) {
	p := New(Config{})
	_, err := p.Fetch(context.Background(), "../etc")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProvider_Fetch_Curated(t *testing.T) {
	p := New(Config{})
	doc, err := p.Fetch(context.Background(), "106545")
	require.NoError(t, err)
	assert.Equal(t, "Gideon v. Wainwright", doc.Title)
	assert.Equal(t, "federal", doc.Jurisdiction)

	_, err = p.Fetch(context.Background(), "1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
