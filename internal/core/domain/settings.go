package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API or any compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API. Chat only.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// SupportsEmbeddings returns true if the provider offers an embeddings API.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	// Empty means no upstream: every vector is a degraded fallback.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the vector size, also used for fallback vectors.
	Dimensions int

	// MaxInputBytes is the truncation budget applied before embedding.
	MaxInputBytes int

	// CacheSize bounds the number of cached embeddings.
	CacheSize int

	// BatchDelay paces sequential calls when the upstream has no batch API.
	BatchDelay time.Duration
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key.
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// StoreBackend selects the chunk store implementation.
type StoreBackend string

// Available store backends.
const (
	StoreBackendSQLite   StoreBackend = "sqlite"
	StoreBackendPostgres StoreBackend = "postgres"
	StoreBackendMemory   StoreBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreBackendSQLite, StoreBackendPostgres, StoreBackendMemory:
		return true
	default:
		return false
	}
}

// StoreSettings holds chunk store configuration.
type StoreSettings struct {
	Backend StoreBackend

	// DataDir holds the sqlite database file.
	DataDir string

	// DatabaseURL is the postgres connection string.
	DatabaseURL string
}

// CacheBackend selects the query cache implementation.
type CacheBackend string

// Available cache backends.
const (
	CacheBackendMemory CacheBackend = "memory"
	CacheBackendRedis  CacheBackend = "redis"
)

// IsValid returns true if the backend is recognised.
func (b CacheBackend) IsValid() bool {
	return b == CacheBackendMemory || b == CacheBackendRedis
}

// CacheSettings holds query cache configuration.
type CacheSettings struct {
	Backend    CacheBackend
	TTL        time.Duration
	MaxEntries int
	RedisURL   string
}

// CourtListenerSettings configures the case law provider.
type CourtListenerSettings struct {
	Enabled bool
	BaseURL string
	Token   string
}

// GovInfoSettings configures the statutes and regulations provider.
type GovInfoSettings struct {
	Enabled bool
	BaseURL string
	APIKey  string
}

// WebSearchSettings configures the legal web search provider.
type WebSearchSettings struct {
	Enabled  bool
	BaseURL  string
	APIKey   string
	EngineID string
}

// ProviderSettings groups per-provider configuration.
type ProviderSettings struct {
	CourtListener CourtListenerSettings
	GovInfo       GovInfoSettings
	WebSearch     WebSearchSettings
}

// RetrievalSettings holds aggregator configuration.
type RetrievalSettings struct {
	// DefaultLimit is used when a request does not set one.
	DefaultLimit int

	// ProviderTimeout bounds each store or provider call.
	ProviderTimeout time.Duration

	// ExcerptChars caps each prompt block excerpt, in runes.
	ExcerptChars int
}

// ChunkerSettings holds ingestion chunking configuration.
type ChunkerSettings struct {
	// MaxBytes is the hard byte ceiling for a chunk.
	MaxBytes int

	// MinBytes drops chunks whose trimmed length is smaller.
	MinBytes int
}

// ServerSettings holds HTTP API configuration.
type ServerSettings struct {
	Port           int
	AllowedOrigins []string
}

// Settings holds all application settings.
type Settings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Store     StoreSettings
	Cache     CacheSettings
	Providers ProviderSettings
	Retrieval RetrievalSettings
	Chunker   ChunkerSettings
	Server    ServerSettings
}

// DefaultSettings returns settings with sensible defaults.
// AI providers and live provider credentials are left unconfigured:
// the pipeline runs degraded until they are supplied.
func DefaultSettings() Settings {
	return Settings{
		Embedding: EmbeddingSettings{
			Dimensions:    1536, // text-embedding-3-small
			MaxInputBytes: 8000,
			CacheSize:     10000,
			BatchDelay:    100 * time.Millisecond,
		},
		LLM: LLMSettings{},
		Store: StoreSettings{
			Backend: StoreBackendSQLite,
		},
		Cache: CacheSettings{
			Backend:    CacheBackendMemory,
			TTL:        15 * time.Minute,
			MaxEntries: 500,
		},
		Providers: ProviderSettings{
			CourtListener: CourtListenerSettings{Enabled: true},
			GovInfo:       GovInfoSettings{Enabled: true},
			WebSearch:     WebSearchSettings{Enabled: true},
		},
		Retrieval: RetrievalSettings{
			DefaultLimit:    DefaultRetrievalLimit,
			ProviderTimeout: 8 * time.Second,
			ExcerptChars:    500,
		},
		Chunker: ChunkerSettings{
			MaxBytes: 1000,
			MinBytes: 32,
		},
		Server: ServerSettings{
			Port:           8080,
			AllowedOrigins: []string{"*"},
		},
	}
}

// Validate checks settings for values the pipeline cannot run with.
func (s Settings) Validate() error {
	if s.Embedding.Provider != "" && !s.Embedding.Provider.SupportsEmbeddings() {
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidInput, s.Embedding.Provider)
	}
	if s.LLM.Provider != "" && !s.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: unknown llm provider %q", ErrInvalidInput, s.LLM.Provider)
	}
	if s.Embedding.Dimensions <= 0 {
		return fmt.Errorf("%w: embedding dimensions must be positive", ErrInvalidInput)
	}
	if !s.Store.Backend.IsValid() {
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidInput, s.Store.Backend)
	}
	if s.Store.Backend == StoreBackendPostgres && s.Store.DatabaseURL == "" {
		return fmt.Errorf("%w: postgres store requires a database url", ErrInvalidInput)
	}
	if !s.Cache.Backend.IsValid() {
		return fmt.Errorf("%w: unknown cache backend %q", ErrInvalidInput, s.Cache.Backend)
	}
	if s.Cache.Backend == CacheBackendRedis && s.Cache.RedisURL == "" {
		return fmt.Errorf("%w: redis cache requires a redis url", ErrInvalidInput)
	}
	if s.Chunker.MaxBytes <= 0 {
		return fmt.Errorf("%w: chunk max bytes must be positive", ErrInvalidInput)
	}
	if s.Retrieval.DefaultLimit <= 0 || s.Retrieval.DefaultLimit > MaxRetrievalLimit {
		return fmt.Errorf("%w: default limit must be between 1 and %d", ErrInvalidInput, MaxRetrievalLimit)
	}
	return nil
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support chat.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// PipelineConfig holds post-processor pipeline configuration.
// Uses generic map-based config for extensibility - new processors can be added
// without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	// Key is processor name, value is processor-specific config.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// DefaultPipelineConfig returns the default ingestion pipeline:
// section-aware chunking followed by citation normalisation.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker", "citations"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {
				"max_bytes": 1000,
				"min_bytes": 32,
			},
		},
	}
}
