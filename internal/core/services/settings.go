package services

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driven"
	"github.com/custodia-labs/lexground/internal/core/ports/driving"
	"github.com/custodia-labs/lexground/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDims       = "embedding.dimensions"
	keyEmbedMaxInput   = "embedding.max_input_bytes"
	keyEmbedCacheSize  = "embedding.cache_size"
	keyEmbedBatchDelay = "embedding.batch_delay"

	keyLLMProvider = "llm.provider"
	keyLLMModel    = "llm.model"
	keyLLMBaseURL  = "llm.base_url"
	keyLLMAPIKey   = "llm.api_key"

	keyStoreBackend     = "store.backend"
	keyStoreDataDir     = "store.data_dir"
	keyStoreDatabaseURL = "store.database_url"

	keyCacheBackend    = "cache.backend"
	keyCacheTTL        = "cache.ttl"
	keyCacheMaxEntries = "cache.max_entries"
	keyCacheRedisURL   = "cache.redis_url"

	keyCourtListenerEnabled = "providers.courtlistener.enabled"
	keyCourtListenerBaseURL = "providers.courtlistener.base_url"
	keyCourtListenerToken   = "providers.courtlistener.token"
	keyGovInfoEnabled       = "providers.govinfo.enabled"
	keyGovInfoBaseURL       = "providers.govinfo.base_url"
	keyGovInfoAPIKey        = "providers.govinfo.api_key"
	keyWebSearchEnabled     = "providers.websearch.enabled"
	keyWebSearchBaseURL     = "providers.websearch.base_url"
	keyWebSearchAPIKey      = "providers.websearch.api_key"
	keyWebSearchEngineID    = "providers.websearch.engine_id"

	keyRetrievalLimit  = "retrieval.default_limit"
	keyProviderTimeout = "retrieval.provider_timeout"
	keyExcerptChars    = "retrieval.excerpt_chars"
	keyChunkerMaxBytes = "chunker.max_bytes"
	keyChunkerMinBytes = "chunker.min_bytes"
	keyServerPort      = "server.port"
	keyServerOrigins   = "server.allowed_origins"
	keyPipelineProcs   = "pipeline.processors"
)

const defaultOllamaURL = "http://localhost:11434"

// Environment variables that override the config file.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvEmbeddingProvider = "LEXGROUND_EMBEDDING_PROVIDER"
	EnvEmbeddingModel    = "LEXGROUND_EMBEDDING_MODEL"
	EnvEmbeddingBaseURL  = "LEXGROUND_EMBEDDING_BASE_URL"
	EnvLLMProvider       = "LEXGROUND_LLM_PROVIDER"
	EnvLLMModel          = "LEXGROUND_LLM_MODEL"
	EnvLLMBaseURL        = "LEXGROUND_LLM_BASE_URL"
	EnvStoreBackend      = "LEXGROUND_STORE"
	EnvDataDir           = "LEXGROUND_DATA_DIR"
	EnvCacheBackend      = "LEXGROUND_CACHE"
	EnvPort              = "LEXGROUND_PORT"
	EnvProviderTimeout   = "LEXGROUND_PROVIDER_TIMEOUT"
	EnvOpenAIKey         = "OPENAI_API_KEY"
	EnvAnthropicKey      = "ANTHROPIC_API_KEY"
	EnvDatabaseURL       = "DATABASE_URL"
	EnvRedisURL          = "REDIS_URL"
	EnvCourtListenerKey  = "COURTLISTENER_TOKEN"
	EnvGovInfoKey        = "GOVINFO_API_KEY"
	EnvGoogleCSEKey      = "GOOGLE_CSE_KEY"
	EnvGoogleCSEID       = "GOOGLE_CSE_ID"
)

// SettingsService manages application settings. Values resolve as
// defaults, then the config store, then environment variables.
// Environment values are never written back to the config store.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
}

// WithEnv replaces the environment lookup, for tests.
func (s *SettingsService) WithEnv(lookup func(string) (string, bool)) *SettingsService {
	s.lookupEnv = lookup
	return s
}

// Get retrieves current settings with environment overrides applied.
func (s *SettingsService) Get() (*domain.Settings, error) {
	settings := s.load()
	s.applyEnv(settings)
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// load reads settings from the config store over the defaults.
func (s *SettingsService) load() *domain.Settings {
	d := domain.DefaultSettings()

	return &domain.Settings{
		Embedding: domain.EmbeddingSettings{
			Provider:      s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:         s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:       s.configStore.GetString(keyEmbedBaseURL),
			APIKey:        s.configStore.GetString(keyEmbedAPIKey),
			Dimensions:    s.getInt(keyEmbedDims, d.Embedding.Dimensions),
			MaxInputBytes: s.getInt(keyEmbedMaxInput, d.Embedding.MaxInputBytes),
			CacheSize:     s.getInt(keyEmbedCacheSize, d.Embedding.CacheSize),
			BatchDelay:    s.getDuration(keyEmbedBatchDelay, d.Embedding.BatchDelay),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:    s.getString(keyLLMModel, d.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Store: domain.StoreSettings{
			Backend:     domain.StoreBackend(s.getString(keyStoreBackend, string(d.Store.Backend))),
			DataDir:     s.getString(keyStoreDataDir, d.Store.DataDir),
			DatabaseURL: s.configStore.GetString(keyStoreDatabaseURL),
		},
		Cache: domain.CacheSettings{
			Backend:    domain.CacheBackend(s.getString(keyCacheBackend, string(d.Cache.Backend))),
			TTL:        s.getDuration(keyCacheTTL, d.Cache.TTL),
			MaxEntries: s.getInt(keyCacheMaxEntries, d.Cache.MaxEntries),
			RedisURL:   s.configStore.GetString(keyCacheRedisURL),
		},
		Providers: domain.ProviderSettings{
			CourtListener: domain.CourtListenerSettings{
				Enabled: s.getBool(keyCourtListenerEnabled, d.Providers.CourtListener.Enabled),
				BaseURL: s.configStore.GetString(keyCourtListenerBaseURL),
				Token:   s.configStore.GetString(keyCourtListenerToken),
			},
			GovInfo: domain.GovInfoSettings{
				Enabled: s.getBool(keyGovInfoEnabled, d.Providers.GovInfo.Enabled),
				BaseURL: s.configStore.GetString(keyGovInfoBaseURL),
				APIKey:  s.configStore.GetString(keyGovInfoAPIKey),
			},
			WebSearch: domain.WebSearchSettings{
				Enabled:  s.getBool(keyWebSearchEnabled, d.Providers.WebSearch.Enabled),
				BaseURL:  s.configStore.GetString(keyWebSearchBaseURL),
				APIKey:   s.configStore.GetString(keyWebSearchAPIKey),
				EngineID: s.configStore.GetString(keyWebSearchEngineID),
			},
		},
		Retrieval: domain.RetrievalSettings{
			DefaultLimit:    s.getInt(keyRetrievalLimit, d.Retrieval.DefaultLimit),
			ProviderTimeout: s.getDuration(keyProviderTimeout, d.Retrieval.ProviderTimeout),
			ExcerptChars:    s.getInt(keyExcerptChars, d.Retrieval.ExcerptChars),
		},
		Chunker: domain.ChunkerSettings{
			MaxBytes: s.getInt(keyChunkerMaxBytes, d.Chunker.MaxBytes),
			MinBytes: s.getInt(keyChunkerMinBytes, d.Chunker.MinBytes),
		},
		Server: domain.ServerSettings{
			Port:           s.getInt(keyServerPort, d.Server.Port),
			AllowedOrigins: s.getStringSlice(keyServerOrigins, d.Server.AllowedOrigins),
		},
	}
}

// applyEnv overlays environment variables. Vendor API keys only fill
// keys the config leaves empty, and only for the matching provider.
func (s *SettingsService) applyEnv(st *domain.Settings) {
	s.envString(EnvEmbeddingProvider, func(v string) { st.Embedding.Provider = domain.AIProvider(v) })
	s.envString(EnvEmbeddingModel, func(v string) { st.Embedding.Model = v })
	s.envString(EnvEmbeddingBaseURL, func(v string) { st.Embedding.BaseURL = v })
	s.envString(EnvLLMProvider, func(v string) { st.LLM.Provider = domain.AIProvider(v) })
	s.envString(EnvLLMModel, func(v string) { st.LLM.Model = v })
	s.envString(EnvLLMBaseURL, func(v string) { st.LLM.BaseURL = v })
	s.envString(EnvStoreBackend, func(v string) { st.Store.Backend = domain.StoreBackend(v) })
	s.envString(EnvDataDir, func(v string) { st.Store.DataDir = v })
	s.envString(EnvDatabaseURL, func(v string) { st.Store.DatabaseURL = v })
	s.envString(EnvCacheBackend, func(v string) { st.Cache.Backend = domain.CacheBackend(v) })
	s.envString(EnvRedisURL, func(v string) { st.Cache.RedisURL = v })
	s.envString(EnvCourtListenerKey, func(v string) { st.Providers.CourtListener.Token = v })
	s.envString(EnvGovInfoKey, func(v string) { st.Providers.GovInfo.APIKey = v })
	s.envString(EnvGoogleCSEKey, func(v string) { st.Providers.WebSearch.APIKey = v })
	s.envString(EnvGoogleCSEID, func(v string) { st.Providers.WebSearch.EngineID = v })

	s.envString(EnvPort, func(v string) {
		if port, err := strconv.Atoi(v); err == nil {
			st.Server.Port = port
		} else {
			logger.Warn("ignoring %s=%q: %v", EnvPort, v, err)
		}
	})
	s.envString(EnvProviderTimeout, func(v string) {
		if d, err := time.ParseDuration(v); err == nil {
			st.Retrieval.ProviderTimeout = d
		} else {
			logger.Warn("ignoring %s=%q: %v", EnvProviderTimeout, v, err)
		}
	})

	vendorKeys := map[domain.AIProvider]string{
		domain.AIProviderOpenAI:    EnvOpenAIKey,
		domain.AIProviderAnthropic: EnvAnthropicKey,
	}
	if env, ok := vendorKeys[st.Embedding.Provider]; ok && st.Embedding.APIKey == "" {
		s.envString(env, func(v string) { st.Embedding.APIKey = v })
	}
	if env, ok := vendorKeys[st.LLM.Provider]; ok && st.LLM.APIKey == "" {
		s.envString(env, func(v string) { st.LLM.APIKey = v })
	}

	if st.Embedding.Model == "" {
		st.Embedding.Model = domain.DefaultEmbeddingModels()[st.Embedding.Provider]
	}
	if st.LLM.Model == "" {
		st.LLM.Model = domain.DefaultLLMModels()[st.LLM.Provider]
	}
}

// Save persists settings to the config store.
func (s *SettingsService) Save(settings *domain.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyEmbedMaxInput, settings.Embedding.MaxInputBytes},
		{keyEmbedCacheSize, settings.Embedding.CacheSize},
		{keyEmbedBatchDelay, settings.Embedding.BatchDelay.String()},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyStoreBackend, string(settings.Store.Backend)},
		{keyStoreDataDir, settings.Store.DataDir},
		{keyCacheBackend, string(settings.Cache.Backend)},
		{keyCacheTTL, settings.Cache.TTL.String()},
		{keyCacheMaxEntries, settings.Cache.MaxEntries},
		{keyCourtListenerEnabled, settings.Providers.CourtListener.Enabled},
		{keyCourtListenerBaseURL, settings.Providers.CourtListener.BaseURL},
		{keyGovInfoEnabled, settings.Providers.GovInfo.Enabled},
		{keyGovInfoBaseURL, settings.Providers.GovInfo.BaseURL},
		{keyWebSearchEnabled, settings.Providers.WebSearch.Enabled},
		{keyWebSearchBaseURL, settings.Providers.WebSearch.BaseURL},
		{keyWebSearchEngineID, settings.Providers.WebSearch.EngineID},
		{keyRetrievalLimit, settings.Retrieval.DefaultLimit},
		{keyProviderTimeout, settings.Retrieval.ProviderTimeout.String()},
		{keyExcerptChars, settings.Retrieval.ExcerptChars},
		{keyChunkerMaxBytes, settings.Chunker.MaxBytes},
		{keyChunkerMinBytes, settings.Chunker.MinBytes},
		{keyServerPort, settings.Server.Port},
		{keyServerOrigins, settings.Server.AllowedOrigins},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Secrets are only written when set so an empty form does not wipe them.
	secrets := []struct {
		key   string
		value string
	}{
		{keyEmbedAPIKey, settings.Embedding.APIKey},
		{keyLLMAPIKey, settings.LLM.APIKey},
		{keyStoreDatabaseURL, settings.Store.DatabaseURL},
		{keyCacheRedisURL, settings.Cache.RedisURL},
		{keyCourtListenerToken, settings.Providers.CourtListener.Token},
		{keyGovInfoAPIKey, settings.Providers.GovInfo.APIKey},
		{keyWebSearchAPIKey, settings.Providers.WebSearch.APIKey},
	}
	for _, v := range secrets {
		if v.value == "" {
			continue
		}
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}
	if !provider.SupportsEmbeddings() {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings := s.load()
	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	if model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}
	settings.Embedding.BaseURL = localBaseURL(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	}

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings := s.load()
	settings.LLM.Provider = provider
	settings.LLM.Model = model
	if model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}
	settings.LLM.BaseURL = localBaseURL(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// GetPipelineConfig returns the ingestion pipeline configuration. The
// chunker section mirrors the chunker settings.
func (s *SettingsService) GetPipelineConfig() domain.PipelineConfig {
	cfg := domain.DefaultPipelineConfig()

	if processors := s.configStore.GetStringSlice(keyPipelineProcs); len(processors) > 0 {
		cfg.Processors = processors
	}

	settings := s.load()
	cfg.ProcessorConfigs["chunker"] = map[string]any{
		"max_bytes": settings.Chunker.MaxBytes,
		"min_bytes": settings.Chunker.MinBytes,
	}
	return cfg
}

// Local providers need a base URL; cloud providers use their default.
func localBaseURL(provider domain.AIProvider, current string) string {
	if !provider.IsLocal() {
		return ""
	}
	if current == "" {
		return defaultOllamaURL
	}
	return current
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetDuration(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getStringSlice(key string, defaultVal []string) []string {
	val := s.configStore.GetStringSlice(key)
	if len(val) == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		logger.Warn("ignoring unknown provider %q for %s", val, key)
		return defaultVal
	}
	return provider
}

func (s *SettingsService) envString(name string, apply func(string)) {
	if s.lookupEnv == nil {
		return
	}
	if v, ok := s.lookupEnv(name); ok && strings.TrimSpace(v) != "" {
		apply(strings.TrimSpace(v))
	}
}
