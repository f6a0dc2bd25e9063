package services

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driven"
	"github.com/custodia-labs/lexground/internal/core/ports/driving"
	"github.com/custodia-labs/lexground/internal/logger"
	"github.com/custodia-labs/lexground/internal/metrics"
	"github.com/custodia-labs/lexground/internal/textutil"
)

// Ensure EmbeddingService implements the interface.
var _ driving.EmbeddingService = (*EmbeddingService)(nil)

// Embedding defaults.
const (
	DefaultEmbeddingCacheSize   = 10000
	DefaultMaxInputBytes        = 8000
	DefaultEmbeddingDimensions  = 1536
	DefaultEmbeddingMaxRetries  = 2
	DefaultEmbeddingRetryBudget = 10 * time.Second

	// cacheKeyPrefixBytes is how much of the text feeds the cache key.
	cacheKeyPrefixBytes = 100

	// degradedModel names the fallback when no upstream is configured.
	degradedModel = "fallback"
)

// EmbeddingConfig configures the embedding service.
type EmbeddingConfig struct {
	// Dimensions is the fallback vector size when no upstream reports one.
	Dimensions int

	// MaxInputBytes maps model name to its truncation budget.
	MaxInputBytes map[string]int

	// DefaultMaxInputBytes applies to models missing from MaxInputBytes.
	DefaultMaxInputBytes int

	// CacheSize bounds the number of cached vectors.
	CacheSize int

	// BatchDelay is the pause between sequential upstream calls.
	BatchDelay time.Duration

	// MaxRetries is the number of retries after the first upstream failure.
	MaxRetries int

	// RetryInterval is the first backoff interval.
	RetryInterval time.Duration

	// RetryBudget bounds total time spent retrying one call.
	RetryBudget time.Duration
}

// DefaultEmbeddingConfig returns the default embedding configuration.
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		Dimensions:           DefaultEmbeddingDimensions,
		DefaultMaxInputBytes: DefaultMaxInputBytes,
		CacheSize:            DefaultEmbeddingCacheSize,
		BatchDelay:           100 * time.Millisecond,
		MaxRetries:           DefaultEmbeddingMaxRetries,
		RetryInterval:        200 * time.Millisecond,
		RetryBudget:          DefaultEmbeddingRetryBudget,
	}
}

// EmbeddingService turns text into vectors.
//
// Vectors are cached by (model, prefix, length). When the upstream fails
// after retries, a deterministic unit vector is returned with Degraded set
// instead of an error; degraded vectors are never cached.
type EmbeddingService struct {
	upstreams    map[string]driven.EmbeddingService
	defaultModel string
	cfg          EmbeddingConfig
	cache        *lru.Cache[string, []float32]
	limiter      *rate.Limiter
	metrics      *metrics.Metrics
}

// EmbeddingOption configures the embedding service.
type EmbeddingOption func(*EmbeddingService)

// WithEmbeddingMetrics records cache, upstream and degraded counts.
func WithEmbeddingMetrics(m *metrics.Metrics) EmbeddingOption {
	return func(s *EmbeddingService) {
		s.metrics = m
	}
}

// NewEmbeddingService creates an embedding service over zero or more
// upstreams, keyed by model name. The first upstream provides the default
// model. With no upstream every vector is degraded.
func NewEmbeddingService(
	cfg EmbeddingConfig, upstreams []driven.EmbeddingService, opts ...EmbeddingOption,
) (*EmbeddingService, error) {
	defaults := DefaultEmbeddingConfig()
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = defaults.Dimensions
	}
	if cfg.DefaultMaxInputBytes <= 0 {
		cfg.DefaultMaxInputBytes = defaults.DefaultMaxInputBytes
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaults.CacheSize
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaults.RetryInterval
	}
	if cfg.RetryBudget <= 0 {
		cfg.RetryBudget = defaults.RetryBudget
	}

	cache, err := lru.New[string, []float32](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}

	s := &EmbeddingService{
		upstreams:    make(map[string]driven.EmbeddingService, len(upstreams)),
		defaultModel: degradedModel,
		cfg:          cfg,
		cache:        cache,
		limiter:      rate.NewLimiter(rate.Inf, 1),
	}
	if cfg.BatchDelay > 0 {
		s.limiter = rate.NewLimiter(rate.Every(cfg.BatchDelay), 1)
	}

	for _, up := range upstreams {
		if up == nil {
			continue
		}
		s.upstreams[up.ModelName()] = up
		if s.defaultModel == degradedModel {
			s.defaultModel = up.ModelName()
		}
	}

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// DefaultModel returns the model used when callers pass an empty model.
func (s *EmbeddingService) DefaultModel() string {
	return s.defaultModel
}

// Dimensions returns the vector size for the default model.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions(s.defaultModel)
}

// Embed returns the embedding for text.
func (s *EmbeddingService) Embed(ctx context.Context, text, model string) (domain.Embedding, error) {
	model = s.resolveModel(model)
	text = textutil.TruncateBytes(text, s.maxInputBytes(model))
	key := EmbeddingCacheKey(model, text)

	if vec, ok := s.cache.Get(key); ok {
		s.metrics.RecordEmbedding("cache")
		return domain.Embedding{Vector: vec, Model: model}, nil
	}

	up, ok := s.upstreams[model]
	if !ok {
		return s.degraded(text, model, nil), nil
	}

	var vec []float32
	err := s.retry(ctx, func() error {
		v, err := up.Embed(ctx, text)
		if err != nil {
			return err
		}
		vec = v
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Embedding{}, ctxErr
		}
		return s.degraded(text, model, err), nil
	}

	s.cache.Add(key, vec)
	s.metrics.RecordEmbedding("upstream")
	return domain.Embedding{Vector: vec, Model: model}, nil
}

// EmbedBatch embeds texts preserving order. Cache hits are served locally.
// Misses go to the upstream in one call when it supports batching,
// otherwise one at a time paced by the configured delay.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string, model string) ([]domain.Embedding, error) {
	model = s.resolveModel(model)
	budget := s.maxInputBytes(model)
	out := make([]domain.Embedding, len(texts))

	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		text = textutil.TruncateBytes(text, budget)
		if vec, ok := s.cache.Get(EmbeddingCacheKey(model, text)); ok {
			s.metrics.RecordEmbedding("cache")
			out[i] = domain.Embedding{Vector: vec, Model: model}
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missIdx) == 0 {
		return out, nil
	}

	logger.Debug("Embedding batch: %d texts, %d cache misses (model=%s)", len(texts), len(missIdx), model)

	up, ok := s.upstreams[model]
	if !ok {
		for j, i := range missIdx {
			out[i] = s.degraded(missTexts[j], model, nil)
		}
		return out, nil
	}

	if batcher, ok := up.(driven.BatchEmbedder); ok {
		var vecs [][]float32
		err := s.retry(ctx, func() error {
			v, err := batcher.EmbedBatch(ctx, missTexts)
			if err != nil {
				return err
			}
			if len(v) != len(missTexts) {
				return backoff.Permanent(fmt.Errorf("batch returned %d vectors for %d texts", len(v), len(missTexts)))
			}
			vecs = v
			return nil
		})
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		for j, i := range missIdx {
			if err != nil {
				out[i] = s.degraded(missTexts[j], model, err)
				continue
			}
			s.cache.Add(EmbeddingCacheKey(model, missTexts[j]), vecs[j])
			s.metrics.RecordEmbedding("upstream")
			out[i] = domain.Embedding{Vector: vecs[j], Model: model}
		}
		return out, nil
	}

	for j, i := range missIdx {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		emb, err := s.Embed(ctx, missTexts[j], model)
		if err != nil {
			return nil, err
		}
		out[i] = emb
	}
	return out, nil
}

// Similarity returns the cosine similarity of a and b, clamped to [-1, 1].
// Zero vectors have similarity 0.
func (s *EmbeddingService) Similarity(a, b []float32) (float64, error) {
	return CosineSimilarity(a, b)
}

// CosineSimilarity returns the cosine similarity of a and b.
func CosineSimilarity(a, b []float32) (float64, error) {
	return domain.CosineSimilarity(a, b)
}

// EmbeddingCacheKey derives the cache key from the model, the first 100
// bytes of text and its length. The full text never appears in the key.
func EmbeddingCacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(textutil.TruncateBytes(text, cacheKeyPrefixBytes) + "|" + strconv.Itoa(len(text))))
	return model + ":" + hex.EncodeToString(sum[:])
}

// FallbackVector returns a deterministic pseudo-random unit vector for
// (model, text). It carries no semantic signal.
func FallbackVector(model, text string, dims int) []float32 {
	if dims <= 0 {
		return nil
	}
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	//nolint:gosec // G404: Deterministic placeholder, not security sensitive.
	rng := rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(sum[:8]))))

	vec := make([]float32, dims)
	var norm float64
	for i := range vec {
		v := rng.NormFloat64()
		vec[i] = float32(v)
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

func (s *EmbeddingService) degraded(text, model string, cause error) domain.Embedding {
	if cause != nil {
		logger.Warn("%v: model=%s: %v", domain.ErrEmbeddingDegraded, model, cause)
	} else {
		logger.Debug("%v: no upstream for model %s", domain.ErrEmbeddingDegraded, model)
	}
	s.metrics.RecordEmbedding("degraded")
	return domain.Embedding{
		Vector:   FallbackVector(model, text, s.dimensions(model)),
		Model:    model,
		Degraded: true,
	}
}

// retry runs op with exponential backoff, giving up after MaxRetries
// retries or when ctx is done.
func (s *EmbeddingService) retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.RetryInterval
	b.MaxInterval = 10 * s.cfg.RetryInterval
	b.MaxElapsedTime = s.cfg.RetryBudget

	return backoff.Retry(func() error {
		err := op()
		if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.cfg.MaxRetries)), ctx))
}

func (s *EmbeddingService) resolveModel(model string) string {
	if model == "" {
		return s.defaultModel
	}
	return model
}

func (s *EmbeddingService) maxInputBytes(model string) int {
	if n, ok := s.cfg.MaxInputBytes[model]; ok && n > 0 {
		return n
	}
	return s.cfg.DefaultMaxInputBytes
}

func (s *EmbeddingService) dimensions(model string) int {
	if up, ok := s.upstreams[model]; ok && up.Dimensions() > 0 {
		return up.Dimensions()
	}
	return s.cfg.Dimensions
}
