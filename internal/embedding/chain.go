package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"

	"github.com/mike-a-ellis/chat-memory-mcp/internal/config"
)

const (
	defaultCacheSize   = 512
	defaultConcurrency = 4
)

// Embedding is a single vector and the tier that produced it. Vector is nil
// when the chain fell through to TierLexical.
type Embedding struct {
	Vector []float32
	Tier   Tier
}

// BatchResult holds one vector slot per input text. Every vector in a
// batch comes from the same Tier; a slot is nil when that item failed.
type BatchResult struct {
	Vectors [][]float32
	Tier    Tier
}

// Observer receives tier outcomes, typically for metrics.
type Observer interface {
	EmbeddingServed(tier string, degraded bool)
	EmbeddingFailed(tier string)
}

// Chain walks the provider tiers until one produces vectors.
type Chain struct {
	factory     BackendFactory
	breakers    map[Tier]*gobreaker.CircuitBreaker
	cache       *lru.Cache[string, []float32]
	concurrency int
	logger      *slog.Logger
	observer    Observer
}

// Option configures a Chain.
type Option func(*Chain)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chain) { c.logger = logger }
}

// WithConcurrency bounds the number of in-flight per-item requests on the
// local tier.
func WithConcurrency(n int) Option {
	return func(c *Chain) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithCacheSize sets the number of query vectors kept. Zero disables the cache.
func WithCacheSize(n int) Option {
	return func(c *Chain) {
		if n <= 0 {
			c.cache = nil
			return
		}
		cache, err := lru.New[string, []float32](n)
		if err == nil {
			c.cache = cache
		}
	}
}

// WithObserver reports tier outcomes to o.
func WithObserver(o Observer) Option {
	return func(c *Chain) { c.observer = o }
}

// NewChain creates a chain over the backends produced by factory.
func NewChain(factory BackendFactory, opts ...Option) *Chain {
	c := &Chain{
		factory:     factory,
		breakers:    make(map[Tier]*gobreaker.CircuitBreaker),
		concurrency: defaultConcurrency,
		logger:      slog.Default(),
	}
	c.cache, _ = lru.New[string, []float32](defaultCacheSize)

	for _, tier := range []Tier{TierOpenAI, TierLocal} {
		c.breakers[tier] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "embedding-" + string(tier),
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
		})
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Embed embeds a single text, starting at preferred and falling through the
// tiers. It only returns an error when ctx is done; otherwise exhaustion
// yields a TierLexical embedding with a nil vector.
func (c *Chain) Embed(ctx context.Context, creds config.Credentials, text string, preferred Tier) (Embedding, error) {
	start := ParseTier(string(preferred))

	for _, tier := range Sequence(start) {
		if tier == TierLexical {
			c.served(tier, tier != start)
			return Embedding{Tier: TierLexical}, nil
		}
		if !Available(tier, creds) {
			continue
		}

		key := string(tier) + "\x00" + text
		if c.cache != nil {
			if v, ok := c.cache.Get(key); ok {
				c.served(tier, tier != start)
				return Embedding{Vector: v, Tier: tier}, nil
			}
		}

		vectors, err := c.call(ctx, tier, creds, []string{text})
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Embedding{}, ctxErr
		}
		if err == nil && (len(vectors) != 1 || len(vectors[0]) == 0) {
			err = ErrEmptyResponse
		}
		if err != nil {
			c.failed(tier, err)
			continue
		}

		if c.cache != nil {
			c.cache.Add(key, vectors[0])
		}
		c.served(tier, tier != start)
		return Embedding{Vector: vectors[0], Tier: tier}, nil
	}

	// Sequence always ends with TierLexical.
	return Embedding{Tier: TierLexical}, nil
}

// EmbedBatch embeds texts on a single tier. The hosted tier sends the whole
// batch at once and a failure moves the whole batch to the next tier. The
// local tier embeds items concurrently; a failed item leaves a nil slot,
// and the tier is only abandoned when no item succeeds.
func (c *Chain) EmbedBatch(ctx context.Context, creds config.Credentials, texts []string, preferred Tier) (BatchResult, error) {
	start := ParseTier(string(preferred))

	for _, tier := range Sequence(start) {
		if tier == TierLexical {
			c.served(tier, tier != start)
			return BatchResult{Vectors: make([][]float32, len(texts)), Tier: TierLexical}, nil
		}
		if !Available(tier, creds) {
			continue
		}
		if len(texts) == 0 {
			return BatchResult{Tier: tier}, nil
		}

		var (
			vectors [][]float32
			err     error
		)
		if tier == TierOpenAI {
			vectors, err = c.call(ctx, tier, creds, texts)
			if err == nil && len(vectors) != len(texts) {
				err = fmt.Errorf("%w: got %d for %d inputs", ErrEmptyResponse, len(vectors), len(texts))
			}
		} else {
			vectors, err = c.perItem(ctx, tier, creds, texts)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return BatchResult{}, ctxErr
		}
		if err != nil {
			c.failed(tier, err)
			continue
		}

		c.served(tier, tier != start)
		return BatchResult{Vectors: vectors, Tier: tier}, nil
	}

	return BatchResult{Vectors: make([][]float32, len(texts)), Tier: TierLexical}, nil
}

// perItem embeds each text separately with bounded concurrency, keeping
// results aligned with their inputs.
func (c *Chain) perItem(ctx context.Context, tier Tier, creds config.Credentials, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	errs := make([]error, len(texts))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, text := range texts {
		g.Go(func() error {
			out, err := c.call(ctx, tier, creds, []string{text})
			if err == nil && (len(out) != 1 || len(out[0]) == 0) {
				err = ErrEmptyResponse
			}
			if err != nil {
				errs[i] = err
				return nil
			}
			vectors[i] = out[0]
			return nil
		})
	}
	_ = g.Wait()

	succeeded := 0
	for i, err := range errs {
		if err != nil {
			c.logger.Warn("item embedding failed", "tier", tier, "index", i, "error", err)
			continue
		}
		succeeded++
	}
	if succeeded == 0 {
		return nil, fmt.Errorf("all %d items failed: %w", len(texts), errors.Join(errs...))
	}
	return vectors, nil
}

func (c *Chain) call(ctx context.Context, tier Tier, creds config.Credentials, texts []string) ([][]float32, error) {
	backend, err := c.factory(tier, creds)
	if err != nil {
		return nil, err
	}

	breaker, ok := c.breakers[tier]
	if !ok {
		return backend.Embed(ctx, texts)
	}
	out, err := breaker.Execute(func() (interface{}, error) {
		return backend.Embed(ctx, texts)
	})
	if err != nil {
		return nil, err
	}
	vectors, _ := out.([][]float32)
	return vectors, nil
}

func (c *Chain) served(tier Tier, degraded bool) {
	if c.observer != nil {
		c.observer.EmbeddingServed(string(tier), degraded)
	}
}

func (c *Chain) failed(tier Tier, err error) {
	c.logger.Warn("embedding tier failed, falling back", "tier", tier, "next", tier.Next(), "error", err)
	if c.observer != nil {
		c.observer.EmbeddingFailed(string(tier))
	}
}
