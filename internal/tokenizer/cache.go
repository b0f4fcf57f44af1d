package tokenizer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// VocabularyCache loads each encoding's vocabulary at most once.
//
// Concurrent first callers share one in-flight load. Loaded encoders are kept for
// the lifetime of the cache; failed loads are not remembered, so a later call tries
// again.
type VocabularyCache struct {
	source Source
	logger *slog.Logger
	verify bool

	group singleflight.Group

	mu     sync.RWMutex
	loaded map[Encoding]Encoder
}

// CacheOption configures a VocabularyCache.
type CacheOption func(*VocabularyCache)

// WithLogger sets the logger used for load events.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *VocabularyCache) {
		c.logger = logger
	}
}

// WithChecksumVerification makes every load compare the file's SHA-256 digest
// with the published one.
func WithChecksumVerification() CacheOption {
	return func(c *VocabularyCache) {
		c.verify = true
	}
}

// NewVocabularyCache creates a cache reading from source.
func NewVocabularyCache(source Source, opts ...CacheOption) *VocabularyCache {
	c := &VocabularyCache{
		source: source,
		logger: slog.Default(),
		loaded: make(map[Encoding]Encoder),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load returns the vocabulary of enc, parsing it on first use.
//
// A caller whose ctx ends while waiting for another caller's load returns early
// with ctx.Err(); the load itself keeps going for the remaining waiters.
func (c *VocabularyCache) Load(ctx context.Context, enc Encoding) (Encoder, error) {
	if _, err := ProfileFor(enc); err != nil {
		return nil, err
	}

	if e, ok := c.cached(enc); ok {
		return e, nil
	}

	ch := c.group.DoChan(string(enc), func() (any, error) {
		if e, ok := c.cached(enc); ok {
			return e, nil
		}
		// Detached from the first caller so that its cancellation does not fail
		// everybody else waiting on the same load.
		return c.load(context.WithoutCancel(ctx), enc)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Encoder), nil
	}
}

// Loaded reports whether enc is already in memory.
func (c *VocabularyCache) Loaded(enc Encoding) bool {
	_, ok := c.cached(enc)
	return ok
}

func (c *VocabularyCache) cached(enc Encoding) (Encoder, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.loaded[enc]
	return e, ok
}

func (c *VocabularyCache) load(ctx context.Context, enc Encoding) (Encoder, error) {
	start := time.Now()
	c.logger.Debug("loading vocabulary", "encoding", enc)

	rc, err := c.source.Open(ctx, enc)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	var sum *checksumReader
	if c.verify {
		sum = newChecksumReader(rc)
		r = sum
	}

	e, err := LoadVocabulary(r)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s vocabulary: %w", enc, err)
	}
	if sum != nil {
		if err := ValidateChecksum(enc, sum.Sum()); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	c.loaded[enc] = e
	c.mu.Unlock()

	c.logger.Debug("loaded vocabulary", "encoding", enc, "entries", len(e), "elapsed", time.Since(start))
	return e, nil
}
