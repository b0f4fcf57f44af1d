package tokenizer

import (
	"context"
	"sync"

	"github.com/born-ml/tikbpe/internal/logutil"
	"github.com/born-ml/tikbpe/internal/parallel"
)

// Service encodes and decodes text for any known encoding.
//
// Vocabularies come from an injected VocabularyCache; one TikToken per encoding is
// built on first use and reused afterwards.
type Service struct {
	cache    *VocabularyCache
	parallel parallel.Config

	mu         sync.Mutex
	tokenizers map[Encoding]*TikToken
}

// NewService creates a service over cache.
func NewService(cache *VocabularyCache, cfg parallel.Config) *Service {
	return &Service{
		cache:      cache,
		parallel:   cfg,
		tokenizers: make(map[Encoding]*TikToken),
	}
}

// LoadVocabulary returns the mergeable ranks of enc.
func (s *Service) LoadVocabulary(ctx context.Context, enc Encoding) (Encoder, error) {
	return s.cache.Load(ctx, enc)
}

// TikToken returns the tokenizer of enc, loading its vocabulary if needed.
func (s *Service) TikToken(ctx context.Context, enc Encoding) (*TikToken, error) {
	profile, err := ProfileFor(enc)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	t, ok := s.tokenizers[enc]
	s.mu.Unlock()
	if ok {
		return t, nil
	}

	encoder, err := s.cache.Load(ctx, enc)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tokenizers[enc]; ok {
		return t, nil
	}
	t = NewTikToken(profile, encoder)
	s.tokenizers[enc] = t
	logutil.Trace("tokenizer ready", "encoding", enc, "entries", len(encoder))
	return t, nil
}

// Encode converts text to token IDs under policy.
func (s *Service) Encode(ctx context.Context, text string, enc Encoding, policy SpecialPolicy) ([]int32, error) {
	t, err := s.TikToken(ctx, enc)
	if err != nil {
		return nil, err
	}
	return t.EncodeWithPolicy(text, policy)
}

// Decode converts token IDs of enc back to text.
func (s *Service) Decode(ctx context.Context, tokens []int32, enc Encoding) (string, error) {
	t, err := s.TikToken(ctx, enc)
	if err != nil {
		return "", err
	}
	return t.Decode(tokens)
}

// Count returns the number of tokens in text.
func (s *Service) Count(ctx context.Context, text string, enc Encoding) (int, error) {
	t, err := s.TikToken(ctx, enc)
	if err != nil {
		return 0, err
	}
	return t.Count(text)
}

// EncodeBatch encodes texts concurrently; results keep the input order.
func (s *Service) EncodeBatch(ctx context.Context, texts []string, enc Encoding, policy SpecialPolicy) ([][]int32, error) {
	t, err := s.TikToken(ctx, enc)
	if err != nil {
		return nil, err
	}
	return parallel.Map(ctx, len(texts), func(_ context.Context, i int) ([]int32, error) {
		return t.EncodeWithPolicy(texts[i], policy)
	}, s.parallel)
}

// CountBatch counts tokens of texts concurrently; results keep the input order.
func (s *Service) CountBatch(ctx context.Context, texts []string, enc Encoding) ([]int, error) {
	t, err := s.TikToken(ctx, enc)
	if err != nil {
		return nil, err
	}
	return parallel.Map(ctx, len(texts), func(_ context.Context, i int) (int, error) {
		return t.Count(texts[i])
	}, s.parallel)
}
