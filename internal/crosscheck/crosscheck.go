// Package crosscheck compares tikbpe output with the pkoukk/tiktoken-go reference
// implementation over the same vocabulary files.
package crosscheck

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/born-ml/tikbpe/internal/tokenizer"
)

// Report is the outcome of one comparison.
type Report struct {
	Encoding  tokenizer.Encoding
	Tokens    []int32 // tikbpe output
	Reference []int32 // tiktoken-go output
	FirstDiff int     // index of the first differing token, -1 when equal
}

// Match reports whether both implementations agree.
func (r *Report) Match() bool {
	return r.FirstDiff < 0
}

// String summarises the report.
func (r *Report) String() string {
	if r.Match() {
		return fmt.Sprintf("%s: match (%d tokens)", r.Encoding, len(r.Tokens))
	}
	return fmt.Sprintf("%s: mismatch at token %d (tikbpe %d tokens, reference %d tokens)",
		r.Encoding, r.FirstDiff, len(r.Tokens), len(r.Reference))
}

// Checker runs both tokenizers.
//
// tiktoken-go keeps its BPE loader and its encodings in package globals, so the
// reference side of every Checker in a process reads through the cache of the most
// recently created one.
type Checker struct {
	svc *tokenizer.Service

	mu   sync.Mutex
	refs map[tokenizer.Encoding]*tiktoken.Tiktoken
}

var loaderMu sync.Mutex

// New creates a checker and points tiktoken-go at cache.
func New(svc *tokenizer.Service, cache *tokenizer.VocabularyCache) *Checker {
	loaderMu.Lock()
	tiktoken.SetBpeLoader(&bpeLoader{cache: cache})
	loaderMu.Unlock()

	return &Checker{
		svc:  svc,
		refs: make(map[tokenizer.Encoding]*tiktoken.Tiktoken),
	}
}

// Check encodes text with both implementations. Special token literals are treated
// as plain text on both sides.
func (c *Checker) Check(ctx context.Context, text string, enc tokenizer.Encoding) (*Report, error) {
	tokens, err := c.svc.Encode(ctx, text, enc, tokenizer.PlainTextPolicy())
	if err != nil {
		return nil, err
	}

	ref, err := c.reference(enc)
	if err != nil {
		return nil, err
	}

	want := toInt32(ref.Encode(text, nil, nil))
	return &Report{
		Encoding:  enc,
		Tokens:    tokens,
		Reference: want,
		FirstDiff: firstDiff(tokens, want),
	}, nil
}

func (c *Checker) reference(enc tokenizer.Encoding) (*tiktoken.Tiktoken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ref, ok := c.refs[enc]; ok {
		return ref, nil
	}
	ref, err := tiktoken.GetEncoding(string(enc))
	if err != nil {
		return nil, fmt.Errorf("failed to load reference encoding %q: %w", enc, err)
	}
	c.refs[enc] = ref
	return ref, nil
}

// bpeLoader feeds tiktoken-go from a VocabularyCache instead of the network.
type bpeLoader struct {
	cache *tokenizer.VocabularyCache
}

// LoadTiktokenBpe receives the upstream download URL; only its file name is used.
func (l *bpeLoader) LoadTiktokenBpe(tiktokenBpeFile string) (map[string]int, error) {
	name := strings.TrimSuffix(path.Base(tiktokenBpeFile), tokenizer.FileExtension)
	enc, err := tokenizer.ParseEncoding(name)
	if err != nil {
		return nil, err
	}

	// tiktoken-go offers no context here.
	vocab, err := l.cache.Load(context.Background(), enc)
	if err != nil {
		return nil, err
	}

	ranks := make(map[string]int, len(vocab))
	for k, v := range vocab {
		ranks[k] = int(v)
	}
	return ranks, nil
}

func toInt32(ids []int) []int32 {
	out := make([]int32, len(ids))
	for i, id := range ids {
		out[i] = int32(id) //nolint:gosec // G115: Token ID fits in int32 - vocab size < 2^31.
	}
	return out
}

func firstDiff(a, b []int32) int {
	for i := 0; i < min(len(a), len(b)); i++ {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return min(len(a), len(b))
	}
	return -1
}
