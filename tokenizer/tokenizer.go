// Package tokenizer provides tiktoken-compatible byte-level BPE tokenization.
//
// This package wraps the internal tokenizer implementation and provides
// a clean public API for tokenization tasks.
//
// Supported encodings:
//   - cl100k_base: GPT-4, GPT-3.5-turbo, text-embedding-ada-002
//   - o200k_base: GPT-4o, o1, o3
//   - p50k_base: Codex, text-davinci-002/003
//   - r50k_base: GPT-3 (davinci), GPT-2
//
// Vocabulary files are read as "<encoding>.tiktoken" from a Source; nothing is
// downloaded.
//
// Example usage:
//
//	import "github.com/born-ml/tikbpe/tokenizer"
//
//	src := tokenizer.DirSource{Dir: "/var/lib/tiktoken"}
//
//	// Load tiktoken
//	tok, err := tokenizer.NewTikToken(ctx, src, "cl100k_base")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Encode text
//	tokens, err := tok.Encode("Hello, world!")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Decode tokens
//	text, err := tok.Decode(tokens)
//	if err != nil {
//	    log.Fatal(err)
//	}
package tokenizer

import (
	"context"
	"io"
	"log/slog"

	"github.com/born-ml/tikbpe/internal/parallel"
	"github.com/born-ml/tikbpe/internal/tokenizer"
)

// Tokenizer is the core interface for text tokenization.
type Tokenizer = tokenizer.Tokenizer

// Counter counts tokens without exposing them.
type Counter = tokenizer.Counter

// TikToken encodes and decodes text for one encoding.
type TikToken = tokenizer.TikToken

// Encoding names a tiktoken encoding such as "cl100k_base".
type Encoding = tokenizer.Encoding

// Encoder maps byte sequences to ranks.
type Encoder = tokenizer.Encoder

// SpecialPolicy selects which special token literals are recognised or rejected.
type SpecialPolicy = tokenizer.SpecialPolicy

// Service serves every encoding from one vocabulary cache.
type Service = tokenizer.Service

// VocabularyCache loads each vocabulary at most once per process.
type VocabularyCache = tokenizer.VocabularyCache

// CacheOption configures the vocabulary cache behind a Service.
type CacheOption = tokenizer.CacheOption

// Source opens vocabulary files.
type Source = tokenizer.Source

// DirSource reads "<encoding>.tiktoken" files from a directory.
type DirSource = tokenizer.DirSource

// FSSource reads "<encoding>.tiktoken" files from an fs.FS.
type FSSource = tokenizer.FSSource

// Error types.
type (
	LineError              = tokenizer.LineError
	DisallowedSpecialError = tokenizer.DisallowedSpecialError
	UnknownTokenError      = tokenizer.UnknownTokenError
	ChecksumError          = tokenizer.ChecksumError
)

// Encodings.
const (
	CL100kBase = tokenizer.CL100kBase
	O200kBase  = tokenizer.O200kBase
	P50kBase   = tokenizer.P50kBase
	R50kBase   = tokenizer.R50kBase
)

// Sentinel errors, matched with errors.Is.
var (
	ErrFormat                 = tokenizer.ErrFormat
	ErrEncoding               = tokenizer.ErrEncoding
	ErrResourceNotFound       = tokenizer.ErrResourceNotFound
	ErrChecksumMismatch       = tokenizer.ErrChecksumMismatch
	ErrEmptyPiece             = tokenizer.ErrEmptyPiece
	ErrDisallowedSpecialToken = tokenizer.ErrDisallowedSpecialToken
	ErrSpecialTokenMissing    = tokenizer.ErrSpecialTokenMissing
	ErrEncodingFailed         = tokenizer.ErrEncodingFailed
	ErrUnknownEncoding        = tokenizer.ErrUnknownEncoding
	ErrUnknownModel           = tokenizer.ErrUnknownModel
	ErrUnknownToken           = tokenizer.ErrUnknownToken
	ErrInvalidUTF8            = tokenizer.ErrInvalidUTF8
)

// NewTikToken loads the vocabulary of encodingName from source and builds a tokenizer.
func NewTikToken(ctx context.Context, source Source, encodingName string, opts ...CacheOption) (*TikToken, error) {
	enc, err := tokenizer.ParseEncoding(encodingName)
	if err != nil {
		return nil, err
	}
	return NewService(source, opts...).TikToken(ctx, enc)
}

// NewTikTokenForModel creates a TikToken tokenizer for a specific model.
//
// Example models: "gpt-4o", "gpt-4", "gpt-3.5-turbo", "text-embedding-ada-002".
func NewTikTokenForModel(ctx context.Context, source Source, modelName string, opts ...CacheOption) (*TikToken, error) {
	enc, err := tokenizer.EncodingForModel(modelName)
	if err != nil {
		return nil, err
	}
	return NewService(source, opts...).TikToken(ctx, enc)
}

// NewService creates a service with its own vocabulary cache and the default
// batch configuration.
func NewService(source Source, opts ...CacheOption) *Service {
	return tokenizer.NewService(tokenizer.NewVocabularyCache(source, opts...), parallel.DefaultConfig())
}

// WithLogger sets the logger used for vocabulary load events.
func WithLogger(logger *slog.Logger) CacheOption {
	return tokenizer.WithLogger(logger)
}

// WithChecksumVerification rejects vocabulary files whose SHA-256 digest differs
// from the published one.
func WithChecksumVerification() CacheOption {
	return tokenizer.WithChecksumVerification()
}

// PublishedChecksum returns the hex SHA-256 digest of the upstream vocabulary file.
func PublishedChecksum(enc Encoding) (string, bool) {
	return tokenizer.PublishedChecksum(enc)
}

// LoadVocabulary parses a tiktoken vocabulary ("<base64> <rank>" per line).
func LoadVocabulary(r io.Reader) (Encoder, error) {
	return tokenizer.LoadVocabulary(r)
}

// EncodingForModel returns the encoding used by an OpenAI model name.
func EncodingForModel(modelName string) (Encoding, error) {
	return tokenizer.EncodingForModel(modelName)
}

// Encodings lists the supported encodings.
func Encodings() []Encoding {
	return tokenizer.Encodings()
}

// DefaultSpecialPolicy rejects every special token literal found in the text.
func DefaultSpecialPolicy() SpecialPolicy {
	return tokenizer.DefaultSpecialPolicy()
}

// PlainTextPolicy encodes special token literals as ordinary text.
func PlainTextPolicy() SpecialPolicy {
	return tokenizer.PlainTextPolicy()
}

// AllowAllPolicy emits every special token literal as its special ID.
func AllowAllPolicy() SpecialPolicy {
	return tokenizer.AllowAllPolicy()
}
