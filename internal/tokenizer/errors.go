package tokenizer

import (
	"errors"
	"fmt"
	"strings"
)

// Load-time errors.
var (
	ErrFormat           = errors.New("invalid vocabulary line format")
	ErrEncoding         = errors.New("vocabulary bytes are not valid base64")
	ErrResourceNotFound = errors.New("vocabulary resource not found")
	ErrChecksumMismatch = errors.New("checksum mismatch: vocabulary file may be corrupted")
)

// Encode-time errors.
var (
	ErrEmptyPiece             = errors.New("empty piece")
	ErrDisallowedSpecialToken = errors.New("disallowed special token found in text")
	ErrSpecialTokenMissing    = errors.New("special token missing from encoder")
	ErrEncodingFailed         = errors.New("encoding failed")
)

// Lookup and decode errors.
var (
	ErrUnknownEncoding = errors.New("unknown encoding")
	ErrUnknownModel    = errors.New("no encoding known for model")
	ErrUnknownToken    = errors.New("unknown token id")
	ErrInvalidUTF8     = errors.New("decoded bytes are not valid UTF-8")
)

// LineError reports a vocabulary line that could not be loaded.
type LineError struct {
	Line int    // 1-based line number
	Text string // Offending line, truncated for display
	Err  error  // ErrFormat or ErrEncoding
}

// Error implements the error interface.
func (e *LineError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

// Unwrap returns the underlying sentinel.
func (e *LineError) Unwrap() error {
	return e.Err
}

// DisallowedSpecialError lists the disallowed special tokens present in a text.
type DisallowedSpecialError struct {
	Tokens []string
}

// Error implements the error interface.
func (e *DisallowedSpecialError) Error() string {
	return fmt.Sprintf("%v: %s", ErrDisallowedSpecialToken, strings.Join(e.Tokens, ", "))
}

// Unwrap returns ErrDisallowedSpecialToken.
func (e *DisallowedSpecialError) Unwrap() error {
	return ErrDisallowedSpecialToken
}

// UnknownTokenError reports a token id with no byte sequence in the vocabulary.
type UnknownTokenError struct {
	Token    int32
	Position int
}

// Error implements the error interface.
func (e *UnknownTokenError) Error() string {
	return fmt.Sprintf("%v: %d at position %d", ErrUnknownToken, e.Token, e.Position)
}

// Unwrap returns ErrUnknownToken.
func (e *UnknownTokenError) Unwrap() error {
	return ErrUnknownToken
}

// ChecksumError reports a vocabulary file whose digest differs from the published one.
type ChecksumError struct {
	Encoding Encoding
	Want     string
	Got      string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("%s: %v: want sha256 %s, got %s", e.Encoding, ErrChecksumMismatch, e.Want, e.Got)
}

func (e *ChecksumError) Unwrap() error {
	return ErrChecksumMismatch
}
