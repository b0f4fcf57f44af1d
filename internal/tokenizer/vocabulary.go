package tokenizer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// UnknownToken is emitted for byte ranges that have no vocabulary entry.
const UnknownToken int32 = 0

// maxLineEcho bounds how much of a bad line ends up in a LineError.
const maxLineEcho = 64

// Encoder maps a byte sequence to its rank, which is also its token id.
//
// Keys are raw bytes stored in a string. An Encoder is never modified once loaded,
// so it can be shared by any number of goroutines.
type Encoder map[string]int32

// Lookup returns the rank of b.
func (e Encoder) Lookup(b []byte) (int32, bool) {
	rank, ok := e[string(b)]
	return rank, ok
}

// Decoder returns the reverse mapping token id -> bytes.
func (e Encoder) Decoder() map[int32][]byte {
	dec := make(map[int32][]byte, len(e))
	for k, v := range e {
		dec[v] = []byte(k)
	}
	return dec
}

// LoadVocabulary reads a tiktoken file from r.
//
// The whole resource is read into memory before parsing.
func LoadVocabulary(r io.Reader) (Encoder, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary: %w", err)
	}
	return ParseVocabulary(data)
}

// ParseVocabulary parses tiktoken lines of the form "<base64-bytes> <rank>".
//
// Empty lines are skipped. A line with anything other than two space separated
// fields, or with a rank that is not a non-negative integer, fails with ErrFormat.
// Undecodable base64 fails with ErrEncoding. Both are reported as *LineError.
func ParseVocabulary(data []byte) (Encoder, error) {
	enc := make(Encoder, bytes.Count(data, []byte{'\n'})+1)

	lineNo := 0
	for len(data) > 0 {
		lineNo++

		var line []byte
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i], data[i+1:]
		} else {
			line, data = data, nil
		}
		if len(line) == 0 {
			continue
		}

		key, rank, err := parseVocabularyLine(string(line))
		if err != nil {
			return nil, &LineError{Line: lineNo, Text: truncate(string(line), maxLineEcho), Err: err}
		}
		enc[key] = rank
	}

	return enc, nil
}

func parseVocabularyLine(line string) (string, int32, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool { return r == ' ' })
	if len(fields) != 2 {
		return "", 0, ErrFormat
	}

	token, err := base64.StdEncoding.DecodeString(fields[0])
	if err != nil {
		return "", 0, ErrEncoding
	}

	rank, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil || rank < 0 {
		return "", 0, ErrFormat
	}

	return string(token), int32(rank), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
