package tokenizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// FileExtension is the suffix of vocabulary files.
const FileExtension = ".tiktoken"

// Source supplies the raw tiktoken vocabulary of an encoding.
//
// Open returns ErrResourceNotFound (possibly wrapped) when the encoding has no
// resource.
type Source interface {
	Open(ctx context.Context, enc Encoding) (io.ReadCloser, error)
}

// FileName returns the vocabulary file name of enc.
func FileName(enc Encoding) string {
	return string(enc) + FileExtension
}

// DirSource reads <dir>/<encoding>.tiktoken from the local filesystem.
type DirSource struct {
	Dir string
}

// Open opens the vocabulary file of enc.
func (s DirSource) Open(ctx context.Context, enc Encoding) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.Dir, FileName(enc))
	f, err := os.Open(path) //nolint:gosec // G304: Path comes from trusted configuration
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, path)
		}
		return nil, fmt.Errorf("failed to open vocabulary %s: %w", path, err)
	}
	return f, nil
}

// FSSource reads <encoding>.tiktoken from an fs.FS, e.g. an embed.FS.
type FSSource struct {
	FS fs.FS
}

// Open opens the vocabulary file of enc.
func (s FSSource) Open(ctx context.Context, enc Encoding) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.FS.Open(FileName(enc))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, FileName(enc))
		}
		return nil, fmt.Errorf("failed to open vocabulary %s: %w", FileName(enc), err)
	}
	return f, nil
}
