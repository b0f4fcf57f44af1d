package tokenizer

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishedChecksum(t *testing.T) {
	for _, enc := range Encodings() {
		sum, ok := PublishedChecksum(enc)
		require.True(t, ok, enc)
		assert.Len(t, sum, 64)
	}

	_, ok := PublishedChecksum("gpt2")
	assert.False(t, ok)
}

func TestValidateChecksum(t *testing.T) {
	want, _ := PublishedChecksum(P50kBase)
	require.NoError(t, ValidateChecksum(P50kBase, want))

	err := ValidateChecksum(P50kBase, strings.Repeat("0", 64))
	require.ErrorIs(t, err, ErrChecksumMismatch)

	var sumErr *ChecksumError
	require.ErrorAs(t, err, &sumErr)
	assert.Equal(t, P50kBase, sumErr.Encoding)
	assert.Equal(t, want, sumErr.Want)

	assert.ErrorIs(t, ValidateChecksum("gpt2", want), ErrUnknownEncoding)
}

func TestChecksumReader(t *testing.T) {
	r := newChecksumReader(strings.NewReader("abc"))
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", r.Sum())
}

func TestVocabularyCache_ChecksumVerification(t *testing.T) {
	cache := NewVocabularyCache(FSSource{FS: testFS()}, WithChecksumVerification())

	_, err := cache.Load(context.Background(), CL100kBase)
	require.ErrorIs(t, err, ErrChecksumMismatch)
	assert.False(t, cache.Loaded(CL100kBase))

	// Format errors win over digest errors.
	_, err = cache.Load(context.Background(), R50kBase)
	require.ErrorIs(t, err, ErrFormat)
	assert.NotErrorIs(t, err, ErrChecksumMismatch)

	unverified := NewVocabularyCache(FSSource{FS: testFS()})
	_, err = unverified.Load(context.Background(), CL100kBase)
	assert.NoError(t, err)
}

func TestRealVocabulary_Checksums(t *testing.T) {
	dir := os.Getenv("TIKBPE_VOCAB_DIR")
	if dir == "" {
		t.Skip("TIKBPE_VOCAB_DIR not set")
	}
	cache := NewVocabularyCache(DirSource{Dir: dir}, WithChecksumVerification())

	for _, enc := range Encodings() {
		t.Run(string(enc), func(t *testing.T) {
			_, err := cache.Load(context.Background(), enc)
			if errors.Is(err, ErrResourceNotFound) {
				t.Skipf("%s not found in %s", FileName(enc), dir)
			}
			assert.NoError(t, err)
		})
	}
}
