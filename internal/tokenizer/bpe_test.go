package tokenizer

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytePairEncode_Hello(t *testing.T) {
	enc := Encoder{
		"h":     10,
		"e":     11,
		"l":     12,
		"o":     13,
		"he":    14,
		"ll":    15,
		"hell":  16,
		"hello": 17,
	}

	tokens, err := BytePairEncode([]byte("hello"), enc)
	require.NoError(t, err)
	assert.Equal(t, []int32{17}, tokens)
}

func TestBytePairEncode_PartialMerges(t *testing.T) {
	enc := Encoder{"h": 10, "e": 11, "l": 12, "o": 13, "he": 14, "ll": 15}

	tokens, err := BytePairEncode([]byte("hello"), enc)
	require.NoError(t, err)
	assert.Equal(t, []int32{14, 15, 13}, tokens)
}

func TestBytePairEncode_EmptyPiece(t *testing.T) {
	tokens, err := BytePairEncode(nil, byteVocab())
	assert.ErrorIs(t, err, ErrEmptyPiece)
	assert.Nil(t, tokens)

	_, err = BytePairEncode([]byte{}, byteVocab())
	assert.ErrorIs(t, err, ErrEmptyPiece)
}

func TestBytePairEncode_SingleByte(t *testing.T) {
	vocab := byteVocab()
	for b := 0; b < 256; b++ {
		tokens, err := BytePairEncode([]byte{byte(b)}, vocab)
		require.NoError(t, err)
		assert.Equal(t, []int32{int32(b) + 1}, tokens)
	}

	tokens, err := BytePairEncode([]byte("x"), Encoder{"y": 5})
	require.NoError(t, err)
	assert.Equal(t, []int32{UnknownToken}, tokens)
}

func TestBytePairEncode_UnknownBytes(t *testing.T) {
	enc := Encoder{"a": 1, "ab": 2}

	tokens, err := BytePairEncode([]byte("abz"), enc)
	require.NoError(t, err)
	assert.Equal(t, []int32{2, UnknownToken}, tokens)
}

func TestBytePairEncode_LeftmostTieWins(t *testing.T) {
	// Parts 0, 1 and 2 of "aaaa" all start an "aa" pair of equal rank. Merging at 0
	// first yields "aaa"+"a"; merging at 2 first would yield "a"+"aaa".
	enc := Encoder{"a": 1, "aa": 5, "aaa": 3}

	tokens, err := BytePairEncode([]byte("aaaa"), enc)
	require.NoError(t, err)
	assert.Equal(t, []int32{3, 1}, tokens)
	assert.Equal(t, naiveBytePairEncode([]byte("aaaa"), enc), tokens)
}

func TestBytePairEncode_TieAtZeroAndTwo(t *testing.T) {
	// Equal minimal ranks at positions 0 and 2 of a four part piece.
	enc := Encoder{"a": 1, "b": 2, "c": 3, "d": 4, "ab": 7, "cd": 7, "bc": 9, "abc": 6}

	tokens, err := BytePairEncode([]byte("abcd"), enc)
	require.NoError(t, err)

	// Left first: ab, then abc (6), leaving d.
	assert.Equal(t, []int32{6, 4}, tokens)
}

func TestBytePairEncode_MatchesNaive(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	alphabet := []byte("abcd")

	for round := 0; round < 200; round++ {
		enc := randomVocab(rng, alphabet)

		for i := 0; i < 50; i++ {
			piece := make([]byte, 1+rng.IntN(64))
			for j := range piece {
				piece[j] = alphabet[rng.IntN(len(alphabet))]
			}

			got, err := BytePairEncode(piece, enc)
			require.NoError(t, err)
			require.Equal(t, naiveBytePairEncode(piece, enc), got, "piece %q", piece)
		}
	}
}

// randomVocab builds a small vocabulary over alphabet with colliding ranks. Some
// single bytes are left out so unknown ranges occur too.
func randomVocab(rng *rand.Rand, alphabet []byte) Encoder {
	enc := make(Encoder)
	for _, b := range alphabet {
		if rng.IntN(5) > 0 {
			enc[string([]byte{b})] = int32(rng.IntN(8))
		}
	}

	n := 4 + rng.IntN(24)
	for i := 0; i < n; i++ {
		k := make([]byte, 2+rng.IntN(4))
		for j := range k {
			k[j] = alphabet[rng.IntN(len(alphabet))]
		}
		enc[string(k)] = int32(rng.IntN(32))
	}
	return enc
}

// naiveBytePairEncode recomputes every pair rank on every iteration.
func naiveBytePairEncode(piece []byte, enc Encoder) []int32 {
	bounds := make([]int, len(piece)+1)
	for i := range bounds {
		bounds[i] = i
	}

	for len(bounds) > 2 {
		best, bestRank := -1, int32(0)
		for i := 0; i+2 < len(bounds); i++ {
			rank, ok := enc[string(piece[bounds[i]:bounds[i+2]])]
			if ok && (best < 0 || rank < bestRank) {
				best, bestRank = i, rank
			}
		}
		if best < 0 {
			break
		}
		bounds = slices.Delete(bounds, best+1, best+2)
	}

	tokens := make([]int32, 0, len(bounds)-1)
	for i := 0; i+1 < len(bounds); i++ {
		if rank, ok := enc[string(piece[bounds[i]:bounds[i+1]])]; ok {
			tokens = append(tokens, rank)
		} else {
			tokens = append(tokens, UnknownToken)
		}
	}
	return tokens
}

func BenchmarkBytePairEncode(b *testing.B) {
	enc := testVocab()
	piece := []byte("hellohellohelloworldinginginghello")

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = BytePairEncode(piece, enc)
	}
}
