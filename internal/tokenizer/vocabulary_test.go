package tokenizer

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVocabulary(t *testing.T) {
	enc, err := ParseVocabulary([]byte("aGVsbG8= 42\n"))
	require.NoError(t, err)

	rank, ok := enc.Lookup([]byte("hello"))
	require.True(t, ok)
	assert.Equal(t, int32(42), rank)
	assert.Len(t, enc, 1)
}

func TestParseVocabulary_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
		line    int
	}{
		{
			name:    "missing rank",
			data:    "aGVsbG8=",
			wantErr: ErrFormat,
			line:    1,
		},
		{
			name:    "invalid base64",
			data:    "!!!notbase64!!! 1",
			wantErr: ErrEncoding,
			line:    1,
		},
		{
			name:    "extra field",
			data:    "aGVsbG8= 42 7",
			wantErr: ErrFormat,
			line:    1,
		},
		{
			name:    "rank not a number",
			data:    "aGVsbG8= forty",
			wantErr: ErrFormat,
			line:    1,
		},
		{
			name:    "negative rank",
			data:    "aGVsbG8= -1",
			wantErr: ErrFormat,
			line:    1,
		},
		{
			name:    "error on later line",
			data:    "aA== 0\naQ== 1\nbad\n",
			wantErr: ErrFormat,
			line:    3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := ParseVocabulary([]byte(tt.data))
			require.Error(t, err)
			assert.Nil(t, enc)
			assert.ErrorIs(t, err, tt.wantErr)

			var lineErr *LineError
			require.ErrorAs(t, err, &lineErr)
			assert.Equal(t, tt.line, lineErr.Line)
		})
	}
}

func TestParseVocabulary_SkipsEmptyLines(t *testing.T) {
	enc, err := ParseVocabulary([]byte("aA== 0\n\naQ== 1\n\n"))
	require.NoError(t, err)
	assert.Equal(t, Encoder{"h": 0, "i": 1}, enc)
}

func TestParseVocabulary_LastDuplicateWins(t *testing.T) {
	enc, err := ParseVocabulary([]byte("aA== 0\naA== 7\n"))
	require.NoError(t, err)
	assert.Equal(t, Encoder{"h": 7}, enc)
}

func TestLoadVocabulary_Roundtrip(t *testing.T) {
	want := testVocab()

	got, err := LoadVocabulary(strings.NewReader(vocabFile(want)))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestLoadVocabulary_ReadError(t *testing.T) {
	_, err := LoadVocabulary(failingReader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestEncoder_Decoder(t *testing.T) {
	dec := Encoder{"ab": 1, "c": 2}.Decoder()
	assert.Equal(t, []byte("ab"), dec[1])
	assert.Equal(t, []byte("c"), dec[2])
}
