package envconfig

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	t.Setenv("TIKBPE_DEBUG", "")
	LoadConfig()
	require.False(t, Debug)
	t.Setenv("TIKBPE_DEBUG", "false")
	LoadConfig()
	require.False(t, Debug)
	t.Setenv("TIKBPE_DEBUG", "1")
	LoadConfig()
	require.True(t, Debug)
	require.False(t, Trace)
	t.Setenv("TIKBPE_DEBUG", "yes please")
	LoadConfig()
	require.True(t, Debug)
	require.False(t, Trace)
	t.Setenv("TIKBPE_DEBUG", "2")
	LoadConfig()
	require.True(t, Debug)
	require.True(t, Trace)
	t.Setenv("TIKBPE_DEBUG", "0")
	LoadConfig()
	require.False(t, Debug)
	require.False(t, Trace)
}

func TestEncoding(t *testing.T) {
	t.Setenv("TIKBPE_ENCODING", "")
	LoadConfig()
	assert.Equal(t, "cl100k_base", Encoding)

	t.Setenv("TIKBPE_ENCODING", " \"o200k_base\" ")
	LoadConfig()
	assert.Equal(t, "o200k_base", Encoding)
}

func TestNumParallel(t *testing.T) {
	tests := map[string]int{
		"":    runtime.NumCPU(),
		"3":   3,
		"0":   runtime.NumCPU(),
		"-2":  runtime.NumCPU(),
		"abc": runtime.NumCPU(),
	}

	for value, expect := range tests {
		t.Run(value, func(t *testing.T) {
			t.Setenv("TIKBPE_NUM_PARALLEL", value)
			LoadConfig()
			assert.Equal(t, expect, NumParallel)
		})
	}
}

func TestVocabDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	t.Setenv("TIKBPE_VOCAB_DIR", "")
	LoadConfig()
	assert.Equal(t, filepath.Join(home, ".cache", "tikbpe"), VocabDir)

	t.Setenv("TIKBPE_VOCAB_DIR", "'/srv/vocab'")
	LoadConfig()
	assert.Equal(t, "/srv/vocab", VocabDir)
}

func TestValues(t *testing.T) {
	t.Setenv("TIKBPE_ENCODING", "p50k_base")
	t.Setenv("TIKBPE_NUM_PARALLEL", "7")
	LoadConfig()

	vals := Values()
	assert.Equal(t, "p50k_base", vals["TIKBPE_ENCODING"])
	assert.Equal(t, "7", vals["TIKBPE_NUM_PARALLEL"])
	assert.Len(t, AsMap(), 4)
	for name, v := range AsMap() {
		assert.Equal(t, name, v.Name)
		assert.NotEmpty(t, v.Description)
	}
}
