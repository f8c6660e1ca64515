package onnx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTokenizer() *tokenizer {
	return &tokenizer{vocab: map[string]int{
		"hello": 7592, "world": 2088, "play": 2377, "##ing": 2075, "!": 999,
	}}
}

func TestSplitWords(t *testing.T) {
	assert.Equal(t, []string{"hello", ",", "world", "!"}, splitWords("hello, world!"))
	assert.Empty(t, splitWords("   "))
}

func TestTokenize(t *testing.T) {
	tok := testTokenizer()
	assert.Equal(t, []int64{7592, 2088, 999}, tok.tokenize("Hello World!"))
	assert.Equal(t, []int64{2377, 2075}, tok.tokenize("playing"))
	assert.Equal(t, []int64{unkToken}, tok.tokenize("xylophone"))
}

func TestEncode(t *testing.T) {
	tok := testTokenizer()

	ids, mask := tok.encode("hello world", 6)
	assert.Equal(t, []int64{clsToken, 7592, 2088, sepToken, 0, 0}, ids)
	assert.Equal(t, []int64{1, 1, 1, 1, 0, 0}, mask)

	ids, mask = tok.encode("hello world hello world", 4)
	assert.Equal(t, []int64{clsToken, 7592, 2088, sepToken}, ids, "truncated")
	assert.Equal(t, []int64{1, 1, 1, 1}, mask)

	ids, _ = tok.encode("hello", 1)
	assert.Equal(t, []int64{0}, ids)
}

func TestLoadTokenizer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokenizer.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"model": {"vocab": {"hello": 5}}}`), 0o600))

	tok, err := loadTokenizer(path)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, tok.tokenize("hello"))

	_, err = loadTokenizer(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
