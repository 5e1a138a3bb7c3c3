package auth

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy pool closed") }

func TestFeedTokenFormat(t *testing.T) {
	t.Parallel()

	gen := NewFeedTokenGenerator()
	for i := 0; i < 50; i++ {
		token, err := gen.Generate()
		require.NoError(t, err)
		assert.Regexp(t, `^[0-9a-f]{48}$`, token)
		assert.True(t, IsWellFormedFeedToken(token))
	}
}

func TestFeedTokensAreDistinct(t *testing.T) {
	t.Parallel()

	gen := NewFeedTokenGenerator()
	seen := make(map[string]struct{}, 500)
	for i := 0; i < 500; i++ {
		token, err := gen.Generate()
		require.NoError(t, err)
		_, dup := seen[token]
		require.False(t, dup, "duplicate token %s", token)
		seen[token] = struct{}{}
	}
}

func TestFeedTokenFailsClosed(t *testing.T) {
	t.Parallel()

	_, err := NewFeedTokenGeneratorFromSource(failingReader{}).Generate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRandomnessUnavailable)

	_, err = NewFeedTokenGeneratorFromSource(bytes.NewReader(make([]byte, 10))).Generate()
	assert.ErrorIs(t, err, ErrRandomnessUnavailable)

	_, err = NewFeedTokenGeneratorFromSource(nil).Generate()
	assert.ErrorIs(t, err, ErrRandomnessUnavailable)
}

func TestFeedTokenFromDeterministicSource(t *testing.T) {
	t.Parallel()

	source := bytes.NewReader(bytes.Repeat([]byte{0xab}, FeedTokenBytes))
	token, err := NewFeedTokenGeneratorFromSource(source).Generate()
	require.NoError(t, err)
	assert.Equal(t, "abababababababababababababababababababababababab", token)
}

func TestIsWellFormedFeedToken(t *testing.T) {
	t.Parallel()

	assert.False(t, IsWellFormedFeedToken(""))
	assert.False(t, IsWellFormedFeedToken("abc123"))
	assert.False(t, IsWellFormedFeedToken("ABABABABABABABABABABABABABABABABABABABABABABABAB"))
}

func TestFeedTokenFingerprint(t *testing.T) {
	t.Parallel()

	fp := FeedTokenFingerprint("abc123")
	assert.Len(t, fp, 64)
	assert.Equal(t, fp, FeedTokenFingerprint("abc123"))
	assert.NotEqual(t, fp, FeedTokenFingerprint("abc124"))
	assert.NotContains(t, fp, "abc123")
}
