package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"regexp"
)

// FeedTokenBytes is the entropy of a feed token before hex encoding.
const FeedTokenBytes = 24

// ErrRandomnessUnavailable is returned when the random source cannot be read.
var ErrRandomnessUnavailable = errors.New("secure randomness unavailable")

var feedTokenPattern = regexp.MustCompile(`^[0-9a-f]{48}$`)

// FeedTokenGenerator produces opaque feed credentials.
type FeedTokenGenerator interface {
	Generate() (string, error)
}

type randomTokenGenerator struct {
	source io.Reader
}

// NewFeedTokenGenerator builds a generator backed by crypto/rand.
func NewFeedTokenGenerator() FeedTokenGenerator {
	return &randomTokenGenerator{source: rand.Reader}
}

// NewFeedTokenGeneratorFromSource builds a generator over an injected source.
func NewFeedTokenGeneratorFromSource(source io.Reader) FeedTokenGenerator {
	return &randomTokenGenerator{source: source}
}

// Generate returns 24 random bytes as lowercase hex.
func (g *randomTokenGenerator) Generate() (string, error) {
	if g.source == nil {
		return "", ErrRandomnessUnavailable
	}
	buf := make([]byte, FeedTokenBytes)
	if _, err := io.ReadFull(g.source, buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRandomnessUnavailable, err)
	}
	return hex.EncodeToString(buf), nil
}

// IsWellFormedFeedToken reports whether s has the shape of a generated token.
func IsWellFormedFeedToken(s string) bool {
	return feedTokenPattern.MatchString(s)
}

// FeedTokenFingerprint returns the sha256 hex of a token, safe to log and use as a cache key.
func FeedTokenFingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
