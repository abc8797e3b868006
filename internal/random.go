package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

const (
	// DefaultTokenBytes yields 256 bits of entropy per token value.
	DefaultTokenBytes = 32
	// MinTokenBytes is the smallest raw token size the engine accepts.
	MinTokenBytes = 32
	// MaxTokenBytes keeps encoded values well inside Redis key limits.
	MaxTokenBytes = 128
)

// NewToken returns size random bytes encoded as unpadded base64url.
func NewToken(size int) (string, error) {
	if size < MinTokenBytes || size > MaxTokenBytes {
		return "", errors.New("invalid token size")
	}

	raw := make([]byte, size)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	// base64url, no padding, safe in headers and cookies
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// TokenLength reports the encoded length of a token generated with size bytes.
func TokenLength(size int) int {
	return base64.RawURLEncoding.EncodedLen(size)
}
