package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const minTokenBytes = 16

// RandomTokenGenerator issues opaque bearer tokens from crypto/rand.
type RandomTokenGenerator struct {
	Size int
}

func (g RandomTokenGenerator) NewToken() (string, error) {
	size := g.Size
	if size < minTokenBytes {
		size = 32
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token: reading entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
