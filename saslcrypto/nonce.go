package saslcrypto

import (
	"encoding/base64"
	"io"

	"github.com/google/uuid"
)

// RandomNonce returns a URL-safe, comma-free base64 encoding of n random
// bytes, suitable for a SCRAM client/server nonce or a CRAM-MD5/
// DIGEST-MD5 challenge's random component. It prefers r (the session's
// configured randomness source) and falls back to [DefaultAdapter]'s
// crypto/rand.Reader default when r is nil.
func RandomNonce(r io.Reader, n int) (string, error) {
	buf := make([]byte, n)
	if err := (DefaultAdapter{}).SecureRandom(r, buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// RandomUUID returns a version-4 UUID string. CRAM-MD5 challenges use
// this for their random component instead of raw nonce bytes, following
// the convention of embedding a UUID before the "@hostname" suffix so
// the challenge is trivially unique without needing to track per-host
// sequence state.
func RandomUUID() string {
	return uuid.NewString()
}
