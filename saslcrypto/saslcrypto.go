// Package saslcrypto is the cryptographic primitive boundary the core
// mechanisms consume (component E). It exists so a caller could plug in
// an alternative implementation (e.g. backed by a HSM) without touching
// any mechanism's protocol logic; [DefaultAdapter] is the only
// implementation shipped here, built on the standard library plus
// golang.org/x/crypto/pbkdf2.
package saslcrypto

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/subtle"
	"hash"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// HashKind names a hash algorithm a mechanism asks the adapter for.
type HashKind int

const (
	HashMD5 HashKind = iota
	HashSHA1
	HashSHA256
)

func newHash(kind HashKind) func() hash.Hash {
	switch kind {
	case HashMD5:
		return md5.New
	case HashSHA1:
		return sha1.New
	case HashSHA256:
		return sha256.New
	default:
		panic("saslcrypto: unsupported hash kind")
	}
}

// Adapter is the trait boundary spec.md §4.E describes.
type Adapter interface {
	MD5(b []byte) [md5.Size]byte
	HMACMD5(key, b []byte) [md5.Size]byte
	SHA1(b []byte) [sha1.Size]byte
	HMACSHA1(key, b []byte) [sha1.Size]byte
	SHA256(b []byte) [sha256.Size]byte
	HMACSHA256(key, b []byte) [sha256.Size]byte

	// PBKDF2HMAC derives outLen bytes using the named HMAC hash.
	PBKDF2HMAC(kind HashKind, password, salt []byte, iter, outLen int) []byte

	// SecureRandom fills buf with cryptographically strong random bytes
	// from r, or from crypto/rand.Reader if r is nil.
	SecureRandom(r io.Reader, buf []byte) error

	// ScramDerive computes the three SCRAM keys from a salted password
	// (RFC 5802 §3): ClientKey, StoredKey, ServerKey. It does not itself
	// run PBKDF2; callers that have a precomputed SaltedPassword
	// (spec.md's ScramSaltedPassword shortcut) pass it straight through.
	ScramDerive(kind HashKind, saltedPassword []byte) (clientKey, storedKey, serverKey []byte)

	// ConstantTimeEqual reports whether a and b are equal, in time
	// independent of where they first differ.
	ConstantTimeEqual(a, b []byte) bool
}

// DefaultAdapter is the stdlib+pbkdf2-backed [Adapter].
type DefaultAdapter struct{}

var _ Adapter = DefaultAdapter{}

func (DefaultAdapter) MD5(b []byte) [md5.Size]byte { return md5.Sum(b) }

func (DefaultAdapter) HMACMD5(key, b []byte) [md5.Size]byte {
	m := hmac.New(md5.New, key)
	m.Write(b)
	var out [md5.Size]byte
	copy(out[:], m.Sum(nil))
	return out
}

func (DefaultAdapter) SHA1(b []byte) [sha1.Size]byte { return sha1.Sum(b) }

func (DefaultAdapter) HMACSHA1(key, b []byte) [sha1.Size]byte {
	m := hmac.New(sha1.New, key)
	m.Write(b)
	var out [sha1.Size]byte
	copy(out[:], m.Sum(nil))
	return out
}

func (DefaultAdapter) SHA256(b []byte) [sha256.Size]byte { return sha256.Sum256(b) }

func (DefaultAdapter) HMACSHA256(key, b []byte) [sha256.Size]byte {
	m := hmac.New(sha256.New, key)
	m.Write(b)
	var out [sha256.Size]byte
	copy(out[:], m.Sum(nil))
	return out
}

func (DefaultAdapter) PBKDF2HMAC(kind HashKind, password, salt []byte, iter, outLen int) []byte {
	return pbkdf2.Key(password, salt, iter, outLen, newHash(kind))
}

func (DefaultAdapter) SecureRandom(r io.Reader, buf []byte) error {
	if r == nil {
		r = rand.Reader
	}
	_, err := io.ReadFull(r, buf)
	if err != nil {
		return &RandomUnavailableError{Err: err}
	}
	return nil
}

func (a DefaultAdapter) ScramDerive(kind HashKind, saltedPassword []byte) (clientKey, storedKey, serverKey []byte) {
	h := newHash(kind)

	ck := hmac.New(h, saltedPassword)
	ck.Write([]byte("Client Key"))
	clientKey = ck.Sum(nil)

	hh := h()
	hh.Write(clientKey)
	storedKey = hh.Sum(nil)

	sk := hmac.New(h, saltedPassword)
	sk.Write([]byte("Server Key"))
	serverKey = sk.Sum(nil)

	return clientKey, storedKey, serverKey
}

func (DefaultAdapter) ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// RandomUnavailableError reports that the configured randomness source
// failed (spec.md §4.E: "Failures: RandomUnavailable").
type RandomUnavailableError struct{ Err error }

func (e *RandomUnavailableError) Error() string { return "saslcrypto: random source unavailable: " + e.Err.Error() }
func (e *RandomUnavailableError) Unwrap() error { return e.Err }

// UnsupportedHashError reports an unrecognized [HashKind].
type UnsupportedHashError struct{ Kind HashKind }

func (e *UnsupportedHashError) Error() string { return "saslcrypto: unsupported hash kind" }
