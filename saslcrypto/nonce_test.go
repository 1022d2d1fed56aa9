package saslcrypto_test

import (
	"strings"
	"testing"

	"github.com/sasl-go/sasl/saslcrypto"
)

func TestRandomNonceLengthAndAlphabet(t *testing.T) {
	n, err := saslcrypto.RandomNonce(nil, 18)
	if err != nil {
		t.Fatalf("RandomNonce: %v", err)
	}
	if strings.ContainsAny(n, ",=+/") {
		t.Fatalf("RandomNonce contains a character SCRAM forbids in a nonce: %q", n)
	}
}

func TestRandomNonceIsNotConstant(t *testing.T) {
	a, err := saslcrypto.RandomNonce(nil, 18)
	if err != nil {
		t.Fatalf("RandomNonce: %v", err)
	}
	b, err := saslcrypto.RandomNonce(nil, 18)
	if err != nil {
		t.Fatalf("RandomNonce: %v", err)
	}
	if a == b {
		t.Fatal("two RandomNonce calls produced the same value (statistically near impossible)")
	}
}

func TestRandomUUIDLooksLikeAUUID(t *testing.T) {
	u := saslcrypto.RandomUUID()
	parts := strings.Split(u, "-")
	if len(parts) != 5 {
		t.Fatalf("RandomUUID = %q, want 5 hyphen-separated groups", u)
	}
}
