package codec

import (
	"bytes"
	"testing"
)

func TestScramClientFirstRoundTrip(t *testing.T) {
	cf := &ScramClientFirst{Username: "user", Nonce: "rOprNGfwEbeRWgbNEkqO"}
	wire := cf.String()
	parsed, err := ParseScramClientFirst([]byte(wire))
	if err != nil {
		t.Fatalf("ParseScramClientFirst(%q): %v", wire, err)
	}
	if parsed.Username != cf.Username || parsed.Nonce != cf.Nonce {
		t.Fatalf("round trip mismatch: got %+v, want %+v", parsed, cf)
	}
}

func TestScramClientFirstEscapesUsername(t *testing.T) {
	cf := &ScramClientFirst{Username: "user,name=x", Nonce: "abc"}
	wire := cf.String()
	if wire != "n=user=2Cname=3Dx,r=abc" {
		t.Fatalf("unexpected escaped wire form: %q", wire)
	}
	parsed, err := ParseScramClientFirst([]byte(wire))
	if err != nil {
		t.Fatalf("ParseScramClientFirst: %v", err)
	}
	if parsed.Username != cf.Username {
		t.Fatalf("Username = %q, want %q", parsed.Username, cf.Username)
	}
}

func TestScramServerFirstRoundTrip(t *testing.T) {
	sf := &ScramServerFirst{Nonce: "rOprNGfwEbeRWgbNEkqO%hvYDpWUa2RaTCAfuxFIlj", Salt: []byte("saltsalt"), Iter: 4096}
	wire := sf.String()
	parsed, err := ParseScramServerFirst([]byte(wire))
	if err != nil {
		t.Fatalf("ParseScramServerFirst(%q): %v", wire, err)
	}
	if parsed.Nonce != sf.Nonce || parsed.Iter != sf.Iter || !bytes.Equal(parsed.Salt, sf.Salt) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", parsed, sf)
	}
}

func TestScramServerFirstRejectsZeroIter(t *testing.T) {
	if _, err := ParseScramServerFirst([]byte("r=abc,s=c2FsdA==,i=0")); err == nil {
		t.Fatal("expected error for iteration count of zero")
	}
}

func TestScramClientFinalRoundTrip(t *testing.T) {
	cbindInput := []byte("n,,")
	cf := &ScramClientFinal{ChannelBinding: cbindInput, Nonce: "fullnonce", Proof: []byte{1, 2, 3, 4}}
	wire := cf.String(cbindInput)
	parsed, err := ParseScramClientFinal([]byte(wire))
	if err != nil {
		t.Fatalf("ParseScramClientFinal(%q): %v", wire, err)
	}
	if !bytes.Equal(parsed.ChannelBinding, cf.ChannelBinding) || parsed.Nonce != cf.Nonce || !bytes.Equal(parsed.Proof, cf.Proof) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", parsed, cf)
	}
}

func TestClientFinalWithoutProofMatchesPrefix(t *testing.T) {
	cbindInput := []byte("n,,")
	nonce := "fullnonce"
	prefix := ClientFinalWithoutProof(cbindInput, nonce)
	full := (&ScramClientFinal{ChannelBinding: cbindInput, Nonce: nonce, Proof: []byte{9}}).String(cbindInput)
	if full[:len(prefix)] != prefix {
		t.Fatalf("ClientFinalWithoutProof %q is not a prefix of %q", prefix, full)
	}
}

func TestScramServerFinalRoundTripVerifier(t *testing.T) {
	sf := &ScramServerFinal{Verifier: []byte{5, 6, 7, 8}}
	wire := sf.String()
	parsed, err := ParseScramServerFinal([]byte(wire))
	if err != nil {
		t.Fatalf("ParseScramServerFinal(%q): %v", wire, err)
	}
	if !bytes.Equal(parsed.Verifier, sf.Verifier) || parsed.Error != "" {
		t.Fatalf("round trip mismatch: got %+v, want %+v", parsed, sf)
	}
}

func TestScramServerFinalRoundTripError(t *testing.T) {
	sf := &ScramServerFinal{Error: "invalid-proof"}
	wire := sf.String()
	parsed, err := ParseScramServerFinal([]byte(wire))
	if err != nil {
		t.Fatalf("ParseScramServerFinal(%q): %v", wire, err)
	}
	if parsed.Error != sf.Error || parsed.Verifier != nil {
		t.Fatalf("round trip mismatch: got %+v, want %+v", parsed, sf)
	}
}

func TestParseScramClientFirstRejectsMandatoryExtension(t *testing.T) {
	if _, err := ParseScramClientFirst([]byte("m=ext,n=user,r=abc")); err == nil {
		t.Fatal("expected error for mandatory extension field")
	}
}
