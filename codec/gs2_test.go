package codec

import "testing"

func TestGS2HeaderRoundTrip(t *testing.T) {
	cases := []*GS2Header{
		{CBFlag: CBFlagNone},
		{CBFlag: CBFlagSupportedNotUsed},
		{CBFlag: CBFlagUsed, CBName: "tls-unique"},
		{CBFlag: CBFlagNone, AuthzID: "alice"},
		{CBFlag: CBFlagNone, AuthzID: "a,b=c"},
	}
	for _, h := range cases {
		wire := h.String()
		parsed, err := ParseGS2Header([]byte(wire))
		if err != nil {
			t.Fatalf("ParseGS2Header(%q): %v", wire, err)
		}
		if parsed.CBFlag != h.CBFlag || parsed.CBName != h.CBName || parsed.AuthzID != h.AuthzID {
			t.Fatalf("round trip mismatch for %q: got %+v, want %+v", wire, parsed, h)
		}
		if parsed.HeaderLen != len(wire) {
			t.Fatalf("HeaderLen = %d, want %d for %q", parsed.HeaderLen, len(wire), wire)
		}
	}
}

func TestGS2HeaderAuthzIDEscaping(t *testing.T) {
	h := &GS2Header{CBFlag: CBFlagNone, AuthzID: "comma,and=equals"}
	wire := h.String()
	if wire != "n,a=comma=2Cand=3Dequals," {
		t.Fatalf("unexpected escaped wire form: %q", wire)
	}
	parsed, err := ParseGS2Header([]byte(wire))
	if err != nil {
		t.Fatalf("ParseGS2Header: %v", err)
	}
	if parsed.AuthzID != h.AuthzID {
		t.Fatalf("AuthzID = %q, want %q", parsed.AuthzID, h.AuthzID)
	}
}

func TestParseGS2HeaderConsumesPrefixOnly(t *testing.T) {
	wire := "n,,n=user,r=abc"
	h, err := ParseGS2Header([]byte(wire))
	if err != nil {
		t.Fatalf("ParseGS2Header: %v", err)
	}
	rest := wire[h.HeaderLen:]
	if rest != "n=user,r=abc" {
		t.Fatalf("unexpected remainder %q", rest)
	}
}

func TestParseGS2HeaderRejectsBadFlag(t *testing.T) {
	if _, err := ParseGS2Header([]byte("x,,")); err == nil {
		t.Fatal("expected error for unrecognized channel-binding flag")
	}
}

func TestParseGS2HeaderRejectsMalformedPlusFlag(t *testing.T) {
	if _, err := ParseGS2Header([]byte("p=,,")); err == nil {
		t.Fatal("expected error for empty channel-binding name")
	}
	if _, err := ParseGS2Header([]byte("p,,")); err == nil {
		t.Fatal("expected error for p without '='")
	}
}

func TestParseGS2HeaderRejectsBadAuthzIDEscape(t *testing.T) {
	if _, err := ParseGS2Header([]byte("n,a=foo=99,")); err == nil {
		t.Fatal("expected error for invalid authzid escape sequence")
	}
}

func TestParseGS2HeaderRejectsEmptyInput(t *testing.T) {
	if _, err := ParseGS2Header(nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}
