package codec

import (
	"bytes"
	"testing"
)

func TestEncodeFrameEmptyIsDash(t *testing.T) {
	if got := EncodeFrame(nil); string(got) != "-" {
		t.Fatalf("EncodeFrame(nil) = %q, want %q", got, "-")
	}
}

func TestDecodeFrameDashIsEmpty(t *testing.T) {
	out, err := DecodeFrame([]byte("-"))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("DecodeFrame(\"-\") = %v, want empty", out)
	}
}

func TestDecodeFrameEmptyIsEmpty(t *testing.T) {
	out, err := DecodeFrame(nil)
	if err != nil {
		t.Fatalf("DecodeFrame(nil): %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("DecodeFrame(nil) = %v, want empty", out)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	want := []byte("hello, sasl")
	framed := EncodeFrame(want)
	got, err := DecodeFrame(framed)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("round trip = %q, want %q", got, want)
	}
}

func TestDecodeFrameRejectsMalformedBase64(t *testing.T) {
	if _, err := DecodeFrame([]byte("not valid base64!!")); err == nil {
		t.Fatal("expected error for malformed base64")
	}
}

func TestB64FieldRoundTrip(t *testing.T) {
	want := []byte{0, 1, 2, 250, 251, 252, 253, 254, 255}
	encoded := EncodeB64Field(want)
	got, err := DecodeB64Field(encoded)
	if err != nil {
		t.Fatalf("DecodeB64Field: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("round trip = %v, want %v", got, want)
	}
}
