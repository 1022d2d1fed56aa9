package codec

import "encoding/base64"

// EmptyToken is the literal single-byte wire token that disambiguates an
// explicitly empty token from "nothing sent yet" (spec.md §4.D/§6).
const EmptyToken = "-"

// DecodeFrame decodes one base64 wire token, treating the literal "-"
// sentinel as an empty token. It is the lower half of what spec.md calls
// step64; [github.com/sasl-go/sasl.Session.Step64] is the full operation.
func DecodeFrame(in []byte) ([]byte, error) {
	if len(in) == 1 && in[0] == '-' {
		return nil, nil
	}
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]byte, base64.StdEncoding.DecodedLen(len(in)))
	n, err := base64.StdEncoding.Decode(out, in)
	if err != nil {
		return nil, parseErrorf("malformed base64 frame: " + err.Error())
	}
	return out[:n], nil
}

// EncodeFrame base64-encodes out, or returns the literal "-" sentinel if
// out is empty.
func EncodeFrame(out []byte) []byte {
	if len(out) == 0 {
		return []byte(EmptyToken)
	}
	enc := make([]byte, base64.StdEncoding.EncodedLen(len(out)))
	base64.StdEncoding.Encode(enc, out)
	return enc
}

// decodeB64Field decodes a single base64 field inside a SCRAM token
// (s=, c=, p=, v=), which RFC 5802 always encodes with the standard
// alphabet and padding.
func decodeB64Field(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

// encodeB64Field is the inverse of decodeB64Field.
func encodeB64Field(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// EncodeB64Field is the exported form of encodeB64Field, for mechanism
// packages assembling a SCRAM "c=" cbind-input field outside this
// package.
func EncodeB64Field(b []byte) string { return encodeB64Field(b) }

// DecodeB64Field is the exported form of decodeB64Field.
func DecodeB64Field(s string) ([]byte, error) { return decodeB64Field(s) }
