// Package codec implements the wire-level parsers and printers shared by
// the channel-binding, DIGEST-MD5 and SCRAM mechanisms (component D):
// GS2 headers, DIGEST-MD5 directive sets, and SCRAM client/server
// tokens. None of these types know anything about cryptography or
// property dispatch; they only convert between bytes and structured
// Go values, bijectively on legal input.
package codec

import "strings"

// CBFlag is the GS2 channel-binding flag a client advertises in its
// initial message.
type CBFlag byte

const (
	// CBFlagNone means the client does not support channel binding.
	CBFlagNone CBFlag = 'n'
	// CBFlagSupportedNotUsed means the client supports channel binding
	// but believes the server does not, so did not use it. A server that
	// does support it must fail the exchange (downgrade attack).
	CBFlagSupportedNotUsed CBFlag = 'y'
	// CBFlagUsed means the client used channel binding; CBName names
	// which type.
	CBFlagUsed CBFlag = 'p'
)

// GS2Header is the parsed form of a GS2 channel-binding header, as used
// by the SCRAM, OPENID20 and SAML20 mechanisms.
type GS2Header struct {
	CBFlag  CBFlag
	CBName  string // set only when CBFlag == CBFlagUsed
	AuthzID string // "" if absent
	// HeaderLen is the length in bytes of the header as it appeared on
	// the wire, i.e. the offset of the first byte following it. SCRAM's
	// GS2 binding input is gs2-header || channel-binding-data, so
	// callers need this to reconstruct gs2-header verbatim.
	HeaderLen int
}

func isCBNameByte(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') || b == '.' || b == '-'
}

// unescapeAuthzID reverses the "," -> "=2C", "=" -> "=3D" escaping of
// spec.md §4.D/§6. Any "=" not immediately followed by "2C" or "3D" is a
// parse error.
func unescapeAuthzID(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '=' {
			b.WriteByte(c)
			continue
		}
		if i+2 >= len(s) {
			return "", parseErrorf("truncated GS2 authzid escape")
		}
		switch s[i+1 : i+3] {
		case "2C":
			b.WriteByte(',')
		case "3D":
			b.WriteByte('=')
		default:
			return "", parseErrorf("invalid GS2 authzid escape sequence")
		}
		i += 2
	}
	return b.String(), nil
}

// escapeAuthzID applies the GS2 authzid escaping.
func escapeAuthzID(s string) string {
	if !strings.ContainsAny(s, ",=") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ',':
			b.WriteString("=2C")
		case '=':
			b.WriteString("=3D")
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// ParseGS2Header parses a GS2 channel-binding header from the start of
// b. It does not require the header to be the entire input; HeaderLen
// reports how much of b it consumed.
func ParseGS2Header(b []byte) (*GS2Header, error) {
	if len(b) == 0 {
		return nil, parseErrorf("empty GS2 header")
	}

	h := &GS2Header{}
	i := 0

	switch b[0] {
	case 'n':
		h.CBFlag = CBFlagNone
		i = 1
	case 'y':
		h.CBFlag = CBFlagSupportedNotUsed
		i = 1
	case 'p':
		if len(b) < 2 || b[1] != '=' {
			return nil, parseErrorf("malformed p= channel-binding flag")
		}
		h.CBFlag = CBFlagUsed
		j := 2
		for j < len(b) && b[j] != ',' {
			if !isCBNameByte(b[j]) {
				return nil, parseErrorf("invalid character in channel-binding name")
			}
			j++
		}
		if j == 2 {
			return nil, parseErrorf("empty channel-binding name")
		}
		h.CBName = string(b[2:j])
		i = j
	default:
		return nil, parseErrorf("unrecognized GS2 channel-binding flag")
	}

	if i >= len(b) || b[i] != ',' {
		return nil, parseErrorf("missing comma after GS2 channel-binding flag")
	}
	i++

	if i < len(b) && b[i] == 'a' {
		if i+1 >= len(b) || b[i+1] != '=' {
			return nil, parseErrorf("malformed a= authzid field")
		}
		j := i + 2
		for j < len(b) && b[j] != ',' {
			j++
		}
		authzid, err := unescapeAuthzID(string(b[i+2 : j]))
		if err != nil {
			return nil, err
		}
		h.AuthzID = authzid
		i = j
	}

	if i >= len(b) || b[i] != ',' {
		return nil, parseErrorf("missing trailing comma in GS2 header")
	}
	i++

	h.HeaderLen = i
	return h, nil
}

// String renders h in its canonical wire form.
func (h *GS2Header) String() string {
	var b strings.Builder
	switch h.CBFlag {
	case CBFlagUsed:
		b.WriteString("p=")
		b.WriteString(h.CBName)
	default:
		b.WriteByte(byte(h.CBFlag))
	}
	b.WriteByte(',')
	if h.AuthzID != "" {
		b.WriteString("a=")
		b.WriteString(escapeAuthzID(h.AuthzID))
	}
	b.WriteByte(',')
	return b.String()
}
