package codec

import (
	"strconv"
	"strings"
)

// ScramClientFirst is the parsed "n=user,r=cnonce" portion of a SCRAM
// client-first message, i.e. client-first-message-bare.
type ScramClientFirst struct {
	Username string
	Nonce    string
}

// ParseScramClientFirst parses client-first-message-bare (the part of
// client-first after the GS2 header).
func ParseScramClientFirst(b []byte) (*ScramClientFirst, error) {
	fields := strings.Split(string(b), ",")
	if len(fields) < 2 {
		return nil, parseErrorf("client-first-message-bare missing fields")
	}
	var username, nonce string
	var haveUser, haveNonce bool
	for _, f := range fields {
		switch {
		case strings.HasPrefix(f, "n="):
			username = f[2:]
			haveUser = true
		case strings.HasPrefix(f, "r="):
			nonce = f[2:]
			haveNonce = true
		case strings.HasPrefix(f, "m="):
			return nil, parseErrorf("mandatory SCRAM extension not supported")
		}
	}
	if !haveUser || username == "" {
		return nil, parseErrorf("client-first: username must be non-empty")
	}
	if !haveNonce || nonce == "" || strings.Contains(nonce, ",") {
		return nil, parseErrorf("client-first: nonce must be non-empty and comma-free")
	}
	return &ScramClientFirst{Username: scramUnescape(username), Nonce: nonce}, nil
}

// String renders client-first-message-bare.
func (c *ScramClientFirst) String() string {
	return "n=" + scramEscape(c.Username) + ",r=" + c.Nonce
}

// ScramServerFirst is the parsed "r=snonce,s=salt,i=iter" server-first
// message.
type ScramServerFirst struct {
	Nonce string // full nonce: client nonce || server nonce suffix
	Salt  []byte
	Iter  uint32
}

func ParseScramServerFirst(b []byte) (*ScramServerFirst, error) {
	fields := strings.Split(string(b), ",")
	if len(fields) < 3 {
		return nil, parseErrorf("server-first message missing fields")
	}
	sf := &ScramServerFirst{}
	var haveNonce, haveSalt, haveIter bool
	for _, f := range fields {
		switch {
		case strings.HasPrefix(f, "r="):
			sf.Nonce = f[2:]
			haveNonce = true
		case strings.HasPrefix(f, "s="):
			salt, err := decodeB64Field(f[2:])
			if err != nil {
				return nil, parseErrorf("server-first: malformed base64 salt")
			}
			sf.Salt = salt
			haveSalt = true
		case strings.HasPrefix(f, "i="):
			n, err := strconv.ParseUint(f[2:], 10, 32)
			if err != nil {
				return nil, parseErrorf("server-first: malformed iteration count")
			}
			sf.Iter = uint32(n)
			haveIter = true
		}
	}
	if !haveNonce || sf.Nonce == "" || strings.Contains(sf.Nonce, ",") {
		return nil, parseErrorf("server-first: nonce must be non-empty and comma-free")
	}
	if !haveSalt {
		return nil, parseErrorf("server-first: missing salt")
	}
	if !haveIter || sf.Iter < 1 {
		return nil, parseErrorf("server-first: iteration count must be >= 1")
	}
	return sf, nil
}

func (sf *ScramServerFirst) String() string {
	return "r=" + sf.Nonce + ",s=" + encodeB64Field(sf.Salt) + ",i=" + strconv.FormatUint(uint64(sf.Iter), 10)
}

// ScramClientFinal is the parsed "c=...,r=...,p=..." client-final
// message.
type ScramClientFinal struct {
	ChannelBinding []byte // decoded cbind-input
	Nonce          string
	Proof          []byte // decoded ClientProof
}

func ParseScramClientFinal(b []byte) (*ScramClientFinal, error) {
	fields := strings.Split(string(b), ",")
	if len(fields) < 3 {
		return nil, parseErrorf("client-final message missing fields")
	}
	cf := &ScramClientFinal{}
	var haveC, haveR, haveP bool
	for _, f := range fields {
		switch {
		case strings.HasPrefix(f, "c="):
			cb, err := decodeB64Field(f[2:])
			if err != nil {
				return nil, parseErrorf("client-final: malformed base64 cbind-input")
			}
			cf.ChannelBinding = cb
			haveC = true
		case strings.HasPrefix(f, "r="):
			cf.Nonce = f[2:]
			haveR = true
		case strings.HasPrefix(f, "p="):
			proof, err := decodeB64Field(f[2:])
			if err != nil {
				return nil, parseErrorf("client-final: malformed base64 proof")
			}
			cf.Proof = proof
			haveP = true
		}
	}
	if !haveC || !haveR || !haveP {
		return nil, parseErrorf("client-final: missing c=/r=/p=")
	}
	return cf, nil
}

// ClientFinalWithoutProof renders "c=...,r=..." (the prefix AuthMessage
// needs, excluding the trailing ",p=...").
func ClientFinalWithoutProof(cbindInput []byte, nonce string) string {
	return "c=" + encodeB64Field(cbindInput) + ",r=" + nonce
}

func (cf *ScramClientFinal) String(cbindInput []byte) string {
	return ClientFinalWithoutProof(cbindInput, cf.Nonce) + ",p=" + encodeB64Field(cf.Proof)
}

// ScramServerFinal is the parsed "v=..." server-final message, or the
// "e=..." error-reporting variant RFC 5802 §7 permits.
type ScramServerFinal struct {
	Verifier []byte // decoded v=, nil if Error is set
	Error    string // e=, "" if Verifier is set
}

func ParseScramServerFinal(b []byte) (*ScramServerFinal, error) {
	s := string(b)
	switch {
	case strings.HasPrefix(s, "v="):
		v, err := decodeB64Field(s[2:])
		if err != nil {
			return nil, parseErrorf("server-final: malformed base64 verifier")
		}
		return &ScramServerFinal{Verifier: v}, nil
	case strings.HasPrefix(s, "e="):
		return &ScramServerFinal{Error: s[2:]}, nil
	default:
		return nil, parseErrorf("server-final: expected v= or e=")
	}
}

func (sf *ScramServerFinal) String() string {
	if sf.Error != "" {
		return "e=" + sf.Error
	}
	return "v=" + encodeB64Field(sf.Verifier)
}

// scramEscape/scramUnescape implement RFC 5802's saslname escaping of
// "," as "=2C" and "=" as "=3D" within the n= username field.
func scramEscape(s string) string {
	if !strings.ContainsAny(s, ",=") {
		return s
	}
	r := strings.NewReplacer("=", "=3D", ",", "=2C")
	return r.Replace(s)
}

func scramUnescape(s string) string {
	if !strings.Contains(s, "=") {
		return s
	}
	r := strings.NewReplacer("=2C", ",", "=3D", "=")
	return r.Replace(s)
}
