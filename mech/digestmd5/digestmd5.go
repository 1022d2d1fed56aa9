// Package digestmd5 implements the DIGEST-MD5 mechanism (RFC 2831). It
// negotiates and validates qop/cipher in full, but never wraps
// subsequent application messages under the negotiated auth-int/
// auth-conf layer: the handshake ends at authentication.
package digestmd5

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sasl-go/sasl"
	"github.com/sasl-go/sasl/codec"
	"github.com/sasl-go/sasl/saslcrypto"
	"github.com/sasl-go/sasl/saslprep"
)

// optionalHashedPassword requests the precomputed H(username:realm:password)
// shortcut, treating the callback leaving it unanswered as "not supplied"
// rather than an error.
func optionalHashedPassword(s *sasl.Session) ([16]byte, bool, error) {
	v, err := s.RequestProperty(sasl.PropDigestMD5HashedPassword)
	if err != nil {
		var pe *sasl.PropertyError
		if errors.As(err, &pe) {
			return [16]byte{}, false, nil
		}
		return [16]byte{}, false, err
	}
	if len(v) != 16 {
		return [16]byte{}, false, &sasl.MechanismParseError{Mechanism: sasl.DIGEST_MD5, Reason: "DigestMD5HashedPassword must be exactly 16 bytes"}
	}
	var out [16]byte
	copy(out[:], v)
	return out, true, nil
}

func init() {
	sasl.Register(sasl.Descriptor{
		Name:      sasl.DIGEST_MD5,
		Flags:     sasl.MechFlagServerFirst,
		NewClient: newClient,
		NewServer: newServer,
	})
}

const defaultQop = "auth"

// latin1ToUTF8 reinterprets b as Latin-1 (ISO 8859-1) code points and
// re-encodes them as UTF-8, per RFC 2831's fallback for clients that
// omit charset=utf-8.
func latin1ToUTF8(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	var buf [utf8.UTFMax]byte
	for _, c := range b {
		n := utf8.EncodeRune(buf[:], rune(c))
		sb.Write(buf[:n])
	}
	return sb.String()
}

// ha1 computes H(A1) per RFC 2831 §2.1.2.1: the inner
// H(username:realm:password) digest is used as raw bytes, not hex, when
// composed with the nonce/cnonce/authzid suffix.
func ha1(adapter saslcrypto.Adapter, innerDigest [16]byte, nonce, cnonce, authzid string) [16]byte {
	var buf strings.Builder
	buf.Write(innerDigest[:])
	buf.WriteByte(':')
	buf.WriteString(nonce)
	buf.WriteByte(':')
	buf.WriteString(cnonce)
	if authzid != "" {
		buf.WriteByte(':')
		buf.WriteString(authzid)
	}
	return adapter.MD5([]byte(buf.String()))
}

// innerDigest computes H(username:realm:password).
func innerDigest(adapter saslcrypto.Adapter, username, realm, password string) [16]byte {
	return adapter.MD5([]byte(username + ":" + realm + ":" + password))
}

func responseValue(adapter saslcrypto.Adapter, ha1 [16]byte, nonce, nc, cnonce, qop string, a2 string) string {
	haHex := fmt.Sprintf("%x", ha1)
	ha2 := adapter.MD5([]byte(a2))
	ha2Hex := fmt.Sprintf("%x", ha2)
	kd := haHex + ":" + nonce + ":" + nc + ":" + cnonce + ":" + qop + ":" + ha2Hex
	out := adapter.MD5([]byte(kd))
	return fmt.Sprintf("%x", out)
}

func a2Value(prefix, digestURI, qop string) string {
	if qop == "auth" || qop == "" {
		return prefix + digestURI
	}
	return prefix + digestURI + ":00000000000000000000000000000000"
}

func splitQopOptions(s string) []string {
	if s == "" {
		return []string{"auth"}
	}
	return strings.Split(s, ",")
}

func qopIntersect(offered []string, clientQop string) bool {
	for _, o := range offered {
		if strings.TrimSpace(o) == clientQop {
			return true
		}
	}
	return false
}

type client struct {
	s    *sasl.Session
	step int
	// state carried from step 0 to verify rspauth in step 1
	ha1       [16]byte
	nonce     string
	cnonce    string
	nc        string
	qop       string
	digestURI string
}

func newClient(s *sasl.Session) (sasl.ClientMechanism, error) { return &client{s: s}, nil }

func (c *client) Step(in []byte) ([]byte, sasl.State, error) {
	adapter := saslcrypto.DefaultAdapter{}
	allowUnassigned := c.s.Config().AllowUnassignedCodepoints()

	switch c.step {
	case 0:
		c.step++
		directives, err := codec.ParseDirectives(in)
		if err != nil {
			return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: sasl.DIGEST_MD5, Reason: err.Error()}
		}

		nonce := directives["nonce"]
		if nonce == "" {
			return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: sasl.DIGEST_MD5, Reason: "challenge missing nonce"}
		}
		serverQops := splitQopOptions(directives["qop"])

		authid, err := c.s.RequestPropertyString(sasl.PropAuthID)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
		if authid, err = saslprep.Prepare(authid, allowUnassigned); err != nil {
			return nil, sasl.StateFinished, err
		}
		authzid, _ := c.s.RequestPropertyString(sasl.PropAuthzID)
		service, err := c.s.RequestPropertyString(sasl.PropService)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
		hostname, err := c.s.RequestPropertyString(sasl.PropHostname)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
		realm := directives["realm"]

		cnonce, err := saslcrypto.RandomNonce(c.s.Rand(), 16)
		if err != nil {
			return nil, sasl.StateFinished, err
		}

		digest, haveDigest, err := optionalHashedPassword(c.s)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
		if !haveDigest {
			password, err := c.s.RequestPropertyString(sasl.PropPassword)
			if err != nil {
				return nil, sasl.StateFinished, err
			}
			if password, err = saslprep.Prepare(password, allowUnassigned); err != nil {
				return nil, sasl.StateFinished, err
			}
			digest = innerDigest(adapter, authid, realm, password)
		}

		qop := defaultQop
		if !qopIntersect(serverQops, qop) {
			qop = strings.TrimSpace(serverQops[0])
		}

		digestURI := service + "/" + hostname
		c.ha1 = ha1(adapter, digest, nonce, cnonce, authzid)
		c.nonce = nonce
		c.cnonce = cnonce
		c.nc = "00000001"
		c.qop = qop
		c.digestURI = digestURI

		response := responseValue(adapter, c.ha1, nonce, c.nc, cnonce, qop, a2Value("AUTHENTICATE:", digestURI, qop))

		keys := []string{"username", "realm", "nonce", "cnonce", "nc", "qop", "digest-uri", "response", "charset"}
		values := map[string]string{
			"username":   authid,
			"realm":      realm,
			"nonce":      nonce,
			"cnonce":     cnonce,
			"nc":         c.nc,
			"qop":        qop,
			"digest-uri": digestURI,
			"response":   response,
			"charset":    "utf-8",
		}
		if authzid != "" {
			keys = append(keys, "authzid")
			values["authzid"] = authzid
		}

		return []byte(codec.PrintDirectives(keys, values)), sasl.StateRunning, nil

	case 1:
		c.step++
		directives, err := codec.ParseDirectives(in)
		if err != nil {
			return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: sasl.DIGEST_MD5, Reason: err.Error()}
		}
		expected := responseValue(adapter, c.ha1, c.nonce, c.nc, c.cnonce, c.qop, a2Value(":", c.digestURI, c.qop))
		if !adapter.ConstantTimeEqual([]byte(directives["rspauth"]), []byte(expected)) {
			return nil, sasl.StateFinished, sasl.ErrAuthenticationError
		}
		return nil, sasl.StateFinished, nil

	default:
		return nil, sasl.StateFinished, sasl.ErrMechanismCalledTooManyTimes
	}
}

type server struct {
	s          *sasl.Session
	step       int
	nonce      string
	qops       []string
	validation *sasl.Validation
}

func newServer(s *sasl.Session) (sasl.ServerMechanism, error) { return &server{s: s, qops: []string{defaultQop}}, nil }

func (srv *server) Step(in []byte) ([]byte, sasl.State, error) {
	adapter := saslcrypto.DefaultAdapter{}
	allowUnassigned := srv.s.Config().AllowUnassignedCodepoints()

	switch srv.step {
	case 0:
		srv.step++
		nonce, err := saslcrypto.RandomNonce(srv.s.Rand(), 24)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
		srv.nonce = nonce

		realm, _ := srv.s.RequestPropertyString(sasl.PropHostname)

		keys := []string{"nonce", "qop", "charset", "algorithm"}
		values := map[string]string{
			"nonce":     nonce,
			"qop":       strings.Join(srv.qops, ","),
			"charset":   "utf-8",
			"algorithm": "md5-sess",
		}
		if realm != "" {
			keys = append([]string{"realm"}, keys...)
			values["realm"] = realm
		}
		return []byte(codec.PrintDirectives(keys, values)), sasl.StateRunning, nil

	case 1:
		srv.step++

		charsetOK := strings.Contains(string(in), `charset=utf-8`) || strings.Contains(string(in), `charset="utf-8"`)
		raw := in
		var text string
		if charsetOK {
			text = string(raw)
		} else {
			text = latin1ToUTF8(raw)
		}

		directives, err := codec.ParseDirectives([]byte(text))
		if err != nil {
			return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: sasl.DIGEST_MD5, Reason: err.Error()}
		}

		if directives["nonce"] != srv.nonce {
			return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: sasl.DIGEST_MD5, Reason: "nonce mismatch"}
		}
		if directives["nc"] != "00000001" {
			return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: sasl.DIGEST_MD5, Reason: "nonce count must be 00000001"}
		}
		qop := directives["qop"]
		if qop == "" {
			qop = "auth"
		}
		if !qopIntersect(srv.qops, qop) {
			return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: sasl.DIGEST_MD5, Reason: "qop not offered by server"}
		}
		if (qop == "auth-conf") != (directives["cipher"] != "") {
			return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: sasl.DIGEST_MD5, Reason: "cipher must be present iff qop=auth-conf"}
		}

		authid := directives["username"]
		if authid == "" {
			return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: sasl.DIGEST_MD5, Reason: "missing username"}
		}
		realm := directives["realm"]
		cnonce := directives["cnonce"]
		authzid := directives["authzid"]
		if authzid == "" {
			authzid = authid
		}
		digestURI := directives["digest-uri"]

		preppedAuthid, err := saslprep.Prepare(authid, allowUnassigned)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
		srv.s.SetPropertyString(sasl.PropAuthID, preppedAuthid)
		srv.s.SetPropertyString(sasl.PropAuthzID, authzid)

		digest, haveDigest, err := optionalHashedPassword(srv.s)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
		if !haveDigest {
			password, err := srv.s.RequestPropertyString(sasl.PropPassword)
			if err != nil {
				return nil, sasl.StateFinished, err
			}
			if password, err = saslprep.Prepare(password, allowUnassigned); err != nil {
				return nil, sasl.StateFinished, err
			}
			digest = innerDigest(adapter, authid, realm, password)
		}

		clientHA1 := ha1(adapter, digest, srv.nonce, cnonce, authzid)
		expected := responseValue(adapter, clientHA1, srv.nonce, "00000001", cnonce, qop, a2Value("AUTHENTICATE:", digestURI, qop))
		ok := adapter.ConstantTimeEqual([]byte(directives["response"]), []byte(expected))

		result, err := srv.s.Validate(sasl.ValidateSimple)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
		if result == nil {
			result = &sasl.Validation{Kind: sasl.ValidateSimple, Ok: ok, AuthzID: authzid}
		}
		srv.validation = result

		if !ok {
			return nil, sasl.StateFinished, sasl.ErrAuthenticationError
		}

		rspauth := responseValue(adapter, clientHA1, srv.nonce, "00000001", cnonce, qop, a2Value(":", digestURI, qop))
		out := codec.PrintDirectives([]string{"rspauth"}, map[string]string{"rspauth": rspauth})
		return []byte(out), sasl.StateFinished, nil

	default:
		return nil, sasl.StateFinished, sasl.ErrMechanismCalledTooManyTimes
	}
}

func (srv *server) Validation() *sasl.Validation { return srv.validation }
