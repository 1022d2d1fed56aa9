// Package crammd5 implements the CRAM-MD5 mechanism (RFC 2195).
package crammd5

import (
	"encoding/hex"
	"strings"

	"github.com/sasl-go/sasl"
	"github.com/sasl-go/sasl/saslcrypto"
	"github.com/sasl-go/sasl/saslprep"
)

func init() {
	sasl.Register(sasl.Descriptor{
		Name:      sasl.CRAM_MD5,
		Flags:     sasl.MechFlagServerFirst,
		NewClient: newClient,
		NewServer: newServer,
	})
}

type client struct {
	s    *sasl.Session
	done bool
}

func newClient(s *sasl.Session) (sasl.ClientMechanism, error) { return &client{s: s}, nil }

func (c *client) Step(in []byte) ([]byte, sasl.State, error) {
	if c.done {
		return nil, sasl.StateFinished, sasl.ErrMechanismCalledTooManyTimes
	}
	c.done = true

	allowUnassigned := c.s.Config().AllowUnassignedCodepoints()

	authid, err := c.s.RequestPropertyString(sasl.PropAuthID)
	if err != nil {
		return nil, sasl.StateFinished, err
	}
	if authid, err = saslprep.Prepare(authid, allowUnassigned); err != nil {
		return nil, sasl.StateFinished, err
	}
	password, err := c.s.RequestPropertyString(sasl.PropPassword)
	if err != nil {
		return nil, sasl.StateFinished, err
	}
	if password, err = saslprep.Prepare(password, allowUnassigned); err != nil {
		return nil, sasl.StateFinished, err
	}

	digest := (saslcrypto.DefaultAdapter{}).HMACMD5([]byte(password), in)
	out := []byte(authid + " " + hex.EncodeToString(digest[:]))
	return out, sasl.StateFinished, nil
}

type server struct {
	s          *sasl.Session
	step       int
	challenge  []byte
	validation *sasl.Validation
}

func newServer(s *sasl.Session) (sasl.ServerMechanism, error) { return &server{s: s}, nil }

func (srv *server) Step(in []byte) ([]byte, sasl.State, error) {
	switch srv.step {
	case 0:
		srv.step++
		hostname, err := srv.s.RequestPropertyString(sasl.PropHostname)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
		challenge := "<" + saslcrypto.RandomUUID() + "@" + hostname + ">"
		srv.challenge = []byte(challenge)
		return srv.challenge, sasl.StateRunning, nil
	case 1:
		srv.step++
		sp := strings.LastIndexByte(string(in), ' ')
		if sp < 0 {
			return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: sasl.CRAM_MD5, Reason: "expected \"username digest\""}
		}
		authid := string(in[:sp])
		digestHex := string(in[sp+1:])
		if authid == "" {
			return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: sasl.CRAM_MD5, Reason: "empty username"}
		}
		digest, err := hex.DecodeString(digestHex)
		if err != nil || len(digest) != 16 {
			return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: sasl.CRAM_MD5, Reason: "malformed hex digest"}
		}

		allowUnassigned := srv.s.Config().AllowUnassignedCodepoints()
		preppedAuthid, err := saslprep.Prepare(authid, allowUnassigned)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
		srv.s.SetPropertyString(sasl.PropAuthID, preppedAuthid)
		srv.s.SetPropertyString(sasl.PropAuthzID, preppedAuthid)

		password, err := srv.s.RequestPropertyString(sasl.PropPassword)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
		if password, err = saslprep.Prepare(password, allowUnassigned); err != nil {
			return nil, sasl.StateFinished, err
		}

		expected := (saslcrypto.DefaultAdapter{}).HMACMD5([]byte(password), srv.challenge)
		ok := (saslcrypto.DefaultAdapter{}).ConstantTimeEqual(digest, expected[:])

		result, err := srv.s.Validate(sasl.ValidateSimple)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
		if result == nil {
			result = &sasl.Validation{Kind: sasl.ValidateSimple, Ok: ok, AuthzID: preppedAuthid}
		}
		srv.validation = result
		return nil, sasl.StateFinished, nil
	default:
		return nil, sasl.StateFinished, sasl.ErrMechanismCalledTooManyTimes
	}
}

func (srv *server) Validation() *sasl.Validation { return srv.validation }
