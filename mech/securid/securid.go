// Package securid implements the SECURID mechanism: an RSA SecurID
// passcode (optionally followed by a new-PIN round) carried as
// NUL-separated fields, validated against an external token-management
// server the callback alone has access to.
package securid

import (
	"errors"

	"github.com/sasl-go/sasl"
	"github.com/sasl-go/sasl/codec"
	"github.com/sasl-go/sasl/saslprep"
)

const (
	promptPasscode = "passcode"
	promptPin      = "pin"
)

func init() {
	sasl.Register(sasl.Descriptor{
		Name:      sasl.SECURID,
		Flags:     sasl.MechFlagClientFirst,
		NewClient: newClient,
		NewServer: newServer,
	})
}

func optionalPropertyString(s *sasl.Session, p sasl.Property) (string, error) {
	v, err := s.RequestPropertyString(p)
	if err != nil {
		var pe *sasl.PropertyError
		if errors.As(err, &pe) {
			return "", nil
		}
		return "", err
	}
	return v, nil
}

type client struct {
	s    *sasl.Session
	step int
}

func newClient(s *sasl.Session) (sasl.ClientMechanism, error) { return &client{s: s}, nil }

func (c *client) Step(in []byte) ([]byte, sasl.State, error) {
	if c.step == 0 {
		c.step++
		authzid, err := optionalPropertyString(c.s, sasl.PropAuthzID)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
		authid, err := c.s.RequestPropertyString(sasl.PropAuthID)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
		passcode, err := c.s.RequestPropertyString(sasl.PropPasscode)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
		fields := [][]byte{[]byte(authzid), []byte(authid), []byte(passcode)}
		pin, err := optionalPropertyString(c.s, sasl.PropPin)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
		if pin != "" {
			fields = append(fields, []byte(pin))
		}
		return codec.JoinNULFields(fields...), sasl.StateRunning, nil
	}
	c.step++

	if len(in) == 0 {
		return nil, sasl.StateFinished, nil
	}
	switch {
	case string(in) == promptPasscode:
		// RequestPropertyString caches: a genuine re-prompt round would
		// need a fresh one-time passcode from the application, which the
		// property cache cannot provide a second time. Retry rounds
		// therefore resend whatever passcode was supplied on step 0.
		passcode, err := c.s.RequestPropertyString(sasl.PropPasscode)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
		return []byte(passcode), sasl.StateRunning, nil
	case len(in) >= len(promptPin) && string(in[:len(promptPin)]) == promptPin:
		pin, err := c.s.RequestPropertyString(sasl.PropPin)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
		return []byte(pin), sasl.StateRunning, nil
	default:
		return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: sasl.SECURID, Reason: "unrecognized server prompt"}
	}
}

type server struct {
	s          *sasl.Session
	step       int
	authzid    string
	validation *sasl.Validation
}

func newServer(s *sasl.Session) (sasl.ServerMechanism, error) { return &server{s: s}, nil }

func (srv *server) Step(in []byte) ([]byte, sasl.State, error) {
	switch srv.step {
	case 0:
		srv.step++
		fields, err := codec.SplitNULFieldsAtLeast(in, 3)
		if err != nil {
			return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: sasl.SECURID, Reason: err.Error()}
		}
		allowUnassigned := srv.s.Config().AllowUnassignedCodepoints()
		authzid, err := saslprep.Prepare(string(fields[0]), allowUnassigned)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
		authid, err := saslprep.Prepare(string(fields[1]), allowUnassigned)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
		if authzid == "" {
			authzid = authid
		}
		srv.authzid = authzid
		srv.s.SetPropertyString(sasl.PropAuthID, authid)
		srv.s.SetPropertyString(sasl.PropAuthzID, authzid)
		return srv.judge()
	default:
		srv.step++
		return srv.judge()
	}
}

// judge asks the callback for a verdict on whatever passcode/PIN data
// the session has accumulated so far. SECURID has no password-equivalent
// the server can compare locally: the passcode is a one-time code only
// an external token-management server can verify, so an unanswered
// Validate is treated as a decline rather than falling back to a local
// comparison (unlike PLAIN/LOGIN/CRAM-MD5/DIGEST-MD5/SCRAM-*).
func (srv *server) judge() ([]byte, sasl.State, error) {
	result, err := srv.s.Validate(sasl.ValidateSecurID)
	if err != nil {
		return nil, sasl.StateFinished, err
	}
	if result == nil {
		result = &sasl.Validation{Kind: sasl.ValidateSecurID, Ok: false, AuthzID: srv.authzid}
	}
	srv.validation = result

	switch {
	case result.SecurIDNextPasscode:
		return []byte(promptPasscode), sasl.StateRunning, nil
	case result.SecurIDNextPin:
		return []byte(promptPin), sasl.StateRunning, nil
	case result.Ok:
		return nil, sasl.StateFinished, nil
	default:
		return nil, sasl.StateFinished, sasl.ErrAuthenticationError
	}
}

func (srv *server) Validation() *sasl.Validation { return srv.validation }
