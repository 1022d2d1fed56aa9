// Package openid20 implements the OPENID20 mechanism. It mirrors
// [sasl/mech/saml20]'s shape (a GS2 header, a browser-redirect URL, an
// out-of-band identity check) but additionally supports one
// error-reporting round: a server that rejects the exchange gets to
// say so with an "openid.error=" directive before the session ends.
package openid20

import (
	"errors"
	"strings"

	"github.com/sasl-go/sasl"
	"github.com/sasl-go/sasl/codec"
)

const ackToken = "="

func init() {
	sasl.Register(sasl.Descriptor{
		Name:      sasl.OPENID20,
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
	switch c.step {
	case 0:
		c.step++
		authzid, err := optionalPropertyString(c.s, sasl.PropAuthzID)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
		header := &codec.GS2Header{CBFlag: codec.CBFlagNone, AuthzID: authzid}
		return []byte(header.String()), sasl.StateRunning, nil
	case 1:
		c.step++
		c.s.SetPropertyString(sasl.PropOpenID20RedirectURL, string(in))
		return []byte(ackToken), sasl.StateRunning, nil
	case 2:
		c.step++
		if len(in) == 0 {
			return nil, sasl.StateFinished, nil
		}
		if !strings.HasPrefix(string(in), "openid.error=") {
			return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: sasl.OPENID20, Reason: "expected an openid.error directive"}
		}
		return nil, sasl.StateFinished, sasl.ErrAuthenticationError
	default:
		return nil, sasl.StateFinished, sasl.ErrMechanismCalledTooManyTimes
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
		header, err := codec.ParseGS2Header(in)
		if err != nil {
			return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: sasl.OPENID20, Reason: err.Error()}
		}
		srv.authzid = header.AuthzID
		srv.s.SetPropertyString(sasl.PropAuthzID, header.AuthzID)

		url, err := srv.s.RequestPropertyString(sasl.PropOpenID20RedirectURL)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
		return []byte(url), sasl.StateRunning, nil
	case 1:
		srv.step++
		if string(in) != ackToken {
			return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: sasl.OPENID20, Reason: "expected \"=\" acknowledgement"}
		}

		result, err := srv.s.Validate(sasl.ValidateOpenID20)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
		if result == nil {
			result = &sasl.Validation{Kind: sasl.ValidateOpenID20, Ok: false, AuthzID: srv.authzid}
		}
		srv.validation = result
		if result.Ok {
			return nil, sasl.StateFinished, nil
		}
		return []byte("openid.error=authentication failed"), sasl.StateRunning, nil
	case 2:
		srv.step++
		return nil, sasl.StateFinished, sasl.ErrAuthenticationError
	default:
		return nil, sasl.StateFinished, sasl.ErrMechanismCalledTooManyTimes
	}
}

func (srv *server) Validation() *sasl.Validation { return srv.validation }
