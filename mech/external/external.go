// Package external implements the EXTERNAL mechanism: authentication is
// established entirely out of band (typically a TLS client certificate),
// and the exchange carries only an optional authorization identity.
package external

import (
	"errors"

	"github.com/sasl-go/sasl"
)

func init() {
	sasl.Register(sasl.Descriptor{
		Name:      sasl.EXTERNAL,
		Flags:     sasl.MechFlagClientFirst,
		NewClient: newClient,
		NewServer: newServer,
	})
}

// optionalPropertyString requests p, treating "the callback left it
// unanswered" as an empty string: EXTERNAL's authzid is optional, the
// peer identity being established entirely out of band.
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
	done bool
}

func newClient(s *sasl.Session) (sasl.ClientMechanism, error) { return &client{s: s}, nil }

func (c *client) Step(in []byte) ([]byte, sasl.State, error) {
	if c.done {
		return nil, sasl.StateFinished, sasl.ErrMechanismCalledTooManyTimes
	}
	c.done = true

	authzid, err := optionalPropertyString(c.s, sasl.PropAuthzID)
	if err != nil {
		return nil, sasl.StateFinished, err
	}
	return []byte(authzid), sasl.StateFinished, nil
}

type server struct {
	s          *sasl.Session
	done       bool
	validation *sasl.Validation
}

func newServer(s *sasl.Session) (sasl.ServerMechanism, error) { return &server{s: s}, nil }

func (srv *server) Step(in []byte) ([]byte, sasl.State, error) {
	if srv.done {
		return nil, sasl.StateFinished, sasl.ErrMechanismCalledTooManyTimes
	}
	srv.done = true

	authzid := string(in)
	srv.s.SetPropertyString(sasl.PropAuthzID, authzid)

	result, err := srv.s.Validate(sasl.ValidateExternal)
	if err != nil {
		return nil, sasl.StateFinished, err
	}
	if result == nil {
		result = &sasl.Validation{Kind: sasl.ValidateExternal, Ok: true, AuthzID: authzid}
	}
	srv.validation = result
	if !srv.validation.Ok {
		return nil, sasl.StateFinished, sasl.ErrAuthenticationError
	}
	return nil, sasl.StateFinished, nil
}

func (srv *server) Validation() *sasl.Validation { return srv.validation }
