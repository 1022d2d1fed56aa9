// Package plain implements the PLAIN mechanism (RFC 4616).
package plain

import (
	"errors"

	"github.com/sasl-go/sasl"
	"github.com/sasl-go/sasl/codec"
	"github.com/sasl-go/sasl/saslcrypto"
	"github.com/sasl-go/sasl/saslprep"
)

func init() {
	sasl.Register(sasl.Descriptor{
		Name:      sasl.PLAIN,
		Flags:     sasl.MechFlagClientFirst,
		NewClient: newClient,
		NewServer: newServer,
	})
}

// optionalPropertyString requests p, treating "the callback left it
// unanswered" as an empty string rather than an error; PLAIN's authzid
// is the one property in the mechanism that is genuinely optional.
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

	allowUnassigned := c.s.Config().AllowUnassignedCodepoints()

	authzid, err := optionalPropertyString(c.s, sasl.PropAuthzID)
	if err != nil {
		return nil, sasl.StateFinished, err
	}
	authid, err := c.s.RequestPropertyString(sasl.PropAuthID)
	if err != nil {
		return nil, sasl.StateFinished, err
	}
	password, err := c.s.RequestPropertyString(sasl.PropPassword)
	if err != nil {
		return nil, sasl.StateFinished, err
	}

	if authzid != "" {
		authzid, err = saslprep.Prepare(authzid, allowUnassigned)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
	}
	if authid, err = saslprep.Prepare(authid, allowUnassigned); err != nil {
		return nil, sasl.StateFinished, err
	}
	if password, err = saslprep.Prepare(password, allowUnassigned); err != nil {
		return nil, sasl.StateFinished, err
	}

	out := codec.JoinNULFields([]byte(authzid), []byte(authid), []byte(password))
	return out, sasl.StateFinished, nil
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

	fields, err := codec.SplitNULFields(in, 3)
	if err != nil {
		return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: sasl.PLAIN, Reason: "expected authzid\\0authid\\0password"}
	}

	allowUnassigned := srv.s.Config().AllowUnassignedCodepoints()

	authid, err := saslprep.Prepare(string(fields[1]), allowUnassigned)
	if err != nil {
		return nil, sasl.StateFinished, err
	}
	if authid == "" {
		return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: sasl.PLAIN, Reason: "empty authentication identity"}
	}

	authzid := string(fields[0])
	if authzid == "" {
		authzid = authid
	} else if authzid, err = saslprep.Prepare(authzid, allowUnassigned); err != nil {
		return nil, sasl.StateFinished, err
	}

	password, err := saslprep.Prepare(string(fields[2]), allowUnassigned)
	if err != nil {
		return nil, sasl.StateFinished, err
	}

	srv.s.SetPropertyString(sasl.PropAuthID, authid)
	srv.s.SetPropertyString(sasl.PropAuthzID, authzid)

	result, err := srv.s.Validate(sasl.ValidateSimple)
	if err != nil {
		return nil, sasl.StateFinished, err
	}
	if result == nil {
		refPassword, err := srv.s.RequestPropertyString(sasl.PropPassword)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
		ok := (saslcrypto.DefaultAdapter{}).ConstantTimeEqual([]byte(refPassword), []byte(password))
		result = &sasl.Validation{Kind: sasl.ValidateSimple, Ok: ok, AuthzID: authzid}
	}

	srv.validation = result
	return nil, sasl.StateFinished, nil
}

func (srv *server) Validation() *sasl.Validation { return srv.validation }
