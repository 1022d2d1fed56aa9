// Package login implements the (nonstandard but widely deployed) LOGIN
// mechanism: a fixed two-prompt exchange for username then password.
package login

import (
	"github.com/sasl-go/sasl"
	"github.com/sasl-go/sasl/saslcrypto"
	"github.com/sasl-go/sasl/saslprep"
)

const (
	promptUsername = "User Name"
	promptPassword = "Password"
)

func init() {
	sasl.Register(sasl.Descriptor{
		Name:      sasl.LOGIN,
		Flags:     sasl.MechFlagServerFirst,
		NewClient: newClient,
		NewServer: newServer,
	})
}

type client struct {
	s    *sasl.Session
	step int
}

func newClient(s *sasl.Session) (sasl.ClientMechanism, error) { return &client{s: s}, nil }

func (c *client) Step(in []byte) ([]byte, sasl.State, error) {
	allowUnassigned := c.s.Config().AllowUnassignedCodepoints()

	switch c.step {
	case 0:
		c.step++
		authid, err := c.s.RequestPropertyString(sasl.PropAuthID)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
		if authid, err = saslprep.Prepare(authid, allowUnassigned); err != nil {
			return nil, sasl.StateFinished, err
		}
		return []byte(authid), sasl.StateRunning, nil
	case 1:
		c.step++
		password, err := c.s.RequestPropertyString(sasl.PropPassword)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
		if password, err = saslprep.Prepare(password, allowUnassigned); err != nil {
			return nil, sasl.StateFinished, err
		}
		return []byte(password), sasl.StateFinished, nil
	default:
		return nil, sasl.StateFinished, sasl.ErrMechanismCalledTooManyTimes
	}
}

type server struct {
	s          *sasl.Session
	step       int
	authid     string
	validation *sasl.Validation
}

func newServer(s *sasl.Session) (sasl.ServerMechanism, error) { return &server{s: s}, nil }

func (srv *server) Step(in []byte) ([]byte, sasl.State, error) {
	allowUnassigned := srv.s.Config().AllowUnassignedCodepoints()

	switch srv.step {
	case 0:
		srv.step++
		return []byte(promptUsername), sasl.StateRunning, nil
	case 1:
		srv.step++
		authid, err := saslprep.Prepare(string(in), allowUnassigned)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
		if authid == "" {
			return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: sasl.LOGIN, Reason: "empty username"}
		}
		srv.authid = authid
		srv.s.SetPropertyString(sasl.PropAuthID, authid)
		srv.s.SetPropertyString(sasl.PropAuthzID, authid)
		return []byte(promptPassword), sasl.StateRunning, nil
	case 2:
		srv.step++
		password, err := saslprep.Prepare(string(in), allowUnassigned)
		if err != nil {
			return nil, sasl.StateFinished, err
		}

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
			result = &sasl.Validation{Kind: sasl.ValidateSimple, Ok: ok, AuthzID: srv.authid}
		}
		srv.validation = result
		return nil, sasl.StateFinished, nil
	default:
		return nil, sasl.StateFinished, sasl.ErrMechanismCalledTooManyTimes
	}
}

func (srv *server) Validation() *sasl.Validation { return srv.validation }
