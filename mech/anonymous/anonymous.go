// Package anonymous implements the ANONYMOUS mechanism (RFC 4505): a
// single client-first token, typically a trace/contact string, that is
// never validated against any credential.
package anonymous

import (
	"unicode/utf8"

	"github.com/sasl-go/sasl"
)

// maxTokenLen is the "no more than 255 bytes of UTF-8" bound RFC 4505
// §2 recommends for the trace information.
const maxTokenLen = 255

func init() {
	sasl.Register(sasl.Descriptor{
		Name:      sasl.ANONYMOUS,
		Flags:     sasl.MechFlagClientFirst,
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

	token, err := c.s.RequestPropertyString(sasl.PropAnonymousToken)
	if err != nil {
		return nil, sasl.StateFinished, err
	}
	if len(token) > maxTokenLen || !utf8.ValidString(token) || containsControl(token) {
		return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: sasl.ANONYMOUS, Reason: "trace token is not a valid ANONYMOUS token"}
	}
	return []byte(token), sasl.StateFinished, nil
}

func containsControl(s string) bool {
	for _, r := range s {
		if r < 0x20 && r != '\t' {
			return true
		}
	}
	return false
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

	token := string(in)
	if len(token) > maxTokenLen || !utf8.ValidString(token) || containsControl(token) {
		return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: sasl.ANONYMOUS, Reason: "trace token is not a valid ANONYMOUS token"}
	}
	srv.s.SetPropertyString(sasl.PropAnonymousToken, token)
	srv.s.SetPropertyString(sasl.PropAuthzID, "")

	result, err := srv.s.Validate(sasl.ValidateAnonymous)
	if err != nil {
		return nil, sasl.StateFinished, err
	}
	if result == nil {
		result = &sasl.Validation{Kind: sasl.ValidateAnonymous, Ok: true}
	}
	srv.validation = result
	return nil, sasl.StateFinished, nil
}

func (srv *server) Validation() *sasl.Validation { return srv.validation }
