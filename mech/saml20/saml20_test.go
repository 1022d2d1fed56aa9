package saml20_test

import (
	"testing"

	"github.com/sasl-go/sasl"
	_ "github.com/sasl-go/sasl/mech/saml20"
)

type cb struct {
	redirectURL string
	answerOk    bool
}

func (c *cb) Provide(_ *sasl.SessionInfo, _ *sasl.PropertyContext, req *sasl.Request) error {
	if req.Property() == sasl.PropSaml20RedirectURL {
		req.SatisfyString(c.redirectURL)
	}
	return nil
}

func (c *cb) Validate(_ *sasl.SessionInfo, ctx *sasl.PropertyContext, v *sasl.Validator) error {
	if c.answerOk {
		authzid, _ := ctx.GetString(sasl.PropAuthzID)
		v.FinalizeSAML20(true, authzid)
	}
	return nil
}

func drive(t *testing.T, client, server *sasl.Session) *sasl.Validation {
	t.Helper()

	var token []byte
	clientDone, serverDone := false, false
	if client.AreWeFirst() {
		out, state, err := client.Step(nil)
		if err != nil {
			t.Fatalf("client.Step: %v", err)
		}
		token, clientDone = out, state == sasl.StateFinished
	}
	for !clientDone || !serverDone {
		if !serverDone {
			out, state, err := server.Step(token)
			if err != nil {
				t.Fatalf("server.Step: %v", err)
			}
			token, serverDone = out, state == sasl.StateFinished
			if clientDone {
				break
			}
		}
		if !clientDone {
			out, state, err := client.Step(token)
			if err != nil {
				t.Fatalf("client.Step: %v", err)
			}
			token, clientDone = out, state == sasl.StateFinished
		}
	}
	return server.Validation()
}

func TestSAML20DefaultsToFailureWhenUnanswered(t *testing.T) {
	cfg, err := sasl.NewConfigBuilder().
		WithCallback(&cb{redirectURL: "https://idp.example.com/saml"}).
		EnableMechanisms(sasl.SAML20).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	client, err := sasl.NewClientSession(cfg, sasl.SAML20)
	if err != nil {
		t.Fatalf("NewClientSession: %v", err)
	}
	server, err := sasl.NewServerSession(cfg, sasl.SAML20)
	if err != nil {
		t.Fatalf("NewServerSession: %v", err)
	}

	var token []byte
	clientDone, serverDone := false, false
	var stepErr error

	out, state, err := client.Step(nil)
	if err != nil {
		t.Fatalf("client.Step: %v", err)
	}
	token, clientDone = out, state == sasl.StateFinished

	for (!clientDone || !serverDone) && stepErr == nil {
		if !serverDone {
			out, state, err := server.Step(token)
			if err != nil {
				stepErr = err
				break
			}
			token, serverDone = out, state == sasl.StateFinished
			if clientDone {
				break
			}
		}
		if !clientDone {
			out, state, err := client.Step(token)
			if err != nil {
				stepErr = err
				break
			}
			token, clientDone = out, state == sasl.StateFinished
		}
	}

	if stepErr != sasl.ErrAuthenticationError {
		t.Fatalf("expected ErrAuthenticationError, got %v", stepErr)
	}
}

func TestSAML20SucceedsWhenCallbackApproves(t *testing.T) {
	cfg, err := sasl.NewConfigBuilder().
		WithCallback(&cb{redirectURL: "https://idp.example.com/saml", answerOk: true}).
		EnableMechanisms(sasl.SAML20).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	client, err := sasl.NewClientSession(cfg, sasl.SAML20)
	if err != nil {
		t.Fatalf("NewClientSession: %v", err)
	}
	server, err := sasl.NewServerSession(cfg, sasl.SAML20)
	if err != nil {
		t.Fatalf("NewServerSession: %v", err)
	}

	v := drive(t, client, server)
	if v == nil || !v.Ok {
		t.Fatalf("expected successful validation, got %+v", v)
	}
}
