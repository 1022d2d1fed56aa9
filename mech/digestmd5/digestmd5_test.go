package digestmd5_test

import (
	"testing"

	"github.com/sasl-go/sasl"
	_ "github.com/sasl-go/sasl/mech/digestmd5"
)

type cb struct {
	authid, password, service, hostname string
}

func (c *cb) Provide(_ *sasl.SessionInfo, _ *sasl.PropertyContext, req *sasl.Request) error {
	switch req.Property() {
	case sasl.PropAuthID:
		req.SatisfyString(c.authid)
	case sasl.PropPassword:
		req.SatisfyString(c.password)
	case sasl.PropService:
		req.SatisfyString(c.service)
	case sasl.PropHostname:
		req.SatisfyString(c.hostname)
	}
	return nil
}

func (c *cb) Validate(*sasl.SessionInfo, *sasl.PropertyContext, *sasl.Validator) error { return nil }

func drive(t *testing.T, client, server *sasl.Session) *sasl.Validation {
	t.Helper()

	var token []byte
	clientDone, serverDone := false, false
	if server.AreWeFirst() {
		out, state, err := server.Step(nil)
		if err != nil {
			t.Fatalf("server.Step: %v", err)
		}
		token, serverDone = out, state == sasl.StateFinished
	}
	for !clientDone || !serverDone {
		if !clientDone {
			out, state, err := client.Step(token)
			if err != nil {
				t.Fatalf("client.Step: %v", err)
			}
			token, clientDone = out, state == sasl.StateFinished
			if serverDone {
				break
			}
		}
		if !serverDone {
			out, state, err := server.Step(token)
			if err != nil {
				t.Fatalf("server.Step: %v", err)
			}
			token, serverDone = out, state == sasl.StateFinished
		}
	}
	return server.Validation()
}

func TestDigestMD5RoundTripSuccess(t *testing.T) {
	cfg, err := sasl.NewConfigBuilder().
		WithCallback(&cb{authid: "alice", password: "hunter2", service: "smtp", hostname: "mail.example.com"}).
		EnableMechanisms(sasl.DIGEST_MD5).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	client, err := sasl.NewClientSession(cfg, sasl.DIGEST_MD5)
	if err != nil {
		t.Fatalf("NewClientSession: %v", err)
	}
	server, err := sasl.NewServerSession(cfg, sasl.DIGEST_MD5)
	if err != nil {
		t.Fatalf("NewServerSession: %v", err)
	}

	v := drive(t, client, server)
	if v == nil || !v.Ok {
		t.Fatalf("expected successful validation, got %+v", v)
	}
	if v.AuthzID != "alice" {
		t.Fatalf("AuthzID = %q, want %q", v.AuthzID, "alice")
	}
}

func TestDigestMD5RoundTripWrongPassword(t *testing.T) {
	clientCfg, err := sasl.NewConfigBuilder().
		WithCallback(&cb{authid: "alice", password: "wrong", service: "smtp", hostname: "mail.example.com"}).
		EnableMechanisms(sasl.DIGEST_MD5).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	serverCfg, err := sasl.NewConfigBuilder().
		WithCallback(&cb{authid: "alice", password: "hunter2", service: "smtp", hostname: "mail.example.com"}).
		EnableMechanisms(sasl.DIGEST_MD5).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	client, err := sasl.NewClientSession(clientCfg, sasl.DIGEST_MD5)
	if err != nil {
		t.Fatalf("NewClientSession: %v", err)
	}
	server, err := sasl.NewServerSession(serverCfg, sasl.DIGEST_MD5)
	if err != nil {
		t.Fatalf("NewServerSession: %v", err)
	}

	var token []byte
	clientDone, serverDone := false, false
	var stepErr error

	if server.AreWeFirst() {
		out, state, err := server.Step(nil)
		if err != nil {
			t.Fatalf("server.Step: %v", err)
		}
		token, serverDone = out, state == sasl.StateFinished
	}
	for (!clientDone || !serverDone) && stepErr == nil {
		if !clientDone {
			out, state, err := client.Step(token)
			if err != nil {
				stepErr = err
				break
			}
			token, clientDone = out, state == sasl.StateFinished
			if serverDone {
				break
			}
		}
		if !serverDone {
			out, state, err := server.Step(token)
			if err != nil {
				stepErr = err
				break
			}
			token, serverDone = out, state == sasl.StateFinished
		}
	}

	if stepErr != sasl.ErrAuthenticationError {
		t.Fatalf("expected ErrAuthenticationError, got %v", stepErr)
	}
}
