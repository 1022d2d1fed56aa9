package scram_test

import (
	"bytes"
	"testing"

	"github.com/sasl-go/sasl"
	_ "github.com/sasl-go/sasl/mech/scram/scramsha1"
	_ "github.com/sasl-go/sasl/mech/scram/scramsha1plus"
	_ "github.com/sasl-go/sasl/mech/scram/scramsha256"
	_ "github.com/sasl-go/sasl/mech/scram/scramsha256plus"
)

// RFC 7677's test vector: password "pencil", salt base64
// "W22ZaJ0SNY7soEsUEjb6gQ==", 4096 iterations.
var rfc7677Salt = []byte{0x5b, 0x6d, 0x99, 0x68, 0x9d, 0x12, 0x35, 0x8e,
	0xec, 0xa0, 0x4b, 0x14, 0x12, 0x36, 0xfa, 0x81}

type cb struct {
	authid, password string
	salt             []byte
	iter             uint64
	cbData           []byte
}

func (c *cb) Provide(_ *sasl.SessionInfo, _ *sasl.PropertyContext, req *sasl.Request) error {
	switch req.Property() {
	case sasl.PropAuthID:
		req.SatisfyString(c.authid)
	case sasl.PropPassword:
		req.SatisfyString(c.password)
	case sasl.PropScramSalt:
		req.Satisfy(c.salt)
	case sasl.PropScramIter:
		req.SatisfyUint(c.iter)
	case sasl.PropChannelBindings:
		if c.cbData != nil {
			req.Satisfy(c.cbData)
		}
	}
	return nil
}

func (c *cb) Validate(*sasl.SessionInfo, *sasl.PropertyContext, *sasl.Validator) error { return nil }

func drive(t *testing.T, client, server *sasl.Session) (*sasl.Validation, error) {
	t.Helper()

	var token []byte
	clientDone, serverDone := false, false
	if client.AreWeFirst() {
		out, state, err := client.Step(nil)
		if err != nil {
			return nil, err
		}
		token, clientDone = out, state == sasl.StateFinished
	}
	for !clientDone || !serverDone {
		if !serverDone {
			out, state, err := server.Step(token)
			if err != nil {
				return nil, err
			}
			token, serverDone = out, state == sasl.StateFinished
			if clientDone {
				break
			}
		}
		if !clientDone {
			out, state, err := client.Step(token)
			if err != nil {
				return nil, err
			}
			token, clientDone = out, state == sasl.StateFinished
		}
	}
	return server.Validation(), nil
}

func TestScramSha256RoundTripSuccessWithRFC7677Vector(t *testing.T) {
	cfg, err := sasl.NewConfigBuilder().
		WithCallback(&cb{authid: "user", password: "pencil", salt: rfc7677Salt, iter: 4096}).
		EnableMechanisms(sasl.SCRAM_SHA_256).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	client, err := sasl.NewClientSession(cfg, sasl.SCRAM_SHA_256)
	if err != nil {
		t.Fatalf("NewClientSession: %v", err)
	}
	server, err := sasl.NewServerSession(cfg, sasl.SCRAM_SHA_256)
	if err != nil {
		t.Fatalf("NewServerSession: %v", err)
	}

	v, err := drive(t, client, server)
	if err != nil {
		t.Fatalf("drive: %v", err)
	}
	if v == nil || !v.Ok {
		t.Fatalf("expected successful validation, got %+v", v)
	}
	if v.AuthzID != "user" {
		t.Fatalf("AuthzID = %q, want %q", v.AuthzID, "user")
	}
}

// TestScramSha256RFC7677WireShapePinned fixes the randomness source so
// the client/server nonces are deterministic, then checks the
// RFC 7677 password/salt/iteration-count vector against the literal
// non-cryptographic wire fields: the GS2 header, the echoed username and
// nonce, and the base64 salt/iteration count the server reports. It does
// not assert the literal "p="/"v=" values from RFC 7677's own worked
// example: that example's nonces ("rOprNGfwEbeRWgbNEkqO" and its server
// suffix) contain bytes outside this implementation's nonce alphabet
// (RandomNonce always emits base64-URL characters), so pinning our
// nonce to a different, reproducible value necessarily changes the
// derived proof/verifier to a different constant than RFC 7677 prints.
// Correctness of the proof/verifier computation itself is instead
// cross-checked by the round trip succeeding: the server independently
// rederives and verifies the client's proof.
func TestScramSha256RFC7677WireShapePinned(t *testing.T) {
	// 18 zero bytes base64url-encode to 24 'A' characters, so both the
	// client nonce and the server's nonce suffix come out as 24 'A's.
	zeroRand := bytes.NewReader(make([]byte, 64))

	cfg, err := sasl.NewConfigBuilder().
		WithCallback(&cb{authid: "user", password: "pencil", salt: rfc7677Salt, iter: 4096}).
		EnableMechanisms(sasl.SCRAM_SHA_256).
		WithRand(zeroRand).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	client, err := sasl.NewClientSession(cfg, sasl.SCRAM_SHA_256)
	if err != nil {
		t.Fatalf("NewClientSession: %v", err)
	}
	server, err := sasl.NewServerSession(cfg, sasl.SCRAM_SHA_256)
	if err != nil {
		t.Fatalf("NewServerSession: %v", err)
	}

	clientNonce := "AAAAAAAAAAAAAAAAAAAAAAAA" // 24 'A's
	wantClientFirst := "n,,n=user,r=" + clientNonce
	clientFirst, state, err := client.Step(nil)
	if err != nil {
		t.Fatalf("client.Step[0]: %v", err)
	}
	if state != sasl.StateRunning || string(clientFirst) != wantClientFirst {
		t.Fatalf("client-first = %q, want %q", clientFirst, wantClientFirst)
	}

	wantServerFirst := "r=" + clientNonce + clientNonce + ",s=W22ZaJ0SNY7soEsUEjb6gQ==,i=4096"
	serverFirst, state, err := server.Step(clientFirst)
	if err != nil {
		t.Fatalf("server.Step[0]: %v", err)
	}
	if state != sasl.StateRunning || string(serverFirst) != wantServerFirst {
		t.Fatalf("server-first = %q, want %q", serverFirst, wantServerFirst)
	}

	clientFinal, state, err := client.Step(serverFirst)
	if err != nil {
		t.Fatalf("client.Step[1]: %v", err)
	}
	if state != sasl.StateRunning {
		t.Fatalf("client state after final = %v, want Running", state)
	}
	wantClientFinalPrefix := "c=biws,r=" + clientNonce + clientNonce + ",p="
	if !bytes.HasPrefix(clientFinal, []byte(wantClientFinalPrefix)) {
		t.Fatalf("client-final = %q, want prefix %q", clientFinal, wantClientFinalPrefix)
	}

	serverFinal, state, err := server.Step(clientFinal)
	if err != nil {
		t.Fatalf("server.Step[1]: %v", err)
	}
	if state != sasl.StateFinished || !bytes.HasPrefix(serverFinal, []byte("v=")) {
		t.Fatalf("server-final = %q, want a v= verifier and Finished state", serverFinal)
	}

	v := server.Validation()
	if v == nil || !v.Ok {
		t.Fatalf("expected successful validation, got %+v", v)
	}
}

func TestScramSha1RoundTripSuccess(t *testing.T) {
	cfg, err := sasl.NewConfigBuilder().
		WithCallback(&cb{authid: "alice", password: "hunter2", salt: []byte("sodiumchloride"), iter: 1000}).
		EnableMechanisms(sasl.SCRAM_SHA_1).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	client, err := sasl.NewClientSession(cfg, sasl.SCRAM_SHA_1)
	if err != nil {
		t.Fatalf("NewClientSession: %v", err)
	}
	server, err := sasl.NewServerSession(cfg, sasl.SCRAM_SHA_1)
	if err != nil {
		t.Fatalf("NewServerSession: %v", err)
	}

	v, err := drive(t, client, server)
	if err != nil {
		t.Fatalf("drive: %v", err)
	}
	if v == nil || !v.Ok {
		t.Fatalf("expected successful validation, got %+v", v)
	}
}

func TestScramSha256RoundTripWrongPassword(t *testing.T) {
	clientCfg, err := sasl.NewConfigBuilder().
		WithCallback(&cb{authid: "user", password: "wrong", salt: rfc7677Salt, iter: 4096}).
		EnableMechanisms(sasl.SCRAM_SHA_256).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	serverCfg, err := sasl.NewConfigBuilder().
		WithCallback(&cb{authid: "user", password: "pencil", salt: rfc7677Salt, iter: 4096}).
		EnableMechanisms(sasl.SCRAM_SHA_256).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	client, err := sasl.NewClientSession(clientCfg, sasl.SCRAM_SHA_256)
	if err != nil {
		t.Fatalf("NewClientSession: %v", err)
	}
	server, err := sasl.NewServerSession(serverCfg, sasl.SCRAM_SHA_256)
	if err != nil {
		t.Fatalf("NewServerSession: %v", err)
	}

	_, err = drive(t, client, server)
	if err != sasl.ErrAuthenticationError {
		t.Fatalf("expected ErrAuthenticationError, got %v", err)
	}
}

func TestScramSha256PlusRoundTripSuccess(t *testing.T) {
	cbData := []byte("tls-unique-channel-binding-data")
	cfg, err := sasl.NewConfigBuilder().
		WithCallback(&cb{authid: "user", password: "pencil", salt: rfc7677Salt, iter: 4096, cbData: cbData}).
		EnableMechanisms(sasl.SCRAM_SHA_256_PLUS).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	client, err := sasl.NewClientSession(cfg, sasl.SCRAM_SHA_256_PLUS)
	if err != nil {
		t.Fatalf("NewClientSession: %v", err)
	}
	server, err := sasl.NewServerSession(cfg, sasl.SCRAM_SHA_256_PLUS)
	if err != nil {
		t.Fatalf("NewServerSession: %v", err)
	}

	v, err := drive(t, client, server)
	if err != nil {
		t.Fatalf("drive: %v", err)
	}
	if v == nil || !v.Ok {
		t.Fatalf("expected successful validation, got %+v", v)
	}
}

// TestScramSha256PlusRejectsChannelBindingMismatch simulates the client
// and server observing different TLS channel-binding data (e.g. a
// man-in-the-middle terminating TLS separately on each leg): the
// client's gs2-header-plus-cbind-data digest in its final message will
// not match what the server recomputes from its own observed binding.
func TestScramSha256PlusRejectsChannelBindingMismatch(t *testing.T) {
	clientCfg, err := sasl.NewConfigBuilder().
		WithCallback(&cb{authid: "user", password: "pencil", salt: rfc7677Salt, iter: 4096, cbData: []byte("client-side-binding")}).
		EnableMechanisms(sasl.SCRAM_SHA_256_PLUS).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	serverCfg, err := sasl.NewConfigBuilder().
		WithCallback(&cb{authid: "user", password: "pencil", salt: rfc7677Salt, iter: 4096, cbData: []byte("server-side-binding")}).
		EnableMechanisms(sasl.SCRAM_SHA_256_PLUS).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	client, err := sasl.NewClientSession(clientCfg, sasl.SCRAM_SHA_256_PLUS)
	if err != nil {
		t.Fatalf("NewClientSession: %v", err)
	}
	server, err := sasl.NewServerSession(serverCfg, sasl.SCRAM_SHA_256_PLUS)
	if err != nil {
		t.Fatalf("NewServerSession: %v", err)
	}

	_, err = drive(t, client, server)
	if err != sasl.ErrAuthenticationError {
		t.Fatalf("expected ErrAuthenticationError, got %v", err)
	}
}

func TestScramSha256PlusRequiresChannelBindingData(t *testing.T) {
	cfg, err := sasl.NewConfigBuilder().
		WithCallback(&cb{authid: "user", password: "pencil", salt: rfc7677Salt, iter: 4096}).
		EnableMechanisms(sasl.SCRAM_SHA_256_PLUS).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	client, err := sasl.NewClientSession(cfg, sasl.SCRAM_SHA_256_PLUS)
	if err != nil {
		t.Fatalf("NewClientSession: %v", err)
	}

	if _, _, err := client.Step(nil); err == nil {
		t.Fatal("expected an error when no channel-binding data is available for a -PLUS mechanism")
	}
}

func TestScramSha256NoncesAreNotReused(t *testing.T) {
	cfg, err := sasl.NewConfigBuilder().
		WithCallback(&cb{authid: "user", password: "pencil", salt: rfc7677Salt, iter: 4096}).
		EnableMechanisms(sasl.SCRAM_SHA_256).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	client1, err := sasl.NewClientSession(cfg, sasl.SCRAM_SHA_256)
	if err != nil {
		t.Fatalf("NewClientSession: %v", err)
	}
	client2, err := sasl.NewClientSession(cfg, sasl.SCRAM_SHA_256)
	if err != nil {
		t.Fatalf("NewClientSession: %v", err)
	}

	out1, _, err := client1.Step(nil)
	if err != nil {
		t.Fatalf("client1.Step: %v", err)
	}
	out2, _, err := client2.Step(nil)
	if err != nil {
		t.Fatalf("client2.Step: %v", err)
	}
	if bytes.Equal(out1, out2) {
		t.Fatal("two independent client-first messages must not carry identical nonces")
	}
}
