package command

import (
	"crypto/rand"

	"github.com/sasl-go/sasl"
)

// demoCallback answers every [sasl.Callback] request from a fixed set of
// command-line-supplied values. It is deliberately naive: a real
// application would look credentials up in a user store and never
// accept every out-of-band mechanism (EXTERNAL, ANONYMOUS, SAML20,
// OPENID20, SECURID) unconditionally the way this demo does.
type demoCallback struct {
	authID         string
	authzID        string
	password       string
	hostname       string
	service        string
	anonymousToken string

	scramSalt []byte
	scramIter uint64
}

func newDemoCallback(authID, authzID, password, hostname, service, anonymousToken string) (*demoCallback, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return &demoCallback{
		authID:         authID,
		authzID:        authzID,
		password:       password,
		hostname:       hostname,
		service:        service,
		anonymousToken: anonymousToken,
		scramSalt:      salt,
		scramIter:      4096,
	}, nil
}

func (cb *demoCallback) Provide(info *sasl.SessionInfo, ctx *sasl.PropertyContext, req *sasl.Request) error {
	switch req.Property() {
	case sasl.PropAuthID:
		req.SatisfyString(cb.authID)
	case sasl.PropAuthzID:
		if cb.authzID != "" {
			req.SatisfyString(cb.authzID)
		}
	case sasl.PropPassword:
		req.SatisfyString(cb.password)
	case sasl.PropPasscode:
		req.SatisfyString(cb.password)
	case sasl.PropHostname:
		req.SatisfyString(cb.hostname)
	case sasl.PropService:
		req.SatisfyString(cb.service)
	case sasl.PropAnonymousToken:
		req.SatisfyString(cb.anonymousToken)
	case sasl.PropScramSalt:
		req.Satisfy(cb.scramSalt)
	case sasl.PropScramIter:
		req.SatisfyUint(cb.scramIter)
	case sasl.PropSaml20RedirectURL:
		req.SatisfyString("https://idp.example.com/saml/sso")
	case sasl.PropOpenID20RedirectURL:
		req.SatisfyString("https://idp.example.com/openid/sso")
	}
	// Every other property (ChannelBindings, Pin, the precomputed SCRAM
	// and DIGEST-MD5 shortcuts, ...) is intentionally left unanswered:
	// this demo never has a real TLS channel, and exercises the
	// mechanisms' normal password path rather than their shortcuts.
	return nil
}

func (cb *demoCallback) Validate(info *sasl.SessionInfo, ctx *sasl.PropertyContext, v *sasl.Validator) error {
	authzid, _ := ctx.GetString(sasl.PropAuthzID)
	switch info.Mechanism {
	case sasl.EXTERNAL:
		v.FinalizeExternal(true, authzid)
	case sasl.ANONYMOUS:
		v.FinalizeAnonymous(true)
	case sasl.SECURID:
		v.FinalizeSecurID(true, false, false)
	case sasl.SAML20:
		v.FinalizeSAML20(true, authzid)
	case sasl.OPENID20:
		v.FinalizeOpenID20(true, authzid)
	}
	// PLAIN/LOGIN/CRAM-MD5/DIGEST-MD5/SCRAM-* are left unanswered: those
	// mechanisms fall back to comparing the supplied secret themselves.
	return nil
}
