package sasl

import "strconv"

// Side identifies which role a [Session] plays in an exchange.
type Side int

const (
	SideClient Side = iota
	SideServer
)

func (s Side) String() string {
	if s == SideServer {
		return "server"
	}
	return "client"
}

// SessionInfo is the read-only session metadata passed to every
// [Callback] invocation.
type SessionInfo struct {
	Side      Side
	Mechanism Mechname
}

// Request carries exactly one property key a mechanism needs a value
// for (component C). The callback either calls [Request.Satisfy] (or one
// of its typed wrappers) or leaves the request unanswered, which the
// mechanism treats as [ErrNoValue].
type Request struct {
	property  Property
	value     []byte
	satisfied bool
}

// Property returns the property this request is asking for.
func (r *Request) Property() Property { return r.property }

// Satisfy answers the request with raw bytes.
func (r *Request) Satisfy(v []byte) {
	r.value = v
	r.satisfied = true
}

// SatisfyString answers the request with UTF-8 text.
func (r *Request) SatisfyString(s string) { r.Satisfy([]byte(s)) }

// SatisfyUint answers the request with an unsigned integer (used only for
// PropScramIter).
func (r *Request) SatisfyUint(n uint64) {
	r.Satisfy([]byte(strconv.FormatUint(n, 10)))
}

// Callback is the interface an embedding application implements to supply
// authentication data and render a verdict (component C).
type Callback interface {
	// Provide is invoked once per property a mechanism needs. It should
	// either call a Satisfy* method on req, or return nil having left it
	// unanswered, which the mechanism treats as [ErrNoValue].
	//
	// ctx exposes properties the mechanism already stored this session,
	// e.g. the AuthId a PLAIN or DIGEST-MD5 server stores before
	// requesting the matching Password.
	Provide(info *SessionInfo, ctx *PropertyContext, req *Request) error

	// Validate is invoked exactly once, at the moment a server-side
	// mechanism has collected every input it needs. The callback
	// inspects ctx and calls the matching Finalize* method on v.
	Validate(info *SessionInfo, ctx *PropertyContext, v *Validator) error
}

// Validator lets a [Callback] render the typed verdict for the
// validation kind the active mechanism uses (component C). Calling a
// Finalize method more than once on the same Validator is a programming
// error the session can only guard by recording the first result.
type Validator struct {
	kind   ValidationKind
	result *Validation
}

func newValidator(kind ValidationKind) *Validator {
	return &Validator{kind: kind}
}

func (v *Validator) finalize(r Validation) {
	r.Kind = v.kind
	if v.result == nil {
		v.result = &r
	}
}

// FinalizeSimple renders the verdict for PLAIN/LOGIN/CRAM-MD5/DIGEST-MD5/
// SCRAM-*, which all use [ValidateSimple].
func (v *Validator) FinalizeSimple(ok bool, authzID string) {
	v.finalize(Validation{Ok: ok, AuthzID: authzID})
}

// FinalizeExternal renders the verdict for EXTERNAL.
func (v *Validator) FinalizeExternal(ok bool, authzID string) {
	v.finalize(Validation{Ok: ok, AuthzID: authzID})
}

// FinalizeAnonymous renders the verdict for ANONYMOUS.
func (v *Validator) FinalizeAnonymous(ok bool) {
	v.finalize(Validation{Ok: ok})
}

// FinalizeSecurID renders the verdict for SECURID, optionally requesting
// another round for a fresh passcode or PIN.
func (v *Validator) FinalizeSecurID(ok bool, nextPasscode, nextPin bool) {
	v.finalize(Validation{Ok: ok, SecurIDNextPasscode: nextPasscode, SecurIDNextPin: nextPin})
}

// FinalizeSAML20 renders the verdict for SAML20.
func (v *Validator) FinalizeSAML20(ok bool, authzID string) {
	v.finalize(Validation{Ok: ok, AuthzID: authzID})
}

// FinalizeOpenID20 renders the verdict for OPENID20.
func (v *Validator) FinalizeOpenID20(ok bool, authzID string) {
	v.finalize(Validation{Ok: ok, AuthzID: authzID})
}
