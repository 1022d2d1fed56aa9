package sasl

import (
	"errors"
	"fmt"
)

// Configuration errors, returned by [ConfigBuilder.Build].
var (
	ErrNoCallback          = errors.New("sasl: no callback configured")
	ErrEmptyMechanismSet   = errors.New("sasl: no mechanisms enabled")
	ErrMechnameTooShort    = errors.New("sasl: mechanism name too short")
	ErrMechnameTooLong     = errors.New("sasl: mechanism name too long")
	ErrUnknownMechanism    = errors.New("sasl: unknown or unregistered mechanism")
	ErrNoClientCode        = errors.New("sasl: mechanism has no client-side implementation")
	ErrNoServerCode        = errors.New("sasl: mechanism has no server-side implementation")
)

// Protocol errors, returned while stepping a session.
//
// ErrBufferTooSmall and ErrIntegrityError round out spec.md §7's error
// taxonomy but are never returned by this implementation: [Session.Step]
// always allocates its output rather than writing into a caller-supplied
// buffer, and no mechanism here wraps messages under auth-int/auth-conf
// after authentication (out of scope per spec.md §1).
var (
	ErrMechanismCalledTooManyTimes = errors.New("sasl: mechanism stepped after it already finished or failed")
	ErrIntegrityError              = errors.New("sasl: message integrity check failed")
	ErrAuthenticationError         = errors.New("sasl: authentication failed")
	ErrBufferTooSmall              = errors.New("sasl: output buffer too small")
)

// Callback errors.
var (
	ErrNoValue                 = errors.New("sasl: callback did not supply a value for the requested property")
	ErrMissingRequiredProperty = errors.New("sasl: required property was not available in the session context")
)

// Crypto/codec errors.
var (
	ErrCryptoError    = errors.New("sasl: crypto operation failed")
	ErrSaslprepError  = errors.New("sasl: SASLprep string preparation failed")
	ErrBase64Error    = errors.New("sasl: malformed base64 token")
)

// MechanismParseError reports that a mechanism could not parse a token it
// received from its peer. Every mechanism implementation under sasl/mech
// wraps its parse failures in one of these so a caller can use
// errors.Is(err, sasl.ErrMechanismParseError) regardless of which
// mechanism produced it.
type MechanismParseError struct {
	Mechanism Mechname
	Reason    string
}

func (e *MechanismParseError) Error() string {
	return fmt.Sprintf("sasl: %s: malformed token: %s", e.Mechanism, e.Reason)
}

func (e *MechanismParseError) Unwrap() error { return ErrMechanismParseErrorSentinel }

// ErrMechanismParseErrorSentinel is the sentinel [MechanismParseError] wraps,
// so errors.Is(err, sasl.ErrMechanismParseErrorSentinel) works regardless of
// the mechanism or the human-readable reason.
var ErrMechanismParseErrorSentinel = errors.New("sasl: mechanism parse error")

// PropertyError reports that a mechanism needed a property the callback
// did not supply (spec §4.C: "unanswered data requests cause the
// mechanism to fail with a property-specific missing error").
type PropertyError struct {
	Property Property
}

func (e *PropertyError) Error() string {
	return fmt.Sprintf("sasl: no %s available", e.Property)
}

func (e *PropertyError) Unwrap() error { return ErrMissingRequiredProperty }

// NoProperty builds the property-specific absent-data error for p, e.g.
// NoAuthId, NoPassword, NoHostname, etc. from spec.md §7.
func NoProperty(p Property) error { return &PropertyError{Property: p} }

// Property-specific absent-data errors named in spec.md §7. Each is
// errors.Is-compatible with both ErrMissingRequiredProperty and the
// specific property it names.
func NoAuthId() error           { return NoProperty(PropAuthID) }
func NoAuthzId() error          { return NoProperty(PropAuthzID) }
func NoPassword() error         { return NoProperty(PropPassword) }
func NoPasscode() error         { return NoProperty(PropPasscode) }
func NoPin() error              { return NoProperty(PropPin) }
func NoService() error          { return NoProperty(PropService) }
func NoHostname() error         { return NoProperty(PropHostname) }
func NoAnonymousToken() error   { return NoProperty(PropAnonymousToken) }
func NoCbTlsUnique() error      { return NoProperty(PropChannelBindings) }
func NoSaml20IdpIdentifier() error  { return NoProperty(PropSaml20IdpIdentifier) }
func NoSaml20RedirectUrl() error    { return NoProperty(PropSaml20RedirectURL) }
func NoOpenID20RedirectUrl() error  { return NoProperty(PropOpenID20RedirectURL) }

// CallbackError wraps an arbitrary application-supplied error returned
// from [Callback.Provide] or [Callback.Validate] so it propagates through
// a session step verbatim, per spec.md §4.C / §7 ("Errors propagate
// verbatim").
type CallbackError struct {
	Err error
}

func (e *CallbackError) Error() string { return "sasl: callback error: " + e.Err.Error() }
func (e *CallbackError) Unwrap() error { return e.Err }
