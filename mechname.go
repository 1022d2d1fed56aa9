package sasl

import "fmt"

// Mechname is a validated SASL mechanism name: 1 to 20 bytes drawn from
// the alphabet [A-Z0-9_-], per RFC 4422 §3.1. Mechname values are only
// ever constructed through [ParseMechname] or one of the predeclared
// well-known names below, so any Mechname in circulation is guaranteed
// valid. Equality and ordering are byte-exact; no case folding is ever
// performed.
type Mechname string

// InvalidCharError reports the first byte of a candidate mechanism name
// that falls outside [A-Z0-9_-].
type InvalidCharError struct {
	Index int
	Value byte
}

func (e *InvalidCharError) Error() string {
	return fmt.Sprintf("sasl: invalid character %q at index %d in mechanism name", e.Value, e.Index)
}

func isMechnameByte(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b == '_' || b == '-':
		return true
	default:
		return false
	}
}

// ParseMechname validates b as a SASL mechanism name and returns it as a
// [Mechname]. No normalization (e.g. uppercasing) is performed; callers
// must supply the canonical form.
func ParseMechname(b []byte) (Mechname, error) {
	if len(b) < 1 {
		return "", ErrMechnameTooShort
	}
	if len(b) > 20 {
		return "", ErrMechnameTooLong
	}
	for i, c := range b {
		if !isMechnameByte(c) {
			return "", &InvalidCharError{Index: i, Value: c}
		}
	}
	return Mechname(b), nil
}

// mustMechname is used internally to build the well-known constants
// below; it panics on invalid input, which would be a programming error.
func mustMechname(s string) Mechname {
	m, err := ParseMechname([]byte(s))
	if err != nil {
		panic("sasl: invalid built-in mechanism name " + s + ": " + err.Error())
	}
	return m
}

// Well-known mechanism names for the mechanisms implemented under
// sasl/mech. Importing a mechanism's package for its registration side
// effect is what actually makes the name usable; these constants merely
// save callers from re-typing (and re-validating) the string literal.
var (
	PLAIN          = mustMechname("PLAIN")
	LOGIN          = mustMechname("LOGIN")
	CRAM_MD5       = mustMechname("CRAM-MD5")
	DIGEST_MD5     = mustMechname("DIGEST-MD5")
	SCRAM_SHA_1    = mustMechname("SCRAM-SHA-1")
	SCRAM_SHA_1_PLUS = mustMechname("SCRAM-SHA-1-PLUS")
	SCRAM_SHA_256  = mustMechname("SCRAM-SHA-256")
	SCRAM_SHA_256_PLUS = mustMechname("SCRAM-SHA-256-PLUS")
	OPENID20       = mustMechname("OPENID20")
	SAML20         = mustMechname("SAML20")
	SECURID        = mustMechname("SECURID")
	EXTERNAL       = mustMechname("EXTERNAL")
	ANONYMOUS      = mustMechname("ANONYMOUS")
)
