// Package saslprep prepares identity and credential strings per RFC 4013
// before they are compared or put on the wire (component D). It is a
// thin wrapper around github.com/xdg-go/stringprep's SASLprep profile.
package saslprep

import (
	"github.com/xdg-go/stringprep"

	"github.com/sasl-go/sasl"
)

// Prepare runs s through the SASLprep profile: Unicode mapping, NFKC
// normalization, prohibited-character rejection and bidirectional-text
// checking.
//
// allowUnassigned is accepted to satisfy spec.md §4.D/§4.I's builder
// option (ConfigBuilder.AllowUnassignedCodepoints) and to keep the
// policy visible at every call site; xdg-go/stringprep's pinned
// SASLprep profile does not expose a separate unassigned-codepoints
// toggle; both policies currently run the identical RFC 4013 profile,
// so this parameter has no observable effect until a stringprep profile
// with that knob is wired in.
func Prepare(s string, allowUnassigned bool) (string, error) {
	_ = allowUnassigned

	out, err := stringprep.SASLprep.Prepare(s)
	if err != nil {
		return "", &PrepError{Input: s, Err: err}
	}
	return out, nil
}

// PrepError reports that a string failed SASLprep.
type PrepError struct {
	Input string
	Err   error
}

func (e *PrepError) Error() string { return "saslprep: " + e.Err.Error() }
func (e *PrepError) Unwrap() error { return sasl.ErrSaslprepError }
