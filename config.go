// SPDX-License-Identifier: Apache-2.0

package sasl

import "io"

// Config is the immutable result of a [ConfigBuilder.Build] call
// (component I). Multiple [Session]s may share a single Config safely;
// it is never mutated after Build returns.
type Config struct {
	mechs           map[Mechname]Descriptor
	callback        Callback
	allowUnassigned bool
	rand            io.Reader
}

// Callback returns the application callback this Config was built with.
func (c *Config) Callback() Callback { return c.callback }

// AllowUnassignedCodepoints reports the SASLprep policy this Config was
// built with (spec.md §4.D).
func (c *Config) AllowUnassignedCodepoints() bool { return c.allowUnassigned }

// Descriptor looks up the registered mechanism descriptor for name,
// provided it is also enabled on this Config.
func (c *Config) Descriptor(name Mechname) (Descriptor, bool) {
	d, ok := c.mechs[name]
	return d, ok
}

// EnabledMechanisms returns the mechanism names enabled on this Config, in
// no particular order.
func (c *Config) EnabledMechanisms() []Mechname {
	l := make([]Mechname, 0, len(c.mechs))
	for name := range c.mechs {
		l = append(l, name)
	}
	return l
}

// ConfigBuilder accumulates the options later frozen into a [Config] by
// [ConfigBuilder.Build]. It mirrors a functional-options builder (With*
// methods returning the receiver), generalized from a flat string-keyed
// option bag to typed builder methods since a Config's fields are not
// homogeneous.
type ConfigBuilder struct {
	mechs           map[Mechname]struct{}
	callback        Callback
	allowUnassigned bool
	rand            io.Reader
}

// NewConfigBuilder returns an empty ConfigBuilder. No mechanisms are
// enabled and no callback is set; [ConfigBuilder.Build] fails until both
// are supplied.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{mechs: make(map[Mechname]struct{})}
}

// EnableMechanisms enables the named mechanisms. Names that are not
// registered at Build time cause [ErrUnknownMechanism].
func (b *ConfigBuilder) EnableMechanisms(names ...Mechname) *ConfigBuilder {
	for _, n := range names {
		b.mechs[n] = struct{}{}
	}
	return b
}

// WithDefaults enables every mechanism currently registered (i.e. every
// sasl/mech/* package the caller has imported for its init() side
// effect).
func (b *ConfigBuilder) WithDefaults() *ConfigBuilder {
	for _, n := range RegisteredMechanisms() {
		b.mechs[n] = struct{}{}
	}
	return b
}

// WithCallback sets the application [Callback]. Required before Build.
func (b *ConfigBuilder) WithCallback(cb Callback) *ConfigBuilder {
	b.callback = cb
	return b
}

// AllowUnassignedCodepoints sets the SASLprep policy: whether strings
// containing Unicode code points not yet assigned in the version of
// Unicode the running saslprep implementation knows about are rejected
// (the default, false) or passed through (true). RFC 4013 recommends
// rejecting unassigned code points for anything transmitted on the wire,
// but permits a more permissive mode for values an application merely
// stores for later comparison.
func (b *ConfigBuilder) AllowUnassignedCodepoints(allow bool) *ConfigBuilder {
	b.allowUnassigned = allow
	return b
}

// WithRand overrides the source of cryptographically strong randomness
// used for nonce generation. Defaults to crypto/rand.Reader. Intended for
// deterministic tests, not production use.
func (b *ConfigBuilder) WithRand(r io.Reader) *ConfigBuilder {
	b.rand = r
	return b
}

// Build validates the accumulated options and returns an immutable
// Config, or one of [ErrNoCallback] / [ErrEmptyMechanismSet] /
// [ErrUnknownMechanism].
func (b *ConfigBuilder) Build() (*Config, error) {
	if b.callback == nil {
		return nil, ErrNoCallback
	}
	if len(b.mechs) == 0 {
		return nil, ErrEmptyMechanismSet
	}

	mechs := make(map[Mechname]Descriptor, len(b.mechs))
	for name := range b.mechs {
		d, ok := lookupDescriptor(name)
		if !ok {
			return nil, ErrUnknownMechanism
		}
		mechs[name] = d
	}

	return &Config{
		mechs:           mechs,
		callback:        b.callback,
		allowUnassigned: b.allowUnassigned,
		rand:            b.rand,
	}, nil
}
