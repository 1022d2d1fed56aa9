package sasl

import (
	"fmt"
	"strings"

	"github.com/sasl-go/sasl/codec"
)

// Session is a single stepwise SASL exchange bound to one mechanism on
// one side of the conversation (component H). A Session is created by
// [NewClientSession] or [NewServerSession], stepped to completion with
// repeated calls to [Session.Step] (or [Session.Step64]), and then
// discarded; it carries no persisted state.
type Session struct {
	config    *Config
	side      Side
	mechname  Mechname
	descriptor Descriptor

	client ClientMechanism
	server ServerMechanism

	props map[Property][]byte

	step     int
	finished bool
	errored  bool
}

// NewClientSession creates a client-side (initiator) Session for the
// named mechanism, allocating its per-session mechanism state. name must
// be enabled on cfg and have a client-side implementation, or this
// returns [ErrUnknownMechanism] / [ErrNoClientCode].
func NewClientSession(cfg *Config, name Mechname) (*Session, error) {
	d, ok := cfg.Descriptor(name)
	if !ok {
		return nil, ErrUnknownMechanism
	}
	if d.NewClient == nil {
		return nil, ErrNoClientCode
	}

	s := &Session{
		config:     cfg,
		side:       SideClient,
		mechname:   name,
		descriptor: d,
		props:      make(map[Property][]byte),
	}

	m, err := d.NewClient(s)
	if err != nil {
		return nil, err
	}
	s.client = m
	return s, nil
}

// NewServerSession creates a server-side (acceptor) Session for the named
// mechanism (spec.md's "start_suggested"). name must be enabled on cfg
// and have a server-side implementation.
func NewServerSession(cfg *Config, name Mechname) (*Session, error) {
	d, ok := cfg.Descriptor(name)
	if !ok {
		return nil, ErrUnknownMechanism
	}
	if d.NewServer == nil {
		return nil, ErrNoServerCode
	}

	s := &Session{
		config:     cfg,
		side:       SideServer,
		mechname:   name,
		descriptor: d,
		props:      make(map[Property][]byte),
	}

	m, err := d.NewServer(s)
	if err != nil {
		return nil, err
	}
	s.server = m
	return s, nil
}

// plusSiblingOf returns the "-PLUS" variant name of a channel-binding
// capable mechanism family, if name does not already name one.
func plusSiblingOf(name Mechname) (Mechname, bool) {
	if strings.HasSuffix(string(name), "-PLUS") {
		return "", false
	}
	plus := Mechname(string(name) + "-PLUS")
	if _, err := ParseMechname([]byte(plus)); err != nil {
		return "", false
	}
	return plus, true
}

// SuggestMechanism implements the client-side "suggest the strongest
// from a list" policy (spec.md §4.H): it walks offered in order and
// returns the first name that is both enabled on cfg and compatible
// with haveChannelBinding, preferring a mechanism's "-PLUS" sibling over
// the plain variant when the sibling is also offered and channel
// binding is available.
func (c *Config) SuggestMechanism(offered []Mechname, haveChannelBinding bool) (Mechname, bool) {
	offeredSet := make(map[Mechname]bool, len(offered))
	for _, o := range offered {
		offeredSet[o] = true
	}

	for _, name := range offered {
		d, ok := c.mechs[name]
		if !ok {
			continue
		}
		if d.Flags&MechFlagChannelBindingMandatory != 0 && !haveChannelBinding {
			continue
		}
		if plus, ok2 := plusSiblingOf(name); ok2 && offeredSet[plus] && haveChannelBinding {
			if pd, ok3 := c.mechs[plus]; ok3 && pd.Flags&MechFlagChannelBindingMandatory != 0 {
				continue // defer to the stronger -PLUS sibling
			}
		}
		return name, true
	}
	return "", false
}

// AreWeFirst reports whether this session's side is expected to produce
// the first output token without having received any input.
func (s *Session) AreWeFirst() bool {
	if s.side == SideClient {
		return s.descriptor.clientFirst()
	}
	return s.descriptor.serverFirst()
}

// Mechanism returns the mechanism this session is bound to.
func (s *Session) Mechanism() Mechname { return s.mechname }

// Side returns which role this session plays.
func (s *Session) Side() Side { return s.side }

// Config returns the Config this session was created from.
func (s *Session) Config() *Config { return s.config }

func (s *Session) info() *SessionInfo {
	return &SessionInfo{Side: s.side, Mechanism: s.mechname}
}

// RequestProperty asks the application callback for a property's value,
// returning the cached answer if this session already obtained one
// (spec.md §3: "repeated get returns the same bytes for the session's
// lifetime"). If the callback leaves the request unanswered, it returns
// the property-specific [NoProperty] error; if the callback itself
// fails, that error is propagated wrapped in [CallbackError].
func (s *Session) RequestProperty(p Property) ([]byte, error) {
	if v, ok := s.props[p]; ok {
		return v, nil
	}

	req := &Request{property: p}
	ctx := &PropertyContext{session: s}
	if err := s.config.Callback().Provide(s.info(), ctx, req); err != nil {
		return nil, &CallbackError{Err: err}
	}
	if !req.satisfied {
		return nil, NoProperty(p)
	}

	s.props[p] = req.value
	return req.value, nil
}

// RequestPropertyString is a convenience wrapper around RequestProperty.
func (s *Session) RequestPropertyString(p Property) (string, error) {
	v, err := s.RequestProperty(p)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// RequestPropertyUint is a convenience wrapper around RequestProperty for
// PropScramIter.
func (s *Session) RequestPropertyUint(p Property) (uint64, error) {
	v, err := s.RequestProperty(p)
	if err != nil {
		return 0, err
	}
	ctx := &PropertyContext{session: s}
	n, ok := ctx.GetUint(p)
	if !ok {
		return 0, &MechanismParseError{Mechanism: s.mechname, Reason: fmt.Sprintf("%s is not a valid unsigned integer: %q", p, v)}
	}
	return n, nil
}

// SetProperty records a value in the property cache directly, without
// going through the callback. Mechanisms use this to record data they
// parsed from the wire (e.g. an AuthId read off a PLAIN token) so that a
// later RequestProperty for, say, Password can see it via the
// [PropertyContext] handed to the callback.
func (s *Session) SetProperty(p Property, v []byte) { s.props[p] = v }

// SetPropertyString is a convenience wrapper around SetProperty.
func (s *Session) SetPropertyString(p Property, v string) { s.props[p] = []byte(v) }

// GetProperty returns a previously stored or requested property without
// consulting the callback.
func (s *Session) GetProperty(p Property) ([]byte, bool) {
	v, ok := s.props[p]
	return v, ok
}

// Validate invokes the application callback's Validate method for the
// given validation kind and returns the resulting [Validation], if any
// (component C/H). It returns (nil, nil) if the callback did not
// finalize a verdict, which mechanisms with a fallback validation path
// (PLAIN) use as their cue to perform their own comparison. Validate
// does not itself record the result; a [ServerMechanism] is responsible
// for remembering whatever verdict it ultimately reaches (callback's or
// its own fallback) and returning it from its Validation method.
func (s *Session) Validate(kind ValidationKind) (*Validation, error) {
	v := newValidator(kind)
	ctx := &PropertyContext{session: s}
	if err := s.config.Callback().Validate(s.info(), ctx, v); err != nil {
		return nil, &CallbackError{Err: err}
	}
	return v.result, nil
}

// Validation returns the typed verdict produced by a finished
// server-side mechanism, or nil if the session is client-side or its
// mechanism has not recorded one yet.
func (s *Session) Validation() *Validation {
	if s.side != SideServer || s.server == nil {
		return nil
	}
	return s.server.Validation()
}

// Rand returns the session's source of randomness: the one configured
// via [ConfigBuilder.WithRand], or nil to let [saslcrypto.DefaultAdapter]
// fall back to crypto/rand.Reader.
func (s *Session) Rand() interface{ Read([]byte) (int, error) } { return s.config.rand }

// Step feeds in (the peer's most recent token, or nil on the very first
// call of a session whose side is first) to the underlying mechanism and
// returns the next token to send, if any, and the resulting [State].
//
// Calling Step again after it has returned [StateFinished], or after a
// previous call returned a non-nil error, returns
// [ErrMechanismCalledTooManyTimes].
func (s *Session) Step(in []byte) ([]byte, State, error) {
	if s.finished || s.errored {
		return nil, StateFinished, ErrMechanismCalledTooManyTimes
	}

	var out []byte
	var state State
	var err error

	switch s.side {
	case SideClient:
		out, state, err = s.client.Step(in)
	case SideServer:
		out, state, err = s.server.Step(in)
	}

	s.step++
	if err != nil {
		s.errored = true
		return nil, StateFinished, err
	}
	if state == StateFinished {
		s.finished = true
	}
	return out, state, nil
}

// Step64 is [Session.Step] wrapped in base64 framing for peers that
// exchange whole tokens rather than raw bytes (spec.md §4.H/§6): in is
// base64-decoded before being handed to the mechanism, with the literal
// single-byte token "-" accepted as an explicitly empty token; the
// mechanism's output is base64-encoded, emitting "-" itself when the
// mechanism is still running but owes no output this round.
func (s *Session) Step64(in []byte) ([]byte, State, error) {
	decoded, err := codec.DecodeFrame(in)
	if err != nil {
		return nil, StateFinished, ErrBase64Error
	}

	out, state, err := s.Step(decoded)
	if err != nil {
		return nil, state, err
	}

	if len(out) == 0 && state == StateFinished {
		return nil, state, nil
	}
	return codec.EncodeFrame(out), state, nil
}
