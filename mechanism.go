package sasl

import "sync"

// State is the result of a single [ClientMechanism.Step] or
// [ServerMechanism.Step] invocation.
type State int

const (
	// StateRunning means the exchange is not yet finished; the caller
	// must obtain another input token from its peer and step again.
	StateRunning State = iota
	// StateFinished means the exchange is over. A [ClientMechanism] or
	// [ServerMechanism] never returns to StateRunning after returning
	// StateFinished.
	StateFinished
)

func (s State) String() string {
	if s == StateFinished {
		return "finished"
	}
	return "running"
}

// ClientMechanism is the per-session state of a mechanism's initiator
// side (component F). Implementations live in sasl/mech/*.
type ClientMechanism interface {
	// Step consumes one token received from the server (nil on the very
	// first call if the mechanism is not client-first) and returns the
	// next token to send, if any, plus the resulting state.
	Step(in []byte) (out []byte, state State, err error)
}

// ServerMechanism is the per-session state of a mechanism's acceptor
// side (component F).
type ServerMechanism interface {
	Step(in []byte) (out []byte, state State, err error)

	// Validation returns the typed verdict produced once the mechanism
	// has finished, or nil if it has not finished or produced none.
	Validation() *Validation
}

// NewClientFunc constructs a fresh, per-session [ClientMechanism]. s gives
// the mechanism access to the session's property cache, callback and
// randomness for the lifetime of the exchange.
type NewClientFunc func(s *Session) (ClientMechanism, error)

// NewServerFunc constructs a fresh, per-session [ServerMechanism].
type NewServerFunc func(s *Session) (ServerMechanism, error)

// Descriptor describes a mechanism implementation to the registry.
// Mechanism packages build exactly one of these in their init() and pass
// it to [Register].
type Descriptor struct {
	Name       Mechname
	Flags      MechFlag
	NewClient  NewClientFunc // nil if the mechanism has no client side
	NewServer  NewServerFunc // nil if the mechanism has no server side
}

func (d Descriptor) clientFirst() bool { return d.Flags&MechFlagClientFirst != 0 }
func (d Descriptor) serverFirst() bool { return d.Flags&MechFlagServerFirst != 0 }

var registry struct {
	sync.Mutex
	mechs map[Mechname]Descriptor
}

func init() {
	registry.mechs = make(map[Mechname]Descriptor)
}

// Register associates a mechanism [Descriptor] with its name. It should
// be called from the init() function of a sasl/mech/* package so that
// importing the package for its side effect is sufficient to make the
// mechanism available, in the same way GSSAPI mechanism implementations
// register themselves with a generic front end.
//
// Registering two descriptors under the same name replaces the earlier
// one; this lets an application override a built-in mechanism.
func Register(d Descriptor) {
	registry.Lock()
	defer registry.Unlock()

	registry.mechs[d.Name] = d
}

// IsRegistered reports whether a mechanism name has a registered
// implementation.
func IsRegistered(name Mechname) bool {
	registry.Lock()
	defer registry.Unlock()

	_, ok := registry.mechs[name]
	return ok
}

// RegisteredMechanisms returns the names of every mechanism registered so
// far, in no particular order.
func RegisteredMechanisms() []Mechname {
	registry.Lock()
	defer registry.Unlock()

	l := make([]Mechname, 0, len(registry.mechs))
	for name := range registry.mechs {
		l = append(l, name)
	}
	return l
}

func lookupDescriptor(name Mechname) (Descriptor, bool) {
	registry.Lock()
	defer registry.Unlock()

	d, ok := registry.mechs[name]
	return d, ok
}
