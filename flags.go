package sasl

// MechFlag describes static capabilities of a registered mechanism
// (component F/G). The session runtime consults these to decide which
// side speaks first ([Session.AreWeFirst]) and whether a mechanism is
// eligible to be suggested under the client's channel-binding policy
// ([Session.Suggest]).
type MechFlag uint32

const (
	// MechFlagClientFirst marks a mechanism whose client side sends the
	// first token without waiting for input (PLAIN, EXTERNAL, ANONYMOUS,
	// SCRAM; neither CRAM-MD5's client nor LOGIN's does, so this is set
	// per mechanism, not assumed).
	MechFlagClientFirst MechFlag = 1 << iota
	// MechFlagServerFirst marks a mechanism whose server side sends the
	// first token (CRAM-MD5, LOGIN, DIGEST-MD5).
	MechFlagServerFirst
	// MechFlagChannelBinding marks a mechanism that can make use of
	// channel-binding data when available (the SCRAM-*-PLUS family).
	MechFlagChannelBinding
	// MechFlagChannelBindingMandatory marks a mechanism that refuses to
	// run at all without channel-binding data (the "-PLUS" variants
	// proper, as opposed to their plain siblings).
	MechFlagChannelBindingMandatory
)
