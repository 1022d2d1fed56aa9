package sasl

import "strconv"

// Property identifies a single datum a mechanism may request from, or
// store into, the per-session property cache (component B). Property is
// a closed enumeration rather than an open registry: the Go type system
// has no ergonomic equivalent of a zero-sized type with an associated
// value type, so Property plays the role a credential-store option-key
// enum plays for credential-store options, generalized to the full set
// spec.md §3 names.
type Property int

const (
	// Data properties: the callback answers these with bytes or UTF-8 text.
	PropAuthID Property = iota
	PropAuthzID
	PropPassword
	PropRealm
	PropHostname
	PropService
	PropOAuthBearerToken
	PropAnonymousToken
	PropPasscode
	PropPin
	PropChannelBindings
	PropChannelBindingName
	PropOverrideCBType

	// SCRAM precomputed-secret shortcuts (spec.md §4.G): if the callback
	// supplies these, the mechanism skips PBKDF2 entirely.
	PropScramSalt
	PropScramIter
	PropScramSaltedPassword
	PropScramStoredKey
	PropScramServerKey

	// DIGEST-MD5 precomputed H(username:realm:password), 16 raw bytes.
	PropDigestMD5HashedPassword

	// OPENID20/SAML20 redirect-based mechanisms: URLs and identifiers the
	// application supplies so the mechanism can hand them to the peer.
	PropSaml20IdpIdentifier
	PropSaml20RedirectURL
	PropOpenID20RedirectURL
)

var propertyNames = [...]string{
	PropAuthID:                  "AuthId",
	PropAuthzID:                 "AuthzId",
	PropPassword:                "Password",
	PropRealm:                   "Realm",
	PropHostname:                "Hostname",
	PropService:                 "Service",
	PropOAuthBearerToken:        "OAuthBearerToken",
	PropAnonymousToken:          "AnonymousToken",
	PropPasscode:                "Passcode",
	PropPin:                     "Pin",
	PropChannelBindings:         "ChannelBindings",
	PropChannelBindingName:      "ChannelBindingName",
	PropOverrideCBType:          "OverrideCBType",
	PropScramSalt:               "ScramSalt",
	PropScramIter:               "ScramIter",
	PropScramSaltedPassword:     "ScramSaltedPassword",
	PropScramStoredKey:          "ScramStoredKey",
	PropScramServerKey:          "ScramServerKey",
	PropDigestMD5HashedPassword: "DigestMD5HashedPassword",
	PropSaml20IdpIdentifier:     "Saml20IdpIdentifier",
	PropSaml20RedirectURL:       "Saml20RedirectUrl",
	PropOpenID20RedirectURL:     "OpenID20RedirectUrl",
}

func (p Property) String() string {
	if int(p) >= 0 && int(p) < len(propertyNames) && propertyNames[p] != "" {
		return propertyNames[p]
	}
	return "Property(" + strconv.Itoa(int(p)) + ")"
}

// ValidationKind identifies which typed verdict a [Validation] carries
// (spec.md §3/§4.C). Each mechanism that has a server side is associated
// with exactly one kind.
type ValidationKind int

const (
	ValidateSimple ValidationKind = iota
	ValidateExternal
	ValidateAnonymous
	ValidateGSSAPI
	ValidateSecurID
	ValidateSAML20
	ValidateOpenID20
)

// Validation is the typed verdict a server-side mechanism surfaces once
// it has finished (component C/H). Ok reports whether the peer
// authenticated successfully. AuthzID is the identity the peer will act
// as, set for the mechanisms where that is meaningful (PLAIN, LOGIN,
// CRAM-MD5, DIGEST-MD5, SCRAM-*, EXTERNAL). SecurID servers may also
// populate SecurIDNextPasscode/SecurIDNextPin to request a second
// passcode or PIN round (spec.md §4.G).
type Validation struct {
	Kind    ValidationKind
	Ok      bool
	AuthzID string

	SecurIDNextPasscode bool
	SecurIDNextPin      bool
}

// PropertyContext gives a [Callback] read access to properties already
// stored in the current session's property cache, e.g. the AuthId a
// mechanism stored before requesting the matching Password (spec.md
// §4.C). A PropertyContext is only valid for the duration of the
// callback invocation it was handed to.
type PropertyContext struct {
	session *Session
}

// Get returns the raw bytes stored for p, if any.
func (c *PropertyContext) Get(p Property) ([]byte, bool) {
	v, ok := c.session.props[p]
	return v, ok
}

// GetString is a convenience wrapper around Get for UTF-8 text properties.
func (c *PropertyContext) GetString(p Property) (string, bool) {
	v, ok := c.session.props[p]
	if !ok {
		return "", false
	}
	return string(v), true
}

// GetUint is a convenience wrapper around Get for ScramIter, stored as
// its decimal ASCII representation.
func (c *PropertyContext) GetUint(p Property) (uint64, bool) {
	v, ok := c.session.props[p]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(string(v), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// set stores a value in the session property cache. Per spec.md §3,
// repeated Get of a property already set must return the same bytes for
// the rest of the session, so set is a write-once operation from the
// mechanism's point of view: mechanisms should only ever set a property
// they have not already set this session.
func (c *PropertyContext) set(p Property, v []byte) {
	c.session.props[p] = v
}

func (c *PropertyContext) setString(p Property, v string) {
	c.session.props[p] = []byte(v)
}

func (c *PropertyContext) setUint(p Property, v uint64) {
	c.session.props[p] = []byte(strconv.FormatUint(v, 10))
}
