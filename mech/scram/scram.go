// Package scram implements the shared SCRAM-SHA-1/SCRAM-SHA-256 engine
// (RFC 5802, RFC 7677), parameterized by hash algorithm and channel
// binding ("-PLUS") support. The four concrete mechanisms
// (sasl/mech/scram/scramsha1, scramsha1plus, scramsha256, scramsha256plus)
// are thin registration shims over this engine.
package scram

import (
	"errors"

	"github.com/sasl-go/sasl"
	"github.com/sasl-go/sasl/codec"
	"github.com/sasl-go/sasl/saslcrypto"
	"github.com/sasl-go/sasl/saslprep"
)

// Params parameterizes the engine for one concrete mechanism variant.
type Params struct {
	Name    sasl.Mechname
	Hash    saslcrypto.HashKind
	HashLen int
	Plus    bool
}

// Register builds a [sasl.Descriptor] for p and registers it.
func Register(p Params) {
	flags := sasl.MechFlagClientFirst
	if p.Plus {
		flags |= sasl.MechFlagChannelBinding | sasl.MechFlagChannelBindingMandatory
	}
	sasl.Register(sasl.Descriptor{
		Name:  p.Name,
		Flags: flags,
		NewClient: func(s *sasl.Session) (sasl.ClientMechanism, error) {
			return &client{s: s, p: p}, nil
		},
		NewServer: func(s *sasl.Session) (sasl.ServerMechanism, error) {
			return &server{s: s, p: p}, nil
		},
	})
}

func optionalProperty(s *sasl.Session, prop sasl.Property) ([]byte, bool, error) {
	v, err := s.RequestProperty(prop)
	if err != nil {
		var pe *sasl.PropertyError
		if errors.As(err, &pe) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return v, true, nil
}

// saltedPassword returns SaltedPassword, computing it via PBKDF2 unless
// the callback supplied the ScramSaltedPassword shortcut.
func saltedPassword(s *sasl.Session, p Params, salt []byte, iter uint32, allowUnassigned bool) ([]byte, error) {
	if sp, ok, err := optionalProperty(s, sasl.PropScramSaltedPassword); err != nil {
		return nil, err
	} else if ok {
		return sp, nil
	}

	password, err := s.RequestPropertyString(sasl.PropPassword)
	if err != nil {
		return nil, err
	}
	if password, err = saslprep.Prepare(password, allowUnassigned); err != nil {
		return nil, err
	}
	return (saslcrypto.DefaultAdapter{}).PBKDF2HMAC(p.Hash, []byte(password), salt, int(iter), p.HashLen), nil
}

// clientKeys derives ClientKey/StoredKey/ServerKey for the client side,
// which always needs all three.
func clientKeys(s *sasl.Session, p Params, salt []byte, iter uint32, allowUnassigned bool) (clientKey, storedKey, serverKey []byte, err error) {
	sp, err := saltedPassword(s, p, salt, iter, allowUnassigned)
	if err != nil {
		return nil, nil, nil, err
	}
	ck, sk, svk := (saslcrypto.DefaultAdapter{}).ScramDerive(p.Hash, sp)
	return ck, sk, svk, nil
}

// serverKeys derives StoredKey/ServerKey for the server side, preferring
// the ScramStoredKey/ScramServerKey shortcut (no SaltedPassword or
// PBKDF2 involved at all) over ScramSaltedPassword over a full PBKDF2
// derivation from Password.
func serverKeys(s *sasl.Session, p Params, salt []byte, iter uint32, allowUnassigned bool) (storedKey, serverKey []byte, err error) {
	sk, okSK, err := optionalProperty(s, sasl.PropScramStoredKey)
	if err != nil {
		return nil, nil, err
	}
	svk, okSVK, err := optionalProperty(s, sasl.PropScramServerKey)
	if err != nil {
		return nil, nil, err
	}
	if okSK && okSVK {
		return sk, svk, nil
	}

	sp, err := saltedPassword(s, p, salt, iter, allowUnassigned)
	if err != nil {
		return nil, nil, err
	}
	_, storedKey, serverKey = (saslcrypto.DefaultAdapter{}).ScramDerive(p.Hash, sp)
	return storedKey, serverKey, nil
}

// cbindFlag chooses the GS2 channel-binding flag and cbname for the
// client side (spec.md §4.G): 'p' with the session's advertised
// channel-binding name for -PLUS variants, 'y' for a non-PLUS variant
// when channel-binding data happens to be available (client could have
// used -PLUS but didn't), 'n' otherwise.
func cbindFlag(s *sasl.Session, p Params) (codec.CBFlag, string, []byte, error) {
	cbBytes, haveCB, err := optionalProperty(s, sasl.PropChannelBindings)
	if err != nil {
		return 0, "", nil, err
	}

	if p.Plus {
		if !haveCB {
			return 0, "", nil, sasl.NoCbTlsUnique()
		}
		cbname, ok, err := optionalProperty(s, sasl.PropChannelBindingName)
		if err != nil {
			return 0, "", nil, err
		}
		name := "tls-unique"
		if ok && len(cbname) > 0 {
			name = string(cbname)
		}
		return codec.CBFlagUsed, name, cbBytes, nil
	}

	if haveCB {
		return codec.CBFlagSupportedNotUsed, "", nil, nil
	}
	return codec.CBFlagNone, "", nil, nil
}

type client struct {
	s *sasl.Session
	p Params

	step int

	gs2Header      string
	clientFirstBar string
	nonce          string
	serverKey      []byte
	authMessage    string
}

func (c *client) Step(in []byte) ([]byte, sasl.State, error) {
	switch c.step {
	case 0:
		c.step++
		return c.step0()
	case 1:
		c.step++
		return c.step1(in)
	case 2:
		c.step++
		return c.step2(in)
	default:
		return nil, sasl.StateFinished, sasl.ErrMechanismCalledTooManyTimes
	}
}

func (c *client) step0() ([]byte, sasl.State, error) {
	flag, cbname, _, err := cbindFlag(c.s, c.p)
	if err != nil {
		return nil, sasl.StateFinished, err
	}
	authzid, _, err := optionalProperty(c.s, sasl.PropAuthzID)
	if err != nil {
		return nil, sasl.StateFinished, err
	}

	header := &codec.GS2Header{CBFlag: flag, CBName: cbname, AuthzID: string(authzid)}
	c.gs2Header = header.String()

	username, err := c.s.RequestPropertyString(sasl.PropAuthID)
	if err != nil {
		return nil, sasl.StateFinished, err
	}
	allowUnassigned := c.s.Config().AllowUnassignedCodepoints()
	if username, err = saslprep.Prepare(username, allowUnassigned); err != nil {
		return nil, sasl.StateFinished, err
	}

	nonce, err := saslcrypto.RandomNonce(c.s.Rand(), 18)
	if err != nil {
		return nil, sasl.StateFinished, err
	}
	c.nonce = nonce

	cf := &codec.ScramClientFirst{Username: username, Nonce: nonce}
	c.clientFirstBar = cf.String()

	return []byte(c.gs2Header + c.clientFirstBar), sasl.StateRunning, nil
}

func (c *client) step1(in []byte) ([]byte, sasl.State, error) {
	sf, err := codec.ParseScramServerFirst(in)
	if err != nil {
		return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: c.p.Name, Reason: err.Error()}
	}
	if len(sf.Nonce) <= len(c.nonce) || sf.Nonce[:len(c.nonce)] != c.nonce {
		return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: c.p.Name, Reason: "server nonce does not extend client nonce"}
	}

	allowUnassigned := c.s.Config().AllowUnassignedCodepoints()
	clientKey, storedKey, serverKey, err := clientKeys(c.s, c.p, sf.Salt, sf.Iter, allowUnassigned)
	if err != nil {
		return nil, sasl.StateFinished, err
	}
	c.serverKey = serverKey

	flag, _, cbData, err := cbindFlag(c.s, c.p)
	if err != nil {
		return nil, sasl.StateFinished, err
	}
	cbindInput := []byte(c.gs2Header)
	if flag == codec.CBFlagUsed {
		cbindInput = append(append([]byte{}, cbindInput...), cbData...)
	}

	clientFinalWithoutProof := codec.ClientFinalWithoutProof(cbindInput, sf.Nonce)
	authMessage := c.clientFirstBar + "," + string(in) + "," + clientFinalWithoutProof

	adapter := saslcrypto.DefaultAdapter{}
	clientSignature := hmacBytes(adapter, c.p.Hash, storedKey, []byte(authMessage))
	proof := xorBytes(clientKey, clientSignature)

	out := clientFinalWithoutProof + ",p=" + b64(proof)

	c.authMessage = authMessage
	return []byte(out), sasl.StateRunning, nil
}

func (c *client) step2(in []byte) ([]byte, sasl.State, error) {
	sf, err := codec.ParseScramServerFinal(in)
	if err != nil {
		return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: c.p.Name, Reason: err.Error()}
	}
	if sf.Error != "" {
		return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: c.p.Name, Reason: "server reported: " + sf.Error}
	}

	adapter := saslcrypto.DefaultAdapter{}
	expected := hmacBytes(adapter, c.p.Hash, c.serverKey, []byte(c.authMessage))
	if !adapter.ConstantTimeEqual(sf.Verifier, expected) {
		return nil, sasl.StateFinished, sasl.ErrAuthenticationError
	}
	return nil, sasl.StateFinished, nil
}

func hmacBytes(a saslcrypto.Adapter, kind saslcrypto.HashKind, key, msg []byte) []byte {
	switch kind {
	case saslcrypto.HashSHA1:
		out := a.HMACSHA1(key, msg)
		return out[:]
	case saslcrypto.HashSHA256:
		out := a.HMACSHA256(key, msg)
		return out[:]
	default:
		panic("scram: unsupported hash kind")
	}
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}

func hashBytes(a saslcrypto.Adapter, kind saslcrypto.HashKind, b []byte) []byte {
	switch kind {
	case saslcrypto.HashSHA1:
		out := a.SHA1(b)
		return out[:]
	case saslcrypto.HashSHA256:
		out := a.SHA256(b)
		return out[:]
	default:
		panic("scram: unsupported hash kind")
	}
}

func b64(b []byte) string { return codec.EncodeB64Field(b) }

type server struct {
	s *sasl.Session
	p Params

	step int

	clientFirstBar string
	gs2Header      []byte
	cbFlag         codec.CBFlag
	fullNonce      string
	serverFirst    string
	storedKey      []byte
	serverKey      []byte
	authzid        string

	validation *sasl.Validation
}

func (srv *server) Step(in []byte) ([]byte, sasl.State, error) {
	switch srv.step {
	case 0:
		srv.step++
		return srv.step0(in)
	case 1:
		srv.step++
		return srv.step1(in)
	default:
		return nil, sasl.StateFinished, sasl.ErrMechanismCalledTooManyTimes
	}
}

func (srv *server) step0(in []byte) ([]byte, sasl.State, error) {
	header, err := codec.ParseGS2Header(in)
	if err != nil {
		return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: srv.p.Name, Reason: err.Error()}
	}
	if header.CBFlag == codec.CBFlagUsed && !srv.p.Plus {
		return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: srv.p.Name, Reason: "channel binding requested on a non-PLUS mechanism"}
	}
	srv.cbFlag = header.CBFlag
	srv.gs2Header = append([]byte{}, in[:header.HeaderLen]...)

	bare := in[header.HeaderLen:]
	cf, err := codec.ParseScramClientFirst(bare)
	if err != nil {
		return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: srv.p.Name, Reason: err.Error()}
	}
	srv.clientFirstBar = string(bare)

	allowUnassigned := srv.s.Config().AllowUnassignedCodepoints()
	username, err := saslprep.Prepare(cf.Username, allowUnassigned)
	if err != nil {
		return nil, sasl.StateFinished, err
	}
	authzid := header.AuthzID
	if authzid == "" {
		authzid = username
	}
	srv.authzid = authzid
	srv.s.SetPropertyString(sasl.PropAuthID, username)
	srv.s.SetPropertyString(sasl.PropAuthzID, authzid)

	serverNonceSuffix, err := saslcrypto.RandomNonce(srv.s.Rand(), 18)
	if err != nil {
		return nil, sasl.StateFinished, err
	}
	srv.fullNonce = cf.Nonce + serverNonceSuffix

	salt, err := srv.s.RequestProperty(sasl.PropScramSalt)
	if err != nil {
		return nil, sasl.StateFinished, err
	}
	iter, err := srv.s.RequestPropertyUint(sasl.PropScramIter)
	if err != nil {
		return nil, sasl.StateFinished, err
	}

	storedKey, serverKey, err := serverKeys(srv.s, srv.p, salt, uint32(iter), allowUnassigned)
	if err != nil {
		return nil, sasl.StateFinished, err
	}
	srv.storedKey, srv.serverKey = storedKey, serverKey

	sf := &codec.ScramServerFirst{Nonce: srv.fullNonce, Salt: salt, Iter: uint32(iter)}
	srv.serverFirst = sf.String()
	return []byte(srv.serverFirst), sasl.StateRunning, nil
}

func (srv *server) step1(in []byte) ([]byte, sasl.State, error) {
	cf, err := codec.ParseScramClientFinal(in)
	if err != nil {
		return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: srv.p.Name, Reason: err.Error()}
	}
	if cf.Nonce != srv.fullNonce {
		return nil, sasl.StateFinished, &sasl.MechanismParseError{Mechanism: srv.p.Name, Reason: "client-final nonce does not match server-first nonce"}
	}

	expectedCbindInput := append([]byte{}, srv.gs2Header...)
	if srv.cbFlag == codec.CBFlagUsed {
		cbBytes, err := srv.s.RequestProperty(sasl.PropChannelBindings)
		if err != nil {
			return nil, sasl.StateFinished, err
		}
		expectedCbindInput = append(expectedCbindInput, cbBytes...)
	}
	adapter := saslcrypto.DefaultAdapter{}
	if !adapter.ConstantTimeEqual(cf.ChannelBinding, expectedCbindInput) {
		return nil, sasl.StateFinished, sasl.ErrAuthenticationError
	}

	clientFinalWithoutProof := codec.ClientFinalWithoutProof(cf.ChannelBinding, cf.Nonce)
	authMessage := srv.clientFirstBar + "," + srv.serverFirst + "," + clientFinalWithoutProof

	clientSignature := hmacBytes(adapter, srv.p.Hash, srv.storedKey, []byte(authMessage))
	recoveredClientKey := xorBytes(cf.Proof, clientSignature)
	computedStoredKey := hashBytes(adapter, srv.p.Hash, recoveredClientKey)
	ok := adapter.ConstantTimeEqual(computedStoredKey, srv.storedKey)

	result, err := srv.s.Validate(sasl.ValidateSimple)
	if err != nil {
		return nil, sasl.StateFinished, err
	}
	if result == nil {
		result = &sasl.Validation{Kind: sasl.ValidateSimple, Ok: ok, AuthzID: srv.authzid}
	}
	srv.validation = result

	if !ok {
		return nil, sasl.StateFinished, sasl.ErrAuthenticationError
	}

	serverSignature := hmacBytes(adapter, srv.p.Hash, srv.serverKey, []byte(authMessage))
	out := &codec.ScramServerFinal{Verifier: serverSignature}
	return []byte(out.String()), sasl.StateFinished, nil
}

func (srv *server) Validation() *sasl.Validation { return srv.validation }
