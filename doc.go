// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

/*
Package sasl provides a pluggable, protocol-agnostic implementation of the
Simple Authentication and Security Layer (SASL, RFC 4422).

SASL brokers a stepwise exchange of opaque authentication tokens between two
peers: an application acting as either the initiator ("client") or the
acceptor ("server"), and a selected authentication mechanism. It is the
abstraction used by SMTP, IMAP, XMPP, LDAP, AMQP, IRC and similar
text-framed application protocols to negotiate authentication.

# Scope

This package implements the mechanism-agnostic runtime: mechanism naming
and selection, the property/callback dispatch model mechanisms use to
request authentication data from the embedding application, the token
codec layer (base64 framing, GS2 headers, DIGEST-MD5 directives, SCRAM
tokens, SASLprep), and the session state machine that ties them together.

It does not open sockets or read bytes off the wire; it only transforms
token buffers the caller already has in hand. Transport, logging, and
credential storage are the embedding application's responsibility.

# Usage

A server application builds a [Config] with a [Callback] and the set of
mechanisms it wants to offer, then creates one [Session] per incoming
authentication attempt:

	cfg, err := sasl.NewConfigBuilder().
		WithDefaults().
		WithCallback(myCallback).
		Build()

	sess, err := sasl.NewServerSession(cfg, sasl.PLAIN)
	for {
		out, state, err := sess.Step(in)
		...
		if state == sasl.StateFinished {
			v := sess.Validation()
			break
		}
	}

A client application does the mirror image, using [Config.SuggestMechanism]
to pick a mechanism from the server's advertised list and
[NewClientSession] to start it.

# Mechanisms

Concrete mechanisms live in sub-packages under sasl/mech and register
themselves with this package's registry from their init() function, in
the same way a GSSAPI mechanism implementation registers itself with a
generic GSS-API front end:

	import _ "github.com/sasl-go/sasl/mech/scram/scramsha256"

See [Register] and [Descriptor].
*/
package sasl
