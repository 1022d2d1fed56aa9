// Package scramsha256 registers SCRAM-SHA-256 (RFC 7677) with the sasl
// mechanism registry. It is a thin shim over [sasl/mech/scram]'s shared
// engine.
package scramsha256

import (
	"github.com/sasl-go/sasl"
	"github.com/sasl-go/sasl/mech/scram"
	"github.com/sasl-go/sasl/saslcrypto"
)

func init() {
	scram.Register(scram.Params{
		Name:    sasl.SCRAM_SHA_256,
		Hash:    saslcrypto.HashSHA256,
		HashLen: 32,
		Plus:    false,
	})
}
