// Package scramsha1 registers SCRAM-SHA-1 (RFC 5802) with the sasl
// mechanism registry. It is a thin shim over [sasl/mech/scram]'s shared
// engine.
package scramsha1

import (
	"github.com/sasl-go/sasl"
	"github.com/sasl-go/sasl/mech/scram"
	"github.com/sasl-go/sasl/saslcrypto"
)

func init() {
	scram.Register(scram.Params{
		Name:    sasl.SCRAM_SHA_1,
		Hash:    saslcrypto.HashSHA1,
		HashLen: 20,
		Plus:    false,
	})
}
