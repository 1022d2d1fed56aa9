// Package scramsha256plus registers SCRAM-SHA-256-PLUS (RFC 7677), the
// channel-binding variant of SCRAM-SHA-256. It is a thin shim over
// [sasl/mech/scram]'s shared engine.
package scramsha256plus

import (
	"github.com/sasl-go/sasl"
	"github.com/sasl-go/sasl/mech/scram"
	"github.com/sasl-go/sasl/saslcrypto"
)

func init() {
	scram.Register(scram.Params{
		Name:    sasl.SCRAM_SHA_256_PLUS,
		Hash:    saslcrypto.HashSHA256,
		HashLen: 32,
		Plus:    true,
	})
}
