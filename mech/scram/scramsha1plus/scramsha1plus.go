// Package scramsha1plus registers SCRAM-SHA-1-PLUS (RFC 5802), the
// channel-binding variant of SCRAM-SHA-1. It is a thin shim over
// [sasl/mech/scram]'s shared engine.
package scramsha1plus

import (
	"github.com/sasl-go/sasl"
	"github.com/sasl-go/sasl/mech/scram"
	"github.com/sasl-go/sasl/saslcrypto"
)

func init() {
	scram.Register(scram.Params{
		Name:    sasl.SCRAM_SHA_1_PLUS,
		Hash:    saslcrypto.HashSHA1,
		HashLen: 20,
		Plus:    true,
	})
}
