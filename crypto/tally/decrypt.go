// Package tally recovers the per-candidate counts of a closed proposal from
// its homomorphic aggregate and the tally authority private key.
package tally

import (
	"math/big"

	"github.com/vocdoni/sealed-tally/crypto/ecc"
)

// Decrypt returns M = C - sk*R. For a slot C = M + x*Pub with Pub = sk*G the
// ephemeral point is R = x*G.
func Decrypt(c, r ecc.Point, sk *big.Int) (ecc.Point, error) {
	if err := ecc.CheckScalar(sk, c.Order()); err != nil {
		return nil, err
	}
	skR := r.New()
	skR.ScalarMult(r, sk)
	return ecc.Sub(c, skR), nil
}
