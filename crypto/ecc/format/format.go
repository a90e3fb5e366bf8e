// Package format converts BabyJubJub coordinates between the twisted Edwards
// form used by iden3 and circom (a = 168700) and the reduced twisted Edwards
// form used by gnark-crypto (a = -1). Only the x coordinate changes.
package format

import "math/big"

var (
	// bn254ScalarField is the base field of BabyJubJub.
	bn254ScalarField, _ = new(big.Int).SetString("21888242871839275222246405745257275088548364400416034343698204186575808495617", 10)
	// scalingFactor is the square root of -168700 mod p that maps the iden3
	// base point onto the gnark-crypto base point. The other root negates x.
	scalingFactor, _ = new(big.Int).SetString("15527681003928902128179717624703512672403908117992798440346960750464748824729", 10)
	scalingFactorInv = new(big.Int).ModInverse(scalingFactor, bn254ScalarField)
)

// FromTEtoRTE converts a twisted Edwards point into its reduced twisted
// Edwards form: x' = x * f mod p.
func FromTEtoRTE(x, y *big.Int) (*big.Int, *big.Int) {
	xRTE := new(big.Int).Mul(x, scalingFactor)
	xRTE.Mod(xRTE, bn254ScalarField)
	return xRTE, new(big.Int).Set(y)
}

// FromRTEtoTE converts a reduced twisted Edwards point back into the twisted
// Edwards form: x = x' / f mod p.
func FromRTEtoTE(x, y *big.Int) (*big.Int, *big.Int) {
	xTE := new(big.Int).Mul(x, scalingFactorInv)
	xTE.Mod(xTE, bn254ScalarField)
	return xTE, new(big.Int).Set(y)
}
