package ecc

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// BigToFF function returns the finite field representation of the big.Int
// provided. It uses the curve scalar field to represent the provided number.
func BigToFF(baseField, iv *big.Int) *big.Int {
	z := big.NewInt(0)
	if c := iv.Cmp(baseField); c == 0 {
		return z
	} else if c != 1 && iv.Cmp(z) != -1 {
		return iv
	}
	return z.Mod(iv, baseField)
}

// RandomScalar returns a uniformly distributed scalar in [1, order).
func RandomScalar(order *big.Int) (*big.Int, error) {
	if order.Cmp(big.NewInt(2)) < 0 {
		return nil, fmt.Errorf("invalid group order %s", order)
	}
	max := new(big.Int).Sub(order, big.NewInt(1))
	k, err := rand.Int(rand.Reader, max)
	if err != nil {
		return nil, fmt.Errorf("cannot read randomness: %w", err)
	}
	return k.Add(k, big.NewInt(1)), nil
}

// CheckScalar returns ErrOutOfRangeScalar if s is nil or outside [0, order).
func CheckScalar(s, order *big.Int) error {
	if s == nil || s.Sign() < 0 || s.Cmp(order) >= 0 {
		return ErrOutOfRangeScalar
	}
	return nil
}

// ScalarBytes returns the big-endian encoding of s padded to size bytes.
func ScalarBytes(s *big.Int, size int) []byte {
	return s.FillBytes(make([]byte, size))
}
