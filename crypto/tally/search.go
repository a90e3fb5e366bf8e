package tally

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/vocdoni/sealed-tally/crypto/ecc"
)

// ErrUnresolvedTally is returned when no count in the search range matches
// the decrypted point, which means a corrupted aggregate or a wrong key.
var ErrUnresolvedTally = errors.New("unresolved tally")

// SearchFunc solves M = x*G for x in [0, max].
type SearchFunc func(m, g ecc.Point, max uint64) (uint64, error)

// BabyStepGiantStep solves M = x*G for x in [0, max] using the baby-step
// giant-step algorithm, in O(sqrt(max)) time and memory.
func BabyStepGiantStep(m, g ecc.Point, max uint64) (uint64, error) {
	if m.IsZero() {
		return 0, nil
	}
	mSqrt := uint64(math.Sqrt(float64(max))) + 1

	// baby steps: j*G for j in [0, mSqrt)
	babySteps := make(map[string]uint64, mSqrt)
	babyStep := m.New()
	for j := uint64(0); j < mSqrt; j++ {
		babySteps[string(babyStep.Marshal())] = j
		babyStep.Add(babyStep, g)
	}

	// giant step: -mSqrt*G
	c := m.New()
	c.ScalarMult(g, new(big.Int).SetUint64(mSqrt))
	c.Neg(c)

	giantStep := ecc.Clone(m)
	for i := uint64(0); i <= mSqrt; i++ {
		if j, found := babySteps[string(giantStep.Marshal())]; found {
			if x := i*mSqrt + j; x <= max {
				return x, nil
			}
			break
		}
		giantStep.Add(giantStep, c)
	}
	return 0, fmt.Errorf("%w: no discrete log in [0, %d]", ErrUnresolvedTally, max)
}

// LinearSearch solves M = x*G by trying every x in [0, max] in order.
func LinearSearch(m, g ecc.Point, max uint64) (uint64, error) {
	acc := m.New()
	for x := uint64(0); x <= max; x++ {
		if acc.Equal(m) {
			return x, nil
		}
		acc.Add(acc, g)
		if x == math.MaxUint64 {
			break
		}
	}
	return 0, fmt.Errorf("%w: no discrete log in [0, %d]", ErrUnresolvedTally, max)
}
