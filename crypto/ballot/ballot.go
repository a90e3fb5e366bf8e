// Package ballot encodes a single choice as a vector of additively
// homomorphic ciphertexts, one per candidate, and binds each ciphertext to
// its declared randomness with a proof under the proposal challenge.
//
// Each slot is C = M + x*Pub with M = G for the chosen candidate and M = O
// otherwise. The randomness x is published next to the ciphertext, so the
// content of a slot is only hidden from parties that do not know Pub.
package ballot

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/vocdoni/sealed-tally/crypto/ecc"
)

var (
	// ErrInvalidSum is returned when the declared randomness does not open
	// the ciphertexts to exactly one selected candidate.
	ErrInvalidSum = errors.New("sum not valid")
	// ErrInvalidBindingProof is returned when a binding proof does not match
	// the ciphertext randomness and the proposal challenge.
	ErrInvalidBindingProof = errors.New("votes not valid")
	// ErrInvalidChoice is returned when encoding a choice outside the
	// candidate range.
	ErrInvalidChoice = errors.New("invalid choice")
	// ErrInvalidPublicKey is returned when encrypting to the identity.
	ErrInvalidPublicKey = errors.New("invalid encryption public key")
)

// Slot is the contribution of a ballot to one candidate.
type Slot struct {
	Ciphertext ecc.Point
	Randomness *big.Int
}

// Encode encodes choice among candidates with fresh randomness for each
// slot. It returns the slots and the randomness used.
func Encode(choice, candidates int, pub ecc.Point) ([]Slot, []*big.Int, error) {
	if candidates < 1 {
		return nil, nil, fmt.Errorf("%w: no candidates", ErrInvalidChoice)
	}
	randomness := make([]*big.Int, candidates)
	for i := range randomness {
		x, err := ecc.RandomScalar(pub.Order())
		if err != nil {
			return nil, nil, err
		}
		randomness[i] = x
	}
	slots, err := EncodeWithRandomness(choice, randomness, pub)
	if err != nil {
		return nil, nil, err
	}
	return slots, randomness, nil
}

// EncodeWithRandomness is the deterministic version of Encode, one slot per
// randomness scalar.
func EncodeWithRandomness(choice int, randomness []*big.Int, pub ecc.Point) ([]Slot, error) {
	if choice < 0 || choice >= len(randomness) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidChoice, choice, len(randomness))
	}
	if pub.IsZero() {
		return nil, ErrInvalidPublicKey
	}
	slots := make([]Slot, len(randomness))
	for i, x := range randomness {
		if err := ecc.CheckScalar(x, pub.Order()); err != nil {
			return nil, err
		}
		m := pub.New()
		if i == choice {
			m.SetGenerator()
		}
		slots[i] = Slot{
			Ciphertext: EncryptPoint(m, x, pub),
			Randomness: new(big.Int).Set(x),
		}
	}
	return slots, nil
}

// EncryptPoint returns m + x*pub.
func EncryptPoint(m ecc.Point, x *big.Int, pub ecc.Point) ecc.Point {
	blind := pub.New()
	blind.ScalarMult(pub, x)
	c := pub.New()
	c.Add(m, blind)
	return c
}

// VerifySum checks that the declared randomness opens every slot to either
// the identity or the generator, and that exactly one slot opens to the
// generator. The error never tells which slot failed.
func VerifySum(slots []Slot, pub ecc.Point) error {
	if len(slots) == 0 || pub.IsZero() {
		return ErrInvalidSum
	}
	g := ecc.Generator(pub)
	sumC := pub.New()
	sumX := new(big.Int)
	for _, s := range slots {
		if s.Ciphertext == nil || ecc.CheckScalar(s.Randomness, pub.Order()) != nil {
			return ErrInvalidSum
		}
		m := openSlot(s, pub)
		if !m.IsZero() && !m.Equal(g) {
			return ErrInvalidSum
		}
		sumC.Add(sumC, s.Ciphertext)
		sumX.Add(sumX, s.Randomness)
	}
	sumX.Mod(sumX, pub.Order())
	// sum(C_i) - sum(x_i)*Pub must be exactly one G
	if !ecc.Sub(sumC, blinding(sumX, pub)).Equal(g) {
		return ErrInvalidSum
	}
	return nil
}

// openSlot returns C - x*Pub, which needs no secret since x is public.
func openSlot(s Slot, pub ecc.Point) ecc.Point {
	return ecc.Sub(s.Ciphertext, blinding(s.Randomness, pub))
}

func blinding(x *big.Int, pub ecc.Point) ecc.Point {
	b := pub.New()
	b.ScalarMult(pub, x)
	return b
}
