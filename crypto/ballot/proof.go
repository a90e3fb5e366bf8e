package ballot

import (
	"fmt"
	"math/big"

	"github.com/vocdoni/sealed-tally/crypto/ecc"
)

// BindingProof ties the randomness x of a slot to the proposal challenge c:
// T = v*Pub and r = v + c*x mod n for an ephemeral scalar v.
type BindingProof struct {
	Commitment ecc.Point
	Response   *big.Int
}

// Prove builds the binding proof of randomness x under challenge c.
func Prove(pub ecc.Point, x, c *big.Int) (*BindingProof, error) {
	v, err := ecc.RandomScalar(pub.Order())
	if err != nil {
		return nil, err
	}
	return ProveWithNonce(pub, x, c, v)
}

// ProveWithNonce is the deterministic version of Prove, using v as the
// ephemeral scalar.
func ProveWithNonce(pub ecc.Point, x, c, v *big.Int) (*BindingProof, error) {
	n := pub.Order()
	for _, s := range []*big.Int{x, c, v} {
		if err := ecc.CheckScalar(s, n); err != nil {
			return nil, err
		}
	}
	t := pub.New()
	t.ScalarMult(pub, v)
	r := new(big.Int).Mul(c, x)
	r.Add(r, v)
	r.Mod(r, n)
	return &BindingProof{Commitment: t, Response: r}, nil
}

// VerifyBinding checks r*Pub == T + c*(x*Pub) for the slot randomness x.
func VerifyBinding(slot Slot, proof *BindingProof, c *big.Int, pub ecc.Point) error {
	n := pub.Order()
	if proof == nil || proof.Commitment == nil {
		return ErrInvalidBindingProof
	}
	if ecc.CheckScalar(proof.Response, n) != nil ||
		ecc.CheckScalar(slot.Randomness, n) != nil ||
		ecc.CheckScalar(c, n) != nil {
		return ErrInvalidBindingProof
	}
	lhs := pub.New()
	lhs.ScalarMult(pub, proof.Response)

	cx := new(big.Int).Mul(c, slot.Randomness)
	cx.Mod(cx, n)
	rhs := pub.New()
	rhs.ScalarMult(pub, cx)
	rhs.Add(rhs, proof.Commitment)

	if !lhs.Equal(rhs) {
		return ErrInvalidBindingProof
	}
	return nil
}

// Ballot is a complete encrypted choice: one slot and one binding proof per
// candidate.
type Ballot struct {
	Slots  []Slot
	Proofs []*BindingProof
}

// New encodes choice among candidates and proves every slot under the
// challenge c.
func New(choice, candidates int, pub ecc.Point, c *big.Int) (*Ballot, error) {
	slots, _, err := Encode(choice, candidates, pub)
	if err != nil {
		return nil, err
	}
	b := &Ballot{Slots: slots, Proofs: make([]*BindingProof, len(slots))}
	for i, s := range slots {
		if b.Proofs[i], err = Prove(pub, s.Randomness, c); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Candidates returns the number of slots of the ballot.
func (b *Ballot) Candidates() int {
	return len(b.Slots)
}

// Verify runs the sum check and the binding proof of every slot.
func (b *Ballot) Verify(c *big.Int, pub ecc.Point) error {
	if len(b.Proofs) != len(b.Slots) {
		return fmt.Errorf("%w: %d proofs for %d slots", ErrInvalidBindingProof, len(b.Proofs), len(b.Slots))
	}
	if err := VerifySum(b.Slots, pub); err != nil {
		return err
	}
	for i, s := range b.Slots {
		if err := VerifyBinding(s, b.Proofs[i], c, pub); err != nil {
			return err
		}
	}
	return nil
}
