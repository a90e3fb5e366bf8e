package ballot

import (
	"fmt"

	"github.com/vocdoni/sealed-tally/crypto/ecc/curves"
	"github.com/vocdoni/sealed-tally/types"
)

// Vote returns the wire form of the ballot for the given proposal, without
// eligibility proof nor signature.
func (b *Ballot) Vote(proposalID types.HexBytes) *types.Vote {
	v := &types.Vote{
		ProposalID:  proposalID,
		Ciphertexts: make([]types.HexBytes, len(b.Slots)),
		Randomness:  make([]*types.BigInt, len(b.Slots)),
		Commitments: make([]types.HexBytes, len(b.Proofs)),
		Responses:   make([]*types.BigInt, len(b.Proofs)),
	}
	for i, s := range b.Slots {
		v.Ciphertexts[i] = s.Ciphertext.Marshal()
		v.Randomness[i] = types.NewBigInt(s.Randomness)
	}
	for i, p := range b.Proofs {
		v.Commitments[i] = p.Commitment.Marshal()
		v.Responses[i] = types.NewBigInt(p.Response)
	}
	return v
}

// FromVote decodes the ballot of a wire vote. Points that are not valid
// elements of the curve are rejected before any arithmetic.
func FromVote(v *types.Vote, curveType string) (*Ballot, error) {
	n := len(v.Ciphertexts)
	if len(v.Randomness) != n || len(v.Commitments) != n || len(v.Responses) != n {
		return nil, fmt.Errorf("inconsistent vote lengths: %d ciphertexts, %d randomness, %d commitments, %d responses",
			n, len(v.Randomness), len(v.Commitments), len(v.Responses))
	}
	b := &Ballot{Slots: make([]Slot, n), Proofs: make([]*BindingProof, n)}
	for i := 0; i < n; i++ {
		ct, err := curves.Decode(curveType, v.Ciphertexts[i])
		if err != nil {
			return nil, err
		}
		t, err := curves.Decode(curveType, v.Commitments[i])
		if err != nil {
			return nil, err
		}
		b.Slots[i] = Slot{Ciphertext: ct, Randomness: v.Randomness[i].MathBigInt()}
		b.Proofs[i] = &BindingProof{Commitment: t, Response: v.Responses[i].MathBigInt()}
	}
	return b, nil
}
