package ballotbox

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vocdoni/sealed-tally/crypto/ballot"
	"github.com/vocdoni/sealed-tally/crypto/ecc/curves"
	"github.com/vocdoni/sealed-tally/crypto/ethereum"
	"github.com/vocdoni/sealed-tally/crypto/merkle"
	"github.com/vocdoni/sealed-tally/types"
)

// VoteMessage returns the 32 byte digest a voter signs to submit a vote. It
// covers the proposal id, the ciphertexts, the randomness and the binding
// proofs, but not the eligibility proof.
func VoteMessage(v *types.Vote) []byte {
	var buf []byte
	appendField := func(b []byte) {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(b)))
		buf = append(buf, b...)
	}
	appendField(v.ProposalID)
	for _, c := range v.Ciphertexts {
		appendField(c)
	}
	for _, x := range v.Randomness {
		appendField(x.Bytes())
	}
	for _, t := range v.Commitments {
		appendField(t)
	}
	for _, r := range v.Responses {
		appendField(r.Bytes())
	}
	return ethereum.HashRaw(buf)
}

// SignVote signs the vote message with the voter key and sets the signature.
func SignVote(v *types.Vote, keys *ethereum.SignKeys) error {
	signature, err := keys.SignEthereum(VoteMessage(v))
	if err != nil {
		return err
	}
	v.Signature = signature
	return nil
}

// VoteSigner recovers the address that signed the vote.
func VoteSigner(v *types.Vote) (common.Address, error) {
	return ethereum.AddrFromSignature(VoteMessage(v), v.Signature)
}

// NewVote encodes a choice for the proposal, attaches the eligibility proof
// and signs the result with the voter key.
func NewVote(p *types.Proposal, choice int, proof merkle.Proof, keys *ethereum.SignKeys) (*types.Vote, error) {
	pub, err := curves.Decode(p.CurveType, p.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	b, err := ballot.New(choice, p.Candidates, pub, p.Challenge.MathBigInt())
	if err != nil {
		return nil, err
	}
	v := b.Vote(p.ID)
	for _, n := range proof {
		v.EligibilityProof = append(v.EligibilityProof, n.Bytes())
	}
	if err := SignVote(v, keys); err != nil {
		return nil, err
	}
	return v, nil
}
