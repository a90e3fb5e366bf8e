package ballotbox

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vocdoni/sealed-tally/crypto/ballot"
	"github.com/vocdoni/sealed-tally/crypto/ecc"
	"github.com/vocdoni/sealed-tally/crypto/ecc/curves"
	"github.com/vocdoni/sealed-tally/crypto/merkle"
	"github.com/vocdoni/sealed-tally/log"
	"github.com/vocdoni/sealed-tally/storage"
	"github.com/vocdoni/sealed-tally/types"
)

// SubmitVote verifies a vote and folds it into the proposal aggregates. The
// voter is the address that signed the vote, which must be proved eligible
// and must not have voted before.
func (bb *BallotBox) SubmitVote(v *types.Vote) (*types.Receipt, error) {
	if v == nil {
		return nil, ErrInvalidBallot
	}
	p, err := bb.Proposal(v.ProposalID)
	if err != nil {
		return nil, err
	}
	if p.Status(bb.now()) != types.ProposalOpen {
		return nil, ErrProposalNotOpen
	}
	if len(v.Ciphertexts) != p.Candidates {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrCandidateCountMismatch, p.Candidates, len(v.Ciphertexts))
	}
	voter, err := VoteSigner(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	if err := bb.verifyEligibility(p, voter, v.EligibilityProof); err != nil {
		return nil, err
	}
	if bb.hasVoted(p.ID, voter) {
		return nil, ErrAlreadyVoted
	}

	pub, err := curves.Decode(p.CurveType, p.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	b, err := ballot.FromVote(v, p.CurveType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBallot, err)
	}
	if err := b.Verify(p.Challenge.MathBigInt(), pub); err != nil {
		log.Debugw("ballot rejected", "proposal", p.ID.Hex(), "voter", voter.Hex(), "reason", err.Error())
		return nil, err
	}

	receipt, err := bb.fold(p, voter, b)
	if err != nil {
		return nil, err
	}
	log.Debugw("vote accepted", "proposal", p.ID.Hex(), "voter", voter.Hex(), "version", receipt.Version)
	return receipt, nil
}

func (bb *BallotBox) verifyEligibility(p *types.Proposal, voter common.Address, proofBytes []types.HexBytes) error {
	proof, err := merkle.ProofFromBytes(hexList(proofBytes))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEligibilityProof, err)
	}
	hasher, err := merkle.NewHasher(p.TreeHasher)
	if err != nil {
		return err
	}
	root, err := merkle.NodeFromBytes(p.EligibilityRoot)
	if err != nil {
		return err
	}
	if !merkle.Verify(hasher, voter, proof, root) {
		return ErrInvalidEligibilityProof
	}
	return nil
}

func (bb *BallotBox) hasVoted(id types.HexBytes, voter common.Address) bool {
	_, err := bb.stg.Receipt(id, voter)
	return err == nil
}

// fold adds the ballot to the current aggregate and stores the new version
// with the voter receipt.
func (bb *BallotBox) fold(p *types.Proposal, voter common.Address, b *ballot.Ballot) (*types.Receipt, error) {
	bb.foldLock.Lock()
	defer bb.foldLock.Unlock()

	// the receipt may have been written while verifying
	if _, err := bb.stg.Receipt(p.ID, voter); err == nil {
		return nil, ErrAlreadyVoted
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	agg, err := bb.stg.Aggregate(p.ID)
	if err != nil {
		return nil, fmt.Errorf("read aggregate: %w", err)
	}
	snap, err := decodeAggregate(agg, p.CurveType)
	if err != nil {
		return nil, err
	}
	cts := make([]ecc.Point, len(b.Slots))
	xs := make([]*big.Int, len(b.Slots))
	for i, s := range b.Slots {
		cts[i], xs[i] = s.Ciphertext, s.Randomness
	}
	if err := snap.Add(cts, xs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCandidateCountMismatch, err)
	}
	receipt := &types.Receipt{
		ProposalID: p.ID,
		Voter:      voter,
		Version:    snap.Version,
		Time:       bb.now(),
	}
	if err := bb.stg.CommitVote(snap.Aggregate(p.ID), receipt); err != nil {
		return nil, fmt.Errorf("commit vote: %w", err)
	}
	return receipt, nil
}
