// Package ballotbox is the in-process ledger of the confidential tally. It
// registers proposals, verifies submitted ballots and folds them into the
// per-candidate aggregates, atomically and in acceptance order.
package ballotbox

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vocdoni/sealed-tally/crypto/ballot"
	"github.com/vocdoni/sealed-tally/crypto/ecc"
	"github.com/vocdoni/sealed-tally/crypto/ecc/curves"
	"github.com/vocdoni/sealed-tally/crypto/merkle"
	"github.com/vocdoni/sealed-tally/crypto/tally"
	"github.com/vocdoni/sealed-tally/log"
	"github.com/vocdoni/sealed-tally/storage"
	"github.com/vocdoni/sealed-tally/types"
)

// BallotBox holds the proposals and their aggregates.
type BallotBox struct {
	stg      *storage.Storage
	keys     *tally.Keyring
	resolver *tally.Resolver
	now      func() time.Time

	// foldLock serializes the read-modify-write of the aggregates
	foldLock sync.Mutex
	trees    sync.Map // hex(proposal id) -> *merkle.Tree
}

// New returns a ballot box backed by the storage. The keyring provides the
// encryption key of every curve a proposal can use, and the private part
// for the tally.
func New(stg *storage.Storage, keys *tally.Keyring, maxVotes uint64) *BallotBox {
	if maxVotes == 0 {
		maxVotes = types.DefaultMaxVotes
	}
	maxVotes = min(maxVotes, types.MaxVotesLimit)
	return &BallotBox{
		stg:      stg,
		keys:     keys,
		resolver: tally.NewResolver(maxVotes),
		now:      time.Now,
	}
}

// SetClock replaces the time source used to derive the proposal status.
func (bb *BallotBox) SetClock(now func() time.Time) {
	bb.now = now
}

// Storage returns the storage backing the ballot box.
func (bb *BallotBox) Storage() *storage.Storage {
	return bb.stg
}

// Now returns the current time of the ballot box clock.
func (bb *BallotBox) Now() time.Time {
	return bb.now()
}

// CreateProposal registers a new proposal. The eligibility tree is built
// from the voter list and every candidate aggregate starts as a blinded
// encryption of zero.
func (bb *BallotBox) CreateProposal(setup *types.ProposalSetup) (*types.Proposal, error) {
	if setup == nil {
		return nil, ErrInvalidProposal
	}
	if setup.Candidates < 1 || setup.Candidates > types.MaxCandidates {
		return nil, fmt.Errorf("%w: %d candidates, must be in [1, %d]",
			ErrInvalidProposal, setup.Candidates, types.MaxCandidates)
	}
	if !setup.EndTime.After(setup.StartTime) {
		return nil, fmt.Errorf("%w: end time must be after start time", ErrInvalidProposal)
	}
	curveType := setup.CurveType
	if curveType == "" {
		curveType = curves.CurveTypeSecp256k1
	}
	if !curves.IsValid(curveType) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProposal, curves.ErrUnsupportedCurve)
	}
	key, ok := bb.keys.Key(curveType)
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrNoEncryptionKey, curveType)
	}
	hasher, err := merkle.NewHasher(setup.TreeHasher)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProposal, err)
	}
	tree, err := merkle.New(setup.Voters, hasher)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProposal, err)
	}

	pid := (&types.ProposalID{
		Organizer: setup.Organizer,
		Nonce:     setup.Nonce,
		ChainID:   setup.ChainID,
	}).Marshal()
	root := tree.Root().Bytes()
	challenge := ballot.DeriveChallenge(pid, root, setup.Candidates, key.Public.Order())

	snap := tally.NewSnapshot(key.Public, setup.Candidates)
	for i := range snap.Ciphertexts {
		x, err := ecc.RandomScalar(key.Public.Order())
		if err != nil {
			return nil, err
		}
		snap.Ciphertexts[i] = ballot.EncryptPoint(key.Public.New(), x, key.Public)
		snap.Randomness[i] = x
	}

	p := &types.Proposal{
		ID:              pid,
		Organizer:       setup.Organizer,
		Candidates:      setup.Candidates,
		EligibilityRoot: root,
		TreeHasher:      hasher.Name(),
		Challenge:       types.NewBigInt(challenge),
		CurveType:       curveType,
		EncryptionKey:   key.Public.Marshal(),
		StartTime:       setup.StartTime,
		EndTime:         setup.EndTime,
		MetadataCID:     setup.MetadataCID,
		Voters:          tree.Leaves(),
	}
	if err := bb.stg.CreateProposal(p, snap.Aggregate(pid)); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, ErrProposalExists
		}
		return nil, fmt.Errorf("store proposal: %w", err)
	}
	bb.trees.Store(p.ID.Hex(), tree)
	log.Infow("proposal created",
		"id", p.ID.Hex(),
		"candidates", p.Candidates,
		"voters", tree.Len(),
		"curve", curveType,
		"start", p.StartTime,
		"end", p.EndTime)
	return p, nil
}

// Proposal returns a registered proposal.
func (bb *BallotBox) Proposal(id types.HexBytes) (*types.Proposal, error) {
	p, err := bb.stg.Proposal(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUnknownProposal
		}
		return nil, err
	}
	return p, nil
}

// Proposals returns the identifiers of every registered proposal.
func (bb *BallotBox) Proposals() ([]types.HexBytes, error) {
	return bb.stg.ListProposals()
}

// Aggregate returns the current wire aggregate of a proposal.
func (bb *BallotBox) Aggregate(id types.HexBytes) (*types.Aggregate, error) {
	agg, err := bb.stg.Aggregate(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUnknownProposal
		}
		return nil, err
	}
	return agg, nil
}

// Snapshot returns the decoded aggregate of a proposal. Further votes do
// not modify the returned snapshot.
func (bb *BallotBox) Snapshot(id types.HexBytes) (*tally.Snapshot, error) {
	p, err := bb.Proposal(id)
	if err != nil {
		return nil, err
	}
	agg, err := bb.Aggregate(id)
	if err != nil {
		return nil, err
	}
	return decodeAggregate(agg, p.CurveType)
}

func decodeAggregate(agg *types.Aggregate, curveType string) (*tally.Snapshot, error) {
	cts, err := curves.DecodeList(curveType, hexList(agg.Ciphertexts))
	if err != nil {
		return nil, fmt.Errorf("decode aggregate: %w", err)
	}
	if len(agg.Randomness) != len(cts) {
		return nil, fmt.Errorf("aggregate has %d ciphertexts and %d randomness", len(cts), len(agg.Randomness))
	}
	return &tally.Snapshot{
		Version:     agg.Version,
		Ciphertexts: cts,
		Randomness:  types.MathBigIntSlice(agg.Randomness),
	}, nil
}

// Tree returns the eligibility tree of a proposal, rebuilt from its voter
// list when it is not cached.
func (bb *BallotBox) Tree(p *types.Proposal) (*merkle.Tree, error) {
	if t, ok := bb.trees.Load(p.ID.Hex()); ok {
		return t.(*merkle.Tree), nil
	}
	hasher, err := merkle.NewHasher(p.TreeHasher)
	if err != nil {
		return nil, err
	}
	tree, err := merkle.New(p.Voters, hasher)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(tree.Root().Bytes(), p.EligibilityRoot) {
		return nil, fmt.Errorf("voter list does not match the eligibility root of %x", p.ID)
	}
	bb.trees.Store(p.ID.Hex(), tree)
	return tree, nil
}

// EligibilityProof returns the proof that the voter is in the eligibility
// tree of the proposal.
func (bb *BallotBox) EligibilityProof(id types.HexBytes, voter common.Address) (merkle.Proof, error) {
	p, err := bb.Proposal(id)
	if err != nil {
		return nil, err
	}
	tree, err := bb.Tree(p)
	if err != nil {
		return nil, err
	}
	return tree.Prove(voter)
}

// Receipt returns the receipt of a voter on a proposal.
func (bb *BallotBox) Receipt(id types.HexBytes, voter common.Address) (*types.Receipt, error) {
	return bb.stg.Receipt(id, voter)
}

// Tally resolves the counts of a closed proposal with the private key of
// its curve. The result is stored and reused while the aggregate version
// does not change.
func (bb *BallotBox) Tally(id types.HexBytes) (*types.TallyResult, error) {
	p, err := bb.Proposal(id)
	if err != nil {
		return nil, err
	}
	if p.Status(bb.now()) != types.ProposalClosed {
		return nil, ErrProposalNotClosed
	}
	snap, err := bb.Snapshot(id)
	if err != nil {
		return nil, err
	}
	if cached, err := bb.stg.TallyResult(p.ID); err == nil && cached.Version == snap.Version {
		return cached, nil
	}
	key, ok := bb.keys.Key(p.CurveType)
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrNoEncryptionKey, p.CurveType)
	}
	start := time.Now()
	results, err := bb.resolver.Resolve(snap, key.Private)
	if err != nil {
		return nil, err
	}
	log.Infow("proposal tallied",
		"id", p.ID.Hex(),
		"version", snap.Version,
		"took", time.Since(start).String())
	result := &types.TallyResult{ProposalID: p.ID, Version: snap.Version, Results: results}
	if err := bb.stg.SetTallyResult(result); err != nil {
		log.Warnw("could not store tally result", "id", p.ID.Hex(), "error", err)
	}
	return result, nil
}

func hexList(list []types.HexBytes) [][]byte {
	out := make([][]byte, len(list))
	for i, b := range list {
		out[i] = b
	}
	return out
}
