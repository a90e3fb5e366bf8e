package storage

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/vocdoni/sealed-tally/types"
)

// Proposal retrieves a proposal. It returns ErrNotFound if it does not exist.
func (s *Storage) Proposal(id types.HexBytes) (*types.Proposal, error) {
	p := &types.Proposal{}
	if err := s.getArtifact(proposalPrefix, id, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListProposals returns the identifiers of the stored proposals.
func (s *Storage) ListProposals() ([]types.HexBytes, error) {
	keys, err := s.listArtifacts(proposalPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]types.HexBytes, len(keys))
	for i, k := range keys {
		ids[i] = k
	}
	return ids, nil
}

// CreateProposal stores a new proposal together with its initial aggregate
// in a single transaction. It returns ErrAlreadyExists if the proposal id is
// taken.
func (s *Storage) CreateProposal(p *types.Proposal, agg *types.Aggregate) error {
	if p == nil || agg == nil {
		return fmt.Errorf("nil proposal or aggregate")
	}
	pData, err := encodeArtifact(p)
	if err != nil {
		return fmt.Errorf("encode proposal: %w", err)
	}
	aData, err := encodeArtifact(agg)
	if err != nil {
		return fmt.Errorf("encode aggregate: %w", err)
	}

	s.globalLock.Lock()
	defer s.globalLock.Unlock()
	if _, err := s.Proposal(p.ID); err == nil {
		return ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	tx := s.db.WriteTx()
	defer tx.Discard()
	if err := prefixeddb.NewPrefixedWriteTx(tx, proposalPrefix).Set(p.ID, pData); err != nil {
		return err
	}
	if err := prefixeddb.NewPrefixedWriteTx(tx, aggregatePrefix).Set(p.ID, aData); err != nil {
		return err
	}
	return tx.Commit()
}

// Aggregate retrieves the latest aggregate of a proposal.
func (s *Storage) Aggregate(id types.HexBytes) (*types.Aggregate, error) {
	agg := &types.Aggregate{}
	if err := s.getArtifact(aggregatePrefix, id, agg); err != nil {
		return nil, err
	}
	return agg, nil
}

// Receipt retrieves the receipt of a voter, or ErrNotFound if the voter has
// not voted on the proposal.
func (s *Storage) Receipt(id types.HexBytes, voter common.Address) (*types.Receipt, error) {
	r := &types.Receipt{}
	if err := s.getArtifact(receiptPrefix, receiptKey(id, voter), r); err != nil {
		return nil, err
	}
	return r, nil
}

// CommitVote stores the new aggregate and the voter receipt in a single
// transaction. The aggregate version must be the stored version plus one.
func (s *Storage) CommitVote(agg *types.Aggregate, receipt *types.Receipt) error {
	aData, err := encodeArtifact(agg)
	if err != nil {
		return fmt.Errorf("encode aggregate: %w", err)
	}
	rData, err := encodeArtifact(receipt)
	if err != nil {
		return fmt.Errorf("encode receipt: %w", err)
	}

	s.globalLock.Lock()
	defer s.globalLock.Unlock()
	current, err := s.Aggregate(agg.ProposalID)
	if err != nil {
		return fmt.Errorf("read aggregate: %w", err)
	}
	if current.Version+1 != agg.Version {
		return fmt.Errorf("aggregate version mismatch: stored %d, new %d", current.Version, agg.Version)
	}

	tx := s.db.WriteTx()
	defer tx.Discard()
	if err := prefixeddb.NewPrefixedWriteTx(tx, aggregatePrefix).Set(agg.ProposalID, aData); err != nil {
		return err
	}
	if err := prefixeddb.NewPrefixedWriteTx(tx, receiptPrefix).Set(
		receiptKey(receipt.ProposalID, receipt.Voter), rData); err != nil {
		return err
	}
	return tx.Commit()
}

func receiptKey(id types.HexBytes, voter common.Address) []byte {
	key := make([]byte, 0, len(id)+common.AddressLength)
	key = append(key, id...)
	return append(key, voter.Bytes()...)
}

// SetTallyResult stores the resolved counts of a proposal.
func (s *Storage) SetTallyResult(result *types.TallyResult) error {
	return s.setArtifact(tallyPrefix, result.ProposalID, result)
}

// TallyResult retrieves the stored counts of a proposal.
func (s *Storage) TallyResult(id types.HexBytes) (*types.TallyResult, error) {
	r := &types.TallyResult{}
	if err := s.getArtifact(tallyPrefix, id, r); err != nil {
		return nil, err
	}
	return r, nil
}
