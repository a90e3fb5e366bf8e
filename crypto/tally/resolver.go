package tally

import (
	"fmt"
	"math/big"

	"golang.org/x/sync/errgroup"

	"github.com/vocdoni/sealed-tally/crypto/ecc"
	"github.com/vocdoni/sealed-tally/log"
	"github.com/vocdoni/sealed-tally/types"
)

// Snapshot is a versioned copy of the per-candidate aggregates of a
// proposal: the sum of the ciphertexts and the sum of the randomness of
// every accepted ballot.
type Snapshot struct {
	Version     uint64
	Ciphertexts []ecc.Point
	Randomness  []*big.Int
}

// NewSnapshot returns the empty aggregate of the given number of candidates.
func NewSnapshot(curve ecc.Point, candidates int) *Snapshot {
	s := &Snapshot{
		Ciphertexts: make([]ecc.Point, candidates),
		Randomness:  make([]*big.Int, candidates),
	}
	for i := range s.Ciphertexts {
		s.Ciphertexts[i] = curve.New()
		s.Randomness[i] = new(big.Int)
	}
	return s
}

// Candidates returns the number of candidates of the snapshot.
func (s *Snapshot) Candidates() int {
	return len(s.Ciphertexts)
}

// Add folds one ballot into the aggregate and increases the version. The
// randomness sums are kept reduced modulo the group order.
func (s *Snapshot) Add(ciphertexts []ecc.Point, randomness []*big.Int) error {
	if len(ciphertexts) != len(s.Ciphertexts) || len(randomness) != len(s.Randomness) {
		return fmt.Errorf("expected %d slots, got %d ciphertexts and %d randomness",
			len(s.Ciphertexts), len(ciphertexts), len(randomness))
	}
	for i := range s.Ciphertexts {
		s.Ciphertexts[i].Add(s.Ciphertexts[i], ciphertexts[i])
		r := new(big.Int).Add(s.Randomness[i], randomness[i])
		s.Randomness[i] = r.Mod(r, s.Ciphertexts[i].Order())
	}
	s.Version++
	return nil
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		Version:     s.Version,
		Ciphertexts: make([]ecc.Point, len(s.Ciphertexts)),
		Randomness:  make([]*big.Int, len(s.Randomness)),
	}
	for i := range s.Ciphertexts {
		c.Ciphertexts[i] = ecc.Clone(s.Ciphertexts[i])
	}
	for i := range s.Randomness {
		c.Randomness[i] = new(big.Int).Set(s.Randomness[i])
	}
	return c
}

// Aggregate returns the wire form of the snapshot.
func (s *Snapshot) Aggregate(proposalID types.HexBytes) *types.Aggregate {
	a := &types.Aggregate{
		ProposalID:  proposalID,
		Version:     s.Version,
		Ciphertexts: make([]types.HexBytes, len(s.Ciphertexts)),
		Randomness:  types.BigIntSlice(s.Randomness),
	}
	for i, c := range s.Ciphertexts {
		a.Ciphertexts[i] = c.Marshal()
	}
	return a
}

// Resolver recovers the counts of a snapshot.
type Resolver struct {
	// MaxVotes bounds the search of every candidate count.
	MaxVotes uint64
	// Search defaults to BabyStepGiantStep.
	Search SearchFunc
}

// NewResolver returns a resolver bounded by maxVotes.
func NewResolver(maxVotes uint64) *Resolver {
	return &Resolver{MaxVotes: maxVotes, Search: BabyStepGiantStep}
}

// Resolve decrypts every candidate aggregate with sk and recovers its count.
// Candidates are resolved in parallel; the first failure is returned.
func (r *Resolver) Resolve(snap *Snapshot, sk *big.Int) ([]uint64, error) {
	if len(snap.Ciphertexts) != len(snap.Randomness) {
		return nil, fmt.Errorf("snapshot has %d ciphertexts and %d randomness",
			len(snap.Ciphertexts), len(snap.Randomness))
	}
	search := r.Search
	if search == nil {
		search = BabyStepGiantStep
	}
	results := make([]uint64, len(snap.Ciphertexts))
	eg := errgroup.Group{}
	for i := range snap.Ciphertexts {
		eg.Go(func() error {
			c := snap.Ciphertexts[i]
			if err := ecc.CheckScalar(snap.Randomness[i], c.Order()); err != nil {
				return err
			}
			ephemeral := c.New()
			ephemeral.ScalarBaseMult(snap.Randomness[i])
			m, err := Decrypt(c, ephemeral, sk)
			if err != nil {
				return err
			}
			if m.IsZero() {
				return nil
			}
			count, err := search(m, ecc.Generator(c), r.MaxVotes)
			if err != nil {
				return fmt.Errorf("candidate %d: %w", i, err)
			}
			results[i] = count
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	log.Debugw("tally resolved", "version", snap.Version, "candidates", len(results))
	return results, nil
}
