package ballotbox

import (
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/vocdoni/sealed-tally/crypto/ballot"
	"github.com/vocdoni/sealed-tally/crypto/ecc/curves"
	"github.com/vocdoni/sealed-tally/crypto/ethereum"
	"github.com/vocdoni/sealed-tally/crypto/tally"
	"github.com/vocdoni/sealed-tally/storage"
	"github.com/vocdoni/sealed-tally/types"
)

type testEnv struct {
	bb     *BallotBox
	stg    *storage.Storage
	keys   *tally.Keyring
	voters []*ethereum.SignKeys
	clock  time.Time
}

func newTestEnv(c *qt.C, nvoters int) *testEnv {
	keys := tally.NewKeyring()
	for _, ct := range curves.Curves() {
		curve, err := curves.New(ct)
		c.Assert(err, qt.IsNil)
		k, err := tally.GenerateKey(curve)
		c.Assert(err, qt.IsNil)
		keys.Add(k)
	}
	env := &testEnv{
		stg:   storage.New(metadb.NewTest(c.TB)),
		keys:  keys,
		clock: time.Now(),
	}
	env.bb = New(env.stg, keys, 100)
	env.bb.SetClock(func() time.Time { return env.clock })
	for i := 0; i < nvoters; i++ {
		k := ethereum.NewSignKeys()
		c.Assert(k.Generate(), qt.IsNil)
		env.voters = append(env.voters, k)
	}
	return env
}

func (env *testEnv) setup(curveType string, candidates int, nonce uint64) *types.ProposalSetup {
	voters := make([]common.Address, len(env.voters))
	for i, v := range env.voters {
		voters[i] = v.Address()
	}
	return &types.ProposalSetup{
		Organizer:  common.HexToAddress("0x0123456789abcdef0123456789abcdef01234567"),
		ChainID:    1,
		Nonce:      nonce,
		Candidates: candidates,
		Voters:     voters,
		CurveType:  curveType,
		StartTime:  env.clock.Add(-time.Minute),
		EndTime:    env.clock.Add(time.Hour),
	}
}

func (env *testEnv) vote(c *qt.C, p *types.Proposal, voter, choice int) *types.Vote {
	proof, err := env.bb.EligibilityProof(p.ID, env.voters[voter].Address())
	c.Assert(err, qt.IsNil)
	v, err := NewVote(p, choice, proof, env.voters[voter])
	c.Assert(err, qt.IsNil)
	return v
}

func TestElection(t *testing.T) {
	for _, curveType := range curves.Curves() {
		t.Run(curveType, func(t *testing.T) {
			c := qt.New(t)
			env := newTestEnv(c, 4)
			p, err := env.bb.CreateProposal(env.setup(curveType, 3, 1))
			c.Assert(err, qt.IsNil)
			c.Assert(p.Voters, qt.HasLen, 4)
			c.Assert(p.Challenge.MathBigInt().Sign(), qt.Equals, 1)

			for voter, choice := range []int{0, 1, 2, 0} {
				receipt, err := env.bb.SubmitVote(env.vote(c, p, voter, choice))
				c.Assert(err, qt.IsNil)
				c.Assert(receipt.Version, qt.Equals, uint64(voter+1))
				c.Assert(receipt.Voter, qt.Equals, env.voters[voter].Address())
			}

			_, err = env.bb.Tally(p.ID)
			c.Assert(err, qt.ErrorIs, ErrProposalNotClosed)

			env.clock = p.EndTime
			_, err = env.bb.SubmitVote(env.vote(c, p, 0, 1))
			c.Assert(err, qt.ErrorIs, ErrProposalNotOpen)

			result, err := env.bb.Tally(p.ID)
			c.Assert(err, qt.IsNil)
			c.Assert(result.Version, qt.Equals, uint64(4))
			c.Assert(result.Results, qt.DeepEquals, []uint64{2, 1, 1})

			stored, err := env.stg.TallyResult(p.ID)
			c.Assert(err, qt.IsNil)
			c.Assert(stored.Results, qt.DeepEquals, result.Results)
		})
	}
}

func TestTallyWithoutVotes(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(c, 2)
	p, err := env.bb.CreateProposal(env.setup(curves.CurveTypeSecp256k1, 4, 1))
	c.Assert(err, qt.IsNil)

	// the initial aggregate is blinded
	snap, err := env.bb.Snapshot(p.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(snap.Version, qt.Equals, uint64(0))
	for _, ct := range snap.Ciphertexts {
		c.Assert(ct.IsZero(), qt.IsFalse)
	}

	env.clock = p.EndTime.Add(time.Second)
	result, err := env.bb.Tally(p.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(result.Results, qt.DeepEquals, []uint64{0, 0, 0, 0})
}

func TestCreateProposalValidation(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(c, 2)

	setup := env.setup(curves.CurveTypeBN254, 0, 1)
	_, err := env.bb.CreateProposal(setup)
	c.Assert(err, qt.ErrorIs, ErrInvalidProposal)

	setup = env.setup(curves.CurveTypeBN254, 2, 1)
	setup.EndTime = setup.StartTime
	_, err = env.bb.CreateProposal(setup)
	c.Assert(err, qt.ErrorIs, ErrInvalidProposal)

	setup = env.setup("p256", 2, 1)
	_, err = env.bb.CreateProposal(setup)
	c.Assert(err, qt.ErrorIs, ErrInvalidProposal)

	setup = env.setup(curves.CurveTypeBN254, 2, 1)
	setup.Voters = nil
	_, err = env.bb.CreateProposal(setup)
	c.Assert(err, qt.ErrorIs, ErrInvalidProposal)

	setup = env.setup(curves.CurveTypeBN254, 2, 1)
	setup.TreeHasher = "sha1"
	_, err = env.bb.CreateProposal(setup)
	c.Assert(err, qt.ErrorIs, ErrInvalidProposal)

	setup = env.setup("", 2, 1)
	p, err := env.bb.CreateProposal(setup)
	c.Assert(err, qt.IsNil)
	c.Assert(p.CurveType, qt.Equals, curves.CurveTypeSecp256k1)
	c.Assert(p.TreeHasher, qt.Equals, "keccak256")

	_, err = env.bb.CreateProposal(setup)
	c.Assert(err, qt.ErrorIs, ErrProposalExists)

	empty := New(env.stg, tally.NewKeyring(), 0)
	_, err = empty.CreateProposal(env.setup(curves.CurveTypeBN254, 2, 2))
	c.Assert(err, qt.ErrorIs, ErrNoEncryptionKey)
}

func TestSubmitVoteRejections(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(c, 3)
	p, err := env.bb.CreateProposal(env.setup(curves.CurveTypeBabyJubJubGnark, 3, 1))
	c.Assert(err, qt.IsNil)

	c.Run("unknown proposal", func(c *qt.C) {
		v := env.vote(c, p, 0, 0)
		v.ProposalID = make([]byte, types.ProposalIDLen)
		_, err := env.bb.SubmitVote(v)
		c.Assert(err, qt.ErrorIs, ErrUnknownProposal)
	})

	c.Run("candidate count", func(c *qt.C) {
		v := env.vote(c, p, 0, 0)
		v.Ciphertexts = v.Ciphertexts[:2]
		_, err := env.bb.SubmitVote(v)
		c.Assert(err, qt.ErrorIs, ErrCandidateCountMismatch)
	})

	c.Run("bad signature", func(c *qt.C) {
		v := env.vote(c, p, 0, 0)
		v.Signature = v.Signature[:10]
		_, err := env.bb.SubmitVote(v)
		c.Assert(err, qt.ErrorIs, ErrInvalidSignature)
	})

	c.Run("not eligible", func(c *qt.C) {
		v := env.vote(c, p, 0, 0)
		outsider := ethereum.NewSignKeys()
		c.Assert(outsider.Generate(), qt.IsNil)
		c.Assert(SignVote(v, outsider), qt.IsNil)
		_, err := env.bb.SubmitVote(v)
		c.Assert(err, qt.ErrorIs, ErrInvalidEligibilityProof)
	})

	c.Run("proof of another voter", func(c *qt.C) {
		v := env.vote(c, p, 0, 0)
		other := env.vote(c, p, 1, 0)
		v.EligibilityProof = other.EligibilityProof
		c.Assert(SignVote(v, env.voters[0]), qt.IsNil)
		_, err := env.bb.SubmitVote(v)
		c.Assert(err, qt.ErrorIs, ErrInvalidEligibilityProof)
	})

	c.Run("malformed point", func(c *qt.C) {
		v := env.vote(c, p, 0, 0)
		v.Ciphertexts[1] = make([]byte, 3)
		c.Assert(SignVote(v, env.voters[0]), qt.IsNil)
		_, err := env.bb.SubmitVote(v)
		c.Assert(err, qt.ErrorIs, ErrInvalidBallot)
	})

	c.Run("sum not valid", func(c *qt.C) {
		v := env.vote(c, p, 0, 2)
		v.Randomness[0] = types.NewBigInt(big.NewInt(12345))
		c.Assert(SignVote(v, env.voters[0]), qt.IsNil)
		_, err := env.bb.SubmitVote(v)
		c.Assert(err, qt.ErrorIs, ErrInvalidSum)
		c.Assert(err.Error(), qt.Equals, "sum not valid")
	})

	c.Run("wrong challenge", func(c *qt.C) {
		pub, err := curves.Decode(p.CurveType, p.EncryptionKey)
		c.Assert(err, qt.IsNil)
		wrong := new(big.Int).Add(p.Challenge.MathBigInt(), big.NewInt(1))
		b, err := ballot.New(1, p.Candidates, pub, wrong)
		c.Assert(err, qt.IsNil)
		v := b.Vote(p.ID)
		good := env.vote(c, p, 0, 1)
		v.EligibilityProof = good.EligibilityProof
		c.Assert(SignVote(v, env.voters[0]), qt.IsNil)
		_, err = env.bb.SubmitVote(v)
		c.Assert(err, qt.ErrorIs, ErrInvalidVotes)
		c.Assert(err.Error(), qt.Equals, "votes not valid")
	})

	c.Run("already voted", func(c *qt.C) {
		_, err := env.bb.SubmitVote(env.vote(c, p, 2, 0))
		c.Assert(err, qt.IsNil)
		_, err = env.bb.SubmitVote(env.vote(c, p, 2, 1))
		c.Assert(err, qt.ErrorIs, ErrAlreadyVoted)
	})

	// only the accepted vote was folded
	snap, err := env.bb.Snapshot(p.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(snap.Version, qt.Equals, uint64(1))
}

func TestProposalNotStarted(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(c, 1)
	setup := env.setup(curves.CurveTypeEd25519, 2, 1)
	setup.StartTime = env.clock.Add(time.Minute)
	p, err := env.bb.CreateProposal(setup)
	c.Assert(err, qt.IsNil)
	_, err = env.bb.SubmitVote(env.vote(c, p, 0, 0))
	c.Assert(err, qt.ErrorIs, ErrProposalNotOpen)
}

func TestConcurrentVotes(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(c, 12)
	p, err := env.bb.CreateProposal(env.setup(curves.CurveTypeSecp256k1, 2, 1))
	c.Assert(err, qt.IsNil)

	votes := make([]*types.Vote, len(env.voters))
	for i := range env.voters {
		votes[i] = env.vote(c, p, i, i%2)
	}
	var wg sync.WaitGroup
	errs := make(chan error, len(votes))
	for _, v := range votes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.bb.SubmitVote(v)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		c.Assert(err, qt.IsNil)
	}

	env.clock = p.EndTime
	result, err := env.bb.Tally(p.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(result.Version, qt.Equals, uint64(12))
	c.Assert(result.Results, qt.DeepEquals, []uint64{6, 6})
}

func TestReopenRebuildsTree(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(c, 5)
	p, err := env.bb.CreateProposal(env.setup(curves.CurveTypeBabyJubJubIden3, 2, 1))
	c.Assert(err, qt.IsNil)

	bb := New(env.stg, env.keys, 10)
	bb.SetClock(func() time.Time { return env.clock })
	proof, err := bb.EligibilityProof(p.ID, env.voters[3].Address())
	c.Assert(err, qt.IsNil)
	v, err := NewVote(p, 1, proof, env.voters[3])
	c.Assert(err, qt.IsNil)
	_, err = bb.SubmitVote(v)
	c.Assert(err, qt.IsNil)

	r, err := env.bb.Receipt(p.ID, env.voters[3].Address())
	c.Assert(err, qt.IsNil)
	c.Assert(r.Version, qt.Equals, uint64(1))

	_, err = bb.EligibilityProof(p.ID, common.Address{})
	c.Assert(err, qt.IsNotNil)
}

func TestVoteMessage(t *testing.T) {
	c := qt.New(t)
	v := &types.Vote{
		ProposalID:  []byte{1},
		Ciphertexts: []types.HexBytes{{2}},
		Randomness:  []*types.BigInt{types.NewBigInt(big.NewInt(3))},
	}
	m := VoteMessage(v)
	c.Assert(m, qt.HasLen, 32)

	// the eligibility proof and the signature are not covered
	v.EligibilityProof = []types.HexBytes{{9}}
	v.Signature = []byte{1, 2}
	c.Assert(VoteMessage(v), qt.DeepEquals, m)

	v.Randomness[0] = types.NewBigInt(big.NewInt(4))
	c.Assert(VoteMessage(v), qt.Not(qt.DeepEquals), m)
}
