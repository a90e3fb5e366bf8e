package tally

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"

	"github.com/vocdoni/sealed-tally/crypto/ballot"
	"github.com/vocdoni/sealed-tally/crypto/ecc"
	"github.com/vocdoni/sealed-tally/crypto/ecc/curves"
	"github.com/vocdoni/sealed-tally/crypto/merkle"
	"github.com/vocdoni/sealed-tally/util"
)

func testKeyPair(c *qt.C, curveType string) *KeyPair {
	curve, err := curves.New(curveType)
	c.Assert(err, qt.IsNil)
	k, err := GenerateKey(curve)
	c.Assert(err, qt.IsNil)
	return k
}

func TestDecrypt(t *testing.T) {
	for _, curveType := range curves.Curves() {
		t.Run(curveType, func(t *testing.T) {
			c := qt.New(t)
			k := testKeyPair(c, curveType)
			x, err := ecc.RandomScalar(k.Public.Order())
			c.Assert(err, qt.IsNil)

			g := ecc.Generator(k.Public)
			ct := ballot.EncryptPoint(g, x, k.Public)
			r := k.Public.New()
			r.ScalarBaseMult(x)

			m, err := Decrypt(ct, r, k.Private)
			c.Assert(err, qt.IsNil)
			c.Assert(m.Equal(g), qt.IsTrue)

			zero := ballot.EncryptPoint(k.Public.New(), x, k.Public)
			m, err = Decrypt(zero, r, k.Private)
			c.Assert(err, qt.IsNil)
			c.Assert(m.IsZero(), qt.IsTrue)

			_, err = Decrypt(ct, r, k.Public.Order())
			c.Assert(err, qt.ErrorIs, ecc.ErrOutOfRangeScalar)
		})
	}
}

func TestHomomorphicAddition(t *testing.T) {
	c := qt.New(t)
	k := testKeyPair(c, curves.CurveTypeSecp256k1)
	snap := NewSnapshot(k.Public, 1)
	g := ecc.Generator(k.Public)

	for i := 0; i < 5; i++ {
		x, err := ecc.RandomScalar(k.Public.Order())
		c.Assert(err, qt.IsNil)
		ct := ballot.EncryptPoint(g, x, k.Public)
		c.Assert(snap.Add([]ecc.Point{ct}, []*big.Int{x}), qt.IsNil)
	}
	c.Assert(snap.Version, qt.Equals, uint64(5))

	r := k.Public.New()
	r.ScalarBaseMult(snap.Randomness[0])
	m, err := Decrypt(snap.Ciphertexts[0], r, k.Private)
	c.Assert(err, qt.IsNil)
	five := k.Public.New()
	five.ScalarBaseMult(big.NewInt(5))
	c.Assert(m.Equal(five), qt.IsTrue)
}

func TestSnapshotAddWrongLength(t *testing.T) {
	c := qt.New(t)
	k := testKeyPair(c, curves.CurveTypeBN254)
	snap := NewSnapshot(k.Public, 2)
	err := snap.Add([]ecc.Point{k.Public.New()}, []*big.Int{big.NewInt(1)})
	c.Assert(err, qt.IsNotNil)
	c.Assert(snap.Version, qt.Equals, uint64(0))
}

func TestSnapshotClone(t *testing.T) {
	c := qt.New(t)
	k := testKeyPair(c, curves.CurveTypeBN254)
	snap := NewSnapshot(k.Public, 2)
	clone := snap.Clone()
	c.Assert(snap.Add([]ecc.Point{k.Public, k.Public}, []*big.Int{big.NewInt(1), big.NewInt(2)}), qt.IsNil)
	c.Assert(clone.Version, qt.Equals, uint64(0))
	c.Assert(clone.Ciphertexts[0].IsZero(), qt.IsTrue)
	c.Assert(clone.Randomness[1].Sign(), qt.Equals, 0)

	agg := snap.Aggregate([]byte{1, 2, 3})
	c.Assert(agg.Version, qt.Equals, uint64(1))
	c.Assert(agg.Ciphertexts, qt.HasLen, 2)
	c.Assert(agg.Randomness[1].MathBigInt().Int64(), qt.Equals, int64(2))
}

// Four eligible voters choose A, B, C and A among three candidates.
func TestResolveElection(t *testing.T) {
	for _, curveType := range curves.Curves() {
		t.Run(curveType, func(t *testing.T) {
			c := qt.New(t)
			k := testKeyPair(c, curveType)

			voters := make([]common.Address, 4)
			for i := range voters {
				voters[i] = common.BytesToAddress(util.RandomBytes(20))
			}
			tree, err := merkle.New(voters, nil)
			c.Assert(err, qt.IsNil)

			proposalID := util.RandomBytes(32)
			challenge := ballot.DeriveChallenge(proposalID, tree.Root().Bytes(), 3, k.Public.Order())

			// initial aggregate is an encryption of zero per candidate
			snap := NewSnapshot(k.Public, 3)
			initial := make([]ecc.Point, 3)
			initialRandomness := make([]*big.Int, 3)
			for i := range initial {
				initialRandomness[i], err = ecc.RandomScalar(k.Public.Order())
				c.Assert(err, qt.IsNil)
				initial[i] = ballot.EncryptPoint(k.Public.New(), initialRandomness[i], k.Public)
			}
			c.Assert(snap.Add(initial, initialRandomness), qt.IsNil)

			for i, choice := range []int{0, 1, 2, 0} {
				proof, err := tree.Prove(voters[i])
				c.Assert(err, qt.IsNil)
				c.Assert(merkle.Verify(tree.Hasher(), voters[i], proof, tree.Root()), qt.IsTrue)

				b, err := ballot.New(choice, 3, k.Public, challenge)
				c.Assert(err, qt.IsNil)
				c.Assert(b.Verify(challenge, k.Public), qt.IsNil)

				cts := make([]ecc.Point, 3)
				xs := make([]*big.Int, 3)
				for j, s := range b.Slots {
					cts[j], xs[j] = s.Ciphertext, s.Randomness
				}
				c.Assert(snap.Add(cts, xs), qt.IsNil)
			}

			results, err := NewResolver(100).Resolve(snap, k.Private)
			c.Assert(err, qt.IsNil)
			c.Assert(results, qt.DeepEquals, []uint64{2, 1, 1})
		})
	}
}

func TestResolveNoVotes(t *testing.T) {
	c := qt.New(t)
	k := testKeyPair(c, curves.CurveTypeBabyJubJubGnark)
	snap := NewSnapshot(k.Public, 4)
	results, err := NewResolver(10).Resolve(snap, k.Private)
	c.Assert(err, qt.IsNil)
	c.Assert(results, qt.DeepEquals, []uint64{0, 0, 0, 0})
}

func TestResolveWrongKey(t *testing.T) {
	c := qt.New(t)
	k := testKeyPair(c, curves.CurveTypeSecp256k1)
	other := testKeyPair(c, curves.CurveTypeSecp256k1)

	snap := NewSnapshot(k.Public, 2)
	b, err := ballot.New(1, 2, k.Public, big.NewInt(7))
	c.Assert(err, qt.IsNil)
	c.Assert(snap.Add(
		[]ecc.Point{b.Slots[0].Ciphertext, b.Slots[1].Ciphertext},
		[]*big.Int{b.Slots[0].Randomness, b.Slots[1].Randomness},
	), qt.IsNil)

	_, err = NewResolver(1000).Resolve(snap, other.Private)
	c.Assert(err, qt.ErrorIs, ErrUnresolvedTally)
}

func TestResolveAboveBound(t *testing.T) {
	c := qt.New(t)
	k := testKeyPair(c, curves.CurveTypeBN254)
	snap := NewSnapshot(k.Public, 1)
	for i := 0; i < 6; i++ {
		b, err := ballot.New(0, 1, k.Public, big.NewInt(3))
		c.Assert(err, qt.IsNil)
		c.Assert(snap.Add([]ecc.Point{b.Slots[0].Ciphertext}, []*big.Int{b.Slots[0].Randomness}), qt.IsNil)
	}
	_, err := NewResolver(5).Resolve(snap, k.Private)
	c.Assert(err, qt.ErrorIs, ErrUnresolvedTally)

	results, err := NewResolver(6).Resolve(snap, k.Private)
	c.Assert(err, qt.IsNil)
	c.Assert(results, qt.DeepEquals, []uint64{6})
}

func TestSearchAgreement(t *testing.T) {
	for _, curveType := range curves.Curves() {
		t.Run(curveType, func(t *testing.T) {
			c := qt.New(t)
			g, err := curves.New(curveType)
			c.Assert(err, qt.IsNil)
			g.SetGenerator()
			for _, x := range []uint64{0, 1, 2, 15, 16, 17, 63, 64} {
				m := g.New()
				m.ScalarBaseMult(new(big.Int).SetUint64(x))
				bsgs, err := BabyStepGiantStep(m, g, 64)
				c.Assert(err, qt.IsNil, qt.Commentf("x=%d", x))
				linear, err := LinearSearch(m, g, 64)
				c.Assert(err, qt.IsNil, qt.Commentf("x=%d", x))
				c.Assert(bsgs, qt.Equals, x)
				c.Assert(linear, qt.Equals, x)
			}

			m := g.New()
			m.ScalarBaseMult(big.NewInt(65))
			_, err = BabyStepGiantStep(m, g, 64)
			c.Assert(errors.Is(err, ErrUnresolvedTally), qt.IsTrue)
			_, err = LinearSearch(m, g, 64)
			c.Assert(errors.Is(err, ErrUnresolvedTally), qt.IsTrue)
		})
	}
}

func TestKeyFromHex(t *testing.T) {
	c := qt.New(t)
	k := testKeyPair(c, curves.CurveTypeSecp256k1)
	parsed, err := KeyFromHex(curves.CurveTypeSecp256k1, "0x"+k.Private.Text(16))
	c.Assert(err, qt.IsNil)
	c.Assert(parsed.Public.Equal(k.Public), qt.IsTrue)

	_, err = KeyFromHex(curves.CurveTypeSecp256k1, "00")
	c.Assert(err, qt.ErrorIs, ecc.ErrOutOfRangeScalar)
	_, err = KeyFromHex("unknown", "01")
	c.Assert(err, qt.ErrorIs, curves.ErrUnsupportedCurve)
	_, err = KeyFromHex(curves.CurveTypeSecp256k1, "zz")
	c.Assert(err, qt.IsNotNil)

	// the private scalar never shows up in formatted output
	out := fmt.Sprintf("%v %s %+v", k, k, k)
	c.Assert(out, qt.Not(qt.Contains), k.Private.Text(16))
}

func TestKeyring(t *testing.T) {
	c := qt.New(t)
	kr := NewKeyring()
	kr.Add(testKeyPair(c, curves.CurveTypeSecp256k1))
	kr.Add(testKeyPair(c, curves.CurveTypeBN254))
	c.Assert(kr.Curves(), qt.DeepEquals, []string{curves.CurveTypeBN254, curves.CurveTypeSecp256k1})
	_, ok := kr.Key(curves.CurveTypeBN254)
	c.Assert(ok, qt.IsTrue)
	_, ok = kr.Key(curves.CurveTypeEd25519)
	c.Assert(ok, qt.IsFalse)
}
