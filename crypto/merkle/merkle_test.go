package merkle

import (
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"

	"github.com/vocdoni/sealed-tally/util"
)

func randomAddresses(n int) []common.Address {
	addrs := make([]common.Address, n)
	for i := range addrs {
		addrs[i] = common.BytesToAddress(util.RandomBytes(common.AddressLength))
	}
	return addrs
}

func hashers() []Hasher {
	return []Hasher{Keccak256{}, Blake2b{}, Poseidon{}}
}

func TestProveAndVerify(t *testing.T) {
	for _, hasher := range hashers() {
		for _, size := range []int{1, 2, 3, 5, 8, 13} {
			c := qt.New(t)
			addrs := randomAddresses(size)
			tree, err := New(addrs, hasher)
			c.Assert(err, qt.IsNil)
			c.Assert(tree.Len(), qt.Equals, size)

			for _, addr := range addrs {
				proof, err := tree.Prove(addr)
				c.Assert(err, qt.IsNil)
				c.Assert(tree.Verify(addr, proof), qt.IsTrue, qt.Commentf("%s size %d", hasher.Name(), size))
				c.Assert(Verify(hasher, addr, proof, tree.Root()), qt.IsTrue)
			}
		}
	}
}

func TestSingleLeaf(t *testing.T) {
	c := qt.New(t)
	addr := randomAddresses(1)[0]
	tree, err := New([]common.Address{addr}, Keccak256{})
	c.Assert(err, qt.IsNil)
	c.Assert(tree.Root(), qt.Equals, Keccak256{}.Leaf(addr))

	proof, err := tree.Prove(addr)
	c.Assert(err, qt.IsNil)
	c.Assert(proof, qt.HasLen, 0)
	c.Assert(tree.Verify(addr, proof), qt.IsTrue)
}

func TestOddLevelCarry(t *testing.T) {
	c := qt.New(t)
	addrs := randomAddresses(3)
	tree, err := New(addrs, Keccak256{})
	c.Assert(err, qt.IsNil)

	// the largest leaf is carried to the second level, so its proof holds
	// only the hash of the first pair
	leaves := tree.Leaves()
	proof, err := tree.Prove(leaves[2])
	c.Assert(err, qt.IsNil)
	c.Assert(proof, qt.HasLen, 1)
	h := Keccak256{}
	c.Assert(proof[0], qt.Equals, h.Combine(h.Leaf(leaves[0]), h.Leaf(leaves[1])))

	proof, err = tree.Prove(leaves[0])
	c.Assert(err, qt.IsNil)
	c.Assert(proof, qt.HasLen, 2)
}

func TestRootIsOrderIndependent(t *testing.T) {
	c := qt.New(t)
	addrs := randomAddresses(7)
	tree1, err := New(addrs, nil)
	c.Assert(err, qt.IsNil)

	reversed := make([]common.Address, 0, len(addrs)+1)
	for i := len(addrs) - 1; i >= 0; i-- {
		reversed = append(reversed, addrs[i])
	}
	// duplicates are ignored
	reversed = append(reversed, addrs[3])
	tree2, err := New(reversed, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(tree2.Root(), qt.Equals, tree1.Root())
	c.Assert(tree2.Len(), qt.Equals, len(addrs))

	leaves := tree1.Leaves()
	for i := 1; i < len(leaves); i++ {
		c.Assert(bytes.Compare(leaves[i-1][:], leaves[i][:]), qt.Equals, -1)
	}
}

func TestNonMember(t *testing.T) {
	c := qt.New(t)
	addrs := randomAddresses(4)
	tree, err := New(addrs, Keccak256{})
	c.Assert(err, qt.IsNil)

	outsider := randomAddresses(1)[0]
	c.Assert(tree.Contains(outsider), qt.IsFalse)
	_, err = tree.Prove(outsider)
	c.Assert(err, qt.ErrorIs, ErrLeafNotFound)

	// a member proof does not verify for another address
	proof, err := tree.Prove(addrs[0])
	c.Assert(err, qt.IsNil)
	c.Assert(tree.Verify(outsider, proof), qt.IsFalse)

	// nor after tampering with a sibling
	proof[0][0] ^= 0xff
	c.Assert(tree.Verify(addrs[0], proof), qt.IsFalse)
}

func TestEmptyTree(t *testing.T) {
	c := qt.New(t)
	_, err := New(nil, Keccak256{})
	c.Assert(err, qt.ErrorIs, ErrEmptyTree)
}

func TestCombineIsCommutative(t *testing.T) {
	c := qt.New(t)
	addrs := randomAddresses(2)
	for _, h := range hashers() {
		a, b := h.Leaf(addrs[0]), h.Leaf(addrs[1])
		c.Assert(h.Combine(a, b), qt.Equals, h.Combine(b, a))
		c.Assert(h.Combine(a, b), qt.Not(qt.Equals), a)
	}
}

func TestPoseidonOutOfFieldSibling(t *testing.T) {
	c := qt.New(t)
	addr := randomAddresses(1)[0]
	var garbage Node
	for i := range garbage {
		garbage[i] = 0xff
	}
	c.Assert(Verify(Poseidon{}, addr, Proof{garbage}, Node{}), qt.IsFalse)
}

func TestMarshalUnmarshal(t *testing.T) {
	c := qt.New(t)
	tree, err := New(randomAddresses(6), Blake2b{})
	c.Assert(err, qt.IsNil)

	data := tree.Marshal()
	c.Assert(data, qt.HasLen, 6*common.AddressLength)

	decoded, err := Unmarshal(data, Blake2b{})
	c.Assert(err, qt.IsNil)
	c.Assert(decoded.Root(), qt.Equals, tree.Root())

	_, err = Unmarshal(data[:7], Blake2b{})
	c.Assert(err, qt.IsNotNil)
}

func TestProofBytes(t *testing.T) {
	c := qt.New(t)
	addrs := randomAddresses(5)
	tree, err := New(addrs, Keccak256{})
	c.Assert(err, qt.IsNil)
	proof, err := tree.Prove(addrs[2])
	c.Assert(err, qt.IsNil)

	decoded, err := ProofFromBytes(proof.Bytes())
	c.Assert(err, qt.IsNil)
	c.Assert(decoded, qt.DeepEquals, proof)

	_, err = ProofFromBytes([][]byte{{1, 2}})
	c.Assert(err, qt.IsNotNil)
}

func TestNewHasher(t *testing.T) {
	c := qt.New(t)
	for _, name := range []string{HasherKeccak256, HasherBlake2b, HasherPoseidon} {
		h, err := NewHasher(name)
		c.Assert(err, qt.IsNil)
		c.Assert(h.Name(), qt.Equals, name)
	}
	h, err := NewHasher("")
	c.Assert(err, qt.IsNil)
	c.Assert(h.Name(), qt.Equals, HasherKeccak256)
	_, err = NewHasher("sha1")
	c.Assert(err, qt.IsNotNil)
}
