package merkle

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/vocdoni/arbo"
	"golang.org/x/crypto/blake2b"

	"github.com/vocdoni/sealed-tally/crypto/hash/poseidon"
)

const (
	HasherKeccak256 = "keccak256"
	HasherBlake2b   = "blake2b"
	HasherPoseidon  = "poseidon"
)

// Hasher computes the nodes of the tree. Combine must be commutative, since
// proofs carry no direction bits and verification always computes
// Combine(node, sibling).
type Hasher interface {
	Leaf(addr common.Address) Node
	Combine(a, b Node) Node
	Name() string
}

// NewHasher returns the Hasher registered under name. An empty name selects
// Keccak256.
func NewHasher(name string) (Hasher, error) {
	switch name {
	case HasherKeccak256, "":
		return Keccak256{}, nil
	case HasherBlake2b:
		return Blake2b{}, nil
	case HasherPoseidon:
		return Poseidon{}, nil
	default:
		return nil, fmt.Errorf("unknown tree hasher %q", name)
	}
}

// sortedPair returns a and b in ascending byte order.
func sortedPair(a, b Node) (Node, Node) {
	if bytes.Compare(a[:], b[:]) > 0 {
		return b, a
	}
	return a, b
}

// Keccak256 is the EVM compatible hasher: leaves are keccak256(address) and
// parents keccak256(min || max).
type Keccak256 struct{}

func (Keccak256) Leaf(addr common.Address) Node {
	return Node(ethcrypto.Keccak256Hash(addr.Bytes()))
}

func (Keccak256) Combine(a, b Node) Node {
	lo, hi := sortedPair(a, b)
	return Node(ethcrypto.Keccak256Hash(lo[:], hi[:]))
}

func (Keccak256) Name() string { return HasherKeccak256 }

// Blake2b uses the same layout as Keccak256 with BLAKE2b-256.
type Blake2b struct{}

func (Blake2b) Leaf(addr common.Address) Node {
	return blake2b.Sum256(addr.Bytes())
}

func (Blake2b) Combine(a, b Node) Node {
	lo, hi := sortedPair(a, b)
	return blake2b.Sum256(append(lo[:], hi[:]...))
}

func (Blake2b) Name() string { return HasherBlake2b }

// Poseidon hashes BN254 field elements, so the tree can be proven inside a
// circuit. Nodes are the little-endian encoding of the field element.
type Poseidon struct{}

func (Poseidon) Leaf(addr common.Address) Node {
	return poseidonNode(new(big.Int).SetBytes(addr.Bytes()))
}

func (Poseidon) Combine(a, b Node) Node {
	lo, hi := sortedPair(a, b)
	return poseidonNode(arbo.BytesToBigInt(lo[:]), arbo.BytesToBigInt(hi[:]))
}

func (Poseidon) Name() string { return HasherPoseidon }

// poseidonNode hashes the inputs reduced into the field. The zero node is
// returned if hashing fails, which can never match a valid root.
func poseidonNode(inputs ...*big.Int) Node {
	for i := range inputs {
		inputs[i] = arbo.BigToFF(arbo.BN254BaseField, inputs[i])
	}
	h, err := poseidon.MultiPoseidon(inputs...)
	if err != nil {
		return Node{}
	}
	var n Node
	copy(n[:], arbo.BigIntToBytes(NodeSize, h))
	return n
}
