// Package merkle implements the eligibility tree of a proposal: a binary
// Merkle tree over the sorted set of voter addresses. Levels are built by
// pairing adjacent nodes; a trailing odd node is carried up unchanged.
package merkle

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
)

// NodeSize is the size in bytes of a tree node.
const NodeSize = 32

var (
	// ErrLeafNotFound is returned when proving a leaf that is not in the tree.
	ErrLeafNotFound = errors.New("leaf not found")
	// ErrInvalidProof is returned when an eligibility proof does not
	// reconstruct the expected root.
	ErrInvalidProof = errors.New("invalid eligibility proof")
	// ErrEmptyTree is returned when building a tree without leaves.
	ErrEmptyTree = errors.New("empty leaf set")
)

// Node is a tree node.
type Node [NodeSize]byte

// String returns the hex representation of the node.
func (n Node) String() string {
	return hex.EncodeToString(n[:])
}

// Bytes returns a copy of the node bytes.
func (n Node) Bytes() []byte {
	return bytes.Clone(n[:])
}

// NodeFromBytes converts a byte slice of NodeSize bytes into a Node.
func NodeFromBytes(b []byte) (Node, error) {
	var n Node
	if len(b) != NodeSize {
		return n, fmt.Errorf("invalid node length %d", len(b))
	}
	copy(n[:], b)
	return n, nil
}

// Proof is the list of sibling nodes from a leaf up to the root.
type Proof []Node

// Bytes returns the proof nodes as byte slices.
func (p Proof) Bytes() [][]byte {
	res := make([][]byte, len(p))
	for i, n := range p {
		res[i] = n.Bytes()
	}
	return res
}

// ProofFromBytes decodes a list of nodes.
func ProofFromBytes(list [][]byte) (Proof, error) {
	p := make(Proof, len(list))
	for i, b := range list {
		n, err := NodeFromBytes(b)
		if err != nil {
			return nil, err
		}
		p[i] = n
	}
	return p, nil
}

// Tree is an immutable eligibility tree.
type Tree struct {
	hasher Hasher
	leaves []common.Address
	// levels[0] holds the leaf nodes, the last level holds the root.
	levels [][]Node
}

// New builds a tree from the given addresses. Duplicates are removed and the
// leaves are sorted in ascending byte order, so the root does not depend on
// the input order.
func New(leaves []common.Address, hasher Hasher) (*Tree, error) {
	if hasher == nil {
		hasher = Keccak256{}
	}
	sorted := slices.Clone(leaves)
	slices.SortFunc(sorted, func(a, b common.Address) int {
		return bytes.Compare(a[:], b[:])
	})
	sorted = slices.Compact(sorted)
	if len(sorted) == 0 {
		return nil, ErrEmptyTree
	}

	level := make([]Node, len(sorted))
	for i, l := range sorted {
		level[i] = hasher.Leaf(l)
	}
	levels := [][]Node{level}
	for len(level) > 1 {
		next := make([]Node, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, hasher.Combine(level[i], level[i+1]))
			} else {
				next = append(next, level[i])
			}
		}
		levels = append(levels, next)
		level = next
	}
	return &Tree{hasher: hasher, leaves: sorted, levels: levels}, nil
}

// Root returns the root of the tree.
func (t *Tree) Root() Node {
	return t.levels[len(t.levels)-1][0]
}

// Leaves returns a copy of the sorted leaves.
func (t *Tree) Leaves() []common.Address {
	return slices.Clone(t.leaves)
}

// Len returns the number of leaves.
func (t *Tree) Len() int {
	return len(t.leaves)
}

// Hasher returns the hasher used to build the tree.
func (t *Tree) Hasher() Hasher {
	return t.hasher
}

// Contains reports whether addr is a leaf of the tree.
func (t *Tree) Contains(addr common.Address) bool {
	_, ok := t.index(addr)
	return ok
}

// Prove returns the siblings needed to reconstruct the root from leaf. Levels
// where the node was carried up without a sibling add nothing to the proof.
func (t *Tree) Prove(leaf common.Address) (Proof, error) {
	idx, ok := t.index(leaf)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLeafNotFound, leaf.Hex())
	}
	proof := Proof{}
	for _, level := range t.levels[:len(t.levels)-1] {
		if sibling := idx ^ 1; sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		idx /= 2
	}
	return proof, nil
}

// Verify checks the proof of leaf against the tree root.
func (t *Tree) Verify(leaf common.Address, proof Proof) bool {
	return Verify(t.hasher, leaf, proof, t.Root())
}

// Marshal returns the concatenation of the sorted 20 bytes leaves.
func (t *Tree) Marshal() []byte {
	buf := make([]byte, 0, len(t.leaves)*common.AddressLength)
	for _, l := range t.leaves {
		buf = append(buf, l.Bytes()...)
	}
	return buf
}

// Unmarshal rebuilds a tree from the output of Marshal.
func Unmarshal(data []byte, hasher Hasher) (*Tree, error) {
	if len(data)%common.AddressLength != 0 {
		return nil, fmt.Errorf("invalid tree encoding length %d", len(data))
	}
	leaves := make([]common.Address, 0, len(data)/common.AddressLength)
	for i := 0; i < len(data); i += common.AddressLength {
		leaves = append(leaves, common.BytesToAddress(data[i:i+common.AddressLength]))
	}
	return New(leaves, hasher)
}

func (t *Tree) index(addr common.Address) (int, bool) {
	return slices.BinarySearchFunc(t.leaves, addr, func(a, b common.Address) int {
		return bytes.Compare(a[:], b[:])
	})
}

// Verify replays the proof: starting from the leaf node, each sibling is
// combined with the running node, and the result must equal root.
func Verify(hasher Hasher, leaf common.Address, proof Proof, root Node) bool {
	node := hasher.Leaf(leaf)
	for _, sibling := range proof {
		node = hasher.Combine(node, sibling)
	}
	return node == root
}
