// Package ed25519 implements the ecc.Point interface over the prime order
// subgroup of edwards25519 using kyber.
package ed25519

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math/big"
	"slices"
	"sync"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/group/edwards25519"

	curve "github.com/vocdoni/sealed-tally/crypto/ecc"
)

const (
	CurveType = "ed25519"
	// PointSize is the length of an encoded point.
	PointSize = 32
)

var (
	suite = edwards25519.NewBlakeSHA256Ed25519()

	// order is l = 2^252 + 27742317777372353535851937790883648493.
	order, _ = new(big.Int).SetString("7237005577332262213973186563042994240857116359379907606001950938285454250989", 10)
)

// Point is an edwards25519 group element.
type Point struct {
	inner kyber.Point
	lock  sync.Mutex
}

// New returns a new point set to the identity.
func New() curve.Point {
	return &Point{inner: suite.Point().Null()}
}

func (p *Point) New() curve.Point {
	return New()
}

func (p *Point) Order() *big.Int {
	return new(big.Int).Set(order)
}

func (p *Point) Add(a, b curve.Point) {
	p.inner = suite.Point().Add(a.(*Point).inner, b.(*Point).inner)
}

func (p *Point) SafeAdd(a, b curve.Point) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.Add(a, b)
}

func (p *Point) ScalarMult(a curve.Point, scalar *big.Int) {
	p.inner = suite.Point().Mul(toScalar(scalar), a.(*Point).inner)
}

func (p *Point) ScalarBaseMult(scalar *big.Int) {
	p.inner = suite.Point().Mul(toScalar(scalar), nil)
}

func (p *Point) Marshal() []byte {
	b, err := p.inner.MarshalBinary()
	if err != nil {
		panic(fmt.Sprintf("cannot marshal ed25519 point: %v", err))
	}
	return b
}

// Unmarshal decodes a 32 bytes point. Non canonical encodings and points
// outside the prime order subgroup are rejected.
func (p *Point) Unmarshal(buf []byte) error {
	if len(buf) != PointSize {
		return fmt.Errorf("%w: expected %d bytes, got %d", curve.ErrInvalidCurvePoint, PointSize, len(buf))
	}
	pt := suite.Point()
	if err := pt.UnmarshalBinary(buf); err != nil {
		return fmt.Errorf("%w: %v", curve.ErrInvalidCurvePoint, err)
	}
	if enc, err := pt.MarshalBinary(); err != nil || !bytes.Equal(enc, buf) {
		return fmt.Errorf("%w: non canonical encoding", curve.ErrInvalidCurvePoint)
	}
	// (l-1)*P + P is the identity only for points of the prime order subgroup
	lMinusOne := new(big.Int).Sub(order, big.NewInt(1))
	check := suite.Point().Mul(toScalar(lMinusOne), pt)
	check.Add(check, pt)
	if !check.Equal(suite.Point().Null()) {
		return fmt.Errorf("%w: not in the prime order subgroup", curve.ErrInvalidCurvePoint)
	}
	p.inner = pt
	return nil
}

func (p *Point) Equal(a curve.Point) bool {
	return p.inner.Equal(a.(*Point).inner)
}

func (p *Point) Neg(a curve.Point) {
	p.inner = suite.Point().Neg(a.(*Point).inner)
}

func (p *Point) SetZero() {
	p.inner = suite.Point().Null()
}

func (p *Point) IsZero() bool {
	return p.inner.Equal(suite.Point().Null())
}

func (p *Point) Set(a curve.Point) {
	p.inner = a.(*Point).inner.Clone()
}

func (p *Point) SetGenerator() {
	p.inner = suite.Point().Base()
}

func (p *Point) String() string {
	return hex.EncodeToString(p.Marshal())
}

func (p *Point) Type() string {
	return CurveType
}

// toScalar converts a big-endian big.Int into a kyber scalar, which is
// encoded little-endian.
func toScalar(s *big.Int) kyber.Scalar {
	le := curve.ScalarBytes(curve.BigToFF(order, s), 32)
	slices.Reverse(le)
	return suite.Scalar().SetBytes(le)
}
