// Package secp256k1 implements the ecc.Point interface over the secp256k1
// curve, the curve used by EVM chains. Points are encoded in SEC1 compressed
// form; the identity is encoded as 33 zero bytes.
package secp256k1

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math/big"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	curve "github.com/vocdoni/sealed-tally/crypto/ecc"
)

const (
	CurveType = "secp256k1"
	// PointSize is the length of a compressed point.
	PointSize = secp256k1.PubKeyBytesLenCompressed
)

var identityEncoding = make([]byte, PointSize)

// Point is a secp256k1 group element, kept in affine form (Z = 1) or as the
// canonical identity (X = Y = Z = 0).
type Point struct {
	inner secp256k1.JacobianPoint
	lock  sync.Mutex
}

// New returns a new point set to the identity.
func New() curve.Point {
	return &Point{}
}

func (p *Point) New() curve.Point {
	return New()
}

func (p *Point) Order() *big.Int {
	return new(big.Int).Set(secp256k1.Params().N)
}

func (p *Point) Add(a, b curve.Point) {
	var res secp256k1.JacobianPoint
	secp256k1.AddNonConst(&a.(*Point).inner, &b.(*Point).inner, &res)
	p.inner = res
	p.normalize()
}

func (p *Point) SafeAdd(a, b curve.Point) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.Add(a, b)
}

func (p *Point) ScalarMult(a curve.Point, scalar *big.Int) {
	k := modNScalar(scalar)
	src := a.(*Point)
	if k.IsZero() || src.IsZero() {
		p.SetZero()
		return
	}
	var res secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(k, &src.inner, &res)
	p.inner = res
	p.normalize()
}

func (p *Point) ScalarBaseMult(scalar *big.Int) {
	k := modNScalar(scalar)
	if k.IsZero() {
		p.SetZero()
		return
	}
	var res secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(k, &res)
	p.inner = res
	p.normalize()
}

func (p *Point) Marshal() []byte {
	if p.IsZero() {
		return bytes.Clone(identityEncoding)
	}
	return secp256k1.NewPublicKey(&p.inner.X, &p.inner.Y).SerializeCompressed()
}

// Unmarshal decodes a SEC1 compressed point or the 33 zero bytes identity.
func (p *Point) Unmarshal(buf []byte) error {
	if len(buf) != PointSize {
		return fmt.Errorf("%w: expected %d bytes, got %d", curve.ErrInvalidCurvePoint, PointSize, len(buf))
	}
	if bytes.Equal(buf, identityEncoding) {
		p.SetZero()
		return nil
	}
	pub, err := secp256k1.ParsePubKey(buf)
	if err != nil {
		return fmt.Errorf("%w: %v", curve.ErrInvalidCurvePoint, err)
	}
	pub.AsJacobian(&p.inner)
	return nil
}

func (p *Point) Equal(a curve.Point) bool {
	o := a.(*Point)
	if p.IsZero() || o.IsZero() {
		return p.IsZero() && o.IsZero()
	}
	return p.inner.X.Equals(&o.inner.X) && p.inner.Y.Equals(&o.inner.Y)
}

func (p *Point) Neg(a curve.Point) {
	p.inner.Set(&a.(*Point).inner)
	if p.IsZero() {
		return
	}
	p.inner.Y.Negate(1).Normalize()
}

func (p *Point) SetZero() {
	p.inner.X.Zero()
	p.inner.Y.Zero()
	p.inner.Z.Zero()
}

func (p *Point) IsZero() bool {
	return p.inner.Z.IsZero()
}

func (p *Point) Set(a curve.Point) {
	p.inner.Set(&a.(*Point).inner)
}

func (p *Point) SetGenerator() {
	p.ScalarBaseMult(big.NewInt(1))
}

func (p *Point) String() string {
	return hex.EncodeToString(p.Marshal())
}

// Point returns the affine coordinates. The identity returns (0, 0).
func (p *Point) Point() (*big.Int, *big.Int) {
	if p.IsZero() {
		return new(big.Int), new(big.Int)
	}
	return new(big.Int).SetBytes(p.inner.X.Bytes()[:]), new(big.Int).SetBytes(p.inner.Y.Bytes()[:])
}

// SetPoint builds a point from affine coordinates. The identity is (0, 0).
func (p *Point) SetPoint(x, y *big.Int) (curve.Point, error) {
	if !curve.InField(secp256k1.S256().P, x, y) {
		return nil, fmt.Errorf("%w: coordinates out of range", curve.ErrInvalidCurvePoint)
	}
	res := &Point{}
	if x.Sign() == 0 && y.Sign() == 0 {
		return res, nil
	}
	var fx, fy secp256k1.FieldVal
	fx.SetByteSlice(x.Bytes())
	fy.SetByteSlice(y.Bytes())
	pub := secp256k1.NewPublicKey(&fx, &fy)
	if !pub.IsOnCurve() {
		return nil, fmt.Errorf("%w: not on the curve", curve.ErrInvalidCurvePoint)
	}
	pub.AsJacobian(&res.inner)
	return res, nil
}

func (p *Point) Type() string {
	return CurveType
}

// normalize converts the result of an operation back to affine form, or to
// the canonical identity. ToAffine must not run on the identity since it
// would set Z to one.
func (p *Point) normalize() {
	if p.inner.Z.IsZero() {
		p.SetZero()
		return
	}
	p.inner.ToAffine()
}

func modNScalar(s *big.Int) *secp256k1.ModNScalar {
	reduced := curve.BigToFF(secp256k1.Params().N, s)
	k := new(secp256k1.ModNScalar)
	k.SetByteSlice(curve.ScalarBytes(reduced, 32))
	return k
}
