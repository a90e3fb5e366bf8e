package bjj

import (
	"bytes"
	"fmt"
	"math/big"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	babyjubjub "github.com/consensys/gnark-crypto/ecc/bn254/twistededwards"

	curve "github.com/vocdoni/sealed-tally/crypto/ecc"
	"github.com/vocdoni/sealed-tally/crypto/ecc/format"
)

const (
	CurveType = "bjj_gnark"
	// PointSize is the length of a compressed point.
	PointSize = 32
)

// Params holds the gnark-crypto BabyJubJub parameters in reduced twisted
// Edwards form.
var Params = babyjubjub.GetEdwardsCurve()

// BJJ is the affine representation of the BabyJubJub group element.
type BJJ struct {
	inner *babyjubjub.PointAffine
	lock  sync.Mutex
}

// New creates a new BJJ point set to the identity element.
func New() curve.Point {
	p := &BJJ{inner: new(babyjubjub.PointAffine)}
	p.SetZero()
	return p
}

// New creates a new BJJ point set to the identity element.
func (g *BJJ) New() curve.Point {
	return New()
}

// Order returns the order of the BabyJubJub prime subgroup.
func (g *BJJ) Order() *big.Int {
	return new(big.Int).Set(&Params.Order)
}

// Add performs the addition of two points and stores the result in g.
func (g *BJJ) Add(a, b curve.Point) {
	g.inner.Add(a.(*BJJ).inner, b.(*BJJ).inner)
}

// SafeAdd performs the addition of two points with a lock.
func (g *BJJ) SafeAdd(a, b curve.Point) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.Add(a, b)
}

// ScalarMult performs scalar multiplication of a point by a scalar.
func (g *BJJ) ScalarMult(a curve.Point, scalar *big.Int) {
	g.inner.ScalarMultiplication(a.(*BJJ).inner, curve.BigToFF(&Params.Order, scalar))
}

// ScalarBaseMult performs scalar multiplication using the base point.
func (g *BJJ) ScalarBaseMult(scalar *big.Int) {
	g.inner.ScalarMultiplication(&Params.Base, curve.BigToFF(&Params.Order, scalar))
}

// Equal checks if the given point is equal to the current point.
func (g *BJJ) Equal(a curve.Point) bool {
	return g.inner.Equal(a.(*BJJ).inner)
}

// Neg negates the given point and stores the result in g.
func (g *BJJ) Neg(a curve.Point) {
	g.inner.Neg(a.(*BJJ).inner)
}

// SetZero sets the current point to the identity element (0, 1).
func (g *BJJ) SetZero() {
	g.inner.X.SetZero()
	g.inner.Y.SetOne()
}

// IsZero reports whether the point is the identity element (0, 1).
func (g *BJJ) IsZero() bool {
	return g.inner.X.IsZero() && g.inner.Y.IsOne()
}

// Set sets g to the value of another point.
func (g *BJJ) Set(a curve.Point) {
	g.inner.Set(a.(*BJJ).inner)
}

// SetGenerator sets the point to the BabyJubJub subgroup generator.
func (g *BJJ) SetGenerator() {
	g.inner.Set(&Params.Base)
}

// String returns a string representation of the point in twisted Edwards
// coordinates, so it matches the iden3 backend.
func (g *BJJ) String() string {
	x, y := g.Point()
	return fmt.Sprintf("%s,%s", x.String(), y.String())
}

// Marshal serializes the point in gnark-crypto compressed form (32 bytes).
func (g *BJJ) Marshal() []byte {
	return g.inner.Marshal()
}

// Unmarshal deserializes a compressed point. Points outside the prime order
// subgroup are rejected.
func (g *BJJ) Unmarshal(buf []byte) error {
	if len(buf) != PointSize {
		return fmt.Errorf("%w: expected %d bytes, got %d", curve.ErrInvalidCurvePoint, PointSize, len(buf))
	}
	p := new(babyjubjub.PointAffine)
	if _, err := p.SetBytes(buf); err != nil {
		return fmt.Errorf("%w: %v", curve.ErrInvalidCurvePoint, err)
	}
	// SetBytes does not check that y is reduced
	if !bytes.Equal(p.Marshal(), buf) {
		return curve.ErrInvalidCurvePoint
	}
	if err := checkSubgroup(p); err != nil {
		return err
	}
	g.inner.Set(p)
	return nil
}

func checkSubgroup(p *babyjubjub.PointAffine) error {
	if !p.IsOnCurve() {
		return fmt.Errorf("%w: not on the curve", curve.ErrInvalidCurvePoint)
	}
	torsion := new(babyjubjub.PointAffine)
	torsion.ScalarMultiplication(p, &Params.Order)
	if !(torsion.X.IsZero() && torsion.Y.IsOne()) {
		return fmt.Errorf("%w: not in the prime order subgroup", curve.ErrInvalidCurvePoint)
	}
	return nil
}

// Point returns the X and Y coordinates of the elliptic curve element in
// twisted Edwards coordinates.
func (g *BJJ) Point() (*big.Int, *big.Int) {
	x, y := new(big.Int), new(big.Int)
	g.inner.X.BigInt(x)
	g.inner.Y.BigInt(y)
	return format.FromRTEtoTE(x, y)
}

// SetPoint returns a new element from X and Y coordinates in twisted
// Edwards coordinates.
func (g *BJJ) SetPoint(x, y *big.Int) (curve.Point, error) {
	if !curve.InField(fr.Modulus(), x, y) {
		return nil, fmt.Errorf("%w: coordinates out of range", curve.ErrInvalidCurvePoint)
	}
	xRTE, yRTE := format.FromTEtoRTE(x, y)
	p := &BJJ{inner: new(babyjubjub.PointAffine)}
	p.inner.X.SetBigInt(xRTE)
	p.inner.Y.SetBigInt(yRTE)
	if err := checkSubgroup(p.inner); err != nil {
		return nil, err
	}
	return p, nil
}

func (g *BJJ) Type() string {
	return CurveType
}
