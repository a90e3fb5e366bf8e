package bn254

import (
	"bytes"
	"fmt"
	"math/big"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	curve "github.com/vocdoni/sealed-tally/crypto/ecc"
)

const CurveType = "bn254"

var generator bn254.G1Affine

func init() {
	_, _, generator, _ = bn254.Generators()
}

// G1 is the affine representation of a G1 group element.
type G1 struct {
	inner *bn254.G1Affine
	lock  sync.Mutex
}

// New returns a new G1 element set to the point at infinity.
func New() curve.Point {
	return &G1{inner: new(bn254.G1Affine)}
}

func (g *G1) New() curve.Point {
	return New()
}

func (g *G1) Order() *big.Int {
	return fr.Modulus()
}

func (g *G1) Add(a, b curve.Point) {
	var res bn254.G1Affine
	res.Add(a.(*G1).inner, b.(*G1).inner)
	*g.inner = res
}

func (g *G1) SafeAdd(a, b curve.Point) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.Add(a, b)
}

func (g *G1) ScalarMult(a curve.Point, scalar *big.Int) {
	var res bn254.G1Affine
	res.ScalarMultiplication(a.(*G1).inner, curve.BigToFF(fr.Modulus(), scalar))
	*g.inner = res
}

func (g *G1) ScalarBaseMult(scalar *big.Int) {
	g.inner.ScalarMultiplicationBase(curve.BigToFF(fr.Modulus(), scalar))
}

// Marshal returns the compressed encoding of the point.
func (g *G1) Marshal() []byte {
	b := g.inner.Bytes()
	return b[:]
}

// Unmarshal decodes a compressed point. gnark-crypto checks that the point is
// on the curve and in the subgroup.
func (g *G1) Unmarshal(buf []byte) error {
	if len(buf) != bn254.SizeOfG1AffineCompressed {
		return fmt.Errorf("%w: expected %d bytes, got %d", curve.ErrInvalidCurvePoint,
			bn254.SizeOfG1AffineCompressed, len(buf))
	}
	var p bn254.G1Affine
	if _, err := p.SetBytes(buf); err != nil {
		return fmt.Errorf("%w: %v", curve.ErrInvalidCurvePoint, err)
	}
	if enc := p.Bytes(); !bytes.Equal(enc[:], buf) {
		return fmt.Errorf("%w: non canonical encoding", curve.ErrInvalidCurvePoint)
	}
	*g.inner = p
	return nil
}

func (g *G1) Equal(a curve.Point) bool {
	return g.inner.Equal(a.(*G1).inner)
}

func (g *G1) Neg(a curve.Point) {
	g.inner.Neg(a.(*G1).inner)
}

func (g *G1) SetZero() {
	g.inner.X.SetZero()
	g.inner.Y.SetZero()
}

func (g *G1) IsZero() bool {
	return g.inner.IsInfinity()
}

func (g *G1) Set(a curve.Point) {
	g.inner.Set(a.(*G1).inner)
}

func (g *G1) SetGenerator() {
	g.inner.Set(&generator)
}

func (g *G1) String() string {
	return fmt.Sprintf("%x", g.Marshal())
}

func (g *G1) Point() (*big.Int, *big.Int) {
	return g.inner.X.BigInt(new(big.Int)), g.inner.Y.BigInt(new(big.Int))
}

// SetPoint builds a point from affine coordinates. The identity is (0, 0).
func (g *G1) SetPoint(x, y *big.Int) (curve.Point, error) {
	if !curve.InField(fp.Modulus(), x, y) {
		return nil, fmt.Errorf("%w: coordinates out of range", curve.ErrInvalidCurvePoint)
	}
	p := &G1{inner: new(bn254.G1Affine)}
	p.inner.X.SetBigInt(x)
	p.inner.Y.SetBigInt(y)
	if !p.inner.IsOnCurve() || !p.inner.IsInSubGroup() {
		return nil, fmt.Errorf("%w: not on the curve", curve.ErrInvalidCurvePoint)
	}
	return p, nil
}

func (g *G1) Type() string {
	return CurveType
}
