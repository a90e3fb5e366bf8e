package bjj

import (
	"bytes"
	"fmt"
	"math/big"
	"sync"

	babyjubjub "github.com/iden3/go-iden3-crypto/babyjub"
	"github.com/iden3/go-iden3-crypto/constants"

	curve "github.com/vocdoni/sealed-tally/crypto/ecc"
)

const CurveType = "bjj_iden3"

// BJJ is the affine representation of the BabyJubJub group element.
type BJJ struct {
	inner *babyjubjub.Point
	lock  sync.Mutex
}

// New creates a new BJJ point set to the identity element.
func New() curve.Point {
	return &BJJ{inner: babyjubjub.NewPoint()}
}

func (g *BJJ) New() curve.Point {
	return New()
}

func (g *BJJ) Order() *big.Int {
	return new(big.Int).Set(babyjubjub.SubOrder)
}

func (g *BJJ) Add(a, b curve.Point) {
	g.inner = babyjubjub.NewPoint().Projective().
		Add(a.(*BJJ).inner.Projective(), b.(*BJJ).inner.Projective()).Affine()
}

func (g *BJJ) SafeAdd(a, b curve.Point) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.Add(a, b)
}

func (g *BJJ) ScalarMult(a curve.Point, scalar *big.Int) {
	g.inner = babyjubjub.NewPoint().Mul(curve.BigToFF(babyjubjub.SubOrder, scalar), a.(*BJJ).inner)
}

func (g *BJJ) ScalarBaseMult(scalar *big.Int) {
	g.inner = babyjubjub.NewPoint().Mul(curve.BigToFF(babyjubjub.SubOrder, scalar), babyjubjub.B8)
}

// Marshal returns the iden3 compressed encoding (32 bytes, little-endian y
// with the sign of x in the top bit).
func (g *BJJ) Marshal() []byte {
	b := g.inner.Compress()
	return b[:]
}

func (g *BJJ) Unmarshal(buf []byte) error {
	if len(buf) != 32 {
		return fmt.Errorf("%w: expected 32 bytes, got %d", curve.ErrInvalidCurvePoint, len(buf))
	}
	var b32 [32]byte
	copy(b32[:], buf)
	p, err := babyjubjub.NewPoint().Decompress(b32)
	if err != nil {
		return fmt.Errorf("%w: %v", curve.ErrInvalidCurvePoint, err)
	}
	if c := p.Compress(); !bytes.Equal(c[:], buf) || !p.InCurve() || !p.InSubGroup() {
		return curve.ErrInvalidCurvePoint
	}
	g.inner = p
	return nil
}

func (g *BJJ) Equal(a curve.Point) bool {
	return g.inner.X.Cmp(a.(*BJJ).inner.X) == 0 && g.inner.Y.Cmp(a.(*BJJ).inner.Y) == 0
}

// Neg sets g to -a, which on a twisted Edwards curve is (-x, y).
func (g *BJJ) Neg(a curve.Point) {
	src := a.(*BJJ).inner
	x := new(big.Int).Sub(constants.Q, src.X)
	x.Mod(x, constants.Q)
	g.inner = &babyjubjub.Point{X: x, Y: new(big.Int).Set(src.Y)}
}

func (g *BJJ) SetZero() {
	g.inner = babyjubjub.NewPoint()
}

func (g *BJJ) IsZero() bool {
	return g.inner.X.Sign() == 0 && g.inner.Y.Cmp(big.NewInt(1)) == 0
}

func (g *BJJ) Set(a curve.Point) {
	src := a.(*BJJ).inner
	g.inner = &babyjubjub.Point{X: new(big.Int).Set(src.X), Y: new(big.Int).Set(src.Y)}
}

func (g *BJJ) SetGenerator() {
	g.inner = &babyjubjub.Point{
		X: new(big.Int).Set(babyjubjub.B8.X),
		Y: new(big.Int).Set(babyjubjub.B8.Y),
	}
}

func (g *BJJ) String() string {
	return fmt.Sprintf("%s,%s", g.inner.X.String(), g.inner.Y.String())
}

func (g *BJJ) Point() (*big.Int, *big.Int) {
	return new(big.Int).Set(g.inner.X), new(big.Int).Set(g.inner.Y)
}

func (g *BJJ) SetPoint(x, y *big.Int) (curve.Point, error) {
	if !curve.InField(constants.Q, x, y) {
		return nil, fmt.Errorf("%w: coordinates out of range", curve.ErrInvalidCurvePoint)
	}
	p := &babyjubjub.Point{X: new(big.Int).Set(x), Y: new(big.Int).Set(y)}
	if !p.InCurve() || !p.InSubGroup() {
		return nil, curve.ErrInvalidCurvePoint
	}
	return &BJJ{inner: p}, nil
}

func (g *BJJ) Type() string {
	return CurveType
}
