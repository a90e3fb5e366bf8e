package bjj

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/iden3/go-iden3-crypto/babyjub"

	"github.com/vocdoni/sealed-tally/crypto/ecc"
	bjjIden3 "github.com/vocdoni/sealed-tally/crypto/ecc/bjj_iden3"
)

// pointPair builds k*G on both BabyJubJub backends.
func pointPair(k int64) (ecc.Point, ecc.Point) {
	gnarkPoint := New()
	iden3Point := bjjIden3.New()
	gnarkPoint.ScalarBaseMult(big.NewInt(k))
	iden3Point.ScalarBaseMult(big.NewInt(k))
	return gnarkPoint, iden3Point
}

// assertSamePoint checks that both backends hold the same twisted Edwards
// point.
func assertSamePoint(c *qt.C, gnarkPoint, iden3Point ecc.Point) {
	c.Helper()
	gx, gy := gnarkPoint.(ecc.Coordinates).Point()
	ix, iy := iden3Point.(ecc.Coordinates).Point()
	c.Assert(gx.String(), qt.Equals, ix.String())
	c.Assert(gy.String(), qt.Equals, iy.String())
	c.Assert(gnarkPoint.String(), qt.Equals, iden3Point.String())
}

func TestGenerator(t *testing.T) {
	c := qt.New(t)
	g := New()
	g.SetGenerator()

	x, y := g.(ecc.Coordinates).Point()
	c.Assert(x.String(), qt.Equals, babyjub.B8.X.String())
	c.Assert(y.String(), qt.Equals, babyjub.B8.Y.String())
	c.Assert(g.Order().String(), qt.Equals, bjjIden3.New().Order().String())
}

func TestMatchesIden3(t *testing.T) {
	tests := []struct {
		name string
		op   func(p ecc.Point, q ecc.Point)
	}{
		{"zero", func(p, _ ecc.Point) { p.SetZero() }},
		{"scalar base mult", func(p, _ ecc.Point) { p.ScalarBaseMult(big.NewInt(42)) }},
		{"scalar mult", func(p, _ ecc.Point) { p.ScalarMult(p, big.NewInt(88)) }},
		{"add", func(p, q ecc.Point) { p.Add(p, q) }},
		{"safe add", func(p, q ecc.Point) { p.SafeAdd(q, q) }},
		{"neg", func(p, _ ecc.Point) { p.Neg(p) }},
		{"double", func(p, _ ecc.Point) { p.Add(p, p) }},
		{"sub", func(p, q ecc.Point) { p.Set(ecc.Sub(p, q)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			gnarkPoint, iden3Point := pointPair(123456789)
			gnarkOther, iden3Other := pointPair(987654321)
			tt.op(gnarkPoint, gnarkOther)
			tt.op(iden3Point, iden3Other)
			assertSamePoint(c, gnarkPoint, iden3Point)
		})
	}
}

func TestEqual(t *testing.T) {
	c := qt.New(t)
	p, _ := pointPair(123456789)
	q := ecc.Clone(p)
	c.Assert(p.Equal(q), qt.IsTrue)

	q.ScalarMult(q, big.NewInt(2))
	c.Assert(p.Equal(q), qt.IsFalse)
}

func TestSetPoint(t *testing.T) {
	c := qt.New(t)
	gnarkPoint, iden3Point := pointPair(123456789)

	x, y := iden3Point.(ecc.Coordinates).Point()
	fromCoords, err := New().(ecc.Coordinates).SetPoint(x, y)
	c.Assert(err, qt.IsNil)
	c.Assert(fromCoords.Equal(gnarkPoint), qt.IsTrue)

	// the negated x is a different point
	negX := new(big.Int).Sub(bn254Modulus(), x)
	fromCoords, err = New().(ecc.Coordinates).SetPoint(negX, y)
	c.Assert(err, qt.IsNil)
	c.Assert(fromCoords.Equal(gnarkPoint), qt.IsFalse)

	_, err = New().(ecc.Coordinates).SetPoint(big.NewInt(1), big.NewInt(1))
	c.Assert(err, qt.ErrorIs, ecc.ErrInvalidCurvePoint)
	_, err = New().(ecc.Coordinates).SetPoint(new(big.Int).Add(x, bn254Modulus()), y)
	c.Assert(err, qt.ErrorIs, ecc.ErrInvalidCurvePoint)
	// (0, -1) is on the curve but has order two
	_, err = New().(ecc.Coordinates).SetPoint(big.NewInt(0), new(big.Int).Sub(bn254Modulus(), big.NewInt(1)))
	c.Assert(err, qt.ErrorIs, ecc.ErrInvalidCurvePoint)
}

func TestUnmarshalRejectsInvalid(t *testing.T) {
	c := qt.New(t)
	p := New()
	c.Assert(p.Unmarshal(make([]byte, 31)), qt.ErrorIs, ecc.ErrInvalidCurvePoint)

	// (0, -1) encoded in little endian
	minusOne := new(big.Int).Sub(bn254Modulus(), big.NewInt(1))
	buf := ecc.ScalarBytes(minusOne, PointSize)
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	c.Assert(p.Unmarshal(buf), qt.ErrorIs, ecc.ErrInvalidCurvePoint)

	iden3Point := bjjIden3.New()
	c.Assert(iden3Point.Unmarshal(buf), qt.ErrorIs, ecc.ErrInvalidCurvePoint)
}

func bn254Modulus() *big.Int {
	p, _ := new(big.Int).SetString("21888242871839275222246405745257275088548364400416034343698204186575808495617", 10)
	return p
}
