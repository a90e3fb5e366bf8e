package ecc

import (
	"errors"
	"math/big"
)

var (
	// ErrInvalidCurvePoint is returned when a byte encoding does not
	// represent a point of the expected group.
	ErrInvalidCurvePoint = errors.New("invalid curve point")
	// ErrOutOfRangeScalar is returned when a scalar is outside [0, n).
	ErrOutOfRangeScalar = errors.New("scalar out of range")
)

// Point defines the common operations that can be performed on elliptic
// curve group elements. Every backend uses additive notation: the identity
// is the zero point and scalars are reduced modulo the group order.
type Point interface {
	// New returns a new element of the same group, set to the identity.
	New() Point

	// Order returns the order of the group (or prime order subgroup).
	Order() *big.Int

	// Add adds two group elements and stores the result in the receiver.
	Add(a, b Point)

	// SafeAdd is like Add but locks the receiver during the operation.
	SafeAdd(a, b Point)

	// ScalarMult multiplies the element a by the scalar and stores the
	// result in the receiver.
	ScalarMult(a Point, scalar *big.Int)

	// ScalarBaseMult multiplies the group generator by the scalar.
	ScalarBaseMult(scalar *big.Int)

	// Marshal serializes the element into its canonical byte encoding.
	Marshal() []byte

	// Unmarshal decodes the canonical encoding. It returns an error
	// wrapping ErrInvalidCurvePoint if buf is not an element of the group.
	Unmarshal(buf []byte) error

	// Equal reports whether both elements are the same group element.
	Equal(a Point) bool

	// Neg stores -a in the receiver.
	Neg(a Point)

	// SetZero sets the receiver to the identity element.
	SetZero()

	// IsZero reports whether the receiver is the identity element.
	IsZero() bool

	// Set copies a into the receiver.
	Set(a Point)

	// SetGenerator sets the receiver to the group generator.
	SetGenerator()

	// String returns a printable representation of the element.
	String() string

	// Type returns the curve type identifier.
	Type() string
}

// Coordinates is implemented by backends that expose affine coordinates.
type Coordinates interface {
	// Point returns the X and Y affine coordinates.
	Point() (*big.Int, *big.Int)

	// SetPoint returns a new element built from the X and Y coordinates.
	// Coordinates that do not describe an element of the prime order group
	// are rejected with an error wrapping ErrInvalidCurvePoint.
	SetPoint(x, y *big.Int) (Point, error)
}

// InField reports whether every value is a reduced element of the field of
// the given modulus.
func InField(modulus *big.Int, values ...*big.Int) bool {
	for _, v := range values {
		if v == nil || v.Sign() < 0 || v.Cmp(modulus) >= 0 {
			return false
		}
	}
	return true
}

// Sub returns a new element with the value a - b.
func Sub(a, b Point) Point {
	neg := b.New()
	neg.Neg(b)
	res := a.New()
	res.Add(a, neg)
	return res
}

// Generator returns a new element set to the generator of the group of p.
func Generator(p Point) Point {
	g := p.New()
	g.SetGenerator()
	return g
}

// Clone returns a copy of p.
func Clone(p Point) Point {
	c := p.New()
	c.Set(p)
	return c
}
