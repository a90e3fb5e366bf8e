package curves

import (
	"errors"
	"fmt"

	"github.com/vocdoni/sealed-tally/crypto/ecc"
	bjj_gnark "github.com/vocdoni/sealed-tally/crypto/ecc/bjj_gnark"
	bjj_iden3 "github.com/vocdoni/sealed-tally/crypto/ecc/bjj_iden3"
	"github.com/vocdoni/sealed-tally/crypto/ecc/bn254"
	"github.com/vocdoni/sealed-tally/crypto/ecc/ed25519"
	"github.com/vocdoni/sealed-tally/crypto/ecc/secp256k1"
)

const (
	CurveTypeBabyJubJub      = "bjj_gnark" // Default bjj curve type
	CurveTypeBabyJubJubGnark = "bjj_gnark"
	CurveTypeBabyJubJubIden3 = "bjj_iden3"
	CurveTypeBN254           = "bn254"
	CurveTypeEd25519         = "ed25519"
	CurveTypeSecp256k1       = "secp256k1"
)

// ErrUnsupportedCurve is returned for unknown curve types.
var ErrUnsupportedCurve = errors.New("unsupported curve type")

// Curves returns the list of supported curve types.
func Curves() []string {
	return []string{
		CurveTypeEd25519,
		CurveTypeSecp256k1,
		CurveTypeBabyJubJubGnark,
		CurveTypeBabyJubJubIden3,
		CurveTypeBN254,
	}
}

// New creates a new instance of a Curve implementation based on the provided
// type string, set to the identity element.
func New(curveType string) (ecc.Point, error) {
	switch curveType {
	case CurveTypeBabyJubJubGnark:
		return bjj_gnark.New(), nil
	case CurveTypeBabyJubJubIden3:
		return bjj_iden3.New(), nil
	case CurveTypeBN254:
		return bn254.New(), nil
	case CurveTypeEd25519:
		return ed25519.New(), nil
	case CurveTypeSecp256k1:
		return secp256k1.New(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCurve, curveType)
	}
}

// IsValid reports whether curveType is supported.
func IsValid(curveType string) bool {
	_, err := New(curveType)
	return err == nil
}

// Decode returns the point of the given curve encoded in buf.
func Decode(curveType string, buf []byte) (ecc.Point, error) {
	p, err := New(curveType)
	if err != nil {
		return nil, err
	}
	if err := p.Unmarshal(buf); err != nil {
		return nil, err
	}
	return p, nil
}

// DecodeList decodes a list of points of the same curve.
func DecodeList(curveType string, list [][]byte) ([]ecc.Point, error) {
	points := make([]ecc.Point, len(list))
	for i, buf := range list {
		p, err := Decode(curveType, buf)
		if err != nil {
			return nil, err
		}
		points[i] = p
	}
	return points, nil
}
