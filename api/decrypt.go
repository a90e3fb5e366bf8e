package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vocdoni/sealed-tally/crypto/ecc"
	"github.com/vocdoni/sealed-tally/crypto/ecc/curves"
	"github.com/vocdoni/sealed-tally/crypto/tally"
	"github.com/vocdoni/sealed-tally/types"
)

const (
	legacyDecryptCurve    = curves.CurveTypeEd25519
	legacyDecryptEVMCurve = curves.CurveTypeSecp256k1
)

// decrypt returns C - sk*R for the tally key of the curve in the URL
// POST /decrypt/{curve}
func (a *API) decrypt(w http.ResponseWriter, r *http.Request) {
	a.decryptWithCurve(chi.URLParam(r, CurveURLParam))(w, r)
}

// decryptWithCurve returns the decrypt handler of a fixed curve.
func (a *API) decryptWithCurve(curveType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !curves.IsValid(curveType) {
			ErrUnsupportedCurve.With(curveType).Write(w)
			return
		}
		key, ok := a.keys.Key(curveType)
		if !ok {
			ErrNoEncryptionKey.With(curveType).Write(w)
			return
		}
		req := &DecryptRequest{}
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
			return
		}
		c, err := curves.Decode(curveType, req.Message)
		if err != nil {
			ErrInvalidCurvePoint.With("message").Write(w)
			return
		}
		ephemeral, err := curves.Decode(curveType, req.R)
		if err != nil {
			ErrInvalidCurvePoint.With("r").Write(w)
			return
		}
		m, err := tally.Decrypt(c, ephemeral, key.Private)
		if err != nil {
			if errors.Is(err, ecc.ErrOutOfRangeScalar) {
				ErrOutOfRangeScalar.Write(w)
				return
			}
			ErrGenericInternalServerError.WithErr(err).Write(w)
			return
		}
		res := &DecryptResponse{Message: m.Marshal()}
		if coords, ok := m.(ecc.Coordinates); ok && !m.IsZero() {
			x, y := coords.Point()
			res.X, res.Y = types.NewBigInt(x), types.NewBigInt(y)
		}
		httpWriteJSON(w, res)
	}
}

// encryptionKeys lists the public keys of the tally authority
// GET /keys
func (a *API) encryptionKeys(w http.ResponseWriter, r *http.Request) {
	res := &EncryptionKeys{Keys: []EncryptionKey{}}
	for _, ct := range a.keys.Curves() {
		key, _ := a.keys.Key(ct)
		res.Keys = append(res.Keys, EncryptionKey{CurveType: ct, PublicKey: key.Public.Marshal()})
	}
	httpWriteJSON(w, res)
}
