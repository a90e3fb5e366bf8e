package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/vocdoni/sealed-tally/ballotbox"
	"github.com/vocdoni/sealed-tally/crypto/ecc"
	"github.com/vocdoni/sealed-tally/crypto/ethereum"
	"github.com/vocdoni/sealed-tally/crypto/tally"
	"github.com/vocdoni/sealed-tally/log"
	"github.com/vocdoni/sealed-tally/types"
)

// httpWriteJSON helper function allows to write a JSON response.
func httpWriteJSON(w http.ResponseWriter, data any) {
	jdata, err := json.Marshal(data)
	if err != nil {
		ErrMarshalingServerJSONFailed.WithErr(err).Write(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	n, err := w.Write(jdata)
	if err != nil {
		log.Warnw("failed to write http response", "error", err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
	log.Debugw("api response", "bytes", n, "data", strings.ReplaceAll(string(jdata), "\"", ""))
}

// httpWriteOK helper function allows to write an OK response.
func httpWriteOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}

// proposalIDParam parses the proposal id URL parameter.
func proposalIDParam(r *http.Request) (types.HexBytes, error) {
	pid, err := types.ProposalIDFromHex(chi.URLParam(r, ProposalURLParam))
	if err != nil {
		return nil, err
	}
	return pid.Marshal(), nil
}

// addressParam parses the address URL parameter.
func addressParam(r *http.Request) (common.Address, error) {
	return ethereum.HexToAddress(chi.URLParam(r, AddressURLParam))
}

// ballotBoxError translates the errors of the ballot box into API errors.
func ballotBoxError(err error) Error {
	switch {
	case errors.Is(err, ballotbox.ErrUnknownProposal):
		return ErrProposalNotFound
	case errors.Is(err, ballotbox.ErrProposalExists):
		return ErrProposalAlreadyExists
	case errors.Is(err, ballotbox.ErrInvalidProposal):
		return ErrInvalidProposal.WithErr(err)
	case errors.Is(err, ballotbox.ErrNoEncryptionKey):
		return ErrNoEncryptionKey
	case errors.Is(err, ballotbox.ErrProposalNotOpen):
		return ErrProposalNotOpen
	case errors.Is(err, ballotbox.ErrProposalNotClosed):
		return ErrProposalNotClosed
	case errors.Is(err, ballotbox.ErrInvalidEligibilityProof):
		return ErrNotEligible
	case errors.Is(err, ballotbox.ErrCandidateCountMismatch):
		return ErrCandidateCountMismatch
	case errors.Is(err, ballotbox.ErrInvalidSignature):
		return ErrInvalidSignature
	case errors.Is(err, ballotbox.ErrAlreadyVoted):
		return ErrAlreadyVoted
	case errors.Is(err, ballotbox.ErrInvalidSum):
		return ErrInvalidSum
	case errors.Is(err, ballotbox.ErrInvalidVotes):
		return ErrInvalidVotes
	case errors.Is(err, ballotbox.ErrInvalidBallot), errors.Is(err, ecc.ErrInvalidCurvePoint):
		return ErrMalformedBallot
	case errors.Is(err, tally.ErrUnresolvedTally):
		return ErrUnresolvedTally
	default:
		return ErrGenericInternalServerError.WithErr(err)
	}
}
