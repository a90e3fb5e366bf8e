//nolint:lll
package api

import (
	"fmt"
	"net/http"
)

// The custom Error type satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 40001-49999 range are the user's fault,
// and they return HTTP Status 400 or 404 (or even 204), whatever is most appropriate.
//
// Error codes 50001-59999 are the server's fault
// and they return HTTP Status 500 or 503, or something else if appropriate.
//
// NEVER change any of the current error codes, only append new errors after the current last 4XXX or 5XXX
// If you notice there's a gap (say, error code 4010, 4011 and 4013 exist, 4012 is missing) DON'T fill in the gap,
// that code was used in the past for some error (not anymore) and shouldn't be reused.
// There's no correlation between Code and HTTP Status.
var (
	ErrResourceNotFound         = Error{Code: 40001, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("resource not found")}
	ErrMalformedBody            = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed JSON body")}
	ErrInvalidSignature         = Error{Code: 40005, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid signature")}
	ErrMalformedProposalID      = Error{Code: 40006, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed proposal ID")}
	ErrProposalNotFound         = Error{Code: 40007, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("proposal not found")}
	ErrMalformedAddress         = Error{Code: 40008, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed address")}
	ErrInvalidCurvePoint        = Error{Code: 40009, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid curve point")}
	ErrUnsupportedCurve         = Error{Code: 40010, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("unsupported curve")}
	ErrProposalNotOpen          = Error{Code: 40011, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("proposal is not open")}
	ErrProposalNotClosed        = Error{Code: 40012, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("proposal is not closed yet")}
	ErrNotEligible              = Error{Code: 40013, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("eligibility proof not valid")}
	ErrCandidateCountMismatch   = Error{Code: 40014, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("candidate count mismatch")}
	ErrInvalidSum               = Error{Code: 40015, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("sum not valid")}
	ErrInvalidVotes             = Error{Code: 40016, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("votes not valid")}
	ErrAlreadyVoted             = Error{Code: 40017, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("address already voted")}
	ErrInvalidProposal          = Error{Code: 40018, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid proposal setup")}
	ErrProposalAlreadyExists    = Error{Code: 40019, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("proposal already exists")}
	ErrMalformedBallot          = Error{Code: 40020, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed ballot")}
	ErrMalformedCID             = Error{Code: 40021, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed content identifier")}
	ErrFileTooLarge             = Error{Code: 40022, HTTPstatus: http.StatusRequestEntityTooLarge, Err: fmt.Errorf("file too large")}
	ErrMalformedFile            = Error{Code: 40023, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed file upload")}
	ErrOutOfRangeScalar         = Error{Code: 40024, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("scalar out of range")}
	ErrVoteNotFound             = Error{Code: 40025, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("vote receipt not found")}
	ErrAddressNotInEligibleList = Error{Code: 40026, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("address is not eligible")}

	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("marshaling (server-side) JSON failed")}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("internal server error")}
	ErrNoEncryptionKey            = Error{Code: 50003, HTTPstatus: http.StatusServiceUnavailable, Err: fmt.Errorf("no tally key for curve")}
	ErrUnresolvedTally            = Error{Code: 50004, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("unresolved tally")}
)
