package ballotbox

import (
	"errors"

	"github.com/vocdoni/sealed-tally/crypto/ballot"
)

// Rejection reasons of the ballot box. None of them reveals the candidate a
// ballot targeted.
var (
	ErrUnknownProposal         = errors.New("unknown proposal id")
	ErrProposalExists          = errors.New("proposal already exists")
	ErrInvalidProposal         = errors.New("invalid proposal setup")
	ErrNoEncryptionKey         = errors.New("no encryption key for curve")
	ErrProposalNotOpen         = errors.New("proposal is not open")
	ErrProposalNotClosed       = errors.New("proposal is not closed yet")
	ErrInvalidEligibilityProof = errors.New("eligibility proof not valid")
	ErrCandidateCountMismatch  = errors.New("candidate count mismatch")
	ErrInvalidBallot           = errors.New("malformed ballot")
	ErrInvalidSignature        = errors.New("invalid vote signature")
	ErrAlreadyVoted            = errors.New("address already voted")
	ErrInvalidSum              = ballot.ErrInvalidSum
	ErrInvalidVotes            = ballot.ErrInvalidBindingProof
)
