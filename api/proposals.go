package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vocdoni/sealed-tally/crypto/ethereum"
	"github.com/vocdoni/sealed-tally/crypto/merkle"
	"github.com/vocdoni/sealed-tally/log"
	"github.com/vocdoni/sealed-tally/storage"
	"github.com/vocdoni/sealed-tally/types"
)

// newProposal creates a new proposal
// POST /proposals
func (a *API) newProposal(w http.ResponseWriter, r *http.Request) {
	req := &NewProposal{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}

	// Extract the organizer address from the signature
	organizer, err := ethereum.AddrFromSignature(req.SignatureMessage(), req.Signature)
	if err != nil {
		ErrInvalidSignature.Withf("could not extract address from signature: %v", err).Write(w)
		return
	}
	req.Organizer = organizer

	p, err := a.bb.CreateProposal(&req.ProposalSetup)
	if err != nil {
		ballotBoxError(err).Write(w)
		return
	}
	httpWriteJSON(w, p)
}

// proposals lists the registered proposals
// GET /proposals
func (a *API) proposals(w http.ResponseWriter, r *http.Request) {
	ids, err := a.bb.Proposals()
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	if ids == nil {
		ids = []types.HexBytes{}
	}
	httpWriteJSON(w, &ProposalList{Proposals: ids})
}

// proposal returns the proposal info and its current aggregate
// GET /proposals/{proposalId}
func (a *API) proposal(w http.ResponseWriter, r *http.Request) {
	pid, err := proposalIDParam(r)
	if err != nil {
		ErrMalformedProposalID.WithErr(err).Write(w)
		return
	}
	p, err := a.bb.Proposal(pid)
	if err != nil {
		ballotBoxError(err).Write(w)
		return
	}
	agg, err := a.bb.Aggregate(pid)
	if err != nil {
		ballotBoxError(err).Write(w)
		return
	}
	res := &ProposalResponse{
		Proposal:  p,
		Status:    p.Status(a.bb.Now()),
		Aggregate: agg,
	}
	if p.MetadataCID != "" {
		metadata, err := a.storage.Metadata(p.MetadataCID)
		if err != nil {
			log.Debugw("proposal metadata not available", "id", p.ID.Hex(), "cid", p.MetadataCID, "error", err)
		}
		res.Metadata = metadata
	}
	httpWriteJSON(w, res)
}

// eligibilityProof returns the Merkle proof of an address
// GET /proposals/{proposalId}/proof/{address}
func (a *API) eligibilityProof(w http.ResponseWriter, r *http.Request) {
	pid, err := proposalIDParam(r)
	if err != nil {
		ErrMalformedProposalID.WithErr(err).Write(w)
		return
	}
	addr, err := addressParam(r)
	if err != nil {
		ErrMalformedAddress.WithErr(err).Write(w)
		return
	}
	p, err := a.bb.Proposal(pid)
	if err != nil {
		ballotBoxError(err).Write(w)
		return
	}
	proof, err := a.bb.EligibilityProof(pid, addr)
	if err != nil {
		if errors.Is(err, merkle.ErrLeafNotFound) {
			ErrAddressNotInEligibleList.Write(w)
			return
		}
		ballotBoxError(err).Write(w)
		return
	}
	res := &EligibilityProof{
		Address: addr,
		Root:    p.EligibilityRoot,
		Hasher:  p.TreeHasher,
		Proof:   make([]types.HexBytes, len(proof)),
	}
	for i, n := range proof {
		res.Proof[i] = n.Bytes()
	}
	httpWriteJSON(w, res)
}

// tally returns the resolved counts of a closed proposal
// GET /proposals/{proposalId}/tally
func (a *API) tally(w http.ResponseWriter, r *http.Request) {
	pid, err := proposalIDParam(r)
	if err != nil {
		ErrMalformedProposalID.WithErr(err).Write(w)
		return
	}
	result, err := a.bb.Tally(pid)
	if err != nil {
		ballotBoxError(err).Write(w)
		return
	}
	httpWriteJSON(w, result)
}

// receipt returns the vote receipt of an address
// GET /proposals/{proposalId}/receipts/{address}
func (a *API) receipt(w http.ResponseWriter, r *http.Request) {
	pid, err := proposalIDParam(r)
	if err != nil {
		ErrMalformedProposalID.WithErr(err).Write(w)
		return
	}
	addr, err := addressParam(r)
	if err != nil {
		ErrMalformedAddress.WithErr(err).Write(w)
		return
	}
	receipt, err := a.bb.Receipt(pid, addr)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			ErrVoteNotFound.Write(w)
			return
		}
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, receipt)
}
