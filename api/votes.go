package api

import (
	"encoding/json"
	"net/http"

	"github.com/vocdoni/sealed-tally/types"
)

// newVote verifies a vote and folds it into the proposal aggregate
// POST /votes
func (a *API) newVote(w http.ResponseWriter, r *http.Request) {
	vote := &types.Vote{}
	if err := json.NewDecoder(r.Body).Decode(vote); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	receipt, err := a.bb.SubmitVote(vote)
	if err != nil {
		ballotBoxError(err).Write(w)
		return
	}
	httpWriteJSON(w, receipt)
}
