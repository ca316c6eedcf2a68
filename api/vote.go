package api

import (
	"encoding/json"
	"net/http"

	"github.com/veilpoll/veilpoll/log"
)

// submitVote verifies and aggregates an encrypted ballot.
// POST /polls/{pollId}/votes
func (a *API) submitVote(w http.ResponseWriter, r *http.Request) {
	id, err := urlPollID(r)
	if err != nil {
		ErrMalformedPollID.WithErr(err).Write(w)
		return
	}
	vote := &VoteRequest{}
	if err := json.NewDecoder(r.Body).Decode(vote); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.engine.SubmitVote(id, vote.Voter, vote.Ballot, vote.InputProof); err != nil {
		writeEngineError(w, err)
		return
	}
	log.Infow("vote accepted", "pollId", id.String(), "voter", vote.Voter.Hex())
	httpWriteOK(w)
}

// voteStatus reports whether an address has voted in the poll.
// GET /polls/{pollId}/votes/{address}
func (a *API) voteStatus(w http.ResponseWriter, r *http.Request) {
	id, err := urlPollID(r)
	if err != nil {
		ErrMalformedPollID.WithErr(err).Write(w)
		return
	}
	voter, err := urlAddress(r)
	if err != nil {
		ErrMalformedAddress.WithErr(err).Write(w)
		return
	}
	voted, err := a.engine.HasVoted(id, voter)
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, &VoteStatus{HasVoted: voted})
}

// voteReceipt returns the participation inclusion proof of a voter.
// GET /polls/{pollId}/votes/{address}/receipt
func (a *API) voteReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := urlPollID(r)
	if err != nil {
		ErrMalformedPollID.WithErr(err).Write(w)
		return
	}
	voter, err := urlAddress(r)
	if err != nil {
		ErrMalformedAddress.WithErr(err).Write(w)
		return
	}
	receipt, err := a.engine.VoteReceipt(id, voter)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	httpWriteJSON(w, receipt)
}
