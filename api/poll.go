package api

import (
	"encoding/json"
	"net/http"

	"github.com/veilpoll/veilpoll/crypto/ethereum"
	"github.com/veilpoll/veilpoll/log"
)

// createPoll registers a new poll. The creator is recovered from the
// signature over the poll definition.
// POST /polls
func (a *API) createPoll(w http.ResponseWriter, r *http.Request) {
	req := &CreatePollRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}

	// Extract the creator address from the signature
	msg, err := req.Message()
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	creator, err := ethereum.AddrFromSignature(msg, req.Signature)
	if err != nil {
		ErrInvalidSignature.Withf("could not extract address from signature: %v", err).Write(w)
		return
	}

	poll, err := a.engine.CreatePoll(req.Title, req.Description, req.Options,
		req.StartTime, req.EndTime, creator)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	log.Infow("new poll", "pollId", poll.ID.String(), "creator", creator.Hex())
	httpWriteJSON(w, poll)
}

// listPolls returns the ids of all created polls.
// GET /polls
func (a *API) listPolls(w http.ResponseWriter, r *http.Request) {
	ids, err := a.engine.ListPolls()
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, &PollList{Count: uint64(len(ids)), Polls: ids})
}

// poll returns a single poll record.
// GET /polls/{pollId}
func (a *API) poll(w http.ResponseWriter, r *http.Request) {
	id, err := urlPollID(r)
	if err != nil {
		ErrMalformedPollID.WithErr(err).Write(w)
		return
	}
	poll, err := a.engine.Poll(id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	httpWriteJSON(w, poll)
}

// pollKey returns the poll's public encryption key.
// GET /polls/{pollId}/key
func (a *API) pollKey(w http.ResponseWriter, r *http.Request) {
	id, err := urlPollID(r)
	if err != nil {
		ErrMalformedPollID.WithErr(err).Write(w)
		return
	}
	key, err := a.engine.PollKey(id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	httpWriteJSON(w, key)
}
