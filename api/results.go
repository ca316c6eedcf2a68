package api

import (
	"encoding/json"
	"net/http"

	"github.com/veilpoll/veilpoll/log"
)

// finalizePoll closes an ended poll and grants decryption of its counters.
// POST /polls/{pollId}/finalize
func (a *API) finalizePoll(w http.ResponseWriter, r *http.Request) {
	id, err := urlPollID(r)
	if err != nil {
		ErrMalformedPollID.WithErr(err).Write(w)
		return
	}
	if err := a.engine.FinalizePoll(id); err != nil {
		writeEngineError(w, err)
		return
	}
	log.Infow("poll finalized", "pollId", id.String())
	httpWriteOK(w)
}

// submitResults publishes the externally decrypted tally.
// POST /polls/{pollId}/results
func (a *API) submitResults(w http.ResponseWriter, r *http.Request) {
	id, err := urlPollID(r)
	if err != nil {
		ErrMalformedPollID.WithErr(err).Write(w)
		return
	}
	req := &SubmitResultsRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.engine.SubmitDecryptedResults(id, req.Results, req.Proof); err != nil {
		writeEngineError(w, err)
		return
	}
	log.Infow("results accepted", "pollId", id.String())
	httpWriteOK(w)
}

// results returns the published per-option counts.
// GET /polls/{pollId}/results
func (a *API) results(w http.ResponseWriter, r *http.Request) {
	id, err := urlPollID(r)
	if err != nil {
		ErrMalformedPollID.WithErr(err).Write(w)
		return
	}
	counts, err := a.engine.DecryptedResults(id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	httpWriteJSON(w, &ResultsResponse{Counts: counts})
}

// encryptedResults returns the poll's current counter handles.
// GET /polls/{pollId}/results/encrypted
func (a *API) encryptedResults(w http.ResponseWriter, r *http.Request) {
	id, err := urlPollID(r)
	if err != nil {
		ErrMalformedPollID.WithErr(err).Write(w)
		return
	}
	handles, err := a.engine.EncryptedResults(id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	httpWriteJSON(w, &EncryptedResults{Handles: handles})
}

// resultsVerification returns the audit artifacts of a published tally.
// GET /polls/{pollId}/results/verification
func (a *API) resultsVerification(w http.ResponseWriter, r *http.Request) {
	id, err := urlPollID(r)
	if err != nil {
		ErrMalformedPollID.WithErr(err).Write(w)
		return
	}
	verification, err := a.engine.ResultVerification(id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	httpWriteJSON(w, verification)
}
