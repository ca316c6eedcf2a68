package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/veilpoll/veilpoll/log"
	"github.com/veilpoll/veilpoll/storage"
	"github.com/veilpoll/veilpoll/tally"
	"github.com/veilpoll/veilpoll/types"
)

// httpWriteJSON helper function allows to write a JSON response.
func httpWriteJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	jdata, err := json.Marshal(data)
	if err != nil {
		ErrMarshalingServerJSONFailed.WithErr(err).Write(w)
		return
	}
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

// urlPollID parses the poll id URL parameter.
func urlPollID(r *http.Request) (types.PollID, error) {
	return types.PollIDFromString(chi.URLParam(r, PollURLParam))
}

// urlAddress parses the voter address URL parameter.
func urlAddress(r *http.Request) (common.Address, error) {
	param := chi.URLParam(r, VoterURLParam)
	if !common.IsHexAddress(param) {
		return common.Address{}, fmt.Errorf("not a hex address: %q", param)
	}
	return common.HexToAddress(param), nil
}

// writeEngineError maps a tally engine error to its API error and writes it.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tally.ErrPollNotFound):
		ErrPollNotFound.WithErr(err).Write(w)
	case errors.Is(err, tally.ErrEmptyTitle),
		errors.Is(err, tally.ErrInvalidOptionCount),
		errors.Is(err, tally.ErrEmptyOption),
		errors.Is(err, tally.ErrInvalidSchedule):
		ErrInvalidPollDefinition.WithErr(err).Write(w)
	case errors.Is(err, tally.ErrVotingNotStarted),
		errors.Is(err, tally.ErrVotingFinished),
		errors.Is(err, tally.ErrInvalidBallot):
		ErrVoteRejected.WithErr(err).Write(w)
	case errors.Is(err, tally.ErrAlreadyVoted):
		ErrAlreadyVoted.WithErr(err).Write(w)
	case errors.Is(err, tally.ErrPollStillRunning),
		errors.Is(err, tally.ErrPollAlreadyFinalized):
		ErrFinalizationRejected.WithErr(err).Write(w)
	case errors.Is(err, tally.ErrPollNotFinalized),
		errors.Is(err, tally.ErrResultsAlreadySubmitted):
		ErrResultsConflict.WithErr(err).Write(w)
	case errors.Is(err, tally.ErrInvalidResultsLength),
		errors.Is(err, tally.ErrInvalidDecryptionProof),
		errors.Is(err, tally.ErrCountExceedsLimit):
		ErrInvalidResults.WithErr(err).Write(w)
	case errors.Is(err, tally.ErrResultsNotAvailable):
		ErrResultsNotAvailable.WithErr(err).Write(w)
	case errors.Is(err, storage.ErrNotParticipant):
		ErrReceiptNotFound.WithErr(err).Write(w)
	default:
		ErrGenericInternalServerError.WithErr(err).Write(w)
	}
}
