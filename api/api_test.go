package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/jonboulle/clockwork"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/veilpoll/veilpoll/crypto/ecc/curves"
	"github.com/veilpoll/veilpoll/crypto/ethereum"
	"github.com/veilpoll/veilpoll/crypto/homomorphic"
	"github.com/veilpoll/veilpoll/storage"
	"github.com/veilpoll/veilpoll/tally"
	"github.com/veilpoll/veilpoll/types"
)

const (
	HTTPGET  = http.MethodGet
	HTTPPOST = http.MethodPost
)

type testAPI struct {
	url   string
	sim   *homomorphic.Simulator
	clock clockwork.FakeClock
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	c := qt.New(t)

	database, err := metadb.New(db.TypePebble, filepath.Join(t.TempDir(), "db"))
	c.Assert(err, qt.IsNil)
	store := storage.New(database)
	t.Cleanup(store.Close)

	sim, err := homomorphic.NewSimulator(database, curves.CurveTypeBabyJubJub)
	c.Assert(err, qt.IsNil)
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	a := &API{engine: tally.NewWithClock(store, sim, clock)}
	a.initRouter()
	server := httptest.NewServer(a.Router())
	t.Cleanup(server.Close)

	return &testAPI{url: server.URL, sim: sim, clock: clock}
}

// request performs an HTTP request against the test server and returns the
// status code and response body.
func (ta *testAPI) request(t *testing.T, method, urlPath string, body any) (int, []byte) {
	t.Helper()
	c := qt.New(t)

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		c.Assert(err, qt.IsNil)
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ta.url+urlPath, reqBody)
	c.Assert(err, qt.IsNil)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	c.Assert(err, qt.IsNil)
	defer func() { c.Assert(resp.Body.Close(), qt.IsNil) }()
	data, err := io.ReadAll(resp.Body)
	c.Assert(err, qt.IsNil)
	return resp.StatusCode, data
}

func newSigner(t *testing.T) *ethereum.SignKeys {
	t.Helper()
	signer := ethereum.NewSignKeys()
	qt.Assert(t, signer.Generate(), qt.IsNil)
	return signer
}

// createPoll signs and submits a poll definition, returning the created poll.
func (ta *testAPI) createPoll(t *testing.T, creator *ethereum.SignKeys, options []string, start, end int64) *types.Poll {
	t.Helper()
	c := qt.New(t)

	req := &CreatePollRequest{
		Title:     "Election",
		Options:   options,
		StartTime: start,
		EndTime:   end,
	}
	c.Assert(req.Sign(creator), qt.IsNil)
	status, body := ta.request(t, HTTPPOST, PollsEndpoint, req)
	c.Assert(status, qt.Equals, http.StatusOK, qt.Commentf("body: %s", body))

	poll := &types.Poll{}
	c.Assert(json.Unmarshal(body, poll), qt.IsNil)
	return poll
}

func TestAPIPollLifecycle(t *testing.T) {
	c := qt.New(t)
	ta := newTestAPI(t)

	status, _ := ta.request(t, HTTPGET, PingEndpoint, nil)
	c.Assert(status, qt.Equals, http.StatusOK)

	creator := newSigner(t)
	now := ta.clock.Now().Unix()
	poll := ta.createPoll(t, creator, []string{"Alpha", "Beta", "Gamma"}, now, now+3600)
	c.Assert(poll.ID, qt.Equals, types.PollID(0))
	c.Assert(poll.Creator, qt.Equals, creator.Address())
	c.Assert(poll.EncryptedCounts, qt.HasLen, 3)

	// list and read back
	status, body := ta.request(t, HTTPGET, PollsEndpoint, nil)
	c.Assert(status, qt.Equals, http.StatusOK)
	list := &PollList{}
	c.Assert(json.Unmarshal(body, list), qt.IsNil)
	c.Assert(list.Count, qt.Equals, uint64(1))
	c.Assert(list.Polls, qt.DeepEquals, []types.PollID{0})

	status, body = ta.request(t, HTTPGET, "/polls/0", nil)
	c.Assert(status, qt.Equals, http.StatusOK)
	got := &types.Poll{}
	c.Assert(json.Unmarshal(body, got), qt.IsNil)
	c.Assert(got.Title, qt.Equals, "Election")

	// vote with a ballot encrypted under the poll key
	status, body = ta.request(t, HTTPGET, "/polls/0/key", nil)
	c.Assert(status, qt.Equals, http.StatusOK)
	key := &types.EncryptionKey{}
	c.Assert(json.Unmarshal(body, key), qt.IsNil)

	voter := newSigner(t)
	ballot, proof, err := homomorphic.EncryptBallot(poll.ID, key, 1, voter)
	c.Assert(err, qt.IsNil)
	status, body = ta.request(t, HTTPPOST, "/polls/0/votes", &VoteRequest{
		Voter:      voter.Address(),
		Ballot:     ballot,
		InputProof: proof,
	})
	c.Assert(status, qt.Equals, http.StatusOK, qt.Commentf("body: %s", body))

	// vote status flips for the voter only
	status, body = ta.request(t, HTTPGET, fmt.Sprintf("/polls/0/votes/%s", voter.Address().Hex()), nil)
	c.Assert(status, qt.Equals, http.StatusOK)
	voteStatus := &VoteStatus{}
	c.Assert(json.Unmarshal(body, voteStatus), qt.IsNil)
	c.Assert(voteStatus.HasVoted, qt.IsTrue)

	status, body = ta.request(t, HTTPGET, fmt.Sprintf("/polls/0/votes/%s", creator.Address().Hex()), nil)
	c.Assert(status, qt.Equals, http.StatusOK)
	voteStatus = &VoteStatus{}
	c.Assert(json.Unmarshal(body, voteStatus), qt.IsNil)
	c.Assert(voteStatus.HasVoted, qt.IsFalse)

	// participation receipt verifies, non-voters get none
	status, body = ta.request(t, HTTPGET, fmt.Sprintf("/polls/0/votes/%s/receipt", voter.Address().Hex()), nil)
	c.Assert(status, qt.Equals, http.StatusOK)
	receipt := &types.ParticipationProof{}
	c.Assert(json.Unmarshal(body, receipt), qt.IsNil)
	c.Assert(storage.VerifyParticipationProof(receipt), qt.IsTrue)

	status, _ = ta.request(t, HTTPGET, fmt.Sprintf("/polls/0/votes/%s/receipt", creator.Address().Hex()), nil)
	c.Assert(status, qt.Equals, http.StatusNotFound)

	// duplicate vote conflicts
	status, body = ta.request(t, HTTPPOST, "/polls/0/votes", &VoteRequest{
		Voter:      voter.Address(),
		Ballot:     ballot,
		InputProof: proof,
	})
	c.Assert(status, qt.Equals, http.StatusConflict)
	c.Assert(string(body), qt.Contains, "already voted")

	// finalize only after the window closes
	status, _ = ta.request(t, HTTPPOST, "/polls/0/finalize", nil)
	c.Assert(status, qt.Equals, http.StatusConflict)

	ta.clock.Advance(2 * time.Hour)
	status, body = ta.request(t, HTTPPOST, "/polls/0/finalize", nil)
	c.Assert(status, qt.Equals, http.StatusOK, qt.Commentf("body: %s", body))
	status, _ = ta.request(t, HTTPPOST, "/polls/0/finalize", nil)
	c.Assert(status, qt.Equals, http.StatusConflict)

	// decrypt through the oracle and publish
	status, body = ta.request(t, HTTPGET, "/polls/0/results/encrypted", nil)
	c.Assert(status, qt.Equals, http.StatusOK)
	encrypted := &EncryptedResults{}
	c.Assert(json.Unmarshal(body, encrypted), qt.IsNil)
	c.Assert(encrypted.Handles, qt.HasLen, 3)

	status, _ = ta.request(t, HTTPGET, "/polls/0/results", nil)
	c.Assert(status, qt.Equals, http.StatusNotFound)

	encoded, resultsProof, err := ta.sim.DecryptTally(poll.ID, encrypted.Handles)
	c.Assert(err, qt.IsNil)
	status, body = ta.request(t, HTTPPOST, "/polls/0/results", &SubmitResultsRequest{
		Results: encoded,
		Proof:   resultsProof,
	})
	c.Assert(status, qt.Equals, http.StatusOK, qt.Commentf("body: %s", body))

	status, body = ta.request(t, HTTPGET, "/polls/0/results", nil)
	c.Assert(status, qt.Equals, http.StatusOK)
	results := &ResultsResponse{}
	c.Assert(json.Unmarshal(body, results), qt.IsNil)
	c.Assert(results.Counts, qt.DeepEquals, []uint64{0, 1, 0})

	status, body = ta.request(t, HTTPGET, "/polls/0/results/verification", nil)
	c.Assert(status, qt.Equals, http.StatusOK)
	verification := &tally.ResultVerification{}
	c.Assert(json.Unmarshal(body, verification), qt.IsNil)
	c.Assert(verification.EncodedResults, qt.DeepEquals, types.HexBytes(encoded))
	c.Assert(ta.sim.VerifyDecryption(poll.ID, verification.Handles,
		verification.EncodedResults, verification.Proof), qt.IsNil)

	status, _ = ta.request(t, HTTPPOST, "/polls/0/results", &SubmitResultsRequest{
		Results: encoded,
		Proof:   resultsProof,
	})
	c.Assert(status, qt.Equals, http.StatusConflict)
}

func TestAPIRequestValidation(t *testing.T) {
	c := qt.New(t)
	ta := newTestAPI(t)
	now := ta.clock.Now().Unix()

	// signature that cannot be recovered
	req := &CreatePollRequest{
		Title:     "Election",
		Options:   []string{"a", "b"},
		StartTime: now,
		EndTime:   now + 3600,
		Signature: types.HexBytes{0x01, 0x02},
	}
	status, body := ta.request(t, HTTPPOST, PollsEndpoint, req)
	c.Assert(status, qt.Equals, http.StatusBadRequest)
	c.Assert(string(body), qt.Contains, "40004")

	// definition rejected by the engine
	creator := newSigner(t)
	req = &CreatePollRequest{
		Title:     "Election",
		Options:   []string{"a"},
		StartTime: now,
		EndTime:   now + 3600,
	}
	c.Assert(req.Sign(creator), qt.IsNil)
	status, body = ta.request(t, HTTPPOST, PollsEndpoint, req)
	c.Assert(status, qt.Equals, http.StatusBadRequest)
	c.Assert(string(body), qt.Contains, "40006")

	// malformed poll ids and addresses
	status, body = ta.request(t, HTTPGET, "/polls/notanumber", nil)
	c.Assert(status, qt.Equals, http.StatusBadRequest)
	c.Assert(string(body), qt.Contains, "40002")

	status, body = ta.request(t, HTTPGET, "/polls/0/votes/nothex", nil)
	c.Assert(status, qt.Equals, http.StatusBadRequest)
	c.Assert(string(body), qt.Contains, "40003")

	// unknown poll
	status, body = ta.request(t, HTTPGET, "/polls/42", nil)
	c.Assert(status, qt.Equals, http.StatusNotFound)
	c.Assert(string(body), qt.Contains, "40005")

	// malformed body
	resp, err := http.Post(ta.url+PollsEndpoint, "application/json", bytes.NewReader([]byte("{broken")))
	c.Assert(err, qt.IsNil)
	defer func() { c.Assert(resp.Body.Close(), qt.IsNil) }()
	c.Assert(resp.StatusCode, qt.Equals, http.StatusBadRequest)
	data, err := io.ReadAll(resp.Body)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Contains, "40001")
}
