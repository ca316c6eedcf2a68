package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/veilpoll/veilpoll/api"
	"github.com/veilpoll/veilpoll/api/client"
	"github.com/veilpoll/veilpoll/crypto/ecc/curves"
	"github.com/veilpoll/veilpoll/crypto/ethereum"
	"github.com/veilpoll/veilpoll/crypto/homomorphic"
	"github.com/veilpoll/veilpoll/log"
	"github.com/veilpoll/veilpoll/service"
	"github.com/veilpoll/veilpoll/storage"
	"github.com/veilpoll/veilpoll/tally"
	"github.com/veilpoll/veilpoll/types"
	"github.com/veilpoll/veilpoll/util"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
)

func init() {
	log.Init(log.LogLevelDebug, "stdout", nil)
}

// testService bundles the running API service with the pieces an integration
// test needs to drive the poll lifecycle end to end.
type testService struct {
	api    *service.APIService
	engine *tally.Engine
	sim    *homomorphic.Simulator
}

// newTestService starts a poll service backed by an on-disk database on a
// random localhost port.
func newTestService(t *testing.T, ctx context.Context) *testService {
	c := qt.New(t)

	database, err := metadb.New(db.TypePebble, filepath.Join(t.TempDir(), "db"))
	c.Assert(err, qt.IsNil)
	store := storage.New(database)
	t.Cleanup(store.Close)

	sim, err := homomorphic.NewSimulator(database, curves.CurveTypeBabyJubJub)
	c.Assert(err, qt.IsNil)
	engine := tally.New(store, sim)

	apiSrv := service.NewAPI(engine, "127.0.0.1", util.RandomInt(40000, 60000))
	c.Assert(apiSrv.Start(ctx), qt.IsNil)
	t.Cleanup(apiSrv.Stop)

	// Wait for the HTTP server to start
	time.Sleep(500 * time.Millisecond)

	return &testService{api: apiSrv, engine: engine, sim: sim}
}

// newTestClient creates a new API client for testing.
func newTestClient(port int) (*client.HTTPclient, error) {
	return client.New(fmt.Sprintf("http://127.0.0.1:%d", port))
}

// newTestSigner creates and initializes a new ethereum signer for testing.
func newTestSigner(c *qt.C) *ethereum.SignKeys {
	signer := ethereum.NewSignKeys()
	c.Assert(signer.Generate(), qt.IsNil)
	return signer
}

// createTestPoll signs and submits a poll definition and returns the stored
// poll record.
func createTestPoll(c *qt.C, cli *client.HTTPclient, creator *ethereum.SignKeys, startTime, endTime int64) *types.Poll {
	req := &api.CreatePollRequest{
		Title:       "Integration poll",
		Description: "full lifecycle over HTTP",
		Options:     []string{"Alpha", "Beta", "Gamma"},
		StartTime:   startTime,
		EndTime:     endTime,
	}
	c.Assert(req.Sign(creator), qt.IsNil)

	body, code, err := cli.Request(http.MethodPost, req, nil, api.PollsEndpoint)
	c.Assert(err, qt.IsNil)
	c.Assert(code, qt.Equals, http.StatusOK, qt.Commentf("response body %s", string(body)))

	var poll types.Poll
	c.Assert(json.NewDecoder(bytes.NewReader(body)).Decode(&poll), qt.IsNil)
	return &poll
}

// pollEncryptionKey fetches the poll public encryption key through the API.
func pollEncryptionKey(c *qt.C, cli *client.HTTPclient, pollID types.PollID) *types.EncryptionKey {
	endpoint := api.EndpointWithParam(api.PollKeyEndpoint, api.PollURLParam, pollID.String())
	body, code, err := cli.Request(http.MethodGet, nil, nil, endpoint)
	c.Assert(err, qt.IsNil)
	c.Assert(code, qt.Equals, http.StatusOK, qt.Commentf("response body %s", string(body)))

	var key types.EncryptionKey
	c.Assert(json.NewDecoder(bytes.NewReader(body)).Decode(&key), qt.IsNil)
	return &key
}

// castTestVote encrypts a choice under the poll key and submits it signed by
// the voter.
func castTestVote(c *qt.C, cli *client.HTTPclient, pollID types.PollID, key *types.EncryptionKey, voter *ethereum.SignKeys, choice uint64) {
	ballot, proof, err := homomorphic.EncryptBallot(pollID, key, choice, voter)
	c.Assert(err, qt.IsNil)

	vote := &api.VoteRequest{
		Voter:      voter.Address(),
		Ballot:     ballot,
		InputProof: proof,
	}
	endpoint := api.EndpointWithParam(api.VotesEndpoint, api.PollURLParam, pollID.String())
	body, code, err := cli.Request(http.MethodPost, vote, nil, endpoint)
	c.Assert(err, qt.IsNil)
	c.Assert(code, qt.Equals, http.StatusOK, qt.Commentf("response body %s", string(body)))
}

// waitForPollEnd sleeps until the poll voting window has passed.
func waitForPollEnd(poll *types.Poll) {
	end := time.Unix(poll.EndTime+1, 0)
	if d := time.Until(end); d > 0 {
		time.Sleep(d + 100*time.Millisecond)
	}
}
