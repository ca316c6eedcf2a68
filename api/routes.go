package api

import "strings"

const (
	// PingEndpoint is the endpoint for checking the API status
	PingEndpoint = "/ping"
	// PollsEndpoint is the endpoint for creating and listing polls
	PollsEndpoint = "/polls"
	// PollEndpoint is the endpoint to get a single poll record
	PollURLParam = "pollId"
	PollEndpoint = PollsEndpoint + "/{" + PollURLParam + "}"
	// PollKeyEndpoint is the endpoint to get the poll encryption public key
	PollKeyEndpoint = PollEndpoint + "/key"
	// VotesEndpoint is the endpoint for submitting a vote
	VotesEndpoint = PollEndpoint + "/votes"
	// VoteStatusEndpoint is the endpoint to check whether an address voted
	VoterURLParam      = "address"
	VoteStatusEndpoint = VotesEndpoint + "/{" + VoterURLParam + "}"
	// VoteReceiptEndpoint is the endpoint for participation inclusion proofs
	VoteReceiptEndpoint = VoteStatusEndpoint + "/receipt"
	// FinalizeEndpoint is the endpoint to finalize an ended poll
	FinalizeEndpoint = PollEndpoint + "/finalize"
	// ResultsEndpoint is the endpoint for submitting and reading results
	ResultsEndpoint = PollEndpoint + "/results"
	// EncryptedResultsEndpoint is the endpoint for the counter handles
	EncryptedResultsEndpoint = ResultsEndpoint + "/encrypted"
	// ResultsVerificationEndpoint is the endpoint for the audit artifacts
	ResultsVerificationEndpoint = ResultsEndpoint + "/verification"
)

// EndpointWithParam replaces a named URL parameter in an endpoint template
// with the given value. For example:
//
//	EndpointWithParam(PollEndpoint, PollURLParam, "42") returns "/polls/42"
func EndpointWithParam(endpoint, param, value string) string {
	return strings.Replace(endpoint, "{"+param+"}", value, 1)
}
