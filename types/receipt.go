package types

// ParticipationProof is a merkle proof of inclusion of a voter address in a
// poll participation tree. It lets a voter show they were counted without
// revealing anything about the ballot content.
type ParticipationProof struct {
	Root     HexBytes `json:"root"`
	Key      HexBytes `json:"key"`
	Value    HexBytes `json:"value"`
	Siblings HexBytes `json:"siblings"`
}
