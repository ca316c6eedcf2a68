package types

const (
	// MinPollOptions and MaxPollOptions bound the number of options a poll
	// can be created with.
	MinPollOptions = 2
	MaxPollOptions = 4
	// HandleSize is the length in bytes of a ciphertext handle minted by the
	// encryption subsystem.
	HandleSize = 32
	// ResultWordSize is the length in bytes of one encoded per option count
	// in a decrypted results payload.
	ResultWordSize = 32
	// MaxCountBits bounds a decoded per option count: each count must fit in
	// an unsigned 32 bit integer.
	MaxCountBits = 32
	// ParticipationTreeMaxLevels is the maximum number of levels in a poll
	// participation merkle tree.
	ParticipationTreeMaxLevels = 160
	// ParticipationKeyMaxLen is the maximum length of a participation tree
	// key in bytes.
	ParticipationKeyMaxLen = ParticipationTreeMaxLevels / 8
)
