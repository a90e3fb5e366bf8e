package types

const (
	// ProposalIDLen is the length in bytes of a marshaled ProposalID.
	ProposalIDLen = 32
	// MaxCandidates is the maximum number of candidates of a proposal.
	MaxCandidates = 128
	// DefaultMaxVotes bounds the discrete log search of a candidate tally.
	DefaultMaxVotes = 1 << 20
	// MaxVotesLimit caps the configurable search bound. The baby-step table
	// holds sqrt(max) points per candidate.
	MaxVotesLimit = 1 << 36
	// MaxMetadataSize is the maximum size of an uploaded metadata blob (5 MiB).
	MaxMetadataSize = 5 << 20
	// CIDExtensionLen is the number of bytes reserved for the file extension
	// in a content identifier.
	CIDExtensionLen = 4
)
