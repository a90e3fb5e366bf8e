package api

const (
	// PingEndpoint is the endpoint for checking the API status
	PingEndpoint = "/ping"

	// CurveURLParam is the curve type of the decrypt endpoint
	CurveURLParam = "curve"
	// DecryptEndpoint decrypts a point with the tally authority key of a curve
	DecryptEndpoint = "/decrypt/{" + CurveURLParam + "}"
	// LegacyDecryptEndpoint and LegacyDecryptEVMEndpoint are the ed25519 and
	// secp256k1 decrypt endpoints under their historical paths
	LegacyDecryptEndpoint    = "/ec/decrypt"
	LegacyDecryptEVMEndpoint = "/ec/decrypt/evm"
	// EncryptionKeysEndpoint lists the public keys of the tally authority
	EncryptionKeysEndpoint = "/keys"

	// ProposalsEndpoint is the endpoint for creating and listing proposals
	ProposalsEndpoint = "/proposals"
	// ProposalEndpoint is the endpoint to get the proposal info and aggregate
	ProposalURLParam = "proposalId"
	ProposalEndpoint = "/proposals/{" + ProposalURLParam + "}"
	// ProposalProofEndpoint returns the eligibility proof of an address
	AddressURLParam       = "address"
	ProposalProofEndpoint = ProposalEndpoint + "/proof/{" + AddressURLParam + "}"
	// ProposalTallyEndpoint returns the results of a closed proposal
	ProposalTallyEndpoint = ProposalEndpoint + "/tally"
	// ProposalReceiptEndpoint returns the vote receipt of an address
	ProposalReceiptEndpoint = ProposalEndpoint + "/receipts/{" + AddressURLParam + "}"

	// VotesEndpoint is the endpoint for submitting a vote
	VotesEndpoint = "/votes"

	// StorageUploadEndpoint stores a metadata file and returns its CID
	StorageUploadEndpoint = "/storage/upload"
	// StorageFileEndpoint returns a stored file by its CID
	CIDURLParam         = "cid"
	StorageFileEndpoint = "/storage/{" + CIDURLParam + "}"
)
