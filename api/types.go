package api

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/vocdoni/sealed-tally/types"
)

// DecryptRequest carries a ciphertext point and its ephemeral point, both
// encoded with the curve point encoding.
type DecryptRequest struct {
	Message types.HexBytes `json:"message"`
	R       types.HexBytes `json:"r"`
}

// DecryptResponse is the encoding of the decrypted point, with its affine
// coordinates when the curve exposes them.
type DecryptResponse struct {
	Message types.HexBytes `json:"message"`
	X       *types.BigInt  `json:"x,omitempty"`
	Y       *types.BigInt  `json:"y,omitempty"`
}

// EncryptionKey is a public key of the tally authority.
type EncryptionKey struct {
	CurveType string         `json:"curveType"`
	PublicKey types.HexBytes `json:"publicKey"`
}

// EncryptionKeys lists the public keys of the tally authority.
type EncryptionKeys struct {
	Keys []EncryptionKey `json:"keys"`
}

// NewProposal is the request to create a proposal. The organizer is the
// address that signed the setup.
type NewProposal struct {
	types.ProposalSetup
	Signature types.HexBytes `json:"signature"`
}

// ProposalResponse is a proposal with its status, its current aggregate and
// its metadata if it is in the blob store.
type ProposalResponse struct {
	Proposal  *types.Proposal      `json:"proposal"`
	Status    types.ProposalStatus `json:"status"`
	Aggregate *types.Aggregate     `json:"aggregate"`
	Metadata  *types.Metadata      `json:"metadata,omitempty"`
}

// ProposalList is the list of registered proposal ids.
type ProposalList struct {
	Proposals []types.HexBytes `json:"proposals"`
}

// EligibilityProof is the Merkle proof of an address in the eligibility
// tree of a proposal.
type EligibilityProof struct {
	Address common.Address   `json:"address"`
	Root    types.HexBytes   `json:"root"`
	Hasher  string           `json:"hasher"`
	Proof   []types.HexBytes `json:"proof"`
}

// UploadResponse is the content identifier of an uploaded file.
type UploadResponse struct {
	CID string `json:"cid"`
}
