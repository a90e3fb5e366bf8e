package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"path"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vocdoni/sealed-tally/api"
	"github.com/vocdoni/sealed-tally/crypto/ethereum"
	"github.com/vocdoni/sealed-tally/crypto/merkle"
	"github.com/vocdoni/sealed-tally/types"
)

// decode checks the response and unmarshals it into out.
func decode(data []byte, status int, err error, out any) error {
	if err := checkResponse(data, status, err); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// CreateProposal signs the setup with the organizer key and registers the
// proposal.
func (c *HTTPclient) CreateProposal(setup *types.ProposalSetup, organizer *ethereum.SignKeys) (*types.Proposal, error) {
	signature, err := organizer.SignEthereum(setup.SignatureMessage())
	if err != nil {
		return nil, err
	}
	req := &api.NewProposal{ProposalSetup: *setup, Signature: signature}
	p := &types.Proposal{}
	data, status, err := c.Request(HTTPPOST, req, api.ProposalsEndpoint)
	if err := decode(data, status, err, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Proposal returns the proposal, its status and its current aggregate.
func (c *HTTPclient) Proposal(id types.HexBytes) (*api.ProposalResponse, error) {
	res := &api.ProposalResponse{}
	data, status, err := c.Request(HTTPGET, nil, api.ProposalsEndpoint, id.Hex())
	if err := decode(data, status, err, res); err != nil {
		return nil, err
	}
	return res, nil
}

// EligibilityProof returns the Merkle proof of the address.
func (c *HTTPclient) EligibilityProof(id types.HexBytes, addr common.Address) (merkle.Proof, error) {
	res := &api.EligibilityProof{}
	data, status, err := c.Request(HTTPGET, nil, api.ProposalsEndpoint, id.Hex(), "proof", addr.Hex())
	if err := decode(data, status, err, res); err != nil {
		return nil, err
	}
	list := make([][]byte, len(res.Proof))
	for i, n := range res.Proof {
		list[i] = n
	}
	return merkle.ProofFromBytes(list)
}

// Vote submits a signed vote and returns the receipt.
func (c *HTTPclient) Vote(v *types.Vote) (*types.Receipt, error) {
	receipt := &types.Receipt{}
	data, status, err := c.Request(HTTPPOST, v, api.VotesEndpoint)
	if err := decode(data, status, err, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// Receipt returns the vote receipt of the address.
func (c *HTTPclient) Receipt(id types.HexBytes, addr common.Address) (*types.Receipt, error) {
	receipt := &types.Receipt{}
	data, status, err := c.Request(HTTPGET, nil, api.ProposalsEndpoint, id.Hex(), "receipts", addr.Hex())
	if err := decode(data, status, err, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// Tally returns the results of a closed proposal.
func (c *HTTPclient) Tally(id types.HexBytes) (*types.TallyResult, error) {
	result := &types.TallyResult{}
	data, status, err := c.Request(HTTPGET, nil, api.ProposalsEndpoint, id.Hex(), "tally")
	if err := decode(data, status, err, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Decrypt asks the tally authority to decrypt the point C with ephemeral
// point R on the given curve.
func (c *HTTPclient) Decrypt(curveType string, ciphertext, ephemeral []byte) (*api.DecryptResponse, error) {
	res := &api.DecryptResponse{}
	req := &api.DecryptRequest{Message: ciphertext, R: ephemeral}
	data, status, err := c.Request(HTTPPOST, req, "decrypt", curveType)
	if err := decode(data, status, err, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Upload stores a file in the metadata storage and returns its content
// identifier.
func (c *HTTPclient) Upload(name string, content []byte) (string, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(content); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}
	u := *c.host
	u.Path = path.Join(u.Path, api.StorageUploadEndpoint)
	resp, err := c.c.Post(u.String(), mw.FormDataContentType(), body)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	res := &api.UploadResponse{}
	if err := decode(data, resp.StatusCode, err, res); err != nil {
		return "", err
	}
	return res.CID, nil
}

// File returns the content of a stored file.
func (c *HTTPclient) File(cid string) ([]byte, error) {
	data, status, err := c.Request(HTTPGET, nil, "storage", cid)
	if err := decode(data, status, err, nil); err != nil {
		return nil, err
	}
	return data, nil
}

// SetMetadata uploads the proposal metadata as a JSON file and returns its
// content identifier.
func (c *HTTPclient) SetMetadata(metadata *types.Metadata) (string, error) {
	data, err := json.Marshal(metadata)
	if err != nil {
		return "", err
	}
	return c.Upload("metadata.json", data)
}
