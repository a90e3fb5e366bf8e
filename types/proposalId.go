package types

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ProposalID is the type to identify a proposal. It is composed of:
// - ChainID (4 bytes)
// - Organizer address (20 bytes)
// - Nonce (8 bytes)
type ProposalID struct {
	Organizer common.Address
	Nonce     uint64
	ChainID   uint32
}

// Marshal encodes the ProposalID to bytes.
func (p *ProposalID) Marshal() []byte {
	chainID := make([]byte, 4)
	binary.BigEndian.PutUint32(chainID, p.ChainID)

	nonce := make([]byte, 8)
	binary.BigEndian.PutUint64(nonce, p.Nonce)

	var id bytes.Buffer
	id.Write(chainID)
	id.Write(p.Organizer.Bytes())
	id.Write(nonce)
	return id.Bytes()
}

// Unmarshal decodes bytes to ProposalID.
func (p *ProposalID) Unmarshal(data []byte) error {
	if len(data) != ProposalIDLen {
		return fmt.Errorf("invalid ProposalID length: %d", len(data))
	}
	p.ChainID = binary.BigEndian.Uint32(data[:4])
	p.Organizer = common.BytesToAddress(data[4:24])
	p.Nonce = binary.BigEndian.Uint64(data[24:32])
	return nil
}

// MarshalBinary implements the BinaryMarshaler interface
func (p *ProposalID) MarshalBinary() (data []byte, err error) {
	return p.Marshal(), nil
}

// UnmarshalBinary implements the BinaryUnmarshaler interface
func (p *ProposalID) UnmarshalBinary(data []byte) error {
	return p.Unmarshal(data)
}

// String returns a human readable representation of the proposal ID.
func (p *ProposalID) String() string {
	return hex.EncodeToString(p.Marshal())
}

// ProposalIDFromHex parses a hex encoded proposal identifier.
func ProposalIDFromHex(s string) (*ProposalID, error) {
	data, err := HexStringToHexBytes(s)
	if err != nil {
		return nil, fmt.Errorf("invalid proposal id: %w", err)
	}
	pid := &ProposalID{}
	if err := pid.Unmarshal(data); err != nil {
		return nil, err
	}
	return pid, nil
}
