package types

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ProposalStatus is the lifecycle state of a proposal, derived from its
// start and end times.
type ProposalStatus uint8

const (
	ProposalPending ProposalStatus = iota
	ProposalOpen
	ProposalClosed
)

func (s ProposalStatus) String() string {
	switch s {
	case ProposalPending:
		return "pending"
	case ProposalOpen:
		return "open"
	case ProposalClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s ProposalStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ProposalStatus) UnmarshalText(text []byte) error {
	for _, st := range []ProposalStatus{ProposalPending, ProposalOpen, ProposalClosed} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown proposal status %q", text)
}

// Proposal holds the public parameters of a confidential tally.
type Proposal struct {
	ID              HexBytes         `json:"id"                 cbor:"0,keyasint,omitempty"`
	Organizer       common.Address   `json:"organizer"          cbor:"1,keyasint,omitempty"`
	Candidates      int              `json:"candidates"         cbor:"2,keyasint,omitempty"`
	EligibilityRoot HexBytes         `json:"eligibilityRoot"    cbor:"3,keyasint,omitempty"`
	TreeHasher      string           `json:"treeHasher"         cbor:"4,keyasint,omitempty"`
	Challenge       *BigInt          `json:"challenge"          cbor:"5,keyasint,omitempty"`
	CurveType       string           `json:"curveType"          cbor:"6,keyasint,omitempty"`
	EncryptionKey   HexBytes         `json:"encryptionKey"      cbor:"7,keyasint,omitempty"`
	StartTime       time.Time        `json:"startTime"          cbor:"8,keyasint,omitempty"`
	EndTime         time.Time        `json:"endTime"            cbor:"9,keyasint,omitempty"`
	MetadataCID     string           `json:"metadataCid"        cbor:"10,keyasint,omitempty"`
	Voters          []common.Address `json:"voters"             cbor:"11,keyasint,omitempty"`
}

// Status returns the proposal status at the given time. The end time is
// exclusive: at EndTime the proposal is already closed.
func (p *Proposal) Status(now time.Time) ProposalStatus {
	switch {
	case now.Before(p.StartTime):
		return ProposalPending
	case now.Before(p.EndTime):
		return ProposalOpen
	default:
		return ProposalClosed
	}
}

func (p *Proposal) String() string {
	data, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return string(data)
}

// ProposalSetup is the struct to create a new proposal.
type ProposalSetup struct {
	Organizer   common.Address   `json:"organizer"`
	ChainID     uint32           `json:"chainId"`
	Nonce       uint64           `json:"nonce"`
	Candidates  int              `json:"candidates"`
	Voters      []common.Address `json:"voters"`
	CurveType   string           `json:"curveType"`
	TreeHasher  string           `json:"treeHasher,omitempty"`
	StartTime   time.Time        `json:"startTime"`
	EndTime     time.Time        `json:"endTime"`
	MetadataCID string           `json:"metadataCid,omitempty"`
}

// SignatureMessage returns the bytes the organizer signs to create the
// proposal. The organizer itself is not included since it is recovered
// from the signature.
func (s *ProposalSetup) SignatureMessage() []byte {
	var buf []byte
	appendString := func(str string) {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(str)))
		buf = append(buf, str...)
	}
	buf = binary.BigEndian.AppendUint32(buf, s.ChainID)
	buf = binary.BigEndian.AppendUint64(buf, s.Nonce)
	buf = binary.BigEndian.AppendUint64(buf, uint64(s.Candidates))
	appendString(s.CurveType)
	appendString(s.TreeHasher)
	buf = binary.BigEndian.AppendUint64(buf, uint64(s.StartTime.Unix()))
	buf = binary.BigEndian.AppendUint64(buf, uint64(s.EndTime.Unix()))
	appendString(s.MetadataCID)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s.Voters)))
	for _, v := range s.Voters {
		buf = append(buf, v.Bytes()...)
	}
	return buf
}

// Aggregate is a versioned snapshot of the per-candidate ciphertext sums and
// randomness sums of a proposal.
type Aggregate struct {
	ProposalID  HexBytes   `json:"proposalId"  cbor:"0,keyasint,omitempty"`
	Version     uint64     `json:"version"     cbor:"1,keyasint,omitempty"`
	Ciphertexts []HexBytes `json:"ciphertexts" cbor:"2,keyasint,omitempty"`
	Randomness  []*BigInt  `json:"randomness"  cbor:"3,keyasint,omitempty"`
}

// Vote is the wire form of a ballot submission. Points are encoded with the
// proposal curve's Marshal.
type Vote struct {
	ProposalID       HexBytes   `json:"proposalId"`
	Ciphertexts      []HexBytes `json:"ciphertexts"`
	Randomness       []*BigInt  `json:"randomness"`
	Commitments      []HexBytes `json:"commitments"`
	Responses        []*BigInt  `json:"responses"`
	EligibilityProof []HexBytes `json:"eligibilityProof"`
	Signature        HexBytes   `json:"signature"`
}

// Receipt records that an address has voted on a proposal.
type Receipt struct {
	ProposalID HexBytes       `json:"proposalId" cbor:"0,keyasint,omitempty"`
	Voter      common.Address `json:"voter"      cbor:"1,keyasint,omitempty"`
	Version    uint64         `json:"version"    cbor:"2,keyasint,omitempty"`
	Time       time.Time      `json:"time"       cbor:"3,keyasint,omitempty"`
}

// TallyResult holds the resolved counts of a closed proposal.
type TallyResult struct {
	ProposalID HexBytes `json:"proposalId" cbor:"0,keyasint,omitempty"`
	Version    uint64   `json:"version"    cbor:"1,keyasint,omitempty"`
	Results    []uint64 `json:"results"    cbor:"2,keyasint,omitempty"`
}
