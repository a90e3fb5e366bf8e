package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
)

func TestProposalIDMarshal(t *testing.T) {
	c := qt.New(t)
	pid := &ProposalID{
		Organizer: common.HexToAddress("0x0102030405060708090a0b0c0d0e0f1011121314"),
		Nonce:     7,
		ChainID:   11155111,
	}
	data := pid.Marshal()
	c.Assert(data, qt.HasLen, ProposalIDLen)

	decoded, err := ProposalIDFromHex(pid.String())
	c.Assert(err, qt.IsNil)
	c.Assert(decoded, qt.DeepEquals, pid)

	c.Assert(new(ProposalID).Unmarshal(data[:31]), qt.IsNotNil)
}

func TestHexBytesJSON(t *testing.T) {
	c := qt.New(t)
	hb := HexBytes{0xde, 0xad, 0xbe, 0xef}
	data, err := json.Marshal(hb)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, `"deadbeef"`)

	var decoded HexBytes
	c.Assert(json.Unmarshal([]byte(`"0xdeadbeef"`), &decoded), qt.IsNil)
	c.Assert(decoded, qt.DeepEquals, hb)
	c.Assert(json.Unmarshal([]byte(`"zz"`), &decoded), qt.IsNotNil)
}

func TestProposalStatus(t *testing.T) {
	c := qt.New(t)
	start := time.Unix(1000, 0)
	p := &Proposal{StartTime: start, EndTime: start.Add(time.Hour)}
	c.Assert(p.Status(start.Add(-time.Second)), qt.Equals, ProposalPending)
	c.Assert(p.Status(start), qt.Equals, ProposalOpen)
	c.Assert(p.Status(start.Add(time.Hour)), qt.Equals, ProposalClosed)

	data, err := json.Marshal(map[string]ProposalStatus{"status": ProposalOpen})
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, `{"status":"open"}`)
	var decoded map[string]ProposalStatus
	c.Assert(json.Unmarshal(data, &decoded), qt.IsNil)
	c.Assert(decoded["status"], qt.Equals, ProposalOpen)

	var s ProposalStatus
	c.Assert(s.UnmarshalText([]byte("finished")), qt.ErrorMatches, `unknown proposal status "finished"`)
}

func TestProposalSetupSignatureMessage(t *testing.T) {
	c := qt.New(t)
	now := time.Now()
	setup := &ProposalSetup{
		ChainID:    1,
		Nonce:      2,
		Candidates: 3,
		Voters:     []common.Address{common.HexToAddress("0x01")},
		StartTime:  now,
		EndTime:    now.Add(time.Hour),
	}
	msg := setup.SignatureMessage()

	// the organizer is recovered, not signed
	setup.Organizer = common.HexToAddress("0x02")
	c.Assert(setup.SignatureMessage(), qt.DeepEquals, msg)

	setup.Voters = append(setup.Voters, common.HexToAddress("0x03"))
	c.Assert(setup.SignatureMessage(), qt.Not(qt.DeepEquals), msg)
}
