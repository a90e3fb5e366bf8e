package ballot

import (
	"encoding/binary"
	"math/big"

	"github.com/gtank/merlin"

	"github.com/vocdoni/sealed-tally/crypto/ecc"
)

const transcriptLabel = "sealed-tally challenge v1"

// DeriveChallenge derives the challenge scalar of a proposal from its public
// parameters, so every party can recompute it. The result is in [1, n).
func DeriveChallenge(proposalID, root []byte, candidates int, order *big.Int) *big.Int {
	t := merlin.NewTranscript(transcriptLabel)
	t.AppendMessage([]byte("proposal"), proposalID)
	t.AppendMessage([]byte("root"), root)
	t.AppendMessage([]byte("candidates"), binary.BigEndian.AppendUint64(nil, uint64(candidates)))
	t.AppendMessage([]byte("order"), order.Bytes())
	// 64 bytes keep the modular bias negligible for 256 bit orders
	out := new(big.Int).SetBytes(t.ExtractBytes([]byte("challenge"), 64))
	out.Mod(out, new(big.Int).Sub(order, big.NewInt(1)))
	return out.Add(out, big.NewInt(1))
}

// RandomChallenge returns a random challenge scalar in [1, n).
func RandomChallenge(order *big.Int) (*big.Int, error) {
	return ecc.RandomScalar(order)
}
