package tally

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/vocdoni/sealed-tally/crypto/ecc"
	"github.com/vocdoni/sealed-tally/crypto/ecc/curves"
	"github.com/vocdoni/sealed-tally/util"
)

// KeyPair is a tally authority key. The private scalar lives in memory only;
// String and Format never print it.
type KeyPair struct {
	Private *big.Int
	Public  ecc.Point
}

// GenerateKey generates a new key pair on the curve of the given point.
func GenerateKey(curve ecc.Point) (*KeyPair, error) {
	sk, err := ecc.RandomScalar(curve.Order())
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key scalar: %w", err)
	}
	return KeyFromScalar(curve, sk)
}

// KeyFromScalar builds the key pair of the private scalar sk, which must be
// in [1, n).
func KeyFromScalar(curve ecc.Point, sk *big.Int) (*KeyPair, error) {
	if err := ecc.CheckScalar(sk, curve.Order()); err != nil || sk.Sign() == 0 {
		return nil, fmt.Errorf("invalid private key: %w", ecc.ErrOutOfRangeScalar)
	}
	pub := curve.New()
	pub.ScalarBaseMult(sk)
	return &KeyPair{Private: new(big.Int).Set(sk), Public: pub}, nil
}

// KeyFromHex parses a big-endian hex private key for the given curve type.
func KeyFromHex(curveType, privHex string) (*KeyPair, error) {
	curve, err := curves.New(curveType)
	if err != nil {
		return nil, err
	}
	b, err := hex.DecodeString(util.TrimHex(privHex))
	if err != nil {
		return nil, fmt.Errorf("invalid private key encoding: %w", err)
	}
	return KeyFromScalar(curve, new(big.Int).SetBytes(b))
}

// CurveType returns the curve type of the key.
func (k *KeyPair) CurveType() string {
	return k.Public.Type()
}

func (k *KeyPair) String() string {
	return fmt.Sprintf("%s:%s", k.Public.Type(), k.Public.String())
}

// Format implements fmt.Formatter so that every verb prints the public part.
func (k *KeyPair) Format(f fmt.State, _ rune) {
	fmt.Fprint(f, k.String())
}

// Keyring holds one tally key per curve type.
type Keyring struct {
	mu   sync.RWMutex
	keys map[string]*KeyPair
}

// NewKeyring returns an empty keyring.
func NewKeyring() *Keyring {
	return &Keyring{keys: make(map[string]*KeyPair)}
}

// Add stores the key, replacing any key of the same curve type.
func (kr *Keyring) Add(k *KeyPair) {
	kr.mu.Lock()
	defer kr.mu.Unlock()
	kr.keys[k.CurveType()] = k
}

// Key returns the key for the curve type, if any.
func (kr *Keyring) Key(curveType string) (*KeyPair, bool) {
	kr.mu.RLock()
	defer kr.mu.RUnlock()
	k, ok := kr.keys[curveType]
	return k, ok
}

// Curves returns the sorted list of curve types with a key.
func (kr *Keyring) Curves() []string {
	kr.mu.RLock()
	defer kr.mu.RUnlock()
	list := make([]string, 0, len(kr.keys))
	for ct := range kr.keys {
		list = append(list, ct)
	}
	sort.Strings(list)
	return list
}
