package types

import (
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// BigInt is a big.Int wrapper which marshals JSON to a string representation
// of the big number and CBOR to a bignum. Ballot scalars travel as BigInt.
type BigInt big.Int

// MarshalText returns the decimal string representation of the big number.
// If the receiver is nil, we return "0".
func (i *BigInt) MarshalText() ([]byte, error) {
	if i == nil {
		return []byte("0"), nil
	}
	return (*big.Int)(i).MarshalText()
}

// UnmarshalText parses the text representation into the big number.
func (i *BigInt) UnmarshalText(data []byte) error {
	if i == nil {
		return fmt.Errorf("cannot unmarshal into nil BigInt")
	}
	return (*big.Int)(i).UnmarshalText(data)
}

// MarshalCBOR encodes the number as a CBOR bignum.
func (i *BigInt) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(i.MathBigInt())
}

// UnmarshalCBOR decodes a CBOR bignum.
func (i *BigInt) UnmarshalCBOR(data []byte) error {
	n := new(big.Int)
	if err := cbor.Unmarshal(data, n); err != nil {
		return err
	}
	i.SetBigInt(n)
	return nil
}

// String returns the decimal representation of the number.
func (i *BigInt) String() string {
	return i.MathBigInt().String()
}

// SetBigInt sets the value of the receiver to n and returns it.
func (i *BigInt) SetBigInt(n *big.Int) *BigInt {
	(*big.Int)(i).Set(n)
	return i
}

// SetUint64 sets the value of the receiver to n and returns it.
func (i *BigInt) SetUint64(n uint64) *BigInt {
	(*big.Int)(i).SetUint64(n)
	return i
}

// MathBigInt converts b to a math/big *Int. A nil receiver returns zero.
func (i *BigInt) MathBigInt() *big.Int {
	if i == nil {
		return new(big.Int)
	}
	return new(big.Int).Set((*big.Int)(i))
}

// Bytes returns the big-endian absolute value of the number.
func (i *BigInt) Bytes() []byte {
	return i.MathBigInt().Bytes()
}

// Equal reports whether both numbers hold the same value.
func (i *BigInt) Equal(j *BigInt) bool {
	return i.MathBigInt().Cmp(j.MathBigInt()) == 0
}

// NewBigInt wraps n, which may be nil.
func NewBigInt(n *big.Int) *BigInt {
	if n == nil {
		return new(BigInt)
	}
	return new(BigInt).SetBigInt(n)
}

// BigIntSlice converts a list of big numbers into a list of BigInt.
func BigIntSlice(list []*big.Int) []*BigInt {
	res := make([]*BigInt, len(list))
	for i, n := range list {
		res[i] = NewBigInt(n)
	}
	return res
}

// MathBigIntSlice converts a list of BigInt into a list of big numbers.
func MathBigIntSlice(list []*BigInt) []*big.Int {
	res := make([]*big.Int, len(list))
	for i, n := range list {
		res[i] = n.MathBigInt()
	}
	return res
}
