package ethabi

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Value is an Ethereum ABI value. The set of implementations is closed.
type Value interface {
	Type() Type
	isValue()
}

type (
	// UintValue is an unsigned integer of Size bits.
	UintValue struct {
		Size   int
		Number *uint256.Int
	}

	// IntValue is a signed integer of Size bits. Number holds its 256-bit
	// two's complement representation.
	IntValue struct {
		Size   int
		Number *uint256.Int
	}

	BoolValue bool

	FixedBytesValue []byte

	BytesValue []byte

	AddressValue common.Address

	FixedArrayValue struct {
		Elem  Type
		Items []Value
	}

	ArrayValue struct {
		Elem  Type
		Items []Value
	}

	TupleValue []Value
)

func (v UintValue) Type() Type       { return Uint(v.Size) }
func (v IntValue) Type() Type        { return Int(v.Size) }
func (BoolValue) Type() Type         { return Bool() }
func (v FixedBytesValue) Type() Type { return FixedBytes(len(v)) }
func (BytesValue) Type() Type        { return Bytes() }
func (AddressValue) Type() Type      { return Address() }
func (v FixedArrayValue) Type() Type { return FixedArray(v.Elem, len(v.Items)) }
func (v ArrayValue) Type() Type      { return Array(v.Elem) }

func (v TupleValue) Type() Type {
	components := make([]Type, len(v))
	for i, item := range v {
		components[i] = item.Type()
	}
	return Tuple(components...)
}

func (UintValue) isValue()       {}
func (IntValue) isValue()        {}
func (BoolValue) isValue()       {}
func (FixedBytesValue) isValue() {}
func (BytesValue) isValue()      {}
func (AddressValue) isValue()    {}
func (FixedArrayValue) isValue() {}
func (ArrayValue) isValue()      {}
func (TupleValue) isValue()      {}

// NewUint is a shorthand for an unsigned integer value from a uint64.
func NewUint(size int, v uint64) UintValue {
	return UintValue{Size: size, Number: uint256.NewInt(v)}
}

// NewInt is a shorthand for a signed integer value from an int64.
func NewInt(size int, v int64) IntValue {
	n := uint256.NewInt(uint64(v))
	if v < 0 {
		// sign extend to 256 bits
		n.Neg(uint256.NewInt(uint64(-v)))
	}
	return IntValue{Size: size, Number: n}
}
