package abi

import (
	"math/big"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Value is a decoded ABI value. The set of implementations is closed: every
// concrete type lives in this file.
type Value interface {
	// Type returns the ABI type the value encodes as.
	Type() ParamType
	isValue()
}

// Token is a named value, as produced by decoding a parameter list.
type Token struct {
	Name  string
	Value Value
}

type (
	// UintValue is an unsigned integer of Size bits.
	UintValue struct {
		Size   int
		Number *big.Int
	}

	// IntValue is a two's complement integer of Size bits.
	IntValue struct {
		Size   int
		Number *big.Int
	}

	// VarUintValue is a variable length unsigned integer of at most Size-1 bytes.
	VarUintValue struct {
		Size   int
		Number *big.Int
	}

	// VarIntValue is a variable length signed integer of at most Size-1 bytes.
	VarIntValue struct {
		Size   int
		Number *big.Int
	}

	BoolValue bool

	// TupleValue holds the tuple components in declaration order.
	TupleValue []Token

	ArrayValue struct {
		Elem  ParamType
		Items []Value
	}

	FixedArrayValue struct {
		Elem  ParamType
		Items []Value
	}

	CellValue struct {
		Cell *cell.Cell
	}

	AddressValue struct {
		Address *address.Address
	}

	BytesValue []byte

	FixedBytesValue []byte

	StringValue string

	// GramsValue is a nanoton amount.
	GramsValue struct {
		Number *big.Int
	}

	// TimeValue is the message creation time header in milliseconds.
	TimeValue uint64

	// ExpireValue is the message expiration header in seconds.
	ExpireValue uint32

	// PublicKeyValue is the optional signer key header; nil means absent.
	PublicKeyValue []byte
)

func (v UintValue) Type() ParamType       { return Uint(v.Size) }
func (v IntValue) Type() ParamType        { return Int(v.Size) }
func (v VarUintValue) Type() ParamType    { return VarUint(v.Size) }
func (v VarIntValue) Type() ParamType     { return VarInt(v.Size) }
func (BoolValue) Type() ParamType         { return Bool() }
func (v ArrayValue) Type() ParamType      { return Array(v.Elem) }
func (v FixedArrayValue) Type() ParamType { return FixedArray(v.Elem, len(v.Items)) }
func (CellValue) Type() ParamType         { return Cell() }
func (AddressValue) Type() ParamType      { return Address() }
func (BytesValue) Type() ParamType        { return Bytes() }
func (v FixedBytesValue) Type() ParamType { return FixedBytes(len(v)) }
func (StringValue) Type() ParamType       { return String() }
func (GramsValue) Type() ParamType        { return Grams() }
func (TimeValue) Type() ParamType         { return Time() }
func (ExpireValue) Type() ParamType       { return Expire() }
func (PublicKeyValue) Type() ParamType    { return PublicKey() }

func (v TupleValue) Type() ParamType {
	components := make([]Param, len(v))
	for i, token := range v {
		components[i] = Param{Name: token.Name, Type: token.Value.Type()}
	}
	return Tuple(components...)
}

func (UintValue) isValue()       {}
func (IntValue) isValue()        {}
func (VarUintValue) isValue()    {}
func (VarIntValue) isValue()     {}
func (BoolValue) isValue()       {}
func (TupleValue) isValue()      {}
func (ArrayValue) isValue()      {}
func (FixedArrayValue) isValue() {}
func (CellValue) isValue()       {}
func (AddressValue) isValue()    {}
func (BytesValue) isValue()      {}
func (FixedBytesValue) isValue() {}
func (StringValue) isValue()     {}
func (GramsValue) isValue()      {}
func (TimeValue) isValue()       {}
func (ExpireValue) isValue()     {}
func (PublicKeyValue) isValue()  {}

// NewUint is a shorthand for an unsigned integer value from a uint64.
func NewUint(size int, v uint64) UintValue {
	return UintValue{Size: size, Number: new(big.Int).SetUint64(v)}
}

// NewInt is a shorthand for a signed integer value from an int64.
func NewInt(size int, v int64) IntValue {
	return IntValue{Size: size, Number: big.NewInt(v)}
}

// Values strips the names off a token list.
func Values(tokens []Token) []Value {
	values := make([]Value, len(tokens))
	for i, t := range tokens {
		values[i] = t.Value
	}
	return values
}
