// Package ethabi models Ethereum ABI values as a closed set of Go types and
// packs them with go-ethereum's ABI encoder.
package ethabi

import (
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Kind enumerates the shapes an Ethereum ABI value may take.
type Kind uint8

const (
	KindUint Kind = iota + 1
	KindInt
	KindBool
	KindFixedBytes
	KindBytes
	KindAddress
	KindFixedArray
	KindArray
	KindTuple
)

// wordSize is the byte length of one ABI word.
const wordSize = 32

// Type describes an Ethereum ABI type. Size is the bit width of integers,
// the byte length of fixed bytes and the length of fixed arrays.
//
// Fixed bytes longer than one word have no native ABI type; they are packed
// as bytes32[k] with the value right-padded to k whole words.
type Type struct {
	Kind       Kind
	Size       int
	Elem       *Type
	Components []Type
}

func Uint(size int) Type       { return Type{Kind: KindUint, Size: size} }
func Int(size int) Type        { return Type{Kind: KindInt, Size: size} }
func Bool() Type               { return Type{Kind: KindBool} }
func FixedBytes(size int) Type { return Type{Kind: KindFixedBytes, Size: size} }
func Bytes() Type              { return Type{Kind: KindBytes} }
func Address() Type            { return Type{Kind: KindAddress} }

func Tuple(components ...Type) Type {
	return Type{Kind: KindTuple, Components: components}
}

func Array(elem Type) Type {
	return Type{Kind: KindArray, Elem: &elem}
}

func FixedArray(elem Type, size int) Type {
	return Type{Kind: KindFixedArray, Elem: &elem, Size: size}
}

// String returns the canonical type name, e.g. "uint256" or "(bool,bytes)[]".
func (t Type) String() string {
	switch t.Kind {
	case KindTuple:
		s := "("
		for i, c := range t.Components {
			if i > 0 {
				s += ","
			}
			s += c.String()
		}
		return s + ")"
	case KindArray:
		return t.Elem.String() + "[]"
	case KindFixedArray:
		return t.Elem.String() + "[" + strconv.Itoa(t.Size) + "]"
	case KindFixedBytes:
		return "bytes" + strconv.Itoa(t.Size)
	default:
		return t.marshalingName()
	}
}

// marshalingName is the type name accepted by abi.NewType, with tuples
// spelled out as "tuple".
func (t Type) marshalingName() string {
	switch t.Kind {
	case KindUint:
		return "uint" + strconv.Itoa(t.Size)
	case KindInt:
		return "int" + strconv.Itoa(t.Size)
	case KindBool:
		return "bool"
	case KindFixedBytes:
		if t.Size > wordSize {
			return "bytes32[" + strconv.Itoa((t.Size+wordSize-1)/wordSize) + "]"
		}
		return "bytes" + strconv.Itoa(t.Size)
	case KindBytes:
		return "bytes"
	case KindAddress:
		return "address"
	case KindTuple:
		return "tuple"
	case KindArray:
		return t.Elem.marshalingName() + "[]"
	case KindFixedArray:
		return t.Elem.marshalingName() + "[" + strconv.Itoa(t.Size) + "]"
	default:
		return "unknown"
	}
}

// innermost returns the element type at the bottom of nested arrays.
func (t Type) innermost() Type {
	for t.Kind == KindArray || t.Kind == KindFixedArray {
		t = *t.Elem
	}
	return t
}

// components builds the go-ethereum description of tuple components,
// naming them f0, f1 and so on.
func (t Type) components() []abi.ArgumentMarshaling {
	inner := t.innermost()
	if inner.Kind != KindTuple {
		return nil
	}
	out := make([]abi.ArgumentMarshaling, len(inner.Components))
	for i, c := range inner.Components {
		out[i] = abi.ArgumentMarshaling{
			Name:       "f" + strconv.Itoa(i),
			Type:       c.marshalingName(),
			Components: c.components(),
		}
	}
	return out
}

// abiType converts t into a go-ethereum type.
func (t Type) abiType() (abi.Type, error) {
	return abi.NewType(t.marshalingName(), "", t.components())
}
