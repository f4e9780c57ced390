// Package abi implements the subset of the TON ABI 2.0 codec needed to call
// contract getters through external messages and to decode event payloads.
package abi

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	relayerrors "github.com/ClipFinance/ton-relay-lib/common/errors"
	"github.com/pkg/errors"
)

// Version is the ABI major version used in signatures.
const Version = 2

const (
	maxCellBits = 1023
	maxCellRefs = 4
	// arrayKeyBits is the key length of the dictionaries backing arrays.
	arrayKeyBits = 32
	// maxAddressBits is the size of the largest addr_var the codec accepts.
	maxAddressBits = 591
)

// Kind enumerates the shapes an ABI value may take.
type Kind uint8

const (
	KindUint Kind = iota + 1
	KindInt
	KindVarUint
	KindVarInt
	KindBool
	KindTuple
	KindArray
	KindFixedArray
	KindCell
	KindAddress
	KindBytes
	KindFixedBytes
	KindString
	KindGrams
	KindTime
	KindExpire
	KindPublicKey
)

var kindNames = map[Kind]string{
	KindUint:       "uint",
	KindInt:        "int",
	KindVarUint:    "varuint",
	KindVarInt:     "varint",
	KindBool:       "bool",
	KindTuple:      "tuple",
	KindArray:      "array",
	KindFixedArray: "fixedarray",
	KindCell:       "cell",
	KindAddress:    "address",
	KindBytes:      "bytes",
	KindFixedBytes: "fixedbytes",
	KindString:     "string",
	KindGrams:      "gram",
	KindTime:       "time",
	KindExpire:     "expire",
	KindPublicKey:  "pubkey",
}

// String returns the ABI name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParamType describes the type of a single ABI parameter.
//
// Size is the bit width for integers, the byte length for fixed bytes and the
// element count for fixed arrays. Elem is set for arrays, Components for tuples.
type ParamType struct {
	Kind       Kind
	Size       int
	Elem       *ParamType
	Components []Param
}

// Param is a named ABI parameter.
type Param struct {
	Name string
	Type ParamType
}

func Uint(size int) ParamType       { return ParamType{Kind: KindUint, Size: size} }
func Int(size int) ParamType        { return ParamType{Kind: KindInt, Size: size} }
func VarUint(size int) ParamType    { return ParamType{Kind: KindVarUint, Size: size} }
func VarInt(size int) ParamType     { return ParamType{Kind: KindVarInt, Size: size} }
func Bool() ParamType               { return ParamType{Kind: KindBool} }
func Cell() ParamType               { return ParamType{Kind: KindCell} }
func Address() ParamType            { return ParamType{Kind: KindAddress} }
func Bytes() ParamType              { return ParamType{Kind: KindBytes} }
func FixedBytes(size int) ParamType { return ParamType{Kind: KindFixedBytes, Size: size} }
func String() ParamType             { return ParamType{Kind: KindString} }
func Grams() ParamType              { return ParamType{Kind: KindGrams} }
func Time() ParamType               { return ParamType{Kind: KindTime} }
func Expire() ParamType             { return ParamType{Kind: KindExpire} }
func PublicKey() ParamType          { return ParamType{Kind: KindPublicKey} }

func Tuple(components ...Param) ParamType {
	return ParamType{Kind: KindTuple, Components: components}
}

func Array(elem ParamType) ParamType {
	return ParamType{Kind: KindArray, Elem: &elem}
}

func FixedArray(elem ParamType, size int) ParamType {
	return ParamType{Kind: KindFixedArray, Elem: &elem, Size: size}
}

// Signature returns the canonical type name used in function signatures.
func (t ParamType) Signature() string {
	switch t.Kind {
	case KindUint, KindInt, KindVarUint, KindVarInt, KindFixedBytes:
		return t.Kind.String() + strconv.Itoa(t.Size)
	case KindTuple:
		return "(" + paramsSignature(t.Components) + ")"
	case KindArray:
		return t.Elem.Signature() + "[]"
	case KindFixedArray:
		return t.Elem.Signature() + "[" + strconv.Itoa(t.Size) + "]"
	default:
		return t.Kind.String()
	}
}

func paramsSignature(params []Param) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Type.Signature()
	}
	return strings.Join(names, ",")
}

// maxBits is the largest number of data bits a value of type t occupies in
// its own cell.
func (t ParamType) maxBits() int {
	switch t.Kind {
	case KindUint, KindInt:
		return t.Size
	case KindVarUint, KindVarInt:
		return varLenBits(t.Size) + (t.Size-1)*8
	case KindBool:
		return 1
	case KindTuple:
		total := 0
		for _, c := range t.Components {
			total += c.Type.maxBits()
		}
		return total
	case KindArray:
		return 33
	case KindFixedArray:
		return 1
	case KindPublicKey:
		return 257
	case KindAddress:
		return maxAddressBits
	case KindFixedBytes:
		return t.Size * 8
	case KindGrams:
		return varLenBits(16) + 15*8
	case KindTime:
		return 64
	case KindExpire:
		return 32
	default:
		return 0
	}
}

func (t ParamType) maxRefs() int {
	switch t.Kind {
	case KindArray, KindFixedArray, KindCell, KindBytes, KindString:
		return 1
	case KindTuple:
		total := 0
		for _, c := range t.Components {
			total += c.Type.maxRefs()
		}
		return total
	default:
		return 0
	}
}

// valueInRef reports whether array elements of type t are stored behind a
// reference instead of inline in the dictionary leaf.
func (t ParamType) valueInRef() bool {
	return maxCellBits-arrayKeyBits < t.maxBits() || t.maxRefs() >= maxCellRefs
}

func varLenBits(size int) int {
	return bits.Len(uint(size - 1))
}

// ParseType parses an ABI type name such as "uint256", "address[]" or
// "tuple[3]". Components are required for tuple types.
func ParseType(name string, components []Param) (ParamType, error) {
	if strings.HasSuffix(name, "]") {
		open := strings.LastIndex(name, "[")
		if open <= 0 {
			return ParamType{}, errors.Wrapf(relayerrors.ErrInvalidSchema, "malformed array type %q", name)
		}
		elem, err := ParseType(name[:open], components)
		if err != nil {
			return ParamType{}, err
		}
		size := name[open+1 : len(name)-1]
		if size == "" {
			return Array(elem), nil
		}
		n, err := strconv.Atoi(size)
		if err != nil || n <= 0 {
			return ParamType{}, errors.Wrapf(relayerrors.ErrInvalidSchema, "malformed array size in %q", name)
		}
		return FixedArray(elem, n), nil
	}

	switch name {
	case "bool":
		return Bool(), nil
	case "cell":
		return Cell(), nil
	case "address":
		return Address(), nil
	case "bytes":
		return Bytes(), nil
	case "string":
		return String(), nil
	case "gram", "token":
		return Grams(), nil
	case "time":
		return Time(), nil
	case "expire":
		return Expire(), nil
	case "pubkey":
		return PublicKey(), nil
	case "tuple":
		if len(components) == 0 {
			return ParamType{}, errors.Wrap(relayerrors.ErrInvalidSchema, "tuple without components")
		}
		return Tuple(components...), nil
	}

	sized := []struct {
		prefix   string
		min, max int
		build    func(int) ParamType
	}{
		{"varuint", 2, 32, VarUint},
		{"varint", 2, 32, VarInt},
		{"fixedbytes", 1, 127, FixedBytes},
		{"uint", 1, 256, Uint},
		{"int", 1, 257, Int},
	}
	for _, s := range sized {
		if !strings.HasPrefix(name, s.prefix) {
			continue
		}
		n, err := strconv.Atoi(name[len(s.prefix):])
		if err != nil || n < s.min || n > s.max {
			return ParamType{}, errors.Wrapf(relayerrors.ErrInvalidSchema, "malformed type %q", name)
		}
		return s.build(n), nil
	}

	return ParamType{}, errors.Wrapf(relayerrors.ErrUnsupportedType, "%q", name)
}

type jsonParam struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Components []Param `json:"components,omitempty"`
}

// UnmarshalJSON reads a parameter in the {"name", "type", "components"} form.
func (p *Param) UnmarshalJSON(data []byte) error {
	var raw jsonParam
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(relayerrors.ErrInvalidSchema, err.Error())
	}
	t, err := ParseType(raw.Type, raw.Components)
	if err != nil {
		return err
	}
	p.Name = raw.Name
	p.Type = t
	return nil
}

// MarshalJSON writes the parameter in the form accepted by UnmarshalJSON.
func (p Param) MarshalJSON() ([]byte, error) {
	name, components := p.Type.jsonName()
	return json.Marshal(jsonParam{Name: p.Name, Type: name, Components: components})
}

func (t ParamType) jsonName() (string, []Param) {
	switch t.Kind {
	case KindTuple:
		return "tuple", t.Components
	case KindArray:
		name, components := t.Elem.jsonName()
		return name + "[]", components
	case KindFixedArray:
		name, components := t.Elem.jsonName()
		return name + "[" + strconv.Itoa(t.Size) + "]", components
	default:
		return t.Signature(), nil
	}
}
