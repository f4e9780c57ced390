// Package payload converts decoded TON event values into the Ethereum ABI
// payload relays sign.
package payload

import (
	"math/big"

	"github.com/ClipFinance/ton-relay-lib/chains/evm/ethabi"
	"github.com/ClipFinance/ton-relay-lib/chains/ton/abi"
	relayerrors "github.com/ClipFinance/ton-relay-lib/common/errors"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// MapValue converts a TON ABI value into its Ethereum ABI counterpart.
//
// Unsigned integers become uint256, signed integers become int256 and keep
// their sign. Bool, bytes and fixed bytes are copied; arrays and tuples are
// mapped element by element. Cells, addresses, strings and header values
// have no Ethereum counterpart.
//
// Parameters:
// - value: the TON ABI value to convert.
//
// Returns:
// - ethabi.Value: the mapped value.
// - error: ErrUnsupportedType naming the kind, or ErrIntegerOverflow if an
// integer does not fit 256 bits.
func MapValue(value abi.Value) (ethabi.Value, error) {
	switch v := value.(type) {
	case abi.UintValue:
		return mapUint(v.Number)
	case abi.VarUintValue:
		return mapUint(v.Number)
	case abi.IntValue:
		return mapInt(v.Number)
	case abi.VarIntValue:
		return mapInt(v.Number)
	case abi.BoolValue:
		return ethabi.BoolValue(v), nil
	case abi.FixedBytesValue:
		return ethabi.FixedBytesValue(append([]byte(nil), v...)), nil
	case abi.BytesValue:
		return ethabi.BytesValue(append([]byte(nil), v...)), nil
	case abi.TupleValue:
		items := make(ethabi.TupleValue, len(v))
		for i, token := range v {
			mapped, err := MapValue(token.Value)
			if err != nil {
				return nil, errors.Wrapf(err, "tuple component %q", token.Name)
			}
			items[i] = mapped
		}
		return items, nil
	case abi.ArrayValue:
		elem, items, err := mapItems(v.Elem, v.Items)
		if err != nil {
			return nil, err
		}
		return ethabi.ArrayValue{Elem: elem, Items: items}, nil
	case abi.FixedArrayValue:
		elem, items, err := mapItems(v.Elem, v.Items)
		if err != nil {
			return nil, err
		}
		return ethabi.FixedArrayValue{Elem: elem, Items: items}, nil
	case nil:
		return nil, errors.Wrap(relayerrors.ErrUnsupportedType, "nil value")
	default:
		return nil, errors.Wrapf(relayerrors.ErrUnsupportedType, "%s", value.Type().Kind)
	}
}

// MapType converts a TON ABI type into the Ethereum ABI type MapValue
// produces for it.
func MapType(t abi.ParamType) (ethabi.Type, error) {
	switch t.Kind {
	case abi.KindUint, abi.KindVarUint:
		return ethabi.Uint(256), nil
	case abi.KindInt, abi.KindVarInt:
		return ethabi.Int(256), nil
	case abi.KindBool:
		return ethabi.Bool(), nil
	case abi.KindFixedBytes:
		return ethabi.FixedBytes(t.Size), nil
	case abi.KindBytes:
		return ethabi.Bytes(), nil
	case abi.KindArray, abi.KindFixedArray:
		if t.Elem == nil {
			return ethabi.Type{}, errors.Wrapf(relayerrors.ErrUnsupportedType, "%s without element type", t.Kind)
		}
		elem, err := MapType(*t.Elem)
		if err != nil {
			return ethabi.Type{}, err
		}
		if t.Kind == abi.KindArray {
			return ethabi.Array(elem), nil
		}
		return ethabi.FixedArray(elem, t.Size), nil
	case abi.KindTuple:
		components := make([]ethabi.Type, len(t.Components))
		for i, c := range t.Components {
			mapped, err := MapType(c.Type)
			if err != nil {
				return ethabi.Type{}, err
			}
			components[i] = mapped
		}
		return ethabi.Tuple(components...), nil
	default:
		return ethabi.Type{}, errors.Wrapf(relayerrors.ErrUnsupportedType, "%s", t.Kind)
	}
}

// EncodeEventData maps decoded event tokens and packs them as consecutive
// Ethereum ABI arguments.
//
// Parameters:
// - tokens: the decoded event inputs in declaration order.
//
// Returns:
// - []byte: the Ethereum ABI encoding of the mapped values.
// - error: a mapping or encoding error.
func EncodeEventData(tokens []abi.Token) ([]byte, error) {
	values := make([]ethabi.Value, len(tokens))
	for i, token := range tokens {
		mapped, err := MapValue(token.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "event input %q", token.Name)
		}
		values[i] = mapped
	}
	return ethabi.Encode(values...)
}

func mapItems(elemType abi.ParamType, items []abi.Value) (ethabi.Type, []ethabi.Value, error) {
	elem, err := MapType(elemType)
	if err != nil {
		return ethabi.Type{}, nil, err
	}
	mapped := make([]ethabi.Value, len(items))
	for i, item := range items {
		if mapped[i], err = MapValue(item); err != nil {
			return ethabi.Type{}, nil, errors.Wrapf(err, "item %d", i)
		}
	}
	return elem, mapped, nil
}

func mapUint(n *big.Int) (ethabi.Value, error) {
	if n == nil {
		n = new(big.Int)
	}
	if n.Sign() < 0 {
		return nil, errors.Wrapf(relayerrors.ErrIntegerOverflow, "negative unsigned value %s", n)
	}
	number, overflow := uint256.FromBig(n)
	if overflow {
		return nil, errors.Wrapf(relayerrors.ErrIntegerOverflow, "%s does not fit uint256", n)
	}
	return ethabi.UintValue{Size: 256, Number: number}, nil
}

var (
	minInt256 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 255))
	maxInt256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))
)

func mapInt(n *big.Int) (ethabi.Value, error) {
	if n == nil {
		n = new(big.Int)
	}
	if n.Cmp(minInt256) < 0 || n.Cmp(maxInt256) > 0 {
		return nil, errors.Wrapf(relayerrors.ErrIntegerOverflow, "%s does not fit int256", n)
	}
	number, _ := uint256.FromBig(new(big.Int).Abs(n))
	if n.Sign() < 0 {
		number.Neg(number)
	}
	return ethabi.IntValue{Size: 256, Number: number}, nil
}
