package ethabi

import (
	"math/big"
	"reflect"

	relayerrors "github.com/ClipFinance/ton-relay-lib/common/errors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Encode packs values as the arguments of a call, without a selector.
//
// Parameters:
// - values: the top-level values in argument order.
//
// Returns:
// - []byte: the standard ABI encoding of the values.
// - error: an error if a value cannot be represented by its type.
func Encode(values ...Value) ([]byte, error) {
	args := make(abi.Arguments, len(values))
	goValues := make([]interface{}, len(values))
	for i, v := range values {
		typ, err := v.Type().abiType()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to build type %s", v.Type())
		}
		rv, err := goValue(v, typ.GetType())
		if err != nil {
			return nil, err
		}
		args[i] = abi.Argument{Type: typ}
		goValues[i] = rv.Interface()
	}

	packed, err := args.Pack(goValues...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack values")
	}
	return packed, nil
}

// goValue converts v into the Go representation go-ethereum expects for rt.
func goValue(v Value, rt reflect.Type) (reflect.Value, error) {
	switch v := v.(type) {
	case UintValue:
		if v.Number == nil || v.Number.BitLen() > v.Size {
			return reflect.Value{}, errors.Wrapf(relayerrors.ErrIntegerOverflow, "value does not fit uint%d", v.Size)
		}
		if isSmallUint(rt.Kind()) {
			out := reflect.New(rt).Elem()
			out.SetUint(v.Number.Uint64())
			return out, nil
		}
		return reflect.ValueOf(v.Number.ToBig()), nil
	case IntValue:
		if v.Number == nil {
			return reflect.Value{}, errors.Wrapf(relayerrors.ErrIntegerOverflow, "value does not fit int%d", v.Size)
		}
		n := toSigned(v.Number.ToBig())
		if !fitsSigned(n, v.Size) {
			return reflect.Value{}, errors.Wrapf(relayerrors.ErrIntegerOverflow, "value does not fit int%d", v.Size)
		}
		if isSmallInt(rt.Kind()) {
			out := reflect.New(rt).Elem()
			out.SetInt(n.Int64())
			return out, nil
		}
		return reflect.ValueOf(n), nil
	case BoolValue:
		return reflect.ValueOf(bool(v)), nil
	case FixedBytesValue:
		if len(v) > wordSize {
			return wideFixedBytes(v, rt)
		}
		if rt.Kind() != reflect.Array || rt.Len() != len(v) {
			return reflect.Value{}, errors.Errorf("fixed bytes of length %d do not match %s", len(v), rt)
		}
		out := reflect.New(rt).Elem()
		reflect.Copy(out, reflect.ValueOf([]byte(v)))
		return out, nil
	case BytesValue:
		return reflect.ValueOf([]byte(v)), nil
	case AddressValue:
		return reflect.ValueOf(common.Address(v)), nil
	case ArrayValue:
		out := reflect.MakeSlice(rt, len(v.Items), len(v.Items))
		if err := fillItems(out, v.Elem, v.Items, rt.Elem()); err != nil {
			return reflect.Value{}, err
		}
		return out, nil
	case FixedArrayValue:
		out := reflect.New(rt).Elem()
		if err := fillItems(out, v.Elem, v.Items, rt.Elem()); err != nil {
			return reflect.Value{}, err
		}
		return out, nil
	case TupleValue:
		out := reflect.New(rt).Elem()
		for i, item := range v {
			fv, err := goValue(item, rt.Field(i).Type)
			if err != nil {
				return reflect.Value{}, err
			}
			out.Field(i).Set(fv)
		}
		return out, nil
	default:
		return reflect.Value{}, errors.Wrapf(relayerrors.ErrUnsupportedType, "%T", v)
	}
}

func fillItems(out reflect.Value, elem Type, items []Value, rt reflect.Type) error {
	for i, item := range items {
		if item.Type().String() != elem.String() {
			return errors.Errorf("array item %d is %s, expected %s", i, item.Type(), elem)
		}
		iv, err := goValue(item, rt)
		if err != nil {
			return err
		}
		out.Index(i).Set(iv)
	}
	return nil
}

// wideFixedBytes splits v into the bytes32 words of its wire type,
// right-padding the last word with zeroes.
func wideFixedBytes(v FixedBytesValue, rt reflect.Type) (reflect.Value, error) {
	words := (len(v) + wordSize - 1) / wordSize
	if rt.Kind() != reflect.Array || rt.Len() != words ||
		rt.Elem().Kind() != reflect.Array || rt.Elem().Len() != wordSize {
		return reflect.Value{}, errors.Errorf("fixed bytes of length %d do not match %s", len(v), rt)
	}
	out := reflect.New(rt).Elem()
	for i := 0; i < words; i++ {
		end := (i + 1) * wordSize
		if end > len(v) {
			end = len(v)
		}
		reflect.Copy(out.Index(i), reflect.ValueOf([]byte(v[i*wordSize:end])))
	}
	return out, nil
}

// toSigned reads n as a 256-bit two's complement number.
func toSigned(n *big.Int) *big.Int {
	if n.Bit(255) == 0 {
		return n
	}
	return new(big.Int).Sub(n, new(big.Int).Lsh(big.NewInt(1), 256))
}

// fitsSigned reports whether n lies in the range of a size-bit signed integer.
func fitsSigned(n *big.Int, size int) bool {
	if n.Sign() >= 0 {
		return n.BitLen() < size
	}
	magnitude := new(big.Int).Neg(n)
	return magnitude.Sub(magnitude, big.NewInt(1)).BitLen() < size
}

func isSmallUint(k reflect.Kind) bool {
	switch k {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

func isSmallInt(k reflect.Kind) bool {
	switch k {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	default:
		return false
	}
}
