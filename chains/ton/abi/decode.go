package abi

import (
	"math/big"
	"sort"

	relayerrors "github.com/ClipFinance/ton-relay-lib/common/errors"
	"github.com/pkg/errors"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// reader walks a cell chain produced by packChain.
type reader struct {
	s *cell.Slice
}

// need makes sure the next n bits are readable, following the continuation
// reference when the current link is exhausted.
func (r *reader) need(n uint) error {
	if r.s.BitsLeft() >= n {
		return nil
	}
	if r.s.BitsLeft() == 0 && r.s.RefsNum() == 1 {
		next, err := r.s.LoadRef()
		if err != nil {
			return relayerrors.ErrInvalidAbi
		}
		r.s = next
		if r.s.BitsLeft() >= n {
			return nil
		}
	}
	return relayerrors.ErrInvalidAbi
}

// ref loads a data reference. When more values follow and the only reference
// left in an exhausted link is the continuation, the reference is taken from
// the next link instead.
func (r *reader) ref(more bool) (*cell.Cell, error) {
	if more && r.s.BitsLeft() == 0 && r.s.RefsNum() == 1 {
		next, err := r.s.LoadRef()
		if err != nil {
			return nil, relayerrors.ErrInvalidAbi
		}
		r.s = next
	}
	if r.s.RefsNum() == 0 {
		return nil, relayerrors.ErrInvalidAbi
	}
	c, err := r.s.LoadRefCell()
	if err != nil {
		return nil, relayerrors.ErrInvalidAbi
	}
	return c, nil
}

func (r *reader) done() bool {
	return r.s.BitsLeft() == 0 && r.s.RefsNum() == 0
}

// DecodeParams decodes params from the beginning of s. The whole slice must
// be consumed.
func DecodeParams(params []Param, s *cell.Slice) ([]Token, error) {
	r := &reader{s: s}
	tokens, err := r.params(params, false)
	if err != nil {
		return nil, err
	}
	if !r.done() {
		return nil, errors.Wrap(relayerrors.ErrInvalidAbi, "incomplete deserialization")
	}
	return tokens, nil
}

func (r *reader) params(params []Param, more bool) ([]Token, error) {
	tokens := make([]Token, 0, len(params))
	for i, p := range params {
		v, err := r.value(p.Type, more || i < len(params)-1)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, Token{Name: p.Name, Value: v})
	}
	return tokens, nil
}

func (r *reader) value(t ParamType, more bool) (Value, error) {
	switch t.Kind {
	case KindUint:
		n, err := r.bigUint(uint(t.Size))
		if err != nil {
			return nil, err
		}
		return UintValue{Size: t.Size, Number: n}, nil
	case KindInt:
		if err := r.need(uint(t.Size)); err != nil {
			return nil, err
		}
		n, err := r.s.LoadBigInt(uint(t.Size))
		if err != nil {
			return nil, relayerrors.ErrInvalidAbi
		}
		return IntValue{Size: t.Size, Number: n}, nil
	case KindVarUint:
		n, err := r.varUint(t.Size)
		if err != nil {
			return nil, err
		}
		return VarUintValue{Size: t.Size, Number: n}, nil
	case KindVarInt:
		n, err := r.varInt(t.Size)
		if err != nil {
			return nil, err
		}
		return VarIntValue{Size: t.Size, Number: n}, nil
	case KindGrams:
		n, err := r.varUint(16)
		if err != nil {
			return nil, err
		}
		return GramsValue{Number: n}, nil
	case KindBool:
		if err := r.need(1); err != nil {
			return nil, err
		}
		bit, err := r.s.LoadBoolBit()
		if err != nil {
			return nil, relayerrors.ErrInvalidAbi
		}
		return BoolValue(bit), nil
	case KindTuple:
		tokens, err := r.params(t.Components, more)
		if err != nil {
			return nil, err
		}
		return TupleValue(tokens), nil
	case KindArray:
		if err := r.need(33); err != nil {
			return nil, err
		}
		length, err := r.s.LoadUInt(32)
		if err != nil {
			return nil, relayerrors.ErrInvalidAbi
		}
		items, err := r.array(*t.Elem, int(length))
		if err != nil {
			return nil, err
		}
		return ArrayValue{Elem: *t.Elem, Items: items}, nil
	case KindFixedArray:
		if err := r.need(1); err != nil {
			return nil, err
		}
		items, err := r.array(*t.Elem, t.Size)
		if err != nil {
			return nil, err
		}
		return FixedArrayValue{Elem: *t.Elem, Items: items}, nil
	case KindCell:
		c, err := r.ref(more)
		if err != nil {
			return nil, err
		}
		return CellValue{Cell: c}, nil
	case KindAddress:
		if err := r.need(2); err != nil {
			return nil, err
		}
		addr, err := r.s.LoadAddr()
		if err != nil {
			return nil, relayerrors.ErrInvalidAbi
		}
		return AddressValue{Address: addr}, nil
	case KindBytes, KindString:
		c, err := r.ref(more)
		if err != nil {
			return nil, err
		}
		data, err := cellToBytes(c)
		if err != nil {
			return nil, err
		}
		if t.Kind == KindString {
			return StringValue(data), nil
		}
		return BytesValue(data), nil
	case KindFixedBytes:
		if err := r.need(uint(t.Size * 8)); err != nil {
			return nil, err
		}
		data, err := r.s.LoadSlice(uint(t.Size * 8))
		if err != nil {
			return nil, relayerrors.ErrInvalidAbi
		}
		return FixedBytesValue(data), nil
	case KindTime:
		n, err := r.bigUint(64)
		if err != nil {
			return nil, err
		}
		return TimeValue(n.Uint64()), nil
	case KindExpire:
		n, err := r.bigUint(32)
		if err != nil {
			return nil, err
		}
		return ExpireValue(n.Uint64()), nil
	case KindPublicKey:
		if err := r.need(1); err != nil {
			return nil, err
		}
		present, err := r.s.LoadBoolBit()
		if err != nil {
			return nil, relayerrors.ErrInvalidAbi
		}
		if !present {
			return PublicKeyValue(nil), nil
		}
		if r.s.BitsLeft() < 256 {
			return nil, relayerrors.ErrInvalidAbi
		}
		key, err := r.s.LoadSlice(256)
		if err != nil {
			return nil, relayerrors.ErrInvalidAbi
		}
		return PublicKeyValue(key), nil
	default:
		return nil, errors.Wrapf(relayerrors.ErrUnsupportedType, "%s", t.Kind)
	}
}

func (r *reader) bigUint(size uint) (*big.Int, error) {
	if err := r.need(size); err != nil {
		return nil, err
	}
	n, err := r.s.LoadBigUInt(size)
	if err != nil {
		return nil, relayerrors.ErrInvalidAbi
	}
	return n, nil
}

func (r *reader) varLength(size int) (uint, error) {
	lenBits := uint(varLenBits(size))
	if err := r.need(lenBits); err != nil {
		return 0, err
	}
	length, err := r.s.LoadUInt(lenBits)
	if err != nil || int(length) >= size || r.s.BitsLeft() < uint(length*8) {
		return 0, relayerrors.ErrInvalidAbi
	}
	return uint(length), nil
}

func (r *reader) varUint(size int) (*big.Int, error) {
	length, err := r.varLength(size)
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return new(big.Int), nil
	}
	n, err := r.s.LoadBigUInt(length * 8)
	if err != nil {
		return nil, relayerrors.ErrInvalidAbi
	}
	return n, nil
}

func (r *reader) varInt(size int) (*big.Int, error) {
	length, err := r.varLength(size)
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return new(big.Int), nil
	}
	n, err := r.s.LoadBigInt(length * 8)
	if err != nil {
		return nil, relayerrors.ErrInvalidAbi
	}
	return n, nil
}

// array reads a HashmapE 32 of length items keyed by index.
func (r *reader) array(elem ParamType, length int) ([]Value, error) {
	present, err := r.s.LoadBoolBit()
	if err != nil {
		return nil, relayerrors.ErrInvalidAbi
	}
	if !present {
		if length != 0 {
			return nil, errors.Wrap(relayerrors.ErrInvalidAbi, "array dictionary is missing")
		}
		return []Value{}, nil
	}
	root, err := r.s.LoadRefCell()
	if err != nil {
		return nil, relayerrors.ErrInvalidAbi
	}

	entries, err := root.AsDict(arrayKeyBits).LoadAll()
	if err != nil || len(entries) != length {
		return nil, errors.Wrap(relayerrors.ErrInvalidAbi, "array length mismatch")
	}

	type indexed struct {
		index uint64
		value *cell.Slice
	}
	items := make([]indexed, 0, len(entries))
	for _, kv := range entries {
		index, err := kv.Key.LoadUInt(arrayKeyBits)
		if err != nil || index >= uint64(length) {
			return nil, relayerrors.ErrInvalidAbi
		}
		items = append(items, indexed{index: index, value: kv.Value})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].index < items[j].index })

	values := make([]Value, length)
	for i, item := range items {
		if item.index != uint64(i) {
			return nil, errors.Wrap(relayerrors.ErrInvalidAbi, "array index gap")
		}
		s := item.value
		if elem.valueInRef() {
			ref, err := s.LoadRef()
			if err != nil {
				return nil, relayerrors.ErrInvalidAbi
			}
			s = ref
		}
		tokens, err := DecodeParams([]Param{{Type: elem}}, s)
		if err != nil {
			return nil, err
		}
		values[i] = tokens[0].Value
	}
	return values, nil
}

func cellToBytes(c *cell.Cell) ([]byte, error) {
	var data []byte
	for c != nil {
		s := c.BeginParse()
		bitsLeft := s.BitsLeft()
		if bitsLeft%8 != 0 || s.RefsNum() > 1 {
			return nil, errors.Wrap(relayerrors.ErrInvalidAbi, "malformed bytes chain")
		}
		if bitsLeft > 0 {
			chunk, err := s.LoadSlice(bitsLeft)
			if err != nil {
				return nil, relayerrors.ErrInvalidAbi
			}
			data = append(data, chunk...)
		}
		if s.RefsNum() == 0 {
			break
		}
		next, err := s.LoadRefCell()
		if err != nil {
			return nil, relayerrors.ErrInvalidAbi
		}
		c = next
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// AddressNone reports whether addr is the empty address.
func AddressNone(addr *address.Address) bool {
	return addr == nil || addr.Type() == address.NoneAddress
}
