package abi

import (
	"math/big"

	relayerrors "github.com/ClipFinance/ton-relay-lib/common/errors"
	"github.com/pkg/errors"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// bytesPerCell is the payload size of a single link in a bytes chain.
const bytesPerCell = 127

// fragment is an indivisible run of bits and references. Values are never
// split across cells: a fragment that does not fit is moved to the next link
// of the chain as a whole.
type fragment struct {
	data []byte
	bits uint
	refs []*cell.Cell
}

func fragmentOf(b *cell.Builder) (fragment, error) {
	s := b.EndCell().BeginParse()
	f := fragment{bits: s.BitsLeft()}
	if f.bits > 0 {
		data, err := s.LoadSlice(f.bits)
		if err != nil {
			return fragment{}, err
		}
		f.data = data
	}
	for s.RefsNum() > 0 {
		ref, err := s.LoadRefCell()
		if err != nil {
			return fragment{}, err
		}
		f.refs = append(f.refs, ref)
	}
	return f, nil
}

type chainLink struct {
	b    *cell.Builder
	bits uint
	refs int
}

func (l *chainLink) fits(f fragment, reserve int) bool {
	return l.bits+f.bits <= maxCellBits && l.refs+len(f.refs)+reserve <= maxCellRefs
}

func (l *chainLink) append(f fragment) error {
	if f.bits > 0 {
		if err := l.b.StoreSlice(f.data, f.bits); err != nil {
			return err
		}
	}
	for _, ref := range f.refs {
		if err := l.b.StoreRef(ref); err != nil {
			return err
		}
	}
	l.bits += f.bits
	l.refs += len(f.refs)
	return nil
}

// packChain lays fragments out over a chain of cells linked through their
// last reference. Every link except the last keeps a reference free for the
// continuation.
func packChain(fragments []fragment) (*cell.Cell, error) {
	links := []*chainLink{{b: cell.BeginCell()}}
	for i, f := range fragments {
		reserve := 0
		if i < len(fragments)-1 {
			reserve = 1
		}
		current := links[len(links)-1]
		if !current.fits(f, reserve) {
			current = &chainLink{b: cell.BeginCell()}
			if !current.fits(f, reserve) {
				return nil, errors.Wrap(relayerrors.ErrEncodeInput, "value does not fit into a cell")
			}
			links = append(links, current)
		}
		if err := current.append(f); err != nil {
			return nil, errors.Wrap(relayerrors.ErrEncodeInput, err.Error())
		}
	}

	next := links[len(links)-1].b.EndCell()
	for i := len(links) - 2; i >= 0; i-- {
		if err := links[i].b.StoreRef(next); err != nil {
			return nil, errors.Wrap(relayerrors.ErrEncodeInput, err.Error())
		}
		next = links[i].b.EndCell()
	}
	return next, nil
}

// EncodeValues serializes values into a cell chain.
func EncodeValues(values []Value) (*cell.Cell, error) {
	fragments, err := appendFragments(nil, values)
	if err != nil {
		return nil, err
	}
	return packChain(fragments)
}

func appendFragments(dst []fragment, values []Value) ([]fragment, error) {
	for _, v := range values {
		if tuple, ok := v.(TupleValue); ok {
			var err error
			if dst, err = appendFragments(dst, Values(tuple)); err != nil {
				return nil, err
			}
			continue
		}
		b := cell.BeginCell()
		if err := storeValue(b, v); err != nil {
			return nil, err
		}
		f, err := fragmentOf(b)
		if err != nil {
			return nil, errors.Wrap(relayerrors.ErrEncodeInput, err.Error())
		}
		dst = append(dst, f)
	}
	return dst, nil
}

func storeValue(b *cell.Builder, v Value) error {
	var err error
	switch v := v.(type) {
	case UintValue:
		if v.Number == nil || v.Number.Sign() < 0 || v.Number.BitLen() > v.Size {
			return errors.Wrapf(relayerrors.ErrIntegerOverflow, "value does not fit uint%d", v.Size)
		}
		err = b.StoreBigUInt(v.Number, uint(v.Size))
	case IntValue:
		if v.Number == nil || !fitsSigned(v.Number, v.Size) {
			return errors.Wrapf(relayerrors.ErrIntegerOverflow, "value does not fit int%d", v.Size)
		}
		err = b.StoreBigInt(v.Number, uint(v.Size))
	case VarUintValue:
		err = storeVarUint(b, v.Size, v.Number)
	case VarIntValue:
		err = storeVarInt(b, v.Size, v.Number)
	case GramsValue:
		err = storeVarUint(b, 16, v.Number)
	case BoolValue:
		err = b.StoreBoolBit(bool(v))
	case ArrayValue:
		if err = b.StoreUInt(uint64(len(v.Items)), 32); err == nil {
			err = storeArray(b, v.Elem, v.Items)
		}
	case FixedArrayValue:
		err = storeArray(b, v.Elem, v.Items)
	case CellValue:
		c := v.Cell
		if c == nil {
			c = cell.BeginCell().EndCell()
		}
		err = b.StoreRef(c)
	case AddressValue:
		addr := v.Address
		if addr == nil {
			addr = address.NewAddressNone()
		}
		err = b.StoreAddr(addr)
	case BytesValue:
		var chain *cell.Cell
		if chain, err = bytesToCell(v); err == nil {
			err = b.StoreRef(chain)
		}
	case StringValue:
		var chain *cell.Cell
		if chain, err = bytesToCell([]byte(v)); err == nil {
			err = b.StoreRef(chain)
		}
	case FixedBytesValue:
		if len(v) == 0 {
			return errors.Wrap(relayerrors.ErrEncodeInput, "empty fixed bytes")
		}
		err = b.StoreSlice(v, uint(len(v)*8))
	case TimeValue:
		err = b.StoreUInt(uint64(v), 64)
	case ExpireValue:
		err = b.StoreUInt(uint64(v), 32)
	case PublicKeyValue:
		if v == nil {
			err = b.StoreBoolBit(false)
			break
		}
		if len(v) != 32 {
			return errors.Wrap(relayerrors.ErrEncodeInput, "public key must be 32 bytes")
		}
		if err = b.StoreBoolBit(true); err == nil {
			err = b.StoreSlice(v, 256)
		}
	default:
		return errors.Wrapf(relayerrors.ErrUnsupportedType, "%T", v)
	}
	if err != nil {
		if errors.Is(err, relayerrors.ErrIntegerOverflow) || errors.Is(err, relayerrors.ErrEncodeInput) {
			return err
		}
		return errors.Wrap(relayerrors.ErrEncodeInput, err.Error())
	}
	return nil
}

func storeArray(b *cell.Builder, elem ParamType, items []Value) error {
	if len(items) == 0 {
		return b.StoreBoolBit(false)
	}

	dict := cell.NewDict(arrayKeyBits)
	inRef := elem.valueInRef()
	for i, item := range items {
		if item.Type().Signature() != elem.Signature() {
			return errors.Wrapf(relayerrors.ErrEncodeInput, "array item %d is %s, expected %s",
				i, item.Type().Signature(), elem.Signature())
		}
		value, err := EncodeValues([]Value{item})
		if err != nil {
			return err
		}
		if inRef {
			wrapper := cell.BeginCell()
			if err := wrapper.StoreRef(value); err != nil {
				return err
			}
			value = wrapper.EndCell()
		}
		if err := dict.SetIntKey(big.NewInt(int64(i)), value); err != nil {
			return err
		}
	}

	if err := b.StoreBoolBit(true); err != nil {
		return err
	}
	return b.StoreRef(dict.AsCell())
}

func bytesToCell(data []byte) (*cell.Cell, error) {
	var next *cell.Cell
	last := (len(data) - 1) / bytesPerCell * bytesPerCell
	if len(data) == 0 {
		last = 0
	}
	for start := last; start >= 0; start -= bytesPerCell {
		end := start + bytesPerCell
		if end > len(data) {
			end = len(data)
		}
		b := cell.BeginCell()
		if chunk := data[start:end]; len(chunk) > 0 {
			if err := b.StoreSlice(chunk, uint(len(chunk)*8)); err != nil {
				return nil, err
			}
		}
		if next != nil {
			if err := b.StoreRef(next); err != nil {
				return nil, err
			}
		}
		next = b.EndCell()
	}
	return next, nil
}

func storeVarUint(b *cell.Builder, size int, n *big.Int) error {
	if n == nil || n.Sign() < 0 {
		return errors.Wrapf(relayerrors.ErrIntegerOverflow, "value does not fit varuint%d", size)
	}
	length := (n.BitLen() + 7) / 8
	if length >= size {
		return errors.Wrapf(relayerrors.ErrIntegerOverflow, "value does not fit varuint%d", size)
	}
	if err := b.StoreUInt(uint64(length), uint(varLenBits(size))); err != nil {
		return err
	}
	if length == 0 {
		return nil
	}
	return b.StoreBigUInt(n, uint(length*8))
}

func storeVarInt(b *cell.Builder, size int, n *big.Int) error {
	if n == nil {
		return errors.Wrapf(relayerrors.ErrIntegerOverflow, "value does not fit varint%d", size)
	}
	length := 0
	for length < size && !fitsSigned(n, length*8) {
		length++
	}
	if length >= size {
		return errors.Wrapf(relayerrors.ErrIntegerOverflow, "value does not fit varint%d", size)
	}
	if err := b.StoreUInt(uint64(length), uint(varLenBits(size))); err != nil {
		return err
	}
	if length == 0 {
		return nil
	}
	return b.StoreBigInt(n, uint(length*8))
}

// fitsSigned reports whether n is representable as a size-bit two's
// complement integer.
func fitsSigned(n *big.Int, size int) bool {
	if size == 0 {
		return n.Sign() == 0
	}
	if n.Sign() >= 0 {
		return n.BitLen() < size
	}
	magnitude := new(big.Int).Neg(n)
	magnitude.Sub(magnitude, big.NewInt(1))
	return magnitude.BitLen() < size
}
