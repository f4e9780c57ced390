package process

import (
	"math/big"

	"github.com/ClipFinance/ton-relay-lib/chains/ton/tvm"
	"github.com/ClipFinance/ton-relay-lib/common/types"
	bin "github.com/gagliardetto/binary"
	"github.com/pkg/errors"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Magic opens every request and response frame ("TVM1").
const Magic uint32 = 0x54564d31

const (
	entryNull uint8 = iota
	entryInt
	entryCell
	entrySlice
)

// Request is the frame written to the engine's standard input.
type Request struct {
	*tvm.ExecutionRequest
}

// Response is the frame the engine writes to its standard output.
type Response struct {
	*tvm.ExecutionResult
}

// MarshalWithEncoder writes the request frame.
func (r Request) MarshalWithEncoder(encoder *bin.Encoder) error {
	if err := encoder.WriteUint32(Magic, bin.LE); err != nil {
		return err
	}
	if err := writeCell(encoder, r.Code); err != nil {
		return errors.Wrap(err, "failed to write code")
	}
	if err := writeCell(encoder, r.Data); err != nil {
		return errors.Wrap(err, "failed to write data")
	}

	info := r.Info
	addr := ""
	if info.Address != nil && info.Address.Type() == address.StdAddress {
		addr = types.RawAddress(info.Address)
	}
	if err := encoder.WriteBytes([]byte(addr), true); err != nil {
		return err
	}
	if err := writeInt(encoder, info.Balance); err != nil {
		return err
	}
	if err := encoder.WriteUint32(info.UnixTime, bin.LE); err != nil {
		return err
	}
	if err := encoder.WriteUint64(info.BlockLt, bin.LE); err != nil {
		return err
	}
	if err := encoder.WriteUint64(info.TransLt, bin.LE); err != nil {
		return err
	}
	if err := encoder.WriteBytes(info.RandSeed, true); err != nil {
		return err
	}

	for _, v := range []int64{r.Gas.Limit, r.Gas.Max, r.Gas.Credit, r.Gas.Price} {
		if err := encoder.WriteInt64(v, bin.LE); err != nil {
			return err
		}
	}
	return writeStack(encoder, r.Stack)
}

// UnmarshalWithDecoder reads a request frame.
func (r *Request) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	if err = readMagic(decoder); err != nil {
		return err
	}
	req := &tvm.ExecutionRequest{}
	if req.Code, err = readCell(decoder); err != nil {
		return errors.Wrap(err, "failed to read code")
	}
	if req.Data, err = readCell(decoder); err != nil {
		return errors.Wrap(err, "failed to read data")
	}

	addr, err := decoder.ReadByteSlice()
	if err != nil {
		return err
	}
	if len(addr) > 0 {
		if req.Info.Address, err = address.ParseRawAddr(string(addr)); err != nil {
			return errors.Wrap(err, "failed to parse contract address")
		}
	}
	if req.Info.Balance, err = readInt(decoder); err != nil {
		return err
	}
	if req.Info.UnixTime, err = decoder.ReadUint32(bin.LE); err != nil {
		return err
	}
	if req.Info.BlockLt, err = decoder.ReadUint64(bin.LE); err != nil {
		return err
	}
	if req.Info.TransLt, err = decoder.ReadUint64(bin.LE); err != nil {
		return err
	}
	if req.Info.RandSeed, err = decoder.ReadByteSlice(); err != nil {
		return err
	}

	for _, v := range []*int64{&req.Gas.Limit, &req.Gas.Max, &req.Gas.Credit, &req.Gas.Price} {
		if *v, err = decoder.ReadInt64(bin.LE); err != nil {
			return err
		}
	}
	if req.Stack, err = readStack(decoder); err != nil {
		return err
	}
	r.ExecutionRequest = req
	return nil
}

// MarshalWithEncoder writes the response frame.
func (r Response) MarshalWithEncoder(encoder *bin.Encoder) error {
	if err := encoder.WriteUint32(Magic, bin.LE); err != nil {
		return err
	}
	if err := encoder.WriteInt32(r.ExitCode, bin.LE); err != nil {
		return err
	}
	if err := encoder.WriteInt64(r.GasUsed, bin.LE); err != nil {
		return err
	}
	if err := writeStack(encoder, r.Stack); err != nil {
		return err
	}
	if err := writeCell(encoder, r.Data); err != nil {
		return errors.Wrap(err, "failed to write data")
	}
	if err := writeCell(encoder, r.Actions); err != nil {
		return errors.Wrap(err, "failed to write actions")
	}
	return nil
}

// UnmarshalWithDecoder reads a response frame.
func (r *Response) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	if err = readMagic(decoder); err != nil {
		return err
	}
	res := &tvm.ExecutionResult{}
	if res.ExitCode, err = decoder.ReadInt32(bin.LE); err != nil {
		return err
	}
	if res.GasUsed, err = decoder.ReadInt64(bin.LE); err != nil {
		return err
	}
	if res.Stack, err = readStack(decoder); err != nil {
		return err
	}
	if res.Data, err = readCell(decoder); err != nil {
		return errors.Wrap(err, "failed to read data")
	}
	if res.Actions, err = readCell(decoder); err != nil {
		return errors.Wrap(err, "failed to read actions")
	}
	r.ExecutionResult = res
	return nil
}

func readMagic(decoder *bin.Decoder) error {
	magic, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return err
	}
	if magic != Magic {
		return errors.Errorf("unexpected frame magic 0x%08x", magic)
	}
	return nil
}

// writeCell writes an optional cell as a presence flag and its BOC.
func writeCell(encoder *bin.Encoder, c *cell.Cell) error {
	if c == nil {
		return encoder.WriteBool(false)
	}
	if err := encoder.WriteBool(true); err != nil {
		return err
	}
	return encoder.WriteBytes(c.ToBOC(), true)
}

func readCell(decoder *bin.Decoder) (*cell.Cell, error) {
	ok, err := decoder.ReadBool()
	if err != nil || !ok {
		return nil, err
	}
	boc, err := decoder.ReadByteSlice()
	if err != nil {
		return nil, err
	}
	return cell.FromBOC(boc)
}

// writeInt writes a sign flag and the big-endian magnitude.
func writeInt(encoder *bin.Encoder, n *big.Int) error {
	if n == nil {
		n = new(big.Int)
	}
	if err := encoder.WriteBool(n.Sign() < 0); err != nil {
		return err
	}
	return encoder.WriteBytes(new(big.Int).Abs(n).Bytes(), true)
}

func readInt(decoder *bin.Decoder) (*big.Int, error) {
	negative, err := decoder.ReadBool()
	if err != nil {
		return nil, err
	}
	magnitude, err := decoder.ReadByteSlice()
	if err != nil {
		return nil, err
	}
	n := new(big.Int).SetBytes(magnitude)
	if negative {
		n.Neg(n)
	}
	return n, nil
}

func writeStack(encoder *bin.Encoder, stack []tvm.StackEntry) error {
	if err := encoder.WriteUint32(uint32(len(stack)), bin.LE); err != nil {
		return err
	}
	for _, entry := range stack {
		var err error
		switch e := entry.(type) {
		case tvm.NullEntry:
			err = encoder.WriteUint8(entryNull)
		case tvm.IntEntry:
			if err = encoder.WriteUint8(entryInt); err == nil {
				err = writeInt(encoder, e.Value)
			}
		case tvm.CellEntry:
			if err = encoder.WriteUint8(entryCell); err == nil {
				err = encoder.WriteBytes(e.Cell.ToBOC(), true)
			}
		case tvm.SliceEntry:
			if err = encoder.WriteUint8(entrySlice); err == nil {
				err = encoder.WriteBytes(e.Cell.ToBOC(), true)
			}
		default:
			err = errors.Errorf("unsupported stack entry %T", entry)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func readStack(decoder *bin.Decoder) ([]tvm.StackEntry, error) {
	count, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return nil, err
	}
	if int(count) > decoder.Remaining() {
		return nil, errors.Errorf("stack of %d entries exceeds frame", count)
	}

	stack := make([]tvm.StackEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		tag, err := decoder.ReadUint8()
		if err != nil {
			return nil, err
		}
		switch tag {
		case entryNull:
			stack = append(stack, tvm.NullEntry{})
		case entryInt:
			n, err := readInt(decoder)
			if err != nil {
				return nil, err
			}
			stack = append(stack, tvm.IntEntry{Value: n})
		case entryCell, entrySlice:
			boc, err := decoder.ReadByteSlice()
			if err != nil {
				return nil, err
			}
			c, err := cell.FromBOC(boc)
			if err != nil {
				return nil, errors.Wrap(err, "failed to parse stack cell")
			}
			if tag == entryCell {
				stack = append(stack, tvm.CellEntry{Cell: c})
			} else {
				stack = append(stack, tvm.SliceEntry{Cell: c})
			}
		default:
			return nil, errors.Errorf("unknown stack entry tag %d", tag)
		}
	}
	return stack, nil
}
