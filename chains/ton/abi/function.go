package abi

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	relayerrors "github.com/ClipFinance/ton-relay-lib/common/errors"
	"github.com/pkg/errors"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

const (
	// outputBit marks a function id as the id of a reply.
	outputBit uint32 = 0x80000000
)

// CalcFunctionID returns the first four bytes of the SHA-256 of signature.
func CalcFunctionID(signature string) uint32 {
	hash := sha256.Sum256([]byte(signature))
	return binary.BigEndian.Uint32(hash[:4])
}

// Function is a contract method callable through an external message.
type Function struct {
	Name     string
	Header   []Param
	Inputs   []Param
	Outputs  []Param
	InputID  uint32
	OutputID uint32
}

// NewFunction builds a function and derives its input and output ids.
func NewFunction(name string, header, inputs, outputs []Param) *Function {
	f := &Function{
		Name:    name,
		Header:  header,
		Inputs:  inputs,
		Outputs: outputs,
	}
	id := CalcFunctionID(f.Signature())
	f.InputID = id &^ outputBit
	f.OutputID = id | outputBit
	return f
}

// Signature returns the normalized signature the function id is derived from.
// Header parameters are not part of the signature.
func (f *Function) Signature() string {
	return fmt.Sprintf("%s(%s)(%s)v%d", f.Name, paramsSignature(f.Inputs), paramsSignature(f.Outputs), Version)
}

// EncodeInput builds an unsigned external call body: the absent-signature
// bit, the header values, the input id and the inputs.
func (f *Function) EncodeInput(header map[string]Value, inputs []Value) (*cell.Cell, error) {
	if len(inputs) != len(f.Inputs) {
		return nil, errors.Wrapf(relayerrors.ErrEncodeInput, "expected %d inputs, got %d", len(f.Inputs), len(inputs))
	}

	values := []Value{BoolValue(false)}
	for _, p := range f.Header {
		v, ok := header[p.Name]
		if !ok {
			return nil, errors.Wrapf(relayerrors.ErrEncodeInput, "missing header %q", p.Name)
		}
		if err := checkType(p, v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	values = append(values, NewUint(32, uint64(f.InputID)))
	for i, p := range f.Inputs {
		if err := checkType(p, inputs[i]); err != nil {
			return nil, err
		}
		values = append(values, inputs[i])
	}
	return EncodeValues(values)
}

// EncodeOutput builds a reply body: the output id followed by the outputs.
func (f *Function) EncodeOutput(outputs []Value) (*cell.Cell, error) {
	if len(outputs) != len(f.Outputs) {
		return nil, errors.Wrapf(relayerrors.ErrEncodeInput, "expected %d outputs, got %d", len(f.Outputs), len(outputs))
	}
	values := []Value{NewUint(32, uint64(f.OutputID))}
	for i, p := range f.Outputs {
		if err := checkType(p, outputs[i]); err != nil {
			return nil, err
		}
		values = append(values, outputs[i])
	}
	return EncodeValues(values)
}

// IsMyOutput reports whether body starts with the function's output id.
func (f *Function) IsMyOutput(body *cell.Cell) (bool, error) {
	id, err := body.BeginParse().LoadUInt(32)
	if err != nil {
		return false, errors.Wrap(relayerrors.ErrInvalidAbi, "failed to read function id")
	}
	return uint32(id) == f.OutputID, nil
}

// DecodeOutput decodes a reply body produced by the function.
func (f *Function) DecodeOutput(body *cell.Cell) ([]Token, error) {
	s := body.BeginParse()
	id, err := s.LoadUInt(32)
	if err != nil {
		return nil, errors.Wrap(relayerrors.ErrInvalidAbi, "failed to read function id")
	}
	if uint32(id) != f.OutputID {
		return nil, errors.Wrapf(relayerrors.ErrInvalidAbi, "function id 0x%08x is not 0x%08x", id, f.OutputID)
	}
	return DecodeParams(f.Outputs, s)
}

func checkType(p Param, v Value) error {
	if v == nil {
		return errors.Wrapf(relayerrors.ErrEncodeInput, "missing value for %q", p.Name)
	}
	if got, want := v.Type().Signature(), p.Type.Signature(); got != want {
		return errors.Wrapf(relayerrors.ErrEncodeInput, "%q is %s, expected %s", p.Name, got, want)
	}
	return nil
}
