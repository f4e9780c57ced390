package abi

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	relayerrors "github.com/ClipFinance/ton-relay-lib/common/errors"
	"github.com/pkg/errors"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Event describes the layout of an event body: an id followed by the inputs.
type Event struct {
	Name   string
	Inputs []Param
	ID     uint32
}

// NewEvent builds an event whose id is derived from its signature.
func NewEvent(name string, inputs []Param) *Event {
	e := &Event{Name: name, Inputs: inputs}
	e.ID = CalcFunctionID(e.Signature()) &^ outputBit
	return e
}

// Signature returns the normalized event signature.
func (e *Event) Signature() string {
	return fmt.Sprintf("%s(%s)v%d", e.Name, paramsSignature(e.Inputs), Version)
}

type jsonEvent struct {
	Name   string          `json:"name"`
	Inputs []Param         `json:"inputs"`
	ID     json.RawMessage `json:"id"`
}

// ParseEvent reads an event description of the form
// {"name": "...", "inputs": [...], "id": "0x..."}. The id is optional and
// may be a number, a decimal string or a 0x-prefixed hex string. Other
// prefixes and digit separators are rejected.
func ParseEvent(data []byte) (*Event, error) {
	var raw jsonEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		if errors.Is(err, relayerrors.ErrInvalidSchema) || errors.Is(err, relayerrors.ErrUnsupportedType) {
			return nil, err
		}
		return nil, errors.Wrap(relayerrors.ErrInvalidSchema, err.Error())
	}
	if raw.Name == "" {
		return nil, errors.Wrap(relayerrors.ErrInvalidSchema, "event name is empty")
	}

	event := NewEvent(raw.Name, raw.Inputs)
	if len(raw.ID) == 0 || string(raw.ID) == "null" {
		return event, nil
	}

	id, err := parseEventID(strings.Trim(string(raw.ID), `"`))
	if err != nil {
		return nil, errors.Wrapf(relayerrors.ErrInvalidSchema, "malformed event id %s", raw.ID)
	}
	event.ID = uint32(id)
	return event, nil
}

func parseEventID(text string) (uint64, error) {
	if rest, ok := strings.CutPrefix(text, "0x"); ok {
		return strconv.ParseUint(rest, 16, 32)
	}
	if rest, ok := strings.CutPrefix(text, "0X"); ok {
		return strconv.ParseUint(rest, 16, 32)
	}
	return strconv.ParseUint(text, 10, 32)
}

// EncodeInput builds an event body.
func (e *Event) EncodeInput(inputs []Value) (*cell.Cell, error) {
	if len(inputs) != len(e.Inputs) {
		return nil, errors.Wrapf(relayerrors.ErrEncodeInput, "expected %d inputs, got %d", len(e.Inputs), len(inputs))
	}
	values := []Value{NewUint(32, uint64(e.ID))}
	for i, p := range e.Inputs {
		if err := checkType(p, inputs[i]); err != nil {
			return nil, err
		}
		values = append(values, inputs[i])
	}
	return EncodeValues(values)
}

// DecodeInput decodes an event body, checking its leading id.
func (e *Event) DecodeInput(body *cell.Cell) ([]Token, error) {
	if body == nil {
		return nil, errors.Wrap(relayerrors.ErrInvalidAbi, "event body is empty")
	}
	s := body.BeginParse()
	id, err := s.LoadUInt(32)
	if err != nil {
		return nil, errors.Wrap(relayerrors.ErrInvalidAbi, "failed to read event id")
	}
	if uint32(id) != e.ID {
		return nil, errors.Wrapf(relayerrors.ErrInvalidAbi, "event id 0x%08x is not 0x%08x", id, e.ID)
	}
	return DecodeParams(e.Inputs, s)
}
