// Package contract reads the state of bridge event contracts by calling their
// getDetails accessor in a simulated external message.
package contract

import (
	"github.com/ClipFinance/ton-relay-lib/chains/ton/abi"
	relayerrors "github.com/ClipFinance/ton-relay-lib/common/errors"
	"github.com/ClipFinance/ton-relay-lib/common/types"
	"github.com/pkg/errors"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

const (
	// FunctionName is the name of the accessor.
	FunctionName = "getDetails"
	// callTime and callExpire are the header values of the simulated call.
	// They are placeholders chosen so that the call never looks expired.
	callTime   = 1
	callExpire = 1000
)

var header = []abi.Param{
	{Name: "time", Type: abi.Time()},
	{Name: "expire", Type: abi.Expire()},
}

// Accessor encodes getDetails calls and decodes their replies for one
// schema version.
type Accessor struct {
	version  types.SchemaVersion
	function *abi.Function
	fields   []detailsField
}

// NewAccessor creates an accessor for the given schema version.
//
// Parameters:
// - version: the schema version of the event contract.
//
// Returns:
// - *Accessor: a new accessor instance.
// - error: ErrInvalidSchemaVersion for an unknown version.
func NewAccessor(version types.SchemaVersion) (*Accessor, error) {
	var init []initField
	switch version {
	case types.SchemaV1:
		init = initFieldsV1
	case types.SchemaV2:
		init = initFieldsV2
	default:
		return nil, errors.Wrapf(relayerrors.ErrInvalidSchemaVersion, "%q", version)
	}

	fields := detailsFields(init)
	return &Accessor{
		version:  version,
		function: abi.NewFunction(FunctionName, header, nil, params(fields)),
		fields:   fields,
	}, nil
}

// Version returns the schema version of the accessor.
func (a *Accessor) Version() types.SchemaVersion {
	return a.version
}

// Function returns the ABI description of the accessor.
func (a *Accessor) Function() *abi.Function {
	return a.function
}

// EncodeCall builds the body of the external message invoking the accessor.
func (a *Accessor) EncodeCall() (*cell.Cell, error) {
	return a.function.EncodeInput(map[string]abi.Value{
		"time":   abi.TimeValue(callTime),
		"expire": abi.ExpireValue(callExpire),
	}, nil)
}

// IsReply reports whether body is a reply of the accessor.
func (a *Accessor) IsReply(body *cell.Cell) (bool, error) {
	return a.function.IsMyOutput(body)
}

// DecodeReply decodes a reply body into event details.
//
// Parameters:
// - body: the body of the reply message.
//
// Returns:
// - *types.EventDetails: the decoded details.
// - error: ErrInvalidAbi if the body does not match the schema.
func (a *Accessor) DecodeReply(body *cell.Cell) (*types.EventDetails, error) {
	tokens, err := a.function.DecodeOutput(body)
	if err != nil {
		return nil, errors.Wrap(relayerrors.ErrInvalidAbi, err.Error())
	}
	return a.DecodeTokens(tokens)
}

// DecodeTokens builds event details from already decoded reply tokens.
func (a *Accessor) DecodeTokens(tokens []abi.Token) (*types.EventDetails, error) {
	details := &types.EventDetails{Version: a.version}
	if err := decodeFields(a.fields, tokens, details); err != nil {
		return nil, err
	}
	return details, nil
}

// EncodeReply builds the reply body a contract holding details would send.
func (a *Accessor) EncodeReply(details *types.EventDetails) (*cell.Cell, error) {
	tokens, err := encodeFields(a.fields, details)
	if err != nil {
		return nil, err
	}
	return a.function.EncodeOutput(abi.Values(tokens))
}
