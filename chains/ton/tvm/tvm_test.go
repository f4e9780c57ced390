package tvm

import (
	"context"
	"errors"
	"io"
	"math/big"
	"testing"

	relayerrors "github.com/ClipFinance/ton-relay-lib/common/errors"
	"github.com/ClipFinance/ton-relay-lib/common/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

type scriptedEngine struct {
	result *ExecutionResult
	err    error
	calls  []*ExecutionRequest
}

func (e *scriptedEngine) Execute(_ context.Context, req *ExecutionRequest) (*ExecutionResult, error) {
	e.calls = append(e.calls, req)
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func replyMessage(t *testing.T, payload uint64) *Message {
	t.Helper()
	return &Message{
		Type: MessageExternalOut,
		Src:  ZeroAddress(),
		Dst:  address.NewAddressNone(),
		Body: cell.BeginCell().MustStoreUInt(payload, 32).EndCell(),
	}
}

func actionsCell(t *testing.T, actions ...OutAction) *cell.Cell {
	t.Helper()
	c, err := BuildOutActions(actions)
	require.NoError(t, err)
	return c
}

func bodyValue(t *testing.T, msg *Message) uint64 {
	t.Helper()
	v, err := msg.Body.BeginParse().LoadUInt(32)
	require.NoError(t, err)
	return v
}

func TestExternalMessageRoundTrip(t *testing.T) {
	body := cell.BeginCell().MustStoreUInt(0xcafe, 16).EndCell()
	msg := NewExternalMessage(ZeroAddress(), body)

	c, err := msg.ToCell()
	require.NoError(t, err)

	s := c.BeginParse()
	tag, err := s.LoadUInt(2)
	require.NoError(t, err)
	assert.EqualValues(t, 0b10, tag)

	parsed, err := ParseMessage(c)
	require.NoError(t, err)
	assert.Equal(t, MessageExternalIn, parsed.Type)
	assert.Equal(t, types.RawAddress(ZeroAddress()), types.RawAddress(parsed.Dst))
	assert.Zero(t, parsed.ImportFee.Sign())
	assert.Nil(t, parsed.Init)
	assert.Equal(t, body.Hash(), parsed.Body.Hash())
}

func TestLargeBodyIsStoredAsReference(t *testing.T) {
	body := cell.BeginCell().
		MustStoreUInt(1, 64).MustStoreUInt(2, 64).MustStoreUInt(3, 64).MustStoreUInt(4, 64).
		MustStoreUInt(5, 64).MustStoreUInt(6, 64).MustStoreUInt(7, 64).MustStoreUInt(8, 64).
		MustStoreUInt(9, 64).MustStoreUInt(10, 64).MustStoreUInt(11, 64).MustStoreUInt(12, 64).
		MustStoreUInt(13, 64).MustStoreUInt(14, 64).MustStoreUInt(15, 64).
		EndCell()
	msg := NewExternalMessage(ZeroAddress(), body)

	c, err := msg.ToCell()
	require.NoError(t, err)
	assert.EqualValues(t, 1, c.RefsNum())

	parsed, err := ParseMessage(c)
	require.NoError(t, err)
	assert.Equal(t, body.Hash(), parsed.Body.Hash())
}

func TestInternalMessageRoundTrip(t *testing.T) {
	msg := &Message{
		Type:        MessageInternal,
		IHRDisabled: true,
		Bounce:      true,
		Src:         ZeroAddress(),
		Dst:         ZeroAddress(),
		Value:       big.NewInt(OneTon),
		CreatedLt:   7,
		CreatedAt:   9,
		Init:        &StateInit{Code: cell.BeginCell().EndCell()},
	}

	c, err := msg.ToCell()
	require.NoError(t, err)
	parsed, err := ParseMessage(c)
	require.NoError(t, err)

	assert.Equal(t, MessageInternal, parsed.Type)
	assert.True(t, parsed.IHRDisabled)
	assert.True(t, parsed.Bounce)
	assert.False(t, parsed.Bounced)
	assert.EqualValues(t, OneTon, parsed.Value.Int64())
	assert.EqualValues(t, 7, parsed.CreatedLt)
	assert.EqualValues(t, 9, parsed.CreatedAt)
	require.NotNil(t, parsed.Init)
	assert.NotNil(t, parsed.Init.Code)
	assert.Nil(t, parsed.Init.Data)
	assert.Nil(t, parsed.Body)
}

func TestParseOutActionsOrder(t *testing.T) {
	c := actionsCell(t,
		SendMsgAction{Mode: 3, Message: replyMessage(t, 1)},
		SetCodeAction{Code: cell.BeginCell().EndCell()},
		ReserveCurrencyAction{Mode: 2, Amount: big.NewInt(5)},
		ChangeLibraryAction{Mode: 1, Hash: make([]byte, 32)},
		SendMsgAction{Mode: 0, Message: replyMessage(t, 2)},
	)

	actions, err := ParseOutActions(c)
	require.NoError(t, err)
	require.Len(t, actions, 5)

	first, ok := actions[0].(SendMsgAction)
	require.True(t, ok)
	assert.EqualValues(t, 3, first.Mode)
	assert.EqualValues(t, 1, bodyValue(t, first.Message))
	assert.IsType(t, SetCodeAction{}, actions[1])
	reserve, ok := actions[2].(ReserveCurrencyAction)
	require.True(t, ok)
	assert.EqualValues(t, 5, reserve.Amount.Int64())
	assert.IsType(t, ChangeLibraryAction{}, actions[3])
	last, ok := actions[4].(SendMsgAction)
	require.True(t, ok)
	assert.EqualValues(t, 2, bodyValue(t, last.Message))
}

func TestParseOutActionsRejectsUnknownTag(t *testing.T) {
	c := cell.BeginCell().
		MustStoreRef(cell.BeginCell().EndCell()).
		MustStoreUInt(0xdeadbeef, 32).
		EndCell()

	_, err := ParseOutActions(c)
	assert.ErrorIs(t, err, relayerrors.ErrInvalidActions)

	actions, err := ParseOutActions(cell.BeginCell().EndCell())
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestCallMessagePreparesStack(t *testing.T) {
	engine := &scriptedEngine{result: &ExecutionResult{
		ExitCode: 0,
		Actions:  actionsCell(t, SendMsgAction{Message: replyMessage(t, 1)}),
	}}
	simulator := NewSimulator(engine, testLogger())

	code := cell.BeginCell().MustStoreUInt(1, 8).EndCell()
	data := cell.BeginCell().MustStoreUInt(2, 8).EndCell()
	body := cell.BeginCell().MustStoreUInt(3, 8).EndCell()
	msg := NewExternalMessage(ZeroAddress(), body)

	_, err := simulator.CallMessage(context.Background(), code, data, msg)
	require.NoError(t, err)
	require.Len(t, engine.calls, 1)

	req := engine.calls[0]
	assert.Equal(t, code, req.Code)
	assert.Equal(t, data, req.Data)
	assert.EqualValues(t, Balance, req.Info.Balance.Int64())
	assert.EqualValues(t, SimulationTime, req.Info.UnixTime)
	assert.EqualValues(t, SimulationTime, req.Info.BlockLt)
	assert.Equal(t, GasLimits{Limit: GasLimit, Max: GasLimit, Credit: 0, Price: 10}, req.Gas)

	require.Len(t, req.Stack, 5)
	assert.EqualValues(t, Balance, req.Stack[0].(IntEntry).Value.Int64())
	assert.Zero(t, req.Stack[1].(IntEntry).Value.Sign())
	msgCell, err := msg.ToCell()
	require.NoError(t, err)
	assert.Equal(t, msgCell.Hash(), req.Stack[2].(CellEntry).Cell.Hash())
	assert.Equal(t, body.Hash(), req.Stack[3].(SliceEntry).Cell.Hash())
	assert.EqualValues(t, -1, req.Stack[4].(IntEntry).Value.Int64())
}

func TestCallMessageSelectors(t *testing.T) {
	engine := &scriptedEngine{result: &ExecutionResult{
		Actions: actionsCell(t, SendMsgAction{Message: replyMessage(t, 1)}),
	}}
	simulator := NewSimulator(engine, testLogger())

	internal := &Message{Type: MessageInternal, Src: ZeroAddress(), Dst: ZeroAddress()}
	_, err := simulator.CallMessage(context.Background(), nil, nil, internal)
	require.NoError(t, err)
	assert.Zero(t, engine.calls[0].Stack[4].(IntEntry).Value.Sign())
	assert.Zero(t, engine.calls[0].Stack[3].(SliceEntry).Cell.BitsSize())

	_, err = simulator.CallMessage(context.Background(), nil, nil, replyMessage(t, 1))
	assert.ErrorIs(t, err, relayerrors.ErrInvalidMessageType)
	assert.Len(t, engine.calls, 1)
}

func TestCallMessageReturnsMessagesInCallOrder(t *testing.T) {
	engine := &scriptedEngine{result: &ExecutionResult{
		ExitCode: 1,
		Actions: actionsCell(t,
			SendMsgAction{Message: replyMessage(t, 1)},
			ReserveCurrencyAction{Amount: big.NewInt(1)},
			SendMsgAction{Message: replyMessage(t, 2)},
			SendMsgAction{Message: replyMessage(t, 3)},
		),
	}}
	simulator := NewSimulator(engine, testLogger())

	messages, err := simulator.CallMessage(context.Background(), nil, nil, NewExternalMessage(ZeroAddress(), nil))
	require.NoError(t, err)
	require.Len(t, messages, 3)
	for i, msg := range messages {
		assert.EqualValues(t, i+1, bodyValue(t, msg))
	}
}

func TestCallMessageErrors(t *testing.T) {
	withoutBody := replyMessage(t, 1)
	withoutBody.Body = nil

	tests := []struct {
		name   string
		engine *scriptedEngine
		want   error
	}{
		{
			name:   "engine fault",
			engine: &scriptedEngine{err: errors.New("out of gas")},
			want:   relayerrors.ErrExecutionFailed,
		},
		{
			name:   "failing exit code",
			engine: &scriptedEngine{result: &ExecutionResult{ExitCode: 13}},
			want:   relayerrors.ErrExecutionFailed,
		},
		{
			name:   "no actions",
			engine: &scriptedEngine{result: &ExecutionResult{}},
			want:   relayerrors.ErrNoOutputMessages,
		},
		{
			name: "no send actions",
			engine: &scriptedEngine{result: &ExecutionResult{
				Actions: actionsCell(t, SetCodeAction{Code: cell.BeginCell().EndCell()}),
			}},
			want: relayerrors.ErrNoOutputMessages,
		},
		{
			name: "message without body",
			engine: &scriptedEngine{result: &ExecutionResult{
				Actions: actionsCell(t, SendMsgAction{Message: withoutBody}),
			}},
			want: relayerrors.ErrMessageWithoutBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			simulator := NewSimulator(tt.engine, testLogger())
			_, err := simulator.CallMessage(context.Background(), nil, nil, NewExternalMessage(ZeroAddress(), nil))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := NewSimulator(nil, testLogger()).CallMessage(context.Background(), nil, nil, NewExternalMessage(ZeroAddress(), nil))
	assert.ErrorIs(t, err, relayerrors.ErrEngineNotConfigured)
}
