package contract

import (
	"context"
	"encoding/base64"
	"io"
	"math/big"
	"strings"
	"testing"

	"github.com/ClipFinance/ton-relay-lib/chains/ton/abi"
	"github.com/ClipFinance/ton-relay-lib/chains/ton/tvm"
	relayerrors "github.com/ClipFinance/ton-relay-lib/common/errors"
	"github.com/ClipFinance/ton-relay-lib/common/types"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

const (
	configurationAddr = "0:4444444444444444444444444444444444444444444444444444444444444444"
	relayA            = "0:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	relayB            = "-1:bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testDetails(version types.SchemaVersion) *types.EventDetails {
	details := &types.EventDetails{
		Version: version,
		InitData: types.EventInitData{
			EventTransaction:      uint256.NewInt(0xabcdef),
			EventTransactionLt:    1234567,
			EventIndex:            3,
			EventData:             cell.BeginCell().MustStoreUInt(99, 32).EndCell(),
			Configuration:         address.MustParseRawAddr(configurationAddr),
			RequiredConfirmations: big.NewInt(5),
			RequiredRejections:    big.NewInt(2),
		},
		Status:     types.EventConfirmed,
		Confirms:   []*address.Address{address.MustParseRawAddr(relayA), address.MustParseRawAddr(relayB)},
		Rejections: []*address.Address{},
		Signatures: [][]byte{{1, 2, 3}, {4, 5, 6}},
	}
	if version == types.SchemaV2 {
		details.InitData.EventTimestamp = 1700000000
		details.InitData.ConfigurationMeta = cell.BeginCell().MustStoreUInt(7, 8).EndCell()
	}
	return details
}

func assertDetails(t *testing.T, want, got *types.EventDetails) {
	t.Helper()
	assert.Equal(t, want.Version, got.Version)
	assert.Equal(t, want.Status, got.Status)
	assert.True(t, want.InitData.EventTransaction.Eq(got.InitData.EventTransaction))
	assert.Equal(t, want.InitData.EventTransactionLt, got.InitData.EventTransactionLt)
	assert.Equal(t, want.InitData.EventTimestamp, got.InitData.EventTimestamp)
	assert.Equal(t, want.InitData.EventIndex, got.InitData.EventIndex)
	assert.Equal(t, want.InitData.EventData.Hash(), got.InitData.EventData.Hash())
	assert.Equal(t, types.RawAddress(want.InitData.Configuration), types.RawAddress(got.InitData.Configuration))
	assert.Zero(t, want.InitData.RequiredConfirmations.Cmp(got.InitData.RequiredConfirmations))
	assert.Zero(t, want.InitData.RequiredRejections.Cmp(got.InitData.RequiredRejections))
	if want.InitData.ConfigurationMeta != nil {
		assert.Equal(t, want.InitData.ConfigurationMeta.Hash(), got.InitData.ConfigurationMeta.Hash())
	} else {
		assert.Nil(t, got.InitData.ConfigurationMeta)
	}
	require.Len(t, got.Confirms, len(want.Confirms))
	for i := range want.Confirms {
		assert.Equal(t, types.RawAddress(want.Confirms[i]), types.RawAddress(got.Confirms[i]))
	}
	assert.Len(t, got.Rejections, len(want.Rejections))
	assert.Equal(t, want.Signatures, got.Signatures)
}

func TestAccessorSignatures(t *testing.T) {
	tests := []struct {
		version types.SchemaVersion
		want    string
	}{
		{types.SchemaV1, "getDetails()((uint256,uint64,uint32,cell,address,uint256,uint256),uint8,address[],address[],bytes[])v2"},
		{types.SchemaV2, "getDetails()((uint256,uint64,uint32,uint32,cell,address,uint16,uint16,cell),uint8,address[],address[],bytes[])v2"},
	}
	for _, tt := range tests {
		t.Run(tt.version.String(), func(t *testing.T) {
			accessor, err := NewAccessor(tt.version)
			require.NoError(t, err)

			f := accessor.Function()
			assert.Equal(t, tt.want, f.Signature())
			assert.Zero(t, f.InputID>>31)
			assert.EqualValues(t, 1, f.OutputID>>31)
			assert.Equal(t, uint32(0x80000000), f.InputID^f.OutputID)
		})
	}

	_, err := NewAccessor(types.UnknownSchema)
	assert.ErrorIs(t, err, relayerrors.ErrInvalidSchemaVersion)
}

func TestEncodeCall(t *testing.T) {
	accessor, err := NewAccessor(types.SchemaV1)
	require.NoError(t, err)

	body, err := accessor.EncodeCall()
	require.NoError(t, err)

	s := body.BeginParse()
	signed, err := s.LoadBoolBit()
	require.NoError(t, err)
	assert.False(t, signed)
	ts, err := s.LoadUInt(64)
	require.NoError(t, err)
	assert.EqualValues(t, 1, ts)
	expire, err := s.LoadUInt(32)
	require.NoError(t, err)
	assert.EqualValues(t, 1000, expire)
	id, err := s.LoadUInt(32)
	require.NoError(t, err)
	assert.EqualValues(t, accessor.Function().InputID, id)
	assert.Zero(t, s.BitsLeft())
}

func TestReplyRoundTrip(t *testing.T) {
	for _, version := range []types.SchemaVersion{types.SchemaV1, types.SchemaV2} {
		t.Run(version.String(), func(t *testing.T) {
			accessor, err := NewAccessor(version)
			require.NoError(t, err)

			want := testDetails(version)
			body, err := accessor.EncodeReply(want)
			require.NoError(t, err)

			mine, err := accessor.IsReply(body)
			require.NoError(t, err)
			assert.True(t, mine)

			got, err := accessor.DecodeReply(body)
			require.NoError(t, err)
			assertDetails(t, want, got)
		})
	}
}

func TestRejectionsAreNotConfirmations(t *testing.T) {
	accessor, err := NewAccessor(types.SchemaV1)
	require.NoError(t, err)

	details := testDetails(types.SchemaV1)
	details.InitData.RequiredConfirmations = big.NewInt(10)
	details.InitData.RequiredRejections = big.NewInt(4)

	body, err := accessor.EncodeReply(details)
	require.NoError(t, err)
	got, err := accessor.DecodeReply(body)
	require.NoError(t, err)
	assert.EqualValues(t, 10, got.InitData.RequiredConfirmations.Int64())
	assert.EqualValues(t, 4, got.InitData.RequiredRejections.Int64())
}

func TestThresholdTooWideForV2(t *testing.T) {
	accessor, err := NewAccessor(types.SchemaV2)
	require.NoError(t, err)

	details := testDetails(types.SchemaV2)
	details.InitData.RequiredConfirmations = big.NewInt(70000)
	_, err = accessor.EncodeReply(details)
	assert.ErrorIs(t, err, relayerrors.ErrIntegerOverflow)
}

func replyTokens(t *testing.T, accessor *Accessor, details *types.EventDetails) []abi.Token {
	t.Helper()
	body, err := accessor.EncodeReply(details)
	require.NoError(t, err)
	tokens, err := accessor.Function().DecodeOutput(body)
	require.NoError(t, err)
	return tokens
}

func TestDecodeStatus(t *testing.T) {
	accessor, err := NewAccessor(types.SchemaV1)
	require.NoError(t, err)
	tokens := replyTokens(t, accessor, testDetails(types.SchemaV1))

	want := map[uint64]types.EventStatus{
		0: types.EventInProcess,
		1: types.EventConfirmed,
		2: types.EventRejected,
	}
	for code, status := range want {
		tokens[1].Value = abi.NewUint(8, code)
		details, err := accessor.DecodeTokens(tokens)
		require.NoError(t, err)
		assert.Equal(t, status, details.Status)
	}

	tokens[1].Value = abi.NewUint(8, 3)
	_, err = accessor.DecodeTokens(tokens)
	assert.ErrorIs(t, err, relayerrors.ErrInvalidAbi)
}

func TestDecodeIsStrict(t *testing.T) {
	accessor, err := NewAccessor(types.SchemaV1)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func([]abi.Token) []abi.Token
	}{
		{"extra field", func(tokens []abi.Token) []abi.Token {
			return append(tokens, abi.Token{Name: "extra", Value: abi.BoolValue(true)})
		}},
		{"missing field", func(tokens []abi.Token) []abi.Token {
			return tokens[:4]
		}},
		{"extra tuple component", func(tokens []abi.Token) []abi.Token {
			initData := tokens[0].Value.(abi.TupleValue)
			tokens[0].Value = append(initData, abi.Token{Value: abi.NewUint(8, 1)})
			return tokens
		}},
		{"status is not an integer", func(tokens []abi.Token) []abi.Token {
			tokens[1].Value = abi.BoolValue(true)
			return tokens
		}},
		{"index does not fit uint32", func(tokens []abi.Token) []abi.Token {
			initData := tokens[0].Value.(abi.TupleValue)
			initData[2].Value = abi.NewUint(64, 1<<40)
			return tokens
		}},
		{"relay is an external address", func(tokens []abi.Token) []abi.Token {
			tokens[2].Value = abi.ArrayValue{Elem: abi.Address(), Items: []abi.Value{
				abi.AddressValue{Address: address.NewAddressNone()},
			}}
			return tokens
		}},
		{"signature is not bytes", func(tokens []abi.Token) []abi.Token {
			tokens[4].Value = abi.ArrayValue{Elem: abi.Cell(), Items: []abi.Value{
				abi.CellValue{Cell: cell.BeginCell().EndCell()},
			}}
			return tokens
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := tt.mutate(replyTokens(t, accessor, testDetails(types.SchemaV1)))
			_, err := accessor.DecodeTokens(tokens)
			assert.ErrorIs(t, err, relayerrors.ErrInvalidAbi)
		})
	}
}

type scriptedEngine struct {
	replies []*tvm.Message
	calls   int
	body    *cell.Cell
}

func (e *scriptedEngine) Execute(_ context.Context, req *tvm.ExecutionRequest) (*tvm.ExecutionResult, error) {
	e.calls++
	e.body = req.Stack[3].(tvm.SliceEntry).Cell

	actions := make([]tvm.OutAction, len(e.replies))
	for i, msg := range e.replies {
		actions[i] = tvm.SendMsgAction{Message: msg}
	}
	list, err := tvm.BuildOutActions(actions)
	if err != nil {
		return nil, err
	}
	return &tvm.ExecutionResult{ExitCode: 0, Actions: list}, nil
}

func externalOut(body *cell.Cell) *tvm.Message {
	return &tvm.Message{Type: tvm.MessageExternalOut, Src: tvm.ZeroAddress(), Body: body}
}

func TestReaderGetDetails(t *testing.T) {
	accessor, err := NewAccessor(types.SchemaV2)
	require.NoError(t, err)
	want := testDetails(types.SchemaV2)
	reply, err := accessor.EncodeReply(want)
	require.NoError(t, err)

	foreign := abi.NewFunction("other", nil, nil, []abi.Param{{Name: "v", Type: abi.Uint(8)}})
	foreignBody, err := foreign.EncodeOutput([]abi.Value{abi.NewUint(8, 1)})
	require.NoError(t, err)

	engine := &scriptedEngine{replies: []*tvm.Message{
		{Type: tvm.MessageInternal, Src: tvm.ZeroAddress(), Dst: tvm.ZeroAddress(), Body: reply},
		externalOut(foreignBody),
		externalOut(reply),
	}}
	reader := NewReader(accessor, tvm.NewSimulator(engine, testLogger()), testLogger())

	got, err := reader.GetDetails(context.Background(), cell.BeginCell().EndCell(), cell.BeginCell().EndCell())
	require.NoError(t, err)
	assertDetails(t, want, got)

	call, err := accessor.EncodeCall()
	require.NoError(t, err)
	assert.Equal(t, call.Hash(), engine.body.Hash())

	again, err := reader.GetDetails(context.Background(), cell.BeginCell().EndCell(), cell.BeginCell().EndCell())
	require.NoError(t, err)
	assertDetails(t, got, again)
}

func TestReaderWithoutReply(t *testing.T) {
	accessor, err := NewAccessor(types.SchemaV1)
	require.NoError(t, err)

	foreign := abi.NewFunction("other", nil, nil, nil)
	foreignBody, err := foreign.EncodeOutput(nil)
	require.NoError(t, err)

	engine := &scriptedEngine{replies: []*tvm.Message{externalOut(foreignBody)}}
	reader := NewReader(accessor, tvm.NewSimulator(engine, testLogger()), testLogger())

	_, err = reader.GetDetails(context.Background(), nil, nil)
	assert.ErrorIs(t, err, relayerrors.ErrNoOutputMessages)
}

func TestReaderRejectsMalformedReply(t *testing.T) {
	accessor, err := NewAccessor(types.SchemaV1)
	require.NoError(t, err)

	body := cell.BeginCell().MustStoreUInt(uint64(accessor.Function().OutputID), 32).MustStoreUInt(1, 8).EndCell()
	engine := &scriptedEngine{replies: []*tvm.Message{externalOut(body)}}
	reader := NewReader(accessor, tvm.NewSimulator(engine, testLogger()), testLogger())

	_, err = reader.GetDetails(context.Background(), nil, nil)
	assert.ErrorIs(t, err, relayerrors.ErrInvalidAbi)
}

// detailsReplyV1 is a getDetails reply serialized outside of this module. The
// init data does not fit one cell, so the thresholds continue in a second
// link that also holds the relay arrays.
const detailsReplyV1 = "te6ccgECCAEAAWgAAuPDkuAEAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAHy49TFtqeYgAAAAAAAB6aQAAAASACqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqgAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAFABAgBQb4lA3AAAAAAAAAAAAAAAAAAPQkBSkIQACYUniG4PcDAGmFfS5Bae5wJbAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAEBAAAAAoAAAAAAAAAAcAMGAgPPwAQFAEMgBVVVVVVVVVVVVVVVVVVVVVVVVVVVVVVVVVVVVVVVVVVUAEMn/d3d3d3d3d3d3d3d3d3d3d3d3d3d3d3d3d3d3d3d3d3cAQPQQAcAggECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8gISIjJCUmJygpKissLS4vMDEyMzQ1Njc4OTo7PD0+P0BB"

func TestDecodeReplyFixture(t *testing.T) {
	boc, err := base64.StdEncoding.DecodeString(detailsReplyV1)
	require.NoError(t, err)
	body, err := cell.FromBOC(boc)
	require.NoError(t, err)
	require.EqualValues(t, 2, body.RefsNum())

	accessor, err := NewAccessor(types.SchemaV1)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xc392e004), accessor.Function().OutputID)

	ok, err := accessor.IsReply(body)
	require.NoError(t, err)
	require.True(t, ok)

	details, err := accessor.DecodeReply(body)
	require.NoError(t, err)

	initData := details.InitData
	assert.Equal(t, "0x1f2e3d4c5b6a7988", initData.EventTransaction.Hex())
	assert.EqualValues(t, 31337, initData.EventTransactionLt)
	assert.EqualValues(t, 4, initData.EventIndex)
	assert.Equal(t, "0:"+strings.Repeat("55", 32), types.RawAddress(initData.Configuration))
	assert.EqualValues(t, 2, initData.RequiredConfirmations.Int64())
	assert.EqualValues(t, 1, initData.RequiredRejections.Int64())
	assert.EqualValues(t, 320, initData.EventData.BitsSize())

	assert.Equal(t, types.EventConfirmed, details.Status)
	require.Len(t, details.Confirms, 2)
	assert.Equal(t, relayA, types.RawAddress(details.Confirms[0]))
	assert.Equal(t, relayB, types.RawAddress(details.Confirms[1]))
	assert.Empty(t, details.Rejections)

	signature := make([]byte, 65)
	for i := range signature {
		signature[i] = byte(i + 1)
	}
	assert.Equal(t, [][]byte{signature}, details.Signatures)

	again, err := accessor.EncodeReply(details)
	require.NoError(t, err)
	assert.Equal(t, body.Hash(), again.Hash())
}
