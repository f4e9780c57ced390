package payload

import (
	"math"
	"math/big"

	"github.com/ClipFinance/ton-relay-lib/chains/evm/ethabi"
	"github.com/ClipFinance/ton-relay-lib/chains/ton/abi"
	relayerrors "github.com/ClipFinance/ton-relay-lib/common/errors"
	"github.com/ClipFinance/ton-relay-lib/common/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Encoder builds the Ethereum payload relays sign for a TON event.
type Encoder struct {
	logger *logrus.Logger
}

// NewEncoder creates a new payload encoder.
//
// Parameters:
// - logger: the logger used for debug records.
//
// Returns:
// - *Encoder: a new encoder instance.
func NewEncoder(logger *logrus.Logger) *Encoder {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Encoder{logger: logger}
}

// Encode decodes the event data of details with event and packs the
// versioned envelope tuple.
//
// The V1 envelope is (uint256 eventTransaction, uint64 eventTransactionLt,
// uint32 eventIndex, bytes eventData, int8 configurationWid,
// uint256 configurationAddress, uint16 requiredConfirmations,
// uint16 requiredRejects). V2 inserts uint32 eventTimestamp after the logical
// time and appends the proxy address.
//
// Parameters:
// - details: the decoded event details.
// - event: the schema of the event data cell.
// - proxy: the destination proxy contract, used by V2 only.
//
// Returns:
// - []byte: the encoded envelope.
// - error: a decoding, mapping or range error.
func (e *Encoder) Encode(details *types.EventDetails, event *abi.Event, proxy common.Address) ([]byte, error) {
	if details == nil {
		return nil, errors.New("event details are required")
	}
	if event == nil {
		return nil, errors.Wrap(relayerrors.ErrInvalidSchema, "event schema is required")
	}

	initData := details.InitData
	tokens, err := event.DecodeInput(initData.EventData)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s event data", event.Name)
	}
	eventData, err := EncodeEventData(tokens)
	if err != nil {
		return nil, err
	}

	wid, account, err := configurationAddress(initData)
	if err != nil {
		return nil, err
	}
	confirmations, err := threshold("requiredConfirmations", initData.RequiredConfirmations)
	if err != nil {
		return nil, err
	}
	rejects, err := threshold("requiredRejects", initData.RequiredRejections)
	if err != nil {
		return nil, err
	}

	txHash := initData.EventTransaction
	if txHash == nil {
		txHash = new(uint256.Int)
	}

	var envelope ethabi.TupleValue
	switch details.Version {
	case types.SchemaV1:
		envelope = ethabi.TupleValue{
			ethabi.UintValue{Size: 256, Number: txHash},
			ethabi.NewUint(64, initData.EventTransactionLt),
			ethabi.NewUint(32, uint64(initData.EventIndex)),
			ethabi.BytesValue(eventData),
			wid,
			account,
			confirmations,
			rejects,
		}
	case types.SchemaV2:
		envelope = ethabi.TupleValue{
			ethabi.UintValue{Size: 256, Number: txHash},
			ethabi.NewUint(64, initData.EventTransactionLt),
			ethabi.NewUint(32, uint64(initData.EventTimestamp)),
			ethabi.NewUint(32, uint64(initData.EventIndex)),
			ethabi.BytesValue(eventData),
			wid,
			account,
			confirmations,
			rejects,
			ethabi.AddressValue(proxy),
		}
	default:
		return nil, errors.Wrapf(relayerrors.ErrInvalidSchemaVersion, "%s", details.Version)
	}

	encoded, err := ethabi.Encode(envelope)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode payload envelope")
	}

	e.logger.WithFields(logrus.Fields{
		"version": details.Version,
		"event":   event.Name,
		"size":    len(encoded),
	}).Debug("encoded relay payload")

	return encoded, nil
}

func configurationAddress(initData types.EventInitData) (ethabi.Value, ethabi.Value, error) {
	if initData.Configuration == nil {
		return nil, nil, errors.Wrap(relayerrors.ErrInvalidAddress, "configuration address is missing")
	}
	wid := int64(initData.Configuration.Workchain())
	if wid < math.MinInt8 || wid > math.MaxInt8 {
		return nil, nil, errors.Wrapf(relayerrors.ErrIntegerOverflow, "workchain %d does not fit int8", wid)
	}
	account, overflow := uint256.FromBig(new(big.Int).SetBytes(initData.Configuration.Data()))
	if overflow {
		return nil, nil, errors.Wrap(relayerrors.ErrIntegerOverflow, "configuration account id does not fit uint256")
	}
	return ethabi.NewInt(8, wid), ethabi.UintValue{Size: 256, Number: account}, nil
}

func threshold(name string, n *big.Int) (ethabi.Value, error) {
	if n == nil {
		n = new(big.Int)
	}
	if n.Sign() < 0 || !n.IsUint64() || n.Uint64() > math.MaxUint16 {
		return nil, errors.Wrapf(relayerrors.ErrIntegerOverflow, "%s %s does not fit uint16", name, n)
	}
	return ethabi.NewUint(16, n.Uint64()), nil
}
