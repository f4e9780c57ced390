package tvm

import (
	"context"
	"math/big"

	relayerrors "github.com/ClipFinance/ton-relay-lib/common/errors"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

const (
	// OneTon is the number of nanotons in one TON.
	OneTon = 1_000_000_000
	// Balance is the balance the simulated contract believes it holds.
	Balance = 100 * OneTon
	// GasLimit caps a simulated call. It is never raised on failure.
	GasLimit = 1_000_000_000
	// gasPrice is the gas price in nanotons.
	gasPrice = 10
	// SimulationTime is used both as the unix time and as the logical time.
	SimulationTime = 1
)

// Simulator runs single contract calls against an Engine.
type Simulator struct {
	engine Engine         // Engine executing contract code.
	logger *logrus.Logger // Logger for logging events.
}

// NewSimulator creates a new simulator.
//
// Parameters:
// - engine: the engine executing contract code.
// - logger: the logger for logging events.
//
// Returns:
// - *Simulator: a new simulator instance.
func NewSimulator(engine Engine, logger *logrus.Logger) *Simulator {
	return &Simulator{
		engine: engine,
		logger: logger,
	}
}

// CallMessage delivers msg to a contract with the given code and data and
// returns the messages the contract sent, in the order it sent them.
//
// Parameters:
// - ctx: the context for managing the request.
// - code: the contract code.
// - data: the contract persistent data.
// - msg: an inbound internal or external message.
//
// Returns:
// - []*Message: the sent messages in call order.
// - error: an error if the message cannot be delivered, the execution fails,
// nothing is sent or a sent message has no body.
func (s *Simulator) CallMessage(ctx context.Context, code, data *cell.Cell, msg *Message) ([]*Message, error) {
	if s.engine == nil {
		return nil, relayerrors.ErrEngineNotConfigured
	}

	msgCell, err := msg.ToCell()
	if err != nil {
		return nil, err
	}

	var selector int64
	switch msg.Type {
	case MessageInternal:
		selector = 0
	case MessageExternalIn:
		selector = -1
	default:
		return nil, errors.Wrapf(relayerrors.ErrInvalidMessageType, "cannot deliver %s message", msg.Type)
	}

	body := msg.Body
	if body == nil {
		body = cell.BeginCell().EndCell()
	}

	req := &ExecutionRequest{
		Code: code,
		Data: data,
		Info: SmartContractInfo{
			Address:  msg.Dst,
			Balance:  big.NewInt(Balance),
			UnixTime: SimulationTime,
			BlockLt:  SimulationTime,
			TransLt:  SimulationTime,
		},
		Stack: []StackEntry{
			NewIntEntry(Balance),
			NewIntEntry(0),
			CellEntry{Cell: msgCell},
			SliceEntry{Cell: body},
			NewIntEntry(selector),
		},
		Gas: GasLimits{
			Limit:  GasLimit,
			Max:    GasLimit,
			Credit: 0,
			Price:  gasPrice,
		},
	}

	logger := s.logger.WithField("message_type", msg.Type.String())
	logger.Debug("executing contract")

	result, err := s.engine.Execute(ctx, req)
	if err != nil {
		return nil, errors.Wrap(relayerrors.ErrExecutionFailed, err.Error())
	}
	if !result.Success() {
		return nil, errors.Wrapf(relayerrors.ErrExecutionFailed, "exit code %d", result.ExitCode)
	}

	logger.WithFields(logrus.Fields{
		"exit_code": result.ExitCode,
		"gas_used":  result.GasUsed,
	}).Debug("contract executed")

	actions, err := ParseOutActions(result.Actions)
	if err != nil {
		return nil, err
	}

	var messages []*Message
	for _, action := range actions {
		send, ok := action.(SendMsgAction)
		if !ok {
			continue
		}
		if send.Message.Body == nil {
			return nil, relayerrors.ErrMessageWithoutBody
		}
		messages = append(messages, send.Message)
	}
	if len(messages) == 0 {
		return nil, relayerrors.ErrNoOutputMessages
	}

	logger.WithField("messages", len(messages)).Debug("collected output messages")
	return messages, nil
}
