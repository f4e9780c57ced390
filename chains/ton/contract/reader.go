package contract

import (
	"context"

	"github.com/ClipFinance/ton-relay-lib/chains/ton/tvm"
	relayerrors "github.com/ClipFinance/ton-relay-lib/common/errors"
	"github.com/ClipFinance/ton-relay-lib/common/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Reader obtains event details by simulating the accessor call.
type Reader struct {
	accessor  *Accessor      // Accessor of the configured schema version.
	simulator *tvm.Simulator // Simulator running the contract code.
	logger    *logrus.Logger // Logger for logging events.
}

// NewReader creates a new reader.
//
// Parameters:
// - accessor: the accessor matching the contract's schema version.
// - simulator: the simulator running the contract code.
// - logger: the logger for logging events.
//
// Returns:
// - *Reader: a new reader instance.
func NewReader(accessor *Accessor, simulator *tvm.Simulator, logger *logrus.Logger) *Reader {
	return &Reader{
		accessor:  accessor,
		simulator: simulator,
		logger:    logger,
	}
}

// GetDetails calls getDetails on a contract with the given code and data.
//
// Parameters:
// - ctx: the context for managing the request.
// - code: the contract code.
// - data: the contract persistent data.
//
// Returns:
// - *types.EventDetails: the decoded details.
// - error: a simulation error, ErrInvalidAbi for a malformed reply or
// ErrNoOutputMessages if the contract did not reply.
func (r *Reader) GetDetails(ctx context.Context, code, data *cell.Cell) (*types.EventDetails, error) {
	body, err := r.accessor.EncodeCall()
	if err != nil {
		return nil, errors.Wrap(relayerrors.ErrEncodeInput, err.Error())
	}

	messages, err := r.simulator.CallMessage(ctx, code, data, tvm.NewExternalMessage(tvm.ZeroAddress(), body))
	if err != nil {
		return nil, err
	}

	for i, msg := range messages {
		if msg.Type != tvm.MessageExternalOut {
			continue
		}
		if msg.Body == nil {
			return nil, relayerrors.ErrMessageWithoutBody
		}

		mine, err := r.accessor.IsReply(msg.Body)
		if err != nil {
			return nil, errors.Wrap(relayerrors.ErrInvalidAbi, "failed to check output message")
		}
		if !mine {
			r.logger.WithField("message", i).Debug("skipping foreign output message")
			continue
		}

		details, err := r.accessor.DecodeReply(msg.Body)
		if err != nil {
			return nil, err
		}
		r.logger.WithFields(logrus.Fields{
			"version": r.accessor.Version(),
			"status":  details.Status,
		}).Debug("decoded event details")
		return details, nil
	}

	return nil, relayerrors.ErrNoOutputMessages
}
